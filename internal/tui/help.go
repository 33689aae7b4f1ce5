package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type helpModel struct {
	keys  keyMap
	width int
}

func newHelpModel() helpModel {
	return helpModel{
		keys:  defaultKeyMap(),
		width: 80,
	}
}

func (m *helpModel) SetWidth(width int) {
	m.width = width
}

func (m helpModel) View() string {
	var b strings.Builder

	b.WriteString(helpTitleStyle.Render("codepeer help"))
	b.WriteString("\n\n")

	b.WriteString(helpSectionStyle.Render("chat"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  send message to your peer\n", helpKeyStyle.Render("enter")))
	b.WriteString(fmt.Sprintf("  %s  cycle focus (chat / your editor)\n", helpKeyStyle.Render("tab")))
	b.WriteString("\n")

	b.WriteString(helpSectionStyle.Render("code"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  run your code\n", helpKeyStyle.Render("ctrl+r")))
	b.WriteString(fmt.Sprintf("  %s  run the peer's code\n", helpKeyStyle.Render("ctrl+e")))
	b.WriteString("\n")

	b.WriteString(helpSectionStyle.Render("session"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s  back to the lesson list\n", helpKeyStyle.Render("ctrl+l")))
	b.WriteString(fmt.Sprintf("  %s  toggle this help\n", helpKeyStyle.Render("ctrl+g")))
	b.WriteString(fmt.Sprintf("  %s  quit\n", helpKeyStyle.Render("ctrl+c")))

	b.WriteString("\n")
	b.WriteString(helpFooterStyle.Render("running code commits it; sending a message commits any pending edits"))

	return b.String()
}

type keyMap struct {
	Quit      key.Binding
	Enter     key.Binding
	FocusNext key.Binding
	RunUser   key.Binding
	RunAgent  key.Binding
	Lessons   key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle focus"),
		),
		RunUser: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "run your code"),
		),
		RunAgent: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "run peer code"),
		),
		Lessons: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "lesson list"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "help"),
		),
	}
}

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#34d399"))

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#67e8f9"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f2f2f2"))

	helpFooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8d8d8d")).
			Italic(true)
)
