package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codepeer/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenPicker screen = iota
	screenLesson
)

type focusArea int

const (
	focusChat focusArea = iota
	focusEditor
)

type replyMsg struct {
	session *app.Session
	version uint64
	reply   *app.ChatReply
	err     error
}

type playbackTickMsg struct{ gen int }

type outputLineMsg struct {
	actor app.Actor
	line  string
}

type runDoneMsg struct {
	actor app.Actor
	err   error
}

type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const maxOutputLines = 200

type MainModel struct {
	cfg     app.Config
	logger  *app.Logger
	client  *app.ChatClient
	sandbox *app.Sandbox
	store   *app.FileStore

	theme    Theme
	help     helpModel
	showHelp bool
	markdown *MarkdownRenderer

	width  int
	height int
	ready  bool

	screen screen
	picker pickerModel

	session *app.Session
	focus   focusArea

	chatInput textarea.Model
	editor    textarea.Model
	chatVP    viewport.Model
	agentVP   viewport.Model

	// agentShown is the agent panel's displayed buffer. It lags the agent's
	// live buffer only while a playback animation is revealing a change.
	agentShown  string
	playback    *app.Playback
	playbackGen int

	sending    bool
	spinnerPos int

	running    bool
	runSession *app.Session
	runCancel  context.CancelFunc
	runCh      chan tea.Msg
	output     []string
	statusMsg  string
}

func New(cfg app.Config, logger *app.Logger, client *app.ChatClient, sandbox *app.Sandbox, store *app.FileStore) *MainModel {
	chatInput := textarea.New()
	chatInput.Placeholder = "Talk to your peer..."
	chatInput.CharLimit = 4000
	chatInput.SetHeight(1)
	chatInput.Prompt = " "
	chatInput.ShowLineNumbers = false
	chatInput.FocusedStyle.CursorLine = lipgloss.NewStyle()
	chatInput.BlurredStyle.CursorLine = lipgloss.NewStyle()
	chatInput.Focus()

	editor := textarea.New()
	editor.Placeholder = "# your code"
	editor.CharLimit = 0
	editor.Prompt = ""
	editor.ShowLineNumbers = true
	editor.FocusedStyle.CursorLine = lipgloss.NewStyle()
	editor.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &MainModel{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		sandbox:   sandbox,
		store:     store,
		theme:     NewTheme(),
		help:      newHelpModel(),
		width:     100,
		height:    30,
		screen:    screenPicker,
		picker:    newPickerModel(cfg.LessonsDir, store),
		focus:     focusChat,
		chatInput: chatInput,
		editor:    editor,
	}
}

func (m *MainModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(m.width)
		m.applyLayout()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case replyMsg:
		// A lesson switch replaces the session; a reply from the old
		// session must not leak into the new one.
		if msg.session != m.session {
			return m, nil
		}
		m.sending = false
		start := m.session.ApplyReply(msg.version, msg.reply, msg.err)
		m.refreshChat()
		m.chatVP.GotoBottom()
		if start != nil {
			return m, m.startPlayback(start.Previous, start.Target)
		}
		return m, nil

	case playbackTickMsg:
		// A stale generation means this animation was superseded; its loop
		// stops here without touching the displayed buffer.
		if msg.gen != m.playbackGen || m.playback == nil {
			return m, nil
		}
		frame, done := m.playback.Step()
		m.agentShown = frame
		m.refreshAgentPanel()
		if done {
			m.playback = nil
			return m, nil
		}
		return m, m.playbackTick()

	case outputLineMsg:
		// Lines from a run that belongs to a replaced session are
		// discarded, but the channel keeps draining so the producer
		// goroutine can finish.
		if m.runSession == m.session {
			m.output = append(m.output, msg.line)
			if len(m.output) > maxOutputLines {
				m.output = m.output[len(m.output)-maxOutputLines:]
			}
		}
		return m, m.waitRun()

	case runDoneMsg:
		stale := m.runSession != m.session
		m.running = false
		m.runSession = nil
		m.runCancel = nil
		m.runCh = nil
		if msg.err != nil && !stale {
			m.output = append(m.output, fmt.Sprintf("error: %v", msg.err))
		}
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.sending {
			return m, m.spinTick()
		}
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m *MainModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.help.keys

	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.screen == screenPicker {
		switch msg.Type {
		case tea.KeyUp:
			m.picker.move(-1)
			return m, nil
		case tea.KeyDown:
			m.picker.move(1)
			return m, nil
		case tea.KeyEnter:
			return m, m.openLesson()
		}
		if key.Matches(msg, keys.Help) {
			m.showHelp = true
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, keys.Lessons):
		m.screen = screenPicker
		m.picker = newPickerModel(m.cfg.LessonsDir, m.store)
		return m, nil

	case key.Matches(msg, keys.FocusNext):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, keys.RunUser):
		return m, m.startRun(app.ActorUser)

	case key.Matches(msg, keys.RunAgent):
		return m, m.startRun(app.ActorAgent)

	case key.Matches(msg, keys.Enter) && m.focus == focusChat:
		return m, m.onSend()
	}

	return m.updateComponents(msg)
}

func (m *MainModel) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.screen != screenLesson {
		return m, nil
	}

	switch m.focus {
	case focusChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
		cmds = append(cmds, cmd)
	case focusEditor:
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
		// Every keystroke lands in the live buffer immediately; it gains
		// historical weight only on commit.
		if m.session != nil {
			m.session.SetLive(app.ActorUser, m.editor.Value())
		}
	}

	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *MainModel) openLesson() tea.Cmd {
	lesson, err := m.picker.load(m.store)
	if err != nil {
		m.picker.err = err.Error()
		return nil
	}
	m.enterLesson(lesson)
	return nil
}

// EnterLesson skips the picker and starts a session directly, for the
// --lesson flag.
func (m *MainModel) EnterLesson(lesson *app.Lesson) {
	m.enterLesson(lesson)
}

func (m *MainModel) enterLesson(lesson *app.Lesson) {
	// Kill any run left over from the previous lesson. Its remaining
	// messages arrive tagged with the old session and are dropped.
	if m.runCancel != nil {
		m.runCancel()
	}

	m.session = app.NewSession(lesson, m.logger)
	m.logger.Info("lesson loaded", map[string]interface{}{"lesson": lesson.ID})

	m.screen = screenLesson
	m.focus = focusChat
	m.chatInput.Reset()
	m.chatInput.Focus()
	m.editor.Blur()
	m.editor.SetValue(lesson.UserCode)
	m.agentShown = lesson.AgentCode
	m.playback = nil
	m.playbackGen++
	m.sending = false
	m.output = nil
	m.statusMsg = ""

	m.applyLayout()
	m.refreshChat()
	m.refreshAgentPanel()
}

func (m *MainModel) cycleFocus() {
	if m.focus == focusChat {
		m.focus = focusEditor
		m.chatInput.Blur()
		m.editor.Focus()
	} else {
		m.focus = focusChat
		m.editor.Blur()
		m.chatInput.Focus()
	}
}

func (m *MainModel) onSend() tea.Cmd {
	input := strings.TrimSpace(m.chatInput.Value())
	if input == "" || m.session == nil {
		return nil
	}
	if m.sending {
		// One turn at a time; an overlapping request would violate the
		// transcript's happens-before order.
		m.statusMsg = "peer is still thinking..."
		return nil
	}

	m.session.SetLive(app.ActorUser, m.editor.Value())
	sess := m.session
	req, version := sess.PrepareSend(input)

	m.chatInput.Reset()
	m.statusMsg = ""
	m.refreshChat()
	m.chatVP.GotoBottom()
	m.sending = true
	m.spinnerPos = 0

	timeout := time.Duration(m.cfg.RequestTimeoutSec) * time.Second
	send := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply, err := m.client.Send(ctx, req)
		return replyMsg{session: sess, version: version, reply: reply, err: err}
	}
	return tea.Batch(send, m.spinTick())
}

// startRun commits the actor's live code and executes the committed version.
// The commit and its ledger append happen synchronously, before the sandbox
// goroutine starts, so a failing run can never leave the two inconsistent.
func (m *MainModel) startRun(actor app.Actor) tea.Cmd {
	if m.session == nil || m.running {
		return nil
	}
	if actor == app.ActorUser {
		m.session.SetLive(app.ActorUser, m.editor.Value())
	}
	code := m.session.CommitRun(actor)

	m.running = true
	m.runSession = m.session
	m.output = []string{m.roleLabel(actor) + " run:"}

	ctx, cancel := context.WithCancel(context.Background())
	m.runCancel = cancel
	ch := make(chan tea.Msg, 64)
	m.runCh = ch
	go func() {
		err := m.sandbox.Run(ctx, code, func(line string) {
			ch <- outputLineMsg{actor: actor, line: line}
		})
		ch <- runDoneMsg{actor: actor, err: err}
		close(ch)
	}()
	return m.waitRun()
}

func (m *MainModel) waitRun() tea.Cmd {
	ch := m.runCh
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *MainModel) startPlayback(previous, target string) tea.Cmd {
	m.playbackGen++
	m.playback = app.NewPlayback(previous, target)
	return m.playbackTick()
}

func (m *MainModel) playbackTick() tea.Cmd {
	gen := m.playbackGen
	interval := time.Duration(m.cfg.TypingIntervalMs) * time.Millisecond
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return playbackTickMsg{gen: gen}
	})
}

func (m *MainModel) spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func (m *MainModel) roleLabel(actor app.Actor) string {
	if actor == app.ActorUser {
		return "you"
	}
	return "peer"
}

func (m *MainModel) refreshChat() {
	if m.session == nil || !m.ready {
		return
	}
	width := m.chatVP.Width - 2
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	for _, ev := range m.session.Ledger.Chat() {
		var head string
		var body string
		switch {
		case ev.Author == app.ActorUser:
			head = m.theme.RoleYou.Render("YOU")
			body = lipgloss.NewStyle().Foreground(m.theme.TextPrimary).Width(width).Render(ev.Content)
		case ev.Content == app.ApologyMessage:
			head = m.theme.RoleErr.Render("PEER")
			body = m.theme.OutputErr.Width(width).Render(ev.Content)
		default:
			head = m.theme.RolePeer.Render("PEER")
			body = m.markdown.Render(ev.Content, width)
		}
		b.WriteString(head)
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *MainModel) refreshAgentPanel() {
	if !m.ready {
		return
	}
	m.agentVP.SetContent(m.markdown.Highlight(m.agentShown, "python"))
	m.agentVP.GotoBottom()
}

type layout struct {
	LeftW   int
	RightW  int
	ChatH   int
	EditorH int
	AgentH  int
	OutputH int
}

func (m *MainModel) computeLayout() layout {
	leftW := m.width * 2 / 5
	if leftW < 36 {
		leftW = 36
	}
	rightW := m.width - leftW
	body := m.height - 5 // top bar, input box, footer
	if body < 12 {
		body = 12
	}
	editorH := body * 2 / 5
	agentH := body * 2 / 5
	outputH := body - editorH - agentH
	return layout{
		LeftW:   leftW,
		RightW:  rightW,
		ChatH:   body,
		EditorH: editorH,
		AgentH:  agentH,
		OutputH: outputH,
	}
}

func (m *MainModel) applyLayout() {
	lay := m.computeLayout()
	if !m.ready {
		m.chatVP = viewport.New(lay.LeftW-2, lay.ChatH-2)
		m.agentVP = viewport.New(lay.RightW-2, lay.AgentH-2)
		m.markdown = NewMarkdownRenderer(m.theme)
		m.ready = true
	} else {
		m.chatVP.Width = lay.LeftW - 2
		m.chatVP.Height = lay.ChatH - 2
		m.agentVP.Width = lay.RightW - 2
		m.agentVP.Height = lay.AgentH - 2
	}
	m.chatInput.SetWidth(lay.LeftW - 4)
	m.editor.SetWidth(lay.RightW - 4)
	m.editor.SetHeight(maxInt(3, lay.EditorH-3))
	m.refreshChat()
	m.refreshAgentPanel()
}

func (m *MainModel) View() string {
	if m.showHelp {
		return m.help.View()
	}
	if m.screen == screenPicker {
		return m.picker.view(m.theme, m.width, m.height)
	}
	if !m.ready || m.session == nil {
		return "…"
	}

	lay := m.computeLayout()
	top := m.renderTopBar()
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPane("chat", m.chatVP.View(), lay.LeftW, m.focus == focusChat),
		m.renderInput(lay.LeftW),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPane("your workspace", m.editor.View(), lay.RightW, m.focus == focusEditor),
		m.renderPane("peer's workspace", m.agentVP.View(), lay.RightW, false),
		m.renderPane("output", m.renderOutput(lay.RightW-4, lay.OutputH-2), lay.RightW, false),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	footer := m.renderFooter()
	return lipgloss.JoinVertical(lipgloss.Left, top, body, footer)
}

func (m *MainModel) renderTopBar() string {
	title := m.theme.TopBarTitle.Render(m.session.Lesson.Title)
	badge := ""
	if m.session.Lesson.Difficulty != "" {
		badge = "  " + m.theme.TopBarBadge.Render(m.session.Lesson.Difficulty)
	}
	meta := ""
	if len(m.session.Lesson.Tags) > 0 {
		meta = "  " + m.theme.TopBarMeta.Render(strings.Join(m.session.Lesson.Tags, ", "))
	}
	status := ""
	if m.sending {
		status = "  " + m.theme.Spinner.Render(spinnerFrames[m.spinnerPos]+" thinking")
	} else if m.statusMsg != "" {
		status = "  " + m.theme.RoleSys.Render(m.statusMsg)
	}
	return m.theme.TopBar.Render(" ") + title + badge + meta + status
}

func (m *MainModel) renderPane(title, content string, width int, focused bool) string {
	style := m.theme.Pane
	titleStyle := m.theme.PaneTitle
	if focused {
		style = m.theme.PaneFocused
		titleStyle = m.theme.PaneTitleF
	}
	return style.Width(width - 2).Render(titleStyle.Render(title) + "\n" + content)
}

func (m *MainModel) renderInput(width int) string {
	style := m.theme.InputBox
	if m.focus == focusChat {
		style = m.theme.InputBoxF
	}
	return style.Width(width - 2).Render(m.chatInput.View())
}

func (m *MainModel) renderOutput(width, height int) string {
	if height < 1 {
		height = 1
	}
	lines := m.output
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	var b strings.Builder
	for _, line := range lines {
		style := m.theme.OutputText
		if strings.HasPrefix(line, "error:") || strings.Contains(line, "Traceback") {
			style = m.theme.OutputErr
		}
		b.WriteString(style.MaxWidth(width).Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *MainModel) renderFooter() string {
	return m.theme.Footer.Render(" enter send · tab focus · ctrl+r run yours · ctrl+e run peer's · ctrl+l lessons · ctrl+g help · ctrl+c quit")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
