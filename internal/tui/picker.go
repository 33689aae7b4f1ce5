package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"codepeer/internal/app"

	"github.com/charmbracelet/lipgloss"
)

// pickerEntry is one selectable lesson: either a file from the lessons
// directory or one previously imported into the file store.
type pickerEntry struct {
	ID         string
	Title      string
	Difficulty string
	Tags       []string

	path     string // set for catalog lessons
	storeIdx int    // set for imported lessons
	imported bool
}

type pickerModel struct {
	entries []pickerEntry
	sel     int
	err     string
}

func newPickerModel(lessonsDir string, store *app.FileStore) pickerModel {
	var p pickerModel

	catalog, err := app.ListLessons(lessonsDir)
	if err != nil {
		p.err = fmt.Sprintf("no lesson catalog at %s", lessonsDir)
	}
	for _, summary := range catalog {
		p.entries = append(p.entries, pickerEntry{
			ID:         summary.ID,
			Title:      summary.Title,
			Difficulty: summary.Difficulty,
			Tags:       summary.Tags,
			path:       filepath.Join(lessonsDir, summary.ID+".md"),
		})
	}

	files, err := store.List()
	if err == nil {
		for i, file := range files {
			id := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
			p.entries = append(p.entries, pickerEntry{
				ID:       id,
				Title:    id,
				storeIdx: i,
				imported: true,
			})
		}
	}

	// Restore the persisted selection pointer for imported lessons.
	if idx, err := store.Selected(); err == nil && idx >= 0 {
		for i, entry := range p.entries {
			if entry.imported && entry.storeIdx == idx {
				p.sel = i
				break
			}
		}
	}
	return p
}

func (p *pickerModel) move(delta int) {
	if len(p.entries) == 0 {
		return
	}
	p.sel += delta
	if p.sel < 0 {
		p.sel = 0
	}
	if p.sel >= len(p.entries) {
		p.sel = len(p.entries) - 1
	}
}

func (p *pickerModel) selected() (pickerEntry, bool) {
	if p.sel < 0 || p.sel >= len(p.entries) {
		return pickerEntry{}, false
	}
	return p.entries[p.sel], true
}

// load resolves the highlighted entry to a parsed lesson and, for imported
// lessons, persists the selection pointer.
func (p *pickerModel) load(store *app.FileStore) (*app.Lesson, error) {
	entry, ok := p.selected()
	if !ok {
		return nil, fmt.Errorf("no lesson selected")
	}
	if entry.imported {
		data, err := store.Content(entry.storeIdx)
		if err != nil {
			return nil, err
		}
		_ = store.Select(entry.storeIdx)
		return app.ParseLesson(entry.ID, data)
	}
	return app.LoadLesson(entry.path)
}

func (p pickerModel) view(theme Theme, width, height int) string {
	var b strings.Builder
	b.WriteString(theme.TopBarTitle.Render("codepeer"))
	b.WriteString("  ")
	b.WriteString(theme.TopBarMeta.Render("pick a lesson, then learn by teaching your peer"))
	b.WriteString("\n\n")

	if len(p.entries) == 0 {
		b.WriteString(theme.RoleSys.Render("no lessons found"))
		if p.err != "" {
			b.WriteString("\n")
			b.WriteString(theme.OutputErr.Render(p.err))
		}
		b.WriteString("\n\n")
		b.WriteString(theme.Footer.Render("codepeer import <file.md> adds a lesson"))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	for i, entry := range p.entries {
		marker := "  "
		style := theme.ListItem
		if i == p.sel {
			marker = "> "
			style = theme.ListSel
		}
		line := entry.Title
		if line == "" {
			line = entry.ID
		}
		if entry.Difficulty != "" {
			line += "  " + theme.TopBarMeta.Render("("+entry.Difficulty+")")
		}
		if len(entry.Tags) > 0 {
			line += "  " + theme.TopBarMeta.Render(strings.Join(entry.Tags, ", "))
		}
		if entry.imported {
			line += "  " + theme.TopBarMeta.Render("[imported]")
		}
		b.WriteString(style.Render(marker + line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Footer.Render("up/down select · enter start · ctrl+c quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
