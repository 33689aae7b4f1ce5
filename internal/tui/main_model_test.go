package tui

import (
	"errors"
	"io"
	"testing"
	"time"

	"codepeer/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) *MainModel {
	t.Helper()
	cfg := app.Config{
		BackendURL:        app.MockBaseURL,
		RequestTimeoutSec: 5,
		TypingIntervalMs:  1,
		LessonsDir:        t.TempDir(),
		Python:            "python3",
	}
	logger := app.NewLogger(io.Discard)
	client := app.NewChatClient(cfg.BackendURL, time.Second)
	sandbox := app.NewSandbox(cfg.Python, logger)
	store := app.NewFileStore(t.TempDir())

	m := New(cfg, logger, client, sandbox, store)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	out, ok := updated.(*MainModel)
	if !ok {
		t.Fatalf("expected *MainModel, got %T", updated)
	}

	lesson := &app.Lesson{
		ID:               "loops-01",
		Title:            "Loops",
		ProblemStatement: "Print the numbers 1 through 3.",
		AgentCode:        "print(1)\n",
		UserCode:         "",
	}
	out.session = app.NewSession(lesson, logger)
	out.screen = screenLesson
	out.agentShown = lesson.AgentCode
	out.editor.SetValue(lesson.UserCode)
	return out
}

func tick(t *testing.T, m *MainModel, gen int) *MainModel {
	t.Helper()
	updated, _ := m.Update(playbackTickMsg{gen: gen})
	out, ok := updated.(*MainModel)
	if !ok {
		t.Fatalf("expected *MainModel, got %T", updated)
	}
	return out
}

func TestPlaybackTicksRevealTarget(t *testing.T) {
	m := newTestModel(t)

	if cmd := m.startPlayback("", "hi"); cmd == nil {
		t.Fatalf("expected a tick command")
	}
	gen := m.playbackGen

	m = tick(t, m, gen)
	if m.agentShown != "h" {
		t.Fatalf("after first tick got %q, want %q", m.agentShown, "h")
	}
	m = tick(t, m, gen)
	if m.agentShown != "hi" {
		t.Fatalf("after second tick got %q, want %q", m.agentShown, "hi")
	}
	m = tick(t, m, gen)
	if m.playback != nil {
		t.Fatalf("expected playback cleared after completion")
	}
	if m.agentShown != "hi" {
		t.Fatalf("final frame got %q, want %q", m.agentShown, "hi")
	}
}

func TestStalePlaybackTickIsDropped(t *testing.T) {
	m := newTestModel(t)

	m.startPlayback("", "alpha")
	oldGen := m.playbackGen
	m = tick(t, m, oldGen)
	if m.agentShown != "a" {
		t.Fatalf("setup tick got %q, want %q", m.agentShown, "a")
	}

	// A new animation supersedes the first; the first's remaining ticks
	// must not advance anything.
	m.startPlayback("", "beta")
	m = tick(t, m, oldGen)
	if m.agentShown != "a" {
		t.Fatalf("stale tick advanced the panel: got %q", m.agentShown)
	}

	m = tick(t, m, m.playbackGen)
	if m.agentShown != "b" {
		t.Fatalf("fresh tick got %q, want %q", m.agentShown, "b")
	}
}

func TestReplyErrorShowsApologyWithoutPlayback(t *testing.T) {
	m := newTestModel(t)

	_, version := m.session.PrepareSend("help me")
	m.sending = true

	updated, cmd := m.Update(replyMsg{session: m.session, version: version, err: errors.New("backend down")})
	m = updated.(*MainModel)

	if m.sending {
		t.Fatalf("expected sending cleared")
	}
	if cmd != nil {
		t.Fatalf("expected no playback command on error")
	}
	chat := m.session.Ledger.Chat()
	last := chat[len(chat)-1]
	if last.Author != app.ActorAgent || last.Content != app.ApologyMessage {
		t.Fatalf("expected apology from agent, got %s: %q", last.Author, last.Content)
	}
}

func TestReplyWithCodeStartsPlayback(t *testing.T) {
	m := newTestModel(t)

	_, version := m.session.PrepareSend("show me")
	m.sending = true

	updated := "print(1)\nprint(2)\n"
	model, cmd := m.Update(replyMsg{
		session: m.session,
		version: version,
		reply:   &app.ChatReply{Content: "here you go", UpdatedCode: updated},
	})
	m = model.(*MainModel)

	if cmd == nil {
		t.Fatalf("expected a playback tick command")
	}
	if m.playback == nil {
		t.Fatalf("expected an active playback")
	}
	// The panel keeps showing the previous version until ticks arrive.
	if m.agentShown != "print(1)\n" {
		t.Fatalf("panel advanced before any tick: %q", m.agentShown)
	}
	for i := 0; i < len(updated)+2 && m.playback != nil; i++ {
		m = tick(t, m, m.playbackGen)
	}
	if m.agentShown != updated {
		t.Fatalf("playback ended on %q, want %q", m.agentShown, updated)
	}
}

func TestLessonSwitchDropsInFlightReply(t *testing.T) {
	m := newTestModel(t)

	oldSession := m.session
	_, version := oldSession.PrepareSend("help me")
	m.sending = true

	next := &app.Lesson{
		ID:        "sorting-01",
		Title:     "Sorting",
		AgentCode: "items.sort()\n",
		UserCode:  "",
	}
	m.enterLesson(next)

	updated, cmd := m.Update(replyMsg{
		session: oldSession,
		version: version,
		reply:   &app.ChatReply{Content: "about the old lesson", UpdatedCode: "for i in range(5): print(i)"},
	})
	m = updated.(*MainModel)

	if cmd != nil {
		t.Fatalf("reply from a replaced session must not start playback")
	}
	if got := m.session.Revisions.Current(app.ActorAgent); got != next.AgentCode {
		t.Fatalf("old reply leaked into the new session's agent code: %q", got)
	}
	for _, ev := range m.session.Ledger.Chat() {
		if ev.Content == "about the old lesson" {
			t.Fatalf("old reply leaked into the new session's transcript")
		}
	}
	if m.agentShown != next.AgentCode {
		t.Fatalf("agent panel shows %q, want %q", m.agentShown, next.AgentCode)
	}
}

func TestLessonSwitchDiscardsRunOutput(t *testing.T) {
	m := newTestModel(t)

	m.running = true
	m.runSession = m.session
	m.runCancel = func() {}
	m.runCh = make(chan tea.Msg, 1)

	next := &app.Lesson{ID: "sorting-01", Title: "Sorting", AgentCode: "items.sort()\n"}
	m.enterLesson(next)

	updated, cmd := m.Update(outputLineMsg{actor: app.ActorUser, line: "leftover line"})
	m = updated.(*MainModel)
	if len(m.output) != 0 {
		t.Fatalf("output from a replaced session's run leaked: %v", m.output)
	}
	if cmd == nil {
		t.Fatalf("the run channel must keep draining until the run ends")
	}

	updated, _ = m.Update(runDoneMsg{actor: app.ActorUser, err: errors.New("signal: killed")})
	m = updated.(*MainModel)
	if m.running || m.runCh != nil {
		t.Fatalf("run state not cleared after the stale run finished")
	}
	if len(m.output) != 0 {
		t.Fatalf("stale run error surfaced in the new lesson: %v", m.output)
	}
}

func TestSendWhileSendingIsRejected(t *testing.T) {
	m := newTestModel(t)
	m.sending = true
	m.chatInput.SetValue("second message")

	if cmd := m.onSend(); cmd != nil {
		t.Fatalf("expected overlapping send to be rejected")
	}
	if m.chatInput.Value() != "second message" {
		t.Fatalf("rejected send should not clear the input")
	}
	if m.statusMsg == "" {
		t.Fatalf("expected a status notice")
	}
}

func TestEditorKeystrokesSyncLiveBuffer(t *testing.T) {
	m := newTestModel(t)
	m.cycleFocus() // chat -> editor

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = updated.(*MainModel)

	if got := m.session.Revisions.Live(app.ActorUser); got != m.editor.Value() {
		t.Fatalf("live buffer %q does not match editor %q", got, m.editor.Value())
	}
}
