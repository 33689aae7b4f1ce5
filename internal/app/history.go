package app

import (
	"time"

	"github.com/google/uuid"
)

// Actor identifies one of the two code-owning participants.
type Actor string

const (
	ActorUser  Actor = "user"
	ActorAgent Actor = "agent"
)

// EventKind is a closed enumeration. The wire name is "type" because the
// backend's /api/chat contract predates this client.
type EventKind string

const (
	EventChat EventKind = "chat"
	EventCode EventKind = "code"
)

// HistoryEvent is a single entry in the session transcript: either a chat
// message or a committed code snapshot, tagged by author.
type HistoryEvent struct {
	ID        string    `json:"-"`
	Author    Actor     `json:"author"`
	Kind      EventKind `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"-"`
}

func NewHistoryEvent(author Actor, kind EventKind, content string) HistoryEvent {
	return HistoryEvent{
		ID:        uuid.NewString(),
		Author:    author,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Ledger is the append-only conversation history. Insertion order is
// semantic: it is the literal transcript replayed to the backend each turn.
// All mutation happens on the UI event loop; there is no internal locking.
type Ledger struct {
	events []HistoryEvent
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(ev HistoryEvent) {
	l.events = append(l.events, ev)
}

// Events returns a snapshot copy so callers can hold it across suspension
// points without observing later appends.
func (l *Ledger) Events() []HistoryEvent {
	out := make([]HistoryEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Chat returns the chat-only projection used by the transcript view.
func (l *Ledger) Chat() []HistoryEvent {
	var out []HistoryEvent
	for _, ev := range l.events {
		if ev.Kind == EventChat {
			out = append(out, ev)
		}
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.events)
}

// Last returns the most recent event, if any.
func (l *Ledger) Last() (HistoryEvent, bool) {
	if len(l.events) == 0 {
		return HistoryEvent{}, false
	}
	return l.events[len(l.events)-1], true
}
