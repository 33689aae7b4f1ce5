package app

// ApologyMessage is the synthetic agent reply injected when a chat request
// fails. The learner's own message is never rolled back.
const ApologyMessage = "Sorry, something went wrong..."

// Session owns all state for one loaded lesson: both actors' revisions and
// the conversation ledger. It translates discrete user intents (Run, Send,
// backend reply) into commits plus ledger appends. All methods run on the UI
// event loop; the only work that leaves the loop is the network call, whose
// result re-enters through ApplyReply.
type Session struct {
	Lesson    *Lesson
	Revisions *RevisionStore
	Ledger    *Ledger

	logger *Logger
}

// PlaybackStart describes an agent code commit that should be animated:
// the committed code before and after the change.
type PlaybackStart struct {
	Previous string
	Target   string
}

// NewSession seeds a fresh session from a loaded lesson: both revision
// stores start with previous empty and current set to the starter code, and
// the ledger opens with the agent's and then the user's initial code events.
func NewSession(lesson *Lesson, logger *Logger) *Session {
	s := &Session{
		Lesson:    lesson,
		Revisions: NewRevisionStore(),
		Ledger:    NewLedger(),
		logger:    logger,
	}
	s.Revisions.Seed(ActorAgent, lesson.AgentCode)
	s.Revisions.Seed(ActorUser, lesson.UserCode)
	s.Ledger.Append(NewHistoryEvent(ActorAgent, EventCode, lesson.AgentCode))
	s.Ledger.Append(NewHistoryEvent(ActorUser, EventCode, lesson.UserCode))
	return s
}

// SetLive records a keystroke-level buffer update. No history effect.
func (s *Session) SetLive(actor Actor, text string) {
	s.Revisions.SetLive(actor, text)
}

// CommitRun handles a Run press: promote the actor's live buffer, record the
// code event, and return the committed code. The sandbox must execute the
// returned value, never the live buffer, so it always runs exactly what the
// ledger recorded. The ledger append happens here, synchronously, before any
// execution starts.
func (s *Session) CommitRun(actor Actor) string {
	if ev := s.Revisions.Commit(actor, s.Revisions.Live(actor)); ev != nil {
		s.Ledger.Append(*ev)
		s.logger.Info("code committed", map[string]interface{}{"actor": string(actor), "trigger": "run"})
	}
	return s.Revisions.Current(actor)
}

// PrepareSend handles the first half of a chat turn. It commits both actors'
// pending live edits through the same path as Run (so the backend reasons
// over every code change since the last turn, even without a Run press),
// appends the catch-up code events and the user's chat message
// optimistically, and snapshots the ledger into the outbound request. The
// returned version tags the request with the agent store's commit count at
// send time; ApplyReply uses it to detect stale code updates.
func (s *Session) PrepareSend(userInput string) (ChatRequest, uint64) {
	for _, actor := range []Actor{ActorUser, ActorAgent} {
		if ev := s.Revisions.Commit(actor, s.Revisions.Live(actor)); ev != nil {
			s.Ledger.Append(*ev)
			s.logger.Info("code committed", map[string]interface{}{"actor": string(actor), "trigger": "send"})
		}
	}
	s.Ledger.Append(NewHistoryEvent(ActorUser, EventChat, userInput))

	req := ChatRequest{
		ConversationHistory: s.Ledger.Events(),
		ProblemStatement:    s.Lesson.ProblemStatement,
		LessonGoals:         s.Lesson.LessonGoals,
		CommonMistakes:      s.Lesson.CommonMistakes,
	}
	return req, s.Revisions.Version(ActorAgent)
}

// ApplyReply handles the second half of a chat turn, after the network call
// resolves. On failure it appends the fixed apology as an agent chat event
// and stops; no retry, no rollback. On success it appends the agent's chat
// reply, then commits the updated code if one was supplied and the agent
// store hasn't moved since the request was built. A stale reply keeps its
// chat content but its code update is discarded rather than allowed to
// overwrite newer state. Returns a PlaybackStart when the commit should be
// animated.
func (s *Session) ApplyReply(version uint64, reply *ChatReply, err error) *PlaybackStart {
	if err != nil {
		s.logger.Error("chat request failed", map[string]interface{}{"error": err.Error()})
		s.Ledger.Append(NewHistoryEvent(ActorAgent, EventChat, ApologyMessage))
		return nil
	}

	s.Ledger.Append(NewHistoryEvent(ActorAgent, EventChat, reply.Content))
	if reply.UpdatedCode == "" {
		return nil
	}
	if s.Revisions.Version(ActorAgent) != version {
		s.logger.Info("stale code update discarded", map[string]interface{}{
			"sent_version": version,
			"now_version":  s.Revisions.Version(ActorAgent),
		})
		return nil
	}

	previous := s.Revisions.Current(ActorAgent)
	ev := s.Revisions.Commit(ActorAgent, reply.UpdatedCode)
	if ev == nil {
		return nil
	}
	// The live buffer becomes authoritative immediately; only the displayed
	// buffer lags behind while the animation reveals the change.
	s.Revisions.SetLive(ActorAgent, reply.UpdatedCode)
	s.Ledger.Append(*ev)
	return &PlaybackStart{Previous: previous, Target: reply.UpdatedCode}
}
