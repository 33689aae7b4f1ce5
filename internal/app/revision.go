package app

// Revision tracks one actor's code across time: Previous is the commit
// before the current one (T0), Current is the latest committed code (T1),
// and Live is the uncommitted keystroke-level buffer.
type Revision struct {
	Previous string
	Current  string
	Live     string

	// version increments on every commit. Outbound requests capture it so
	// replies built against an older commit can be recognized as stale.
	version uint64
}

// RevisionStore holds one Revision per actor for a single lesson session.
type RevisionStore struct {
	revs map[Actor]*Revision
}

func NewRevisionStore() *RevisionStore {
	return &RevisionStore{
		revs: map[Actor]*Revision{
			ActorUser:  {},
			ActorAgent: {},
		},
	}
}

// Seed initializes an actor from a lesson's starter code: no previous
// version, starter as both committed and live state. Used on lesson load.
func (s *RevisionStore) Seed(actor Actor, starter string) {
	rev := s.revs[actor]
	rev.Previous = ""
	rev.Current = starter
	rev.Live = starter
	rev.version = 0
}

// Commit promotes candidate to the actor's current version, shifting the old
// current into previous. When candidate equals current this is a no-op and
// returns nil: no state change, no event. Otherwise it returns the code
// event for the caller to append to the ledger.
func (s *RevisionStore) Commit(actor Actor, candidate string) *HistoryEvent {
	rev := s.revs[actor]
	if candidate == rev.Current {
		return nil
	}
	rev.Previous = rev.Current
	rev.Current = candidate
	rev.version++
	ev := NewHistoryEvent(actor, EventCode, candidate)
	return &ev
}

// SetLive overwrites the live buffer. Fires on every keystroke; carries no
// historical weight until committed.
func (s *RevisionStore) SetLive(actor Actor, text string) {
	s.revs[actor].Live = text
}

func (s *RevisionStore) Live(actor Actor) string {
	return s.revs[actor].Live
}

func (s *RevisionStore) Current(actor Actor) string {
	return s.revs[actor].Current
}

func (s *RevisionStore) Previous(actor Actor) string {
	return s.revs[actor].Previous
}

// Version reports how many commits the actor has seen since seeding.
func (s *RevisionStore) Version(actor Actor) uint64 {
	return s.revs[actor].version
}
