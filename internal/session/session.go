package session

// Roles carried in history turns. The persona prompt is never stored here;
// it belongs to the generator.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of the conversation. Immutable once appended.
type Turn struct {
	Role    string
	Content string
}

// History is the bounded, ordered conversation memory. Entries are appended
// in user-then-assistant pairs by the caller; Trim evicts the oldest entries
// first, so pairs survive eviction intact.
type History struct {
	turns []Turn
	max   int // message cap, 2 * turn pairs
}

// NewHistory returns a history holding at most maxTurns user+assistant pairs.
func NewHistory(maxTurns int) *History {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &History{max: 2 * maxTurns}
}

func (h *History) Append(t Turn) {
	h.turns = append(h.turns, t)
}

// Trim drops the oldest entries until the cap holds again.
func (h *History) Trim() {
	if len(h.turns) > h.max {
		h.turns = h.turns[len(h.turns)-h.max:]
	}
}

// Context returns the current history in chronological order. The slice is
// a copy; callers cannot mutate stored turns through it.
func (h *History) Context() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int { return len(h.turns) }
