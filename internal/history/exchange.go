package history

import "errors"

// ErrCorrupt means a history source exists but does not hold a valid History.
var ErrCorrupt = errors.New("corrupt history")

// Exchange is one turn of the conversation. AI may hold a failure message;
// the data model does not tell the two apart.
type Exchange struct {
	User string `json:"user"`
	AI   string `json:"ai"`
}

// History is the ordered conversation, oldest first.
type History []Exchange

// Append returns a History with e added at the end. Existing entries are
// copied, never modified, so earlier snapshots stay valid.
func (h History) Append(e Exchange) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, e)
}

// Store persists a whole History. Implementations read and write the entire
// structure; there are no partial updates.
type Store interface {
	Load() (History, error)
	Save(h History) error
}
