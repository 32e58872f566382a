package document

import "time"

// Comment is one entry of a positioned comment thread. A root comment's
// ThreadID equals its own ID; replies carry the root's id. Position is
// normalized to 0..1 within the page bounds so it survives zoom and
// rotation in the presentation layer.
type Comment struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId"`
	Page       int       `json:"page"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Content    string    `json:"content"` // markdown
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"createdAt"`
	Resolved   bool      `json:"resolved"`
	ResolvedBy string    `json:"resolvedBy,omitempty"`
}

// Root reports whether the comment is a thread root.
func (c Comment) Root() bool { return c.ID == c.ThreadID }
