// Package comments owns threaded, positioned comments keyed by id and
// indexed by page and thread. A thread is a root comment plus its
// replies; deleting a root cascades over the whole thread in one
// reversible entry.
package comments

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/history"
)

type Store struct {
	hist  history.Recorder
	byID  map[string]*document.Comment
	order []string
}

// New returns an empty store recording into rec.
func New(rec history.Recorder) *Store {
	return &Store{
		hist: rec,
		byID: make(map[string]*document.Comment),
	}
}

// Add appends a comment and records the mutation. A comment with an
// empty ThreadID becomes a thread root; otherwise ThreadID must name an
// existing root, and the reply is pinned to the root's page and
// position.
func (s *Store) Add(c document.Comment) (string, error) {
	c.ID = uuid.NewString()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.ThreadID == "" {
		if c.Page < 1 {
			return "", fmt.Errorf("comment on page %d: %w", c.Page, document.ErrInvalidPage)
		}
		c.ThreadID = c.ID
	} else {
		root, ok := s.byID[c.ThreadID]
		if !ok || !root.Root() {
			return "", fmt.Errorf("thread %q: %w", c.ThreadID, document.ErrInvalidThread)
		}
		c.Page = root.Page
		c.X = root.X
		c.Y = root.Y
	}
	s.insert(c, len(s.order))
	s.hist.Record(&addEntry{store: s, comment: c})
	return c.ID, nil
}

// Remove deletes a comment. Removing a thread root removes every reply
// in the same entry, so one undo restores the whole thread.
func (s *Store) Remove(id string) error {
	c, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("comment %q: %w", id, document.ErrNotFound)
	}
	var removed []placedComment
	if c.Root() {
		for idx := len(s.order) - 1; idx >= 0; idx-- {
			if v := s.byID[s.order[idx]]; v.ThreadID == c.ThreadID {
				removed = append(removed, placedComment{comment: *v, index: idx})
				s.delete(v.ID)
			}
		}
	} else {
		removed = []placedComment{{comment: *c, index: s.indexOf(id)}}
		s.delete(id)
	}
	s.hist.Record(&removeEntry{store: s, removed: removed})
	return nil
}

// Resolve toggles the resolved flag on the comment's thread root.
// Replies inherit the root's state and are not independently
// resolvable; passing a reply id resolves its thread.
func (s *Store) Resolve(id, resolvedBy string) error {
	c, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("comment %q: %w", id, document.ErrNotFound)
	}
	root, ok := s.byID[c.ThreadID]
	if !ok {
		return fmt.Errorf("thread %q: %w", c.ThreadID, document.ErrInvalidThread)
	}
	e := &resolveEntry{
		store:  s,
		rootID: root.ID,
		before: resolvedState{root.Resolved, root.ResolvedBy},
		after:  resolvedState{!root.Resolved, resolvedBy},
	}
	if e.after.resolved {
		root.Resolved, root.ResolvedBy = true, resolvedBy
	} else {
		root.Resolved, root.ResolvedBy = false, ""
		e.after.by = ""
	}
	s.hist.Record(e)
	return nil
}

// Get returns a copy of the comment.
func (s *Store) Get(id string) (document.Comment, error) {
	c, ok := s.byID[id]
	if !ok {
		return document.Comment{}, fmt.Errorf("comment %q: %w", id, document.ErrNotFound)
	}
	return *c, nil
}

// ByPage returns the page's comments in creation order.
func (s *Store) ByPage(page int) []document.Comment {
	var out []document.Comment
	for _, id := range s.order {
		if c := s.byID[id]; c.Page == page {
			out = append(out, *c)
		}
	}
	return out
}

// ByThread returns the thread sorted chronologically, root first.
func (s *Store) ByThread(threadID string) []document.Comment {
	var out []document.Comment
	for _, id := range s.order {
		if c := s.byID[id]; c.ThreadID == threadID {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Root() != out[j].Root() {
			return out[i].Root()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// All returns every comment in insertion order.
func (s *Store) All() []document.Comment {
	out := make([]document.Comment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Len returns the number of comments.
func (s *Store) Len() int { return len(s.order) }

// Reset replaces the contents wholesale without recording.
func (s *Store) Reset(comments []document.Comment) {
	s.byID = make(map[string]*document.Comment, len(comments))
	s.order = s.order[:0]
	for _, c := range comments {
		s.insert(c, len(s.order))
	}
}

// RemovePage strips every comment on the given page and returns an
// already-applied entry for the caller's composite, or nil. Threads
// never span pages, so whole threads go at once. Does not record.
func (s *Store) RemovePage(page int) history.Entry {
	var removed []placedComment
	for idx := len(s.order) - 1; idx >= 0; idx-- {
		id := s.order[idx]
		if c := s.byID[id]; c.Page == page {
			removed = append(removed, placedComment{comment: *c, index: idx})
			s.delete(id)
		}
	}
	if removed == nil {
		return nil
	}
	return &removeEntry{store: s, removed: removed}
}

// Remap rewrites page numbers through mapping and returns an
// already-applied entry, or nil. Does not record.
func (s *Store) Remap(mapping map[int]int) history.Entry {
	touched := false
	for _, id := range s.order {
		c := s.byID[id]
		if to, ok := mapping[c.Page]; ok && to != c.Page {
			c.Page = to
			touched = true
		}
	}
	if !touched {
		return nil
	}
	return &remapEntry{store: s, mapping: mapping}
}

func (s *Store) insert(c document.Comment, idx int) {
	cp := c
	s.byID[c.ID] = &cp
	s.order = append(s.order, "")
	copy(s.order[idx+1:], s.order[idx:])
	s.order[idx] = c.ID
}

func (s *Store) delete(id string) {
	if idx := s.indexOf(id); idx >= 0 {
		s.order = append(s.order[:idx], s.order[idx+1:]...)
	}
	delete(s.byID, id)
}

func (s *Store) indexOf(id string) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}
