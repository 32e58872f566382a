package comments

import (
	"fmt"

	"github.com/wudi/pdfedit/document"
)

type addEntry struct {
	store   *Store
	comment document.Comment
}

func (e *addEntry) Label() string { return "comment.add" }

func (e *addEntry) Apply() error {
	e.store.insert(e.comment, len(e.store.order))
	return nil
}

func (e *addEntry) Revert() error {
	if _, ok := e.store.byID[e.comment.ID]; !ok {
		return fmt.Errorf("comment %q: %w", e.comment.ID, document.ErrNotFound)
	}
	e.store.delete(e.comment.ID)
	return nil
}

// placedComment pairs a comment with its insertion-order index.
type placedComment struct {
	comment document.Comment
	index   int
}

// removeEntry covers single-reply removal, thread cascades, and page
// sweeps: removed is collected in descending index order, so revert
// walks backwards to reinsert at valid indices.
type removeEntry struct {
	store   *Store
	removed []placedComment
}

func (e *removeEntry) Label() string { return "comment.remove" }

func (e *removeEntry) Apply() error {
	for _, pc := range e.removed {
		if _, ok := e.store.byID[pc.comment.ID]; ok {
			e.store.delete(pc.comment.ID)
		}
	}
	return nil
}

func (e *removeEntry) Revert() error {
	for i := len(e.removed) - 1; i >= 0; i-- {
		pc := e.removed[i]
		e.store.insert(pc.comment, pc.index)
	}
	return nil
}

type resolvedState struct {
	resolved bool
	by       string
}

type resolveEntry struct {
	store  *Store
	rootID string
	before resolvedState
	after  resolvedState
}

func (e *resolveEntry) Label() string { return "comment.resolve" }

func (e *resolveEntry) Apply() error  { return e.store.setResolved(e.rootID, e.after) }
func (e *resolveEntry) Revert() error { return e.store.setResolved(e.rootID, e.before) }

func (s *Store) setResolved(rootID string, st resolvedState) error {
	root, ok := s.byID[rootID]
	if !ok {
		return fmt.Errorf("comment %q: %w", rootID, document.ErrNotFound)
	}
	root.Resolved, root.ResolvedBy = st.resolved, st.by
	return nil
}

type remapEntry struct {
	store   *Store
	mapping map[int]int
}

func (e *remapEntry) Label() string { return "comment.remap" }

func (e *remapEntry) Apply() error {
	e.store.Remap(e.mapping)
	return nil
}

func (e *remapEntry) Revert() error {
	inverse := make(map[int]int, len(e.mapping))
	for from, to := range e.mapping {
		inverse[to] = from
	}
	e.store.Remap(inverse)
	return nil
}
