package annotations

import (
	"fmt"

	"github.com/wudi/pdfedit/document"
)

type addEntry struct {
	store *Store
	ann   document.Annotation
}

func (e *addEntry) Label() string { return "annotation.add" }

func (e *addEntry) Apply() error {
	e.store.insert(e.ann.Clone(), len(e.store.order))
	return nil
}

func (e *addEntry) Revert() error {
	if _, ok := e.store.byID[e.ann.ID]; !ok {
		return fmt.Errorf("annotation %q: %w", e.ann.ID, document.ErrNotFound)
	}
	e.store.delete(e.ann.ID)
	return nil
}

type updateEntry struct {
	store         *Store
	before, after document.Annotation
}

func (e *updateEntry) Label() string { return "annotation.update" }

func (e *updateEntry) Apply() error  { return e.store.overwrite(e.after) }
func (e *updateEntry) Revert() error { return e.store.overwrite(e.before) }

func (s *Store) overwrite(a document.Annotation) error {
	cur, ok := s.byID[a.ID]
	if !ok {
		return fmt.Errorf("annotation %q: %w", a.ID, document.ErrNotFound)
	}
	*cur = a.Clone()
	return nil
}

type removeEntry struct {
	store *Store
	ann   document.Annotation
	index int
}

func (e *removeEntry) Label() string { return "annotation.remove" }

func (e *removeEntry) Apply() error {
	if _, ok := e.store.byID[e.ann.ID]; !ok {
		return fmt.Errorf("annotation %q: %w", e.ann.ID, document.ErrNotFound)
	}
	e.store.delete(e.ann.ID)
	return nil
}

func (e *removeEntry) Revert() error {
	e.store.insert(e.ann.Clone(), e.index)
	return nil
}

// placedAnnotation pairs an annotation with its insertion-order index so
// undo restores paint order exactly.
type placedAnnotation struct {
	ann   document.Annotation
	index int
}

// pageSweepEntry removes every annotation of one page. removed is kept
// in descending index order; revert walks it backwards so indices are
// valid again at reinsertion time.
type pageSweepEntry struct {
	store   *Store
	page    int
	removed []placedAnnotation
}

func (e *pageSweepEntry) Label() string { return "annotation.removePage" }

func (e *pageSweepEntry) Apply() error {
	for _, pa := range e.removed {
		if _, ok := e.store.byID[pa.ann.ID]; ok {
			e.store.delete(pa.ann.ID)
		}
	}
	return nil
}

func (e *pageSweepEntry) Revert() error {
	for i := len(e.removed) - 1; i >= 0; i-- {
		pa := e.removed[i]
		e.store.insert(pa.ann.Clone(), pa.index)
	}
	return nil
}

type remapEntry struct {
	store   *Store
	mapping map[int]int
}

func (e *remapEntry) Label() string { return "annotation.remap" }

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
