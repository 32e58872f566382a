// Package annotations owns the set of free-form markup objects keyed by
// id and indexed by page. Every successful mutation records a reversible
// entry with the history manager before returning.
package annotations

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/history"
)

// Store holds annotations in insertion order. Within a page, later
// annotations paint on top.
type Store struct {
	hist  history.Recorder
	byID  map[string]*document.Annotation
	order []string
}

// New returns an empty store recording into rec.
func New(rec history.Recorder) *Store {
	return &Store{
		hist: rec,
		byID: make(map[string]*document.Annotation),
	}
}

// Add assigns a fresh id, appends the annotation, and records the
// mutation. A zero CreatedAt is stamped with the current time.
func (s *Store) Add(a document.Annotation) (string, error) {
	if a.Page < 1 {
		return "", fmt.Errorf("annotation on page %d: %w", a.Page, document.ErrInvalidPage)
	}
	a.ID = uuid.NewString()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.insert(a.Clone(), len(s.order))
	s.hist.Record(&addEntry{store: s, ann: a.Clone()})
	return a.ID, nil
}

// Patch carries the updatable fields of an annotation. Nil pointers and
// a nil Points slice leave the field untouched.
type Patch struct {
	Rect        *document.Rect
	Points      []document.Point
	Text        *string
	Color       *document.Color
	StrokeWidth *float64
}

// Update applies a patch and records the before/after pair.
func (s *Store) Update(id string, patch Patch) error {
	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("annotation %q: %w", id, document.ErrNotFound)
	}
	before := a.Clone()
	if patch.Rect != nil {
		a.Rect = *patch.Rect
	}
	if patch.Points != nil {
		a.Points = append([]document.Point(nil), patch.Points...)
	}
	if patch.Text != nil {
		a.Text = *patch.Text
	}
	if patch.Color != nil {
		a.Color = *patch.Color
	}
	if patch.StrokeWidth != nil {
		a.StrokeWidth = *patch.StrokeWidth
	}
	s.hist.Record(&updateEntry{store: s, before: before, after: a.Clone()})
	return nil
}

// Remove deletes by id. Removing an unknown id is an error, not a no-op,
// so callers can detect double deletions.
func (s *Store) Remove(id string) error {
	a, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("annotation %q: %w", id, document.ErrNotFound)
	}
	idx := s.indexOf(id)
	removed := a.Clone()
	s.delete(id)
	s.hist.Record(&removeEntry{store: s, ann: removed, index: idx})
	return nil
}

// Get returns a copy of the annotation.
func (s *Store) Get(id string) (document.Annotation, error) {
	a, ok := s.byID[id]
	if !ok {
		return document.Annotation{}, fmt.Errorf("annotation %q: %w", id, document.ErrNotFound)
	}
	return a.Clone(), nil
}

// ByPage returns the page's annotations in paint order.
func (s *Store) ByPage(page int) []document.Annotation {
	var out []document.Annotation
	for _, id := range s.order {
		if a := s.byID[id]; a.Page == page {
			out = append(out, a.Clone())
		}
	}
	return out
}

// All returns every annotation in insertion order.
func (s *Store) All() []document.Annotation {
	out := make([]document.Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Len returns the number of annotations.
func (s *Store) Len() int { return len(s.order) }

// Reset replaces the contents wholesale without recording. Used on load
// and restore.
func (s *Store) Reset(anns []document.Annotation) {
	s.byID = make(map[string]*document.Annotation, len(anns))
	s.order = s.order[:0]
	for _, a := range anns {
		s.insert(a.Clone(), len(s.order))
	}
}

// RemovePage strips every annotation on the given page and returns an
// already-applied entry for the caller's composite, or nil if the page
// carried no annotations. Does not record.
func (s *Store) RemovePage(page int) history.Entry {
	var removed []placedAnnotation
	for idx := len(s.order) - 1; idx >= 0; idx-- {
		id := s.order[idx]
		if a := s.byID[id]; a.Page == page {
			removed = append(removed, placedAnnotation{ann: a.Clone(), index: idx})
			s.delete(id)
		}
	}
	if removed == nil {
		return nil
	}
	return &pageSweepEntry{store: s, page: page, removed: removed}
}

// Remap rewrites page numbers through mapping and returns an
// already-applied entry, or nil if nothing referenced a remapped page.
// Does not record.
func (s *Store) Remap(mapping map[int]int) history.Entry {
	touched := false
	for _, id := range s.order {
		a := s.byID[id]
		if to, ok := mapping[a.Page]; ok && to != a.Page {
			a.Page = to
			touched = true
		}
	}
	if !touched {
		return nil
	}
	return &remapEntry{store: s, mapping: mapping}
}

func (s *Store) insert(a document.Annotation, idx int) {
	cp := a
	s.byID[a.ID] = &cp
	s.order = append(s.order, "")
	copy(s.order[idx+1:], s.order[idx:])
	s.order[idx] = a.ID
}

func (s *Store) delete(id string) {
	delete(s.byID, id)
	if idx := s.indexOf(id); idx >= 0 {
		s.order = append(s.order[:idx], s.order[idx+1:]...)
	}
}

func (s *Store) indexOf(id string) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return -1
}
