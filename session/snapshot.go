package session

import (
	"fmt"

	"github.com/wudi/pdfedit/document"
)

// Snapshot is a point-in-time copy of the session state, suitable for
// autosave and handoff between processes. Undo history is not captured;
// a restored session starts with an empty history.
type Snapshot struct {
	Data        []byte                `json:"data"`
	Version     uint64                `json:"version"`
	Pages       []document.Page       `json:"pages"`
	Annotations []document.Annotation `json:"annotations"`
	Comments    []document.Comment    `json:"comments"`
}

// Snapshot copies the full session state.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return Snapshot{}, err
	}
	data := make([]byte, len(s.doc.Data))
	copy(data, s.doc.Data)
	return Snapshot{
		Data:        data,
		Version:     s.doc.Version,
		Pages:       s.reg.Pages(),
		Annotations: s.annots.All(),
		Comments:    s.cmts.All(),
	}, nil
}

// Restore replaces the session state with the snapshot's. History is
// cleared.
func (s *Session) Restore(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(snap.Data) == 0 || len(snap.Pages) == 0 {
		return fmt.Errorf("restore: empty snapshot: %w", document.ErrNotLoaded)
	}
	data := make([]byte, len(snap.Data))
	copy(data, snap.Data)
	s.doc.Data = data
	s.doc.Version = snap.Version
	s.reg.Reset(snap.Pages)
	s.annots.Reset(snap.Annotations)
	s.cmts.Reset(snap.Comments)
	s.hist.Reset()
	s.loaded = true
	return nil
}
