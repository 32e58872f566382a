package history

import (
	"errors"
	"testing"

	"github.com/wudi/pdfedit/document"
)

// counterEntry increments on Apply, decrements on Revert.
type counterEntry struct {
	n     *int
	label string
}

func (e counterEntry) Apply() error  { *e.n++; return nil }
func (e counterEntry) Revert() error { *e.n--; return nil }
func (e counterEntry) Label() string { return e.label }

func TestUndoRedoBoundaries(t *testing.T) {
	m := NewManager(nil)
	if err := m.Undo(); !errors.Is(err, document.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if err := m.Redo(); !errors.Is(err, document.ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
	if m.CanUndo() || m.CanRedo() {
		t.Errorf("empty history should report neither direction")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(nil)
	n := 0
	for i := 0; i < 5; i++ {
		n++ // mutation happens before recording
		m.Record(counterEntry{&n, "inc"})
	}
	if n != 5 {
		t.Fatalf("expected 5 after forward pass, got %d", n)
	}
	for i := 0; i < 5; i++ {
		if err := m.Undo(); err != nil {
			t.Fatalf("undo %d: %v", i, err)
		}
	}
	if n != 0 {
		t.Errorf("expected 0 after undoing all, got %d", n)
	}
	for i := 0; i < 5; i++ {
		if err := m.Redo(); err != nil {
			t.Fatalf("redo %d: %v", i, err)
		}
	}
	if n != 5 {
		t.Errorf("expected 5 after redoing all, got %d", n)
	}
}

func TestRecordTruncatesRedoBranch(t *testing.T) {
	m := NewManager(nil)
	n := 0
	for i := 0; i < 3; i++ {
		n++
		m.Record(counterEntry{&n, "inc"})
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	// New action after undo discards the redo branch.
	n++
	m.Record(counterEntry{&n, "inc"})
	if m.CanRedo() {
		t.Errorf("redo branch should be discarded after record")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", m.Len())
	}
}

func TestCompositeRevertsInReverseOrder(t *testing.T) {
	var order []string
	mk := func(label string) Entry {
		return revOrderEntry{label: label, order: &order}
	}
	c := Composite("cascade", mk("a"), mk("b"), mk("c"))
	if err := c.Revert(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "c" || order[2] != "a" {
		t.Errorf("expected reverse order [c b a], got %v", order)
	}
}

type revOrderEntry struct {
	label string
	order *[]string
}

func (e revOrderEntry) Apply() error  { return nil }
func (e revOrderEntry) Revert() error { *e.order = append(*e.order, e.label); return nil }
func (e revOrderEntry) Label() string { return e.label }
