// Package history records reversible mutations as an undo/redo command
// stack. Entries are opaque to the manager: each store supplies its own
// apply/revert pair, so the stack never special-cases entity types.
package history

import (
	"fmt"

	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/observability"
)

// Entry is one reversible, atomic record of a user-visible mutation.
// Apply re-performs the mutation (redo); Revert undoes it. Both are
// called with the owning store in exactly the state the opposite call
// left it in.
type Entry interface {
	Apply() error
	Revert() error
	Label() string
}

// Recorder is the sink stores hand their entries to.
type Recorder interface {
	Record(e Entry)
}

// Manager holds the ordered entry list and a cursor. Entries below the
// cursor are applied; entries at or above it are redoable.
type Manager struct {
	entries []Entry
	cursor  int
	logger  observability.Logger
}

// NewManager returns an empty history.
func NewManager(logger observability.Logger) *Manager {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Manager{logger: logger}
}

// Record truncates the redo branch, appends e, and advances the cursor.
// The mutation described by e must already be applied.
func (m *Manager) Record(e Entry) {
	m.entries = append(m.entries[:m.cursor], e)
	m.cursor = len(m.entries)
	m.logger.Debug("history record", observability.String("entry", e.Label()), observability.Int("cursor", m.cursor))
}

// Undo reverts the entry below the cursor.
func (m *Manager) Undo() error {
	if m.cursor == 0 {
		return document.ErrNothingToUndo
	}
	e := m.entries[m.cursor-1]
	if err := e.Revert(); err != nil {
		return fmt.Errorf("undo %s: %w", e.Label(), err)
	}
	m.cursor--
	m.logger.Debug("history undo", observability.String("entry", e.Label()), observability.Int("cursor", m.cursor))
	return nil
}

// Redo re-applies the entry at the cursor.
func (m *Manager) Redo() error {
	if m.cursor == len(m.entries) {
		return document.ErrNothingToRedo
	}
	e := m.entries[m.cursor]
	if err := e.Apply(); err != nil {
		return fmt.Errorf("redo %s: %w", e.Label(), err)
	}
	m.cursor++
	m.logger.Debug("history redo", observability.String("entry", e.Label()), observability.Int("cursor", m.cursor))
	return nil
}

func (m *Manager) CanUndo() bool { return m.cursor > 0 }
func (m *Manager) CanRedo() bool { return m.cursor < len(m.entries) }
func (m *Manager) Len() int      { return len(m.entries) }

// Reset drops all entries. Used on load and restore.
func (m *Manager) Reset() {
	m.entries = nil
	m.cursor = 0
}

type composite struct {
	label   string
	entries []Entry
}

// Composite groups sub-entries into one undo step. Apply runs in order,
// Revert in reverse order, preserving the one-user-action-one-undo
// contract for cascading operations.
func Composite(label string, entries ...Entry) Entry {
	return &composite{label: label, entries: entries}
}

func (c *composite) Label() string { return c.label }

func (c *composite) Apply() error {
	for _, e := range c.entries {
		if err := e.Apply(); err != nil {
			return fmt.Errorf("%s: %w", e.Label(), err)
		}
	}
	return nil
}

func (c *composite) Revert() error {
	for i := len(c.entries) - 1; i >= 0; i-- {
		if err := c.entries[i].Revert(); err != nil {
			return fmt.Errorf("%s: %w", c.entries[i].Label(), err)
		}
	}
	return nil
}
