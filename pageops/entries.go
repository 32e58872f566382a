package pageops

import "github.com/wudi/pdfedit/document"

// rotateEntry re-applies or backs out a rotation delta against the
// page's stable identity, so it survives renumbering by other entries.
type rotateEntry struct {
	engine *Engine
	id     document.PageID
	delta  int
}

func (e *rotateEntry) Apply() error {
	if err := e.engine.reg.RotateByID(e.id, e.delta); err != nil {
		return err
	}
	e.engine.reg.DropThumbnail(e.id)
	e.engine.doc.Bump()
	return nil
}

func (e *rotateEntry) Revert() error {
	if err := e.engine.reg.RotateByID(e.id, -e.delta); err != nil {
		return err
	}
	e.engine.reg.DropThumbnail(e.id)
	e.engine.doc.Bump()
	return nil
}

func (e *rotateEntry) Label() string { return "page.rotate" }

// pageRemoveEntry is the registry leg of a delete composite. The page
// snapshot carries its pre-delete number, so Revert reinserts it at the
// exact slot it vacated.
type pageRemoveEntry struct {
	engine *Engine
	page   document.Page
}

func (e *pageRemoveEntry) Apply() error {
	if err := e.engine.reg.RemoveByID(e.page.ID); err != nil {
		return err
	}
	e.engine.doc.Bump()
	return nil
}

func (e *pageRemoveEntry) Revert() error {
	if err := e.engine.reg.Insert(e.page.Number-1, e.page); err != nil {
		return err
	}
	e.engine.doc.Bump()
	return nil
}

func (e *pageRemoveEntry) Label() string { return "page.remove" }

// reorderEntry replays a permutation forward or through its inverse.
type reorderEntry struct {
	engine  *Engine
	order   []int
	inverse []int
}

func (e *reorderEntry) Apply() error {
	if _, err := e.engine.reg.Reorder(e.order); err != nil {
		return err
	}
	e.engine.doc.Bump()
	return nil
}

func (e *reorderEntry) Revert() error {
	if _, err := e.engine.reg.Reorder(e.inverse); err != nil {
		return err
	}
	e.engine.doc.Bump()
	return nil
}

func (e *reorderEntry) Label() string { return "page.reorder" }

// mergeEntry swaps whole document states. Merge rewrites the byte
// buffer, so undo restores the prior bytes and page set in one step.
type mergeEntry struct {
	engine    *Engine
	prevData  []byte
	prevPages []document.Page
	nextData  []byte
	nextPages []document.Page
}

func (e *mergeEntry) Apply() error {
	e.engine.doc.Data = e.nextData
	e.engine.doc.Bump()
	e.engine.reg.Reset(e.nextPages)
	return nil
}

func (e *mergeEntry) Revert() error {
	e.engine.doc.Data = e.prevData
	e.engine.doc.Bump()
	e.engine.reg.Reset(e.prevPages)
	return nil
}

func (e *mergeEntry) Label() string { return "document.merge" }
