// Package pageops implements structural document mutations: rotate,
// delete, extract, reorder, merge. Interactive operations only rewrite
// the page registry and markup stores; byte-level changes are deferred
// to export and merge so every click stays fast and reversible.
package pageops

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wudi/pdfedit/annotations"
	"github.com/wudi/pdfedit/codec"
	"github.com/wudi/pdfedit/comments"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/history"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/pages"
)

// Engine coordinates the registry, the markup stores, the history
// manager, and the codec for structural operations.
type Engine struct {
	doc      *document.Document
	reg      *pages.Registry
	annots   *annotations.Store
	comments *comments.Store
	hist     *history.Manager
	codec    codec.Codec
	log      observability.Logger
}

// NewEngine wires the engine to its collaborators.
func NewEngine(
	doc *document.Document,
	reg *pages.Registry,
	annots *annotations.Store,
	cmts *comments.Store,
	hist *history.Manager,
	cdc codec.Codec,
	log observability.Logger,
) *Engine {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Engine{
		doc:      doc,
		reg:      reg,
		annots:   annots,
		comments: cmts,
		hist:     hist,
		codec:    cdc,
		log:      log,
	}
}

// Rotate adds delta degrees to a page's rotation. Deltas that normalize
// to a full turn are a no-op and record nothing.
func (e *Engine) Rotate(number, delta int) error {
	d := document.NormalizeRotation(delta)
	if d == 0 {
		return nil
	}
	id, err := e.reg.Rotate(number, d)
	if err != nil {
		return err
	}
	e.reg.DropThumbnail(id)
	e.doc.Bump()
	e.hist.Record(&rotateEntry{engine: e, id: id, delta: d})
	e.log.Info("page rotated", observability.Int("page", number), observability.Int("delta", d))
	return nil
}

// Delete removes a page, cascading removal of its annotations and
// comments and renumbering later markup, all in one undo step. The last
// remaining page cannot be deleted. Bytes are untouched; the page
// disappears from the registry and from every future export.
func (e *Engine) Delete(number int) error {
	count := e.reg.Count()
	removed, err := e.reg.Remove(number)
	if err != nil {
		return err
	}

	entries := []history.Entry{&pageRemoveEntry{engine: e, page: removed}}
	if en := e.annots.RemovePage(number); en != nil {
		entries = append(entries, en)
	}
	if en := e.comments.RemovePage(number); en != nil {
		entries = append(entries, en)
	}
	if mapping := shiftDown(number+1, count); len(mapping) > 0 {
		if en := e.annots.Remap(mapping); en != nil {
			entries = append(entries, en)
		}
		if en := e.comments.Remap(mapping); en != nil {
			entries = append(entries, en)
		}
	}

	e.doc.Bump()
	e.hist.Record(history.Composite("page.delete", entries...))
	e.log.Info("page deleted", observability.Int("page", number), observability.Int("remaining", e.reg.Count()))
	return nil
}

// Reorder rearranges the page set through a permutation and remaps
// every annotation and comment through the same permutation, in one
// undo step.
func (e *Engine) Reorder(order []int) error {
	mapping, err := e.reg.Reorder(order)
	if err != nil {
		return err
	}

	// inverse[old-1] names the post-reorder position that must return
	// to position old on undo.
	inverse := make([]int, len(order))
	for old, now := range mapping {
		inverse[old-1] = now
	}

	entries := []history.Entry{&reorderEntry{engine: e, order: append([]int(nil), order...), inverse: inverse}}
	if en := e.annots.Remap(mapping); en != nil {
		entries = append(entries, en)
	}
	if en := e.comments.Remap(mapping); en != nil {
		entries = append(entries, en)
	}

	e.doc.Bump()
	e.hist.Record(history.Composite("page.reorder", entries...))
	e.log.Info("pages reordered", observability.Int("pages", len(order)))
	return nil
}

// Extract produces a brand-new single-page document holding the target
// page's content and the annotations authored on it. Pure read; the
// session is not mutated and nothing is recorded.
func (e *Engine) Extract(ctx context.Context, number int) ([]byte, error) {
	page, err := e.reg.Get(number)
	if err != nil {
		return nil, err
	}
	out, err := e.codec.Encode(ctx, e.doc.Data, codec.EncodeSpec{
		Pages: []codec.PageSpec{{
			Source:      page.Source,
			Rotation:    page.Rotation,
			Annotations: e.annots.ByPage(number),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", number, err)
	}
	e.log.Info("page extracted", observability.Int("page", number))
	return out, nil
}

// Merge replaces the current document with one holding the current page
// set followed by the pages of each buffer, in argument order. Every
// buffer is decoded up front; any failure aborts the merge wholesale
// with the session untouched. Existing markup keeps its page numbers
// since merge only appends.
func (e *Engine) Merge(ctx context.Context, buffers [][]byte) error {
	if len(buffers) == 0 {
		return nil
	}

	decoded := make([]*codec.DecodeResult, len(buffers))
	for i, data := range buffers {
		res, err := e.codec.Decode(ctx, data)
		if err != nil {
			return fmt.Errorf("merge buffer %d: %w", i+1, err)
		}
		decoded[i] = res
	}

	current := e.reg.Pages()
	specPages := make([]codec.PageSpec, len(current))
	for i, p := range current {
		specPages[i] = codec.PageSpec{Source: p.Source, Rotation: p.Rotation}
	}
	newData, err := e.codec.Encode(ctx, e.doc.Data, codec.EncodeSpec{
		Pages:  specPages,
		Append: buffers,
	})
	if err != nil {
		return fmt.Errorf("merge encode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Existing pages keep identity and rotation; sources collapse onto
	// their new positions within the rewritten bytes.
	next := make([]document.Page, 0, len(current))
	for i, p := range current {
		p.Source = i + 1
		next = append(next, p)
	}
	source := len(current)
	for _, res := range decoded {
		for _, info := range res.Pages {
			source++
			next = append(next, document.Page{
				ID:       document.PageID(uuid.NewString()),
				Width:    info.Width,
				Height:   info.Height,
				Rotation: info.Rotation,
				Source:   source,
			})
		}
	}

	entry := &mergeEntry{
		engine:    e,
		prevData:  e.doc.Data,
		prevPages: current,
		nextData:  newData,
		nextPages: next,
	}
	e.doc.Data = newData
	e.doc.Bump()
	e.reg.Reset(next)
	e.hist.Record(entry)
	e.log.Info("documents merged",
		observability.Int("appended", len(buffers)),
		observability.Int("pages", e.reg.Count()))
	return nil
}

// shiftDown maps page numbers from..to onto one position lower.
func shiftDown(from, to int) map[int]int {
	m := make(map[int]int)
	for n := from; n <= to; n++ {
		m[n] = n - 1
	}
	return m
}
