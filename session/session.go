// Package session is the public surface of the editing engine. A
// Session owns one loaded document and serializes every operation on
// it, dispatching to the page registry, the markup stores, the page
// operation engine, the export pipeline, and the undo history.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/pdfedit/annotations"
	"github.com/wudi/pdfedit/codec"
	"github.com/wudi/pdfedit/comments"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/export"
	"github.com/wudi/pdfedit/history"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/pageops"
	"github.com/wudi/pdfedit/pages"
)

type config struct {
	codec        codec.Codec
	log          observability.Logger
	thumbnailTTL time.Duration
}

// Option configures a Session at construction.
type Option func(*config)

// WithCodec swaps the document codec.
func WithCodec(c codec.Codec) Option { return func(cfg *config) { cfg.codec = c } }

// WithLogger sets the session logger.
func WithLogger(l observability.Logger) Option { return func(cfg *config) { cfg.log = l } }

// WithThumbnailTTL bounds thumbnail reference lifetime.
func WithThumbnailTTL(ttl time.Duration) Option {
	return func(cfg *config) { cfg.thumbnailTTL = ttl }
}

// Session edits one document. Safe for concurrent use; operations are
// serialized.
type Session struct {
	mu sync.Mutex

	doc    *document.Document
	reg    *pages.Registry
	annots *annotations.Store
	cmts   *comments.Store
	hist   *history.Manager
	engine *pageops.Engine
	pipe   *export.Pipeline
	codec  codec.Codec
	log    observability.Logger
	loaded bool
}

// New returns an empty session. Load must succeed before any other
// operation.
func New(opts ...Option) *Session {
	cfg := config{
		codec: codec.NewPDFKit(codec.Config{}),
		log:   observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = observability.NopLogger{}
	}

	s := &Session{
		doc:   &document.Document{},
		reg:   pages.New(cfg.thumbnailTTL),
		hist:  history.NewManager(cfg.log),
		codec: cfg.codec,
		log:   cfg.log,
	}
	s.annots = annotations.New(s.hist)
	s.cmts = comments.New(s.hist)
	s.engine = pageops.NewEngine(s.doc, s.reg, s.annots, s.cmts, s.hist, s.codec, cfg.log)
	s.pipe = export.NewPipeline(s.doc, s.reg, s.annots, s.cmts, s.codec, cfg.log)
	return s
}

// Load replaces the session's document. The buffer is decoded and
// validated before any state changes; a failed load leaves the previous
// document intact. A successful load clears markup, history, and
// version.
func (s *Session) Load(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.codec.Decode(ctx, data)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ps := make([]document.Page, len(res.Pages))
	for i, info := range res.Pages {
		ps[i] = document.Page{
			ID:       document.PageID(uuid.NewString()),
			Width:    info.Width,
			Height:   info.Height,
			Rotation: info.Rotation,
			Source:   i + 1,
		}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	s.doc.Data = buf
	s.doc.Version = 0
	s.reg.Reset(ps)
	s.annots.Reset(nil)
	s.cmts.Reset(nil)
	s.hist.Reset()
	s.loaded = true
	s.log.Info("document loaded",
		observability.Int("pages", len(ps)),
		observability.Int("bytes", len(data)))
	return nil
}

// Close discards the loaded document and all session state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Data = nil
	s.doc.Version = 0
	s.reg.Reset(nil)
	s.annots.Reset(nil)
	s.cmts.Reset(nil)
	s.hist.Reset()
	s.loaded = false
}

func (s *Session) guard() error {
	if !s.loaded {
		return document.ErrNotLoaded
	}
	return nil
}

// Pages returns the current page set in order.
func (s *Session) Pages() []document.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Pages()
}

// PageCount returns the number of pages.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Count()
}

// Page returns the page at the given 1-based number.
func (s *Session) Page(number int) (document.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return document.Page{}, err
	}
	return s.reg.Get(number)
}

// Version returns the structural version, zero for a pristine document.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Version
}

// RotatePage adds delta degrees to the page's rotation.
func (s *Session) RotatePage(number, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Rotate(number, delta)
}

// DeletePage removes the page along with its annotations and comments
// in one undoable step.
func (s *Session) DeletePage(number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Delete(number)
}

// ReorderPages rearranges the page set; order[i] names the current page
// that moves to position i+1.
func (s *Session) ReorderPages(order []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Reorder(order)
}

// ExtractPage returns a new single-page document for the given page.
func (s *Session) ExtractPage(ctx context.Context, number int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.engine.Extract(ctx, number)
}

// MergeDocuments appends the pages of each buffer, in order, to the
// current document. All buffers are validated before anything changes.
func (s *Session) MergeDocuments(ctx context.Context, buffers [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.engine.Merge(ctx, buffers)
}

// AddAnnotation stores a new annotation and returns its id.
func (s *Session) AddAnnotation(a document.Annotation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return "", err
	}
	if a.Page < 1 || a.Page > s.reg.Count() {
		return "", fmt.Errorf("page %d: %w", a.Page, document.ErrInvalidPage)
	}
	return s.annots.Add(a)
}

// UpdateAnnotation applies the patch to the annotation.
func (s *Session) UpdateAnnotation(id string, patch annotations.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.annots.Update(id, patch)
}

// RemoveAnnotation deletes the annotation.
func (s *Session) RemoveAnnotation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.annots.Remove(id)
}

// Annotation returns the annotation by id.
func (s *Session) Annotation(id string) (document.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return document.Annotation{}, err
	}
	return s.annots.Get(id)
}

// Annotations returns the page's annotations in paint order.
func (s *Session) Annotations(page int) []document.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annots.ByPage(page)
}

// AddComment stores a new comment and returns its id. An empty ThreadID
// starts a thread; otherwise the comment joins the named thread as a
// reply.
func (s *Session) AddComment(c document.Comment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return "", err
	}
	if c.ThreadID == "" && (c.Page < 1 || c.Page > s.reg.Count()) {
		return "", fmt.Errorf("page %d: %w", c.Page, document.ErrInvalidPage)
	}
	return s.cmts.Add(c)
}

// RemoveComment deletes the comment; removing a thread root removes the
// whole thread.
func (s *Session) RemoveComment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.cmts.Remove(id)
}

// ResolveComment toggles the resolved state of the comment's thread.
func (s *Session) ResolveComment(id, resolvedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.cmts.Resolve(id, resolvedBy)
}

// Comment returns the comment by id.
func (s *Session) Comment(id string) (document.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return document.Comment{}, err
	}
	return s.cmts.Get(id)
}

// Comments returns the page's comments in creation order.
func (s *Session) Comments(page int) []document.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmts.ByPage(page)
}

// Thread returns the thread's comments, root first.
func (s *Session) Thread(threadID string) []document.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmts.ByThread(threadID)
}

// Undo reverts the most recent operation.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.hist.Undo()
}

// Redo re-applies the most recently undone operation.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.hist.Redo()
}

// CanUndo reports whether an operation is available to undo.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanUndo()
}

// CanRedo reports whether an undone operation is available to redo.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.CanRedo()
}

// ExportWithAnnotations renders the document with markup baked in.
func (s *Session) ExportWithAnnotations(ctx context.Context, opts export.Options) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.pipe.WithAnnotations(ctx, opts)
}

// ExportOriginal renders the document without markup. Structural edits
// still apply.
func (s *Session) ExportOriginal(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.pipe.Original(ctx)
}

// SetThumbnail records a rasterizer-produced thumbnail reference for
// the page.
func (s *Session) SetThumbnail(id document.PageID, ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.SetThumbnail(id, ref)
}

// Thumbnail returns the page's thumbnail reference, if still valid.
func (s *Session) Thumbnail(id document.PageID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Thumbnail(id)
}
