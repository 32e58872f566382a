// Package export materializes the session's deferred edits into PDF
// bytes. Structural state (page order, deletions, rotation) always
// applies; annotations and comment markers are baked in on request.
package export

import (
	"context"
	"fmt"

	"github.com/wudi/pdfedit/annotations"
	"github.com/wudi/pdfedit/codec"
	"github.com/wudi/pdfedit/comments"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/pages"
)

// Options controls what WithAnnotations bakes into the output.
type Options struct {
	// IncludeComments adds a sticky-note marker per comment thread, its
	// popup carrying the whole conversation as plain text.
	IncludeComments bool
	OwnerPassword   string
	UserPassword    string
}

// Pipeline renders exports from the live session state.
type Pipeline struct {
	doc    *document.Document
	reg    *pages.Registry
	annots *annotations.Store
	cmts   *comments.Store
	codec  codec.Codec
	log    observability.Logger
}

// NewPipeline wires the pipeline to the session's collaborators.
func NewPipeline(
	doc *document.Document,
	reg *pages.Registry,
	annots *annotations.Store,
	cmts *comments.Store,
	cdc codec.Codec,
	log observability.Logger,
) *Pipeline {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Pipeline{doc: doc, reg: reg, annots: annots, cmts: cmts, codec: cdc, log: log}
}

// WithAnnotations produces the edited document with every annotation
// baked into its page, optionally with comment markers and document
// passwords. The session is not mutated.
func (p *Pipeline) WithAnnotations(ctx context.Context, opts Options) ([]byte, error) {
	if len(p.doc.Data) == 0 {
		return nil, document.ErrNotLoaded
	}
	current := p.reg.Pages()
	specs := make([]codec.PageSpec, len(current))
	for i, pg := range current {
		spec := codec.PageSpec{
			Source:      pg.Source,
			Rotation:    pg.Rotation,
			Annotations: p.annots.ByPage(pg.Number),
		}
		if opts.IncludeComments {
			spec.Notes = p.notesFor(pg.Number)
		}
		specs[i] = spec
	}
	out, err := p.codec.Encode(ctx, p.doc.Data, codec.EncodeSpec{
		Pages:         specs,
		OwnerPassword: opts.OwnerPassword,
		UserPassword:  opts.UserPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("export with annotations: %w", err)
	}
	p.log.Info("document exported",
		observability.Int("pages", len(specs)),
		observability.Bool("comments", opts.IncludeComments),
		observability.Bool("encrypted", opts.OwnerPassword != "" || opts.UserPassword != ""))
	return out, nil
}

// Original produces the document without any markup baked in.
// Structural edits still apply: pages keep their current order,
// deletions, and rotation. An untouched document comes back as a copy
// of the loaded bytes.
func (p *Pipeline) Original(ctx context.Context) ([]byte, error) {
	if len(p.doc.Data) == 0 {
		return nil, document.ErrNotLoaded
	}
	if p.doc.Version == 0 {
		out := make([]byte, len(p.doc.Data))
		copy(out, p.doc.Data)
		return out, nil
	}
	current := p.reg.Pages()
	specs := make([]codec.PageSpec, len(current))
	for i, pg := range current {
		specs[i] = codec.PageSpec{Source: pg.Source, Rotation: pg.Rotation}
	}
	out, err := p.codec.Encode(ctx, p.doc.Data, codec.EncodeSpec{Pages: specs})
	if err != nil {
		return nil, fmt.Errorf("export original: %w", err)
	}
	p.log.Info("original exported", observability.Int("pages", len(specs)))
	return out, nil
}

// notesFor collapses each comment thread rooted on the page into one
// sticky note at the root's position. Replies follow the root in the
// popup text, each prefixed with its author.
func (p *Pipeline) notesFor(page int) []codec.StickyNote {
	var notes []codec.StickyNote
	for _, c := range p.cmts.ByPage(page) {
		if !c.Root() {
			continue
		}
		notes = append(notes, codec.StickyNote{
			X:        c.X,
			Y:        c.Y,
			Contents: p.threadText(c.ThreadID),
			Author:   c.Author,
			Resolved: c.Resolved,
		})
	}
	return notes
}

func (p *Pipeline) threadText(threadID string) string {
	var out string
	for i, c := range p.cmts.ByThread(threadID) {
		body := plainText(c.Content)
		if i == 0 {
			out = body
			continue
		}
		out += "\n\n" + c.Author + ": " + body
	}
	return out
}
