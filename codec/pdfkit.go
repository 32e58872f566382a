package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/raw"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"

	"github.com/wudi/pdfedit/document"
)

// annotPrintFlag marks baked annotations as printable.
const annotPrintFlag = 4

// noteSize is the edge length of a baked sticky-note rectangle, in
// points.
const noteSize = 20.0

// Config tunes the pdfkit-backed codec.
type Config struct {
	// Compression is the flate level handed to the writer; zero keeps
	// the writer's default.
	Compression int
}

// PDFKit implements Codec on top of github.com/wudi/pdfkit: the ir
// pipeline for decoding, the builder and writer for encoding.
type PDFKit struct {
	cfg Config
}

// NewPDFKit returns a codec with the given configuration.
func NewPDFKit(cfg Config) *PDFKit { return &PDFKit{cfg: cfg} }

// Decode parses the buffer and reports per-page geometry.
func (c *PDFKit) Decode(ctx context.Context, data []byte) (*DecodeResult, error) {
	doc, err := c.parse(ctx, data)
	if err != nil {
		return nil, err
	}
	res := &DecodeResult{Pages: make([]PageInfo, len(doc.Pages))}
	for i, p := range doc.Pages {
		res.Pages[i] = PageInfo{
			Width:    p.MediaBox.URX - p.MediaBox.LLX,
			Height:   p.MediaBox.URY - p.MediaBox.LLY,
			Rotation: document.NormalizeRotation(p.Rotate),
		}
	}
	return res, nil
}

// Encode writes a new document holding the selected source pages (in
// spec order, with absolute rotations and baked markup) followed by all
// pages of each appended buffer.
func (c *PDFKit) Encode(ctx context.Context, data []byte, spec EncodeSpec) ([]byte, error) {
	src, err := c.parse(ctx, data)
	if err != nil {
		return nil, err
	}

	b := builder.NewBuilder()
	for _, ps := range spec.Pages {
		if ps.Source < 1 || ps.Source > len(src.Pages) {
			return nil, fmt.Errorf("encode source page %d of %d: %w", ps.Source, len(src.Pages), document.ErrInvalidPage)
		}
		page := *src.Pages[ps.Source-1]
		page.Rotate = document.NormalizeRotation(ps.Rotation)
		page.Annotations = bakeAnnotations(&page, ps.Annotations, ps.Notes)
		b.AddPage(&page)
	}
	for _, extra := range spec.Append {
		appended, err := c.parse(ctx, extra)
		if err != nil {
			return nil, err
		}
		for _, p := range appended.Pages {
			b.AddPage(p)
		}
	}
	if src.Info != nil {
		b.SetInfo(src.Info)
	}
	if spec.OwnerPassword != "" || spec.UserPassword != "" {
		b.SetEncryption(spec.OwnerPassword, spec.UserPassword, raw.Permissions{
			Print:  true,
			Copy:   true,
			Modify: true,
		}, true)
	}

	out, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build output document: %w", err)
	}

	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	cfg := writer.Config{Version: writer.PDF17, Compression: c.cfg.Compression}
	if err := w.Write(ctx, out, &buf, cfg); err != nil {
		return nil, fmt.Errorf("write output document: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *PDFKit) parse(ctx context.Context, data []byte) (*semantic.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", document.ErrDecode)
	}
	doc, err := ir.NewDefault().Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", document.ErrDecode, err)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", document.ErrDecode)
	}
	return doc, nil
}

// bakeAnnotations converts domain markup into semantic annotations
// appended after the page's existing ones.
func bakeAnnotations(page *semantic.Page, anns []document.Annotation, notes []StickyNote) []semantic.Annotation {
	out := make([]semantic.Annotation, 0, len(page.Annotations)+len(anns)+len(notes))
	out = append(out, page.Annotations...)
	for _, a := range anns {
		out = append(out, toSemantic(a))
	}
	pageW := page.MediaBox.URX - page.MediaBox.LLX
	pageH := page.MediaBox.URY - page.MediaBox.LLY
	for _, n := range notes {
		out = append(out, noteToSemantic(n, pageW, pageH))
	}
	return out
}

func toSemantic(a document.Annotation) semantic.Annotation {
	rect := semantic.Rectangle{
		LLX: a.Rect.X,
		LLY: a.Rect.Y,
		URX: a.Rect.X + a.Rect.W,
		URY: a.Rect.Y + a.Rect.H,
	}
	base := semantic.BaseAnnotation{
		RectVal: rect,
		Flags:   annotPrintFlag,
		Border:  []float64{0, 0, a.StrokeWidth},
		Color:   []float64{a.Color.R, a.Color.G, a.Color.B},
	}

	switch a.Type {
	case document.AnnotationInk:
		base.Subtype = "Ink"
		stroke := make([]float64, 0, 2*len(a.Points))
		for _, p := range a.Points {
			stroke = append(stroke, p.X, p.Y)
		}
		return &semantic.InkAnnotation{BaseAnnotation: base, InkList: [][]float64{stroke}}
	case document.AnnotationEllipse:
		base.Subtype = "Circle"
		return &semantic.CircleAnnotation{BaseAnnotation: base}
	case document.AnnotationLine:
		base.Subtype = "Line"
		l := []float64{rect.LLX, rect.LLY, rect.URX, rect.URY}
		if len(a.Points) >= 2 {
			first, last := a.Points[0], a.Points[len(a.Points)-1]
			l = []float64{first.X, first.Y, last.X, last.Y}
		}
		return &semantic.LineAnnotation{BaseAnnotation: base, L: l}
	case document.AnnotationText:
		base.Subtype = "FreeText"
		base.Contents = a.Text
		return &semantic.FreeTextAnnotation{
			BaseAnnotation: base,
			DA:             fmt.Sprintf("%.3f %.3f %.3f rg /Helv 12 Tf", a.Color.R, a.Color.G, a.Color.B),
		}
	case document.AnnotationHighlight:
		base.Subtype = "Highlight"
		return &semantic.HighlightAnnotation{
			BaseAnnotation: base,
			// Corner order: upper-left, upper-right, lower-left, lower-right.
			QuadPoints: []float64{
				rect.LLX, rect.URY,
				rect.URX, rect.URY,
				rect.LLX, rect.LLY,
				rect.URX, rect.LLY,
			},
		}
	default:
		base.Subtype = "Square"
		return &semantic.SquareAnnotation{BaseAnnotation: base}
	}
}

func noteToSemantic(n StickyNote, pageW, pageH float64) semantic.Annotation {
	// Normalized top-left origin to PDF bottom-left user space.
	x := n.X * pageW
	y := (1 - n.Y) * pageH
	contents := n.Contents
	if n.Author != "" {
		contents = n.Author + ": " + contents
	}
	icon := "Comment"
	if n.Resolved {
		icon = "Note"
	}
	return &semantic.TextAnnotation{
		BaseAnnotation: semantic.BaseAnnotation{
			Subtype:  "Text",
			RectVal:  semantic.Rectangle{LLX: x, LLY: y - noteSize, URX: x + noteSize, URY: y},
			Contents: contents,
			Flags:    annotPrintFlag,
			Color:    []float64{1, 0.85, 0.2},
		},
		Open: false,
		Icon: icon,
	}
}
