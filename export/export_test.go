package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir/raw"
	"github.com/wudi/pdfkit/parser"
	"github.com/wudi/pdfkit/writer"

	"github.com/wudi/pdfedit/annotations"
	"github.com/wudi/pdfedit/codec"
	"github.com/wudi/pdfedit/comments"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/history"
	"github.com/wudi/pdfedit/pages"
)

func buildFixture(t *testing.T, sizes ...[2]float64) []byte {
	t.Helper()
	b := builder.NewBuilder()
	for _, s := range sizes {
		b.NewPage(s[0], s[1]).
			DrawText("fixture", 72, s[1]-72, builder.TextOptions{FontSize: 12}).
			Finish()
	}
	doc, err := b.Build()
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	var buf bytes.Buffer
	w := (&writer.WriterBuilder{}).Build()
	if err := w.Write(context.Background(), doc, &buf, writer.Config{}); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return buf.Bytes()
}

type fixture struct {
	doc    *document.Document
	reg    *pages.Registry
	annots *annotations.Store
	cmts   *comments.Store
	cdc    *codec.PDFKit
	pipe   *Pipeline
}

func newFixture(t *testing.T, sizes ...[2]float64) *fixture {
	t.Helper()
	f := &fixture{
		doc: &document.Document{Data: buildFixture(t, sizes...)},
		reg: pages.New(0),
		cdc: codec.NewPDFKit(codec.Config{}),
	}
	hist := history.NewManager(nil)
	f.annots = annotations.New(hist)
	f.cmts = comments.New(hist)
	f.pipe = NewPipeline(f.doc, f.reg, f.annots, f.cmts, f.cdc, nil)

	res, err := f.cdc.Decode(context.Background(), f.doc.Data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
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
	f.reg.Reset(ps)
	return f
}

// annotDicts re-parses data and returns subtype counts plus every
// annotation Contents string found.
func annotDicts(t *testing.T, data []byte) (map[string]int, []string) {
	t.Helper()
	rawDoc, err := parser.NewDocumentParser(parser.Config{}).Parse(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse raw: %v", err)
	}
	subtypes := make(map[string]int)
	var contents []string
	for _, obj := range rawDoc.Objects {
		dict, ok := obj.(*raw.DictObj)
		if !ok {
			continue
		}
		typ, ok := dict.Get(raw.NameLiteral("Type"))
		if !ok {
			continue
		}
		if n, ok := typ.(raw.NameObj); !ok || n.Value() != "Annot" {
			continue
		}
		if st, ok := dict.Get(raw.NameLiteral("Subtype")); ok {
			if n, ok := st.(raw.NameObj); ok {
				subtypes[n.Value()]++
			}
		}
		if cv, ok := dict.Get(raw.NameLiteral("Contents")); ok {
			if s, ok := cv.(raw.StringObj); ok {
				contents = append(contents, string(s.Bytes))
			}
		}
	}
	return subtypes, contents
}

func TestOriginalUntouchedReturnsCopy(t *testing.T) {
	f := newFixture(t, [2]float64{612, 792}, [2]float64{595, 842})

	out, err := f.pipe.Original(context.Background())
	if err != nil {
		t.Fatalf("original: %v", err)
	}
	if !bytes.Equal(out, f.doc.Data) {
		t.Fatal("pristine export should equal loaded bytes")
	}
	if &out[0] == &f.doc.Data[0] {
		t.Fatal("export must not alias the session buffer")
	}
}

func TestOriginalAppliesStructureOnly(t *testing.T) {
	f := newFixture(t, [2]float64{612, 792}, [2]float64{595, 842}, [2]float64{400, 400})

	if _, err := f.annots.Add(document.Annotation{Page: 1, Type: document.AnnotationRectangle}); err != nil {
		t.Fatalf("add annotation: %v", err)
	}
	if _, err := f.reg.Remove(2); err != nil {
		t.Fatalf("remove page: %v", err)
	}
	if _, err := f.reg.Rotate(2, 90); err != nil {
		t.Fatalf("rotate page: %v", err)
	}
	f.doc.Bump()

	out, err := f.pipe.Original(context.Background())
	if err != nil {
		t.Fatalf("original: %v", err)
	}
	res, err := f.cdc.Decode(context.Background(), out)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("exported pages = %d, want 2", len(res.Pages))
	}
	if res.Pages[0].Width != 612 || res.Pages[1].Width != 400 {
		t.Fatalf("page widths = %v, %v; want 612, 400", res.Pages[0].Width, res.Pages[1].Width)
	}
	if res.Pages[1].Rotation != 90 {
		t.Fatalf("page 2 rotation = %d, want 90", res.Pages[1].Rotation)
	}
	subtypes, _ := annotDicts(t, out)
	if len(subtypes) != 0 {
		t.Fatalf("original export baked annotations: %v", subtypes)
	}
}

func TestWithAnnotationsBakesMarkup(t *testing.T) {
	f := newFixture(t, [2]float64{612, 792}, [2]float64{595, 842})

	if _, err := f.annots.Add(document.Annotation{
		Page: 1,
		Type: document.AnnotationRectangle,
		Rect: document.Rect{X: 50, Y: 50, W: 100, H: 40},
	}); err != nil {
		t.Fatalf("add annotation: %v", err)
	}
	if _, err := f.annots.Add(document.Annotation{
		Page: 2,
		Type: document.AnnotationHighlight,
		Rect: document.Rect{X: 10, Y: 10, W: 80, H: 12},
	}); err != nil {
		t.Fatalf("add annotation: %v", err)
	}
	rootID, err := f.cmts.Add(document.Comment{
		Page: 1, X: 0.25, Y: 0.1,
		Content: "Please **fix** this",
		Author:  "ana",
	})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if _, err := f.cmts.Add(document.Comment{ThreadID: rootID, Content: "done", Author: "bo"}); err != nil {
		t.Fatalf("add reply: %v", err)
	}

	out, err := f.pipe.WithAnnotations(context.Background(), Options{IncludeComments: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	subtypes, contents := annotDicts(t, out)
	if subtypes["Square"] != 1 || subtypes["Highlight"] != 1 || subtypes["Text"] != 1 {
		t.Fatalf("subtypes = %v, want one Square, one Highlight, one Text", subtypes)
	}
	var note string
	for _, c := range contents {
		if strings.Contains(c, "fix") {
			note = c
		}
	}
	if note == "" {
		t.Fatalf("no sticky note carries the thread text; contents = %q", contents)
	}
	if strings.Contains(note, "**") {
		t.Fatalf("markdown markers leaked into popup text: %q", note)
	}
	if !strings.Contains(note, "bo: done") {
		t.Fatalf("popup text misses the reply: %q", note)
	}
}

func TestWithAnnotationsSkipsCommentsByDefault(t *testing.T) {
	f := newFixture(t, [2]float64{612, 792})

	if _, err := f.cmts.Add(document.Comment{Page: 1, X: 0.5, Y: 0.5, Content: "note", Author: "ana"}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	out, err := f.pipe.WithAnnotations(context.Background(), Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	subtypes, _ := annotDicts(t, out)
	if len(subtypes) != 0 {
		t.Fatalf("comments baked without opt-in: %v", subtypes)
	}
}

func TestWithAnnotationsEncrypts(t *testing.T) {
	f := newFixture(t, [2]float64{612, 792})

	out, err := f.pipe.WithAnnotations(context.Background(), Options{
		OwnerPassword: "owner",
		UserPassword:  "user",
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Contains(out, []byte("/Encrypt")) {
		t.Fatal("encrypted export carries no Encrypt dictionary")
	}
}

func TestExportBeforeLoad(t *testing.T) {
	p := NewPipeline(&document.Document{}, pages.New(0),
		annotations.New(history.NewManager(nil)), comments.New(history.NewManager(nil)),
		codec.NewPDFKit(codec.Config{}), nil)

	if _, err := p.Original(context.Background()); !errors.Is(err, document.ErrNotLoaded) {
		t.Fatalf("err = %v, want ErrNotLoaded", err)
	}
	if _, err := p.WithAnnotations(context.Background(), Options{}); !errors.Is(err, document.ErrNotLoaded) {
		t.Fatalf("err = %v, want ErrNotLoaded", err)
	}
}

func TestPlainText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain words", "plain words"},
		{"**bold** and _em_", "bold and em"},
		{"line one\nline two", "line one\nline two"},
		{"# Title\n\nbody `code` here", "Title\nbody code here"},
		{"", ""},
	}
	for _, c := range cases {
		if got := plainText(c.in); got != c.want {
			t.Errorf("plainText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
