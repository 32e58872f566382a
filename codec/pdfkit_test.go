package codec

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir/raw"
	"github.com/wudi/pdfkit/parser"
	"github.com/wudi/pdfkit/writer"

	"github.com/wudi/pdfedit/document"
)

// buildFixture writes a PDF with one page per size entry.
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

// annotSubtypes re-parses data and collects the Subtype of every
// annotation dictionary.
func annotSubtypes(t *testing.T, data []byte) map[string]int {
	t.Helper()
	rawDoc, err := parser.NewDocumentParser(parser.Config{}).Parse(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse raw: %v", err)
	}
	found := make(map[string]int)
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
				found[n.Value()]++
			}
		}
	}
	return found
}

func TestDecodeGeometry(t *testing.T) {
	data := buildFixture(t, [2]float64{595, 842}, [2]float64{612, 792}, [2]float64{595, 842})
	res, err := NewPDFKit(Config{}).Decode(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(res.Pages))
	}
	if res.Pages[1].Width != 612 || res.Pages[1].Height != 792 {
		t.Errorf("page 2 geometry = %+v", res.Pages[1])
	}
	if res.Pages[0].Rotation != 0 {
		t.Errorf("page 1 rotation = %d", res.Pages[0].Rotation)
	}
}

func TestDecodeMalformed(t *testing.T) {
	c := NewPDFKit(Config{})
	for _, data := range [][]byte{nil, []byte("not a pdf at all")} {
		if _, err := c.Decode(context.Background(), data); !errors.Is(err, document.ErrDecode) {
			t.Errorf("Decode(%q): expected ErrDecode, got %v", data, err)
		}
	}
}

func TestEncodeSelectReorderRotate(t *testing.T) {
	data := buildFixture(t, [2]float64{595, 842}, [2]float64{612, 792}, [2]float64{400, 400})
	c := NewPDFKit(Config{})

	out, err := c.Encode(context.Background(), data, EncodeSpec{
		Pages: []PageSpec{
			{Source: 3, Rotation: 90},
			{Source: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Decode(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(res.Pages))
	}
	if res.Pages[0].Width != 400 || res.Pages[0].Rotation != 90 {
		t.Errorf("first page = %+v, want source page 3 rotated 90", res.Pages[0])
	}
	if res.Pages[1].Width != 595 || res.Pages[1].Rotation != 0 {
		t.Errorf("second page = %+v, want source page 1", res.Pages[1])
	}
}

func TestEncodeInvalidSource(t *testing.T) {
	data := buildFixture(t, [2]float64{595, 842})
	_, err := NewPDFKit(Config{}).Encode(context.Background(), data, EncodeSpec{
		Pages: []PageSpec{{Source: 5}},
	})
	if !errors.Is(err, document.ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage, got %v", err)
	}
}

func TestEncodeAppend(t *testing.T) {
	base := buildFixture(t, [2]float64{595, 842}, [2]float64{595, 842})
	extra := buildFixture(t, [2]float64{612, 792})
	c := NewPDFKit(Config{})

	out, err := c.Encode(context.Background(), base, EncodeSpec{
		Pages:  []PageSpec{{Source: 1}, {Source: 2}},
		Append: [][]byte{extra},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Decode(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(res.Pages))
	}
	if res.Pages[2].Width != 612 {
		t.Errorf("appended page geometry = %+v", res.Pages[2])
	}
}

func TestEncodeAppendMalformedAborts(t *testing.T) {
	base := buildFixture(t, [2]float64{595, 842})
	_, err := NewPDFKit(Config{}).Encode(context.Background(), base, EncodeSpec{
		Pages:  []PageSpec{{Source: 1}},
		Append: [][]byte{[]byte("garbage")},
	})
	if !errors.Is(err, document.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestEncodeBakesAnnotationsAndNotes(t *testing.T) {
	data := buildFixture(t, [2]float64{595, 842})
	c := NewPDFKit(Config{})

	out, err := c.Encode(context.Background(), data, EncodeSpec{
		Pages: []PageSpec{{
			Source: 1,
			Annotations: []document.Annotation{
				{
					Type:        document.AnnotationRectangle,
					Rect:        document.Rect{X: 50, Y: 600, W: 200, H: 100},
					Color:       document.Color{R: 1},
					StrokeWidth: 2,
				},
				{
					Type:   document.AnnotationInk,
					Rect:   document.Rect{X: 100, Y: 100, W: 80, H: 40},
					Points: []document.Point{{X: 100, Y: 100}, {X: 140, Y: 130}, {X: 180, Y: 110}},
					Color:  document.Color{B: 1},
				},
				{
					Type: document.AnnotationHighlight,
					Rect: document.Rect{X: 60, Y: 700, W: 150, H: 14},
				},
			},
			Notes: []StickyNote{
				{X: 0.5, Y: 0.1, Contents: "looks wrong", Author: "ada"},
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	found := annotSubtypes(t, out)
	for _, want := range []string{"Square", "Ink", "Highlight", "Text"} {
		if found[want] == 0 {
			t.Errorf("missing %s annotation in output (found %v)", want, found)
		}
	}
}
