package document

import "time"

// AnnotationType identifies the drawing primitive of an annotation.
type AnnotationType string

const (
	AnnotationInk       AnnotationType = "ink"
	AnnotationRectangle AnnotationType = "rectangle"
	AnnotationEllipse   AnnotationType = "ellipse"
	AnnotationLine      AnnotationType = "line"
	AnnotationText      AnnotationType = "text"
	AnnotationHighlight AnnotationType = "highlight"
)

// Point is a coordinate in PDF user space (origin bottom-left).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in PDF user space.
type Rect struct {
	X float64 `json:"x"` // lower-left corner
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Color is an RGB color with components in 0..1.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Annotation is a free-form markup object attached to a page.
//
// Rect bounds the annotation for every type. Points carries the stroke
// for ink annotations and the two endpoints for lines. Text carries the
// content of text annotations.
type Annotation struct {
	ID          string         `json:"id"`
	Page        int            `json:"page"` // 1-based page number
	Type        AnnotationType `json:"type"`
	Rect        Rect           `json:"rect"`
	Points      []Point        `json:"points,omitempty"`
	Text        string         `json:"text,omitempty"`
	Color       Color          `json:"color"`
	StrokeWidth float64        `json:"strokeWidth"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Clone returns a deep copy.
func (a Annotation) Clone() Annotation {
	c := a
	if a.Points != nil {
		c.Points = make([]Point, len(a.Points))
		copy(c.Points, a.Points)
	}
	return c
}
