// Package document holds the model types shared by every component of the
// editing engine: pages, annotations, comment threads, and the error
// taxonomy surfaced to callers.
package document

// PageID is the stable internal identity of a page. Positional page
// numbers are recomputed after structural operations; the id never
// changes for the lifetime of the page.
type PageID string

// Page models one positional unit of the loaded document.
type Page struct {
	ID     PageID  `json:"id"`
	Number int     `json:"number"` // 1-based position, contiguous
	Width  float64 `json:"width"`  // PDF points
	Height float64 `json:"height"` // PDF points
	// Rotation is the absolute page rotation in degrees, one of 0, 90,
	// 180, 270. Seeded from the intrinsic /Rotate value at decode.
	Rotation int `json:"rotation"`
	// Source is the 1-based index of this page within the current
	// document bytes. It tracks the byte-level page even while positional
	// numbers drift through deletes and reorders.
	Source int `json:"source"`
}

// Document is the loaded byte buffer plus a version counter bumped on
// every structural mutation. Owned exclusively by the session.
type Document struct {
	Data    []byte `json:"data"`
	Version uint64 `json:"version"`
}

// Bump increments the structural version.
func (d *Document) Bump() { d.Version++ }

// NormalizeRotation maps any degree value onto {0, 90, 180, 270}.
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	// Snap off-axis values to the nearest quarter turn.
	return deg / 90 * 90 % 360
}
