// Package codec is the document codec boundary: decoding bytes into page
// geometry and encoding a page selection plus baked markup back into
// bytes. The engine never touches PDF syntax itself; everything
// byte-level funnels through this interface.
package codec

import (
	"context"

	"github.com/wudi/pdfedit/document"
)

// PageInfo is the decoded geometry of one page.
type PageInfo struct {
	Width    float64
	Height   float64
	Rotation int // intrinsic rotation, normalized to {0, 90, 180, 270}
}

// DecodeResult is the outcome of decoding a document buffer.
type DecodeResult struct {
	Pages []PageInfo
}

// StickyNote is a comment marker baked onto a page. X and Y are
// normalized to 0..1 within the page bounds, measured from the top-left
// corner (the presentation layer's convention).
type StickyNote struct {
	X, Y     float64
	Contents string
	Author   string
	Resolved bool
}

// PageSpec selects one source page for the output document. Source is
// the 1-based page index within the input bytes; Rotation is the
// absolute rotation to write. Annotations and Notes are baked onto the
// page.
type PageSpec struct {
	Source      int
	Rotation    int
	Annotations []document.Annotation
	Notes       []StickyNote
}

// EncodeSpec describes the output document: a selection/order of source
// pages, additional documents appended wholesale, and optional
// encryption.
type EncodeSpec struct {
	Pages         []PageSpec
	Append        [][]byte
	OwnerPassword string
	UserPassword  string
}

// Codec decodes and encodes document bytes. Implementations are assumed
// fallible (document.ErrDecode) and potentially slow; both methods honor
// context cancellation.
type Codec interface {
	Decode(ctx context.Context, data []byte) (*DecodeResult, error)
	Encode(ctx context.Context, data []byte, spec EncodeSpec) ([]byte, error)
}
