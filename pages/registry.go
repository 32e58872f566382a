// Package pages owns per-page geometry and rotation metadata for the
// loaded document, plus thumbnail references produced by the external
// rasterizer. Positional page numbers are recomputed after every
// structural change; stable ids tie history entries and thumbnails to a
// page across renumbering.
package pages

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wudi/pdfedit/document"
)

// DefaultThumbnailTTL bounds how long a thumbnail reference stays valid
// without being refreshed by the rasterizer.
const DefaultThumbnailTTL = 15 * time.Minute

// Registry holds the ordered page set.
type Registry struct {
	pages  []*document.Page
	thumbs *gocache.Cache
}

// New returns an empty registry. A non-positive ttl falls back to
// DefaultThumbnailTTL.
func New(thumbnailTTL time.Duration) *Registry {
	if thumbnailTTL <= 0 {
		thumbnailTTL = DefaultThumbnailTTL
	}
	return &Registry{
		thumbs: gocache.New(thumbnailTTL, 2*thumbnailTTL),
	}
}

// Reset replaces the page set wholesale. Used on load, merge, and
// restore. Thumbnails for pages no longer present are dropped lazily by
// the cache TTL.
func (r *Registry) Reset(pages []document.Page) {
	r.pages = make([]*document.Page, len(pages))
	for i := range pages {
		p := pages[i]
		p.Number = i + 1
		r.pages[i] = &p
	}
}

// Count returns the number of pages.
func (r *Registry) Count() int { return len(r.pages) }

// Get returns a copy of the page at the given 1-based number.
func (r *Registry) Get(number int) (document.Page, error) {
	if number < 1 || number > len(r.pages) {
		return document.Page{}, fmt.Errorf("page %d of %d: %w", number, len(r.pages), document.ErrInvalidPage)
	}
	return *r.pages[number-1], nil
}

// Pages returns copies of all pages in order.
func (r *Registry) Pages() []document.Page {
	out := make([]document.Page, len(r.pages))
	for i, p := range r.pages {
		out[i] = *p
	}
	return out
}

// Rotate adds delta degrees to the page's absolute rotation, normalized
// onto {0, 90, 180, 270}. Returns the page id for history bookkeeping.
func (r *Registry) Rotate(number, delta int) (document.PageID, error) {
	if number < 1 || number > len(r.pages) {
		return "", fmt.Errorf("rotate page %d of %d: %w", number, len(r.pages), document.ErrInvalidPage)
	}
	p := r.pages[number-1]
	p.Rotation = document.NormalizeRotation(p.Rotation + delta)
	return p.ID, nil
}

// RotateByID applies a rotation delta to a page found by id. Undo and
// redo go through here so rotation survives renumbering.
func (r *Registry) RotateByID(id document.PageID, delta int) error {
	p := r.byID(id)
	if p == nil {
		return fmt.Errorf("rotate page %q: %w", id, document.ErrInvalidPage)
	}
	p.Rotation = document.NormalizeRotation(p.Rotation + delta)
	return nil
}

// Remove deletes the page at the given number and renumbers the rest.
// A document always keeps at least one page. Returns the removed page
// (with its pre-removal number intact) for reinsertion on undo.
func (r *Registry) Remove(number int) (document.Page, error) {
	if number < 1 || number > len(r.pages) {
		return document.Page{}, fmt.Errorf("remove page %d of %d: %w", number, len(r.pages), document.ErrInvalidPage)
	}
	if len(r.pages) == 1 {
		return document.Page{}, document.ErrLastPage
	}
	removed := *r.pages[number-1]
	r.pages = append(r.pages[:number-1], r.pages[number:]...)
	r.renumber()
	return removed, nil
}

// RemoveByID deletes a page found by id. Redo of a page delete goes
// through here.
func (r *Registry) RemoveByID(id document.PageID) error {
	for i, p := range r.pages {
		if p.ID == id {
			if len(r.pages) == 1 {
				return document.ErrLastPage
			}
			r.pages = append(r.pages[:i], r.pages[i+1:]...)
			r.renumber()
			return nil
		}
	}
	return fmt.Errorf("remove page %q: %w", id, document.ErrInvalidPage)
}

// Insert places p at the given 0-based index and renumbers. Used to
// undo a removal and to append merged pages.
func (r *Registry) Insert(index int, p document.Page) error {
	if index < 0 || index > len(r.pages) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(r.pages), document.ErrInvalidPage)
	}
	cp := p
	r.pages = append(r.pages, nil)
	copy(r.pages[index+1:], r.pages[index:])
	r.pages[index] = &cp
	r.renumber()
	return nil
}

// Reorder rearranges pages so that order[i] names the old page number
// that becomes position i+1. The input must be a permutation of
// [1, Count]. Returns the old→new page-number mapping so markup can be
// remapped through the same permutation.
func (r *Registry) Reorder(order []int) (map[int]int, error) {
	n := len(r.pages)
	if len(order) != n {
		return nil, fmt.Errorf("reorder of %d pages with %d entries: %w", n, len(order), document.ErrInvalidPermutation)
	}
	seen := make([]bool, n+1)
	for _, old := range order {
		if old < 1 || old > n || seen[old] {
			return nil, fmt.Errorf("reorder entry %d: %w", old, document.ErrInvalidPermutation)
		}
		seen[old] = true
	}

	mapping := make(map[int]int, n)
	next := make([]*document.Page, n)
	for i, old := range order {
		next[i] = r.pages[old-1]
		mapping[old] = i + 1
	}
	r.pages = next
	r.renumber()
	return mapping, nil
}

// SetThumbnail stores a rasterizer-produced thumbnail reference for a
// page.
func (r *Registry) SetThumbnail(id document.PageID, ref string) {
	r.thumbs.SetDefault(string(id), ref)
}

// Thumbnail returns the cached thumbnail reference, if still fresh.
func (r *Registry) Thumbnail(id document.PageID) (string, bool) {
	v, ok := r.thumbs.Get(string(id))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// DropThumbnail invalidates a page's thumbnail, e.g. after rotation.
func (r *Registry) DropThumbnail(id document.PageID) {
	r.thumbs.Delete(string(id))
}

func (r *Registry) renumber() {
	for i, p := range r.pages {
		p.Number = i + 1
	}
}

func (r *Registry) byID(id document.PageID) *document.Page {
	for _, p := range r.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}
