package pagesource

import "image"

// Stats summarizes the content mix of a page, used to decide between the
// vector and raster export paths.
type Stats struct {
	Drawings int
	Images   int
	HasText  bool
}

// Page is a handle to a single document page.
type Page interface {
	// Number returns the 1-based page number.
	Number() int

	// SizePoints returns the physical page size in PostScript points
	// (1/72 inch).
	SizePoints() (width, height float64)

	// Stats returns the page's content statistics.
	Stats() (Stats, error)

	// RenderSVG renders the page to self-contained SVG markup with text
	// converted to paths.
	RenderSVG() (string, error)

	// RenderImage rasterizes the page at the given DPI. When alpha is
	// false the page is flattened onto an opaque background.
	RenderImage(dpi float64, alpha bool) (image.Image, error)
}

// Source is a paginated document opened for export.
type Source interface {
	// PageCount returns the total number of pages.
	PageCount() int

	// Page returns a handle to the given 1-based page.
	Page(n int) (Page, error)

	// Close releases the underlying document.
	Close() error
}
