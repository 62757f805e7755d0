package pagesource

import (
	"fmt"
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// FitzSource reads pages from a PDF via MuPDF (go-fitz).
type FitzSource struct {
	doc   *fitz.Document
	path  string
	count int
}

// NewFitzSource opens a PDF for page export. The page count comes from
// pdfcpu, which handles damaged xref tables better than MuPDF; if pdfcpu
// cannot parse the file we fall back to MuPDF's own count.
func NewFitzSource(path string) (*FitzSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("pdfcpu page count failed; using MuPDF count")
		count = doc.NumPage()
	}

	log.Debug().Str("file", path).Int("pages", count).Msg("opened PDF")
	return &FitzSource{doc: doc, path: path, count: count}, nil
}

// PageCount returns the total number of pages.
func (s *FitzSource) PageCount() int { return s.count }

// Page returns a handle to the given 1-based page.
func (s *FitzSource) Page(n int) (Page, error) {
	if n < 1 || n > s.count {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", n, s.count)
	}
	return &fitzPage{src: s, num: n}, nil
}

// Close releases the underlying document.
func (s *FitzSource) Close() error { return s.doc.Close() }

type fitzPage struct {
	src *FitzSource
	num int

	svg       string // cached markup from the first RenderSVG call
	svgCached bool
}

func (p *fitzPage) Number() int { return p.num }

func (p *fitzPage) SizePoints() (float64, float64) {
	// Bound reports the page box in points (MuPDF renders at 72 dpi base).
	rect, err := p.src.doc.Bound(p.num - 1)
	if err != nil {
		// Zero geometry makes the exporter reject the page downstream; log
		// the real cause here so it is not lost.
		log.Error().Err(err).Int("page", p.num).Msg("failed to read page bounds")
		return 0, 0
	}
	return float64(rect.Dx()), float64(rect.Dy())
}

// Stats derives content statistics from the page's SVG markup. MuPDF does
// not expose object counts directly, but the markup it emits contains one
// <image> element per embedded raster and path/shape elements for drawings,
// so counting tags gives a deterministic approximation.
func (p *fitzPage) Stats() (Stats, error) {
	markup, err := p.RenderSVG()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to analyze page %d: %w", p.num, err)
	}

	st := Stats{
		Images: strings.Count(markup, "<image"),
		Drawings: strings.Count(markup, "<path") +
			strings.Count(markup, "<rect") +
			strings.Count(markup, "<polygon") +
			strings.Count(markup, "<line") +
			strings.Count(markup, "<circle") +
			strings.Count(markup, "<ellipse"),
	}

	text, err := p.src.doc.Text(p.num - 1)
	if err == nil && strings.TrimSpace(text) != "" {
		st.HasText = true
	}

	log.Debug().
		Int("page", p.num).
		Int("images", st.Images).
		Int("drawings", st.Drawings).
		Bool("has_text", st.HasText).
		Msg("page stats")

	return st, nil
}

func (p *fitzPage) RenderSVG() (string, error) {
	if p.svgCached {
		return p.svg, nil
	}
	markup, err := p.src.doc.SVG(p.num - 1)
	if err != nil {
		return "", fmt.Errorf("failed to render page %d to SVG: %w", p.num, err)
	}
	p.svg = markup
	p.svgCached = true
	return markup, nil
}

func (p *fitzPage) RenderImage(dpi float64, alpha bool) (image.Image, error) {
	// go-fitz uses 0-based indexing and always flattens onto white; the
	// alpha flag is honored by sources that can keep transparency.
	_ = alpha
	img, err := p.src.doc.ImageDPI(p.num-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", p.num, err)
	}

	bounds := img.Bounds()
	log.Debug().
		Int("page", p.num).
		Float64("dpi", dpi).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Msg("rendered page")

	return img, nil
}
