package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/local/miroexport/internal/pagesource"
)

// fakePage implements pagesource.Page with deterministic synthetic content.
type fakePage struct {
	num        int
	widthPts   float64
	heightPts  float64
	stats      pagesource.Stats
	statsErr   error
	svg        string
	svgErr     error
	renderErr  error
	withAlpha  bool
	renderLog  []float64
}

func (p *fakePage) Number() int { return p.num }

func (p *fakePage) SizePoints() (float64, float64) { return p.widthPts, p.heightPts }

func (p *fakePage) Stats() (pagesource.Stats, error) {
	if p.statsErr != nil {
		return pagesource.Stats{}, p.statsErr
	}
	return p.stats, nil
}

func (p *fakePage) RenderSVG() (string, error) {
	if p.svgErr != nil {
		return "", p.svgErr
	}
	if p.svg != "" {
		return p.svg, nil
	}
	return `<svg xmlns="http://www.w3.org/2000/svg"><metadata>gen</metadata><path d="M0 0h10v10z"/></svg>`, nil
}

// RenderImage produces a noisy checkerboard scaled to the page geometry so
// encoded sizes grow with DPI, which the binary search relies on.
func (p *fakePage) RenderImage(dpi float64, alpha bool) (image.Image, error) {
	if p.renderErr != nil {
		return nil, p.renderErr
	}
	p.renderLog = append(p.renderLog, dpi)

	w := int(math.Round(p.widthPts / 72.0 * dpi))
	h := int(math.Round(p.heightPts / 72.0 * dpi))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x*31+y*17)%7 == 0 {
				img.Set(x, y, color.RGBA{R: uint8(x % 251), G: uint8(y % 241), B: uint8((x + y) % 239), A: 255})
			}
		}
	}
	if p.withAlpha {
		img.Set(0, 0, color.RGBA{R: 0, G: 0, B: 0, A: 128})
	}
	return img, nil
}

// fakeSource implements pagesource.Source over a fixed page set.
type fakeSource struct {
	pages   map[int]*fakePage
	pageErr map[int]error
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) Page(n int) (pagesource.Page, error) {
	if err, ok := s.pageErr[n]; ok {
		return nil, err
	}
	p, ok := s.pages[n]
	if !ok {
		return nil, fmt.Errorf("page %d out of range", n)
	}
	return p, nil
}

func (s *fakeSource) Close() error { return nil }

// testProfile is small enough that fake renders stay fast.
func testProfile() Profile {
	return Profile{
		Name:            "test",
		MaxBytes:        4 << 20,
		TargetZoom:      1.0,
		MinEffectiveDPI: 50,
		RenderDPI:       100,
		MaxDPI:          150,
	}
}

func testLimits() Limits {
	return Limits{MaxLongEdge: 8192, MaxShortEdge: 4096, MaxPixels: 32 * 1024 * 1024}
}
