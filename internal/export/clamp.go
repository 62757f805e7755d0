package export

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

type clampResult struct {
	Img     image.Image
	Width   int
	Height  int
	Scale   float64
	Clamped bool
}

// clampDimensions scales an already-rendered image down so that no edge
// exceeds the platform limits. It never upscales; the DPI search window is
// responsible for the pixel-area ceiling, so MaxPixels is not re-checked
// here.
func clampDimensions(img image.Image, lim Limits) clampResult {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	long, short := w, h
	if h > w {
		long, short = h, w
	}

	if long <= lim.MaxLongEdge && short <= lim.MaxShortEdge {
		return clampResult{Img: img, Width: w, Height: h, Scale: 1.0}
	}

	scale := math.Min(
		float64(lim.MaxLongEdge)/float64(long),
		float64(lim.MaxShortEdge)/float64(short),
	)
	if scale > 1.0 {
		scale = 1.0
	}

	nw := int(math.Floor(float64(w) * scale))
	nh := int(math.Floor(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	resized := imaging.Resize(img, nw, nh, imaging.Lanczos)

	log.Debug().
		Int("width", w).
		Int("height", h).
		Int("clamped_width", nw).
		Int("clamped_height", nh).
		Float64("scale", scale).
		Msg("clamped image to dimension limits")

	return clampResult{Img: resized, Width: nw, Height: nh, Scale: scale, Clamped: true}
}
