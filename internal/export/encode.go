package export

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/gen2brain/webp"
	"github.com/rs/zerolog/log"

	"github.com/local/miroexport/internal/metrics"
)

// codecCandidate encodes an image with one codec/quality combination. The
// candidates form an ordered chain; the first one whose output fits the
// budget wins.
type codecCandidate struct {
	encoder    string
	format     string
	quality    *int
	lossless   *bool
	opaqueOnly bool
	encode     func(w io.Writer, img image.Image) error
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func webpLossy(quality int) codecCandidate {
	return codecCandidate{
		encoder:  "webp",
		format:   "WEBP",
		quality:  intPtr(quality),
		lossless: boolPtr(false),
		encode: func(w io.Writer, img image.Image) error {
			return webp.Encode(w, img, webp.Options{Quality: quality})
		},
	}
}

// rasterCandidates returns the codec chain in preference order. JPEG cannot
// carry an alpha channel, so its candidates only appear for opaque images.
func rasterCandidates(allowTransparency bool) []codecCandidate {
	candidates := []codecCandidate{
		{
			encoder:  "webp",
			format:   "WEBP",
			lossless: boolPtr(true),
			encode: func(w io.Writer, img image.Image) error {
				return webp.Encode(w, img, webp.Options{Lossless: true})
			},
		},
		webpLossy(95),
		webpLossy(90),
		webpLossy(85),
		{
			encoder:  "png",
			format:   "PNG",
			lossless: boolPtr(true),
			encode: func(w io.Writer, img image.Image) error {
				return encodePNG(w, img, allowTransparency)
			},
		},
	}
	if !allowTransparency {
		for _, q := range []int{95, 90} {
			quality := q
			candidates = append(candidates, codecCandidate{
				encoder:    "jpeg",
				format:     "JPEG",
				quality:    intPtr(quality),
				lossless:   boolPtr(false),
				opaqueOnly: true,
				encode: func(w io.Writer, img image.Image) error {
					return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
				},
			})
		}
	}
	return candidates
}

// encodePNG palette-quantizes opaque images, which typically shrinks
// document pages by an order of magnitude; images with alpha are encoded
// as-is to preserve the channel.
func encodePNG(w io.Writer, img image.Image, hasAlpha bool) error {
	if hasAlpha {
		return png.Encode(w, img)
	}
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, 256), img)
	paletted := image.NewPaletted(img.Bounds(), pal)
	draw.Draw(paletted, img.Bounds(), img, img.Bounds().Min, draw.Src)
	return png.Encode(w, paletted)
}

type sweepResult struct {
	Data         []byte
	Format       string
	Attempt      *Attempt
	Attempts     []*Attempt
	WithinBudget bool
}

// encodeCandidates runs a codec chain against the budget. Every encode
// that produces bytes is recorded as an attempt; codec errors are logged
// and skipped without aborting the sweep. When nothing fits, the smallest
// candidate seen is returned with WithinBudget false. effectiveDPI is
// backfilled into each attempt.
func encodeCandidates(img image.Image, maxBytes int64, effectiveDPI int, candidates []codecCandidate) (*sweepResult, error) {
	res := &sweepResult{}
	var buf bytes.Buffer

	for _, cand := range candidates {
		buf.Reset()
		if err := cand.encode(&buf, img); err != nil {
			metrics.IncEncodeAttempt(cand.encoder, "error")
			log.Warn().
				Err(err).
				Str("encoder", cand.encoder).
				Str("format", cand.format).
				Msg("encoder failed; skipping candidate")
			continue
		}

		data := make([]byte, buf.Len())
		copy(data, buf.Bytes())
		attempt := newAttempt(cand.format, cand.encoder, cand.quality, cand.lossless).
			finish(effectiveDPI, len(data))
		res.Attempts = append(res.Attempts, attempt)

		if int64(len(data)) <= maxBytes {
			metrics.IncEncodeAttempt(cand.encoder, "fit")
			res.Data = data
			res.Format = cand.format
			res.Attempt = attempt
			res.WithinBudget = true
			return res, nil
		}

		metrics.IncEncodeAttempt(cand.encoder, "over")
		if res.Data == nil || len(data) < len(res.Data) {
			res.Data = data
			res.Format = cand.format
			res.Attempt = attempt
		}
	}

	if res.Data == nil {
		return nil, &NoRasterEncoderError{DPI: effectiveDPI}
	}
	return res, nil
}

// imageHasAlpha reports whether the image actually carries transparency.
func imageHasAlpha(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return !o.Opaque()
	}
	return false
}
