package export

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/local/miroexport/internal/metrics"
)

// Sharpening radius for the finalize pass. Probe renders skip sharpening;
// it shifts encoded sizes by a few percent at most, which the linear
// refinement absorbs.
const unsharpSigma = 0.8

// finalizeResult is one full-quality render/encode of a candidate DPI.
type finalizeResult struct {
	Data         []byte
	Format       string
	Attempt      *Attempt
	Attempts     []*Attempt
	Width        int
	Height       int
	DPI          int
	WithinBudget bool
	Clamped      bool
}

// finalize renders at the nominal DPI, clamps, sharpens and runs the full
// candidate sweep. This is the expensive pass the binary search avoids.
func (rp *rasterPipeline) finalize(dpi int) (*finalizeResult, error) {
	start := time.Now()
	img, err := rp.page.RenderImage(float64(dpi), false)
	if err != nil {
		return nil, err
	}
	metrics.ObserveRender(time.Since(start))

	clamped := clampDimensions(img, rp.limits)
	effective := dpi
	if clamped.Clamped {
		effective = int(math.Round(float64(dpi) * clamped.Scale))
		if effective < 1 {
			effective = 1
		}
	}

	sharpened := imaging.Sharpen(clamped.Img, unsharpSigma)

	sweep, err := encodeCandidates(sharpened, rp.profile.MaxBytes, effective, rp.codecChain(imageHasAlpha(clamped.Img)))
	if err != nil {
		var noEnc *NoRasterEncoderError
		if errors.As(err, &noEnc) {
			noEnc.Page = rp.page.Number()
		}
		return nil, err
	}

	return &finalizeResult{
		Data:         sweep.Data,
		Format:       sweep.Format,
		Attempt:      sweep.Attempt,
		Attempts:     sweep.Attempts,
		Width:        clamped.Width,
		Height:       clamped.Height,
		DPI:          effective,
		WithinBudget: sweep.WithinBudget,
		Clamped:      clamped.Clamped,
	}, nil
}

// refine finalizes the search candidates in order. When the first candidate
// fits, it is accepted with no further rendering. Otherwise the refiner
// steps the DPI down linearly toward the window floor, stopping at the
// first fit. When nothing fits the budget, the first finalized candidate is
// returned anyway so the page still produces an artifact.
func (rp *rasterPipeline) refine(ctx context.Context, candidates []int, window dpiWindow) (*finalizeResult, error) {
	tried := make(map[int]bool)
	var fallback *finalizeResult
	var attempts []*Attempt

	finalizeAt := func(dpi int) (*finalizeResult, error) {
		if tried[dpi] {
			return nil, nil
		}
		tried[dpi] = true
		res, err := rp.finalize(dpi)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, res.Attempts...)
		res.Attempts = attempts
		if fallback == nil {
			fallback = res
		}
		log.Debug().
			Int("page", rp.page.Number()).
			Int("dpi", dpi).
			Int("effective_dpi", res.DPI).
			Bool("fits", res.WithinBudget).
			Int("size", len(res.Data)).
			Msg("finalized candidate")
		return res, nil
	}

	for _, dpi := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, &CancelledError{Page: rp.page.Number(), Err: err}
		}
		res, err := finalizeAt(dpi)
		if err != nil {
			return nil, err
		}
		if res != nil && res.WithinBudget {
			return res, nil
		}
	}

	// Linear descent from the preferred candidate toward the floor. The
	// candidate DPIs are not step-aligned with the floor, so the last step
	// clamps to it: the floor itself must always be finalized before giving
	// up on the budget.
	dpi := candidates[0] - dpiStep
	if dpi < window.Floor {
		dpi = window.Floor
	}
	for dpi >= window.Floor {
		if err := ctx.Err(); err != nil {
			return nil, &CancelledError{Page: rp.page.Number(), Err: err}
		}
		res, err := finalizeAt(dpi)
		if err != nil {
			return nil, err
		}
		if res != nil && res.WithinBudget {
			return res, nil
		}
		if dpi == window.Floor {
			break
		}
		dpi -= dpiStep
		if dpi < window.Floor {
			dpi = window.Floor
		}
	}

	// Nothing fit; the page must still produce an artifact.
	fallback.Attempts = attempts
	return fallback, nil
}
