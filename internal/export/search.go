package export

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/miroexport/internal/metrics"
	"github.com/local/miroexport/internal/pagesource"
)

// dpiStep is the search granularity. It bounds the binary-search iteration
// count and keeps the floor/ceiling adjustments from oscillating.
const dpiStep = 25

// dpiWindow is the per-page DPI search domain after reconciling the profile
// bounds with the page's physical geometry and the platform pixel limits.
type dpiWindow struct {
	Floor      int
	AllowedMax int
	// MinUnreachable is set when the profile's sharpness floor exceeds the
	// page's allowed maximum: the target sharpness cannot be reached even
	// before size is considered.
	MinUnreachable bool
}

// computeWindow derives the search window from the page size in inches.
// Capping the ceiling by the edge and area limits keeps the search from
// probing DPIs whose renders would only be clamped away.
func computeWindow(p Profile, lim Limits, widthPts, heightPts float64) (dpiWindow, error) {
	widthIn := widthPts / 72.0
	heightIn := heightPts / 72.0
	if widthIn <= 0 || heightIn <= 0 {
		return dpiWindow{}, &NoRasterAttemptError{Reason: "degenerate page geometry"}
	}

	longIn, shortIn := widthIn, heightIn
	if heightIn > widthIn {
		longIn, shortIn = heightIn, widthIn
	}

	capLong := float64(lim.MaxLongEdge) / longIn
	capShort := float64(lim.MaxShortEdge) / shortIn
	capArea := math.Sqrt(float64(lim.MaxPixels) / (widthIn * heightIn))

	allowedMax := p.MaxDPI
	for _, c := range []float64{capLong, capShort, capArea} {
		if v := int(math.Floor(c)); v < allowedMax {
			allowedMax = v
		}
	}
	if allowedMax < 1 {
		return dpiWindow{}, &NoRasterAttemptError{Reason: "page too large for platform pixel limits"}
	}

	w := dpiWindow{AllowedMax: allowedMax}
	minDPI := p.MinDPI()
	if minDPI > allowedMax {
		w.Floor = allowedMax
		w.MinUnreachable = true
	} else {
		w.Floor = minDPI
	}
	if w.Floor < 1 {
		w.Floor = 1
	}
	return w, nil
}

// searchOutcome carries the binary search's candidate DPIs in preference
// order (within-budget first), all probe attempts, and whether any probe
// render had to be clamped.
type searchOutcome struct {
	Candidates []int
	Attempts   []*Attempt
	Clamped    bool
}

// rasterPipeline holds the per-page raster policy shared by the DPI search
// and the refinement pass.
type rasterPipeline struct {
	profile Profile
	limits  Limits
	page    pagesource.Page

	// candidates, when set, replaces the default codec chain.
	candidates func(hasAlpha bool) []codecCandidate
}

func (rp *rasterPipeline) codecChain(hasAlpha bool) []codecCandidate {
	if rp.candidates != nil {
		return rp.candidates(hasAlpha)
	}
	return rasterCandidates(hasAlpha)
}

// probe renders at the nominal DPI, clamps, and runs the cheap encoder
// sweep (no sharpening). The attempt DPIs are rewritten to the effective
// DPI: a clamped render carries less true sharpness than requested.
func (rp *rasterPipeline) probe(dpi int) (*sweepResult, int, bool, error) {
	start := time.Now()
	img, err := rp.page.RenderImage(float64(dpi), false)
	if err != nil {
		return nil, 0, false, err
	}
	metrics.ObserveRender(time.Since(start))
	metrics.IncDpiProbe()

	clamped := clampDimensions(img, rp.limits)
	effective := dpi
	if clamped.Clamped {
		effective = int(math.Round(float64(dpi) * clamped.Scale))
		if effective < 1 {
			effective = 1
		}
	}

	sweep, err := encodeCandidates(clamped.Img, rp.profile.MaxBytes, effective, rp.codecChain(imageHasAlpha(clamped.Img)))
	if err != nil {
		return nil, effective, clamped.Clamped, err
	}
	return sweep, effective, clamped.Clamped, nil
}

// searchDPI binary-searches the window for the highest DPI whose cheap
// encoding fits the budget. Probes that fit raise the floor by one step;
// probes that miss lower the ceiling by one step, with the smallest-output
// miss kept as a fallback candidate.
func (rp *rasterPipeline) searchDPI(ctx context.Context, window dpiWindow) (*searchOutcome, error) {
	out := &searchOutcome{}

	lo, hi := window.Floor, window.AllowedMax
	bestWithin := 0
	bestAny := 0
	bestAnySize := math.MaxInt

	for lo <= hi {
		if err := ctx.Err(); err != nil {
			return nil, &CancelledError{Page: rp.page.Number(), Err: err}
		}

		mid := (lo + hi) / 2
		sweep, _, clamped, err := rp.probe(mid)
		if err != nil {
			var noEnc *NoRasterEncoderError
			if errors.As(err, &noEnc) {
				noEnc.Page = rp.page.Number()
			}
			return nil, err
		}
		if clamped {
			out.Clamped = true
		}
		out.Attempts = append(out.Attempts, sweep.Attempts...)

		if sweep.WithinBudget {
			bestWithin = mid
			lo = mid + dpiStep
		} else {
			if sweep.Attempt.SizeBytes < bestAnySize {
				bestAny = mid
				bestAnySize = sweep.Attempt.SizeBytes
			}
			hi = mid - dpiStep
		}

		log.Debug().
			Int("page", rp.page.Number()).
			Int("dpi", mid).
			Bool("fits", sweep.WithinBudget).
			Int("size", sweep.Attempt.SizeBytes).
			Msg("dpi probe")
	}

	if bestWithin > 0 {
		out.Candidates = append(out.Candidates, bestWithin)
	}
	if bestAny > 0 && bestAny != bestWithin {
		out.Candidates = append(out.Candidates, bestAny)
	}
	if len(out.Candidates) == 0 {
		// Window empty (Floor > AllowedMax cannot happen after computeWindow,
		// so this means no probe ran at all).
		return nil, &NoRasterAttemptError{Page: rp.page.Number(), Reason: "empty search window"}
	}

	log.Debug().
		Int("page", rp.page.Number()).
		Ints("candidates", out.Candidates).
		Bool("clamped", out.Clamped).
		Msg("dpi search finished")

	return out, nil
}
