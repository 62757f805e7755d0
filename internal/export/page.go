package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/miroexport/internal/metrics"
	"github.com/local/miroexport/internal/pagesource"
)

// Warnings surfaced on degraded-but-usable results.
const (
	warnSVGFallback = "SVG exceeded size limit; falling back to raster pipeline"
	warnOverBudget  = "File exceeds limit at minimum acceptable sharpness"
	warnClamped     = "Clamped by dimension limits"
)

// PageExporter runs the full pipeline for one page: classification, vector
// attempt, raster search/refinement, and writing the artifact.
type PageExporter struct {
	Profile Profile
	Limits  Limits
	OutDir  string
	Stem    string
}

// Export produces the page's result. Per-page failures (collaborator
// errors, infeasible constraints) are recorded on the result and never
// propagate; the returned error is non-nil only for cancellation, which
// aborts the whole batch.
func (e *PageExporter) Export(ctx context.Context, page pagesource.Page) (*PageResult, error) {
	res := &PageResult{Page: page.Number()}
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return res, &CancelledError{Page: page.Number(), Err: err}
	}

	stats, err := page.Stats()
	if err != nil {
		e.fail(res, err)
		return res, nil
	}

	if IsVectorHeavy(stats) {
		done, err := e.tryVector(page, res)
		if err != nil {
			e.fail(res, err)
			return res, nil
		}
		if done {
			metrics.IncPageExported("ok", "SVG")
			metrics.ObservePage("vector", time.Since(start))
			return res, nil
		}
	}

	if err := e.exportRaster(ctx, page, res); err != nil {
		var cancelled *CancelledError
		if errors.As(err, &cancelled) {
			return res, err
		}
		e.fail(res, err)
		return res, nil
	}

	result := "ok"
	if len(res.Warnings) > 0 {
		result = "degraded"
	}
	metrics.IncPageExported(result, res.Format)
	metrics.ObservePage("raster", time.Since(start))
	return res, nil
}

// tryVector attempts the SVG export. It reports done=true when the page is
// fully handled; an over-budget SVG records a warning and hands the page to
// the raster pipeline.
func (e *PageExporter) tryVector(page pagesource.Page, res *PageResult) (bool, error) {
	outPath := e.outputPath(page.Number(), "svg")
	svg, err := exportSVG(page, outPath, e.Profile.MaxBytes)
	if err != nil {
		return false, err
	}
	res.Attempts = append(res.Attempts, svg.Attempt)

	if !svg.WithinBudget {
		res.warn(warnSVGFallback)
		log.Info().
			Int("page", page.Number()).
			Int64("size", svg.Size).
			Msg("vector export over budget; using raster pipeline")
		return false, nil
	}

	res.VectorExport = true
	res.WithinBudget = true
	res.OutputPath = svg.Path
	res.Format = "SVG"
	res.FilesizeBytes = svg.Size
	return true, nil
}

func (e *PageExporter) exportRaster(ctx context.Context, page pagesource.Page, res *PageResult) error {
	widthPts, heightPts := page.SizePoints()
	window, err := computeWindow(e.Profile, e.Limits, widthPts, heightPts)
	if err != nil {
		var noAttempt *NoRasterAttemptError
		if errors.As(err, &noAttempt) {
			noAttempt.Page = page.Number()
		}
		return err
	}

	rp := &rasterPipeline{profile: e.Profile, limits: e.Limits, page: page}

	search, err := rp.searchDPI(ctx, window)
	if err != nil {
		return err
	}
	res.Attempts = append(res.Attempts, search.Attempts...)

	final, err := rp.refine(ctx, search.Candidates, window)
	if err != nil {
		return err
	}
	res.Attempts = append(res.Attempts, final.Attempts...)

	res.Width = final.Width
	res.Height = final.Height
	res.DPI = final.DPI
	res.Format = final.Format
	res.WithinBudget = final.WithinBudget

	if !final.WithinBudget {
		res.warn(warnOverBudget)
	}
	if search.Clamped || final.Clamped || window.MinUnreachable {
		res.warn(warnClamped)
	}

	outPath := e.outputPath(page.Number(), strings.ToLower(final.Format))
	if err := os.WriteFile(outPath, final.Data, 0o644); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("write artifact %s: %w", outPath, err)
	}
	res.OutputPath = outPath
	res.FilesizeBytes = int64(len(final.Data))
	metrics.AddBytesWritten(len(final.Data))

	scalePct := 100
	if window.AllowedMax > 0 && final.DPI < e.Profile.MaxDPI {
		scalePct = int(math.Round(float64(final.DPI) / float64(e.Profile.MaxDPI) * 100))
	}
	ev := log.Info().
		Int("page", page.Number()).
		Str("format", final.Format).
		Int("width", final.Width).
		Int("height", final.Height).
		Int("dpi", final.DPI).
		Int("scale_pct", scalePct).
		Int64("size", res.FilesizeBytes).
		Bool("within_budget", final.WithinBudget)
	if final.Attempt.Quality != nil {
		ev = ev.Int("quality", *final.Attempt.Quality)
	}
	ev.Msg("exported page")

	return nil
}

// fail records a page-level error, removes any partially written artifact,
// and leaves the rest of the batch unaffected.
func (e *PageExporter) fail(res *PageResult, err error) {
	res.Error = err.Error()
	res.warn(fmt.Sprintf("page %d failed: %v", res.Page, err))
	if res.OutputPath != "" {
		_ = os.Remove(res.OutputPath)
		res.OutputPath = ""
	}
	metrics.IncPageExported("failed", "")
	log.Error().Err(err).Int("page", res.Page).Msg("page export failed")
}

func (e *PageExporter) outputPath(page int, ext string) string {
	return filepath.Join(e.OutDir, fmt.Sprintf("%s_Page_%d.%s", e.Stem, page, ext))
}
