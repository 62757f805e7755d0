package export

import (
	"fmt"
	"os"
	"regexp"

	"github.com/rs/zerolog/log"

	"github.com/local/miroexport/internal/metrics"
	"github.com/local/miroexport/internal/pagesource"
)

// Producer metadata blocks contribute nothing to rendering and can be a
// surprising share of small files.
var metadataBlockRe = regexp.MustCompile(`(?s)<metadata[\s>].*?</metadata>`)

type svgResult struct {
	Path         string
	Size         int64
	WithinBudget bool
	Attempt      *Attempt
}

// exportSVG renders the page as a self-contained SVG (text as paths) and
// checks it against the byte budget before touching disk, so no stray
// vector artifact remains when the raster path takes over.
func exportSVG(page pagesource.Page, outPath string, maxBytes int64) (*svgResult, error) {
	markup, err := page.RenderSVG()
	if err != nil {
		return nil, err
	}
	stripped := metadataBlockRe.ReplaceAllString(markup, "")

	data := []byte(stripped)
	attempt := newAttempt("SVG", "svg", nil, boolPtr(true)).finish(0, len(data))

	if int64(len(data)) > maxBytes {
		metrics.IncEncodeAttempt("svg", "over")
		log.Debug().
			Int("page", page.Number()).
			Int("size", len(data)).
			Int64("max_bytes", maxBytes).
			Msg("SVG over budget")
		return &svgResult{Size: int64(len(data)), Attempt: attempt}, nil
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write SVG %s: %w", outPath, err)
	}
	metrics.IncEncodeAttempt("svg", "fit")
	metrics.AddBytesWritten(len(data))

	log.Debug().
		Int("page", page.Number()).
		Str("path", outPath).
		Int("size", len(data)).
		Msg("exported page as SVG")

	return &svgResult{Path: outPath, Size: int64(len(data)), WithinBudget: true, Attempt: attempt}, nil
}
