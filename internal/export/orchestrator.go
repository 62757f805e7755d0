package export

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/miroexport/internal/pagesource"
)

// StatusSink receives per-page progress. Implementations must tolerate
// being called from the export goroutine; a nil sink disables reporting.
type StatusSink interface {
	PageFinished(ctx context.Context, page int, failed bool)
}

// Options configures one export call.
type Options struct {
	Profile       Profile
	Limits        Limits
	OutDir        string
	Stem          string
	WriteManifest bool
	Status        StatusSink
}

// Orchestrator iterates a caller-supplied page list, exporting each page in
// order. Pages never run concurrently and their attempt lists never
// interleave; the only shared state is the read-only profile.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator for one export configuration.
func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// Export processes the given 1-based page numbers strictly in order.
// Per-page failures are isolated into their PageResult; only cancellation
// aborts the batch, returning the completed prefix alongside a
// CancelledError.
func (o *Orchestrator) Export(ctx context.Context, src pagesource.Source, pages []int) (*Outcome, error) {
	out := &Outcome{}
	exporter := &PageExporter{
		Profile: o.opts.Profile,
		Limits:  o.opts.Limits,
		OutDir:  o.opts.OutDir,
		Stem:    o.opts.Stem,
	}

	log.Info().
		Str("profile", o.opts.Profile.Name).
		Int64("max_bytes", o.opts.Profile.MaxBytes).
		Int("pages", len(pages)).
		Str("out_dir", o.opts.OutDir).
		Msg("export started")

	for _, n := range pages {
		if err := ctx.Err(); err != nil {
			o.finish(out)
			return out, &CancelledError{Page: n, Err: err}
		}

		res, err := o.exportPage(ctx, exporter, src, n)
		out.PageResults = append(out.PageResults, res)
		if err != nil {
			o.finish(out)
			return out, err
		}

		if !res.Failed() && res.OutputPath != "" {
			out.Files = append(out.Files, res.OutputPath)
		}
		if o.opts.Status != nil {
			o.opts.Status.PageFinished(ctx, n, res.Failed())
		}
	}

	o.finish(out)

	if o.opts.WriteManifest {
		path, err := WriteManifest(o.opts.OutDir, out.ManifestData)
		if err != nil {
			// The export itself succeeded; surface the manifest problem as
			// a warning rather than failing the batch.
			out.Warnings = append(out.Warnings, fmt.Sprintf("manifest not written: %v", err))
			log.Error().Err(err).Msg("failed to write manifest")
		} else {
			out.ManifestPath = path
		}
	}

	log.Info().
		Int("pages", len(out.PageResults)).
		Int("files", len(out.Files)).
		Int("warnings", len(out.Warnings)).
		Msg("export finished")

	return out, nil
}

func (o *Orchestrator) exportPage(ctx context.Context, exporter *PageExporter, src pagesource.Source, n int) (*PageResult, error) {
	page, err := src.Page(n)
	if err != nil {
		// Collaborator failure: the page cannot even be opened.
		res := &PageResult{Page: n}
		res.Error = err.Error()
		res.warn(fmt.Sprintf("page %d failed: %v", n, err))
		log.Error().Err(err).Int("page", n).Msg("page unavailable")
		return res, nil
	}
	return exporter.Export(ctx, page)
}

// finish flattens warnings and builds the manifest data, which is always
// populated regardless of whether it gets written.
func (o *Orchestrator) finish(out *Outcome) {
	out.Warnings = nil
	for _, r := range out.PageResults {
		out.Warnings = append(out.Warnings, r.Warnings...)
	}
	out.ManifestData = BuildManifest(out.PageResults)
}
