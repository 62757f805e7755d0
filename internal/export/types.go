package export

// Attempt records one encoding trial: encoder, format, quality and the
// resulting size. Attempts are created open and finished exactly once when
// the encoded size (and the effective DPI, for raster attempts) is known;
// after that they are never mutated.
type Attempt struct {
	DPI       int    `json:"dpi"`
	Format    string `json:"fmt"`
	SizeBytes int    `json:"size_bytes"`
	Encoder   string `json:"encoder"`
	Quality   *int   `json:"quality"`
	Lossless  *bool  `json:"lossless"`

	finished bool
}

func newAttempt(format, encoder string, quality *int, lossless *bool) *Attempt {
	return &Attempt{Format: format, Encoder: encoder, Quality: quality, Lossless: lossless}
}

// finish backfills the measured size and effective DPI. Calling it twice is
// a programming error and is ignored to keep attempts append-only.
func (a *Attempt) finish(dpi, sizeBytes int) *Attempt {
	if a.finished {
		return a
	}
	a.DPI = dpi
	a.SizeBytes = sizeBytes
	a.finished = true
	return a
}

// PageResult is one page's final outcome. It is created empty when a page's
// export starts, filled in through the pipeline and treated as immutable
// once handed to the orchestrator.
type PageResult struct {
	Page          int
	OutputPath    string
	Width         int
	Height        int
	DPI           int
	Format        string
	FilesizeBytes int64
	VectorExport  bool
	WithinBudget  bool
	Attempts      []*Attempt
	Warnings      []string
	Error         string
}

// Failed reports whether the page produced no usable artifact.
func (r *PageResult) Failed() bool { return r.Error != "" }

func (r *PageResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Outcome is the aggregate of one export call. Files holds the output paths
// of non-failed pages in input order; ManifestData is always populated,
// whether or not it was written to disk.
type Outcome struct {
	Files        []string
	ManifestPath string
	ManifestData []ManifestEntry
	PageResults  []*PageResult
	Warnings     []string
}
