package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the fixed manifest filename inside the output directory.
const ManifestName = "miro_export.json"

// ManifestEntry is the persisted view of one page's result. Width, height,
// DPI and format are null for failed pages and for dimensions that do not
// apply (vector exports carry no pixel size).
type ManifestEntry struct {
	Page          int        `json:"page"`
	WidthPx       *int       `json:"width_px"`
	HeightPx      *int       `json:"height_px"`
	DPI           *int       `json:"dpi"`
	Format        *string    `json:"format"`
	FilesizeBytes int64      `json:"filesize_bytes"`
	VectorExport  bool       `json:"vector_export"`
	Attempts      []*Attempt `json:"attempts"`
	Warnings      []string   `json:"warnings"`
	Error         *string    `json:"error"`
}

// BuildManifest maps page results to manifest entries, one per requested
// page, failed pages included.
func BuildManifest(results []*PageResult) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		e := ManifestEntry{
			Page:          r.Page,
			FilesizeBytes: r.FilesizeBytes,
			VectorExport:  r.VectorExport,
			Attempts:      r.Attempts,
			Warnings:      r.Warnings,
		}
		if e.Attempts == nil {
			e.Attempts = []*Attempt{}
		}
		if e.Warnings == nil {
			e.Warnings = []string{}
		}
		if r.Width > 0 {
			w := r.Width
			e.WidthPx = &w
		}
		if r.Height > 0 {
			h := r.Height
			e.HeightPx = &h
		}
		if r.DPI > 0 {
			d := r.DPI
			e.DPI = &d
		}
		if r.Format != "" {
			f := r.Format
			e.Format = &f
		}
		if r.Error != "" {
			msg := r.Error
			e.Error = &msg
		}
		entries = append(entries, e)
	}
	return entries
}

// WriteManifest persists the manifest to <outDir>/miro_export.json.
func WriteManifest(outDir string, entries []ManifestEntry) (string, error) {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(outDir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
