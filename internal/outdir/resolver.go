package outdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns a writable output directory for exported artifacts,
// creating it if absent. An empty override places output next to the input
// file in a "<stem>_miro" directory.
func Resolve(inputPath, override string) (string, error) {
	dir := override
	if dir == "" {
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		dir = filepath.Join(filepath.Dir(inputPath), stem+"_miro")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	// MkdirAll succeeds on an existing but unwritable dir; probe explicitly.
	probe := filepath.Join(dir, ".miroexport_probe")
	f, err := os.Create(probe)
	if err != nil {
		return "", fmt.Errorf("output dir %s not writable: %w", dir, err)
	}
	f.Close()
	_ = os.Remove(probe)
	return dir, nil
}
