package export

import "fmt"

// Profile is the immutable per-call export policy: the hard byte ceiling,
// the zoom the consumer is expected to view pages at, and the DPI domain.
type Profile struct {
	Name            string
	MaxBytes        int64
	TargetZoom      float64
	MinEffectiveDPI int
	RenderDPI       int
	MaxDPI          int
}

// MinDPI is the sharpness floor at the target zoom. MaxDPI is not
// guaranteed to reach it; the search window reconciles the two per page.
func (p Profile) MinDPI() int {
	return int(p.TargetZoom * float64(p.MinEffectiveDPI))
}

// Limits are the absolute pixel ceilings of the target platform. MaxPixels
// bounds the DPI search window; the edge limits are also enforced directly
// by the dimension clamp.
type Limits struct {
	MaxLongEdge  int
	MaxShortEdge int
	MaxPixels    int64
}

// DefaultLimits returns the board platform's documented ingestion limits.
func DefaultLimits() Limits {
	return Limits{MaxLongEdge: 8192, MaxShortEdge: 4096, MaxPixels: 32 * 1024 * 1024}
}

var profiles = map[string]Profile{
	"miro": {
		Name:            "miro",
		MaxBytes:        28 << 20,
		TargetZoom:      2.0,
		MinEffectiveDPI: 120,
		RenderDPI:       300,
		MaxDPI:          600,
	},
	"miro-lite": {
		Name:            "miro-lite",
		MaxBytes:        8 << 20,
		TargetZoom:      1.0,
		MinEffectiveDPI: 96,
		RenderDPI:       220,
		MaxDPI:          400,
	},
}

// ProfileByName returns a built-in profile.
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown export profile %q", name)
	}
	return p, nil
}

// Validate rejects profiles that can never produce output.
func (p Profile) Validate() error {
	if p.MaxBytes <= 0 {
		return fmt.Errorf("profile %s: max bytes must be positive", p.Name)
	}
	if p.TargetZoom <= 0 || p.MinEffectiveDPI <= 0 || p.MaxDPI <= 0 {
		return fmt.Errorf("profile %s: zoom and dpi values must be positive", p.Name)
	}
	return nil
}
