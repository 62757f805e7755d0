package export

import "fmt"

// NoRasterAttemptError means the per-page DPI window was empty: the page
// geometry left nothing to try, so no render was ever attempted.
type NoRasterAttemptError struct {
	Page   int
	Reason string
}

func (e *NoRasterAttemptError) Error() string {
	return fmt.Sprintf("no raster attempt possible for page %d: %s", e.Page, e.Reason)
}

// NoRasterEncoderError means every codec candidate failed to produce output
// for a rendered image.
type NoRasterEncoderError struct {
	Page int
	DPI  int
}

func (e *NoRasterEncoderError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("no encoder produced output for page %d at %d dpi", e.Page, e.DPI)
	}
	return fmt.Sprintf("no encoder produced output at %d dpi", e.DPI)
}

// CancelledError aborts the whole batch, unlike per-page encode failures
// which are isolated.
type CancelledError struct {
	Page int
	Err  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("export cancelled at page %d: %v", e.Page, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }
