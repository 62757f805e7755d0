package export

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opaqueTestImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%3 == 0 {
				img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
			}
		}
	}
	return img
}

func TestCandidateOrder(t *testing.T) {
	cands := rasterCandidates(false)
	require.Len(t, cands, 7)
	assert.Equal(t, "webp", cands[0].encoder)
	assert.True(t, *cands[0].lossless)
	assert.Equal(t, 95, *cands[1].quality)
	assert.Equal(t, 90, *cands[2].quality)
	assert.Equal(t, 85, *cands[3].quality)
	assert.Equal(t, "png", cands[4].encoder)
	assert.Equal(t, "jpeg", cands[5].encoder)
	assert.Equal(t, "jpeg", cands[6].encoder)
}

func TestCandidatesExcludeJPEGForTransparency(t *testing.T) {
	for _, c := range rasterCandidates(true) {
		assert.NotEqual(t, "jpeg", c.encoder, "JPEG cannot carry alpha")
	}
}

func TestEncodeCandidatesFirstFitWins(t *testing.T) {
	img := opaqueTestImage(64, 64)
	res, err := encodeCandidates(img, 10<<20, 100, rasterCandidates(false))
	require.NoError(t, err)

	assert.True(t, res.WithinBudget)
	assert.Equal(t, "WEBP", res.Format)
	assert.Equal(t, "webp", res.Attempt.Encoder)
	require.NotNil(t, res.Attempt.Lossless)
	assert.True(t, *res.Attempt.Lossless)
	// The chain stops at the first acceptable candidate.
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, 100, res.Attempt.DPI)
	assert.Equal(t, len(res.Data), res.Attempt.SizeBytes)
}

func TestEncodeCandidatesBudgetInfeasible(t *testing.T) {
	img := opaqueTestImage(64, 64)
	res, err := encodeCandidates(img, 1, 100, rasterCandidates(false))
	require.NoError(t, err)

	assert.False(t, res.WithinBudget)
	require.NotNil(t, res.Data)
	// Every candidate was tried and recorded.
	assert.Len(t, res.Attempts, 7)
	// The returned artifact is the smallest one seen.
	for _, a := range res.Attempts {
		assert.GreaterOrEqual(t, a.SizeBytes, res.Attempt.SizeBytes)
	}
}

func TestEncodeCandidatesTransparencySkipsJPEG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	// Leave pixels transparent so the image really carries alpha.
	res, err := encodeCandidates(img, 1, 100, rasterCandidates(true))
	require.NoError(t, err)

	for _, a := range res.Attempts {
		assert.NotEqual(t, "jpeg", a.Encoder)
	}
	assert.Len(t, res.Attempts, 5)
}

func TestEncodeCandidatesAllEncodersFail(t *testing.T) {
	boom := func(io.Writer, image.Image) error { return errors.New("encoder exploded") }
	broken := []codecCandidate{
		{encoder: "webp", format: "WEBP", encode: boom},
		{encoder: "png", format: "PNG", encode: boom},
	}

	res, err := encodeCandidates(opaqueTestImage(8, 8), 1<<20, 72, broken)
	require.Nil(t, res)

	var noEnc *NoRasterEncoderError
	require.True(t, errors.As(err, &noEnc))
	assert.Equal(t, 72, noEnc.DPI)
	// Without page context the message stays page-free.
	assert.NotContains(t, noEnc.Error(), "page")
}

func TestImageHasAlpha(t *testing.T) {
	assert.False(t, imageHasAlpha(opaqueTestImage(8, 8)))

	withAlpha := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	assert.True(t, imageHasAlpha(withAlpha))
}

func TestAttemptFinishIsIdempotent(t *testing.T) {
	a := newAttempt("WEBP", "webp", nil, nil)
	a.finish(150, 1234)
	a.finish(999, 9999)

	assert.Equal(t, 150, a.DPI)
	assert.Equal(t, 1234, a.SizeBytes)
}
