package export

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampDimensionsUnchanged(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	res := clampDimensions(img, testLimits())

	assert.False(t, res.Clamped)
	assert.Equal(t, 1.0, res.Scale)
	assert.Equal(t, 800, res.Width)
	assert.Equal(t, 600, res.Height)
	// Untouched images are passed through, not copied.
	assert.Same(t, image.Image(img), res.Img)
}

func TestClampDimensionsLongEdge(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10000, 3000))
	res := clampDimensions(img, testLimits())

	assert.True(t, res.Clamped)
	assert.Equal(t, 8192, res.Width)
	assert.LessOrEqual(t, res.Height, 4096)
	assert.InDelta(t, 0.8192, res.Scale, 0.0001)
}

func TestClampDimensionsShortEdgeBinds(t *testing.T) {
	// Long edge fits but short edge exceeds its tighter limit.
	img := image.NewRGBA(image.Rect(0, 0, 6000, 5000))
	res := clampDimensions(img, testLimits())

	assert.True(t, res.Clamped)
	assert.LessOrEqual(t, res.Height, 4096)
	assert.LessOrEqual(t, res.Width, 8192)
}

func TestClampDimensionsPortrait(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3000, 10000))
	res := clampDimensions(img, testLimits())

	assert.True(t, res.Clamped)
	assert.LessOrEqual(t, res.Height, 8192)
	assert.LessOrEqual(t, res.Width, 4096)
}

func TestClampDimensionsNeverUpscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	res := clampDimensions(img, testLimits())

	assert.False(t, res.Clamped)
	assert.Equal(t, 10, res.Width)
	assert.Equal(t, 10, res.Height)
}

func TestClampDimensionsOnePixelFloor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100000, 2))
	res := clampDimensions(img, Limits{MaxLongEdge: 50, MaxShortEdge: 50, MaxPixels: 1 << 20})

	assert.True(t, res.Clamped)
	assert.GreaterOrEqual(t, res.Width, 1)
	assert.GreaterOrEqual(t, res.Height, 1)
}
