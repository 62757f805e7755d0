package outdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultNextToInput(t *testing.T) {
	base := t.TempDir()
	input := filepath.Join(base, "deck.pdf")

	dir, err := Resolve(input, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "deck_miro"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "out")

	dir, err := Resolve("/somewhere/deck.pdf", want)
	require.NoError(t, err)
	assert.Equal(t, want, dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolveExistingDir(t *testing.T) {
	existing := t.TempDir()

	dir, err := Resolve("/somewhere/deck.pdf", existing)
	require.NoError(t, err)
	assert.Equal(t, existing, dir)

	// The write probe must not leave anything behind.
	entries, err := os.ReadDir(existing)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveUnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not restrict root")
	}
	locked := t.TempDir()
	require.NoError(t, os.Chmod(locked, 0o555))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := Resolve("/somewhere/deck.pdf", locked)
	assert.Error(t, err)
}
