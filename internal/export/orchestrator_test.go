package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/miroexport/internal/pagesource"
)

func rasterStats() pagesource.Stats { return pagesource.Stats{Images: 2} }

func threeRasterPages() *fakeSource {
	return &fakeSource{pages: map[int]*fakePage{
		1: {num: 1, widthPts: 612, heightPts: 792, stats: rasterStats()},
		2: {num: 2, widthPts: 612, heightPts: 792, stats: rasterStats()},
		3: {num: 3, widthPts: 612, heightPts: 792, stats: rasterStats()},
	}}
}

func newOrchestrator(t *testing.T, writeManifest bool) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	o := New(Options{
		Profile:       testProfile(),
		Limits:        testLimits(),
		OutDir:        dir,
		Stem:          "doc",
		WriteManifest: writeManifest,
	})
	return o, dir
}

func TestExportPreservesPageOrder(t *testing.T) {
	o, _ := newOrchestrator(t, false)
	src := threeRasterPages()

	out, err := o.Export(context.Background(), src, []int{3, 1, 2})
	require.NoError(t, err)

	require.Len(t, out.PageResults, 3)
	assert.Equal(t, 3, out.PageResults[0].Page)
	assert.Equal(t, 1, out.PageResults[1].Page)
	assert.Equal(t, 2, out.PageResults[2].Page)

	require.Len(t, out.Files, 3)
	assert.Contains(t, filepath.Base(out.Files[0]), "_Page_3.")
	assert.Contains(t, filepath.Base(out.Files[1]), "_Page_1.")
	assert.Contains(t, filepath.Base(out.Files[2]), "_Page_2.")

	assert.Empty(t, out.ManifestPath)
	assert.Len(t, out.ManifestData, 3, "manifest data populated even when not written")
}

func TestExportPartialFailureIsolation(t *testing.T) {
	o, _ := newOrchestrator(t, false)
	src := threeRasterPages()
	src.pages[2].statsErr = errors.New("broken page object")

	out, err := o.Export(context.Background(), src, []int{1, 2, 3})
	require.NoError(t, err)

	require.Len(t, out.PageResults, 3)
	assert.Empty(t, out.PageResults[0].Error)
	assert.Contains(t, out.PageResults[1].Error, "broken page object")
	assert.Empty(t, out.PageResults[2].Error)

	// Failed pages are absent from files but present in results and manifest.
	assert.Len(t, out.Files, 2)
	require.Len(t, out.ManifestData, 3)
	require.NotNil(t, out.ManifestData[1].Error)
	assert.Nil(t, out.ManifestData[1].Format)
}

func TestExportPageHandleFailure(t *testing.T) {
	o, _ := newOrchestrator(t, false)
	src := threeRasterPages()
	src.pageErr = map[int]error{2: errors.New("document corrupt at page 2")}

	out, err := o.Export(context.Background(), src, []int{1, 2, 3})
	require.NoError(t, err)

	assert.Contains(t, out.PageResults[1].Error, "document corrupt")
	assert.Len(t, out.Files, 2)
}

func TestExportCancellationAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	src := threeRasterPages()

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel as soon as the first page reports completion.
	o := New(Options{
		Profile:       testProfile(),
		Limits:        testLimits(),
		OutDir:        dir,
		Stem:          "doc",
		WriteManifest: false,
		Status:        cancelAfterFirst{cancel: cancel},
	})

	out, err := o.Export(ctx, src, []int{1, 2, 3})
	var cancelled *CancelledError
	require.True(t, errors.As(err, &cancelled))

	// The completed prefix survives; remaining pages never ran.
	require.Len(t, out.PageResults, 1)
	assert.Empty(t, out.PageResults[0].Error)
	assert.Len(t, out.Files, 1)
}

type cancelAfterFirst struct{ cancel context.CancelFunc }

func (c cancelAfterFirst) PageFinished(ctx context.Context, page int, failed bool) { c.cancel() }

func TestExportWritesManifest(t *testing.T) {
	o, dir := newOrchestrator(t, true)
	src := threeRasterPages()
	src.pages[2].statsErr = errors.New("boom")

	out, err := o.Export(context.Background(), src, []int{1, 2, 3})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, ManifestName), out.ManifestPath)
	data, err := os.ReadFile(out.ManifestPath)
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, float64(1), first["page"])
	assert.Equal(t, false, first["vector_export"])
	assert.NotNil(t, first["width_px"])
	assert.Nil(t, first["error"])
	attempts, ok := first["attempts"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, attempts)

	failed := entries[1]
	assert.NotNil(t, failed["error"])
	assert.Nil(t, failed["dpi"])
	assert.Equal(t, float64(0), failed["filesize_bytes"])
}

func TestExportIsDeterministic(t *testing.T) {
	run := func() (string, []byte, []byte) {
		dir := t.TempDir()
		o := New(Options{
			Profile:       testProfile(),
			Limits:        testLimits(),
			OutDir:        dir,
			Stem:          "doc",
			WriteManifest: true,
		})
		src := &fakeSource{pages: map[int]*fakePage{
			1: {num: 1, widthPts: 612, heightPts: 792, stats: rasterStats()},
		}}

		out, err := o.Export(context.Background(), src, []int{1})
		require.NoError(t, err)
		require.Len(t, out.Files, 1)

		artifact, err := os.ReadFile(out.Files[0])
		require.NoError(t, err)
		manifest, err := os.ReadFile(out.ManifestPath)
		require.NoError(t, err)
		return filepath.Base(out.Files[0]), artifact, manifest
	}

	name1, artifact1, manifest1 := run()
	name2, artifact2, manifest2 := run()

	assert.Equal(t, name1, name2)
	assert.Equal(t, artifact1, artifact2, "identical input must produce identical bytes")
	assert.Equal(t, manifest1, manifest2)
}

func TestExportFlattensWarnings(t *testing.T) {
	o, _ := newOrchestrator(t, false)
	src := threeRasterPages()
	o.opts.Profile.MaxBytes = 1

	out, err := o.Export(context.Background(), src, []int{1, 2})
	require.NoError(t, err)

	// Each page contributes its over-budget warning to the flattened list.
	count := 0
	for _, w := range out.Warnings {
		if w == warnOverBudget {
			count++
		}
	}
	assert.Equal(t, 2, count)
}
