package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/vio-eval/internal/config"
	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/fsutil"
)

func testPair(t *testing.T) (*Result, *Result) {
	t.Helper()
	est, err := NewResult(testRun, dataset.TumVI, testSequences,
		mat.NewDense(2, 2, []float64{0.1, inf, 0.3, 0.4}),
		mat.NewDense(2, 2, []float64{1, 2, 1, 2}),
		mat.NewDense(2, 2, []float64{10, 100, 25, 25}),
		mat.NewDense(2, 2, []float64{1, 0.5, 0.95, 1}))
	require.NoError(t, err)
	gt, err := NewResult(testRun, dataset.TumVI, testSequences,
		mat.NewDense(2, 2, []float64{0.08, inf, 0.2, 0.3}),
		mat.NewDense(2, 2, []float64{1.1, 1, 0.8, 2.5}),
		mat.NewDense(2, 2, nil),
		mat.NewDense(2, 2, []float64{1, 0.5, 0.95, 1}))
	require.NoError(t, err)
	return est, gt
}

// legacySnapshot is a cache file as written before format versions existed:
// "scales" holds the error grid.
const legacySnapshot = `folder_names:
- tumvi_seq_a
- tumvi_seq_b
results:
  errors:
  - [0.1, .inf]
  - [0.3, 0.4]
  scales:
  - [0.1, .inf]
  - [0.3, 0.4]
  scale_errors:
  - [10.0, 100.0]
  - [25.0, 25.0]
  percentage_done:
  - [1.0, 0.5]
  - [0.95, 1.0]
results_gt_scale:
  errors:
  - [0.08, .inf]
  - [0.2, 0.3]
  scales:
  - [0.08, .inf]
  - [0.2, 0.3]
  scale_errors:
  - [0.0, 0.0]
  - [0.0, 0.0]
  percentage_done:
  - [1.0, 0.5]
  - [0.95, 1.0]
`

func TestCache_SaveLoad(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	cache := NewCache(fsys, config.LegacyCacheRecompute)
	est, gt := testPair(t)

	require.NoError(t, cache.Save(testRun, est, gt))
	gotEst, gotGT, ok := cache.TryLoad(testRun, dataset.TumVI, 2, testSequences)
	require.True(t, ok)

	assertGrid(t, "errors", grid(est.Errors), gotEst.Errors)
	assertGrid(t, "scales", grid(est.Scales), gotEst.Scales)
	assertGrid(t, "scale errors", grid(est.ScaleErrors), gotEst.ScaleErrors)
	assertGrid(t, "percentage", grid(est.PercentageDone), gotEst.PercentageDone)
	assertGrid(t, "gt errors", grid(gt.Errors), gotGT.Errors)
	assertGrid(t, "gt scales", grid(gt.Scales), gotGT.Scales)
	assert.Equal(t, testSequences, gotEst.SequenceNames)
	assert.Equal(t, est.MedianIndex, gotEst.MedianIndex)
	assert.Equal(t, testRun, gotGT.RunFolder)
	assert.Equal(t, dataset.TumVI, gotGT.Dataset)
}

func TestCache_FileLayout(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	est, gt := testPair(t)
	require.NoError(t, NewCache(fsys, config.LegacyCacheRecompute).Save(testRun, est, gt))

	data, err := fsys.ReadFile(testRun + "/setup/evaluation_results.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), ".inf")

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, CacheFormatVersion, raw["format_version"])
	for _, key := range []string{"folder_names", "results", "results_gt_scale"} {
		assert.Contains(t, raw, key)
	}
	results := raw["results"].(map[string]any)
	for _, key := range []string{"errors", "scales", "scale_errors", "percentage_done"} {
		assert.Contains(t, results, key)
	}
}

func TestCache_Save_Overwrites(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	cache := NewCache(fsys, config.LegacyCacheRecompute)
	require.NoError(t, fsys.WriteFile(CachePath(testRun), []byte(legacySnapshot), 0o644))

	est, gt := testPair(t)
	require.NoError(t, cache.Save(testRun, est, gt))
	gotEst, _, ok := cache.TryLoad(testRun, dataset.TumVI, 2, testSequences)
	require.True(t, ok)
	assertGrid(t, "scales", [][]float64{{1, 2}, {1, 2}}, gotEst.Scales)
}

func TestCache_LegacyPolicy(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile(CachePath(testRun), []byte(legacySnapshot), 0o644))

	_, _, ok := NewCache(fsys, config.LegacyCacheRecompute).TryLoad(testRun, dataset.TumVI, 2, testSequences)
	assert.False(t, ok)

	est, gt, ok := NewCache(fsys, config.LegacyCacheAccept).TryLoad(testRun, dataset.TumVI, 2, testSequences)
	require.True(t, ok)
	assertGrid(t, "errors", [][]float64{{0.1, inf}, {0.3, 0.4}}, est.Errors)
	// Legacy files carry the error grid as scales.
	assertGrid(t, "scales", [][]float64{{0.1, inf}, {0.3, 0.4}}, est.Scales)
	assertGrid(t, "gt scale errors", [][]float64{{0, 0}, {0, 0}}, gt.ScaleErrors)
}

func TestCache_Misses(t *testing.T) {
	t.Parallel()

	versioned := "format_version: 2\n" + legacySnapshot
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt yaml", "folder_names: [unclosed\n"},
		{"not a mapping", "- 1\n- 2\n"},
		{"missing gt results", strings.Split(versioned, "results_gt_scale:")[0]},
		{"missing grid", strings.Replace(versioned, "  percentage_done:\n  - [1.0, 0.5]\n  - [0.95, 1.0]\nresults_gt_scale:", "results_gt_scale:", 1)},
		{"ragged grid", strings.Replace(versioned, "  - [10.0, 100.0]\n", "  - [10.0]\n", 1)},
		{"row count mismatch", strings.Replace(versioned, "  - [10.0, 100.0]\n  - [25.0, 25.0]\n", "  - [10.0, 100.0]\n", 1)},
		{"nan value", strings.Replace(versioned, "[0.3, 0.4]", "[.nan, 0.4]", 1)},
		{"wrong column count", strings.Replace(versioned, "- tumvi_seq_b\n", "- tumvi_seq_b\n- tumvi_seq_c\n", 1)},
		{"future version", strings.Replace(versioned, "format_version: 2", "format_version: 3", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := fsutil.NewMemoryFileSystem()
			require.NoError(t, fsys.WriteFile(CachePath(testRun), []byte(tt.content), 0o644))
			_, _, ok := NewCache(fsys, config.LegacyCacheAccept).TryLoad(testRun, dataset.TumVI, 2, testSequences)
			assert.False(t, ok)
		})
	}
}

func TestCache_VersionedLegacyContentLoads(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile(CachePath(testRun), []byte("format_version: 2\n"+legacySnapshot), 0o644))
	_, _, ok := NewCache(fsys, config.LegacyCacheRecompute).TryLoad(testRun, dataset.TumVI, 2, testSequences)
	assert.True(t, ok)
}

func TestCache_RequestMismatch(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	cache := NewCache(fsys, config.LegacyCacheRecompute)
	est, gt := testPair(t)
	require.NoError(t, cache.Save(testRun, est, gt))

	tests := []struct {
		name    string
		numIter int
		names   []string
	}{
		{"more iterations", 3, testSequences},
		{"fewer iterations", 1, testSequences},
		{"other sequences", 2, []string{"tumvi_seq_a", "tumvi_seq_c"}},
		{"reordered sequences", 2, []string{"tumvi_seq_b", "tumvi_seq_a"}},
		{"extra sequence", 2, []string{"tumvi_seq_a", "tumvi_seq_b", "tumvi_seq_c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, ok := cache.TryLoad(testRun, dataset.TumVI, tt.numIter, tt.names)
			assert.False(t, ok)
		})
	}
}

func TestCache_NoFile(t *testing.T) {
	t.Parallel()

	_, _, ok := NewCache(fsutil.NewMemoryFileSystem(), config.LegacyCacheAccept).TryLoad(testRun, dataset.TumVI, 2, testSequences)
	assert.False(t, ok)
}
