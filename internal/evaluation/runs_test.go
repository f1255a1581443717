package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/fsutil"
)

func TestLoadRunDescriptors(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	files := map[string]string{
		"/results/run_a/setup/setup.yaml":   "dataset: tumvi\nnum_iter: 3\n",
		"/results/run_a/setup/Finished.txt": "",
		"/results/run_b/setup/setup.yaml":   "dataset: 4seasonsCR\nnum_iter: 1\ntemporary: true\n",
		"/results/run_c/setup/setup.yaml":   "dataset: euroc\nnum_iter: 2\n",
		"/results/run_d/setup/setup.yaml":   "dataset: [unclosed\n",
		"/results/stray/notes.txt":          "not a run",
	}
	for path, content := range files {
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0o644))
	}

	runs, err := LoadRunDescriptors(fsys, "/results")
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, "/results/run_a", runs[0].Folder)
	assert.True(t, runs[0].Finished)
	assert.Equal(t, "tumvi", runs[0].Setup["dataset"])
	assert.False(t, runs[1].Finished)
	assert.True(t, runs[1].Temporary())
	assert.Equal(t, "/results/run_c", runs[2].Folder)

	var kept []string
	for _, rd := range runs {
		if FinishedOrTemporary(rd) {
			kept = append(kept, rd.Folder)
		}
	}
	assert.Equal(t, []string{"/results/run_a", "/results/run_b"}, kept)
}

func TestLoadRunDescriptors_MissingFolder(t *testing.T) {
	t.Parallel()

	_, err := LoadRunDescriptors(fsutil.NewMemoryFileSystem(), "/nope")
	assert.Error(t, err)
}

func TestRunDescriptor_Fields(t *testing.T) {
	t.Parallel()

	rd := RunDescriptor{Setup: map[string]any{"dataset": "4seasonsCR", "num_iter": 5}}
	d, err := rd.Dataset()
	require.NoError(t, err)
	assert.Equal(t, dataset.FourSeasons, d)
	n, err := rd.NumIter()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	for _, v := range []any{3.0, int64(3), uint64(3)} {
		n, err := RunDescriptor{Setup: map[string]any{"num_iter": v}}.NumIter()
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
	for _, v := range []any{nil, 2.5, "three"} {
		_, err := RunDescriptor{Setup: map[string]any{"num_iter": v}}.NumIter()
		assert.Error(t, err, "%v", v)
	}

	_, err = RunDescriptor{Setup: map[string]any{}}.Dataset()
	assert.ErrorIs(t, err, dataset.ErrUnknownDataset)
	assert.False(t, RunDescriptor{Setup: map[string]any{"temporary": "yes"}}.Temporary())
}

func TestEvaluateWithConfig(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	writeRun(t, fsys, 2, 1.0)
	adapter := newFakeAdapter()
	twoByTwo(adapter)
	ev := newTestEvaluator(fsys, adapter, 0.9, nil)

	est, gt, err := ev.EvaluateWithConfig(context.Background(), RunDescriptor{
		Folder: testRun,
		Setup:  map[string]any{"dataset": "TUMVI-512", "num_iter": 2},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, dataset.TumVI, est.Dataset)
	assert.Equal(t, 2, gt.NumIter())
	assert.Empty(t, est.Name)
}

func TestEvaluateWithConfig_UnknownDataset(t *testing.T) {
	t.Parallel()

	adapter := newFakeAdapter()
	ev := newTestEvaluator(fsutil.NewMemoryFileSystem(), adapter, 0.9, nil)

	_, _, err := ev.EvaluateWithConfig(context.Background(), RunDescriptor{
		Folder: testRun,
		Setup:  map[string]any{"dataset": "kitti", "num_iter": 2},
	}, false)
	assert.ErrorIs(t, err, dataset.ErrUnknownDataset)
	assert.Zero(t, adapter.calls())
}

func TestEvaluateAll(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	writeRun(t, fsys, 2, 1.0)
	adapter := newFakeAdapter()
	twoByTwo(adapter)
	ev := newTestEvaluator(fsys, adapter, 0.9, nil)

	runs := []RunDescriptor{
		{Folder: "/runs/other", Setup: map[string]any{"dataset": "kitti", "num_iter": 1}},
		{Folder: testRun, Setup: map[string]any{"dataset": "tumvi", "num_iter": 2}},
		{Folder: "/runs/noiter", Setup: map[string]any{"dataset": "euroc"}},
	}
	out, err := ev.EvaluateAll(context.Background(), runs, false)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.ErrorIs(t, out[0].Err, dataset.ErrUnknownDataset)
	assert.Nil(t, out[0].Estimated)

	require.NoError(t, out[1].Err)
	assert.Equal(t, testRun, out[1].Run.Folder)
	assertGrid(t, "errors", [][]float64{{0.1, inf}, {0.3, 0.4}}, out[1].Estimated.Errors)
	assert.NotNil(t, out[1].GroundtruthScale)

	assert.Error(t, out[2].Err)
}

func TestEvaluateAll_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := newTestEvaluator(fsutil.NewMemoryFileSystem(), newFakeAdapter(), 0.9, nil)
	_, err := ev.EvaluateAll(ctx, []RunDescriptor{{Folder: testRun}}, false)
	assert.ErrorIs(t, err, context.Canceled)
}
