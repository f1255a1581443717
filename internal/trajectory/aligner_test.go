package trajectory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/vio-eval/internal/fsutil"
)

// helixTrack returns a non-planar groundtruth track sampled every 0.1s.
func helixTrack(n int) Track {
	tr := make(Track, n)
	for i := range tr {
		a := float64(i) * 0.3
		tr[i] = Sample{
			Time:     float64(i) * 0.1,
			Position: r3.Vec{X: math.Cos(a), Y: math.Sin(a), Z: 0.05 * float64(i)},
		}
	}
	return tr
}

// writeEstimate writes gt positions divided by scaleDiv as a TUM file.
func writeEstimate(t *testing.T, fsys *fsutil.MemoryFileSystem, path string, gt Track, scaleDiv float64) {
	t.Helper()
	var b strings.Builder
	for _, s := range gt {
		fmt.Fprintf(&b, "%.6f %.9f %.9f %.9f 0 0 0 1\n",
			s.Time+0.001, s.Position.X/scaleDiv, s.Position.Y/scaleDiv, s.Position.Z/scaleDiv)
	}
	require.NoError(t, fsys.WriteFile(path, []byte(b.String()), 0o644))
}

func TestAligner_Align(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	gt := helixTrack(40)
	writeEstimate(t, fsys, "/run/results/seq_0.txt", gt, 2)

	a := NewAligner(fsys)
	res, err := a.Align(context.Background(), Request{
		Groundtruth:  gt,
		EstimatePath: "/run/results/seq_0.txt",
		Scale:        2,
		Tolerance:    0.05,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Estimated)
	require.NotNil(t, res.GroundtruthScale)
	assert.Equal(t, 2.0, res.Estimated.Scale)
	assert.InDelta(t, 0, res.Estimated.RMSE, 1e-6)
	assert.InDelta(t, 2.0, res.GroundtruthScale.Scale, 1e-6)
	assert.InDelta(t, 0, res.GroundtruthScale.RMSE, 1e-6)
	assert.InDelta(t, 0.001, res.MinTime, 1e-9)
	assert.InDelta(t, 3.901, res.MaxTime, 1e-9)
}

func TestAligner_WrongScaleRaisesError(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	gt := helixTrack(40)
	writeEstimate(t, fsys, "/est.txt", gt, 2)

	res, err := NewAligner(fsys).Align(context.Background(), Request{
		Groundtruth: gt, EstimatePath: "/est.txt", Scale: 1, Tolerance: 0.05,
	})
	require.NoError(t, err)
	assert.Greater(t, res.Estimated.RMSE, 0.1)
	assert.InDelta(t, 0, res.GroundtruthScale.RMSE, 1e-6)
}

func TestAligner_UnusableScaleDropsEstimatedOutcome(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	gt := helixTrack(20)
	writeEstimate(t, fsys, "/est.txt", gt, 1)

	for _, scale := range []float64{0, -1, math.Inf(1), math.NaN()} {
		res, err := NewAligner(fsys).Align(context.Background(), Request{
			Groundtruth: gt, EstimatePath: "/est.txt", Scale: scale, Tolerance: 0.05,
		})
		require.NoError(t, err)
		assert.Nil(t, res.Estimated, "scale %v", scale)
		assert.NotNil(t, res.GroundtruthScale)
	}
}

func TestAligner_Failures(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	gt := helixTrack(20)
	require.NoError(t, fsys.WriteFile("/far.txt", []byte("100 0 0 0\n101 1 1 1\n"), 0o644))
	require.NoError(t, fsys.WriteFile("/bad.txt", []byte("not a trajectory\n"), 0o644))

	a := NewAligner(fsys)
	req := Request{Groundtruth: gt, Scale: 1, Tolerance: 0.05, AllowUnassociated: true}

	req.EstimatePath = "/missing.txt"
	_, err := a.Align(context.Background(), req)
	assert.Error(t, err)

	req.EstimatePath = "/bad.txt"
	_, err = a.Align(context.Background(), req)
	assert.Error(t, err)

	req.EstimatePath = "/far.txt"
	_, err = a.Align(context.Background(), req)
	assert.True(t, errors.Is(err, ErrDegenerate))

	req.AllowUnassociated = false
	_, err = a.Align(context.Background(), req)
	var assocErr *AssociationError
	assert.True(t, errors.As(err, &assocErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Align(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}
