package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/vio-eval/internal/dataset"
)

var inf = math.Inf(1)

// column builds a numIter x 1 grid.
func column(vals ...float64) *mat.Dense {
	return mat.NewDense(len(vals), 1, append([]float64(nil), vals...))
}

func TestNewResult_MedianStatistics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		errors      []float64
		scaleErrors []float64
		wantMedian  float64
		wantIndex   int
		wantScale   float64
	}{
		{
			// Sorted [1,2,3,4]: rank 2 is the value 3 at iteration 2.
			name:        "even count picks the worse middle run",
			errors:      []float64{4, 1, 3, 2},
			scaleErrors: []float64{40, 10, 30, 20},
			wantMedian:  2.5,
			wantIndex:   2,
			wantScale:   30,
		},
		{
			name:        "odd count",
			errors:      []float64{inf, 1, 2},
			scaleErrors: []float64{inf, 5, 7},
			wantMedian:  2,
			wantIndex:   2,
			wantScale:   7,
		},
		{
			name:        "infinite upper half",
			errors:      []float64{inf, inf, 1, 2},
			scaleErrors: []float64{1, 2, 3, 4},
			wantMedian:  inf,
			wantIndex:   0,
			wantScale:   1,
		},
		{
			name:        "ties resolve to the earlier iteration",
			errors:      []float64{0.5, 0.5, 0.5},
			scaleErrors: []float64{1, 2, 3},
			wantMedian:  0.5,
			wantIndex:   1,
			wantScale:   2,
		},
		{
			name:        "single iteration",
			errors:      []float64{0.7},
			scaleErrors: []float64{3},
			wantMedian:  0.7,
			wantIndex:   0,
			wantScale:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := len(tt.errors)
			r, err := NewResult("/run", dataset.TumVI, []string{"s"},
				column(tt.errors...), mat.NewDense(n, 1, nil), column(tt.scaleErrors...), mat.NewDense(n, 1, nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantMedian, r.MedianErrors[0])
			assert.Equal(t, tt.wantIndex, r.MedianIndex[0])
			assert.Equal(t, tt.wantScale, r.MedianScaleErrors[0])
			assert.Equal(t, n, r.NumIter())
		})
	}
}

func TestNewResult_DoesNotReorderGrid(t *testing.T) {
	t.Parallel()

	errs := column(4, 1, 3, 2)
	_, err := NewResult("/run", dataset.TumVI, []string{"s"}, errs, column(0, 0, 0, 0), column(0, 0, 0, 0), column(0, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1, 3, 2}, mat.Col(nil, 0, errs))
}

func TestNewResult_ShapeMismatch(t *testing.T) {
	t.Parallel()

	good := mat.NewDense(2, 2, nil)
	names := []string{"a", "b"}

	_, err := NewResult("/run", dataset.TumVI, []string{"a"}, good, good, good, good)
	assert.Error(t, err)

	_, err = NewResult("/run", dataset.TumVI, names, good, mat.NewDense(3, 2, nil), good, good)
	assert.ErrorContains(t, err, "scales")

	_, err = NewResult("/run", dataset.TumVI, names, good, good, good, mat.NewDense(2, 1, nil))
	assert.ErrorContains(t, err, "percentage_done")
}

func TestResult_Normalized(t *testing.T) {
	t.Parallel()

	names := []string{"tumvi_dataset-corridor1_512_16", "tumvi_dataset-corridor4_512_16"}
	errs := mat.NewDense(1, 2, []float64{0.61, inf})
	r, err := NewResult("/run", dataset.TumVI, names, errs, mat.NewDense(1, 2, nil), mat.NewDense(1, 2, nil), mat.NewDense(1, 2, nil))
	require.NoError(t, err)

	n, err := r.Normalized()
	require.NoError(t, err)
	assert.InDelta(t, 0.2, n.Errors.At(0, 0), 1e-12)
	assert.True(t, math.IsInf(n.Errors.At(0, 1), 1))
	assert.InDelta(t, 0.2, n.MedianErrors[0], 1e-12)

	// The original is untouched.
	assert.Equal(t, 0.61, r.Errors.At(0, 0))
	assert.Equal(t, 0.61, r.MedianErrors[0])
}

func TestResult_NormalizedEuroc(t *testing.T) {
	t.Parallel()

	r, err := NewResult("/run", dataset.Euroc, []string{"mav_MH_01_easy"}, column(0.1), column(1), column(0), column(1))
	require.NoError(t, err)
	_, err = r.Normalized()
	assert.Error(t, err)
}

func TestNameResults(t *testing.T) {
	t.Parallel()

	est := &Result{}
	gt := &Result{}
	nameResults(est, gt, "")
	assert.Empty(t, est.Name)
	assert.Empty(t, gt.Name)

	nameResults(est, gt, "dmvio")
	assert.Equal(t, "dmvio", est.Name)
	assert.Equal(t, "gt_scale_dmvio", gt.Name)
}
