package evaluation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/vio-eval/internal/dataset"
)

// GroundtruthScalePrefix is prepended to the display name of the
// groundtruth-scale variant of a result.
const GroundtruthScalePrefix = "gt_scale_"

// Result holds the measurement grids of one run. Rows are iterations,
// columns are sequences.
type Result struct {
	RunFolder     string
	Dataset       dataset.Dataset
	SequenceNames []string

	// Errors is the absolute trajectory error (RMSE) of every run.
	Errors *mat.Dense
	// Scales is the scale used for every run.
	Scales *mat.Dense
	// ScaleErrors is the symmetric scale error in percent.
	ScaleErrors *mat.Dense
	// PercentageDone is the fraction of each sequence covered by the estimate,
	// +Inf where nothing was measured.
	PercentageDone *mat.Dense

	// Name labels the result in tables. Empty when unnamed.
	Name string

	MedianErrors []float64
	// MedianIndex is the iteration whose error ranks at numIter/2. For an
	// even number of iterations this is the worse of the two middle runs.
	MedianIndex []int
	// MedianScaleErrors is the scale error of the MedianIndex run, not a
	// median of scale errors.
	MedianScaleErrors []float64
}

// NewResult builds a Result from its grids and derives the per-sequence
// statistics. All grids must be numIter x len(names).
func NewResult(runFolder string, d dataset.Dataset, names []string, errors, scales, scaleErrors, percentageDone *mat.Dense) (*Result, error) {
	rows, cols := errors.Dims()
	if rows == 0 || cols != len(names) {
		return nil, fmt.Errorf("error grid is %dx%d for %d sequences", rows, cols, len(names))
	}
	for label, g := range map[string]*mat.Dense{"scales": scales, "scale_errors": scaleErrors, "percentage_done": percentageDone} {
		if r, c := g.Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("%s grid is %dx%d, want %dx%d", label, r, c, rows, cols)
		}
	}

	res := &Result{
		RunFolder:         runFolder,
		Dataset:           d,
		SequenceNames:     append([]string(nil), names...),
		Errors:            errors,
		Scales:            scales,
		ScaleErrors:       scaleErrors,
		PercentageDone:    percentageDone,
		MedianErrors:      make([]float64, cols),
		MedianIndex:       make([]int, cols),
		MedianScaleErrors: make([]float64, cols),
	}

	col := make([]float64, rows)
	inds := make([]int, rows)
	for i := 0; i < cols; i++ {
		mat.Col(col, i, errors)
		res.MedianErrors[i] = median(col)

		floats.ArgsortStable(col, inds)
		res.MedianIndex[i] = inds[rows/2]
		res.MedianScaleErrors[i] = scaleErrors.At(res.MedianIndex[i], i)
	}
	return res, nil
}

// median returns the median of xs, averaging the two middle values for an
// even count. xs is not modified.
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	a, b := sorted[n/2-1], sorted[n/2]
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return math.Max(a, b)
	}
	return (a + b) / 2
}

// NumIter returns the number of iterations (grid rows).
func (r *Result) NumIter() int {
	rows, _ := r.Errors.Dims()
	return rows
}

// SetName sets the display name.
func (r *Result) SetName(name string) { r.Name = name }

// Normalized returns a copy whose errors are divided by the trajectory
// length / 100 of each sequence, i.e. drift in percent.
func (r *Result) Normalized() (*Result, error) {
	norm, err := dataset.Normalizer(r.Dataset, r.SequenceNames)
	if err != nil {
		return nil, err
	}

	out := *r
	out.SequenceNames = append([]string(nil), r.SequenceNames...)
	out.MedianIndex = append([]int(nil), r.MedianIndex...)
	out.MedianScaleErrors = append([]float64(nil), r.MedianScaleErrors...)

	rows, cols := r.Errors.Dims()
	errs := mat.NewDense(rows, cols, nil)
	errs.Apply(func(_, j int, v float64) float64 { return v / norm[j] }, r.Errors)
	out.Errors = errs

	out.MedianErrors = append([]float64(nil), r.MedianErrors...)
	floats.Div(out.MedianErrors, norm)
	return &out, nil
}

// nameResults labels an estimated/groundtruth-scale pair. An empty name
// leaves both unchanged.
func nameResults(est, gt *Result, name string) {
	if name == "" {
		return
	}
	est.SetName(name)
	gt.SetName(GroundtruthScalePrefix + name)
}
