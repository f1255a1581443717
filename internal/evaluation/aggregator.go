package evaluation

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/monitoring"
	"github.com/banshee-data/vio-eval/internal/trajectory"
)

// aggregator fills the measurement grids of one run.
type aggregator struct {
	fs            fsutil.FileSystem
	adapter       trajectory.Adapter
	scaleFileName string
	tolerance     float64
	workers       int
}

// cellValues is the measurement of one (iteration, sequence) cell.
type cellValues struct {
	measured       bool
	estimated      *trajectory.Outcome
	groundtruth    trajectory.Outcome
	percentageDone float64
}

// EstimatePath returns the estimated trajectory of one iteration of a
// sequence: {run}/results/{sequence}_{iter}.txt.
func EstimatePath(runFolder, sequence string, iter int) string {
	return filepath.Join(runFolder, "results", sequence+"_"+strconv.Itoa(iter)+".txt")
}

// ScaleLogPath returns the scale log of one iteration of a sequence.
func ScaleLogPath(runFolder, sequence string, iter int, fileName string) string {
	return filepath.Join(runFolder, sequence+"_"+strconv.Itoa(iter), fileName)
}

// aggregate measures every cell and returns the estimated-scale and
// groundtruth-scale results. Per-cell problems are logged and leave the cell
// at its sentinel; only context cancellation aborts.
func (a *aggregator) aggregate(ctx context.Context, runFolder string, d dataset.Dataset, seqs []dataset.Sequence, threshold float64, numIter int) (*Result, *Result, error) {
	nSeq := len(seqs)
	cells := make([]cellValues, numIter*nSeq)
	allowUnassociated := d.Definition().AllowUnassociated

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.workers, 1))
schedule:
	for i := range seqs {
		for k := 0; k < numIter; k++ {
			if gctx.Err() != nil {
				break schedule
			}
			g.Go(func() error {
				v, err := a.measure(gctx, runFolder, &seqs[i], k, threshold, allowUnassociated)
				if err != nil {
					return err
				}
				cells[k*nSeq+i] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	inf := func() *mat.Dense { return filled(numIter, nSeq, math.Inf(1)) }
	errs, scales, scaleErrs, pct := inf(), inf(), inf(), inf()
	gtErrs, gtScales := inf(), inf()

	for k := 0; k < numIter; k++ {
		for i := 0; i < nSeq; i++ {
			v := cells[k*nSeq+i]
			if !v.measured {
				continue
			}
			pct.Set(k, i, v.percentageDone)
			gtErrs.Set(k, i, v.groundtruth.RMSE)
			gtScales.Set(k, i, v.groundtruth.Scale)
			if v.estimated != nil {
				errs.Set(k, i, v.estimated.RMSE)
				scales.Set(k, i, v.estimated.Scale)
				scaleErrs.Set(k, i, ScaleError(v.estimated.Scale, v.groundtruth.Scale))
			}
		}
	}

	names := make([]string, nSeq)
	for i, s := range seqs {
		names[i] = s.Name
	}
	est, err := NewResult(runFolder, d, names, errs, scales, scaleErrs, pct)
	if err != nil {
		return nil, nil, err
	}
	// The groundtruth-scale variant has no scale error by construction.
	gt, err := NewResult(runFolder, d, names, gtErrs, gtScales, mat.NewDense(numIter, nSeq, nil), mat.DenseCopyOf(pct))
	if err != nil {
		return nil, nil, err
	}
	return est, gt, nil
}

// measure evaluates a single cell. The returned error is non-nil only when
// ctx is done.
func (a *aggregator) measure(ctx context.Context, runFolder string, seq *dataset.Sequence, iter int, threshold float64, allowUnassociated bool) (cellValues, error) {
	estPath := EstimatePath(runFolder, seq.Name, iter)
	if !a.fs.Exists(estPath) {
		monitoring.Warnf("skipping because does not exist: %s", estPath)
		return cellValues{}, nil
	}

	scale := 1.0
	scalePath := ScaleLogPath(runFolder, seq.Name, iter, a.scaleFileName)
	s, err := ReadScale(a.fs, scalePath)
	switch {
	case err == nil:
		scale = s
	case errors.Is(err, fs.ErrNotExist):
		monitoring.Warnf("no scale file %s, assuming scale of 1", scalePath)
	default:
		monitoring.Warnf("could not get scale for result %s, skipping: %v", estPath, err)
		return cellValues{}, nil
	}

	al, err := a.adapter.Align(ctx, trajectory.Request{
		Groundtruth:       seq.Track,
		EstimatePath:      estPath,
		Scale:             scale,
		Tolerance:         a.tolerance,
		AllowUnassociated: allowUnassociated,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return cellValues{}, ctxErr
		}
		monitoring.Warnf("alignment failed for %s, skipping: %v", estPath, err)
		return cellValues{}, nil
	}
	if al.GroundtruthScale == nil {
		monitoring.Warnf("alignment of %s produced no groundtruth-scale outcome, skipping", estPath)
		return cellValues{}, nil
	}

	v := cellValues{measured: true, groundtruth: *al.GroundtruthScale}
	if al.Estimated != nil {
		est := *al.Estimated
		v.estimated = &est
	}
	if seq.Duration > 0 {
		v.percentageDone = (al.MaxTime - al.MinTime) / seq.Duration
	}

	// An incomplete trajectory never counts as a success.
	if v.percentageDone < threshold {
		v.groundtruth.RMSE = math.Inf(1)
		if v.estimated != nil {
			v.estimated.RMSE = math.Inf(1)
		}
	}
	return v, nil
}

func filled(rows, cols int, v float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(rows, cols, data)
}
