package trajectory

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/vio-eval/internal/fsutil"
)

// MinPairs is the minimum number of associated samples needed to align.
const MinPairs = 3

// Request carries the inputs of one estimate-vs-groundtruth alignment.
type Request struct {
	Groundtruth  Track
	EstimatePath string
	// Scale multiplies the estimate positions for the estimated-scale outcome.
	Scale             float64
	Tolerance         float64
	AllowUnassociated bool
}

// Outcome is the error and scale of one alignment variant.
type Outcome struct {
	RMSE  float64
	Scale float64
}

// Alignment holds both alignment variants and the associated time span.
// Estimated is nil when the supplied scale could not be applied.
type Alignment struct {
	Estimated        *Outcome
	GroundtruthScale *Outcome
	MinTime          float64
	MaxTime          float64
}

// Adapter aligns one estimate file against a groundtruth track.
type Adapter interface {
	Align(ctx context.Context, req Request) (Alignment, error)
}

// Aligner is the default Adapter. It reads the estimate through FS, applies
// the supplied scale and rigidly aligns it for the estimated-scale outcome,
// and runs a similarity alignment on the raw estimate for the
// groundtruth-scale outcome.
type Aligner struct {
	FS fsutil.FileSystem
}

// NewAligner creates an Aligner reading from fsys.
func NewAligner(fsys fsutil.FileSystem) *Aligner {
	return &Aligner{FS: fsys}
}

// Align implements Adapter.
func (a *Aligner) Align(ctx context.Context, req Request) (Alignment, error) {
	if err := ctx.Err(); err != nil {
		return Alignment{}, err
	}

	data, err := a.FS.ReadFile(req.EstimatePath)
	if err != nil {
		return Alignment{}, fmt.Errorf("read estimate: %w", err)
	}
	est, err := ReadTrack(bytes.NewReader(data))
	if err != nil {
		return Alignment{}, fmt.Errorf("parse estimate %s: %w", req.EstimatePath, err)
	}

	pairs, err := Associate(req.Groundtruth, est, req.Tolerance, req.AllowUnassociated)
	if err != nil {
		return Alignment{}, err
	}
	if len(pairs) < MinPairs {
		return Alignment{}, fmt.Errorf("only %d associated samples (need %d): %w", len(pairs), MinPairs, ErrDegenerate)
	}

	model := mat.NewDense(3, len(pairs), nil)
	raw := mat.NewDense(3, len(pairs), nil)
	minT, maxT := math.Inf(1), math.Inf(-1)
	for j, p := range pairs {
		g := req.Groundtruth[p.Groundtruth].Position
		e := est[p.Estimate]
		model.SetCol(j, []float64{g.X, g.Y, g.Z})
		raw.SetCol(j, []float64{e.Position.X, e.Position.Y, e.Position.Z})
		minT = math.Min(minT, e.Time)
		maxT = math.Max(maxT, e.Time)
	}

	sim, err := Umeyama(model, raw, true)
	if err != nil {
		return Alignment{}, err
	}
	out := Alignment{
		GroundtruthScale: &Outcome{RMSE: RMSE(model, raw, sim), Scale: sim.Scale},
		MinTime:          minT,
		MaxTime:          maxT,
	}

	if req.Scale > 0 && !math.IsInf(req.Scale, 0) {
		var scaled mat.Dense
		scaled.Scale(req.Scale, raw)
		rigid, err := Umeyama(model, &scaled, false)
		if err == nil {
			out.Estimated = &Outcome{RMSE: RMSE(model, &scaled, rigid), Scale: req.Scale}
		}
	}
	return out, nil
}
