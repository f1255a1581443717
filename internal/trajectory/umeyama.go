package trajectory

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is returned when the point sets do not constrain an alignment.
var ErrDegenerate = errors.New("degenerate point configuration")

// Similarity is the transform p' = Scale * Rotation * p + Translation.
type Similarity struct {
	Rotation    *mat.Dense // 3x3
	Translation r3.Vec
	Scale       float64
}

// Apply transforms a single point.
func (s Similarity) Apply(p r3.Vec) r3.Vec {
	v := mat.NewVecDense(3, []float64{p.X, p.Y, p.Z})
	var rv mat.VecDense
	rv.MulVec(s.Rotation, v)
	return r3.Vec{
		X: s.Scale*rv.AtVec(0) + s.Translation.X,
		Y: s.Scale*rv.AtVec(1) + s.Translation.Y,
		Z: s.Scale*rv.AtVec(2) + s.Translation.Z,
	}
}

// Umeyama computes the least-squares transform mapping data onto model.
// Both matrices are 3xN with corresponding columns. With withScale false the
// scale is fixed to 1 (rigid alignment).
func Umeyama(model, data *mat.Dense, withScale bool) (Similarity, error) {
	rows, n := model.Dims()
	dr, dn := data.Dims()
	if rows != 3 || dr != 3 || n != dn {
		return Similarity{}, fmt.Errorf("umeyama: want matching 3xN inputs, got %dx%d and %dx%d", rows, n, dr, dn)
	}
	if n < 3 {
		return Similarity{}, fmt.Errorf("umeyama: %d correspondences: %w", n, ErrDegenerate)
	}

	muM := rowMeans(model)
	muD := rowMeans(data)
	mc := centered(model, muM)
	dc := centered(data, muD)

	// Cross-covariance model * data^T / n.
	var sigma mat.Dense
	sigma.Mul(mc, dc.T())
	sigma.Scale(1/float64(n), &sigma)

	var svd mat.SVD
	if ok := svd.Factorize(&sigma, mat.SVDFull); !ok {
		return Similarity{}, fmt.Errorf("umeyama: svd failed: %w", ErrDegenerate)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	d := svd.Values(nil)

	// Reflection guard.
	sdiag := []float64{1, 1, 1}
	if mat.Det(&u)*mat.Det(&v) < 0 {
		sdiag[2] = -1
	}

	var us mat.Dense
	us.Mul(&u, mat.NewDiagDense(3, sdiag))
	var rot mat.Dense
	rot.Mul(&us, v.T())

	scale := 1.0
	if withScale {
		var varD float64
		for _, x := range dc.RawMatrix().Data {
			varD += x * x
		}
		varD /= float64(n)
		if varD == 0 {
			return Similarity{}, fmt.Errorf("umeyama: zero data variance: %w", ErrDegenerate)
		}
		var trace float64
		for i := range d {
			trace += d[i] * sdiag[i]
		}
		scale = trace / varD
		if !(scale > 0) || math.IsInf(scale, 0) {
			return Similarity{}, fmt.Errorf("umeyama: scale %v: %w", scale, ErrDegenerate)
		}
	}

	muDv := mat.NewVecDense(3, muD)
	var rmu mat.VecDense
	rmu.MulVec(&rot, muDv)

	return Similarity{
		Rotation: &rot,
		Translation: r3.Vec{
			X: muM[0] - scale*rmu.AtVec(0),
			Y: muM[1] - scale*rmu.AtVec(1),
			Z: muM[2] - scale*rmu.AtVec(2),
		},
		Scale: scale,
	}, nil
}

// RMSE is the root mean squared distance between model columns and the
// transformed data columns.
func RMSE(model, data *mat.Dense, s Similarity) float64 {
	_, n := model.Dims()
	if n == 0 {
		return math.Inf(1)
	}
	var sum float64
	for j := 0; j < n; j++ {
		p := s.Apply(r3.Vec{X: data.At(0, j), Y: data.At(1, j), Z: data.At(2, j)})
		m := r3.Vec{X: model.At(0, j), Y: model.At(1, j), Z: model.At(2, j)}
		sum += r3.Norm2(r3.Sub(m, p))
	}
	return math.Sqrt(sum / float64(n))
}

func rowMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = mat.Sum(m.RowView(i)) / float64(c)
	}
	return out
}

func centered(m *mat.Dense, mu []float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, _ int, v float64) float64 { return v - mu[i] }, m)
	return out
}
