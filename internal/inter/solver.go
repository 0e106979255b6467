package inter

import (
	"math"

	"github.com/deepteams/motion/internal/mv"
)

// pivotEpsilon is the smallest pivot magnitude the elimination accepts.
const pivotEpsilon = 1e-10

// Products below are wrapped in explicit float64 conversions so the compiler
// cannot fuse them into multiply-adds; the affine result must not depend on
// the platform.

// solveAffine fits an update of the affine parameters to the prediction
// error by linear least squares. errs holds original minus prediction, gx
// and gy the Sobel gradients of the prediction (eight times the per-sample
// derivative), all w×h with stride w. The update is returned as control
// point deltas in quarter samples; a singular system yields zero deltas.
//
// With sample position (j, k) the 4-parameter model is linearised as
//
//	c = [gx, j·gx + k·gy, gy, k·gx − j·gy]
//
// and the 6-parameter model as
//
//	c = [gx, j·gx, gy, j·gy, k·gx, k·gy]
//
// and the normal equations Σ c·cᵀ δ = Σ c·8·err are solved for δ.
func solveAffine(errs, gx, gy []int32, w, h int, t mv.AffineType) [3]mv.MV {
	n := 4
	if t == mv.Affine6 {
		n = 6
	}
	var a [6][7]float64
	var c [6]float64
	for k := 0; k < h; k++ {
		fk := float64(k)
		for j := 0; j < w; j++ {
			i := k*w + j
			fj := float64(j)
			x, y := float64(gx[i]), float64(gy[i])
			if n == 6 {
				c = [6]float64{x, fj * x, y, fj * y, fk * x, fk * y}
			} else {
				c = [6]float64{x, float64(fj*x) + float64(fk*y), y, float64(fk*x) - float64(fj*y)}
			}
			e := 8 * float64(errs[i])
			for r := 0; r < n; r++ {
				for col := 0; col < n; col++ {
					a[r][col] += float64(c[r] * c[col])
				}
				a[r][n] += float64(c[r] * e)
			}
		}
	}
	d, ok := gaussSolve(&a, n)
	if !ok {
		return [3]mv.MV{}
	}

	fw, fh := float64(w), float64(h)
	var out [3]mv.MV
	out[0] = quarterMV(d[0], d[2])
	if n == 6 {
		out[1] = quarterMV(float64(d[1]*fw)+d[0], float64(d[3]*fw)+d[2])
		out[2] = quarterMV(float64(d[4]*fh)+d[0], float64(d[5]*fh)+d[2])
	} else {
		out[1] = quarterMV(float64(d[1]*fw)+d[0], float64(-d[3]*fw)+d[2])
	}
	return out
}

// quarterMV converts a sample-unit displacement to quarter samples, rounding
// half away from zero.
func quarterMV(x, y float64) mv.MV {
	return mv.MV{X: int(math.Round(x * 4)), Y: int(math.Round(y * 4))}.Clip()
}

// gaussSolve solves the n×n system held in the first n columns of a with the
// right-hand side in column n, using Gaussian elimination with partial
// pivoting. It reports false when a pivot vanishes or the solution is not
// finite.
func gaussSolve(a *[6][7]float64, n int) ([6]float64, bool) {
	var x [6]float64
	for k := 0; k < n; k++ {
		p := k
		for i := k + 1; i < n; i++ {
			if math.Abs(a[i][k]) > math.Abs(a[p][k]) {
				p = i
			}
		}
		if math.Abs(a[p][k]) < pivotEpsilon {
			return x, false
		}
		a[k], a[p] = a[p], a[k]
		for i := k + 1; i < n; i++ {
			f := a[i][k] / a[k][k]
			for j := k; j <= n; j++ {
				a[i][j] -= float64(f * a[k][j])
			}
		}
	}
	for i := n - 1; i >= 0; i-- {
		s := a[i][n]
		for j := i + 1; j < n; j++ {
			s -= float64(a[i][j] * x[j])
		}
		x[i] = s / a[i][i]
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
			return [6]float64{}, false
		}
	}
	return x, true
}
