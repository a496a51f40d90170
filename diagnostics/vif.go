// Package diagnostics computes multicollinearity diagnostics for a design
// matrix.
//
// The variance inflation factor of a predictor is 1/(1−R²) of the ordinary
// least squares regression of that column on all other columns. The
// diagnostic is informational: it feeds the report, never the fitting
// logic, and must be computed before any synthetic rebalancing since
// oversampling inflates apparent correlation.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/acqstat/pkg/errors"
)

// InfiniteVIF is the value reported when a column is an exact linear
// combination of the others (R² numerically 1).
var InfiniteVIF = math.Inf(1)

// Result is the VIF of one predictor column.
type Result struct {
	Feature  string
	RSquared float64
	VIF      float64
}

// VIF computes the variance inflation factor of every column of X. names
// must have one entry per column; results follow column order.
func VIF(X *mat.Dense, names []string) (_ []Result, err error) {
	defer errors.Recover(&err, "diagnostics.VIF")

	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError("diagnostics.VIF", "empty matrix", errors.ErrEmptyData)
	}
	if len(names) != p {
		return nil, errors.NewDimensionError("diagnostics.VIF", p, len(names), 1)
	}
	if p < 2 {
		return nil, errors.NewValueError("diagnostics.VIF", "need at least two predictors")
	}
	if n <= p {
		return nil, errors.NewModelError("diagnostics.VIF", "more predictors than samples", errors.ErrSingularMatrix)
	}

	results := make([]Result, p)
	target := mat.NewVecDense(n, nil)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		// Auxiliary design: intercept plus every column except j.
		aux := mat.NewDense(n, p, nil)
		for i := 0; i < n; i++ {
			aux.Set(i, 0, 1.0)
		}
		out := 1
		for k := 0; k < p; k++ {
			if k == j {
				continue
			}
			mat.Col(col, k, X)
			aux.SetCol(out, col)
			out++
		}
		mat.Col(col, j, X)
		for i := 0; i < n; i++ {
			target.SetVec(i, col[i])
		}

		r2, err := rSquared(aux, target)
		if err != nil {
			return nil, err
		}
		vif := InfiniteVIF
		if 1-r2 > 1e-12 {
			vif = 1 / (1 - r2)
		}
		results[j] = Result{Feature: names[j], RSquared: r2, VIF: vif}
	}
	return results, nil
}

// rSquared fits y on aux by least squares and returns the coefficient of
// determination.
func rSquared(aux *mat.Dense, y *mat.VecDense) (float64, error) {
	n, k := aux.Dims()

	var qr mat.QR
	qr.Factorize(aux)
	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		// A singular auxiliary regression means the remaining columns are
		// themselves collinear; treat the fit as exact.
		return 1, nil
	}

	var fitted mat.VecDense
	fitted.MulVec(aux, beta)

	yMean := 0.0
	for i := 0; i < n; i++ {
		yMean += y.AtVec(i)
	}
	yMean /= float64(n)

	tss, rss := 0.0, 0.0
	for i := 0; i < n; i++ {
		d := y.AtVec(i) - yMean
		tss += d * d
		r := y.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	if tss == 0 {
		// Constant column; OLS reproduces it exactly via the intercept.
		return 1, nil
	}
	r2 := 1 - rss/tss
	if r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}
	return r2, nil
}
