package preprocessing

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/acqstat/pkg/errors"
)

// rankTol is the relative singular-value threshold below which a direction
// is treated as numerically zero.
const rankTol = 1e-10

// DropZeroVariance removes constant columns from X. A category never
// observed after a split, or a constant predictor, carries no information
// and makes the fit singular. Returns the reduced matrix, the surviving
// names and the dropped names.
func DropZeroVariance(X *mat.Dense, names []string) (*mat.Dense, []string, []string, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, nil, errors.NewModelError("preprocessing.DropZeroVariance", "empty matrix", errors.ErrEmptyData)
	}
	if len(names) != c {
		return nil, nil, nil, errors.NewDimensionError("preprocessing.DropZeroVariance", c, len(names), 1)
	}

	col := make([]float64, r)
	keep := make([]int, 0, c)
	var dropped []string
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		if stat.Variance(col, nil) > 0 {
			keep = append(keep, j)
		} else {
			dropped = append(dropped, names[j])
		}
	}

	if len(keep) == 0 {
		return nil, nil, dropped, errors.NewModelError("preprocessing.DropZeroVariance", "all columns constant", errors.ErrEmptyData)
	}
	if len(keep) == c {
		return X, names, nil, nil
	}

	reduced := mat.NewDense(r, len(keep), nil)
	keptNames := make([]string, len(keep))
	for out, j := range keep {
		mat.Col(col, j, X)
		reduced.SetCol(out, col)
		keptNames[out] = names[j]
	}
	return reduced, keptNames, dropped, nil
}

// MatrixRank computes the numerical rank of X from its singular values.
func MatrixRank(X mat.Matrix) (int, error) {
	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDNone); !ok {
		return 0, errors.NewModelError("preprocessing.MatrixRank", "svd failed to converge", errors.ErrSingularMatrix)
	}
	values := svd.Values(nil)
	if len(values) == 0 {
		return 0, nil
	}
	threshold := values[0] * rankTol
	rank := 0
	for _, v := range values {
		if v > threshold {
			rank++
		}
	}
	return rank, nil
}
