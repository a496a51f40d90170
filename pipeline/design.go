package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/acqstat/features"
	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/preprocessing"
)

// Design is an encoded design matrix for one model variant.
type Design struct {
	X *mat.Dense
	Y []float64

	// Names has one entry per column of X.
	Names []string

	// CatMask marks which columns are categorical indicators.
	CatMask []bool

	// Baselines maps each categorical variable to its dropped reference
	// category.
	Baselines map[string]string

	// DroppedZeroVar lists columns removed for having zero variance.
	DroppedZeroVar []string

	// Rank is the numerical rank of [1 | X]; RankDeficient is set when it
	// falls short of the full parameter count.
	Rank          int
	RankDeficient bool
}

// BuildDesign encodes the formula's predictors over the engineered records:
// categorical variables become reference-dropped indicator blocks, followed
// by the continuous columns, with zero-variance columns removed and the
// rank of the final matrix checked.
func BuildDesign(recs []features.Engineered, f Formula) (*Design, error) {
	if len(recs) == 0 {
		return nil, errors.NewModelError("pipeline.BuildDesign", "no records", errors.ErrEmptyData)
	}

	n := len(recs)
	y := make([]float64, n)
	for i := range recs {
		y[i] = float64(recs[i].Acquired)
	}

	var (
		encoded   *mat.Dense
		catNames  []string
		baselines map[string]string
	)
	if len(f.Categorical) > 0 {
		catData := make([][]string, n)
		for i := range recs {
			row := make([]string, len(f.Categorical))
			for j, name := range f.Categorical {
				v, err := categoricalValue(&recs[i], name)
				if err != nil {
					return nil, err
				}
				row[j] = v
			}
			catData[i] = row
		}

		encoder := preprocessing.NewDummyEncoder()
		var err error
		encoded, err = encoder.FitTransform(catData)
		if err != nil {
			return nil, err
		}
		catNames = encoder.FeatureNamesOut(f.Categorical)

		baselines = make(map[string]string, len(f.Categorical))
		for j, dropped := range encoder.Baselines() {
			baselines[f.Categorical[j]] = dropped
		}
	}

	x, names, err := assemble(encoded, catNames, recs, f)
	if err != nil {
		return nil, err
	}

	isCat := make(map[string]bool, len(catNames))
	for _, name := range catNames {
		isCat[name] = true
	}

	reduced, keptNames, droppedZeroVar, err := preprocessing.DropZeroVariance(x, names)
	if err != nil {
		return nil, err
	}

	catMask := make([]bool, len(keptNames))
	for j, name := range keptNames {
		catMask[j] = isCat[name]
	}

	rank, err := interceptRank(reduced)
	if err != nil {
		return nil, err
	}
	_, p := reduced.Dims()

	return &Design{
		X:              reduced,
		Y:              y,
		Names:          keptNames,
		CatMask:        catMask,
		Baselines:      baselines,
		DroppedZeroVar: droppedZeroVar,
		Rank:           rank,
		RankDeficient:  rank < p+1,
	}, nil
}

// assemble appends the continuous columns after the encoded categorical
// block.
func assemble(encoded *mat.Dense, catNames []string, recs []features.Engineered, f Formula) (*mat.Dense, []string, error) {
	n := len(recs)
	nCat := 0
	if encoded != nil {
		_, nCat = encoded.Dims()
	}

	x := mat.NewDense(n, nCat+len(f.Continuous), nil)
	col := make([]float64, n)
	for j := 0; j < nCat; j++ {
		mat.Col(col, j, encoded)
		x.SetCol(j, col)
	}

	names := append([]string(nil), catNames...)
	for j, name := range f.Continuous {
		for i := range recs {
			v, err := continuousValue(&recs[i], name)
			if err != nil {
				return nil, nil, err
			}
			col[i] = v
		}
		x.SetCol(nCat+j, col)
		names = append(names, name)
	}
	return x, names, nil
}

// interceptRank returns the numerical rank of [1 | X].
func interceptRank(x *mat.Dense) (int, error) {
	n, p := x.Dims()
	withIntercept := mat.NewDense(n, p+1, nil)
	col := make([]float64, n)
	for i := 0; i < n; i++ {
		withIntercept.Set(i, 0, 1.0)
	}
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		withIntercept.SetCol(j+1, col)
	}
	return preprocessing.MatrixRank(withIntercept)
}
