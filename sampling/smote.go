package sampling

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
)

const defaultNeighbors = 5

// SMOTENC oversamples the minority class of a mixed categorical/continuous
// design matrix until both classes have equal counts.
//
// Continuous features of a synthetic sample are interpolated between a
// minority sample and one of its k nearest minority neighbors; categorical
// features (indicator columns) take the majority vote among those
// neighbors. The distance metric standardizes continuous features and
// charges the median continuous standard deviation for each categorical
// mismatch, following Chawla's SMOTE-NC formulation.
type SMOTENC struct {
	catMask   []bool
	neighbors int
	seed      int64
	logger    log.Logger
}

// SMOTENCOption is a functional option for SMOTENC.
type SMOTENCOption func(*SMOTENC)

// WithNeighbors sets the neighbor count k (default 5). The effective k is
// capped at the number of other minority samples.
func WithNeighbors(k int) SMOTENCOption {
	return func(s *SMOTENC) {
		s.neighbors = k
	}
}

// WithSeed fixes the random source for reproducible synthesis.
func WithSeed(seed int64) SMOTENCOption {
	return func(s *SMOTENC) {
		s.seed = seed
	}
}

// NewSMOTENC creates a SMOTE-NC resampler. catMask marks which design
// matrix columns are categorical indicators; all other columns are treated
// as continuous.
func NewSMOTENC(catMask []bool, opts ...SMOTENCOption) *SMOTENC {
	s := &SMOTENC{
		catMask:   catMask,
		neighbors: defaultNeighbors,
		seed:      time.Now().UnixNano(),
	}
	s.logger = log.GetLoggerWithName("sampling").With(
		log.ModelNameKey, "SMOTENC",
	)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resample returns X and y extended with synthetic minority samples until
// the class counts are equal. The input rows are copied, never mutated;
// synthetic rows are appended after them.
func (s *SMOTENC) Resample(X *mat.Dense, y []float64) (_ *mat.Dense, _ []float64, err error) {
	defer errors.Recover(&err, "SMOTENC.Resample")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError("SMOTENC.Resample", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, nil, errors.NewDimensionError("SMOTENC.Resample", r, len(y), 0)
	}
	if len(s.catMask) != c {
		return nil, nil, errors.NewDimensionError("SMOTENC.Resample", c, len(s.catMask), 1)
	}

	var minority, majority []int
	for i, label := range y {
		switch label {
		case 1:
			minority = append(minority, i)
		case 0:
			majority = append(majority, i)
		default:
			return nil, nil, errors.NewValidationError("y", "labels must be binary (0 or 1)", label)
		}
	}
	minorityLabel := 1.0
	if len(minority) > len(majority) {
		minority, majority = majority, minority
		minorityLabel = 0.0
	}

	need := len(majority) - len(minority)
	if need == 0 {
		return mat.DenseCopyOf(X), append([]float64(nil), y...), nil
	}
	if len(minority) < 2 {
		return nil, nil, errors.NewModelError("SMOTENC.Resample",
			"minority class too small for neighbor search", errors.ErrEmptyData)
	}

	k := s.neighbors
	if k > len(minority)-1 {
		k = len(minority) - 1
	}

	scale, catPenalty := s.distanceScale(X, minority)
	neighborLists := s.nearestNeighbors(X, minority, scale, catPenalty, k)

	rng := rand.New(rand.NewSource(s.seed))
	out := mat.NewDense(r+need, c, nil)
	outY := make([]float64, r+need)
	for i := 0; i < r; i++ {
		out.SetRow(i, mat.Row(nil, i, X))
		outY[i] = y[i]
	}

	row := make([]float64, c)
	for t := 0; t < need; t++ {
		base := t % len(minority)
		neighbors := neighborLists[base]
		chosen := neighbors[rng.Intn(len(neighbors))]
		gap := rng.Float64()

		for j := 0; j < c; j++ {
			baseVal := X.At(minority[base], j)
			if s.catMask[j] {
				row[j] = s.majorityVote(X, neighbors, j, baseVal)
			} else {
				row[j] = baseVal + gap*(X.At(chosen, j)-baseVal)
			}
		}
		out.SetRow(r+t, row)
		outY[r+t] = minorityLabel
	}

	s.logger.Info("Resample completed",
		log.OperationKey, log.OperationResample,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		"synthesized", need,
	)
	return out, outY, nil
}

// distanceScale computes per-column standard deviations over the minority
// samples and the categorical mismatch penalty (median continuous std).
func (s *SMOTENC) distanceScale(X *mat.Dense, minority []int) ([]float64, float64) {
	_, c := X.Dims()
	scale := make([]float64, c)
	col := make([]float64, len(minority))

	var stds []float64
	for j := 0; j < c; j++ {
		if s.catMask[j] {
			continue
		}
		for i, idx := range minority {
			col[i] = X.At(idx, j)
		}
		sd := stat.StdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		scale[j] = sd
		stds = append(stds, sd)
	}

	penalty := 1.0
	if len(stds) > 0 {
		sort.Float64s(stds)
		penalty = stds[len(stds)/2]
	}
	return scale, penalty
}

// nearestNeighbors returns, for each minority sample, the indices (into X)
// of its k nearest minority neighbors under the SMOTE-NC metric.
func (s *SMOTENC) nearestNeighbors(X *mat.Dense, minority []int, scale []float64, catPenalty float64, k int) [][]int {
	_, c := X.Dims()
	lists := make([][]int, len(minority))

	type candidate struct {
		idx  int
		dist float64
	}
	for a, ia := range minority {
		candidates := make([]candidate, 0, len(minority)-1)
		for b, ib := range minority {
			if a == b {
				continue
			}
			d := 0.0
			for j := 0; j < c; j++ {
				if s.catMask[j] {
					if X.At(ia, j) != X.At(ib, j) {
						d += catPenalty * catPenalty
					}
				} else {
					diff := (X.At(ia, j) - X.At(ib, j)) / scale[j]
					d += diff * diff
				}
			}
			candidates = append(candidates, candidate{idx: ib, dist: d})
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].dist != candidates[j].dist {
				return candidates[i].dist < candidates[j].dist
			}
			return candidates[i].idx < candidates[j].idx
		})
		list := make([]int, k)
		for i := 0; i < k; i++ {
			list[i] = candidates[i].idx
		}
		lists[a] = list
	}
	return lists
}

// majorityVote returns the most common value of column j among the
// neighbors, breaking ties toward baseVal.
func (s *SMOTENC) majorityVote(X *mat.Dense, neighbors []int, j int, baseVal float64) float64 {
	counts := make(map[float64]int, 2)
	for _, idx := range neighbors {
		counts[X.At(idx, j)]++
	}
	best := baseVal
	bestCount := counts[baseVal]
	for val, count := range counts {
		if count > bestCount {
			best = val
			bestCount = count
		}
	}
	return best
}
