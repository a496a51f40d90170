// Package sampling provides train/evaluation partitioning and synthetic
// minority oversampling for the model variants.
//
// The split is stratified on the binary label so both partitions preserve
// the full-set class proportion; oversampling (SMOTE-NC) is only ever
// applied to the training partition, leaving the evaluation partition with
// the original class distribution.
package sampling

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
)

// Split holds the partitioned design matrix and labels.
type Split struct {
	XTrain *mat.Dense
	YTrain []float64
	XTest  *mat.Dense
	YTest  []float64
}

// StratifiedSplit partitions X and y into train and test sets, sampling
// testFrac of each class separately so the class proportion is preserved
// in both partitions. The same seed always yields the same partition.
func StratifiedSplit(X *mat.Dense, y []float64, testFrac float64, seed int64) (*Split, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("sampling.StratifiedSplit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != r {
		return nil, errors.NewDimensionError("sampling.StratifiedSplit", r, len(y), 0)
	}
	if testFrac <= 0 || testFrac >= 1 {
		return nil, errors.NewValueError("sampling.StratifiedSplit", "test fraction must be in (0, 1)")
	}

	byClass := make(map[float64][]int)
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, errors.NewValidationError("y", "labels must be binary (0 or 1)", label)
		}
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	var trainIdx, testIdx []int
	for _, label := range []float64{0, 1} {
		idx := byClass[label]
		if len(idx) == 0 {
			continue
		}
		shuffled := make([]int, len(idx))
		copy(shuffled, idx)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		nTest := int(math.Round(testFrac * float64(len(shuffled))))
		// Keep at least one sample of each class on both sides when the
		// class has enough members.
		if nTest == 0 && len(shuffled) > 1 {
			nTest = 1
		}
		if nTest == len(shuffled) && len(shuffled) > 1 {
			nTest = len(shuffled) - 1
		}
		testIdx = append(testIdx, shuffled[:nTest]...)
		trainIdx = append(trainIdx, shuffled[nTest:]...)
	}

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, errors.NewModelError("sampling.StratifiedSplit", "a partition came out empty", errors.ErrEmptyData)
	}

	split := &Split{
		XTrain: takeRows(X, trainIdx),
		YTrain: takeLabels(y, trainIdx),
		XTest:  takeRows(X, testIdx),
		YTest:  takeLabels(y, testIdx),
	}

	log.GetLoggerWithName("sampling").Info("Split completed",
		log.OperationKey, log.OperationSplit,
		log.PhaseKey, log.PhaseData,
		log.SamplesKey, r,
		"train", len(trainIdx),
		"test", len(testIdx),
	)
	return split, nil
}

func takeRows(X *mat.Dense, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for to, from := range idx {
		out.SetRow(to, mat.Row(nil, from, X))
	}
	return out
}

func takeLabels(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for to, from := range idx {
		out[to] = y[from]
	}
	return out
}

// Proportion returns the share of positive labels in y.
func Proportion(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0
	for _, label := range y {
		if label == 1 {
			pos++
		}
	}
	return float64(pos) / float64(len(y))
}
