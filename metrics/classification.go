// Package metrics evaluates binary classifiers on held-out data.
//
// It provides the confusion matrix at a probability threshold, the derived
// accuracy/precision/recall rates, and the ROC curve with its area under
// the curve. All functions validate that labels are binary and that inputs
// have matching lengths.
package metrics

import (
	"fmt"
	"sort"

	"github.com/ezoic/acqstat/pkg/errors"
)

// DefaultThreshold is the probability cutoff used by the analysis reports.
const DefaultThreshold = 0.5

// Confusion is a binary confusion matrix. The positive class is 1.
type Confusion struct {
	TP, FP, TN, FN int
}

// ConfusionMatrix classifies each probability at the threshold and tallies
// the outcomes against the true labels.
func ConfusionMatrix(yTrue, yProb []float64, threshold float64) (*Confusion, error) {
	if err := validatePair("ConfusionMatrix", yTrue, yProb); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, errors.NewValueError("ConfusionMatrix", "threshold must be in [0, 1]")
	}

	cm := &Confusion{}
	for i := range yTrue {
		predicted := yProb[i] >= threshold
		actual := yTrue[i] == 1
		switch {
		case predicted && actual:
			cm.TP++
		case predicted && !actual:
			cm.FP++
		case !predicted && !actual:
			cm.TN++
		default:
			cm.FN++
		}
	}
	return cm, nil
}

// Total returns the number of classified samples.
func (c *Confusion) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

// Accuracy is the fraction of correct predictions.
func (c *Confusion) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.TP+c.TN) / float64(total)
}

// Precision is TP / (TP + FP); zero when nothing was predicted positive.
func (c *Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall is TP / (TP + FN); zero when no positives exist.
func (c *Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// ROCPoint is one (FPR, TPR) point of a ROC curve.
type ROCPoint struct {
	FPR float64
	TPR float64
}

// ROCCurve computes the ROC curve by sweeping the decision threshold over
// the sorted scores. The returned points start at (0,0) and end at (1,1).
func ROCCurve(yTrue, yScore []float64) ([]ROCPoint, error) {
	if err := validatePair("ROCCurve", yTrue, yScore); err != nil {
		return nil, err
	}

	n := len(yTrue)
	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, n)
	totalPos, totalNeg := 0.0, 0.0
	for i := 0; i < n; i++ {
		pairs[i] = pair{score: yScore[i], label: yTrue[i]}
		if yTrue[i] == 1 {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return nil, errors.NewValueError("ROCCurve", "both classes must be present")
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	points := []ROCPoint{{FPR: 0, TPR: 0}}
	tp, fp := 0.0, 0.0
	prevScore := pairs[0].score + 1
	for _, p := range pairs {
		if p.score != prevScore {
			points = append(points, ROCPoint{FPR: fp / totalNeg, TPR: tp / totalPos})
			prevScore = p.score
		}
		if p.label == 1 {
			tp++
		} else {
			fp++
		}
	}
	points = append(points, ROCPoint{FPR: 1, TPR: 1})
	return points, nil
}

// AUC computes the area under the ROC curve by the trapezoid rule.
//
// 0.5 indicates a random classifier, 1.0 perfect ranking.
func AUC(yTrue, yScore []float64) (float64, error) {
	points, err := ROCCurve(yTrue, yScore)
	if err != nil {
		return 0, err
	}

	auc := 0.0
	for i := 1; i < len(points); i++ {
		width := points[i].FPR - points[i-1].FPR
		height := (points[i].TPR + points[i-1].TPR) / 2
		auc += width * height
	}
	return auc, nil
}

func validatePair(op string, yTrue, yScore []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "inputs cannot be empty")
	}
	if len(yTrue) != len(yScore) {
		return errors.NewDimensionError(op, len(yTrue), len(yScore), 0)
	}
	for i, v := range yTrue {
		if v != 0 && v != 1 {
			return errors.NewValidationError("yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", v, i), v)
		}
	}
	return nil
}
