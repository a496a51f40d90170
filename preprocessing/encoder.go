// Package preprocessing builds numeric design matrices from categorical and
// continuous columns.
//
// The central type is DummyEncoder, a one-hot encoder that drops one
// reference category per variable so the encoded matrix can carry an
// intercept without collinearity. The package also provides zero-variance
// column removal and an SVD-based rank check for the assembled matrix.
package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/acqstat/core/model"
	"github.com/ezoic/acqstat/pkg/errors"
)

// DummyEncoder converts categorical string columns into indicator columns,
// dropping the first category (in sorted order) of each variable as the
// baseline. A sample of the baseline category encodes as all zeros for that
// variable.
type DummyEncoder struct {
	State *model.StateManager

	// Categories holds each variable's categories in sorted order; index 0
	// is the dropped baseline.
	Categories [][]string

	// categoryToIdx maps a category to its indicator offset within the
	// variable's block (baseline maps to -1).
	categoryToIdx []map[string]int

	// NFeatures is the number of input variables.
	NFeatures int

	// NOutputs is the number of indicator columns (categories minus one per
	// variable).
	NOutputs int
}

// NewDummyEncoder creates an unfitted DummyEncoder.
func NewDummyEncoder() *DummyEncoder {
	return &DummyEncoder{State: model.NewStateManager()}
}

// Fit learns the category sets from the training data.
func (e *DummyEncoder) Fit(data [][]string) (err error) {
	defer errors.Recover(&err, "DummyEncoder.Fit")
	if len(data) == 0 {
		return errors.NewModelError("DummyEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(data[0]) == 0 {
		return errors.NewModelError("DummyEncoder.Fit", "empty features", errors.ErrEmptyData)
	}

	nSamples := len(data)
	nFeatures := len(data[0])
	for i, row := range data {
		if len(row) != nFeatures {
			return errors.NewDimensionError("DummyEncoder.Fit", nFeatures, len(row), i)
		}
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.categoryToIdx = make([]map[string]int, nFeatures)
	e.NOutputs = 0

	for j := 0; j < nFeatures; j++ {
		seen := make(map[string]bool)
		for i := 0; i < nSamples; i++ {
			seen[data[i][j]] = true
		}

		categories := make([]string, 0, len(seen))
		for category := range seen {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		e.Categories[j] = categories

		toIdx := make(map[string]int, len(categories))
		for idx, category := range categories {
			// Baseline (first sorted category) has no indicator column.
			toIdx[category] = idx - 1
		}
		e.categoryToIdx[j] = toIdx

		e.NOutputs += len(categories) - 1
	}

	e.State.SetFitted()
	e.State.SetDimensions(nFeatures, nSamples)
	return nil
}

// Transform encodes data using the fitted category sets. Categories unseen
// at fit time encode as all zeros, the same as the baseline.
func (e *DummyEncoder) Transform(data [][]string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "DummyEncoder.Transform")
	if !e.State.IsFitted() {
		return nil, errors.NewNotFittedError("DummyEncoder", "Transform")
	}
	if len(data) == 0 {
		return mat.NewDense(0, e.NOutputs, nil), nil
	}

	nSamples := len(data)
	if len(data[0]) != e.NFeatures {
		return nil, errors.NewDimensionError("DummyEncoder.Transform", e.NFeatures, len(data[0]), 1)
	}

	result := mat.NewDense(nSamples, e.NOutputs, nil)
	for i := 0; i < nSamples; i++ {
		offset := 0
		for j := 0; j < e.NFeatures; j++ {
			if idx, exists := e.categoryToIdx[j][data[i][j]]; exists && idx >= 0 {
				result.Set(i, offset+idx, 1.0)
			}
			offset += len(e.Categories[j]) - 1
		}
	}
	return result, nil
}

// FitTransform fits on data and encodes it in one call.
func (e *DummyEncoder) FitTransform(data [][]string) (*mat.Dense, error) {
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// FeatureNamesOut returns one name per indicator column, in output order.
// Names are "<variable>_<category>"; the baseline category of each variable
// has no column and therefore no name.
func (e *DummyEncoder) FeatureNamesOut(inputFeatures []string) []string {
	if !e.State.IsFitted() {
		return nil
	}

	names := make([]string, 0, e.NOutputs)
	for j, categories := range e.Categories {
		variable := fmt.Sprintf("x%d", j)
		if inputFeatures != nil && j < len(inputFeatures) {
			variable = inputFeatures[j]
		}
		for _, category := range categories[1:] {
			names = append(names, fmt.Sprintf("%s_%s", variable, category))
		}
	}
	return names
}

// Baselines returns the dropped reference category of each variable.
func (e *DummyEncoder) Baselines() []string {
	if !e.State.IsFitted() {
		return nil
	}
	out := make([]string, len(e.Categories))
	for j, categories := range e.Categories {
		out[j] = categories[0]
	}
	return out
}
