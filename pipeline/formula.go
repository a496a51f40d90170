// Package pipeline orchestrates the acquisition analysis: it assembles a
// design matrix per model variant, splits, optionally rebalances, fits the
// binomial regression, evaluates on the held-out partition and aggregates
// the AIC/BIC comparison.
//
// Variants are isolated from each other: a failed fit is recorded in that
// variant's result and the remaining variants still run. Only schema-level
// problems upstream of the pipeline abort the whole analysis.
package pipeline

import (
	"github.com/ezoic/acqstat/features"
	"github.com/ezoic/acqstat/pkg/errors"
)

// Feature column names usable in a Formula.
const (
	FeatState         = "state"
	FeatMarket        = "market"
	FeatPrimaryType   = "primary_funding_type"
	FeatFundingTotal  = "funding_total"
	FeatYearsToFirst  = "years_to_first_funding"
	FeatFundingLength = "funding_duration"
)

// Formula names a model variant and the predictors it uses.
type Formula struct {
	Name        string
	Categorical []string
	Continuous  []string

	// Rebalance applies SMOTE-NC to the training partition.
	Rebalance bool

	// Diagnose computes the VIF table on the full design matrix before
	// splitting and rebalancing.
	Diagnose bool
}

// Variants returns the three model formulas of increasing complexity, in
// report order.
func Variants() []Formula {
	return []Formula{
		{
			Name:        "baseline",
			Categorical: []string{FeatState, FeatMarket},
			Continuous:  []string{FeatFundingTotal},
		},
		{
			Name:        "timing",
			Categorical: []string{FeatState, FeatMarket},
			Continuous:  []string{FeatFundingTotal, FeatYearsToFirst, FeatFundingLength},
		},
		{
			Name:        "rebalanced",
			Categorical: []string{FeatState, FeatMarket, FeatPrimaryType},
			Continuous:  []string{FeatFundingTotal, FeatYearsToFirst, FeatFundingLength},
			Rebalance:   true,
			Diagnose:    true,
		},
	}
}

func categoricalValue(rec *features.Engineered, name string) (string, error) {
	switch name {
	case FeatState:
		return rec.State, nil
	case FeatMarket:
		return rec.Market, nil
	case FeatPrimaryType:
		return rec.PrimaryFundingType, nil
	}
	return "", errors.NewValueError("pipeline.BuildDesign", "unknown categorical feature "+name)
}

func continuousValue(rec *features.Engineered, name string) (float64, error) {
	switch name {
	case FeatFundingTotal:
		return rec.FundingTotal, nil
	case FeatYearsToFirst:
		return rec.YearsToFirstFunding, nil
	case FeatFundingLength:
		return rec.FundingDuration, nil
	}
	return 0, errors.NewValueError("pipeline.BuildDesign", "unknown continuous feature "+name)
}
