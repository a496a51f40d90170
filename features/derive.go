// Package features derives the engineered columns used by the model
// variants: the two year-difference features and the primary funding type.
//
// Derivation is a pure function over cleaned records; it never mutates its
// input and applies one clipping policy for all variants: a negative year
// difference (funding recorded before founding, or last funding before
// first) is clipped to zero and counted in the report, never dropped.
package features

import (
	"time"

	"github.com/ezoic/acqstat/dataset"
	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
)

// NoFunding is the primary funding type assigned when every per-round
// amount is zero.
const NoFunding = "none"

// Engineered is a cleaned record plus the derived model features.
type Engineered struct {
	dataset.Record

	// YearsToFirstFunding is first funding year minus founded year,
	// clipped at zero.
	YearsToFirstFunding float64

	// FundingDuration is last funding year minus first funding year,
	// clipped at zero.
	FundingDuration float64

	// PrimaryFundingType is the round type with the largest cumulative
	// amount; ties break on the fixed order of dataset.RoundColumns.
	PrimaryFundingType string
}

// Report counts how often the clipping policy fired.
type Report struct {
	ClippedFirstFunding int // first funding before founding
	ClippedDuration     int // last funding before first funding
}

// Derive computes the engineered features for every record.
func Derive(recs []dataset.Record) ([]Engineered, *Report, error) {
	if len(recs) == 0 {
		return nil, nil, errors.NewModelError("features.Derive", "empty input", errors.ErrEmptyData)
	}

	logger := log.GetLoggerWithName("features")
	start := time.Now()

	report := &Report{}
	out := make([]Engineered, len(recs))
	for i, rec := range recs {
		eng := Engineered{Record: rec}

		toFirst := rec.FirstFunding - rec.FoundedYear
		if toFirst < 0 {
			toFirst = 0
			report.ClippedFirstFunding++
		}
		eng.YearsToFirstFunding = float64(toFirst)

		duration := rec.LastFunding - rec.FirstFunding
		if duration < 0 {
			duration = 0
			report.ClippedDuration++
		}
		eng.FundingDuration = float64(duration)

		eng.PrimaryFundingType = PrimaryFundingType(&rec)
		out[i] = eng
	}

	logger.Info("Derive completed",
		log.OperationKey, log.OperationDerive,
		log.PhaseKey, log.PhaseData,
		log.SamplesKey, len(out),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, report, nil
}

// PrimaryFundingType selects the round type that contributed the largest
// cumulative amount. Iteration follows dataset.RoundColumns and a later
// type only wins with a strictly larger amount, so ties resolve to the
// earlier entry in that fixed order regardless of map iteration.
func PrimaryFundingType(rec *dataset.Record) string {
	best := NoFunding
	bestAmount := 0.0
	for _, round := range dataset.RoundColumns {
		if amount := rec.Round(round); amount > bestAmount {
			best = round
			bestAmount = amount
		}
	}
	return best
}
