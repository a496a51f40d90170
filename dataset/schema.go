// Package dataset loads the startup-funding CSV and cleans it into the
// typed records the rest of the pipeline consumes.
//
// Loading and cleaning are separate steps: Load only validates the column
// schema and materializes raw string columns, while Clean applies the
// row-level filters in a fixed, documented order and reports how many rows
// each filter removed. Schema problems are fatal; row-level problems never
// are.
package dataset

import (
	"github.com/ezoic/acqstat/pkg/errors"
)

// Column names expected in the input CSV.
const (
	ColName         = "name"
	ColMarket       = "market"
	ColFundingTotal = "funding_total_usd"
	ColStatus       = "status"
	ColState        = "state_code"
	ColFoundedYear  = "founded_year"
	ColFirstFunding = "first_funding_year"
	ColLastFunding  = "last_funding_year"
)

// StatusAcquired is the status value mapped to the positive class.
const StatusAcquired = "acquired"

// RoundColumns are the per-round funding amount columns, in the priority
// order used to break ties when selecting a primary funding type. The order
// is fixed: institutional rounds first, then lettered rounds, then the
// remaining types.
var RoundColumns = []string{
	"venture",
	"seed",
	"angel",
	"round_A",
	"round_B",
	"round_C",
	"round_D",
	"round_E",
	"round_F",
	"round_G",
	"round_H",
	"private_equity",
	"debt_financing",
	"grant",
	"equity_crowdfunding",
	"convertible_note",
	"undisclosed",
}

// requiredColumns must all be present in the header; a missing one aborts
// the pipeline before any cleaning or fitting.
func requiredColumns() []string {
	cols := []string{
		ColName,
		ColMarket,
		ColFundingTotal,
		ColStatus,
		ColState,
		ColFoundedYear,
		ColFirstFunding,
		ColLastFunding,
	}
	return append(cols, RoundColumns...)
}

// ValidateSchema checks that every required column appears in header.
func ValidateSchema(header []string) error {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	for _, want := range requiredColumns() {
		if !present[want] {
			return errors.NewSchemaError(want, "required column missing from input")
		}
	}
	return nil
}
