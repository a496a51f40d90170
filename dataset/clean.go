package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
)

// CleanOptions controls the row-level filters.
type CleanOptions struct {
	// MinCategoryCount drops market categories observed fewer than this
	// many times after all other filters. Zero disables the filter.
	MinCategoryCount int
}

// DefaultCleanOptions returns the thresholds used by the reference
// analysis.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{MinCategoryCount: 10}
}

// CleanReport records how many rows each filter removed, in the order the
// filters ran. Filter order is fixed for reproducibility.
type CleanReport struct {
	RowsIn            int
	DroppedMissing    int // required field empty
	DroppedState      int // state neither a known name nor code
	DroppedFunding    int // funding amount unparsable or negative
	DroppedYears      int // year fields unparsable
	DroppedRareMarket int // market category below frequency threshold
	RowsOut           int
}

// Dropped returns the total number of rows removed.
func (cr *CleanReport) Dropped() int {
	return cr.DroppedMissing + cr.DroppedState + cr.DroppedFunding +
		cr.DroppedYears + cr.DroppedRareMarket
}

// Clean derives typed records from raw, applying filters in a fixed order:
//
//  1. drop rows with any required field empty,
//  2. normalize the state to a two-letter code, dropping unknowns,
//  3. parse the currency-formatted funding total, dropping failures and
//     negative amounts,
//  4. parse the year fields, dropping failures,
//  5. normalize market labels and drop categories below the frequency
//     threshold.
//
// The returned report carries per-filter drop counts. Clean never fails on
// row content; it only fails when nothing survives.
func Clean(raw *Raw, opts CleanOptions) ([]Record, *CleanReport, error) {
	logger := log.GetLoggerWithName("dataset")
	start := time.Now()

	report := &CleanReport{RowsIn: raw.NRows}
	kept := make([]Record, 0, raw.NRows)

	for i := 0; i < raw.NRows; i++ {
		if rowHasMissing(raw, i) {
			report.DroppedMissing++
			continue
		}

		state, ok := NormalizeState(raw.Columns[ColState][i])
		if !ok {
			report.DroppedState++
			continue
		}

		funding, err := ParseCurrency(raw.Columns[ColFundingTotal][i])
		if err != nil || funding < 0 {
			report.DroppedFunding++
			continue
		}

		founded, err1 := parseYear(raw.Columns[ColFoundedYear][i])
		first, err2 := parseYear(raw.Columns[ColFirstFunding][i])
		last, err3 := parseYear(raw.Columns[ColLastFunding][i])
		if err1 != nil || err2 != nil || err3 != nil {
			report.DroppedYears++
			continue
		}

		rec := Record{
			Name:         strings.TrimSpace(raw.Columns[ColName][i]),
			State:        state,
			Market:       NormalizeMarket(raw.Columns[ColMarket][i]),
			FundingTotal: funding,
			FoundedYear:  founded,
			FirstFunding: first,
			LastFunding:  last,
			Rounds:       make(map[string]float64, len(RoundColumns)),
		}
		if strings.EqualFold(strings.TrimSpace(raw.Columns[ColStatus][i]), StatusAcquired) {
			rec.Acquired = 1
		}
		for _, round := range RoundColumns {
			amount, err := ParseCurrency(raw.Columns[round][i])
			if err != nil || amount < 0 {
				amount = 0 // per-round blanks are zero, not a row failure
			}
			rec.Rounds[round] = amount
		}
		kept = append(kept, rec)
	}

	kept, rare := dropRareMarkets(kept, opts.MinCategoryCount)
	report.DroppedRareMarket = rare
	report.RowsOut = len(kept)

	logger.Info("Clean completed",
		log.OperationKey, log.OperationClean,
		log.PhaseKey, log.PhaseData,
		log.RowsInKey, report.RowsIn,
		log.RowsOutKey, report.RowsOut,
		log.RowsDroppedKey, report.Dropped(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	if len(kept) == 0 {
		return nil, report, errors.NewModelError("dataset.Clean", "no rows survived cleaning", errors.ErrEmptyData)
	}
	return kept, report, nil
}

func rowHasMissing(raw *Raw, i int) bool {
	for _, col := range []string{ColMarket, ColFundingTotal, ColStatus, ColState,
		ColFoundedYear, ColFirstFunding, ColLastFunding} {
		if isMissing(raw.Columns[col][i]) {
			return true
		}
	}
	return false
}

func isMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-" || strings.EqualFold(s, "na") || strings.EqualFold(s, "n/a") ||
		strings.EqualFold(s, "nan") || strings.EqualFold(s, "null")
}

// ParseCurrency parses a currency-formatted amount such as "$1,250,000" or
// " 12 000 " into a float. It fails on empty and non-numeric input.
func ParseCurrency(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" || cleaned == "-" {
		return 0, errors.NewValueError("dataset.ParseCurrency", "empty amount")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, errors.NewValidationError(ColFundingTotal, "not a currency amount", s)
	}
	return v, nil
}

func parseYear(s string) (int, error) {
	cleaned := strings.TrimSpace(s)
	// Year columns sometimes arrive as full dates ("2007-05-01") or as
	// floats ("2007.0"); take the leading year in both cases.
	if idx := strings.IndexAny(cleaned, "-."); idx > 0 {
		cleaned = cleaned[:idx]
	}
	y, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, err
	}
	if y < 1800 || y > 2100 {
		return 0, errors.NewValidationError("year", "outside plausible range", y)
	}
	return y, nil
}

// NormalizeMarket lowercases and trims a market label so that casing
// variants collapse into one category.
func NormalizeMarket(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func dropRareMarkets(recs []Record, minCount int) ([]Record, int) {
	if minCount <= 0 {
		return recs, 0
	}
	counts := make(map[string]int)
	for _, r := range recs {
		counts[r.Market]++
	}
	kept := recs[:0]
	dropped := 0
	for _, r := range recs {
		if counts[r.Market] < minCount {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
