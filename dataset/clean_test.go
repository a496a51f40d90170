package dataset_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/acqstat/dataset"
	acqErrors "github.com/ezoic/acqstat/pkg/errors"
)

// testHeader returns the full expected CSV header.
func testHeader() []string {
	header := []string{
		dataset.ColName, dataset.ColMarket, dataset.ColFundingTotal,
		dataset.ColStatus, dataset.ColState, dataset.ColFoundedYear,
		dataset.ColFirstFunding, dataset.ColLastFunding,
	}
	return append(header, dataset.RoundColumns...)
}

// testRow builds a CSV row with the given leading fields and all round
// columns zero except the overrides.
func testRow(name, market, funding, status, state, founded, first, last string, rounds map[string]string) []string {
	row := []string{name, market, funding, status, state, founded, first, last}
	for _, round := range dataset.RoundColumns {
		if v, ok := rounds[round]; ok {
			row = append(row, v)
		} else {
			row = append(row, "0")
		}
	}
	return row
}

func toCSV(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(testHeader(), ","))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func TestLoadMissingColumnIsFatal(t *testing.T) {
	csv := "name,market,status\nAcme,software,acquired\n"

	_, err := dataset.Load(strings.NewReader(csv))
	require.Error(t, err)

	var schemaErr *acqErrors.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestCleanFiltersAndCounts(t *testing.T) {
	csv := toCSV(
		testRow("Acme", "Software", "$1250000", "acquired", "CA", "2005", "2007", "2010",
			map[string]string{"venture": "$1000000", "seed": "$250000"}),
		testRow("Beta", "Software", "$500000", "operating", "California", "2006", "2006", "2008", nil),
		testRow("Gamma", "Software", "$100000", "closed", "Bavaria", "2001", "2002", "2003", nil),
		testRow("Delta", "", "$100000", "operating", "NY", "2001", "2002", "2003", nil),
		testRow("Epsilon", "Software", "not-a-number", "operating", "NY", "2001", "2002", "2003", nil),
		testRow("Zeta", "Software", "$750000", "operating", "TX", "2004", "2005", "2006", nil),
	)

	raw, err := dataset.Load(strings.NewReader(csv))
	require.NoError(t, err)

	recs, report, err := dataset.Clean(raw, dataset.CleanOptions{})
	require.NoError(t, err)

	assert.Equal(t, 6, report.RowsIn)
	assert.Equal(t, 1, report.DroppedMissing)
	assert.Equal(t, 1, report.DroppedState)
	assert.Equal(t, 1, report.DroppedFunding)
	assert.Equal(t, 0, report.DroppedYears)
	assert.Equal(t, 3, report.RowsOut)
	require.Len(t, recs, 3)

	// Free-text state names map to their two-letter codes.
	assert.Equal(t, "CA", recs[0].State)
	assert.Equal(t, "CA", recs[1].State)

	// Currency strings parse to numeric amounts.
	assert.Equal(t, 1250000.0, recs[0].FundingTotal)
	assert.Equal(t, 1000000.0, recs[0].Round("venture"))

	// Label derivation.
	assert.Equal(t, 1, recs[0].Acquired)
	assert.Equal(t, 0, recs[1].Acquired)

	// Cleaned records never carry negative funding.
	for _, rec := range recs {
		assert.GreaterOrEqual(t, rec.FundingTotal, 0.0)
	}
}

func TestCleanDropsRareMarkets(t *testing.T) {
	csv := toCSV(
		testRow("A", "Software", "$100", "operating", "CA", "2001", "2002", "2003", nil),
		testRow("B", "software", "$100", "operating", "CA", "2001", "2002", "2003", nil),
		testRow("C", "Biotech", "$100", "operating", "CA", "2001", "2002", "2003", nil),
	)

	raw, err := dataset.Load(strings.NewReader(csv))
	require.NoError(t, err)

	recs, report, err := dataset.Clean(raw, dataset.CleanOptions{MinCategoryCount: 2})
	require.NoError(t, err)

	// Casing variants collapse into one category, which survives the
	// threshold; the singleton category is dropped.
	assert.Equal(t, 1, report.DroppedRareMarket)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, "software", rec.Market)
	}
}

func TestParseCurrency(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"$1,250,000", 1250000, false},
		{" 12000 ", 12000, false},
		{"0", 0, false},
		{"-500", -500, false},
		{"-", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := dataset.ParseCurrency(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestNormalizeState(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"CA", "CA", true},
		{"ca", "CA", true},
		{"New York", "NY", true},
		{"district of columbia", "DC", true},
		{"Bavaria", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := dataset.NormalizeState(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
