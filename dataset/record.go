package dataset

// Record is one cleaned startup. All required fields are populated; rows
// that could not be cleaned are counted and dropped rather than carried
// with missing values.
type Record struct {
	Name         string
	State        string // canonical two-letter code
	Market       string // normalized category label
	FundingTotal float64
	FoundedYear  int
	FirstFunding int
	LastFunding  int

	// Rounds maps a round column name to the cumulative amount raised in
	// that round type. Zero when the column was empty.
	Rounds map[string]float64

	// Acquired is 1 when the startup's status is "acquired", else 0.
	Acquired int
}

// Round returns the amount raised for the given round type.
func (r *Record) Round(name string) float64 {
	if r.Rounds == nil {
		return 0
	}
	return r.Rounds[name]
}
