package dataset

import (
	"io"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
)

// Raw holds the unparsed string columns of the input file. It is the
// immutable source of truth: Clean derives records from it without
// modifying it.
type Raw struct {
	Columns map[string][]string
	NRows   int
}

// Load reads a delimited file from r and validates its schema. All columns
// are kept as strings; type coercion happens during Clean so that
// unparsable values can be counted per row instead of failing the load.
func Load(r io.Reader) (*Raw, error) {
	logger := log.GetLoggerWithName("dataset")
	start := time.Now()

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, errors.NewModelError("dataset.Load", "reading csv", df.Err)
	}

	if err := ValidateSchema(df.Names()); err != nil {
		return nil, err
	}

	raw := &Raw{
		Columns: make(map[string][]string, len(requiredColumns())),
		NRows:   df.Nrow(),
	}
	for _, name := range requiredColumns() {
		col := df.Col(name)
		if col.Err != nil {
			return nil, errors.NewSchemaError(name, "column could not be read")
		}
		raw.Columns[name] = col.Records()
	}

	logger.Info("Load completed",
		log.OperationKey, log.OperationLoad,
		log.PhaseKey, log.PhaseData,
		log.RowsInKey, raw.NRows,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return raw, nil
}

// LoadFile opens path and loads it via Load.
func LoadFile(path string) (*Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewModelError("dataset.LoadFile", "opening input", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}
