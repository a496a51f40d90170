// Command acqstat runs the startup-acquisition analysis: it cleans the
// funding CSV, fits the three logistic regression variants and writes the
// comparison report to stdout and the plots to an output directory.
//
// Schema and configuration problems exit non-zero; statistical problems in
// a single variant are reported in that variant's section and do not fail
// the run.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ezoic/acqstat/dataset"
	"github.com/ezoic/acqstat/features"
	"github.com/ezoic/acqstat/pipeline"
	"github.com/ezoic/acqstat/pkg/log"
	"github.com/ezoic/acqstat/report"
)

func main() {
	var (
		input       = flag.String("input", "", "path to the startup funding CSV (required)")
		outDir      = flag.String("outdir", "out", "directory for rendered plots")
		seed        = flag.Int64("seed", 42, "random seed for splitting and oversampling")
		testFrac    = flag.Float64("test-frac", 0.25, "evaluation partition fraction")
		minCategory = flag.Int("min-category", 10, "minimum market category frequency")
		logLevel    = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	log.SetLevel(*logLevel)
	logger := log.GetLoggerWithName("acqstat")

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: acqstat -input data.csv [-outdir out] [-seed 42]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(*input, *outDir, *seed, *testFrac, *minCategory); err != nil {
		logger.Error("Analysis aborted", "error", err.Error())
		os.Exit(1)
	}
}

func run(input, outDir string, seed int64, testFrac float64, minCategory int) error {
	raw, err := dataset.LoadFile(input)
	if err != nil {
		return err
	}

	cleanOpts := dataset.CleanOptions{MinCategoryCount: minCategory}
	recs, cleanReport, err := dataset.Clean(raw, cleanOpts)
	if err != nil {
		return err
	}

	engineered, deriveReport, err := features.Derive(recs)
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig()
	cfg.Seed = seed
	cfg.TestFraction = testFrac

	result, err := pipeline.Run(engineered, cfg)
	if err != nil {
		return err
	}

	report.Write(os.Stdout, result, cleanReport, deriveReport)
	if err := report.SavePlots(result, outDir); err != nil {
		return err
	}
	return nil
}
