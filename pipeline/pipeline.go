package pipeline

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/ezoic/acqstat/diagnostics"
	"github.com/ezoic/acqstat/features"
	"github.com/ezoic/acqstat/glm"
	"github.com/ezoic/acqstat/metrics"
	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
	"github.com/ezoic/acqstat/sampling"
)

// Config controls the shared fitting parameters of all variants.
type Config struct {
	Seed           int64
	TestFraction   float64
	Threshold      float64
	MaxIter        int
	Tol            float64
	SMOTENeighbors int
}

// DefaultConfig returns the parameters of the reference analysis.
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		TestFraction:   0.25,
		Threshold:      metrics.DefaultThreshold,
		MaxIter:        50,
		Tol:            1e-8,
		SMOTENeighbors: 5,
	}
}

// Evaluation holds the held-out metrics of one variant.
type Evaluation struct {
	Confusion *metrics.Confusion
	Accuracy  float64
	Precision float64
	Recall    float64
	ROC       []metrics.ROCPoint
	AUC       float64
}

// VariantResult is the full outcome of one model variant. Err is non-nil
// when the variant failed; Warnings carries non-fatal conditions such as
// non-convergence or rank deficiency.
type VariantResult struct {
	Formula      Formula
	Design       *Design
	Model        *glm.Logistic
	Coefficients []glm.Coefficient
	AIC          float64
	BIC          float64
	Eval         *Evaluation
	VIF          []diagnostics.Result
	Warnings     []string
	Err          error
}

// ComparisonRow is one variant's information criteria with best-of flags.
type ComparisonRow struct {
	Variant string
	AIC     float64
	BIC     float64
	BestAIC bool
	BestBIC bool
}

// Result aggregates all variant results and the cross-variant comparison.
type Result struct {
	Variants   []VariantResult
	Comparison []ComparisonRow
}

// Run fits every model variant over the engineered records, sequentially
// and in report order. Failures are contained per variant; Run itself only
// fails when it has no data to work with.
func Run(recs []features.Engineered, cfg Config) (*Result, error) {
	if len(recs) == 0 {
		return nil, errors.NewModelError("pipeline.Run", "no records", errors.ErrEmptyData)
	}

	logger := log.GetLoggerWithName("pipeline")
	start := time.Now()

	result := &Result{}
	for _, f := range Variants() {
		vr := runVariant(recs, f, cfg)
		if vr.Err != nil {
			logger.Error("Variant failed",
				log.VariantKey, f.Name,
				"error", vr.Err.Error(),
			)
		} else {
			logger.Info("Variant completed",
				log.VariantKey, f.Name,
				"aic", vr.AIC,
				"bic", vr.BIC,
			)
		}
		result.Variants = append(result.Variants, vr)
	}

	result.Comparison = compare(result.Variants)

	logger.Info("Pipeline completed",
		log.SamplesKey, len(recs),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

func runVariant(recs []features.Engineered, f Formula, cfg Config) VariantResult {
	vr := VariantResult{Formula: f}

	design, err := BuildDesign(recs, f)
	if err != nil {
		vr.Err = err
		return vr
	}
	vr.Design = design

	if len(design.DroppedZeroVar) > 0 {
		vr.Warnings = append(vr.Warnings,
			fmt.Sprintf("dropped zero-variance columns: %v", design.DroppedZeroVar))
	}
	if design.RankDeficient {
		_, p := design.X.Dims()
		vr.Warnings = append(vr.Warnings,
			fmt.Sprintf("design matrix is rank deficient: rank %d of %d", design.Rank, p+1))
	}

	// VIF is computed on the full, unbalanced design matrix; rebalancing
	// would inflate the apparent correlation.
	if f.Diagnose {
		vif, err := diagnostics.VIF(design.X, design.Names)
		if err != nil {
			vr.Warnings = append(vr.Warnings, "vif computation failed: "+err.Error())
		} else {
			vr.VIF = vif
		}
	}

	split, err := sampling.StratifiedSplit(design.X, design.Y, cfg.TestFraction, cfg.Seed)
	if err != nil {
		vr.Err = err
		return vr
	}

	xTrain, yTrain := split.XTrain, split.YTrain
	if f.Rebalance {
		resampler := sampling.NewSMOTENC(design.CatMask,
			sampling.WithNeighbors(cfg.SMOTENeighbors),
			sampling.WithSeed(cfg.Seed),
		)
		xTrain, yTrain, err = resampler.Resample(xTrain, yTrain)
		if err != nil {
			vr.Err = err
			return vr
		}
	}

	model := glm.NewLogistic(
		glm.WithMaxIter(cfg.MaxIter),
		glm.WithTol(cfg.Tol),
		glm.WithFeatureNames(design.Names),
	)
	if err := model.Fit(xTrain, yTrain); err != nil {
		var convErr *errors.ConvergenceError
		if stderrors.As(err, &convErr) {
			vr.Warnings = append(vr.Warnings, "fit did not converge: "+convErr.Message)
		} else {
			vr.Err = err
			return vr
		}
	}
	vr.Model = model

	coefs, err := model.Summary()
	if err != nil {
		vr.Err = err
		return vr
	}
	vr.Coefficients = coefs
	vr.AIC = model.AIC()
	vr.BIC = model.BIC()

	eval, evalWarnings := evaluate(model, split, cfg.Threshold)
	vr.Eval = eval
	vr.Warnings = append(vr.Warnings, evalWarnings...)
	return vr
}

// evaluate scores the untouched evaluation partition.
func evaluate(model *glm.Logistic, split *sampling.Split, threshold float64) (*Evaluation, []string) {
	var warnings []string

	probs, err := model.PredictProba(split.XTest)
	if err != nil {
		return nil, []string{"evaluation failed: " + err.Error()}
	}

	cm, err := metrics.ConfusionMatrix(split.YTest, probs, threshold)
	if err != nil {
		return nil, []string{"evaluation failed: " + err.Error()}
	}

	eval := &Evaluation{
		Confusion: cm,
		Accuracy:  cm.Accuracy(),
		Precision: cm.Precision(),
		Recall:    cm.Recall(),
	}

	log.GetLoggerWithName("pipeline").Info("Evaluation completed",
		log.OperationKey, log.OperationEvaluate,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, len(probs),
	)

	roc, err := metrics.ROCCurve(split.YTest, probs)
	if err != nil {
		warnings = append(warnings, "roc curve unavailable: "+err.Error())
		return eval, warnings
	}
	eval.ROC = roc

	auc, err := metrics.AUC(split.YTest, probs)
	if err != nil {
		warnings = append(warnings, "auc unavailable: "+err.Error())
		return eval, warnings
	}
	eval.AUC = auc
	return eval, warnings
}

// compare flags the minimum AIC and minimum BIC among successful variants.
func compare(variants []VariantResult) []ComparisonRow {
	var rows []ComparisonRow
	bestAIC, bestBIC := -1, -1
	for _, vr := range variants {
		if vr.Err != nil || vr.Model == nil {
			continue
		}
		rows = append(rows, ComparisonRow{Variant: vr.Formula.Name, AIC: vr.AIC, BIC: vr.BIC})
		i := len(rows) - 1
		if bestAIC < 0 || rows[i].AIC < rows[bestAIC].AIC {
			bestAIC = i
		}
		if bestBIC < 0 || rows[i].BIC < rows[bestBIC].BIC {
			bestBIC = i
		}
	}
	if bestAIC >= 0 {
		rows[bestAIC].BestAIC = true
	}
	if bestBIC >= 0 {
		rows[bestBIC].BestBIC = true
	}
	return rows
}
