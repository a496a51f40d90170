// Package report renders the analysis results as text tables and plots.
//
// The text report is written section by section in variant order, with
// warnings printed beside the section they belong to; plots (ROC curves and
// the VIF bar chart) are rendered to PNG files.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/ezoic/acqstat/dataset"
	"github.com/ezoic/acqstat/features"
	"github.com/ezoic/acqstat/glm"
	"github.com/ezoic/acqstat/pipeline"
)

// Write renders the full text report.
func Write(w io.Writer, res *pipeline.Result, clean *dataset.CleanReport, derive *features.Report) {
	writeCleaning(w, clean, derive)

	for i := range res.Variants {
		writeVariant(w, &res.Variants[i])
	}

	writeComparison(w, res.Comparison)
}

func writeCleaning(w io.Writer, clean *dataset.CleanReport, derive *features.Report) {
	if clean == nil {
		return
	}
	fmt.Fprintf(w, "== Data cleaning ==\n\n")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Filter", "Rows dropped"})
	table.Append([]string{"missing required field", strconv.Itoa(clean.DroppedMissing)})
	table.Append([]string{"unknown state", strconv.Itoa(clean.DroppedState)})
	table.Append([]string{"unparsable funding amount", strconv.Itoa(clean.DroppedFunding)})
	table.Append([]string{"unparsable year", strconv.Itoa(clean.DroppedYears)})
	table.Append([]string{"rare market category", strconv.Itoa(clean.DroppedRareMarket)})
	table.Render()
	fmt.Fprintf(w, "rows in: %d, rows out: %d\n", clean.RowsIn, clean.RowsOut)

	if derive != nil {
		fmt.Fprintf(w, "clipped negative year differences: %d (to first funding), %d (duration)\n",
			derive.ClippedFirstFunding, derive.ClippedDuration)
	}
	fmt.Fprintln(w)
}

func writeVariant(w io.Writer, vr *pipeline.VariantResult) {
	fmt.Fprintf(w, "== Model: %s ==\n\n", vr.Formula.Name)

	for _, warning := range vr.Warnings {
		fmt.Fprintf(w, "WARNING: %s\n", warning)
	}
	if vr.Err != nil {
		fmt.Fprintf(w, "ERROR: %v\n\n", vr.Err)
		return
	}
	if len(vr.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	writeCoefficients(w, vr.Coefficients)
	writeOddsRatios(w, vr.Coefficients)

	fmt.Fprintf(w, "log-likelihood: %.4f  AIC: %.4f  BIC: %.4f  (k=%d, n=%d)\n\n",
		vr.Model.LogLikelihood(), vr.AIC, vr.BIC, vr.Model.NumParams(), vr.Model.NumSamples())

	if vr.Eval != nil {
		writeEvaluation(w, vr.Eval)
	}
	if len(vr.VIF) > 0 {
		writeVIF(w, vr)
	}
}

func writeCoefficients(w io.Writer, coefs []glm.Coefficient) {
	fmt.Fprintln(w, "Coefficients:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Term", "Estimate", "Std err", "z", "P>|z|", "CI low", "CI high"})
	for _, c := range coefs {
		table.Append([]string{
			c.Name,
			formatFloat(c.Estimate),
			formatFloat(c.StdErr),
			formatFloat(c.Z),
			formatFloat(c.P),
			formatFloat(c.CILow),
			formatFloat(c.CIHigh),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeOddsRatios(w io.Writer, coefs []glm.Coefficient) {
	fmt.Fprintln(w, "Odds ratios:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Term", "Odds ratio", "CI low", "CI high"})
	for _, c := range coefs {
		if c.Name == "(intercept)" {
			continue
		}
		table.Append([]string{
			c.Name,
			formatFloat(c.OddsRatio),
			formatFloat(math.Exp(c.CILow)),
			formatFloat(math.Exp(c.CIHigh)),
		})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeEvaluation(w io.Writer, eval *pipeline.Evaluation) {
	fmt.Fprintln(w, "Held-out evaluation (threshold 0.5):")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "Predicted 0", "Predicted 1"})
	table.Append([]string{"Actual 0", strconv.Itoa(eval.Confusion.TN), strconv.Itoa(eval.Confusion.FP)})
	table.Append([]string{"Actual 1", strconv.Itoa(eval.Confusion.FN), strconv.Itoa(eval.Confusion.TP)})
	table.Render()

	fmt.Fprintf(w, "accuracy: %.4f  precision: %.4f  recall: %.4f", eval.Accuracy, eval.Precision, eval.Recall)
	if eval.ROC != nil {
		fmt.Fprintf(w, "  auc: %.4f", eval.AUC)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func writeVIF(w io.Writer, vr *pipeline.VariantResult) {
	fmt.Fprintln(w, "Variance inflation factors (computed before rebalancing):")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Feature", "R²", "VIF"})
	for _, r := range vr.VIF {
		table.Append([]string{r.Feature, formatFloat(r.RSquared), formatFloat(r.VIF)})
	}
	table.Render()
	fmt.Fprintln(w)
}

func writeComparison(w io.Writer, rows []pipeline.ComparisonRow) {
	fmt.Fprintf(w, "== Model comparison ==\n\n")
	if len(rows) == 0 {
		fmt.Fprintln(w, "no variant fitted successfully")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Variant", "AIC", "BIC", "Best AIC", "Best BIC"})
	for _, row := range rows {
		table.Append([]string{
			row.Variant,
			formatFloat(row.AIC),
			formatFloat(row.BIC),
			flag(row.BestAIC),
			flag(row.BestBIC),
		})
	}
	table.Render()
}

func flag(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
