package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/acqstat/diagnostics"
	"github.com/ezoic/acqstat/metrics"
	"github.com/ezoic/acqstat/pipeline"
	"github.com/ezoic/acqstat/pkg/log"
)

// vifPlotCap bounds infinite or extreme VIF values so the bar chart stays
// readable; the table still shows the exact values.
const vifPlotCap = 1000.0

// SavePlots renders every available plot for the result into dir: one ROC
// curve per evaluated variant and the VIF bar chart.
func SavePlots(res *pipeline.Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating plot directory: %w", err)
	}

	for i := range res.Variants {
		vr := &res.Variants[i]
		if vr.Eval != nil && vr.Eval.ROC != nil {
			path := filepath.Join(dir, fmt.Sprintf("roc_%s.png", vr.Formula.Name))
			if err := SaveROC(vr.Eval.ROC, vr.Eval.AUC, vr.Formula.Name, path); err != nil {
				return err
			}
		}
		if len(vr.VIF) > 0 {
			path := filepath.Join(dir, "vif.png")
			if err := SaveVIF(vr.VIF, path); err != nil {
				return err
			}
		}
	}

	log.GetLoggerWithName("report").Info("Plots rendered",
		log.PhaseKey, log.PhaseReport,
		"dir", dir,
	)
	return nil
}

// SaveROC renders a ROC curve with the chance diagonal to a PNG file.
func SaveROC(points []metrics.ROCPoint, auc float64, name, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ROC: %s (AUC %.3f)", name, auc)
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	curve := make(plotter.XYs, len(points))
	for i, pt := range points {
		curve[i].X = pt.FPR
		curve[i].Y = pt.TPR
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return fmt.Errorf("building roc line: %w", err)
	}
	p.Add(line, plotter.NewGrid())

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("building diagonal: %w", err)
	}
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagonal)

	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// SaveVIF renders the per-feature VIF values as a bar chart.
func SaveVIF(results []diagnostics.Result, path string) error {
	p := plot.New()
	p.Title.Text = "Variance inflation factors"
	p.Y.Label.Text = "VIF"

	values := make(plotter.Values, len(results))
	names := make([]string, len(results))
	for i, r := range results {
		v := r.VIF
		if math.IsInf(v, 1) || v > vifPlotCap {
			v = vifPlotCap
		}
		values[i] = v
		names[i] = r.Feature
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return fmt.Errorf("building vif bars: %w", err)
	}
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = -0.4

	width := vg.Length(len(results)) * vg.Points(28)
	if width < 6*vg.Inch {
		width = 6 * vg.Inch
	}
	return p.Save(width, 5*vg.Inch, path)
}
