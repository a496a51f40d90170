package pipeline_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/acqstat/dataset"
	"github.com/ezoic/acqstat/features"
	"github.com/ezoic/acqstat/pipeline"
	"github.com/ezoic/acqstat/sampling"
)

// syntheticRecords generates n startup records with a 10% acquisition rate.
// Acquired companies raise more on average, with overlap between classes.
func syntheticRecords(t *testing.T, n int, seed int64) []features.Engineered {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	states := []string{"CA", "NY", "TX"}
	markets := []string{"software", "biotech"}
	roundTypes := []string{"venture", "seed", "angel"}

	recs := make([]dataset.Record, n)
	for i := range recs {
		acquired := 0
		funding := 1e5 + rng.Float64()*4.9e6
		if i%10 == 0 {
			acquired = 1
			funding = 2e6 + rng.Float64()*6e6
		}
		founded := 2000 + rng.Intn(10)
		first := founded + rng.Intn(4)

		recs[i] = dataset.Record{
			Name:         "co",
			State:        states[rng.Intn(len(states))],
			Market:       markets[rng.Intn(len(markets))],
			FundingTotal: funding,
			FoundedYear:  founded,
			FirstFunding: first,
			LastFunding:  first + rng.Intn(5),
			Rounds: map[string]float64{
				roundTypes[rng.Intn(len(roundTypes))]: funding,
			},
			Acquired: acquired,
		}
	}

	engineered, _, err := features.Derive(recs)
	require.NoError(t, err)
	return engineered
}

func names(d *pipeline.Design) map[string]bool {
	out := make(map[string]bool, len(d.Names))
	for _, name := range d.Names {
		out[name] = true
	}
	return out
}

func TestRunAllVariants(t *testing.T) {
	recs := syntheticRecords(t, 1000, 42)

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Variants, 3)

	for _, vr := range result.Variants {
		require.NoError(t, vr.Err, "variant %s failed", vr.Formula.Name)
		require.NotNil(t, vr.Model, "variant %s has no model", vr.Formula.Name)
		require.NotNil(t, vr.Eval, "variant %s has no evaluation", vr.Formula.Name)
		assert.NotEmpty(t, vr.Coefficients, "variant %s has no coefficients", vr.Formula.Name)
		assert.Greater(t, vr.AIC, 0.0, "variant %s AIC", vr.Formula.Name)
		assert.Greater(t, vr.BIC, vr.AIC, "BIC penalizes harder than AIC at this n")
	}

	assert.Equal(t, "baseline", result.Variants[0].Formula.Name)
	assert.Equal(t, "timing", result.Variants[1].Formula.Name)
	assert.Equal(t, "rebalanced", result.Variants[2].Formula.Name)
}

func TestVariantColumnsAreNested(t *testing.T) {
	recs := syntheticRecords(t, 1000, 42)

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)

	baseline := names(result.Variants[0].Design)
	timing := names(result.Variants[1].Design)
	rebalanced := names(result.Variants[2].Design)

	for name := range baseline {
		assert.True(t, timing[name], "timing variant lost column %s", name)
	}
	for name := range timing {
		assert.True(t, rebalanced[name], "rebalanced variant lost column %s", name)
	}

	// The timing variant adds exactly the two year-derived predictors.
	assert.Len(t, timing, len(baseline)+2)
	assert.True(t, timing[pipeline.FeatYearsToFirst])
	assert.True(t, timing[pipeline.FeatFundingLength])

	// The rebalanced variant additionally encodes the primary funding type.
	for name := range rebalanced {
		if !timing[name] {
			assert.Contains(t, name, pipeline.FeatPrimaryType+"_",
				"unexpected extra column %s", name)
		}
	}
	assert.Greater(t, len(rebalanced), len(timing))
}

func TestEvaluationPartitionKeepsClassBalance(t *testing.T) {
	recs := syntheticRecords(t, 1000, 42)

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)

	// Rebalancing only touches the training partition, so every variant
	// evaluates against the original 10% acquisition rate.
	for _, vr := range result.Variants {
		require.NotNil(t, vr.Eval)
		total := vr.Eval.Confusion.Total()
		positives := vr.Eval.Confusion.TP + vr.Eval.Confusion.FN
		proportion := float64(positives) / float64(total)
		assert.InDelta(t, 0.1, proportion, 0.01, "variant %s", vr.Formula.Name)
	}
}

func TestRebalancingImprovesRecall(t *testing.T) {
	recs := syntheticRecords(t, 1000, 42)

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)

	baseline := result.Variants[0].Eval
	rebalanced := result.Variants[2].Eval
	assert.GreaterOrEqual(t, rebalanced.Recall, baseline.Recall,
		"oversampling the minority class should not lower recall")
}

func TestVIFOnlyOnDiagnosticVariant(t *testing.T) {
	recs := syntheticRecords(t, 600, 7)

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)

	assert.Nil(t, result.Variants[0].VIF)
	assert.Nil(t, result.Variants[1].VIF)
	require.NotEmpty(t, result.Variants[2].VIF)

	// One VIF entry per design matrix column, in column order.
	vif := result.Variants[2].VIF
	design := result.Variants[2].Design
	require.Len(t, vif, len(design.Names))
	for i, res := range vif {
		assert.Equal(t, design.Names[i], res.Feature)
		assert.GreaterOrEqual(t, res.VIF, 1.0)
	}
}

func TestComparisonFlagsSingleBest(t *testing.T) {
	recs := syntheticRecords(t, 800, 3)

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Comparison, 3)

	bestAIC, bestBIC := 0, 0
	for _, row := range result.Comparison {
		if row.BestAIC {
			bestAIC++
			for _, other := range result.Comparison {
				assert.LessOrEqual(t, row.AIC, other.AIC)
			}
		}
		if row.BestBIC {
			bestBIC++
		}
	}
	assert.Equal(t, 1, bestAIC)
	assert.Equal(t, 1, bestBIC)
}

func TestRunIsDeterministic(t *testing.T) {
	recs := syntheticRecords(t, 500, 9)

	a, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)
	b, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)

	for i := range a.Variants {
		require.NoError(t, a.Variants[i].Err)
		assert.Equal(t, a.Variants[i].AIC, b.Variants[i].AIC)
		assert.Equal(t, a.Variants[i].BIC, b.Variants[i].BIC)
		assert.Equal(t, a.Variants[i].Eval.Recall, b.Variants[i].Eval.Recall)
	}
}

func TestVariantFailureIsIsolated(t *testing.T) {
	recs := syntheticRecords(t, 200, 11)
	for i := range recs {
		recs[i].Acquired = 0
	}
	recs[0].Acquired = 1

	result, err := pipeline.Run(recs, pipeline.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, result.Variants, 3)

	// A single acquired company cannot seed the neighbor search, so the
	// rebalanced variant fails. The failure stays in its own result.
	require.Error(t, result.Variants[2].Err)
	assert.Nil(t, result.Variants[2].Model)

	for _, vr := range result.Variants[:2] {
		require.NoError(t, vr.Err, "variant %s", vr.Formula.Name)
		require.NotNil(t, vr.Model, "variant %s", vr.Formula.Name)
		require.NotNil(t, vr.Eval, "variant %s", vr.Formula.Name)
	}

	// The comparison only ranks the variants that fitted.
	require.Len(t, result.Comparison, 2)
	for _, row := range result.Comparison {
		assert.NotEqual(t, "rebalanced", row.Variant)
	}
}

func TestRunEmptyInput(t *testing.T) {
	_, err := pipeline.Run(nil, pipeline.DefaultConfig())
	assert.Error(t, err)
}

func TestBuildDesign(t *testing.T) {
	recs := syntheticRecords(t, 300, 5)

	f := pipeline.Variants()[0]
	design, err := pipeline.BuildDesign(recs, f)
	require.NoError(t, err)

	r, c := design.X.Dims()
	assert.Equal(t, 300, r)
	// Three states and two markets encode to (3-1)+(2-1) indicators, plus
	// the funding total.
	require.Equal(t, 4, c)
	assert.Equal(t, []string{"state_NY", "state_TX", "market_software", "funding_total"}, design.Names)
	assert.Equal(t, []bool{true, true, true, false}, design.CatMask)
	assert.Equal(t, "CA", design.Baselines[pipeline.FeatState])
	assert.Equal(t, "biotech", design.Baselines[pipeline.FeatMarket])
	assert.False(t, design.RankDeficient)
	assert.Empty(t, design.DroppedZeroVar)

	// Labels carry through in record order.
	positives := 0.0
	for _, label := range design.Y {
		positives += label
	}
	assert.InDelta(t, 0.1, positives/float64(len(design.Y)), 0.001)
}

func TestBuildDesignDropsConstantColumn(t *testing.T) {
	recs := syntheticRecords(t, 200, 5)
	// Force a constant state so its indicators vanish.
	for i := range recs {
		recs[i].State = "CA"
	}

	design, err := pipeline.BuildDesign(recs, pipeline.Variants()[0])
	require.NoError(t, err)

	for _, name := range design.Names {
		assert.NotContains(t, name, "state_")
	}
}

func TestProportionMatchesDesignLabels(t *testing.T) {
	recs := syntheticRecords(t, 400, 2)

	design, err := pipeline.BuildDesign(recs, pipeline.Variants()[0])
	require.NoError(t, err)

	want := 0.0
	for _, rec := range recs {
		want += float64(rec.Acquired)
	}
	want /= float64(len(recs))
	assert.True(t, math.Abs(sampling.Proportion(design.Y)-want) < 1e-12)
}
