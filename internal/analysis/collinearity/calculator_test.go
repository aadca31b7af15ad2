package collinearity

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"gvif/domain/core"
	"gvif/domain/dataset"
	"gvif/domain/stats/gvif"
	"gvif/internal"
)

func quietCalculator() *Calculator {
	return NewCalculator(internal.NewLoggerTo(io.Discard, internal.LogLevelError))
}

func compute(t *testing.T, tbl *dataset.Table, req gvif.ComputationRequest) *gvif.Result {
	t.Helper()
	res, err := quietCalculator().Compute(context.Background(), tbl, req)
	require.NoError(t, err)
	return res
}

func normal(rng *rand.Rand, n int, mean, sd float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + sd*rng.NormFloat64()
	}
	return out
}

// correlatedNumeric builds four numeric predictors with moderate to strong collinearity
func correlatedNumeric(seed int64, n int) *dataset.Table {
	rng := rand.New(rand.NewSource(seed))
	x1 := normal(rng, n, 0, 1)
	x2 := normal(rng, n, 5, 2)
	x3 := make([]float64, n)
	x4 := make([]float64, n)
	for i := 0; i < n; i++ {
		x3[i] = 0.8*x1[i] - 0.3*x2[i] + 0.4*rng.NormFloat64()
		x4[i] = 0.5*x2[i] + x3[i] + rng.NormFloat64()
	}
	return dataset.NewTable(
		dataset.NumericColumn("x1", x1),
		dataset.NumericColumn("x2", x2),
		dataset.NumericColumn("x3", x3),
		dataset.NumericColumn("x4", x4),
	)
}

// regionTable has a 4-level factor, a numeric column tracking the factor, and noise
func regionTable(seed int64, n int) *dataset.Table {
	rng := rand.New(rand.NewSource(seed))
	levels := []string{"east", "north", "south", "west"}
	means := map[string]float64{"east": 0, "north": 3, "south": 6, "west": 9}

	region := make([]string, n)
	spend := make([]float64, n)
	for i := 0; i < n; i++ {
		region[i] = levels[i%len(levels)]
		spend[i] = means[region[i]] + 0.1*rng.NormFloat64()
	}
	return dataset.NewTable(
		dataset.CategoricalColumn("region", region),
		dataset.NumericColumn("spend", spend),
		dataset.NumericColumn("tenure", normal(rng, n, 10, 3)),
	)
}

// olsVIF regresses column j on the others with an intercept and returns 1/(1-R^2)
func olsVIF(t *testing.T, tbl *dataset.Table, j int) float64 {
	t.Helper()
	n := tbl.RowCount()
	p := tbl.ColumnCount()

	design := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		col := 1
		for k, c := range tbl.Columns {
			if k == j {
				y.SetVec(i, c.Values[i])
				continue
			}
			design.Set(i, col, c.Values[i])
			col++
		}
	}

	var beta mat.VecDense
	require.NoError(t, beta.SolveVec(design, y))

	var fitted mat.VecDense
	fitted.MulVec(design, &beta)

	mean := mat.Sum(y) / float64(n)
	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		d := y.AtVec(i) - mean
		ssRes += r * r
		ssTot += d * d
	}
	r2 := 1 - ssRes/ssTot
	return 1 / (1 - r2)
}

func TestNumericGVIFMatchesRegressionVIF(t *testing.T) {
	tbl := correlatedNumeric(7, 500)
	res := compute(t, tbl, gvif.DefaultRequest())

	require.Len(t, res.Rows, tbl.ColumnCount())
	for j, c := range tbl.Columns {
		row, ok := res.Row(c.Name)
		require.True(t, ok)
		assert.Equal(t, 1, row.Df)
		assert.InEpsilon(t, olsVIF(t, tbl, j), row.GVIFNormSq, 1e-8, "factor %s", c.Name)
		assert.InEpsilon(t, row.GVIF, row.GVIFNormSq, 1e-12, "df=1 means GVIF equals its normalized square")
	}
}

func TestBinaryFactorMatchesIndicatorVIF(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 300
	sex := make([]string, n)
	indicator := make([]float64, n)
	height := make([]float64, n)
	for i := 0; i < n; i++ {
		if rng.Float64() < 0.45 {
			sex[i] = "m"
			indicator[i] = 1
		} else {
			sex[i] = "f"
		}
		height[i] = 165 + 12*indicator[i] + 6*rng.NormFloat64()
	}
	weight := normal(rng, n, 70, 10)

	categorical := compute(t, dataset.NewTable(
		dataset.CategoricalColumn("sex", sex),
		dataset.NumericColumn("height", height),
		dataset.NumericColumn("weight", weight),
	), gvif.DefaultRequest())

	numericTable := dataset.NewTable(
		dataset.NumericColumn("sex", indicator),
		dataset.NumericColumn("height", height),
		dataset.NumericColumn("weight", weight),
	)
	numeric := compute(t, numericTable, gvif.DefaultRequest())

	catRow, _ := categorical.Row("sex")
	numRow, _ := numeric.Row("sex")
	assert.Equal(t, 1, catRow.Df)
	assert.True(t, catRow.Categorical)
	assert.InEpsilon(t, numRow.GVIFNormSq, catRow.GVIFNormSq, 1e-12)
	assert.InEpsilon(t, olsVIF(t, numericTable, 0), catRow.GVIFNormSq, 1e-8)
}

func TestIndependentColumnsHaveUnitGVIF(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 2000
	tbl := dataset.NewTable(
		dataset.NumericColumn("a", normal(rng, n, 0, 1)),
		dataset.NumericColumn("b", normal(rng, n, 10, 4)),
		dataset.NumericColumn("c", normal(rng, n, -3, 0.5)),
	)

	res := compute(t, tbl, gvif.DefaultRequest())
	for _, row := range res.Rows {
		assert.InDelta(t, 1.0, row.GVIF, 0.02, "factor %s", row.Factor)
		assert.InDelta(t, 1.0, row.GVIFNormSq, 0.02, "factor %s", row.Factor)
	}
	assert.Empty(t, res.Flagged)
}

func TestExactDuplicateIsSingular(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := 100
	x := normal(rng, n, 0, 1)
	dup := make([]float64, n)
	for i := range x {
		dup[i] = 2*x[i] + 3
	}
	tbl := dataset.NewTable(
		dataset.NumericColumn("x", x),
		dataset.NumericColumn("x_scaled", dup),
		dataset.NumericColumn("z", normal(rng, n, 0, 1)),
	)

	res, err := quietCalculator().Compute(context.Background(), tbl, gvif.DefaultRequest())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, core.IsSingularMatrix(err), "got %v", err)
	assert.Contains(t, err.Error(), `"x"`)
}

func TestCategoricalFactorFlagged(t *testing.T) {
	res := compute(t, regionTable(21, 400), gvif.DefaultRequest())

	require.Len(t, res.Rows, 3)
	assert.Equal(t, []string{"region", "spend", "tenure"}, res.Factors())

	region, ok := res.Row("region")
	require.True(t, ok)
	assert.Equal(t, 3, region.Df)
	assert.Greater(t, region.GVIFNormSq, 5.0)
	assert.InEpsilon(t, math.Pow(region.GVIF, 1.0/6), region.GVIFNorm, 1e-12)
	assert.InEpsilon(t, region.GVIFNorm*region.GVIFNorm, region.GVIFNormSq, 1e-12)

	assert.Contains(t, res.Flagged, "region")
	assert.Equal(t, region.GVIFNormSq, res.Flagged["region"])
	assert.NotContains(t, res.Flagged, "tenure")
}

func TestComputeIsIdempotent(t *testing.T) {
	tbl := regionTable(8, 200)
	first := compute(t, tbl, gvif.DefaultRequest())
	second := compute(t, tbl, gvif.DefaultRequest())

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Flagged, second.Flagged)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestColumnOrderInvariance(t *testing.T) {
	tbl := regionTable(13, 240)
	base := compute(t, tbl, gvif.DefaultRequest())

	permuted := dataset.NewTable(tbl.Columns[2], tbl.Columns[0], tbl.Columns[1])
	shuffled := compute(t, permuted, gvif.DefaultRequest())

	assert.Equal(t, []string{"tenure", "region", "spend"}, shuffled.Factors())
	for _, row := range base.Rows {
		other, ok := shuffled.Row(row.Factor)
		require.True(t, ok)
		assert.InEpsilon(t, row.GVIF, other.GVIF, 1e-9, "factor %s", row.Factor)
		assert.InEpsilon(t, row.GVIFNormSq, other.GVIFNormSq, 1e-9, "factor %s", row.Factor)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	tbl := correlatedNumeric(17, 300)
	tbl.Columns = append(tbl.Columns, regionTable(17, 300).Columns...)

	seq := compute(t, tbl, gvif.ComputationRequest{Workers: 1})
	par := compute(t, tbl, gvif.ComputationRequest{Workers: 4})

	assert.Equal(t, seq.Rows, par.Rows)
	assert.Equal(t, seq.Flagged, par.Flagged)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		table *dataset.Table
	}{
		{"no columns", dataset.NewTable()},
		{"one column", dataset.NewTable(dataset.NumericColumn("x", []float64{1, 2, 3}))},
		{"degenerate factor", dataset.NewTable(
			dataset.NumericColumn("x", []float64{1, 2, 3}),
			dataset.CategoricalColumn("g", []string{"a", "a", ""}),
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietCalculator().Compute(context.Background(), tt.table, gvif.DefaultRequest())
			if !core.IsInvalidInput(err) {
				t.Fatalf("expected invalid input error, got %v", err)
			}
		})
	}
}

func TestConstantColumnIsSingular(t *testing.T) {
	tbl := dataset.NewTable(
		dataset.NumericColumn("x", []float64{1, 2, 3, 4}),
		dataset.NumericColumn("k", []float64{0.1, 0.1, 0.1, 0.1}),
	)

	_, err := quietCalculator().Compute(context.Background(), tbl, gvif.DefaultRequest())
	require.Error(t, err)
	assert.True(t, core.IsSingularMatrix(err), "got %v", err)
	assert.Contains(t, err.Error(), `"k"`)
}

func TestMoreColumnsThanRowsIsSingular(t *testing.T) {
	tbl := dataset.NewTable(
		dataset.NumericColumn("a", []float64{1, 2, 4}),
		dataset.NumericColumn("b", []float64{3, 1, 2}),
		dataset.NumericColumn("c", []float64{5, 9, 2}),
	)

	_, err := quietCalculator().Compute(context.Background(), tbl, gvif.DefaultRequest())
	assert.True(t, core.IsSingularMatrix(err), "got %v", err)
}

func TestComputeRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietCalculator().Compute(ctx, regionTable(1, 40), gvif.DefaultRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeGVIFContract(t *testing.T) {
	tbl := regionTable(99, 400)
	snapshot := append([]float64(nil), tbl.Columns[1].Values...)

	res, flagged, err := ComputeGVIF(tbl)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, res.Flagged, flagged)
	assert.Equal(t, gvif.DefaultThreshold, res.Threshold)
	assert.Equal(t, 400, res.SampleSize)
	assert.Equal(t, 5, res.Encoded)
	assert.Equal(t, snapshot, tbl.Columns[1].Values)
}

func TestThresholdIsConfigurable(t *testing.T) {
	tbl := correlatedNumeric(7, 500)
	strict := compute(t, tbl, gvif.ComputationRequest{Threshold: 1.0})
	assert.Len(t, strict.Flagged, tbl.ColumnCount(), "every GVIF is at least 1")
}

// TestWideCorrelatedTableIsNotSingular covers tables whose det(R) is tiny
// only because there are many moderately correlated columns.
func TestWideCorrelatedTableIsNotSingular(t *testing.T) {
	const p, n = 40, 2000
	rng := rand.New(rand.NewSource(1))
	latent := normal(rng, n, 0, 1)

	columns := make([]dataset.Column, p)
	for j := range columns {
		values := make([]float64, n)
		for i := range values {
			values[i] = latent[i] + 0.6*rng.NormFloat64()
		}
		columns[j] = dataset.NumericColumn(fmt.Sprintf("x%02d", j), values)
	}
	tbl := dataset.NewTable(columns...)

	res := compute(t, tbl, gvif.DefaultRequest())
	require.Len(t, res.Rows, p)
	assert.Empty(t, res.Flagged)

	for _, j := range []int{0, 17, p - 1} {
		row := res.Rows[j]
		assert.Greater(t, row.GVIF, 1.0)
		assert.InEpsilon(t, olsVIF(t, tbl, j), row.GVIFNormSq, 1e-6, "factor %s", row.Factor)
	}
}

func TestNearDuplicateBelowToleranceIsSingular(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := normal(rng, 200, 0, 1)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 2*x[i] + 1e-6*rng.NormFloat64()
	}
	tbl := dataset.NewTable(
		dataset.NumericColumn("x", x),
		dataset.NumericColumn("y", y),
		dataset.NumericColumn("z", normal(rng, 200, 0, 1)),
	)

	_, err := quietCalculator().Compute(context.Background(), tbl, gvif.DefaultRequest())
	require.Error(t, err)
	assert.True(t, core.IsSingularMatrix(err), "got %v", err)

	res := compute(t, tbl, gvif.ComputationRequest{SingularTolerance: 1e-30})
	row, ok := res.Row("x")
	require.True(t, ok)
	assert.Greater(t, row.GVIF, 1e11)
}

func TestRequestRunIDLabelsResult(t *testing.T) {
	tbl := correlatedNumeric(7, 100)

	req := gvif.DefaultRequest()
	req.RunID = core.RunID("audit-7")
	assert.Equal(t, core.RunID("audit-7"), compute(t, tbl, req).RunID)

	assert.False(t, compute(t, tbl, gvif.DefaultRequest()).RunID.IsEmpty())
}
