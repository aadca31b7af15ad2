// Package collinearity computes generalized variance inflation factors for
// predictor tables that mix numeric and multi-level categorical columns.
package collinearity

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"gvif/domain/core"
	"gvif/domain/dataset"
	"gvif/domain/stats/gvif"
	"gvif/internal"
)

// Calculator computes GVIF for every original column of a table
type Calculator struct {
	logger *internal.Logger
}

// NewCalculator creates a calculator. A nil logger uses the package default.
func NewCalculator(logger *internal.Logger) *Calculator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Calculator{logger: logger.With("collinearity")}
}

// ComputeGVIF runs Compute with the default request and returns the result
// together with its flagged factors.
func ComputeGVIF(t *dataset.Table) (*gvif.Result, map[string]float64, error) {
	res, err := NewCalculator(nil).Compute(context.Background(), t, gvif.DefaultRequest())
	if err != nil {
		return nil, nil, err
	}
	return res, res.Flagged, nil
}

// Compute encodes the table and computes, for each original column c,
//
//	GVIF(c) = det(R11) * det(R22) / det(R)
//
// where R is the correlation matrix of all encoded columns, R11 the block of
// c's encoded columns and R22 the block of every other encoded column.
// A block is singular when it is not positive definite or its reciprocal
// condition number is at or below the request's tolerance.
// The computation either fully succeeds or returns the first error in
// column order.
func (c *Calculator) Compute(ctx context.Context, t *dataset.Table, req gvif.ComputationRequest) (*gvif.Result, error) {
	req = normalizeRequest(req)

	encoded, err := Encode(t)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("encoded %d columns into %d (%d rows)", t.ColumnCount(), encoded.ColumnCount(), encoded.RowCount())

	corr, err := correlationMatrix(encoded)
	if err != nil {
		return nil, err
	}

	logDetAll, rcond, ok := blockLogDet(corr, allIndices(encoded.ColumnCount()))
	if !wellConditioned(rcond, ok, req.SingularTolerance) {
		factor := locateSingularFactor(encoded, corr, req.SingularTolerance)
		return nil, core.NewSingularMatrixError(factor, "all", rcond)
	}
	c.logger.Debug("correlation matrix rcond=%.3g log det=%.6g", rcond, logDetAll)

	rows := make([]gvif.Row, len(encoded.ColumnMeta))
	errs := make([]error, len(encoded.ColumnMeta))
	compute := func(i int) {
		rows[i], errs[i] = factorRow(encoded, corr, encoded.ColumnMeta[i], logDetAll, req.SingularTolerance)
	}

	if req.Workers <= 1 {
		for i := range encoded.ColumnMeta {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			compute(i)
			if errs[i] != nil {
				return nil, errs[i]
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(req.Workers)
		for i := range encoded.ColumnMeta {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				compute(i)
				return errs[i]
			})
		}
		waitErr := g.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		if waitErr != nil {
			return nil, waitErr
		}
	}

	res := gvif.NewResult(rows, req.Threshold)
	if !req.RunID.IsEmpty() {
		res.RunID = req.RunID
	}
	res.SampleSize = encoded.RowCount()
	res.Encoded = encoded.ColumnCount()
	res.Fingerprint = encoded.Fingerprint()

	for _, row := range rows {
		c.logger.Trace("factor=%s df=%d gvif=%.6g norm_sq=%.6g", row.Factor, row.Df, row.GVIF, row.GVIFNormSq)
	}
	if len(res.Flagged) > 0 {
		c.logger.Info("%d of %d factors at or above GVIF^(1/2Df)^2 >= %g: %v",
			len(res.Flagged), len(rows), req.Threshold, res.FlaggedNames())
	} else {
		c.logger.Debug("no factor reached GVIF^(1/2Df)^2 >= %g", req.Threshold)
	}
	return res, nil
}

func factorRow(m *dataset.EncodedMatrix, corr *mat.SymDense, meta dataset.ColumnMeta, logDetAll, tolerance float64) (gvif.Row, error) {
	logDet1, rcond1, ok := blockLogDet(corr, meta.Indices())
	if !wellConditioned(rcond1, ok, tolerance) {
		return gvif.Row{}, core.NewSingularMatrixError(meta.VariableKey, "X1", rcond1)
	}
	logDet2, rcond2, ok := blockLogDet(corr, m.Complement(meta))
	if !wellConditioned(rcond2, ok, tolerance) {
		return gvif.Row{}, core.NewSingularMatrixError(meta.VariableKey, "X2", rcond2)
	}

	// det(R) underflows for wide tables, so the ratio is taken in log space.
	logValue := logDet1 + logDet2 - logDetAll
	value := math.Exp(logValue)
	if math.IsNaN(value) || math.IsInf(value, 0) || math.Exp(-logValue) <= tolerance {
		return gvif.Row{}, core.NewSingularMatrixError(meta.VariableKey, "X1,X2", math.Exp(-logValue))
	}

	df := meta.Df()
	norm := math.Pow(value, 1/(2*float64(df)))
	return gvif.Row{
		Factor:      meta.VariableKey,
		GVIF:        value,
		GVIFNorm:    norm,
		GVIFNormSq:  norm * norm,
		Df:          df,
		Categorical: meta.StatisticalType == dataset.TypeCategorical,
	}, nil
}

// locateSingularFactor names the first factor, in column order, whose removal
// leaves a non-singular correlation matrix.
func locateSingularFactor(m *dataset.EncodedMatrix, corr *mat.SymDense, tolerance float64) string {
	for _, meta := range m.ColumnMeta {
		rest := m.Complement(meta)
		if len(rest) == 0 {
			continue
		}
		if _, rcond, ok := blockLogDet(corr, rest); wellConditioned(rcond, ok, tolerance) {
			return meta.VariableKey
		}
	}
	if len(m.ColumnMeta) > 0 {
		return m.ColumnMeta[0].VariableKey
	}
	return ""
}

func normalizeRequest(req gvif.ComputationRequest) gvif.ComputationRequest {
	if req.Threshold == 0 {
		req.Threshold = gvif.DefaultThreshold
	}
	if req.SingularTolerance <= 0 {
		req.SingularTolerance = gvif.DefaultSingularTolerance
	}
	if req.Workers < 1 {
		req.Workers = 1
	}
	return req
}
