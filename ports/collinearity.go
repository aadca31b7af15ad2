package ports

import (
	"context"

	"gvif/domain/dataset"
	"gvif/domain/stats/gvif"
)

// TableSourcePort supplies the predictor table for one computation
type TableSourcePort interface {
	LoadTable(ctx context.Context) (*dataset.Table, error)
}

// TableSourceFunc adapts a function to TableSourcePort
type TableSourceFunc func(ctx context.Context) (*dataset.Table, error)

// LoadTable calls f(ctx)
func (f TableSourceFunc) LoadTable(ctx context.Context) (*dataset.Table, error) {
	return f(ctx)
}

// CollinearityPort computes GVIF for every column of a table
type CollinearityPort interface {
	Compute(ctx context.Context, t *dataset.Table, req gvif.ComputationRequest) (*gvif.Result, error)
}

// ResultSinkPort receives a completed result (terminal, file, workbook)
type ResultSinkPort interface {
	WriteResult(ctx context.Context, res *gvif.Result) error
}
