package app

import (
	"context"
	"time"

	"gvif/domain/stats/gvif"
	"gvif/internal"
	"gvif/internal/errors"
	"gvif/ports"
)

// CollinearityService loads a table, computes GVIF and hands the result to sinks
type CollinearityService struct {
	calculator ports.CollinearityPort
	sinks      []ports.ResultSinkPort
	logger     *internal.Logger
}

// CheckRequest defines the inputs of one collinearity check
type CheckRequest struct {
	Source      ports.TableSourcePort
	Computation gvif.ComputationRequest
}

// CheckResult contains the result and run statistics
type CheckResult struct {
	Result    *gvif.Result `json:"result"`
	Columns   []string     `json:"columns"`
	RuntimeMs int64        `json:"runtime_ms"`
}

// NewCollinearityService creates a service writing to the given sinks in order
func NewCollinearityService(calculator ports.CollinearityPort, logger *internal.Logger, sinks ...ports.ResultSinkPort) *CollinearityService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CollinearityService{
		calculator: calculator,
		sinks:      sinks,
		logger:     logger.With("service"),
	}
}

// RunCheck executes one check. Sinks run only after a successful computation;
// the first sink error stops the remaining sinks.
func (s *CollinearityService) RunCheck(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	if req.Source == nil {
		return nil, errors.InternalError("check request has no table source")
	}
	startTime := time.Now()

	table, err := req.Source.LoadTable(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.calculator.Compute(ctx, table, req.Computation)
	if err != nil {
		return nil, err
	}

	for _, sink := range s.sinks {
		if err := sink.WriteResult(ctx, res); err != nil {
			return nil, errors.Wrap(err, "failed to write result")
		}
	}

	runtime := time.Since(startTime)
	s.logger.Info("run %s: %d factors, %d flagged in %.2fms", res.RunID, len(res.Rows), len(res.Flagged), float64(runtime.Nanoseconds())/1e6)

	return &CheckResult{
		Result:    res,
		Columns:   table.Names(),
		RuntimeMs: runtime.Milliseconds(),
	}, nil
}
