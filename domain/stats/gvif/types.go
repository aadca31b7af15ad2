// Package gvif holds the result model of a generalized variance inflation
// factor computation (Fox & Monette, 1992).
package gvif

import (
	"sort"

	"gvif/domain/core"
)

// Column labels used when a result is displayed as a table.
const (
	LabelFactor     = "factor"
	LabelGVIF       = "GVIF"
	LabelGVIFNorm   = "GVIF^(1/2Df)"
	LabelGVIFNormSq = "GVIF^(1/2Df)^2"
	LabelDf         = "Df"
)

const (
	// DefaultThreshold flags factors whose normalized squared GVIF reaches it.
	// For a single-column factor the normalized squared GVIF is the classical VIF.
	DefaultThreshold = 5.0

	// DefaultSingularTolerance is the smallest reciprocal condition number of
	// a correlation block accepted, and the smallest 1/GVIF.
	DefaultSingularTolerance = 1e-10
)

// ComputationRequest configures one computation
type ComputationRequest struct {
	Threshold         float64 `json:"threshold"`
	SingularTolerance float64 `json:"singular_tolerance"`
	Workers           int     `json:"workers"` // <= 1 runs sequentially

	// RunID labels the result; empty generates one.
	RunID core.RunID `json:"run_id,omitempty"`
}

// DefaultRequest returns the request used by ComputeGVIF
func DefaultRequest() ComputationRequest {
	return ComputationRequest{
		Threshold:         DefaultThreshold,
		SingularTolerance: DefaultSingularTolerance,
		Workers:           1,
	}
}

// Row is the GVIF of one original column
type Row struct {
	Factor      string  `json:"factor"`
	GVIF        float64 `json:"gvif"`
	GVIFNorm    float64 `json:"gvif_norm"`    // GVIF^(1/(2*Df))
	GVIFNormSq  float64 `json:"gvif_norm_sq"` // (GVIF^(1/(2*Df)))^2
	Df          int     `json:"df"`
	Categorical bool    `json:"categorical"`
}

// Result is indexed by factor name, one row per original column in input order
type Result struct {
	RunID       core.RunID         `json:"run_id"`
	Rows        []Row              `json:"rows"`
	Flagged     map[string]float64 `json:"flagged"`
	Threshold   float64            `json:"threshold"`
	SampleSize  int                `json:"sample_size"`
	Encoded     int                `json:"encoded_columns"`
	Fingerprint core.Hash          `json:"fingerprint"`
	ComputedAt  core.Timestamp     `json:"computed_at"`

	index map[string]int
}

// NewResult wraps preallocated rows and builds the factor index and flagged map
func NewResult(rows []Row, threshold float64) *Result {
	r := &Result{
		RunID:      core.NewRunID(),
		Rows:       rows,
		Threshold:  threshold,
		ComputedAt: core.Now(),
		index:      make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		r.index[row.Factor] = i
	}
	r.Flagged = FlaggedFactors(rows, threshold)
	return r
}

// FlaggedFactors maps factor to normalized squared GVIF for rows at or above threshold
func FlaggedFactors(rows []Row, threshold float64) map[string]float64 {
	flagged := make(map[string]float64)
	for _, row := range rows {
		if row.GVIFNormSq >= threshold {
			flagged[row.Factor] = row.GVIFNormSq
		}
	}
	return flagged
}

// Row returns the row for a factor
func (r *Result) Row(factor string) (Row, bool) {
	if r.index == nil {
		for _, row := range r.Rows {
			if row.Factor == factor {
				return row, true
			}
		}
		return Row{}, false
	}
	i, ok := r.index[factor]
	if !ok {
		return Row{}, false
	}
	return r.Rows[i], true
}

// Factors returns factor names in row order
func (r *Result) Factors() []string {
	names := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		names[i] = row.Factor
	}
	return names
}

// FlaggedNames returns flagged factors sorted by descending value, then name
func (r *Result) FlaggedNames() []string {
	names := make([]string, 0, len(r.Flagged))
	for name := range r.Flagged {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := r.Flagged[names[i]], r.Flagged[names[j]]
		if vi != vj {
			return vi > vj
		}
		return names[i] < names[j]
	})
	return names
}

// IsFlagged reports whether a factor met the threshold
func (r *Result) IsFlagged(factor string) bool {
	_, ok := r.Flagged[factor]
	return ok
}
