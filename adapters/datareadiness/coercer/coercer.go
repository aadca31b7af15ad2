package coercer

import (
	"math"
	"strconv"
	"strings"

	"gvif/domain/dataset"
)

// TypeCoercer decides whether raw text columns are numeric or categorical
// and parses numeric cells with deterministic rules.
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64 `json:"numeric_threshold"` // share of non-missing values that must parse as numbers
	MaxCategories    int     `json:"max_categories"`    // low-cardinality cutoff for integer codes

	// IntegerCodesAsCategorical treats low-cardinality integer columns
	// (fewer than 10% unique, at most MaxCategories) as categorical codes.
	IntegerCodesAsCategorical bool `json:"integer_codes_as_categorical"`

	// MissingMarkers are cell values read as missing, compared case-insensitively
	MissingMarkers []string `json:"missing_markers"`
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:          1.0,
		MaxCategories:             20,
		IntegerCodesAsCategorical: false,
		MissingMarkers:            []string{"NA", "N/A", "#N/A", "NaN", "null", "None", "-", "?"},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// IsMissing reports whether a cell is blank or a missing-value marker
func (c *TypeCoercer) IsMissing(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return true
	}
	for _, marker := range c.config.MissingMarkers {
		if strings.EqualFold(v, marker) {
			return true
		}
	}
	return false
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                     `json:"total_count"`
	ValidCount      int                     `json:"valid_count"`
	NumericCount    int                     `json:"numeric_count"`
	IntegerCount    int                     `json:"integer_count"`
	UniqueCount     int                     `json:"unique_count"`
	NumericRatio    float64                 `json:"numeric_ratio"`
	RecommendedType dataset.StatisticalType `json:"recommended_type"`
}

// AnalyzeTypeDistribution analyzes raw cells to determine the column type.
// Missing cells (blank or a marker) do not count toward any ratio.
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}
	unique := make(map[string]bool)

	for _, raw := range values {
		if c.IsMissing(raw) {
			continue
		}
		v := strings.TrimSpace(raw)
		analysis.ValidCount++
		unique[v] = true

		if f, ok := c.ParseNumeric(v); ok {
			analysis.NumericCount++
			if f == math.Trunc(f) {
				analysis.IntegerCount++
			}
		}
	}

	analysis.UniqueCount = len(unique)
	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// determineRecommendedType chooses the best type based on analysis
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.StatisticalType {
	if analysis.ValidCount == 0 || analysis.NumericRatio < c.config.NumericThreshold {
		return dataset.TypeCategorical
	}

	if c.config.IntegerCodesAsCategorical && analysis.IntegerCount == analysis.NumericCount {
		uniqueRatio := float64(analysis.UniqueCount) / float64(analysis.ValidCount)
		if uniqueRatio < 0.1 && analysis.UniqueCount <= c.config.MaxCategories {
			return dataset.TypeCategorical
		}
	}
	return dataset.TypeNumeric
}

// ParseNumeric attempts to parse a cell as a number.
// Handles parentheses for negatives, currency symbols, percent signs,
// thousands separators and European decimal commas.
func (c *TypeCoercer) ParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		afterComma := cleanVal[commaIdx+1:]
		if len(afterComma) <= 2 && isDigits(afterComma) {
			// 1.234,56 or 1 234,56
			cleanVal = strings.NewReplacer(".", "", " ", "", ",", ".").Replace(cleanVal)
		} else {
			cleanVal = strings.NewReplacer(",", "", " ", "").Replace(cleanVal)
		}
	case hasComma:
		commaIdx := strings.LastIndex(cleanVal, ",")
		if strings.Count(cleanVal, ",") == 1 && len(cleanVal)-commaIdx-1 != 3 {
			// 12,5
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			// 1,234,567
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		}
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
