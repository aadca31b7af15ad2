package coercer

import (
	"testing"

	"gvif/domain/dataset"
)

func TestParseNumeric(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{" -3.5 ", -3.5, true},
		{"1e3", 1000, true},
		{"$1,234.50", 1234.5, true},
		{"(200)", -200, true},
		{"12%", 12, true},
		{"1.234,56", 1234.56, true},
		{"12,5", 12.5, true},
		{"1,234,567", 1234567, true},
		{"north", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		got, ok := c.ParseNumeric(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseNumeric(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseNumeric(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	tests := []struct {
		name   string
		config CoercionConfig
		values []string
		want   dataset.StatisticalType
	}{
		{
			name:   "numeric strings are numeric",
			config: DefaultCoercionConfig(),
			values: []string{"25", "34.5", "", "28"},
			want:   dataset.TypeNumeric,
		},
		{
			name:   "text is categorical",
			config: DefaultCoercionConfig(),
			values: []string{"North", "South", "East", "North"},
			want:   dataset.TypeCategorical,
		},
		{
			name:   "missing markers do not demote a numeric column",
			config: DefaultCoercionConfig(),
			values: []string{"25", "NA", "n/a", "28", "#N/A", "null"},
			want:   dataset.TypeNumeric,
		},
		{
			name:   "mixed values are categorical",
			config: DefaultCoercionConfig(),
			values: []string{"1", "2", "three"},
			want:   dataset.TypeCategorical,
		},
		{
			name:   "integer codes stay numeric by default",
			config: DefaultCoercionConfig(),
			values: repeat([]string{"1", "2", "3"}, 20),
			want:   dataset.TypeNumeric,
		},
		{
			name: "integer codes become categorical when enabled",
			config: CoercionConfig{
				NumericThreshold:          1.0,
				MaxCategories:             20,
				IntegerCodesAsCategorical: true,
			},
			values: repeat([]string{"1", "2", "3"}, 20),
			want:   dataset.TypeCategorical,
		},
		{
			name:   "all missing is categorical",
			config: DefaultCoercionConfig(),
			values: []string{"", " "},
			want:   dataset.TypeCategorical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTypeCoercer(tt.config).AnalyzeTypeDistribution(tt.values)
			if got.RecommendedType != tt.want {
				t.Fatalf("expected %s, got %s (%+v)", tt.want, got.RecommendedType, got)
			}
		})
	}
}

func repeat(values []string, times int) []string {
	out := make([]string, 0, len(values)*times)
	for i := 0; i < times; i++ {
		out = append(out, values...)
	}
	return out
}

func TestIsMissing(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	for _, v := range []string{"", "  ", "NA", "na", " N/A ", "#n/a", "NaN", "NULL", "None", "-", "?"} {
		if !c.IsMissing(v) {
			t.Errorf("IsMissing(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"0", "north", "nan_rate", "-1"} {
		if c.IsMissing(v) {
			t.Errorf("IsMissing(%q) = true, want false", v)
		}
	}

	strict := NewTypeCoercer(CoercionConfig{NumericThreshold: 1.0})
	if strict.IsMissing("NA") {
		t.Error("IsMissing(\"NA\") with no markers configured = true, want false")
	}
}
