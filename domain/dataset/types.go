package dataset

import (
	"fmt"
	"math"
	"sort"

	"gvif/domain/core"
)

// StatisticalType defines variable types for analysis
type StatisticalType string

const (
	TypeNumeric     StatisticalType = "numeric"
	TypeCategorical StatisticalType = "categorical"
)

// Column is one named predictor. Numeric columns carry Values, categorical
// columns carry Labels where the empty string marks a missing value.
type Column struct {
	Name   string          `json:"name"`
	Type   StatisticalType `json:"type"`
	Values []float64       `json:"values,omitempty"`
	Labels []string        `json:"labels,omitempty"`

	// Levels fixes the category order of a categorical column. The first
	// level is the encoding baseline. When empty the observed labels are
	// used in lexical order.
	Levels []string `json:"levels,omitempty"`
}

// NumericColumn builds a numeric column
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Type: TypeNumeric, Values: values}
}

// CategoricalColumn builds a categorical column with optional explicit level order
func CategoricalColumn(name string, labels []string, levels ...string) Column {
	return Column{Name: name, Type: TypeCategorical, Labels: labels, Levels: levels}
}

// IsCategorical reports whether the column is encoded with indicators
func (c Column) IsCategorical() bool {
	return c.Type == TypeCategorical
}

// Len returns the number of rows in the column
func (c Column) Len() int {
	if c.IsCategorical() {
		return len(c.Labels)
	}
	return len(c.Values)
}

// ObservedLevels returns the distinct non-missing labels in lexical order
func (c Column) ObservedLevels() []string {
	seen := make(map[string]bool)
	for _, label := range c.Labels {
		if label != "" {
			seen[label] = true
		}
	}
	levels := make([]string, 0, len(seen))
	for label := range seen {
		levels = append(levels, label)
	}
	sort.Strings(levels)
	return levels
}

// EncodingLevels returns the level order used for indicator encoding
func (c Column) EncodingLevels() []string {
	if len(c.Levels) > 0 {
		return c.Levels
	}
	return c.ObservedLevels()
}

// Table is an ordered set of predictor columns with no response column.
type Table struct {
	Columns []Column `json:"columns"`
}

// NewTable creates a table from columns in order
func NewTable(columns ...Column) *Table {
	return &Table{Columns: columns}
}

// ColumnCount returns the number of original columns
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// RowCount returns the number of rows, taken from the first column
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Names returns column names in table order
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Drop returns a new table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	return &Table{Columns: kept}
}

// Validate checks the structural invariants the GVIF computation relies on
func (t *Table) Validate() error {
	if t == nil || len(t.Columns) < 2 {
		n := 0
		if t != nil {
			n = len(t.Columns)
		}
		return fmt.Errorf("%w (got %d)", core.ErrTooFewColumns, n)
	}

	rows := t.RowCount()
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return core.NewInvalidInputError("", "column name cannot be empty")
		}
		if seen[c.Name] {
			return core.NewInvalidInputError(c.Name, "duplicate column name")
		}
		seen[c.Name] = true

		if c.Len() != rows {
			return core.NewInvalidInputError(c.Name,
				fmt.Sprintf("has %d rows, expected %d", c.Len(), rows))
		}

		switch c.Type {
		case TypeNumeric:
			for i, v := range c.Values {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return core.NewInvalidInputError(c.Name, fmt.Sprintf("non-finite value at row %d", i))
				}
			}
		case TypeCategorical:
			if err := validateLevels(c); err != nil {
				return err
			}
		default:
			return core.NewInvalidInputError(c.Name, fmt.Sprintf("unsupported type %q", c.Type))
		}
	}

	if rows < 2 {
		return fmt.Errorf("%w (got %d)", core.ErrTooFewRows, rows)
	}
	return nil
}

func validateLevels(c Column) error {
	observed := c.ObservedLevels()
	if len(observed) < 2 {
		return core.NewDegenerateFactorError(c.Name, len(observed))
	}
	if len(c.Levels) == 0 {
		return nil
	}

	declared := make(map[string]bool, len(c.Levels))
	for _, level := range c.Levels {
		if level == "" {
			return core.NewInvalidInputError(c.Name, "declared level cannot be empty")
		}
		if declared[level] {
			return core.NewInvalidInputError(c.Name, fmt.Sprintf("duplicate declared level %q", level))
		}
		declared[level] = true
	}
	for _, level := range observed {
		if !declared[level] {
			return core.NewInvalidInputError(c.Name, fmt.Sprintf("label %q is not a declared level", level))
		}
	}
	return nil
}
