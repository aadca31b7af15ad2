package dataset

import (
	"fmt"

	"gvif/domain/core"
)

// EncodedMatrix is the indicator-expanded form of a Table. Columns are stored
// column-major; ColumnMeta keeps the explicit mapping from every original
// column to the encoded columns derived from it.
type EncodedMatrix struct {
	Columns      [][]float64
	VariableKeys []string
	ColumnMeta   []ColumnMeta

	rows int
}

// ColumnMeta contains metadata for each original column
type ColumnMeta struct {
	VariableKey     string
	StatisticalType StatisticalType
	Baseline        string          // dropped level, categorical only
	DerivedColumns  []DerivedColumn // encoded columns owned by this variable
}

// DerivedColumn is one encoded column owned by an original column
type DerivedColumn struct {
	Name  string
	Index int    // column position in the encoded matrix
	Level string // indicator level, empty for numeric pass-through
}

// Df returns the number of encoded columns representing the variable
func (m ColumnMeta) Df() int {
	return len(m.DerivedColumns)
}

// Indices returns the encoded column positions owned by the variable
func (m ColumnMeta) Indices() []int {
	idx := make([]int, len(m.DerivedColumns))
	for i, d := range m.DerivedColumns {
		idx[i] = d.Index
	}
	return idx
}

// NewEncodedMatrix creates an empty matrix for the given row count
func NewEncodedMatrix(rows, capacity int) *EncodedMatrix {
	return &EncodedMatrix{
		Columns:      make([][]float64, 0, capacity),
		VariableKeys: make([]string, 0, capacity),
		rows:         rows,
	}
}

// AddColumn appends an encoded column and returns its index
func (m *EncodedMatrix) AddColumn(name string, values []float64) int {
	m.Columns = append(m.Columns, values)
	m.VariableKeys = append(m.VariableKeys, name)
	return len(m.Columns) - 1
}

// AddMeta records the derived columns of one original column
func (m *EncodedMatrix) AddMeta(meta ColumnMeta) {
	m.ColumnMeta = append(m.ColumnMeta, meta)
}

// RowCount returns the number of rows
func (m *EncodedMatrix) RowCount() int {
	return m.rows
}

// ColumnCount returns the number of encoded columns
func (m *EncodedMatrix) ColumnCount() int {
	return len(m.Columns)
}

// Complement returns the encoded indices not owned by meta, in matrix order
func (m *EncodedMatrix) Complement(meta ColumnMeta) []int {
	owned := make(map[int]bool, len(meta.DerivedColumns))
	for _, d := range meta.DerivedColumns {
		owned[d.Index] = true
	}
	rest := make([]int, 0, len(m.Columns)-len(owned))
	for i := range m.Columns {
		if !owned[i] {
			rest = append(rest, i)
		}
	}
	return rest
}

// Fingerprint hashes the encoded data for replayability checks
func (m *EncodedMatrix) Fingerprint() core.Hash {
	return core.Fingerprint(m.VariableKeys, m.Columns)
}

// Validate ensures the matrix is internally consistent
func (m *EncodedMatrix) Validate() error {
	if len(m.Columns) != len(m.VariableKeys) {
		return core.NewInvalidInputError("", "encoded column names do not match columns")
	}
	for i, col := range m.Columns {
		if len(col) != m.rows {
			return core.NewInvalidInputError(m.VariableKeys[i],
				fmt.Sprintf("encoded column has %d rows, expected %d", len(col), m.rows))
		}
	}

	owner := make(map[int]string, len(m.Columns))
	for _, meta := range m.ColumnMeta {
		if meta.Df() == 0 {
			return core.NewInvalidInputError(meta.VariableKey, "variable has no encoded columns")
		}
		for _, d := range meta.DerivedColumns {
			if d.Index < 0 || d.Index >= len(m.Columns) {
				return core.NewInvalidInputError(meta.VariableKey, fmt.Sprintf("derived index %d out of range", d.Index))
			}
			if prev, ok := owner[d.Index]; ok {
				return core.NewInvalidInputError(meta.VariableKey,
					fmt.Sprintf("encoded column %q already owned by %q", d.Name, prev))
			}
			owner[d.Index] = meta.VariableKey
		}
	}
	if len(owner) != len(m.Columns) {
		return core.NewInvalidInputError("", "encoded columns without an owning variable")
	}
	return nil
}
