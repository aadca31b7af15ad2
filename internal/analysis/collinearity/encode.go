package collinearity

import (
	"fmt"

	"gvif/domain/core"
	"gvif/domain/dataset"
)

// IndicatorSeparator joins a categorical column name and a level
const IndicatorSeparator = "_"

// IndicatorName returns the encoded column name for one level of a factor
func IndicatorName(column, level string) string {
	return column + IndicatorSeparator + level
}

// Encode expands every categorical column into indicator columns, one per
// level except the first (the baseline), and passes numeric columns through.
// Missing labels encode as zero in every indicator. The returned matrix owns
// copies of the data; the table is not modified.
func Encode(t *dataset.Table) (*dataset.EncodedMatrix, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	rows := t.RowCount()
	m := dataset.NewEncodedMatrix(rows, encodedWidth(t))
	owners := make(map[string]string, t.ColumnCount())

	for _, col := range t.Columns {
		meta := dataset.ColumnMeta{
			VariableKey:     col.Name,
			StatisticalType: col.Type,
		}

		if col.IsCategorical() {
			levels := col.EncodingLevels()
			meta.Baseline = levels[0]
			meta.DerivedColumns = make([]dataset.DerivedColumn, 0, len(levels)-1)
			for _, level := range levels[1:] {
				indicator := make([]float64, rows)
				for i, label := range col.Labels {
					if label == level {
						indicator[i] = 1
					}
				}
				name := IndicatorName(col.Name, level)
				idx := m.AddColumn(name, indicator)
				meta.DerivedColumns = append(meta.DerivedColumns, dataset.DerivedColumn{Name: name, Index: idx, Level: level})
			}
		} else {
			values := make([]float64, rows)
			copy(values, col.Values)
			idx := m.AddColumn(col.Name, values)
			meta.DerivedColumns = []dataset.DerivedColumn{{Name: col.Name, Index: idx}}
		}

		for _, d := range meta.DerivedColumns {
			if owner, taken := owners[d.Name]; taken {
				return nil, core.NewInvalidInputError(col.Name,
					fmt.Sprintf("encoded column %q collides with a column derived from %q", d.Name, owner))
			}
			owners[d.Name] = col.Name
		}
		m.AddMeta(meta)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func encodedWidth(t *dataset.Table) int {
	width := 0
	for _, col := range t.Columns {
		if col.IsCategorical() {
			width += len(col.EncodingLevels()) - 1
		} else {
			width++
		}
	}
	return width
}
