package excel

// RawRowData represents a row of raw data as header -> cell text
type RawRowData map[string]string

// ExcelData represents a complete sheet or CSV file as text
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Column returns the cells of one header in row order, missing cells as ""
func (d *ExcelData) Column(header string) []string {
	cells := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		cells[i] = row[header]
	}
	return cells
}

// TableOptions selects and types the columns converted into a table
type TableOptions struct {
	// Drop removes columns such as the response before computation
	Drop []string
	// Categorical forces columns to be categorical regardless of content
	Categorical []string
	// Levels fixes the level order of categorical columns; the first level is the baseline
	Levels map[string][]string
}
