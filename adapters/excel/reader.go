package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gvif/adapters/datareadiness/coercer"
	"gvif/domain/dataset"
	"gvif/internal"
	"gvif/internal/errors"
	"gvif/ports"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	config   ExcelConfig
	fileType string // "xlsx" or "csv"
	coercer  *coercer.TypeCoercer
	logger   *internal.Logger
}

// NewDataReader creates a reader for the configured file. The file type is
// taken from the extension; anything other than .csv is opened as a workbook.
func NewDataReader(config ExcelConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		config:   config,
		fileType: fileType,
		coercer:  coercer.NewTypeCoercer(config.CoercionConfig),
		logger:   logger.With("reader"),
	}
}

// ReadTable reads the file and converts it into a typed predictor table
func (r *DataReader) ReadTable(opts TableOptions) (*dataset.Table, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	r.warnDemotedColumns(data, opts)
	return BuildTable(data, r.coercer, opts)
}

// Source returns the reader as a table source for the given options
func (r *DataReader) Source(opts TableOptions) ports.TableSourcePort {
	return ports.TableSourceFunc(func(ctx context.Context) (*dataset.Table, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return r.ReadTable(opts)
	})
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("reading %s file: %s", r.fileType, r.config.FilePath)

	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, errors.New(errors.CodeIOError, fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.config.FilePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	default:
		return r.readExcelData()
	}
}

// readExcelData reads the configured sheet, or the first sheet, as raw cell values
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeIOError, errors.Wrap(err, "failed to open Excel file"))
	}
	defer f.Close()

	sheet := r.config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New(errors.CodeIOError, "workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WithCode(errors.CodeIOError, errors.Wrapf(err, "failed to read sheet %q", sheet))
	}
	r.logger.Debug("sheet %q read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, errors.WithCode(errors.CodeIOError, errors.Wrap(err, "failed to open CSV file"))
	}
	defer file.Close()

	startTime := time.Now()
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeIOError, errors.Wrap(err, "failed to read CSV file"))
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file must have a header row and at least one data row", strings.ToUpper(r.fileType)))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("header of column %d is empty", i+1))
		}
		if seen[headers[i]] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate header %q", headers[i]))
		}
		seen[headers[i]] = true
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// demotedNumericRatio is the share of numeric cells above which a column
// read as categorical is probably a numeric column with stray text
const demotedNumericRatio = 0.5

// warnDemotedColumns logs columns that are mostly numeric but will be read as
// categorical because some cells do not parse
func (r *DataReader) warnDemotedColumns(data *ExcelData, opts TableOptions) {
	skip := toSet(append(append([]string{}, opts.Drop...), opts.Categorical...))
	for _, header := range data.Headers {
		if skip[header] || len(opts.Levels[header]) > 0 {
			continue
		}
		analysis := r.coercer.AnalyzeTypeDistribution(data.Column(header))
		if analysis.RecommendedType == dataset.TypeCategorical && analysis.NumericRatio >= demotedNumericRatio {
			r.logger.Warn("column %q is %.0f%% numeric (%d of %d cells) but is read as categorical; check for stray text",
				header, 100*analysis.NumericRatio, analysis.NumericCount, analysis.ValidCount)
		}
	}
}

// InferColumnTypes analyzes every column's text to decide numeric or categorical
func (r *DataReader) InferColumnTypes(data *ExcelData) map[string]dataset.StatisticalType {
	return inferColumnTypes(data, r.coercer)
}

func inferColumnTypes(data *ExcelData, c *coercer.TypeCoercer) map[string]dataset.StatisticalType {
	types := make(map[string]dataset.StatisticalType, len(data.Headers))
	for _, header := range data.Headers {
		types[header] = c.AnalyzeTypeDistribution(data.Column(header)).RecommendedType
	}
	return types
}

// BuildTable converts raw text into a table, honoring dropped and forced
// categorical columns. Numeric columns must parse in every row.
func BuildTable(data *ExcelData, c *coercer.TypeCoercer, opts TableOptions) (*dataset.Table, error) {
	known := make(map[string]bool, len(data.Headers))
	for _, h := range data.Headers {
		known[h] = true
	}
	for _, name := range opts.Categorical {
		if !known[name] {
			return nil, errors.InvalidInput(fmt.Sprintf("categorical column %q not found", name))
		}
	}
	for name := range opts.Levels {
		if !known[name] {
			return nil, errors.InvalidInput(fmt.Sprintf("levels given for unknown column %q", name))
		}
	}

	drop := toSet(opts.Drop)
	forced := toSet(opts.Categorical)
	types := inferColumnTypes(data, c)

	columns := make([]dataset.Column, 0, len(data.Headers))
	for _, header := range data.Headers {
		if drop[header] {
			continue
		}
		cells := data.Column(header)

		if forced[header] || len(opts.Levels[header]) > 0 || types[header] == dataset.TypeCategorical {
			labels := make([]string, len(cells))
			for i, cell := range cells {
				if !c.IsMissing(cell) {
					labels[i] = cell
				}
			}
			columns = append(columns, dataset.CategoricalColumn(header, labels, opts.Levels[header]...))
			continue
		}

		values := make([]float64, len(cells))
		for i, cell := range cells {
			if c.IsMissing(cell) {
				return nil, errors.InvalidInput(fmt.Sprintf("column %q row %d: missing value %q in a numeric column", header, i+1, cell))
			}
			v, ok := c.ParseNumeric(cell)
			if !ok {
				return nil, errors.InvalidInput(fmt.Sprintf("column %q row %d: %q is not a number", header, i+1, cell))
			}
			values[i] = v
		}
		columns = append(columns, dataset.NumericColumn(header, values))
	}

	return dataset.NewTable(columns...), nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
