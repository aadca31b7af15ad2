package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"gvif/domain/stats/gvif"
	"gvif/internal/errors"
)

const (
	resultSheet  = "gvif"
	flaggedSheet = "flagged"
)

// WorkbookSink writes each result it receives to a workbook at Path
type WorkbookSink struct {
	Path string
}

// WriteResult implements ports.ResultSinkPort
func (s WorkbookSink) WriteResult(_ context.Context, res *gvif.Result) error {
	return WriteResult(s.Path, res)
}

// WriteResult saves a result as a workbook with a "gvif" sheet holding one
// row per factor and a "flagged" sheet holding the factors at or above the
// threshold.
func WriteResult(path string, res *gvif.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return errors.Wrap(err, "failed to name result sheet")
	}

	header := []interface{}{gvif.LabelFactor, gvif.LabelGVIF, gvif.LabelGVIFNorm, gvif.LabelGVIFNormSq, gvif.LabelDf}
	if err := f.SetSheetRow(resultSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write result header")
	}
	for i, row := range res.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address result row")
		}
		values := []interface{}{row.Factor, row.GVIF, row.GVIFNorm, row.GVIFNormSq, row.Df}
		if err := f.SetSheetRow(resultSheet, cell, &values); err != nil {
			return errors.Wrapf(err, "failed to write factor %q", row.Factor)
		}
	}

	if _, err := f.NewSheet(flaggedSheet); err != nil {
		return errors.Wrap(err, "failed to create flagged sheet")
	}
	flaggedHeader := []interface{}{gvif.LabelFactor, gvif.LabelGVIFNormSq}
	if err := f.SetSheetRow(flaggedSheet, "A1", &flaggedHeader); err != nil {
		return errors.Wrap(err, "failed to write flagged header")
	}
	for i, name := range res.FlaggedNames() {
		values := []interface{}{name, res.Flagged[name]}
		if err := f.SetSheetRow(flaggedSheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return errors.Wrapf(err, "failed to write flagged factor %q", name)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.WithCode(errors.CodeIOError, errors.Wrapf(err, "failed to save workbook %s", path))
	}
	return nil
}
