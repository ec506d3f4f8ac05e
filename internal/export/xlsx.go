package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet  = "Results"
	failuresSheet = "Failures"
)

var failureColumns = []string{"filename", "error_kind"}

// WriteXLSX writes a workbook with a Results sheet and a Failures sheet.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(r.Results))
	for _, res := range r.Results {
		row := resultRow(res)
		// Score stays numeric so it can be sorted in the spreadsheet.
		rows = append(rows, []any{row[0], res.Score, row[2], row[3], row[4]})
	}
	if err := writeSheet(f, resultsSheet, resultColumns, rows, header); err != nil {
		return err
	}

	rows = rows[:0]
	for _, failure := range r.Failures {
		rows = append(rows, []any{failure.Filename, string(failure.Kind)})
	}
	if err := writeSheet(f, failuresSheet, failureColumns, rows, header); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]any, headerStyle int) error {
	head := make([]any, len(columns))
	for i, c := range columns {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("sheet %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
		}
	}

	return nil
}
