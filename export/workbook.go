// Package export writes classified student records to an xlsx workbook.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"marksheet-server-go/models"
)

const (
	// Filename is the download name of the generated workbook
	Filename = "student_marks.xlsx"
	// ContentType is the MIME type of an Office Open XML spreadsheet
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetPassed  = "Passed Students"
	SheetFailed  = "Failed Students"
	SheetAbsent  = "Absent Students"
	SheetSummary = "Summary"
)

// Columns is the header row of every bucket sheet
var Columns = []string{"Enrollment No", "Name", "Marks", "Status"}

type bucket struct {
	sheet   string
	records []models.StudentRecord
}

// WriteWorkbook writes one sheet per non-empty bucket of bundle to w. A bundle
// with no records produces a single Summary sheet.
func WriteWorkbook(w io.Writer, bundle models.ReportBundle) error {
	f := excelize.NewFile()
	defer f.Close()

	buckets := []bucket{
		{SheetPassed, bundle.Passed},
		{SheetFailed, bundle.Failed},
		{SheetAbsent, bundle.Absent},
	}

	// NewFile starts with "Sheet1"; the first written sheet takes its place.
	defaultSheet := f.GetSheetName(0)
	first := true
	for _, b := range buckets {
		if len(b.records) == 0 {
			continue
		}
		if err := addSheet(f, defaultSheet, b.sheet, first); err != nil {
			return err
		}
		first = false
		if err := writeRecords(f, b.sheet, b.records); err != nil {
			return err
		}
	}

	if first {
		if err := f.SetSheetName(defaultSheet, SheetSummary); err != nil {
			return fmt.Errorf("failed to name summary sheet: %w", err)
		}
		if err := f.SetCellValue(SheetSummary, "A1", "No student records were found in the document."); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook renders bundle into an in-memory xlsx file
func Workbook(bundle models.ReportBundle) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, bundle); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, defaultSheet, name string, first bool) error {
	if first {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return nil
}

func writeRecords(f *excelize.File, sheet string, records []models.StudentRecord) error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var mark interface{}
		if rec.Mark != nil {
			mark = *rec.Mark
		}
		row := []interface{}{rec.EnrollmentNo, rec.Name, mark, string(rec.Status)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}
	return nil
}
