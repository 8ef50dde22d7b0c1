package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"marksheet-server-go/export"
	"marksheet-server-go/extract"
	"marksheet-server-go/marks"
	"marksheet-server-go/models"
)

type stubSource struct {
	text  *extract.Text
	err   error
	calls int
}

func (s *stubSource) ExtractText(ctx context.Context, data []byte, format extract.Format) (*extract.Text, error) {
	s.calls++
	return s.text, s.err
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

func intPtr(v int) *int { return &v }

func TestClassifyConcreteScenario(t *testing.T) {
	text := "08010123B Alice Kumar 8\n08010124C Bob Singh 5\n08010125D Carol Dutta Absent\n08010126E Dan Roy xyz\n"

	got := NewProcessor(nil, nil, nil).Classify(text)

	want := models.ReportBundle{
		Passed: []models.StudentRecord{{EnrollmentNo: "08010123B", Name: "Alice Kumar", Mark: intPtr(8), Status: models.StatusPass}},
		Failed: []models.StudentRecord{{EnrollmentNo: "08010124C", Name: "Bob Singh", Mark: intPtr(5), Status: models.StatusFail}},
		Absent: []models.StudentRecord{{EnrollmentNo: "08010125D", Name: "Carol Dutta", Status: models.StatusAbsent}},
	}
	if !reflect.DeepEqual(got.Bundle, want) {
		t.Errorf("expected %+v, got %+v", want, got.Bundle)
	}
	for _, bucket := range [][]models.StudentRecord{got.Bundle.Passed, got.Bundle.Failed, got.Bundle.Absent} {
		for _, rec := range bucket {
			if rec.EnrollmentNo == "08010126E" {
				t.Errorf("unrecognized row leaked into bundle: %+v", rec)
			}
		}
	}
}

func TestClassifyRoundTrip(t *testing.T) {
	values := []string{"9", "3", "Absent", "6.2", "A", "none", "0", "7", "10.5", "6"}
	wantStatus := []models.Status{
		models.StatusPass, models.StatusFail, models.StatusAbsent, models.StatusPass, models.StatusAbsent,
		models.StatusAbsent, models.StatusFail, models.StatusPass, models.StatusPass, models.StatusFail,
	}

	names := []string{"Asha Rao", "Arun Nair", "Nora Das", "Anil Kumar Sen", "Neha Iyer", "Om Prakash", "Alia Bhat", "Ravi Anand", "Noel Dsouza", "Amit Shah"}

	var b strings.Builder
	for i, v := range values {
		fmt.Fprintf(&b, "0801%05dX %s %s\n", i, names[i], v)
	}

	got := NewProcessor(nil, nil, nil).Classify(b.String())

	if got.Matched != len(values) || got.Incomplete != 0 || len(got.Unrecognized) != 0 {
		t.Fatalf("expected %d clean matches, got %+v", len(values), got)
	}
	byID := map[string]models.Status{}
	for _, bucket := range [][]models.StudentRecord{got.Bundle.Passed, got.Bundle.Failed, got.Bundle.Absent} {
		for _, rec := range bucket {
			byID[rec.EnrollmentNo] = rec.Status
		}
	}
	if len(byID) != len(values) {
		t.Fatalf("expected %d records in buckets, got %d", len(values), len(byID))
	}
	for i, want := range wantStatus {
		id := fmt.Sprintf("0801%05dX", i)
		if byID[id] != want {
			t.Errorf("%s (%s): expected %s, got %s", id, values[i], want, byID[id])
		}
	}
}

func TestClassifyEmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t  \n"} {
		got := NewProcessor(nil, nil, nil).Classify(text)
		if !got.Bundle.Empty() || got.Matched != 0 {
			t.Errorf("expected empty result for %q, got %+v", text, got)
		}
	}
}

func TestClassifyUnknownAndIncomplete(t *testing.T) {
	extractor := marks.MustExtractor(`(?m)^(?P<enrollment>\d*);(?P<name>[^;]*);(?P<value>\w+)$`)
	text := "101;Ann;8\n102;Ben;pending\n;Cy;5\n104;;A\n105;Eve;absent\n"

	got := NewProcessor(nil, extractor, nil).Classify(text)

	if got.Matched != 5 {
		t.Errorf("expected 5 matches, got %d", got.Matched)
	}
	if got.Incomplete != 2 {
		t.Errorf("expected 2 incomplete records, got %d", got.Incomplete)
	}
	if len(got.Unrecognized) != 1 || got.Unrecognized[0].EnrollmentNo != "102" || got.Unrecognized[0].Status != models.StatusUnknown {
		t.Errorf("unexpected unrecognized records %+v", got.Unrecognized)
	}
	if len(got.Bundle.Passed) != 1 || len(got.Bundle.Failed) != 0 || len(got.Bundle.Absent) != 1 {
		t.Errorf("unexpected bundle %+v", got.Bundle)
	}
}

func TestProcess(t *testing.T) {
	source := &stubSource{text: &extract.Text{
		Content:      "08010123B Alice Kumar 8\n08010124C Bob Singh 5\n",
		Method:       extract.MethodOCR,
		Pages:        1,
		FallbackUsed: true,
	}}

	got, err := NewProcessor(source, nil, nil).Process(context.Background(), "marks.pdf", pdfBytes)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got.Method != "ocr" || !got.FallbackUsed {
		t.Errorf("provenance not carried: %+v", got)
	}
	if len(got.Bundle.Passed) != 1 || len(got.Bundle.Failed) != 1 {
		t.Errorf("unexpected bundle %+v", got.Bundle)
	}
}

func TestProcessErrors(t *testing.T) {
	t.Run("UnsupportedExtension", func(t *testing.T) {
		source := &stubSource{}
		_, err := NewProcessor(source, nil, nil).Process(context.Background(), "marks.docx", pdfBytes)
		if !errors.Is(err, extract.ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
		if source.calls != 0 {
			t.Errorf("extraction must not start for unsupported formats")
		}
	})

	t.Run("ExtractionFailed", func(t *testing.T) {
		source := &stubSource{err: fmt.Errorf("%w: no engine", extract.ErrExtractionFailed)}
		_, err := NewProcessor(source, nil, nil).Process(context.Background(), "marks.pdf", pdfBytes)
		if !errors.Is(err, extract.ErrExtractionFailed) {
			t.Fatalf("expected ErrExtractionFailed, got %v", err)
		}
	})
}

func TestReport(t *testing.T) {
	p := NewProcessor(nil, nil, nil)
	result := p.Classify("08010123B Alice Kumar 8\n08010125D Carol Dutta Absent\n")
	result.Method = "text-layer"

	report, workbook, err := p.Report("marks.pdf", result)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.ID == "" || report.Filename != "marks.pdf" || report.Passed != 1 || report.Absent != 1 || report.Matched != 2 {
		t.Errorf("unexpected report %+v", report)
	}

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{export.SheetPassed, export.SheetAbsent}) {
		t.Errorf("unexpected sheets %v", got)
	}
}
