package models

import "time"

// Status is the resolved outcome of a student record
type Status string

const (
	StatusPass    Status = "Pass"
	StatusFail    Status = "Fail"
	StatusAbsent  Status = "Absent"
	StatusUnknown Status = "Unknown"
)

// RawMatch is one candidate row found in extracted text, not yet validated
type RawMatch struct {
	EnrollmentText string `json:"enrollmentText"`
	NameText       string `json:"nameText"`
	ValueText      string `json:"valueText"`
}

// StudentRecord is a classified row. Mark is set only for Pass and Fail.
type StudentRecord struct {
	EnrollmentNo string `json:"enrollmentNo"`
	Name         string `json:"name"`
	Mark         *int   `json:"mark"`
	Status       Status `json:"status"`
}

// ReportBundle groups classified records for export, in discovery order
type ReportBundle struct {
	Passed []StudentRecord `json:"passed"`
	Failed []StudentRecord `json:"failed"`
	Absent []StudentRecord `json:"absent"`
}

// Empty reports whether no bucket holds a record
func (b ReportBundle) Empty() bool {
	return len(b.Passed) == 0 && len(b.Failed) == 0 && len(b.Absent) == 0
}

// ProcessResult is the outcome of running one document through the pipeline
type ProcessResult struct {
	Bundle       ReportBundle    `json:"bundle"`
	Unrecognized []StudentRecord `json:"unrecognized"` // matched rows whose value token was not understood
	Matched      int             `json:"matched"`
	Incomplete   int             `json:"incomplete"`
	Method       string          `json:"method"` // "text-layer" or "ocr"
	FallbackUsed bool            `json:"fallbackUsed"`
}

// StoredReport is the summary kept alongside a stored workbook
type StoredReport struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Method       string    `json:"method"`
	FallbackUsed bool      `json:"fallbackUsed"`
	Passed       int       `json:"passed"`
	Failed       int       `json:"failed"`
	Absent       int       `json:"absent"`
	Unrecognized int       `json:"unrecognized"`
	Matched      int       `json:"matched"`
	Incomplete   int       `json:"incomplete"`
	CreatedAt    time.Time `json:"createdAt"`
}
