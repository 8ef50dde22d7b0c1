package marks

import "marksheet-server-go/models"

// Partition routes records into the Passed, Failed and Absent buckets,
// keeping their relative order. Unknown records are left out.
func Partition(records []models.StudentRecord) models.ReportBundle {
	bundle := models.ReportBundle{
		Passed: []models.StudentRecord{},
		Failed: []models.StudentRecord{},
		Absent: []models.StudentRecord{},
	}
	for _, rec := range records {
		switch rec.Status {
		case models.StatusPass:
			bundle.Passed = append(bundle.Passed, rec)
		case models.StatusFail:
			bundle.Failed = append(bundle.Failed, rec)
		case models.StatusAbsent:
			bundle.Absent = append(bundle.Absent, rec)
		}
	}
	return bundle
}
