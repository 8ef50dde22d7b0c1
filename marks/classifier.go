package marks

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"marksheet-server-go/models"
)

// PassMark is the lowest mark that passes.
const PassMark = 7

// ErrIncompleteRecord is returned when a match lacks an enrollment number or name
var ErrIncompleteRecord = errors.New("incomplete record")

// statusPresent marks a record that has a numeric mark but no verdict yet
const statusPresent models.Status = "Present"

var absentTokens = map[string]struct{}{
	"a":      {},
	"absent": {},
	"none":   {},
}

// Classify validates raw and resolves its mark and status. Numeric values are
// rounded up, so 6.1 becomes 7 and passes.
func Classify(raw models.RawMatch) (models.StudentRecord, error) {
	rec, err := provisional(raw)
	if err != nil {
		return models.StudentRecord{}, err
	}
	return resolve(rec), nil
}

// provisional trims identity fields and reads the value token without
// applying the pass threshold.
func provisional(raw models.RawMatch) (models.StudentRecord, error) {
	rec := models.StudentRecord{
		EnrollmentNo: strings.TrimSpace(raw.EnrollmentText),
		Name:         strings.TrimSpace(raw.NameText),
	}
	if rec.EnrollmentNo == "" || rec.Name == "" {
		return models.StudentRecord{}, ErrIncompleteRecord
	}

	value := strings.TrimSpace(raw.ValueText)
	if mark, ok := parseMark(value); ok {
		rec.Mark = &mark
		rec.Status = statusPresent
		return rec, nil
	}
	if _, ok := absentTokens[strings.ToLower(value)]; ok {
		rec.Status = models.StatusAbsent
		return rec, nil
	}
	rec.Status = models.StatusUnknown
	return rec, nil
}

// resolve turns a numeric mark into Pass or Fail. Absent and Unknown are kept.
func resolve(rec models.StudentRecord) models.StudentRecord {
	if rec.Mark == nil {
		return rec
	}
	if *rec.Mark >= PassMark {
		rec.Status = models.StatusPass
	} else {
		rec.Status = models.StatusFail
	}
	return rec
}

// parseMark accepts ASCII digits with at most one decimal point and returns
// the ceiling of the value. Values that do not fit in an int are rejected.
func parseMark(s string) (int, bool) {
	digits := strings.Replace(s, ".", "", 1)
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	c := math.Ceil(v)
	// float64(math.MaxInt) rounds up to 2^63 on 64-bit builds
	if c >= float64(math.MaxInt) {
		return 0, false
	}
	return int(c), true
}
