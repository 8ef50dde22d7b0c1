// Package marks turns extracted document text into classified student records.
package marks

import (
	"errors"
	"fmt"
	"regexp"

	"marksheet-server-go/models"
)

// DefaultPattern finds "<enrollment> <name> <value>" rows. The enrollment is a
// digit-leading token of at least five characters, the name is one or more
// alphabetic words on one line and the value is a decimal mark or an absence
// token that ends its line. A row missing its value never borrows the next
// row's enrollment number.
const DefaultPattern = `\b(?P<enrollment>\d[A-Z\d]{4,})\s+` +
	`(?P<name>[A-Za-z]+(?:[ \t]+[A-Za-z]+)*?)\s+` +
	`(?P<value>\d+(?:\.\d+)?|(?i:absent|none|a))[ \t]*(?:\r?\n|$)`

// Group names every record pattern must define.
const (
	groupEnrollment = "enrollment"
	groupName       = "name"
	groupValue      = "value"
)

// Extractor locates candidate record rows in a block of text
type Extractor struct {
	re         *regexp.Regexp
	enrollment int
	name       int
	value      int
}

var defaultExtractor = MustExtractor(DefaultPattern)

// DefaultExtractor returns the extractor built from DefaultPattern
func DefaultExtractor() *Extractor {
	return defaultExtractor
}

// NewExtractor compiles pattern, which must define the named groups
// "enrollment", "name" and "value".
func NewExtractor(pattern string) (*Extractor, error) {
	if pattern == "" {
		return nil, errors.New("record pattern cannot be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid record pattern: %w", err)
	}
	e := &Extractor{
		re:         re,
		enrollment: re.SubexpIndex(groupEnrollment),
		name:       re.SubexpIndex(groupName),
		value:      re.SubexpIndex(groupValue),
	}
	if e.enrollment < 0 || e.name < 0 || e.value < 0 {
		return nil, fmt.Errorf("record pattern must define the groups %q, %q and %q",
			groupEnrollment, groupName, groupValue)
	}
	return e, nil
}

// MustExtractor is like NewExtractor but panics on an invalid pattern
func MustExtractor(pattern string) *Extractor {
	e, err := NewExtractor(pattern)
	if err != nil {
		panic(err)
	}
	return e
}

// Pattern returns the source of the compiled record pattern
func (e *Extractor) Pattern() string {
	return e.re.String()
}

// Extract scans text left to right and returns one RawMatch per
// non-overlapping match. Lines that do not fit the pattern are skipped.
func (e *Extractor) Extract(text string) []models.RawMatch {
	found := e.re.FindAllStringSubmatch(text, -1)
	matches := make([]models.RawMatch, 0, len(found))
	for _, m := range found {
		matches = append(matches, models.RawMatch{
			EnrollmentText: m[e.enrollment],
			NameText:       m[e.name],
			ValueText:      m[e.value],
		})
	}
	return matches
}
