// Package service runs one uploaded document through the marks pipeline:
// text acquisition, record extraction, classification, partitioning and export.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"marksheet-server-go/export"
	"marksheet-server-go/extract"
	"marksheet-server-go/marks"
	"marksheet-server-go/models"
)

// TextSource produces the text of a document
type TextSource interface {
	ExtractText(ctx context.Context, data []byte, format extract.Format) (*extract.Text, error)
}

// Processor holds the stateless collaborators of the pipeline. Every call
// works on its own data, so one Processor serves concurrent requests.
type Processor struct {
	source    TextSource
	extractor *marks.Extractor
	logger    *zap.Logger
}

// NewProcessor creates a Processor. A nil extractor selects the default record pattern.
func NewProcessor(source TextSource, extractor *marks.Extractor, logger *zap.Logger) *Processor {
	if extractor == nil {
		extractor = marks.DefaultExtractor()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		source:    source,
		extractor: extractor,
		logger:    logger,
	}
}

// Process detects the format of data, extracts its text and classifies the
// records found in it. Errors wrap extract.ErrUnsupportedFormat or
// extract.ErrExtractionFailed.
func (p *Processor) Process(ctx context.Context, filename string, data []byte) (*models.ProcessResult, error) {
	format, err := extract.DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}

	text, err := p.source.ExtractText(ctx, data, format)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", filename, err)
	}

	result := p.Classify(text.Content)
	result.Method = string(text.Method)
	result.FallbackUsed = text.FallbackUsed

	p.logger.Info("document processed",
		zap.String("file", filename),
		zap.String("format", string(format)),
		zap.String("method", result.Method),
		zap.Int("pages", text.Pages),
		zap.Int("matched", result.Matched),
		zap.Int("passed", len(result.Bundle.Passed)),
		zap.Int("failed", len(result.Bundle.Failed)),
		zap.Int("absent", len(result.Bundle.Absent)),
		zap.Int("unrecognized", len(result.Unrecognized)),
		zap.Int("incomplete", result.Incomplete))
	return result, nil
}

// Classify runs extraction, classification and partitioning over text.
// Incomplete records are counted and unrecognized ones reported separately;
// neither stops the run.
func (p *Processor) Classify(text string) *models.ProcessResult {
	raws := p.extractor.Extract(text)
	result := &models.ProcessResult{
		Matched:      len(raws),
		Unrecognized: []models.StudentRecord{},
	}

	records := make([]models.StudentRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := marks.Classify(raw)
		if err != nil {
			if errors.Is(err, marks.ErrIncompleteRecord) {
				result.Incomplete++
				p.logger.Warn("dropping incomplete record",
					zap.String("enrollment", raw.EnrollmentText),
					zap.String("name", raw.NameText),
					zap.String("value", raw.ValueText))
				continue
			}
			p.logger.Error("unexpected classification error", zap.Error(err))
			continue
		}
		if rec.Status == models.StatusUnknown {
			p.logger.Warn("unrecognized mark or status",
				zap.String("enrollment", rec.EnrollmentNo),
				zap.String("value", raw.ValueText))
			result.Unrecognized = append(result.Unrecognized, rec)
		}
		records = append(records, rec)
	}

	result.Bundle = marks.Partition(records)
	return result
}

// Report builds the stored summary and the workbook for a processed document
func (p *Processor) Report(filename string, result *models.ProcessResult) (models.StoredReport, []byte, error) {
	workbook, err := export.Workbook(result.Bundle)
	if err != nil {
		return models.StoredReport{}, nil, fmt.Errorf("build workbook: %w", err)
	}
	report := models.StoredReport{
		ID:           uuid.NewString(),
		Filename:     filename,
		Method:       result.Method,
		FallbackUsed: result.FallbackUsed,
		Passed:       len(result.Bundle.Passed),
		Failed:       len(result.Bundle.Failed),
		Absent:       len(result.Bundle.Absent),
		Unrecognized: len(result.Unrecognized),
		Matched:      result.Matched,
		Incomplete:   result.Incomplete,
		CreatedAt:    time.Now().UTC(),
	}
	return report, workbook, nil
}
