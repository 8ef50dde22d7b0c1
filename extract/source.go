// Package extract turns uploaded PDF and image documents into plain text.
//
// PDFs are read from their text layer first. When that yields nothing but
// whitespace the pages are rasterized and passed through OCR. Images always go
// through OCR.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// TextLayerReader returns the embedded text of every PDF page, in page order
type TextLayerReader interface {
	PageTexts(ctx context.Context, pdf []byte) ([]string, error)
}

// Rasterizer renders every PDF page to an encoded image, in page order
type Rasterizer interface {
	RasterizePages(ctx context.Context, pdf []byte) ([][]byte, error)
}

// OCREngine recognizes text in a single encoded image
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Method names the strategy that produced a Text
type Method string

const (
	MethodTextLayer Method = "text-layer"
	MethodOCR       Method = "ocr"
)

// Text is the text of one document and how it was obtained
type Text struct {
	Content      string
	Method       Method
	Pages        int
	FallbackUsed bool // true when a PDF had no text layer and OCR was used
}

// Source extracts text using a text-layer reader, a rasterizer and an OCR engine
type Source struct {
	reader     TextLayerReader
	rasterizer Rasterizer
	ocr        OCREngine
	logger     *zap.Logger
}

// NewSource creates a Source. A nil OCR engine makes every OCR attempt fail.
func NewSource(reader TextLayerReader, rasterizer Rasterizer, ocr OCREngine, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		reader:     reader,
		rasterizer: rasterizer,
		ocr:        ocr,
		logger:     logger,
	}
}

// ExtractText reads data as format. Each strategy runs at most once.
func (s *Source) ExtractText(ctx context.Context, data []byte, format Format) (*Text, error) {
	switch format {
	case FormatPDF:
		return s.extractPDF(ctx, data)
	case FormatPNG, FormatJPEG:
		content, err := s.recognize(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}
		return &Text{Content: content, Method: MethodOCR, Pages: 1}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func (s *Source) extractPDF(ctx context.Context, data []byte) (*Text, error) {
	var failures *multierror.Error

	pages, err := s.readTextLayer(ctx, data)
	if err != nil {
		s.logger.Warn("PDF text layer unreadable, trying OCR", zap.Error(err))
		failures = multierror.Append(failures, fmt.Errorf("text layer: %w", err))
	} else {
		content := strings.Join(pages, "\n")
		if strings.TrimSpace(content) != "" {
			return &Text{Content: content, Method: MethodTextLayer, Pages: len(pages)}, nil
		}
		s.logger.Info("PDF has no text layer, attempting OCR", zap.Int("pages", len(pages)))
	}

	content, n, err := s.ocrPages(ctx, data)
	if err != nil {
		failures = multierror.Append(failures, fmt.Errorf("ocr: %w", err))
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, failures.ErrorOrNil())
	}
	return &Text{Content: content, Method: MethodOCR, Pages: n, FallbackUsed: true}, nil
}

func (s *Source) readTextLayer(ctx context.Context, data []byte) ([]string, error) {
	if s.reader == nil {
		return nil, errors.New("no text layer reader configured")
	}
	return s.reader.PageTexts(ctx, data)
}

// ocrPages rasterizes the PDF and recognizes each page in order.
func (s *Source) ocrPages(ctx context.Context, data []byte) (string, int, error) {
	if s.rasterizer == nil {
		return "", 0, errors.New("no rasterizer configured")
	}
	images, err := s.rasterizer.RasterizePages(ctx, data)
	if err != nil {
		return "", 0, fmt.Errorf("rasterize: %w", err)
	}
	texts := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		text, err := s.recognize(ctx, img)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		s.logger.Debug("OCR page done", zap.Int("page", i+1), zap.Int("chars", len(text)))
		texts = append(texts, text)
	}
	return strings.Join(texts, "\n"), len(images), nil
}

func (s *Source) recognize(ctx context.Context, img []byte) (string, error) {
	if s.ocr == nil {
		return "", errors.New("no OCR engine configured")
	}
	return s.ocr.Recognize(ctx, img)
}
