package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is the declared type of an uploaded document
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

var (
	// ErrUnsupportedFormat is returned for documents that are not PDF, PNG or JPEG
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrExtractionFailed is returned when no strategy could read the document
	ErrExtractionFailed = errors.New("extraction failed")
)

var mimeByFormat = map[Format]string{
	FormatPDF:  "application/pdf",
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
}

// SupportedExtensions lists the accepted upload extensions
func SupportedExtensions() []string {
	return []string{"pdf", "png", "jpeg", "jpg"}
}

// FormatFromFilename maps a filename extension to a Format
func FormatFromFilename(filename string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "pdf":
		return FormatPDF, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions(), ", "))
	}
}

// DetectFormat resolves the declared format from filename and checks that the
// content agrees with it.
func DetectFormat(filename string, data []byte) (Format, error) {
	format, err := FormatFromFilename(filename)
	if err != nil {
		return "", err
	}
	detected := mimetype.Detect(data)
	if !detected.Is(mimeByFormat[format]) {
		return "", fmt.Errorf("%w: %s content is %s", ErrUnsupportedFormat, format, detected.String())
	}
	return format, nil
}
