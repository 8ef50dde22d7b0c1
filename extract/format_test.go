package extract

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodedImage(t *testing.T, format Format) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	var err error
	if format == FormatJPEG {
		err = jpeg.Encode(&buf, img, nil)
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestFormatFromFilename(t *testing.T) {
	testCases := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{"marks.pdf", FormatPDF, false},
		{"MARKS.PDF", FormatPDF, false},
		{"scan.png", FormatPNG, false},
		{"scan.jpg", FormatJPEG, false},
		{"scan.JPEG", FormatJPEG, false},
		{"marks.xlsx", "", true},
		{"marks", "", true},
		{"scan.tiff", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			got, err := FormatFromFilename(tc.filename)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")
	pngData := encodedImage(t, FormatPNG)
	jpegData := encodedImage(t, FormatJPEG)

	testCases := []struct {
		name     string
		filename string
		data     []byte
		want     Format
		wantErr  bool
	}{
		{"PDF", "marks.pdf", pdf, FormatPDF, false},
		{"PNG", "scan.png", pngData, FormatPNG, false},
		{"JPEG", "scan.jpg", jpegData, FormatJPEG, false},
		{"PNGNamedPDF", "marks.pdf", pngData, "", true},
		{"TextNamedPNG", "scan.png", []byte("08010123B Alice 8"), "", true},
		{"UnknownExtension", "marks.docx", pdf, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectFormat(tc.filename, tc.data)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
