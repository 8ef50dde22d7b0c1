// Package mupdf reads PDF text layers and rasterizes pages for extract.Source.
// It needs cgo and MuPDF, so only the server binary imports it.
package mupdf

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the rasterization resolution used when none is configured
const DefaultDPI = 300

// Reader implements extract.TextLayerReader and extract.Rasterizer
type Reader struct {
	dpi float64
}

// NewReader creates a Reader rendering at dpi
func NewReader(dpi float64) *Reader {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Reader{dpi: dpi}
}

// PageTexts implements extract.TextLayerReader
func (r *Reader) PageTexts(ctx context.Context, pdf []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(n)
		if err != nil {
			return nil, fmt.Errorf("read text of page %d: %w", n+1, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// RasterizePages implements extract.Rasterizer. Pages are encoded as PNG.
func (r *Reader) RasterizePages(ctx context.Context, pdf []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	images := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(n, r.dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n+1, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", n+1, err)
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}
