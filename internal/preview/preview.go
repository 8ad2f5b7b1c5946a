// Package preview renders document pages to JPEG for quick inspection
// without shipping the whole file.
package preview

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Options bounds the render.
type Options struct {
	DPI     int
	Quality int
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = 150
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 90
	}
	return o
}

// Page renders the 1-based page of the document at path as JPEG bytes.
func Page(path string, pageNum int, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer doc.Close()

	if pageNum < 1 || pageNum > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", pageNum, doc.NumPage())
	}

	// go-fitz pages are 0-based.
	img, err := doc.ImageDPI(pageNum-1, float64(opts.DPI))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNum, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	log.Debug().
		Str("file", path).
		Int("page", pageNum).
		Int("dpi", opts.DPI).
		Int("size", buf.Len()).
		Msg("rendered preview")
	return buf.Bytes(), nil
}

// FirstPage renders page 1.
func FirstPage(path string, opts Options) ([]byte, error) {
	return Page(path, 1, opts)
}
