package pdfops

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageDim is the footprint of one page in PDF points.
type PageDim struct {
	Width  float64
	Height float64
}

// DocInfo is a diagnostic snapshot of one document.
type DocInfo struct {
	Path      string
	PageCount int
	Pages     []PageDim
}

// Inspect returns the page count and per-page dimensions of the
// document at path.
func Inspect(path string) (*DocInfo, error) {
	n, err := PageCount(path)
	if err != nil {
		return nil, err
	}
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions of %s: %w", path, err)
	}
	pages := make([]PageDim, 0, len(dims))
	for _, d := range dims {
		pages = append(pages, PageDim{Width: d.Width, Height: d.Height})
	}
	return &DocInfo{Path: path, PageCount: n, Pages: pages}, nil
}
