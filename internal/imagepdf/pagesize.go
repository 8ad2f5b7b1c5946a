package imagepdf

import (
	"fmt"
	"strings"
)

// PageSize is a page footprint in PDF points (1 pt = 1/72 inch).
type PageSize struct {
	Width  float64
	Height float64
}

// Standard portrait sizes.
var (
	A4     = PageSize{Width: 595.28, Height: 841.89}
	Letter = PageSize{Width: 612, Height: 792}
	Legal  = PageSize{Width: 612, Height: 1008}
)

// SizeByName resolves a named page size, case-insensitively. The empty
// name means A4.
func SizeByName(name string) (PageSize, error) {
	switch strings.ToLower(name) {
	case "", "a4":
		return A4, nil
	case "letter":
		return Letter, nil
	case "legal":
		return Legal, nil
	}
	return PageSize{}, fmt.Errorf("unknown page size %q", name)
}

// Landscape returns the size with its axes swapped.
func (p PageSize) Landscape() PageSize {
	return PageSize{Width: p.Height, Height: p.Width}
}
