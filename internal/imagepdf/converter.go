// Package imagepdf renders raster images onto fixed-size document
// pages. Every image becomes exactly one page: decoded, flattened over
// an opaque white background, then scaled to fit the page with its
// aspect ratio preserved and centered on both axes. Small images are
// scaled up, large ones down.
package imagepdf

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstitch/internal/filetype"

	// Registered image decoders. GIF and JPEG come from the standard
	// library, BMP and TIFF from golang.org/x/image.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrNoImages means a multi-image render was asked for zero images.
var ErrNoImages = errors.New("no input images provided")

// Options configures a Converter. Zero values mean A4 portrait and the
// OS temp directory.
type Options struct {
	Page    PageSize
	TempDir string
}

// Converter renders images onto pages of one fixed size.
type Converter struct {
	page    PageSize
	tempDir string
}

// New returns a Converter for the given options.
func New(opts Options) *Converter {
	if opts.Page.Width <= 0 || opts.Page.Height <= 0 {
		opts.Page = A4
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Converter{page: opts.Page, tempDir: opts.TempDir}
}

// Page reports the configured page size.
func (c *Converter) Page() PageSize { return c.page }

// RenderPage renders the image at imagePath onto a single page written
// to outputPath and returns the path written. An empty outputPath
// derives one from the image name with the extension replaced by .pdf,
// in the current directory.
func (c *Converter) RenderPage(imagePath, outputPath string) (string, error) {
	if err := validateImage(imagePath); err != nil {
		return "", err
	}
	if outputPath == "" {
		base := filepath.Base(imagePath)
		outputPath = strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
	}
	doc := c.newDoc()
	if err := c.addImagePage(doc, imagePath); err != nil {
		return "", err
	}
	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	log.Debug().Str("image", imagePath).Str("output", outputPath).Msg("rendered image page")
	return outputPath, nil
}

// RenderPages renders each image onto its own page, in input order,
// into one document at outputPath. Every input is validated before the
// first page is rendered, so a bad input aborts with no output
// artifact.
func (c *Converter) RenderPages(imagePaths []string, outputPath string) (string, error) {
	if len(imagePaths) == 0 {
		return "", ErrNoImages
	}
	for _, p := range imagePaths {
		if err := validateImage(p); err != nil {
			return "", err
		}
	}
	doc := c.newDoc()
	for _, p := range imagePaths {
		if err := c.addImagePage(doc, p); err != nil {
			return "", err
		}
	}
	if err := doc.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	log.Debug().Int("images", len(imagePaths)).Str("output", outputPath).Msg("rendered image pages")
	return outputPath, nil
}

// validateImage checks format before existence so a wrong-kind path
// reports the format error even when the file is also absent.
func validateImage(path string) error {
	if filetype.Classify(path) != filetype.KindImage {
		return fmt.Errorf("%w: %s", filetype.ErrUnsupportedFormat, path)
	}
	if _, err := filetype.Stat(path); err != nil {
		return err
	}
	return nil
}

func (c *Converter) newDoc() *gofpdf.Fpdf {
	size := gofpdf.SizeType{Wd: c.page.Width, Ht: c.page.Height}
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	return doc
}

// addImagePage decodes one image and places it on a fresh page. The
// normalized pixels pass through a transient PNG that never survives
// the call.
func (c *Converter) addImagePage(doc *gofpdf.Fpdf, imagePath string) error {
	img, err := decodeImage(imagePath)
	if err != nil {
		return err
	}
	flat := flattenWhite(img)

	tmp, err := os.CreateTemp(c.tempDir, "pdfstitch-img-*.png")
	if err != nil {
		return fmt.Errorf("failed to create transient image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmp, flat); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode transient image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close transient image: %w", err)
	}

	w := float64(flat.Bounds().Dx())
	h := float64(flat.Bounds().Dy())
	x, y, drawW, drawH := fitRect(w, h, c.page)

	doc.AddPage()
	doc.ImageOptions(tmpPath, x, y, drawW, drawH, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if doc.Err() {
		return fmt.Errorf("failed to place %s: %w", imagePath, doc.Error())
	}
	log.Debug().
		Str("image", imagePath).
		Float64("w", drawW).
		Float64("h", drawH).
		Float64("x", x).
		Float64("y", y).
		Msg("placed image on page")
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// flattenWhite composites img over an opaque white background, bringing
// palette, grayscale, CMYK and alpha sources down to plain 8-bit RGB.
// Lossy for non-RGB sources, intentionally.
func flattenWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)
	return flat
}

// fitRect computes the centered, aspect-preserving placement of a w by
// h image on page: scale is min(pageW/w, pageH/h), so one axis fills
// the page and the slack on the other splits evenly.
func fitRect(w, h float64, page PageSize) (x, y, drawW, drawH float64) {
	scale := math.Min(page.Width/w, page.Height/h)
	drawW = w * scale
	drawH = h * scale
	x = (page.Width - drawW) / 2
	y = (page.Height - drawH) / 2
	return x, y, drawW, drawH
}
