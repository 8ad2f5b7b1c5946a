package preview

import (
	"bytes"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

func makePDF(t *testing.T, path string, pages int) {
	t.Helper()
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 595.28, Ht: 841.89}})
	doc.SetFont("Helvetica", "", 24)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Text(72, 100, "preview fixture")
	}
	require.NoError(t, doc.OutputFileAndClose(path))
}

func TestFirstPage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	makePDF(t, path, 2)

	data, err := FirstPage(path, Options{DPI: 72, Quality: 80})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	require.Greater(t, b.Dx(), 0)
	require.Greater(t, b.Dy(), 0)
	// Portrait page renders portrait.
	require.Greater(t, b.Dy(), b.Dx())
}

func TestPageOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	makePDF(t, path, 1)

	_, err := Page(path, 2, Options{})
	require.Error(t, err)
	_, err = Page(path, 0, Options{})
	require.Error(t, err)
}

func TestPageBadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))

	_, err := FirstPage(path, Options{})
	require.Error(t, err)
}
