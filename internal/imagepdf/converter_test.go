package imagepdf

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/local/pdfstitch/internal/filetype"
	"github.com/local/pdfstitch/internal/pdfops"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".jpg", ".jpeg":
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 85}))
	case ".gif":
		require.NoError(t, gif.Encode(f, img, nil))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	case ".tif", ".tiff":
		require.NoError(t, tiff.Encode(f, img, nil))
	default:
		t.Fatalf("no encoder for fixture %s", path)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestFitRect(t *testing.T) {
	cases := []struct {
		name string
		w, h float64
		x, y float64
		dw   float64
		dh   float64
	}{
		{"square fills width", 100, 100, 0, 123.305, 595.28, 595.28},
		{"wide fills width", 200, 100, 0, 272.125, 595.28, 297.64},
		{"tall fills height", 100, 400, 192.40375, 0, 210.4725, 841.89},
		{"small is upscaled", 10, 10, 0, 123.305, 595.28, 595.28},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y, dw, dh := fitRect(tc.w, tc.h, A4)
			require.InDelta(t, tc.x, x, 0.001)
			require.InDelta(t, tc.y, y, 0.001)
			require.InDelta(t, tc.dw, dw, 0.001)
			require.InDelta(t, tc.dh, dh, 0.001)
			// Aspect ratio of the drawn rectangle matches the source.
			require.InDelta(t, tc.w/tc.h, dw/dh, 0.0001)
			// The drawn rectangle never exceeds the page.
			require.LessOrEqual(t, dw, A4.Width+0.001)
			require.LessOrEqual(t, dh, A4.Height+0.001)
		})
	}
}

func TestRenderPage(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.png")
	writeImage(t, img, 120, 80)

	conv := New(Options{})
	out := filepath.Join(dir, "photo_page.pdf")
	got, err := conv.RenderPage(img, out)
	require.NoError(t, err)
	require.Equal(t, out, got)

	info, err := pdfops.Inspect(out)
	require.NoError(t, err)
	require.Equal(t, 1, info.PageCount)
	require.InDelta(t, A4.Width, info.Pages[0].Width, 0.5)
	require.InDelta(t, A4.Height, info.Pages[0].Height, 0.5)
}

func TestRenderPageCustomSize(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "wide.jpg")
	writeImage(t, img, 300, 100)

	conv := New(Options{Page: Letter.Landscape()})
	out := filepath.Join(dir, "wide.pdf")
	_, err := conv.RenderPage(img, out)
	require.NoError(t, err)

	info, err := pdfops.Inspect(out)
	require.NoError(t, err)
	require.Equal(t, 1, info.PageCount)
	require.InDelta(t, Letter.Height, info.Pages[0].Width, 0.5)
	require.InDelta(t, Letter.Width, info.Pages[0].Height, 0.5)
}

func TestRenderPageDerivesOutputName(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "scan.png")
	writeImage(t, img, 40, 40)
	chdir(t, dir)

	conv := New(Options{})
	got, err := conv.RenderPage(img, "")
	require.NoError(t, err)
	require.Equal(t, "scan.pdf", got)
	require.FileExists(t, filepath.Join(dir, "scan.pdf"))
}

func TestRenderPageValidation(t *testing.T) {
	dir := t.TempDir()
	conv := New(Options{})

	// Wrong kind reports the format error before the existence check,
	// and before any output activity.
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	out := filepath.Join(dir, "never.pdf")
	_, err := conv.RenderPage(txt, out)
	require.ErrorIs(t, err, filetype.ErrUnsupportedFormat)
	require.NoFileExists(t, out)

	_, err = conv.RenderPage(filepath.Join(dir, "ghost.txt"), out)
	require.ErrorIs(t, err, filetype.ErrUnsupportedFormat)

	_, err = conv.RenderPage(filepath.Join(dir, "ghost.png"), out)
	require.ErrorIs(t, err, filetype.ErrNotFound)
	require.NoFileExists(t, out)
}

func TestRenderPagesMixedFormats(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.gif"),
		filepath.Join(dir, "d.bmp"),
		filepath.Join(dir, "e.tiff"),
	}
	for i, p := range paths {
		writeImage(t, p, 50+10*i, 60)
	}

	conv := New(Options{})
	out := filepath.Join(dir, "album.pdf")
	_, err := conv.RenderPages(paths, out)
	require.NoError(t, err)

	n, err := pdfops.PageCount(out)
	require.NoError(t, err)
	require.Equal(t, len(paths), n)
}

func TestRenderPagesEmpty(t *testing.T) {
	conv := New(Options{})
	_, err := conv.RenderPages(nil, filepath.Join(t.TempDir(), "out.pdf"))
	require.ErrorIs(t, err, ErrNoImages)
}

func TestRenderPagesAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writeImage(t, good, 30, 30)

	conv := New(Options{})
	out := filepath.Join(dir, "partial.pdf")
	_, err := conv.RenderPages([]string{good, filepath.Join(dir, "ghost.png")}, out)
	require.ErrorIs(t, err, filetype.ErrNotFound)
	require.NoFileExists(t, out)
}

func TestTransientSweep(t *testing.T) {
	dir := t.TempDir()
	scratch := t.TempDir()
	img := filepath.Join(dir, "pic.png")
	writeImage(t, img, 25, 25)

	conv := New(Options{TempDir: scratch})
	_, err := conv.RenderPage(img, filepath.Join(dir, "pic_page.pdf"))
	require.NoError(t, err)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSizeByName(t *testing.T) {
	got, err := SizeByName("")
	require.NoError(t, err)
	require.Equal(t, A4, got)

	got, err = SizeByName("Letter")
	require.NoError(t, err)
	require.Equal(t, Letter, got)

	got, err = SizeByName("LEGAL")
	require.NoError(t, err)
	require.Equal(t, Legal, got)

	_, err = SizeByName("tabloid")
	require.Error(t, err)

	land := A4.Landscape()
	require.Equal(t, A4.Height, land.Width)
	require.Equal(t, A4.Width, land.Height)
}
