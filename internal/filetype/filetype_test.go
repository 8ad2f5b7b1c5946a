package filetype

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Kind
	}{
		{"report.pdf", KindDocument},
		{"REPORT.PDF", KindDocument},
		{"/tmp/nested/scan.Pdf", KindDocument},
		{"photo.jpg", KindImage},
		{"photo.JPEG", KindImage},
		{"diagram.png", KindImage},
		{"anim.gif", KindImage},
		{"bitmap.BMP", KindImage},
		{"scan.tiff", KindImage},
		{"scan.tif", KindImage},
		{"archive.tar.png", KindImage},
		{"notes.txt", KindUnsupported},
		{"doc.docx", KindUnsupported},
		{"noext", KindUnsupported},
		{".bashrc", KindUnsupported},
		{"", KindUnsupported},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.path), "path %q", tc.path)
	}
}

func TestClassifyNeverTouchesFilesystem(t *testing.T) {
	// None of these paths exist; classification must still succeed.
	require.Equal(t, KindDocument, Classify("/no/such/dir/ghost.pdf"))
	require.Equal(t, KindImage, Classify("/no/such/dir/ghost.png"))
}

func TestStat(t *testing.T) {
	dir := t.TempDir()

	_, err := Stat(filepath.Join(dir, "missing.pdf"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Stat(dir)
	require.ErrorIs(t, err, ErrNotRegularFile)

	path := filepath.Join(dir, "ok.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))
	fi, err := Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(9), fi.Size())
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Photo.PNG")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o644))

	info, err := Describe(path)
	require.NoError(t, err)
	require.Equal(t, "Photo.PNG", info.Name)
	require.True(t, filepath.IsAbs(info.Path))
	require.Equal(t, int64(16), info.Size)
	require.NotEmpty(t, info.SizeHuman)
	require.Equal(t, ".png", info.Ext)
	require.Equal(t, KindImage, info.Kind)
	require.False(t, info.Modified.IsZero())
	require.Zero(t, info.Pages)

	_, err = Describe(filepath.Join(dir, "gone.pdf"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKindOfMIME(t *testing.T) {
	require.Equal(t, KindDocument, KindOfMIME("application/pdf"))
	require.Equal(t, KindImage, KindOfMIME("image/png"))
	require.Equal(t, KindImage, KindOfMIME("image/tiff"))
	require.Equal(t, KindUnsupported, KindOfMIME("text/plain"))
	require.Equal(t, KindUnsupported, KindOfMIME("application/zip"))
}

func TestVerifyContent(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	// PNG bytes behind a .pdf name: extension says document, content says image.
	masked := filepath.Join(dir, "masked.pdf")
	require.NoError(t, os.WriteFile(masked, buf.Bytes(), 0o644))
	err := VerifyContent(masked)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	honest := filepath.Join(dir, "honest.png")
	require.NoError(t, os.WriteFile(honest, buf.Bytes(), 0o644))
	require.NoError(t, VerifyContent(honest))

	_, err = Sniff(filepath.Join(dir, "missing.png"))
	require.Error(t, err)
}
