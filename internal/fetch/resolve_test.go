package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLocalPassthrough(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(local, []byte("%PDF-1.4\n"), 0o644))

	r := New(Options{})

	got, cleanup, err := r.Resolve(context.Background(), local)
	require.NoError(t, err)
	require.Equal(t, local, got)
	cleanup()
	require.FileExists(t, local)

	got, cleanup, err = r.Resolve(context.Background(), "file://"+local)
	require.NoError(t, err)
	require.Equal(t, local, got)
	cleanup()
	require.FileExists(t, local)
}

func TestResolveHTTP(t *testing.T) {
	payload := []byte("%PDF-1.4 fake body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "missing.pdf") {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	scratch := t.TempDir()
	r := New(Options{TempDir: scratch})

	local, cleanup, err := r.Resolve(context.Background(), srv.URL+"/files/scan.pdf")
	require.NoError(t, err)
	require.NotEqual(t, srv.URL, local)
	require.Equal(t, ".pdf", filepath.Ext(local))
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	require.Equal(t, payload, data)

	cleanup()
	require.NoFileExists(t, local)

	_, _, err = r.Resolve(context.Background(), srv.URL+"/files/missing.pdf")
	require.Error(t, err)

	// Nothing left behind in the scratch directory.
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestResolveHTTPKeepsImageExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("png-ish"))
	}))
	defer srv.Close()

	r := New(Options{TempDir: t.TempDir()})
	local, cleanup, err := r.Resolve(context.Background(), srv.URL+"/photo.PNG?sig=abc")
	require.NoError(t, err)
	defer cleanup()
	require.Equal(t, ".png", filepath.Ext(local))
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://files/inbox/a.pdf")
	require.NoError(t, err)
	require.Equal(t, "files", bucket)
	require.Equal(t, "inbox/a.pdf", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key", "http://x/y", "plain.pdf"} {
		_, _, err := ParseS3URL(bad)
		require.Error(t, err, "ref %q", bad)
	}
}

func TestIsRemote(t *testing.T) {
	require.True(t, IsRemote("s3://b/k.pdf"))
	require.True(t, IsRemote("http://host/x.pdf"))
	require.True(t, IsRemote("https://host/x.pdf"))
	require.False(t, IsRemote("file:///tmp/x.pdf"))
	require.False(t, IsRemote("/tmp/x.pdf"))
	require.False(t, IsRemote("relative.pdf"))
}
