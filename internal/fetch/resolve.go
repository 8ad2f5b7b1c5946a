// Package fetch resolves input refs to local files and pushes assembled
// outputs back out. Supported ref schemes: plain filesystem paths,
// file://, http(s):// and s3://bucket/key.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures a Resolver. Zero values mean the OS temp directory
// and a 60 second HTTP timeout.
type Options struct {
	TempDir     string
	HTTPTimeout time.Duration
}

// Resolver downloads remote refs into a scratch directory.
type Resolver struct {
	httpClient *http.Client
	tempDir    string
}

// New returns a Resolver for the given options.
func New(opts Options) *Resolver {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 60 * time.Second
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: opts.HTTPTimeout},
		tempDir:    opts.TempDir,
	}
}

// IsRemote reports whether ref needs a download before local use.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "s3://") ||
		strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://")
}

// Resolve returns a local path for ref plus a cleanup func releasing
// any temp download. The cleanup never touches caller-owned files and
// is safe to call unconditionally.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, func(), error) {
	noop := func() {}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		local, err := r.downloadS3(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return local, func() { _ = os.Remove(local) }, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		local, err := r.downloadHTTP(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return local, func() { _ = os.Remove(local) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), noop, nil
	default:
		return ref, noop, nil
	}
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %s", ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 url: %s", ref)
	}
	return bucket, key, nil
}

func (r *Resolver) downloadHTTP(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: http %d", rawURL, resp.StatusCode)
	}

	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	local, err := r.spool(resp.Body, ext)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	log.Debug().Str("url", rawURL).Str("file", filepath.Base(local)).Msg("downloaded input to temp")
	return local, nil
}

func (r *Resolver) downloadS3(ctx context.Context, ref string) (string, error) {
	bucket, key, err := ParseS3URL(ref)
	if err != nil {
		return "", err
	}
	cli, err := newS3Client(ctx)
	if err != nil {
		return "", err
	}
	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", ref, err)
	}
	defer out.Body.Close()

	local, err := r.spool(out.Body, strings.ToLower(path.Ext(key)))
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", ref, err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(local)).Msg("downloaded s3 input to temp")
	return local, nil
}

// spool copies body into a fresh temp file carrying the ref's extension
// so the classifier still sees the right kind. A failed copy sweeps the
// partial file.
func (r *Resolver) spool(body io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp(r.tempDir, "pdfstitch-dl-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func newS3Client(ctx context.Context) (*s3.Client, error) {
	// Region and credentials come from the default chain.
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}
