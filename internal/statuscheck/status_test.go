package statuscheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func TestSummaryAllHealthy(t *testing.T) {
	c := New(Options{
		Redis:    fakePinger{},
		TempDir:  t.TempDir(),
		SpoolDir: t.TempDir(),
	})

	sum := c.Summary(context.Background())
	require.True(t, sum.Healthy())
	require.Equal(t, "Connected", sum.Store.Message)
	require.True(t, sum.TempDir.OK)
	require.True(t, sum.Spool.OK)
}

func TestSummaryWithoutRedis(t *testing.T) {
	c := New(Options{TempDir: t.TempDir(), SpoolDir: t.TempDir()})

	sum := c.Summary(context.Background())
	require.True(t, sum.Healthy())
	require.Equal(t, "In-memory", sum.Store.Message)
}

func TestSummaryRedisFailure(t *testing.T) {
	c := New(Options{
		Redis:    fakePinger{err: errors.New("connection refused")},
		TempDir:  t.TempDir(),
		SpoolDir: t.TempDir(),
	})

	sum := c.Summary(context.Background())
	require.False(t, sum.Healthy())
	require.False(t, sum.Store.OK)
	require.Contains(t, sum.Store.Message, "connection refused")
}

func TestSummaryBadSpoolDir(t *testing.T) {
	// A regular file where a directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	c := New(Options{TempDir: t.TempDir(), SpoolDir: filepath.Join(blocker, "spool")})

	sum := c.Summary(context.Background())
	require.False(t, sum.Healthy())
	require.False(t, sum.Spool.OK)
}

func TestSummaryEmptySpoolDir(t *testing.T) {
	c := New(Options{TempDir: t.TempDir()})

	sum := c.Summary(context.Background())
	require.False(t, sum.Spool.OK)
	require.Equal(t, "Not configured", sum.Spool.Message)
}
