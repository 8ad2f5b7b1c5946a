package statuscheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Checker aggregates health checks for the dependencies the stitch server
// needs to accept work.
type Checker struct {
	redis    RedisPinger
	tempDir  string
	spoolDir string
}

// Options configures the Checker.
type Options struct {
	Redis    RedisPinger
	TempDir  string
	SpoolDir string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the readiness endpoint.
type Summary struct {
	Store   Status `json:"store"`
	TempDir Status `json:"temp_dir"`
	Spool   Status `json:"spool"`
}

// Healthy reports whether every subsystem is ready.
func (s Summary) Healthy() bool {
	return s.Store.OK && s.TempDir.OK && s.Spool.OK
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Checker{
		redis:    opts.Redis,
		tempDir:  tempDir,
		spoolDir: opts.SpoolDir,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Store:   c.checkStore(ctx),
		TempDir: checkDir(c.tempDir),
		Spool:   checkDir(c.spoolDir),
	}
}

func (c *Checker) checkStore(ctx context.Context) Status {
	if c.redis == nil {
		// The in-memory store has no external dependency to probe.
		return Status{OK: true, Message: "In-memory"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

// checkDir verifies the directory exists and accepts writes, since both the
// scratch space and the spool are useless without that.
func checkDir(dir string) Status {
	if dir == "" {
		return Status{OK: false, Message: "Not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	probe, err := os.CreateTemp(dir, "probe-*")
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return Status{OK: true, Message: "Writable " + filepath.Clean(dir)}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
