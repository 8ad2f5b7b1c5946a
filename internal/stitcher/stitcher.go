// Package stitcher assembles an ordered queue of documents and images
// into a single paginated document. The lifecycle is explicit:
// accumulate inputs, stitch once, sweep every transient artifact. A
// Stitcher is not safe for concurrent use; callers wanting parallelism
// run whole jobs side by side, each with its own Stitcher.
package stitcher

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstitch/internal/filetype"
	"github.com/local/pdfstitch/internal/imagepdf"
	"github.com/local/pdfstitch/internal/pdfops"
)

// Input is one queue entry.
type Input struct {
	Path string
	Kind filetype.Kind
}

// Options configures a Stitcher. The zero value renders image pages on
// A4 portrait and keeps transient artifacts in the OS temp directory.
type Options struct {
	Page    imagepdf.PageSize
	TempDir string
}

// Stitcher accumulates inputs and assembles them in queue order.
type Stitcher struct {
	queue      []Input
	transients []string
	conv       *imagepdf.Converter
	tempDir    string
}

// New returns an empty Stitcher.
func New(opts Options) *Stitcher {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	return &Stitcher{
		conv:    imagepdf.New(imagepdf.Options{Page: opts.Page, TempDir: opts.TempDir}),
		tempDir: opts.TempDir,
	}
}

// AddPDF queues a paginated document.
func (s *Stitcher) AddPDF(path string) error {
	return s.add(path, filetype.KindDocument)
}

// AddImage queues a raster image.
func (s *Stitcher) AddImage(path string) error {
	return s.add(path, filetype.KindImage)
}

func (s *Stitcher) add(path string, want filetype.Kind) error {
	if _, err := filetype.Stat(path); err != nil {
		return err
	}
	if kind := filetype.Classify(path); kind != want {
		return fmt.Errorf("%w: %s is not a %s", filetype.ErrUnsupportedFormat, path, want)
	}
	s.queue = append(s.queue, Input{Path: path, Kind: want})
	log.Debug().Str("file", path).Str("kind", want.String()).Msg("queued input")
	return nil
}

// AddFile queues a path after classifying it.
func (s *Stitcher) AddFile(path string) error {
	if _, err := filetype.Stat(path); err != nil {
		return err
	}
	kind := filetype.Classify(path)
	if kind == filetype.KindUnsupported {
		return fmt.Errorf("%w: %s", filetype.ErrUnsupportedFormat, path)
	}
	s.queue = append(s.queue, Input{Path: path, Kind: kind})
	log.Debug().Str("file", path).Str("kind", kind.String()).Msg("queued input")
	return nil
}

// AddFiles queues each path in order. The first failure aborts and is
// returned; entries queued before it remain queued.
func (s *Stitcher) AddFiles(paths []string) error {
	for _, p := range paths {
		if err := s.AddFile(p); err != nil {
			return err
		}
	}
	return nil
}

// Count reports the number of queued inputs.
func (s *Stitcher) Count() int { return len(s.queue) }

// Files returns a copy of the queue in assembly order.
func (s *Stitcher) Files() []Input {
	out := make([]Input, len(s.queue))
	copy(out, s.queue)
	return out
}

// Clear empties the queue and sweeps transient artifacts.
func (s *Stitcher) Clear() {
	s.queue = nil
	s.sweepTransients()
}

// Close releases the Stitcher, sweeping any transient artifacts. Safe
// to call after a failed Stitch and safe to call twice.
func (s *Stitcher) Close() {
	s.sweepTransients()
}

// Stitch assembles the queued inputs, in order, into outputPath and
// returns the path written. Documents contribute all their pages,
// images one page each, rendered through transient documents that are
// swept before Stitch returns, success or failure. The queue is left
// intact so a failed call can be retried.
func (s *Stitcher) Stitch(outputPath string) (string, error) {
	if len(s.queue) == 0 {
		return "", ErrEmptyQueue
	}
	defer s.sweepTransients()

	parts := make([]string, 0, len(s.queue))
	for _, in := range s.queue {
		if in.Kind == filetype.KindImage {
			part, err := s.renderTransient(in.Path)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
			continue
		}
		parts = append(parts, in.Path)
	}
	if err := pdfops.MergeFiles(parts, outputPath); err != nil {
		return "", err
	}
	log.Info().Int("inputs", len(s.queue)).Str("output", outputPath).Msg("stitched document")
	return outputPath, nil
}

// renderTransient renders one image into a freshly allocated transient
// document. The path is registered for cleanup before rendering so a
// partial render is still swept.
func (s *Stitcher) renderTransient(imagePath string) (string, error) {
	tmp, err := os.CreateTemp(s.tempDir, "pdfstitch-page-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create transient document: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	s.transients = append(s.transients, path)
	if _, err := s.conv.RenderPage(imagePath, path); err != nil {
		return "", err
	}
	return path, nil
}

// sweepTransients best-effort deletes registered transients. Deletion
// errors are swallowed after a debug log.
func (s *Stitcher) sweepTransients() {
	for _, p := range s.transients {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Debug().Str("file", p).Err(err).Msg("failed to remove transient")
		}
	}
	s.transients = nil
}
