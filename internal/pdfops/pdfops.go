// Package pdfops is the narrow document-codec surface used by the rest
// of the pipeline: page counting, ordered merging, validation and page
// geometry. All operations work on local files; remote refs are
// resolved before the codec is reached.
package pdfops

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstitch/internal/filetype"
)

// PageCount returns the number of pages in the document at path.
func PageCount(path string) (int, error) {
	if _, err := filetype.Stat(path); err != nil {
		return 0, err
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages in %s: %w", path, err)
	}
	return n, nil
}

// MergeFiles merges the given documents into outputPath, pages in slice
// order and internal order preserved, no divider pages.
func MergeFiles(inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("no input documents to merge")
	}
	conf := model.NewDefaultConfiguration()
	if err := api.MergeCreateFile(inputs, outputPath, false, conf); err != nil {
		return fmt.Errorf("failed to merge %d documents: %w", len(inputs), err)
	}
	log.Debug().Int("inputs", len(inputs)).Str("output", outputPath).Msg("merged documents")
	return nil
}

// Validate runs a structural validation of the document at path.
func Validate(path string) error {
	if _, err := filetype.Stat(path); err != nil {
		return err
	}
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("failed to validate %s: %w", path, err)
	}
	return nil
}
