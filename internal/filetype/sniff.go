package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Sniff detects the MIME type of path from its content using magic
// bytes, independent of the filename.
func Sniff(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	log.Debug().Str("mime", mtype.String()).Str("file", path).Msg("detected content type")
	return mtype.String(), nil
}

// KindOfMIME maps a sniffed MIME type to the kind it implies.
func KindOfMIME(mime string) Kind {
	switch {
	case mime == "application/pdf":
		return KindDocument
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	default:
		return KindUnsupported
	}
}

// VerifyContent sniffs path and fails with ErrUnsupportedFormat when the
// content disagrees with the extension-derived kind. Classification
// itself never consults content; this is the opt-in strict check.
func VerifyContent(path string) error {
	kind := Classify(path)
	mime, err := Sniff(path)
	if err != nil {
		return err
	}
	if KindOfMIME(mime) != kind {
		return fmt.Errorf("%w: %s has %s content", ErrUnsupportedFormat, path, mime)
	}
	return nil
}
