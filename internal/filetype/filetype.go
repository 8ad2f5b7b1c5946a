// Package filetype classifies pipeline inputs by filename extension and
// inspects them on disk. Classification is pure: it looks only at the
// path string, so callers can probe names that do not exist yet.
package filetype

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Kind is the pipeline kind of an input file.
type Kind int

const (
	// KindUnsupported is anything outside the document and image sets.
	KindUnsupported Kind = iota
	// KindDocument is a paginated document (.pdf).
	KindDocument
	// KindImage is a raster image (.jpg .jpeg .png .gif .bmp .tiff .tif).
	KindImage
)

var documentExts = map[string]struct{}{
	".pdf": {},
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tiff": {},
	".tif":  {},
}

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindImage:
		return "image"
	default:
		return "unsupported"
	}
}

// Classify reports the kind of path based on its extension alone,
// case-insensitively. It never touches the filesystem.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := documentExts[ext]; ok {
		return KindDocument
	}
	if _, ok := imageExts[ext]; ok {
		return KindImage
	}
	return KindUnsupported
}

// Stat verifies that path names an existing regular file and returns its
// file info. It returns ErrNotFound or ErrNotRegularFile accordingly.
func Stat(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return fi, nil
}

// Info is a metadata snapshot of one input file.
type Info struct {
	Name      string
	Path      string
	Size      int64
	SizeHuman string
	Ext       string
	Modified  time.Time
	Kind      Kind

	// Pages is filled by callers that have codec access; zero means
	// unknown or not a paginated document.
	Pages int
}

// Describe stats path and returns its metadata snapshot.
func Describe(path string) (*Info, error) {
	fi, err := Stat(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Info{
		Name:      fi.Name(),
		Path:      abs,
		Size:      fi.Size(),
		SizeHuman: humanize.Bytes(uint64(fi.Size())),
		Ext:       strings.ToLower(filepath.Ext(path)),
		Modified:  fi.ModTime(),
		Kind:      Classify(path),
	}, nil
}
