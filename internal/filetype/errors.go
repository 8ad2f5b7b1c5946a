package filetype

import "errors"

// Sentinel errors for input validation. Callers match them with errors.Is.
var (
	// ErrNotFound means the path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrNotRegularFile means the path exists but is not a regular file
	// (directory, socket, device).
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrUnsupportedFormat means the file kind is outside the supported
	// sets, or an operation received a kind it cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
