// Package uploads validates incoming video uploads against the acceptance
// policy before anything is persisted.
package uploads

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the default ceiling on accepted upload sizes (50 MiB).
const MaxUploadBytes int64 = 50 * 1024 * 1024

var (
	// ErrInvalidFilename indicates the client supplied no usable filename.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrUnsupportedFileType indicates the filename extension is not allow-listed.
	ErrUnsupportedFileType = errors.New("Only MP4 files are supported")
	// ErrUnsupportedMediaType indicates a declared content type outside video/*.
	ErrUnsupportedMediaType = errors.New("File must be a video")
)

// allowedExtensions is the extension allow list for uploads.
var allowedExtensions = map[string]bool{".mp4": true}

// FileTooLargeError reports an upload whose content exceeds the size ceiling.
// The message includes the observed size so clients can see what was rejected.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("File size exceeds %dMB limit. Current size: %.1fMB",
		e.Limit/(1024*1024), float64(e.Size)/(1024*1024))
}

// ValidateFile checks the declared filename and content type of an upload.
// It never reads content: cheap name and type checks run before the caller
// pays the cost of materializing the file. A missing content type is
// permissive, matching browsers that omit it.
func ValidateFile(filename, contentType string) error {
	if strings.TrimSpace(filename) == "" {
		return ErrInvalidFilename
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return ErrUnsupportedFileType
	}

	if contentType != "" && !strings.HasPrefix(contentType, "video/") {
		return ErrUnsupportedMediaType
	}

	return nil
}

// CheckSize validates the byte length of fully-read upload content against
// the provided limit. A non-positive limit falls back to MaxUploadBytes.
func CheckSize(size, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadBytes
	}
	if size > limit {
		return &FileTooLargeError{Size: size, Limit: limit}
	}
	return nil
}
