package validators

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

// FileValidator sniffs the payload and returns the content type to store
// it with. The declared type wins when the client sent a specific one;
// the sniffed type is used otherwise. allowed may be empty, in which case
// any image type passes. f is rewound before returning.
func FileValidator(f io.ReadSeeker, size int64, declared string, maxSize int64, allowed []string) (string, error) {
	if f == nil || size == 0 {
		return "", ErrNoFile
	}

	if maxSize > 0 && size > maxSize {
		return "", ErrFileTooLarge
	}

	// Check the header first which is easy to spoof, but faster for legit clients
	declared = strings.TrimSpace(declared)
	generic := declared == "" || declared == "application/octet-stream"
	if !generic && !strings.HasPrefix(declared, "image/") {
		return "", ErrFileTypeUnsupported
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type, %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file, %w", err)
	}

	if !strings.HasPrefix(mime.String(), "image/") {
		return "", ErrFileTypeUnsupported
	}

	if len(allowed) > 0 && !isAllowed(mime, allowed) {
		return "", ErrFileTypeUnsupported
	}

	if generic {
		return mime.String(), nil
	}

	return declared, nil
}

func isAllowed(m *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if m.Is(strings.TrimSpace(a)) {
			return true
		}
	}

	return false
}
