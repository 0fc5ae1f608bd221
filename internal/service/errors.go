package service

import (
	"errors"
	"fmt"

	"github.com/docker/go-units"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("document not found")
	ErrTitleRequired = errors.New("title is required")
	ErrSourceNil     = errors.New("source is nil")

	ErrTripNameRequired = errors.New("trip name is required")
	ErrTripNotFound     = errors.New("trip not found")

	// Admission failures. They abort the create and reach the caller typed.
	ErrFileNotFound   = errors.New("file not found")
	ErrCannotReadFile = errors.New("cannot read file")
	ErrFileTooLarge   = errors.New("file too large")

	// ErrUnsupportedFileType is reserved: unknown extensions are stored as
	// "other" and nothing returns this today.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// FileTooLargeError carries the measured size and the configured ceiling.
// errors.Is(err, ErrFileTooLarge) matches it.
type FileTooLargeError struct {
	Size int64
	Max  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size (%s) exceeds maximum allowed size (%s)",
		units.BytesSize(float64(e.Size)), units.BytesSize(float64(e.Max)))
}

func (e *FileTooLargeError) Is(target error) bool {
	return target == ErrFileTooLarge
}
