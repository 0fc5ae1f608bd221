// Package source adapts the places a document can come from (a local path,
// a multipart upload, an object in the import inbox) to one interface.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"tripdocs/internal/storage"
)

var (
	// ErrNotFound means the source does not resolve to an existing file.
	ErrNotFound = errors.New("source not found")
	// ErrUnreadable means the file exists but its bytes cannot be read.
	ErrUnreadable = errors.New("source unreadable")
)

// Source yields a byte stream plus a suggested filename.
type Source interface {
	// Open resolves the source. size is -1 when the length is not known up front.
	Open(ctx context.Context) (rc io.ReadCloser, size int64, err error)
	// Name is the suggested filename. It is final once Open has succeeded.
	Name() string
}

type fileSource struct {
	path string
}

// File reads a document from the local filesystem.
func File(p string) Source {
	return &fileSource{path: p}
}

func (s *fileSource) Name() string { return filepath.Base(s.path) }

func (s *fileSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	st, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if st.IsDir() {
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrUnreadable, s.path)
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return f, st.Size(), nil
}

type multipartSource struct {
	fh *multipart.FileHeader
}

// Multipart reads a document from an uploaded form file.
func Multipart(fh *multipart.FileHeader) Source {
	return &multipartSource{fh: fh}
}

func (s *multipartSource) Name() string { return filepath.Base(s.fh.Filename) }

func (s *multipartSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	f, err := s.fh.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return f, s.fh.Size, nil
}

// OriginalFilenameKey is the object metadata key carrying the uploader's filename.
const OriginalFilenameKey = "original-filename"

type objectSource struct {
	store storage.Storage
	key   string
	name  string
}

// Object reads a document from the import inbox. The object's
// original-filename metadata, when present, wins over the key's base name.
func Object(store storage.Storage, key string) Source {
	return &objectSource{store: store, key: key, name: path.Base(key)}
}

func (s *objectSource) Name() string { return s.name }

func (s *objectSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	rc, info, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, s.key)
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if v := metadataValue(info.Metadata, OriginalFilenameKey); v != "" {
		s.name = path.Base(v)
	}
	return rc, info.Size, nil
}

// metadataValue looks a key up the way S3 clients return it: sometimes
// canonicalized ("Original-Filename"), sometimes verbatim.
func metadataValue(md map[string]string, key string) string {
	if v, ok := md[key]; ok {
		return v
	}
	for k, v := range md {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
