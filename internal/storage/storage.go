// Package storage is the S3-compatible inbox documents can be imported from.
// Files land in the bucket out of band (scanner apps, mail-to-bucket rules,
// sync clients); the service only reads and optionally removes them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when the requested object key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object storage client interface used for imports.
// Methods use context and streaming readers; no local disk is used.
type Storage interface {
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
