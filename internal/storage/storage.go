// Package storage abstracts the bucket that holds the photo index and
// the photo binaries
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound           = errors.New("object not found")
	ErrPreconditionFailed = errors.New("object changed since it was read")
)

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

type Object struct {
	ObjectInfo
	ContentType string
	Body        []byte
}

// PutOptions controls how an object is written. IfMatch and IfNoneMatch
// turn the write into a compare-and-swap, failing with
// ErrPreconditionFailed when the stored object doesn't match.
type PutOptions struct {
	ContentType string
	IfMatch     string
	IfNoneMatch bool
}

// ObjectStore is a flat key-value bucket with prefix listing. It offers
// no transactions; conditional writes are the only coordination primitive.
type ObjectStore interface {
	// Get returns the whole object or ErrNotFound
	Get(ctx context.Context, key string) (*Object, error)

	// Put writes body under key and returns the new entity tag. size may be
	// -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
