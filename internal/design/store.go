// Package design stores uploaded design images in S3 or on local disk.
package design

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a stored object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is the content to store under a key.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store is an object store for design images.
type Store interface {
	// Put stores obj and returns the URL it can be fetched from.
	Put(ctx context.Context, obj Object) (string, error)

	// Open returns the content stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error
}
