package storage

import (
	"context"
	"errors"
	"io"
)

var ErrEmptyKey = errors.New("empty_object_key")

// Object is a single upload. Size is -1 when unknown.
type Object struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
}

// ObjectStore persists binary assets and returns their public URL.
// Uploading to an existing key overwrites it.
type ObjectStore interface {
	Upload(ctx context.Context, obj Object) (string, error)
}
