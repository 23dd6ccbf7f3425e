package domain

import "context"

// Resource is a stored repository entry.
type Resource struct {
	Path        string
	ContentType string
	Content     []byte
}

// Repository resolves stored query definitions by key.
type Repository interface {
	// GetResource returns ErrResourceNotFound for unknown keys and ErrNotAFile for entries
	// without content.
	GetResource(ctx context.Context, key string) (*Resource, error)
}
