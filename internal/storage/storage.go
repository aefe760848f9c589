// Package storage saves uploaded files under a caller-chosen name.
package storage

import "context"

// Store persists named blobs and knows the public URL they are served under.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error
	URL(name string) string
}
