// Package media turns raw uploads into durable URLs. The catalog only ever
// talks to the Uploader contract; the concrete backend is wired in cmd/server.
package media

import (
	"context"
	"io"
)

type Uploader interface {
	// Upload stores the file contents under a fresh key derived from name and
	// returns the durable URL to persist.
	Upload(ctx context.Context, file io.Reader, name string) (string, error)
}
