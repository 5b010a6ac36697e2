package media

import (
	"context"
	"io"
	"sync"
)

// Fake is an in-memory Uploader for tests. It records every upload and can be
// told to fail.
type Fake struct {
	Err error

	mu      sync.Mutex
	uploads []string
}

func (f *Fake) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}

	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, name)
	return "https://cdn.test/" + name, nil
}

func (f *Fake) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.uploads))
	copy(out, f.uploads)
	return out
}
