package media

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/educast/catalog/config"
	"github.com/educast/catalog/random"
	"google.golang.org/api/option"
)

// GCS uploads thumbnails to a Google Cloud Storage bucket. URLs point at the
// configured CDN domain when one is set, at the public bucket endpoint
// otherwise.
type GCS struct {
	client *storage.Client
	bucket string
	folder string
	cdn    string
}

func NewGCS(ctx context.Context, cfg config.Upload, opts ...option.ClientOption) (*GCS, error) {
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCS{
		client: client,
		bucket: cfg.Bucket,
		folder: cfg.Folder,
		cdn:    cfg.CDNDomain,
	}, nil
}

func (g *GCS) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	key := path.Join(g.folder, random.String(16)+"-"+path.Base(name))

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		w.Close()
		return "", fmt.Errorf("writing object[%s]: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing object writer[%s]: %w", key, err)
	}

	if g.cdn != "" {
		return fmt.Sprintf("https://%s/%s", g.cdn, key), nil
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key), nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
