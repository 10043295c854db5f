package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/catalog-backend/internal/platform/envutil"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	now    func() time.Time
}

// NewGCS stores files as objects in one Cloud Storage bucket. The emulator
// mode talks to a fake-gcs style server without credentials.
func NewGCS(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("missing BLOB_GCS_BUCKET")
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	l := log.With("service", "GCSBlobStore")
	l.Info("Blob storage initialized", "mode", cfg.Mode, "bucket", bucket, "emulator_host", cfg.EmulatorHost)
	return &gcsStore{log: l, client: client, bucket: bucket, now: time.Now}, nil
}

func newStorageClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", endpoint)
		}
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		opts := clientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	}
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	if creds == "" {
		creds = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (s *gcsStore) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	name, err := StoredName(s.now(), filename)
	if err != nil {
		return "", err
	}
	body, err := nonEmpty(r)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = ContentType(name)
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return name, nil
}

func (s *gcsStore) Open(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, Info{}, err
	}
	rc, err := s.client.Bucket(s.bucket).Object(clean).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, Info{}, notFound(clean)
	}
	if err != nil {
		return nil, Info{}, fmt.Errorf("open %s: %w", clean, err)
	}
	ct := rc.Attrs.ContentType
	if ct == "" {
		ct = ContentType(clean)
	}
	return rc, Info{Name: clean, Size: rc.Attrs.Size, ContentType: ct, Updated: rc.Attrs.LastModified}, nil
}

func (s *gcsStore) Delete(ctx context.Context, name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(clean).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return notFound(clean)
	}
	return err
}

func (s *gcsStore) DeleteAll(ctx context.Context) error {
	names, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if err := s.client.Bucket(s.bucket).Object(n).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %s: %w", n, err)
		}
	}
	return nil
}

func (s *gcsStore) List(ctx context.Context) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{})
	var out []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (s *gcsStore) Close() error {
	return s.client.Close()
}
