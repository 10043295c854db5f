package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

const DefaultRoot = "upload-dir"

type localStore struct {
	log  *logger.Logger
	root string
	now  func() time.Time
}

// NewLocal stores files in a flat directory on disk, creating it if needed.
func NewLocal(log *logger.Logger, root string) (Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	l := log.With("service", "LocalBlobStore")
	l.Info("Blob storage initialized", "mode", ModeLocal, "root", abs)
	return &localStore{log: l, root: abs, now: time.Now}, nil
}

func (s *localStore) Put(ctx context.Context, filename string, r io.Reader) (string, error) {
	name, err := StoredName(s.now(), filename)
	if err != nil {
		return "", err
	}
	body, err := nonEmpty(r)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	s.log.Debug("file stored", "name", name)
	return name, nil
}

func (s *localStore) Open(ctx context.Context, name string) (io.ReadCloser, Info, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(filepath.Join(s.root, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Info{}, notFound(clean)
	}
	if err != nil {
		return nil, Info{}, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, Info{}, notFound(clean)
	}
	return f, Info{Name: clean, Size: st.Size(), ContentType: ContentType(clean), Updated: st.ModTime()}, nil
}

func (s *localStore) Delete(ctx context.Context, name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, clean))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(clean)
	}
	return err
}

func (s *localStore) DeleteAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (s *localStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *localStore) Close() error { return nil }
