package blob

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/catalog-backend/internal/platform/apierr"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type Mode string

const (
	ModeLocal       Mode = "local"
	ModeGCS         Mode = "gcs"
	ModeGCSEmulator Mode = "gcs_emulator"
)

type Config struct {
	Mode          Mode
	Root          string
	Bucket        string
	EmulatorHost  string
	DeleteOnStart bool
}

type Info struct {
	Name        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// Store keeps uploaded files under generated names.
type Store interface {
	// Put writes r under a name derived from filename and returns that name.
	Put(ctx context.Context, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, Info, error)
	Delete(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

var (
	ErrEmptyFile   = errors.New("empty file")
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

// New builds the store for cfg.Mode and wipes it when DeleteOnStart is set.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Mode {
	case "", ModeLocal:
		st, err = NewLocal(log, cfg.Root)
	case ModeGCS, ModeGCSEmulator:
		st, err = NewGCS(ctx, log, cfg)
	default:
		return nil, fmt.Errorf("invalid BLOB_MODE=%q (allowed: %q, %q, %q)", cfg.Mode, ModeLocal, ModeGCS, ModeGCSEmulator)
	}
	if err != nil {
		return nil, err
	}
	if cfg.DeleteOnStart {
		if err := st.DeleteAll(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("wipe blob store: %w", err)
		}
		log.Warn("blob store wiped on start", "mode", cfg.Mode)
	}
	return st, nil
}

// StoredName builds "<unixmillis>_<base>.<ext>" from an uploaded file name.
// Directory parts are dropped; names containing ".." are rejected.
func StoredName(now time.Time, filename string) (string, error) {
	clean, err := CleanName(filename)
	if err != nil {
		return "", err
	}
	ext := path.Ext(clean)
	base := strings.TrimSuffix(clean, ext)
	if base == "" {
		return "", invalidName(filename)
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" + base + ext, nil
}

// CleanName validates a caller-supplied name and returns its last path element.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || strings.Contains(name, "..") {
		return "", invalidName(name)
	}
	clean := path.Base(path.Clean(name))
	if clean == "." || clean == "/" || clean == "" {
		return "", invalidName(name)
	}
	return clean, nil
}

func ContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// nonEmpty returns a reader equivalent to r, or ErrEmptyFile when r has no bytes.
func nonEmpty(r io.Reader) (io.Reader, error) {
	if r == nil {
		return nil, emptyFile()
	}
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, emptyFile()
		}
		return nil, err
	}
	return br, nil
}

func emptyFile() error {
	return apierr.InvalidArgument("empty_file", ErrEmptyFile)
}

func invalidName(name string) error {
	return apierr.InvalidArgument("invalid_file_name", fmt.Errorf("%w: %q", ErrInvalidName, name))
}

func notFound(name string) error {
	return apierr.NotFound("file_not_found", fmt.Errorf("%w: %s", ErrNotFound, name))
}
