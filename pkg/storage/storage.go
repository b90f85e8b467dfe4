// Package storage provides file storage rooted at a local directory.
// Keys are slash-separated paths relative to the root; every key resolves
// to a concrete file path so that collaborators which only accept paths
// (image inference services, for example) can read stored files directly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/JaimeStill/larder/pkg/lifecycle"
)

// System manages file storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that creates the storage root.
	Start(lc *lifecycle.Coordinator) error
	// Ready reports whether the storage root exists and is writable.
	Ready() bool
	// Path resolves key to an absolute file path without touching the file system.
	Path(key string) (string, error)
	// Put writes data to key, replacing any existing file, and returns the resolved path.
	// Partial writes never become visible at the destination.
	Put(ctx context.Context, key string, reader io.Reader) (string, error)
	// Open returns a stream for the file at key. The caller must close the reader.
	// Returns ErrNotFound if the file does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether a file exists at key.
	Exists(ctx context.Context, key string) (bool, error)
}

type local struct {
	root   string
	perm   os.FileMode
	ready  atomic.Bool
	logger *slog.Logger
}

// New creates a storage system rooted at cfg.Root.
// The root directory is not created until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	return &local{
		root:   root,
		perm:   cfg.Perm(),
		logger: logger.With("system", "storage"),
	}, nil
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system", "root", l.root)

	lc.OnStartup(func() {
		if err := os.MkdirAll(l.root, 0o755); err != nil {
			l.logger.Error("storage root initialization failed", "error", err)
			return
		}

		l.ready.Store(true)
		l.logger.Info("storage root ready", "root", l.root)
	})

	return nil
}

func (l *local) Ready() bool {
	return l.ready.Load()
}

func (l *local) Path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *local) Put(ctx context.Context, key string, reader io.Reader) (string, error) {
	path, err := l.Path(key)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	if err := os.Chmod(tmp.Name(), l.perm); err != nil {
		return "", fmt.Errorf("chmod %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("commit %s: %w", key, err)
	}

	return path, nil
}

func (l *local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.Path(key)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}

	return f, nil
}

func (l *local) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.Path(key)
	if err != nil {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	return !info.IsDir(), nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || !fs.ValidPath(key) {
		return ErrInvalidKey
	}
	return nil
}
