package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nightfall2318/text-summary-app/internal/core"
)

var _ core.ObjectClient = (*LocalClient)(nil)

var errBadKey = errors.New("object key escapes the archive directory")

// LocalClient archives uploads in a directory on disk.
type LocalClient struct {
	dir string
}

func NewLocalClient(dir string) (*LocalClient, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalClient{dir: abs}, nil
}

func (c *LocalClient) path(key string) (string, error) {
	p := filepath.Join(c.dir, filepath.FromSlash(key))
	if p == c.dir || !strings.HasPrefix(p, c.dir+string(filepath.Separator)) {
		return "", errBadKey
	}
	return p, nil
}

// UploadFile writes data under key and returns the file path.
func (c *LocalClient) UploadFile(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	p, err := c.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("local upload failed: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("local upload failed: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("local upload failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("local upload failed: %w", err)
	}
	return p, nil
}

func (c *LocalClient) DeleteFile(_ context.Context, key string) error {
	p, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local delete failed: %w", err)
	}
	return nil
}
