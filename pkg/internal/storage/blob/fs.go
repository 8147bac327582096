package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luoxiv/enervision/pkg/configs"
)

// fsStore 本地文件系统后端.
type fsStore struct {
	root string
}

// NewFSStore 创建本地文件系统存储.
func NewFSStore(ctx context.Context, cfg *configs.StorageConfig) (Store, error) {
	root := cfg.Root
	if root == "" {
		return nil, fmt.Errorf("storage root not configured")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &fsStore{root: root}, nil
}

// abs 将相对路径解析到存储根之下，拒绝越界路径.
func (s *fsStore) abs(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid blob path: %s", relPath)
	}

	return filepath.Join(s.root, cleaned), nil
}

func (s *fsStore) Put(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) error {
	target, err := s.abs(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	// 先写临时文件再 rename，避免留下半截文件
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write blob: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename blob: %w", err)
	}

	return nil
}

func (s *fsStore) Get(ctx context.Context, relPath string) (io.ReadCloser, error) {
	target, err := s.abs(relPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("open blob: %w", err)
	}

	return f, nil
}

func (s *fsStore) Exists(ctx context.Context, relPath string) (bool, error) {
	target, err := s.abs(relPath)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (s *fsStore) Delete(ctx context.Context, relPath string) error {
	target, err := s.abs(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}

func (s *fsStore) Close() error { return nil }

func init() {
	RegisterFactory(configs.StorageFS, NewFSStore)
}
