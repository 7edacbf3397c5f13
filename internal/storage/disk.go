package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"artdocent-backend/pkg/logger"
)

// DiskObjectStore keeps objects as files under a root directory and serves
// them under a public base path.
type DiskObjectStore struct {
	rootDir string
	baseURL string
}

func NewDiskObjectStore(rootDir, baseURL string) *DiskObjectStore {
	return &DiskObjectStore{
		rootDir: rootDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (d *DiskObjectStore) Init() error {
	if err := os.MkdirAll(d.rootDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}
	logger.Infof("Object storage initialized at %s", d.rootDir)
	return nil
}

func (d *DiskObjectStore) Put(ctx context.Context, key string, data []byte) error {
	objectPath, err := d.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(objectPath), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	tempPath := objectPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	if err := os.Rename(tempPath, objectPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskObjectStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objectPath, err := d.objectPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(objectPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return f, nil
}

func (d *DiskObjectStore) Delete(ctx context.Context, key string) error {
	objectPath, err := d.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(objectPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return nil
}

func (d *DiskObjectStore) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}

// objectPath maps a key onto the root directory, rejecting keys that would
// escape it.
func (d *DiskObjectStore) objectPath(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.HasSuffix(key, "/") {
		return "", ErrInvalidData
	}
	return filepath.Join(d.rootDir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}
