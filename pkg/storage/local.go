package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mmartin-estofados/storefront/config"
)

// LocalDisk keeps files under a root directory served at baseURL.
type LocalDisk struct {
	root    string
	baseURL string
}

// NewLocalDisk reads STORAGE_LOCAL_ROOT and STORAGE_URL.
func NewLocalDisk() *LocalDisk {
	return NewLocalDiskAt(config.StorageLocalRoot(), config.StorageURL())
}

func NewLocalDiskAt(root, baseURL string) *LocalDisk {
	return &LocalDisk{root: root, baseURL: baseURL}
}

// Root is the directory files are written under.
func (d *LocalDisk) Root() string { return d.root }

func (d *LocalDisk) abs(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

func (d *LocalDisk) Put(_ context.Context, key string, r io.Reader, _ string) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage/local: create: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: close %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), p)
}

func (d *LocalDisk) Get(_ context.Context, key string) ([]byte, error) {
	p, err := d.abs(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (d *LocalDisk) Exists(_ context.Context, key string) bool {
	p, err := d.abs(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (d *LocalDisk) Delete(_ context.Context, key string) error {
	p, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *LocalDisk) URL(key string) string {
	k, _ := cleanKey(key)
	return d.baseURL + "/" + k
}
