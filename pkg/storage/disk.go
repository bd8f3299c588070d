// Package storage stores uploaded product images on the local filesystem
// or on S3-compatible object storage (AWS S3, MinIO, R2).
//
//	disk, err := storage.New(config.StorageDefault())
//	err = disk.Put(ctx, "products/sofa/1.jpg", file, "image/jpeg")
//	url := disk.URL("products/sofa/1.jpg")
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Disk is implemented by every storage driver.
type Disk interface {
	// Put writes r to key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns the content at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) bool
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

// New builds the named disk from configuration: "local" or "s3".
func New(name string) (Disk, error) {
	switch name {
	case "", "local":
		return NewLocalDisk(), nil
	case "s3":
		return NewS3Disk()
	default:
		return nil, fmt.Errorf("storage: unknown disk %q (supported: local, s3)", name)
	}
}

// cleanKey normalises key and refuses anything that escapes the root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return k, nil
}
