package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk := storage.NewLocalDiskAt(root, "http://cdn.test/storage")

	require.NoError(t, disk.Put(ctx, "products/sofa-lisboa/1.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg"))
	assert.True(t, disk.Exists(ctx, "products/sofa-lisboa/1.jpg"))

	data, err := disk.Get(ctx, "products/sofa-lisboa/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	assert.Equal(t, "http://cdn.test/storage/products/sofa-lisboa/1.jpg", disk.URL("products/sofa-lisboa/1.jpg"))

	require.NoError(t, disk.Delete(ctx, "products/sofa-lisboa/1.jpg"))
	assert.False(t, disk.Exists(ctx, "products/sofa-lisboa/1.jpg"))
	assert.NoError(t, disk.Delete(ctx, "products/sofa-lisboa/1.jpg"))
}

func TestLocalDiskStaysInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	disk := storage.NewLocalDiskAt(root, "")

	require.NoError(t, disk.Put(ctx, "../../escape.txt", strings.NewReader("x"), ""))

	_, err := os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewRejectsUnknownDisk(t *testing.T) {
	_, err := storage.New("ftp")
	assert.Error(t, err)
}
