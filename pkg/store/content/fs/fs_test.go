package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/content/fs"
	contenttesting "github.com/marmos91/dittobox/pkg/store/content/testing"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.WritableContentStore {
			store, err := fs.NewFSContentStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

// A failed write must not leave temp files behind.
func TestFSContentStore_NoTempFileLeak(t *testing.T) {
	dir := t.TempDir()
	store, err := fs.NewFSContentStore(context.Background(), dir)
	require.NoError(t, err)

	id := metadata.NewContentID()
	err = store.WriteContent(context.Background(), id, failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp-"),
			"leftover temp file: %s", entry.Name())
	}
}

func TestNewFSContentStoreFromMap(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")

	store, err := fs.NewFSContentStoreFromMap(context.Background(), map[string]any{
		"path": dir,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// The base directory is created on construction.
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = fs.NewFSContentStoreFromMap(context.Background(), map[string]any{})
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, assert.AnError
}
