package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReadTests executes the read-path contract tests.
func (suite *StoreTestSuite) RunReadTests(t *testing.T) {
	t.Run("ReadContent_NotFound", suite.testReadContentNotFound)
	t.Run("ReadContent_Success", suite.testReadContentSuccess)
	t.Run("GetContentSize_NotFound", suite.testGetContentSizeNotFound)
	t.Run("GetContentSize_Success", suite.testGetContentSizeSuccess)
	t.Run("ContentExists", suite.testContentExists)
}

// RunWriteTests executes the write-path contract tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("WriteContent_Empty", suite.testWriteContentEmpty)
	t.Run("WriteContent_Overwrite", suite.testWriteContentOverwrite)
	t.Run("WriteContent_VariantKeys", suite.testWriteContentVariantKeys)
}

// mustWriteContent writes a blob or fails the test.
func mustWriteContent(t *testing.T, store content.WritableContentStore, id metadata.ContentID, data []byte) {
	t.Helper()
	require.NoError(t, store.WriteContent(testContext(), id, bytes.NewReader(data)))
}

// mustReadContent reads a full blob or fails the test.
func mustReadContent(t *testing.T, store content.ContentStore, id metadata.ContentID) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), id)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return data
}

func (suite *StoreTestSuite) testReadContentNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.ReadContent(testContext(), metadata.NewContentID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testReadContentSuccess(t *testing.T) {
	store := suite.NewStore(t)

	id := metadata.NewContentID()
	testData := []byte("Hello, World!")

	mustWriteContent(t, store, id, testData)

	data := mustReadContent(t, store, id)
	assert.Equal(t, testData, data)
}

func (suite *StoreTestSuite) testGetContentSizeNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetContentSize(testContext(), metadata.NewContentID())
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testGetContentSizeSuccess(t *testing.T) {
	store := suite.NewStore(t)

	id := metadata.NewContentID()
	testData := []byte("Test data for size")

	mustWriteContent(t, store, id, testData)

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testData)), size)
}

func (suite *StoreTestSuite) testContentExists(t *testing.T) {
	store := suite.NewStore(t)

	id := metadata.NewContentID()

	exists, err := store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.False(t, exists)

	mustWriteContent(t, store, id, []byte("payload"))

	exists, err = store.ContentExists(testContext(), id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testWriteContentEmpty(t *testing.T) {
	store := suite.NewStore(t)

	id := metadata.NewContentID()
	mustWriteContent(t, store, id, []byte{})

	data := mustReadContent(t, store, id)
	assert.Empty(t, data)

	size, err := store.GetContentSize(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), size)
}

func (suite *StoreTestSuite) testWriteContentOverwrite(t *testing.T) {
	store := suite.NewStore(t)

	id := metadata.NewContentID()
	mustWriteContent(t, store, id, []byte("first version"))
	mustWriteContent(t, store, id, []byte("second"))

	data := mustReadContent(t, store, id)
	assert.Equal(t, []byte("second"), data)
}

// Variant blobs live under derived keys next to the primary blob; writing
// one must not disturb the other.
func (suite *StoreTestSuite) testWriteContentVariantKeys(t *testing.T) {
	store := suite.NewStore(t)

	primary := metadata.NewContentID()
	mustWriteContent(t, store, primary, []byte("original image bytes"))

	for _, size := range content.VariantSizes {
		variantID := content.VariantContentID(primary, size)
		mustWriteContent(t, store, variantID, []byte("thumb-"+string(size)))
	}

	assert.Equal(t, []byte("original image bytes"), mustReadContent(t, store, primary))
	for _, size := range content.VariantSizes {
		data := mustReadContent(t, store, content.VariantContentID(primary, size))
		assert.Equal(t, []byte("thumb-"+string(size)), data)
	}
}
