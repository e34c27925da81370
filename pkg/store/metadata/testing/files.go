package testing

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFileTests executes all file record operation tests.
func (suite *StoreTestSuite) RunFileTests(t *testing.T) {
	t.Run("CreateFile_AtRoot", suite.testCreateFileAtRoot)
	t.Run("CreateFile_InFolder", suite.testCreateFileInFolder)
	t.Run("CreateFile_ParentNotFound", suite.testCreateFileParentNotFound)
	t.Run("CreateFile_ParentForeignOwner", suite.testCreateFileParentForeignOwner)
	t.Run("CreateFile_ParentNotFolder", suite.testCreateFileParentNotFolder)
	t.Run("CreateFile_InvalidRecords", suite.testCreateFileInvalidRecords)
	t.Run("GetFile_NotFound", suite.testGetFileNotFound)
	t.Run("SetFileVisibility", suite.testSetFileVisibility)
	t.Run("SetFileVisibility_NotFound", suite.testSetFileVisibilityNotFound)
	t.Run("CountFiles", suite.testCountFiles)
}

// RunListingTests executes all ListChildren pagination tests.
func (suite *StoreTestSuite) RunListingTests(t *testing.T) {
	t.Run("ListChildren_InsertionOrder", suite.testListChildrenInsertionOrder)
	t.Run("ListChildren_Pagination", suite.testListChildrenPagination)
	t.Run("ListChildren_BeyondEnd", suite.testListChildrenBeyondEnd)
	t.Run("ListChildren_OwnerScoped", suite.testListChildrenOwnerScoped)
}

// mustCreateUser registers a user or fails the test.
func mustCreateUser(t *testing.T, store metadata.MetadataStore, email string) *metadata.User {
	t.Helper()
	user, err := store.CreateUser(testContext(), email, []byte("hash"))
	require.NoError(t, err)
	return user
}

// mustCreateFolder creates a folder record or fails the test.
func mustCreateFolder(t *testing.T, store metadata.MetadataStore, owner uuid.UUID, name string, parent uuid.UUID) *metadata.File {
	t.Helper()
	folder, err := store.CreateFile(testContext(), metadata.File{
		OwnerID:  owner,
		Name:     name,
		Type:     metadata.FileTypeFolder,
		ParentID: parent,
	})
	require.NoError(t, err)
	return folder
}

// mustCreateFile creates a plain file record or fails the test.
func mustCreateFile(t *testing.T, store metadata.MetadataStore, owner uuid.UUID, name string, parent uuid.UUID) *metadata.File {
	t.Helper()
	file, err := store.CreateFile(testContext(), metadata.File{
		OwnerID:   owner,
		Name:      name,
		Type:      metadata.FileTypeFile,
		ParentID:  parent,
		ContentID: metadata.NewContentID(),
	})
	require.NoError(t, err)
	return file
}

func (suite *StoreTestSuite) testCreateFileAtRoot(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "root@example.com")

	file := mustCreateFile(t, store, user.ID, "notes.txt", metadata.RootFolderID)

	assert.NotEqual(t, uuid.Nil, file.ID)
	assert.Equal(t, user.ID, file.OwnerID)
	assert.Equal(t, metadata.RootFolderID, file.ParentID)
	assert.False(t, file.Public)
	assert.False(t, file.CreatedAt.IsZero())

	found, err := store.GetFile(testContext(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.Name, found.Name)
	assert.Equal(t, file.ContentID, found.ContentID)
}

func (suite *StoreTestSuite) testCreateFileInFolder(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "nested@example.com")

	folder := mustCreateFolder(t, store, user.ID, "docs", metadata.RootFolderID)
	file := mustCreateFile(t, store, user.ID, "report.pdf", folder.ID)

	assert.Equal(t, folder.ID, file.ParentID)
}

func (suite *StoreTestSuite) testCreateFileParentNotFound(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "orphan@example.com")

	_, err := store.CreateFile(testContext(), metadata.File{
		OwnerID:   user.ID,
		Name:      "lost.txt",
		Type:      metadata.FileTypeFile,
		ParentID:  uuid.New(),
		ContentID: metadata.NewContentID(),
	})
	assert.ErrorIs(t, err, metadata.ErrParentNotFound)
}

func (suite *StoreTestSuite) testCreateFileParentForeignOwner(t *testing.T) {
	store := suite.NewStore(t)
	alice := mustCreateUser(t, store, "alice-parent@example.com")
	mallory := mustCreateUser(t, store, "mallory-parent@example.com")

	folder := mustCreateFolder(t, store, alice.ID, "private", metadata.RootFolderID)

	// Another user's folder must be indistinguishable from a missing one.
	_, err := store.CreateFile(testContext(), metadata.File{
		OwnerID:   mallory.ID,
		Name:      "sneaky.txt",
		Type:      metadata.FileTypeFile,
		ParentID:  folder.ID,
		ContentID: metadata.NewContentID(),
	})
	assert.ErrorIs(t, err, metadata.ErrParentNotFound)
}

func (suite *StoreTestSuite) testCreateFileParentNotFolder(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "notfolder@example.com")

	plain := mustCreateFile(t, store, user.ID, "plain.txt", metadata.RootFolderID)

	_, err := store.CreateFile(testContext(), metadata.File{
		OwnerID:   user.ID,
		Name:      "child.txt",
		Type:      metadata.FileTypeFile,
		ParentID:  plain.ID,
		ContentID: metadata.NewContentID(),
	})
	assert.ErrorIs(t, err, metadata.ErrParentNotFolder)
}

func (suite *StoreTestSuite) testCreateFileInvalidRecords(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "invalid@example.com")

	cases := []struct {
		name string
		file metadata.File
	}{
		{"MissingOwner", metadata.File{
			Name: "x.txt", Type: metadata.FileTypeFile, ContentID: metadata.NewContentID(),
		}},
		{"MissingName", metadata.File{
			OwnerID: user.ID, Type: metadata.FileTypeFile, ContentID: metadata.NewContentID(),
		}},
		{"UnknownType", metadata.File{
			OwnerID: user.ID, Name: "x.txt", Type: "symlink",
		}},
		{"FileWithoutContent", metadata.File{
			OwnerID: user.ID, Name: "x.txt", Type: metadata.FileTypeFile,
		}},
		{"FolderWithContent", metadata.File{
			OwnerID: user.ID, Name: "x", Type: metadata.FileTypeFolder, ContentID: metadata.NewContentID(),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CreateFile(testContext(), tc.file)
			assert.ErrorIs(t, err, metadata.ErrInvalidArgument)
		})
	}
}

func (suite *StoreTestSuite) testGetFileNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetFile(testContext(), uuid.New())
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testSetFileVisibility(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "visibility@example.com")

	file := mustCreateFile(t, store, user.ID, "toggle.txt", metadata.RootFolderID)
	require.False(t, file.Public)

	updated, err := store.SetFileVisibility(testContext(), file.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Public)

	// Idempotent: publishing an already-public file succeeds.
	updated, err = store.SetFileVisibility(testContext(), file.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Public)

	updated, err = store.SetFileVisibility(testContext(), file.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Public)

	// Only the flag changed.
	found, err := store.GetFile(testContext(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.Name, found.Name)
	assert.Equal(t, file.ContentID, found.ContentID)
}

func (suite *StoreTestSuite) testSetFileVisibilityNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.SetFileVisibility(testContext(), uuid.New(), true)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testCountFiles(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "count@example.com")

	count, err := store.CountFiles(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	mustCreateFolder(t, store, user.ID, "docs", metadata.RootFolderID)
	mustCreateFile(t, store, user.ID, "a.txt", metadata.RootFolderID)
	mustCreateFile(t, store, user.ID, "b.txt", metadata.RootFolderID)

	count, err = store.CountFiles(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func (suite *StoreTestSuite) testListChildrenInsertionOrder(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "order@example.com")

	// Names deliberately out of lexicographic order.
	names := []string{"zeta.txt", "alpha.txt", "mid.txt"}
	for _, name := range names {
		mustCreateFile(t, store, user.ID, name, metadata.RootFolderID)
	}

	page, err := store.ListChildren(testContext(), user.ID, metadata.RootFolderID, 0)
	require.NoError(t, err)
	require.Len(t, page, len(names))

	for i, name := range names {
		assert.Equal(t, name, page[i].Name)
	}
}

func (suite *StoreTestSuite) testListChildrenPagination(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "pages@example.com")

	total := metadata.ListPageSize + 5
	for i := 0; i < total; i++ {
		mustCreateFile(t, store, user.ID, fmt.Sprintf("file-%03d.txt", i), metadata.RootFolderID)
	}

	first, err := store.ListChildren(testContext(), user.ID, metadata.RootFolderID, 0)
	require.NoError(t, err)
	require.Len(t, first, metadata.ListPageSize)
	assert.Equal(t, "file-000.txt", first[0].Name)

	second, err := store.ListChildren(testContext(), user.ID, metadata.RootFolderID, 1)
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, fmt.Sprintf("file-%03d.txt", metadata.ListPageSize), second[0].Name)
}

func (suite *StoreTestSuite) testListChildrenBeyondEnd(t *testing.T) {
	store := suite.NewStore(t)
	user := mustCreateUser(t, store, "beyond@example.com")

	mustCreateFile(t, store, user.ID, "only.txt", metadata.RootFolderID)

	page, err := store.ListChildren(testContext(), user.ID, metadata.RootFolderID, 3)
	require.NoError(t, err)
	assert.Empty(t, page)

	// Unknown parents list as empty, not as an error.
	page, err = store.ListChildren(testContext(), user.ID, uuid.New(), 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func (suite *StoreTestSuite) testListChildrenOwnerScoped(t *testing.T) {
	store := suite.NewStore(t)
	alice := mustCreateUser(t, store, "alice-list@example.com")
	bob := mustCreateUser(t, store, "bob-list@example.com")

	mustCreateFile(t, store, alice.ID, "alice.txt", metadata.RootFolderID)
	mustCreateFile(t, store, bob.ID, "bob.txt", metadata.RootFolderID)

	page, err := store.ListChildren(testContext(), alice.ID, metadata.RootFolderID, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "alice.txt", page[0].Name)
}
