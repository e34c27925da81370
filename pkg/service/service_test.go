package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/queue"
	queuememory "github.com/marmos91/dittobox/pkg/queue/memory"
	"github.com/marmos91/dittobox/pkg/service"
	"github.com/marmos91/dittobox/pkg/store/content"
	contentmemory "github.com/marmos91/dittobox/pkg/store/content/memory"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	metadatamemory "github.com/marmos91/dittobox/pkg/store/metadata/memory"
	sessionmemory "github.com/marmos91/dittobox/pkg/store/session/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv bundles a service with direct handles on its backing stores.
type testEnv struct {
	svc      *service.Service
	metadata *metadatamemory.MemoryMetadataStore
	content  *contentmemory.MemoryContentStore
	queue    *queuememory.MemoryQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	metadataStore := metadatamemory.NewMemoryMetadataStore()
	contentStore := contentmemory.NewMemoryContentStore()
	sessionStore := sessionmemory.NewMemorySessionStore()
	jobQueue := queuememory.NewMemoryQueue()

	t.Cleanup(func() {
		_ = jobQueue.Close()
		_ = sessionStore.Close()
	})

	return &testEnv{
		svc:      service.New(metadataStore, contentStore, sessionStore, jobQueue),
		metadata: metadataStore,
		content:  contentStore,
		queue:    jobQueue,
	}
}

// registerAndLogin creates an account and opens a session for it.
func registerAndLogin(t *testing.T, env *testEnv, email string) (*metadata.User, string) {
	t.Helper()
	ctx := context.Background()

	user, err := env.svc.Register(ctx, email, "secret")
	require.NoError(t, err)

	token, err := env.svc.Login(ctx, email, "secret")
	require.NoError(t, err)

	return user, token
}

// ============================================================================
// Authentication
// ============================================================================

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, uuid.Nil, user.ID)
	// The plaintext never survives registration.
	assert.NotContains(t, string(user.PasswordHash), "secret")
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "", "secret")
	require.Error(t, err)
	assert.Equal(t, service.CodeValidation, service.CodeOf(err))
	assert.Equal(t, "Missing email", err.(*service.Error).Message)

	_, err = env.svc.Register(ctx, "alice@example.com", "")
	require.Error(t, err)
	assert.Equal(t, "Missing password", err.(*service.Error).Message)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "dup@example.com", "secret")
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, "dup@example.com", "other")
	require.Error(t, err)
	assert.Equal(t, service.CodeAlreadyExists, service.CodeOf(err))
	assert.Equal(t, "Already exist", err.(*service.Error).Message)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "bob@example.com", "secret")
	require.NoError(t, err)

	token, err := env.svc.Login(ctx, "bob@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := env.svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

// Unknown emails and wrong passwords must be indistinguishable.
func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "carol@example.com", "secret")
	require.NoError(t, err)

	_, err1 := env.svc.Login(ctx, "carol@example.com", "wrong")
	_, err2 := env.svc.Login(ctx, "nobody@example.com", "secret")

	for _, err := range []error{err1, err2} {
		require.Error(t, err)
		assert.Equal(t, service.CodeUnauthenticated, service.CodeOf(err))
		assert.Equal(t, "Unauthorized", err.(*service.Error).Message)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, token := registerAndLogin(t, env, "dave@example.com")

	require.NoError(t, env.svc.Logout(ctx, token))

	// The token is dead afterwards.
	_, err := env.svc.Resolve(ctx, token)
	assert.Equal(t, service.CodeUnauthenticated, service.CodeOf(err))

	// Logging out twice fails like any bad token.
	err = env.svc.Logout(ctx, token)
	assert.Equal(t, service.CodeUnauthenticated, service.CodeOf(err))
}

func TestResolve_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Resolve(context.Background(), "no-such-token")
	assert.Equal(t, service.CodeUnauthenticated, service.CodeOf(err))
}

// ============================================================================
// Upload
// ============================================================================

func TestUpload_ValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, env, "upload@example.com")

	cases := []struct {
		name    string
		params  service.UploadParams
		message string
	}{
		{"MissingName", service.UploadParams{
			Type: metadata.FileTypeFile, Data: []byte("x"),
		}, "Missing name"},
		{"MissingType", service.UploadParams{
			Name: "a.txt", Data: []byte("x"),
		}, "Missing type"},
		{"InvalidType", service.UploadParams{
			Name: "a.txt", Type: "symlink", Data: []byte("x"),
		}, "Missing type"},
		{"MissingData", service.UploadParams{
			Name: "a.txt", Type: metadata.FileTypeFile,
		}, "Missing data"},
		{"ParentNotFound", service.UploadParams{
			Name: "a.txt", Type: metadata.FileTypeFile, Data: []byte("x"), ParentID: uuid.New(),
		}, "Parent not found"},
		// Name is checked before everything else even when later fields
		// are also bad.
		{"NameBeforeType", service.UploadParams{
			ParentID: uuid.New(),
		}, "Missing name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Upload(ctx, user.ID, tc.params)
			require.Error(t, err)
			assert.Equal(t, service.CodeValidation, service.CodeOf(err))
			assert.Equal(t, tc.message, err.(*service.Error).Message)
		})
	}
}

func TestUpload_ParentNotFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, env, "pnf@example.com")

	plain, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "plain.txt", Type: metadata.FileTypeFile, Data: []byte("x"),
	})
	require.NoError(t, err)

	_, err = env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "child.txt", Type: metadata.FileTypeFile, Data: []byte("y"), ParentID: plain.File.ID,
	})
	require.Error(t, err)
	assert.Equal(t, "Parent is not a folder", err.(*service.Error).Message)
}

func TestUpload_Folder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, env, "folder@example.com")

	result, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "docs", Type: metadata.FileTypeFolder,
	})
	require.NoError(t, err)
	assert.Equal(t, metadata.FileTypeFolder, result.File.Type)
	assert.Empty(t, result.File.ContentID)
	assert.False(t, result.ThumbnailQueued)
}

func TestUpload_FileStoresContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, env, "content@example.com")

	payload := []byte("file payload bytes")
	result, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "data.bin", Type: metadata.FileTypeFile, Data: payload,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.File.ContentID)
	assert.False(t, result.ThumbnailQueued)

	reader, err := env.content.ReadContent(ctx, result.File.ContentID)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	stored, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestUpload_ImageQueuesThumbnailJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, env, "image@example.com")

	result, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "photo.png", Type: metadata.FileTypeImage, Data: []byte("fake image bytes"),
	})
	require.NoError(t, err)
	assert.True(t, result.ThumbnailQueued)

	dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	d, err := env.queue.Dequeue(dctx)
	require.NoError(t, err)
	assert.Equal(t, queue.Job{OwnerID: user.ID, FileID: result.File.ID}, d.Job())
	require.NoError(t, d.Ack(ctx))
}

// A rejected thumbnail job must not fail the upload.
func TestUpload_QueueFailureDoesNotRollBack(t *testing.T) {
	metadataStore := metadatamemory.NewMemoryMetadataStore()
	contentStore := contentmemory.NewMemoryContentStore()
	sessionStore := sessionmemory.NewMemorySessionStore()
	defer func() { _ = sessionStore.Close() }()

	// Capacity 1, pre-filled: the upload's enqueue is rejected.
	jobQueue := queuememory.NewMemoryQueueWithCapacity(1, queue.DefaultMaxAttempts)
	defer func() { _ = jobQueue.Close() }()
	require.NoError(t, jobQueue.Enqueue(context.Background(), queue.Job{FileID: uuid.New()}))

	svc := service.New(metadataStore, contentStore, sessionStore, jobQueue)
	ctx := context.Background()

	user, err := svc.Register(ctx, "full@example.com", "secret")
	require.NoError(t, err)

	result, err := svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "photo.png", Type: metadata.FileTypeImage, Data: []byte("bytes"),
	})
	require.NoError(t, err)
	assert.False(t, result.ThumbnailQueued)

	// The record exists despite the queue rejection.
	file, err := svc.GetFile(ctx, user.ID, result.File.ID)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", file.Name)
}

// ============================================================================
// Metadata access
// ============================================================================

func TestGetFile_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := registerAndLogin(t, env, "alice-get@example.com")
	mallory, _ := registerAndLogin(t, env, "mallory-get@example.com")

	result, err := env.svc.Upload(ctx, alice.ID, service.UploadParams{
		Name: "secret.txt", Type: metadata.FileTypeFile, Data: []byte("x"), Public: true,
	})
	require.NoError(t, err)

	// Even a public file's metadata is owner-only.
	_, err = env.svc.GetFile(ctx, mallory.ID, result.File.ID)
	require.Error(t, err)
	assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
	assert.Equal(t, "Not found", err.(*service.Error).Message)

	file, err := env.svc.GetFile(ctx, alice.ID, result.File.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret.txt", file.Name)
}

func TestListFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, _ := registerAndLogin(t, env, "list@example.com")

	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		_, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
			Name: name, Type: metadata.FileTypeFile, Data: []byte("x"),
		})
		require.NoError(t, err)
	}

	files, err := env.svc.ListFiles(ctx, user.ID, metadata.RootFolderID, 0)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "one.txt", files[0].Name)

	// Beyond-the-end pages are empty, not errors.
	files, err = env.svc.ListFiles(ctx, user.ID, metadata.RootFolderID, 1)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSetVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := registerAndLogin(t, env, "alice-vis@example.com")
	mallory, _ := registerAndLogin(t, env, "mallory-vis@example.com")

	result, err := env.svc.Upload(ctx, alice.ID, service.UploadParams{
		Name: "toggle.txt", Type: metadata.FileTypeFile, Data: []byte("x"),
	})
	require.NoError(t, err)

	_, err = env.svc.SetVisibility(ctx, mallory.ID, result.File.ID, true)
	assert.Equal(t, service.CodeNotFound, service.CodeOf(err))

	updated, err := env.svc.SetVisibility(ctx, alice.ID, result.File.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Public)

	updated, err = env.svc.SetVisibility(ctx, alice.ID, result.File.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Public)
}

// ============================================================================
// Download
// ============================================================================

func TestDownload_AccessControl(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceToken := registerAndLogin(t, env, "alice-dl@example.com")
	_, malloryToken := registerAndLogin(t, env, "mallory-dl@example.com")

	private, err := env.svc.Upload(ctx, alice.ID, service.UploadParams{
		Name: "private.txt", Type: metadata.FileTypeFile, Data: []byte("private bytes"),
	})
	require.NoError(t, err)

	public, err := env.svc.Upload(ctx, alice.ID, service.UploadParams{
		Name: "public.txt", Type: metadata.FileTypeFile, Data: []byte("public bytes"), Public: true,
	})
	require.NoError(t, err)

	cases := []struct {
		name    string
		token   string
		fileID  uuid.UUID
		allowed bool
	}{
		{"OwnerReadsPrivate", aliceToken, private.File.ID, true},
		{"AnonymousReadsPrivate", "", private.File.ID, false},
		{"OtherUserReadsPrivate", malloryToken, private.File.ID, false},
		{"StaleTokenReadsPrivate", "expired-token", private.File.ID, false},
		{"OwnerReadsPublic", aliceToken, public.File.ID, true},
		{"AnonymousReadsPublic", "", public.File.ID, true},
		{"OtherUserReadsPublic", malloryToken, public.File.ID, true},
		{"StaleTokenReadsPublic", "expired-token", public.File.ID, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := env.svc.Download(ctx, tc.token, tc.fileID, "")
			if !tc.allowed {
				require.Error(t, err)
				assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
				return
			}
			require.NoError(t, err)
			defer func() { _ = result.Content.Close() }()

			data, err := io.ReadAll(result.Content)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			assert.Equal(t, uint64(len(data)), result.Size)
		})
	}
}

func TestDownload_Folder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, token := registerAndLogin(t, env, "dlfolder@example.com")

	folder, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "docs", Type: metadata.FileTypeFolder,
	})
	require.NoError(t, err)

	_, err = env.svc.Download(ctx, token, folder.File.ID, "")
	require.Error(t, err)
	assert.Equal(t, service.CodeValidation, service.CodeOf(err))
	assert.Equal(t, "A folder doesn't have content", err.(*service.Error).Message)
}

func TestDownload_Variants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, token := registerAndLogin(t, env, "dlvariant@example.com")

	result, err := env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "photo.png", Type: metadata.FileTypeImage, Data: []byte("original"),
	})
	require.NoError(t, err)
	fileID := result.File.ID

	// Invalid size token.
	_, err = env.svc.Download(ctx, token, fileID, "huge")
	require.Error(t, err)
	assert.Equal(t, service.CodeValidation, service.CodeOf(err))
	assert.Equal(t, "Invalid size parameter", err.(*service.Error).Message)

	// Variant not generated yet: the worker hasn't run.
	_, err = env.svc.Download(ctx, token, fileID, "small")
	require.Error(t, err)
	assert.Equal(t, service.CodeNotFound, service.CodeOf(err))

	// Simulate the worker writing the small variant.
	variantID := content.VariantContentID(result.File.ContentID, content.VariantSmall)
	require.NoError(t, env.content.WriteContent(ctx, variantID, bytes.NewReader([]byte("thumb"))))

	dl, err := env.svc.Download(ctx, token, fileID, "small")
	require.NoError(t, err)
	defer func() { _ = dl.Content.Close() }()

	data, err := io.ReadAll(dl.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), data)
}

func TestDownload_Missing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Download(context.Background(), "", uuid.New(), "")
	assert.Equal(t, service.CodeNotFound, service.CodeOf(err))
}

// ============================================================================
// Stats
// ============================================================================

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	stats, err := env.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.Users)
	assert.Equal(t, uint64(0), stats.Files)

	user, _ := registerAndLogin(t, env, "stats@example.com")
	_, err = env.svc.Upload(ctx, user.ID, service.UploadParams{
		Name: "docs", Type: metadata.FileTypeFolder,
	})
	require.NoError(t, err)

	stats, err = env.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Users)
	assert.Equal(t, uint64(1), stats.Files)
}
