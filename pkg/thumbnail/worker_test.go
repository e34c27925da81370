package thumbnail_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/queue"
	queuememory "github.com/marmos91/dittobox/pkg/queue/memory"
	"github.com/marmos91/dittobox/pkg/store/content"
	contentmemory "github.com/marmos91/dittobox/pkg/store/content/memory"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	metadatamemory "github.com/marmos91/dittobox/pkg/store/metadata/memory"
	"github.com/marmos91/dittobox/pkg/thumbnail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerEnv struct {
	worker   *thumbnail.Worker
	metadata *metadatamemory.MemoryMetadataStore
	content  *contentmemory.MemoryContentStore
	owner    *metadata.User
}

func newWorkerEnv(t *testing.T) *workerEnv {
	t.Helper()

	metadataStore := metadatamemory.NewMemoryMetadataStore()
	contentStore := contentmemory.NewMemoryContentStore()

	owner, err := metadataStore.CreateUser(context.Background(), "worker@example.com", []byte("hash"))
	require.NoError(t, err)

	// The worker never touches the queue in Process; pass nil.
	return &workerEnv{
		worker:   thumbnail.NewWorker(nil, metadataStore, contentStore, 1),
		metadata: metadataStore,
		content:  contentStore,
		owner:    owner,
	}
}

// testPNG encodes a solid-color PNG of the given dimensions.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadImage stores content and creates an image record the way the
// upload pipeline does: content first, then metadata.
func uploadImage(t *testing.T, env *workerEnv, data []byte) *metadata.File {
	t.Helper()
	ctx := context.Background()

	contentID := metadata.NewContentID()
	require.NoError(t, env.content.WriteContent(ctx, contentID, bytes.NewReader(data)))

	file, err := env.metadata.CreateFile(ctx, metadata.File{
		OwnerID:   env.owner.ID,
		Name:      "photo.png",
		Type:      metadata.FileTypeImage,
		ParentID:  metadata.RootFolderID,
		ContentID: contentID,
	})
	require.NoError(t, err)
	return file
}

func TestProcess_GeneratesAllVariants(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	file := uploadImage(t, env, testPNG(t, 800, 600))

	err := env.worker.Process(ctx, queue.Job{OwnerID: env.owner.ID, FileID: file.ID})
	require.NoError(t, err)

	for _, size := range content.VariantSizes {
		variantID := content.VariantContentID(file.ContentID, size)

		reader, err := env.content.ReadContent(ctx, variantID)
		require.NoError(t, err, "variant %s missing", size)

		data, err := io.ReadAll(reader)
		require.NoError(t, reader.Close())
		require.NoError(t, err)

		img, format, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err, "variant %s does not decode", size)
		assert.Equal(t, "png", format)
		assert.Equal(t, size.Width(), img.Bounds().Dx(), "variant %s width", size)
	}
}

// Aspect ratio is preserved: height follows from the source proportions.
func TestProcess_PreservesAspectRatio(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	file := uploadImage(t, env, testPNG(t, 400, 200))

	require.NoError(t, env.worker.Process(ctx, queue.Job{OwnerID: env.owner.ID, FileID: file.ID}))

	reader, err := env.content.ReadContent(ctx, content.VariantContentID(file.ContentID, content.VariantSmall))
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	img, _, err := image.Decode(reader)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

// Reprocessing the same job must be a harmless overwrite.
func TestProcess_Idempotent(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	file := uploadImage(t, env, testPNG(t, 300, 300))
	job := queue.Job{OwnerID: env.owner.ID, FileID: file.ID}

	require.NoError(t, env.worker.Process(ctx, job))
	require.NoError(t, env.worker.Process(ctx, job))

	for _, size := range content.VariantSizes {
		exists, err := env.content.ContentExists(ctx, content.VariantContentID(file.ContentID, size))
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestProcess_PermanentFailures(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	t.Run("FileMissing", func(t *testing.T) {
		err := env.worker.Process(ctx, queue.Job{OwnerID: env.owner.ID, FileID: uuid.New()})
		assert.ErrorIs(t, err, thumbnail.ErrPermanent)
	})

	t.Run("OwnerMismatch", func(t *testing.T) {
		file := uploadImage(t, env, testPNG(t, 10, 10))
		err := env.worker.Process(ctx, queue.Job{OwnerID: uuid.New(), FileID: file.ID})
		assert.ErrorIs(t, err, thumbnail.ErrPermanent)
	})

	t.Run("NotAnImage", func(t *testing.T) {
		contentID := metadata.NewContentID()
		require.NoError(t, env.content.WriteContent(ctx, contentID, bytes.NewReader([]byte("text"))))
		file, err := env.metadata.CreateFile(ctx, metadata.File{
			OwnerID:   env.owner.ID,
			Name:      "notes.txt",
			Type:      metadata.FileTypeFile,
			ParentID:  metadata.RootFolderID,
			ContentID: contentID,
		})
		require.NoError(t, err)

		err = env.worker.Process(ctx, queue.Job{OwnerID: env.owner.ID, FileID: file.ID})
		assert.ErrorIs(t, err, thumbnail.ErrPermanent)
	})

	t.Run("ContentMissing", func(t *testing.T) {
		// Metadata record whose blob was never written: permanent, the
		// blob is not going to appear.
		file, err := env.metadata.CreateFile(ctx, metadata.File{
			OwnerID:   env.owner.ID,
			Name:      "ghost.png",
			Type:      metadata.FileTypeImage,
			ParentID:  metadata.RootFolderID,
			ContentID: metadata.NewContentID(),
		})
		require.NoError(t, err)

		err = env.worker.Process(ctx, queue.Job{OwnerID: env.owner.ID, FileID: file.ID})
		assert.ErrorIs(t, err, thumbnail.ErrPermanent)
	})
}

// Image bytes that fail to decode are a transient failure: the job must
// go back to the queue, not be dropped outright.
func TestProcess_UndecodableContentIsRetried(t *testing.T) {
	env := newWorkerEnv(t)
	ctx := context.Background()

	file := uploadImage(t, env, []byte("these bytes are not an image"))

	err := env.worker.Process(ctx, queue.Job{OwnerID: env.owner.ID, FileID: file.ID})
	require.Error(t, err)
	assert.NotErrorIs(t, err, thumbnail.ErrPermanent)
}

// End-to-end through the queue: Run consumes, settles, and stops on
// context cancellation.
func TestRun_ConsumesQueue(t *testing.T) {
	env := newWorkerEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue := queuememory.NewMemoryQueue()
	t.Cleanup(func() { _ = jobQueue.Close() })
	worker := thumbnail.NewWorker(jobQueue, env.metadata, env.content, 2)

	file := uploadImage(t, env, testPNG(t, 200, 200))
	require.NoError(t, jobQueue.Enqueue(ctx, queue.Job{OwnerID: env.owner.ID, FileID: file.ID}))

	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// Wait for all variants to appear.
	require.Eventually(t, func() bool {
		for _, size := range content.VariantSizes {
			exists, err := env.content.ContentExists(context.Background(), content.VariantContentID(file.ContentID, size))
			if err != nil || !exists {
				return false
			}
		}
		return true
	}, 10*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
