package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ragstore/internal/adapter/embedding"
	"ragstore/internal/adapter/extractor"
	"ragstore/internal/adapter/splitter"
	"ragstore/internal/adapter/store"
	"ragstore/internal/domain"
	"ragstore/internal/port"
)

type failingExtractor struct{}

func (failingExtractor) Extract(path string) (port.Extracted, error) {
	return port.Extracted{}, &domain.ExtractionError{Path: path, Err: errors.New("corrupt file")}
}

type failingEmbedder struct{}

func (failingEmbedder) Init(context.Context) error { return nil }
func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, &domain.ProviderError{Status: 500, Detail: "backend down"}
}
func (failingEmbedder) Dimension() (int, error) { return 0, nil }
func (failingEmbedder) ModelName() string       { return "failing" }

type testEnv struct {
	store    port.FragmentStore
	status   port.StatusStore
	pipeline *Pipeline
}

func newTestEnv(t *testing.T, embedder port.Embedder, ext port.Extractor) testEnv {
	t.Helper()

	fragStore, err := store.NewFSStore(filepath.Join(t.TempDir(), "embeddings"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { fragStore.Close() })

	statusStore := store.NewStatusFileStore(filepath.Join(t.TempDir(), "status"))

	if embedder == nil {
		embedder = embedding.NewLocalEmbedder("", 64)
	}
	if ext == nil {
		ext = extractor.NewRegistry()
	}

	pipeline := NewPipeline(
		fragStore, statusStore, embedder,
		splitter.NewFixedSplitter(64, 8, "\n"),
		ext, 2, nil,
	)

	return testEnv{store: fragStore, status: statusStore, pipeline: pipeline}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipelineSuccess(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	path := writeDoc(t, "doc.txt", "first line of text\nsecond line of text\nthird line of text\nfourth line of text")

	result := env.pipeline.Run(context.Background(), "doc-1", path, "conv-1")

	require.Equal(t, domain.StatusIndexed, result.Status)
	require.Equal(t, domain.StageComplete, result.Stage)
	require.Greater(t, result.ChunkCount, 0)

	status, err := env.status.Get("conv-1", "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusIndexed, status.Status)
	require.Equal(t, domain.StageComplete, status.Stage)
	require.EqualValues(t, result.ChunkCount, status.Metadata["chunk_count"])
	require.Contains(t, status.Metadata, "elapsed_seconds")

	summaries, err := env.store.ListDocuments("conv-1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "doc-1", summaries[0].DocumentID)
	require.Equal(t, result.ChunkCount, summaries[0].ChunkCount)

	// Every fragment's total_chunks matches the fragment count.
	results, err := env.store.Search("conv-1", make([]float32, 64), result.ChunkCount, nil)
	require.NoError(t, err)
	for _, fragment := range results {
		require.EqualValues(t, result.ChunkCount, fragment.Metadata["total_chunks"])
	}
}

func TestPipelineExtractionFailure(t *testing.T) {
	env := newTestEnv(t, nil, failingExtractor{})

	result := env.pipeline.Run(context.Background(), "doc-1", "/nowhere/doc.txt", "")

	require.Equal(t, domain.StatusFailed, result.Status)
	require.Equal(t, domain.StageExtraction, result.Stage)
	require.NotNil(t, result.Err)

	status, err := env.status.Get("", "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, status.Status)
	require.Equal(t, domain.StageExtraction, status.Stage)
	require.NotNil(t, status.Error)
	require.Equal(t, domain.StageExtraction, status.Error.Stage)

	// Nothing reached the store.
	summaries, err := env.store.ListDocuments("")
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestPipelineEmbeddingFailure(t *testing.T) {
	env := newTestEnv(t, failingEmbedder{}, nil)
	path := writeDoc(t, "doc.txt", "some text that will chunk")

	result := env.pipeline.Run(context.Background(), "doc-1", path, "")

	require.Equal(t, domain.StatusFailed, result.Status)
	require.Equal(t, domain.StageEmbedding, result.Stage)

	summaries, err := env.store.ListDocuments("")
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestPipelineEmptyDocument(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	path := writeDoc(t, "empty.txt", "")

	// Zero chunks is a valid outcome, not a failure.
	result := env.pipeline.Run(context.Background(), "doc-1", path, "")

	require.Equal(t, domain.StatusIndexed, result.Status)
	require.Equal(t, 0, result.ChunkCount)
}
