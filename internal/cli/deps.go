package cli

import (
	"fmt"
	"log/slog"

	"ragstore/config"
	"ragstore/internal/adapter/embedding"
	"ragstore/internal/adapter/extractor"
	"ragstore/internal/adapter/splitter"
	"ragstore/internal/adapter/store"
	"ragstore/internal/port"
	"ragstore/internal/usecase"
)

// buildService assembles the store, embedder, splitter and pipeline from
// configuration. Collaborators are constructed once here and passed by
// reference; there is no hidden shared state.
func buildService(cfg *config.Config) (*usecase.Service, port.FragmentStore, error) {
	log := slog.Default()

	fragStore, err := buildStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		fragStore.Close()
		return nil, nil, err
	}

	split, err := buildSplitter(cfg)
	if err != nil {
		fragStore.Close()
		return nil, nil, err
	}

	statusStore := store.NewStatusFileStore(cfg.StatusPath())

	pipeline := usecase.NewPipeline(
		fragStore, statusStore, embedder, split,
		extractor.NewRegistry(), cfg.Embedding.BatchSize, log,
	)

	svc := usecase.NewService(
		cfg.DocumentsPath(), fragStore, statusStore,
		pipeline, usecase.NewRetriever(fragStore, embedder), log,
	)
	return svc, fragStore, nil
}

func buildStore(cfg *config.Config, log *slog.Logger) (port.FragmentStore, error) {
	switch cfg.Storage.Backend {
	case "fs", "":
		return store.NewFSStore(cfg.EmbeddingsPath(), log)
	case "bolt":
		return store.NewBoltStore(cfg.BoltDBPath(), log)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "local", "":
		return embedding.NewLocalEmbedder(cfg.Embedding.Model, cfg.Embedding.Dimension), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}

func buildSplitter(cfg *config.Config) (port.Splitter, error) {
	switch cfg.Chunking.Strategy {
	case "fixed", "":
		return splitter.NewFixedSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap, cfg.Chunking.Separator), nil
	case "semantic":
		return splitter.NewSemanticSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap, splitter.NewRegexSentences()), nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %s", cfg.Chunking.Strategy)
	}
}
