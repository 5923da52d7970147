package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage.Backend != "fs" {
		t.Errorf("expected Backend=fs, got %s", cfg.Storage.Backend)
	}
	if cfg.Chunking.ChunkSize != 512 {
		t.Errorf("expected ChunkSize=512, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("expected ChunkOverlap=50, got %d", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Embedding.Provider != "local" {
		t.Errorf("expected Provider=local, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.BatchSize != 10 {
		t.Errorf("expected BatchSize=10, got %d", cfg.Embedding.BatchSize)
	}
	if cfg.Embedding.Dimension != 384 {
		t.Errorf("expected Dimension=384, got %d", cfg.Embedding.Dimension)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/ragstore.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragstore.yaml")

	content := `
storage:
  backend: bolt
chunking:
  strategy: semantic
  chunk_size: 256
embedding:
  provider: openai
  model: text-embedding-3-large
retrieve:
  top_k: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Backend != "bolt" {
		t.Errorf("expected Backend=bolt, got %s", cfg.Storage.Backend)
	}
	if cfg.Chunking.Strategy != "semantic" {
		t.Errorf("expected Strategy=semantic, got %s", cfg.Chunking.Strategy)
	}
	if cfg.Chunking.ChunkSize != 256 {
		t.Errorf("expected ChunkSize=256, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("expected Model=text-embedding-3-large, got %s", cfg.Embedding.Model)
	}
	// Unset fields keep their defaults.
	if cfg.Chunking.ChunkOverlap != 50 {
		t.Errorf("expected ChunkOverlap=50, got %d", cfg.Chunking.ChunkOverlap)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "ragstore.yaml")

	content := `
retrieve:
  top_k: 8
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Retrieve.TopK != 8 {
		t.Errorf("expected TopK=8, got %d", cfg.Retrieve.TopK)
	}
}

func TestLoadFromDir_HiddenConfig(t *testing.T) {
	tmpDir := t.TempDir()
	hidden := filepath.Join(tmpDir, ".ragstore")
	if err := os.MkdirAll(hidden, 0755); err != nil {
		t.Fatal(err)
	}

	content := `
storage:
  backend: bolt
`
	if err := os.WriteFile(filepath.Join(hidden, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("expected Backend=bolt, got %s", cfg.Storage.Backend)
	}
}

func TestLoadFromDir_Empty(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Backend != "fs" {
		t.Errorf("expected default Backend=fs, got %s", cfg.Storage.Backend)
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "ragstore.yaml")

	cfg := DefaultConfig()
	cfg.Chunking.ChunkSize = 128
	cfg.Embedding.Provider = "openai"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Chunking.ChunkSize != 128 {
		t.Errorf("expected ChunkSize=128, got %d", loaded.Chunking.ChunkSize)
	}
	if loaded.Embedding.Provider != "openai" {
		t.Errorf("expected Provider=openai, got %s", loaded.Embedding.Provider)
	}
}
