package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the fragment store service.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects the fragment store backend and its location.
type StorageConfig struct {
	Backend        string `yaml:"backend"`         // "fs" or "bolt"
	DataDir        string `yaml:"data_dir"`        // root for documents, embeddings, status
	DocumentsDir   string `yaml:"documents_dir"`   // uploaded source files
	EmbeddingsDir  string `yaml:"embeddings_dir"`  // fs backend: index + fragment records
	BoltPath       string `yaml:"bolt_path"`       // bolt backend: db file
	StatusDir      string `yaml:"status_dir"`      // processing status records
}

// ChunkingConfig holds segmentation configuration.
type ChunkingConfig struct {
	Strategy     string `yaml:"strategy"` // "fixed" or "semantic"
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	Separator    string `yaml:"separator"`
}

// EmbeddingConfig holds embedding backend configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "local" or "openai"
	Model     string `yaml:"model"`       // e.g. "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // environment variable for the API key
	BaseURL   string `yaml:"base_url"`
	BatchSize int    `yaml:"batch_size"` // pipeline embedding batch size
	Dimension int    `yaml:"dimension"`  // local provider vector width
}

// IngestConfig holds directory ingestion configuration.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// RetrieveConfig holds query configuration.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "fs",
			DataDir: ".ragstore",
		},
		Chunking: ChunkingConfig{
			Strategy:     "fixed",
			ChunkSize:    512,
			ChunkOverlap: 50,
			Separator:    "\n",
		},
		Embedding: EmbeddingConfig{
			Provider:  "local",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 10,
			Dimension: 384,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"},
		},
		Retrieve: RetrieveConfig{
			TopK: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragstore.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragstore.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragstore", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DocumentsPath resolves the directory holding uploaded source files.
func (c *Config) DocumentsPath() string {
	if c.Storage.DocumentsDir != "" {
		return c.Storage.DocumentsDir
	}
	return filepath.Join(c.Storage.DataDir, "documents")
}

// EmbeddingsPath resolves the root of the filesystem fragment store.
func (c *Config) EmbeddingsPath() string {
	if c.Storage.EmbeddingsDir != "" {
		return c.Storage.EmbeddingsDir
	}
	return filepath.Join(c.Storage.DataDir, "embeddings")
}

// BoltDBPath resolves the bolt backend's database file.
func (c *Config) BoltDBPath() string {
	if c.Storage.BoltPath != "" {
		return c.Storage.BoltPath
	}
	return filepath.Join(c.Storage.DataDir, "fragments.db")
}

// StatusPath resolves the directory holding processing status records.
func (c *Config) StatusPath() string {
	if c.Storage.StatusDir != "" {
		return c.Storage.StatusDir
	}
	return filepath.Join(c.Storage.DataDir, "status")
}
