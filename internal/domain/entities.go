package domain

import "time"

// Status is the lifecycle state of a document within the ingestion pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusIndexed    Status = "indexed"
	StatusFailed     Status = "failed"
)

// Stage names one step of the ingestion state machine, in order.
type Stage string

const (
	StageInitialization Stage = "initialization"
	StageExtraction     Stage = "text_extraction"
	StageChunking       Stage = "chunking"
	StageEmbedding      Stage = "embedding"
	StageStorage        Stage = "storage"
	StageComplete       Stage = "complete"
)

// Document describes one uploaded source file.
type Document struct {
	ID        string
	Namespace string
	Filename  string
	FileSize  int64
	MimeType  string
	PageCount int
	Status    Status
	Stage     Stage
	UpdatedAt time.Time
}

// Fragment is one segmented, embedded piece of a document's text.
// Embedding may be nil before the embedding stage completes.
type Fragment struct {
	ID         string
	DocumentID string
	Namespace  string
	Text       string
	Embedding  []float32
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Chunk is the segmenter's output before embedding: text plus the
// metadata the segmenter attached (chunk_index, total_chunks, ...).
type Chunk struct {
	Text     string
	Metadata map[string]any
}

// DocumentSummary is one entry of a store listing, grouped by document.
type DocumentSummary struct {
	DocumentID string
	ChunkCount int
	Metadata   map[string]any
	CreatedAt  time.Time
}

// StageError records the failing stage of a pipeline run.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// ProcessingStatus is the durable per-document status record. It is
// overwritten in full at every stage transition and retained after the
// pipeline finishes, so status can be observed independently of the
// triggering request.
type ProcessingStatus struct {
	DocumentID string         `json:"document_id"`
	Namespace  string         `json:"namespace,omitempty"`
	Status     Status         `json:"status"`
	Stage      Stage          `json:"stage"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Error      *StageError    `json:"error,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ScoredFragment pairs a fragment with its query similarity.
type ScoredFragment struct {
	Fragment Fragment
	Score    float64
}
