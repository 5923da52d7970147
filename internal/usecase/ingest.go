package usecase

import (
	"context"
	"log/slog"
	"time"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

const defaultEmbedBatchSize = 10

// Pipeline turns one uploaded file into stored, embedded fragments,
// persisting a status record before each stage's work so an observer
// always sees the stage currently executing.
type Pipeline struct {
	store     port.FragmentStore
	status    port.StatusStore
	embedder  port.Embedder
	splitter  port.Splitter
	extractor port.Extractor
	batchSize int
	log       *slog.Logger
}

func NewPipeline(
	store port.FragmentStore,
	status port.StatusStore,
	embedder port.Embedder,
	splitter port.Splitter,
	extractor port.Extractor,
	batchSize int,
	log *slog.Logger,
) *Pipeline {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		store:     store,
		status:    status,
		embedder:  embedder,
		splitter:  splitter,
		extractor: extractor,
		batchSize: batchSize,
		log:       log,
	}
}

// Result is the structured outcome of one pipeline run. Failures are
// reported here rather than as raised errors: a backgrounded run has no
// caller waiting, and a synchronous caller gets the same shape.
type Result struct {
	DocumentID string
	Namespace  string
	Status     domain.Status
	Stage      domain.Stage
	ChunkCount int
	Elapsed    time.Duration
	Err        *domain.StageError
}

// Run executes the full state machine for one document:
// initialization → text_extraction → chunking → embedding → storage →
// complete, with failed reachable from any stage. Fragments stored before
// a later-stage failure are left in place.
func (p *Pipeline) Run(ctx context.Context, documentID, filePath, namespace string) Result {
	start := time.Now()

	p.transition(documentID, namespace, domain.StageInitialization, nil)

	p.transition(documentID, namespace, domain.StageExtraction, nil)
	extracted, err := p.extractor.Extract(filePath)
	if err != nil {
		return p.fail(documentID, namespace, domain.StageExtraction, err, start)
	}

	p.transition(documentID, namespace, domain.StageChunking, map[string]any{
		"text_length": len(extracted.Text),
	})
	chunks := p.splitter.Split(extracted.Text, documentID, extracted.Metadata)

	p.transition(documentID, namespace, domain.StageEmbedding, map[string]any{
		"text_length": len(extracted.Text),
		"chunk_count": len(chunks),
	})
	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return p.fail(documentID, namespace, domain.StageEmbedding, err, start)
	}

	p.transition(documentID, namespace, domain.StageStorage, map[string]any{
		"chunk_count": len(chunks),
	})
	fragments := make([]domain.Fragment, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = domain.Fragment{
			DocumentID: documentID,
			Namespace:  namespace,
			Text:       chunk.Text,
			Embedding:  vectors[i],
			Metadata:   chunk.Metadata,
		}
	}
	if _, err := p.store.Add(namespace, fragments); err != nil {
		return p.fail(documentID, namespace, domain.StageStorage, err, start)
	}

	elapsed := time.Since(start)
	p.putStatus(domain.ProcessingStatus{
		DocumentID: documentID,
		Namespace:  namespace,
		Status:     domain.StatusIndexed,
		Stage:      domain.StageComplete,
		Metadata: map[string]any{
			"text_length":     len(extracted.Text),
			"chunk_count":     len(chunks),
			"elapsed_seconds": elapsed.Seconds(),
		},
	})

	p.log.Info("document processed",
		"document", documentID, "namespace", namespace,
		"chunks", len(chunks), "elapsed", elapsed)

	return Result{
		DocumentID: documentID,
		Namespace:  namespace,
		Status:     domain.StatusIndexed,
		Stage:      domain.StageComplete,
		ChunkCount: len(chunks),
		Elapsed:    elapsed,
	}
}

// embedChunks processes chunk texts through the provider in fixed-size
// batches. Any batch failure aborts the whole document.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for i := 0; i < len(chunks); i += p.batchSize {
		end := i + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-i)
		for _, chunk := range chunks[i:end] {
			texts = append(texts, chunk.Text)
		}

		batch, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// transition records entry into a stage before the stage's work runs.
func (p *Pipeline) transition(documentID, namespace string, stage domain.Stage, metadata map[string]any) {
	p.putStatus(domain.ProcessingStatus{
		DocumentID: documentID,
		Namespace:  namespace,
		Status:     domain.StatusProcessing,
		Stage:      stage,
		Metadata:   metadata,
	})
	p.log.Debug("pipeline stage", "document", documentID, "stage", stage)
}

func (p *Pipeline) fail(documentID, namespace string, stage domain.Stage, err error, start time.Time) Result {
	stageErr := &domain.StageError{Stage: stage, Message: err.Error()}

	p.putStatus(domain.ProcessingStatus{
		DocumentID: documentID,
		Namespace:  namespace,
		Status:     domain.StatusFailed,
		Stage:      stage,
		Error:      stageErr,
	})
	p.log.Error("document processing failed",
		"document", documentID, "stage", stage, "error", err)

	return Result{
		DocumentID: documentID,
		Namespace:  namespace,
		Status:     domain.StatusFailed,
		Stage:      stage,
		Elapsed:    time.Since(start),
		Err:        stageErr,
	}
}

// putStatus persists a status record. Status is observability, so a write
// failure is logged without stopping the pipeline.
func (p *Pipeline) putStatus(status domain.ProcessingStatus) {
	if err := p.status.Put(status); err != nil {
		p.log.Warn("failed to persist status record",
			"document", status.DocumentID, "stage", status.Stage, "error", err)
	}
}
