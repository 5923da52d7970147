package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"ragstore/internal/domain"
	"ragstore/internal/port"
)

// Service is the boundary surface consumed by an external front door
// (HTTP layer, CLI client): upload, status, delete, query, list.
type Service struct {
	documentsDir string
	store        port.FragmentStore
	status       port.StatusStore
	pipeline     *Pipeline
	retriever    *Retriever
	log          *slog.Logger
}

func NewService(
	documentsDir string,
	store port.FragmentStore,
	status port.StatusStore,
	pipeline *Pipeline,
	retriever *Retriever,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		documentsDir: documentsDir,
		store:        store,
		status:       status,
		pipeline:     pipeline,
		retriever:    retriever,
		log:          log,
	}
}

// UploadRequest carries one file into the ingestion pipeline. Async runs
// the pipeline in the background; the caller polls status separately.
type UploadRequest struct {
	Filename  string
	Content   io.Reader
	Namespace string
	Async     bool
}

// UploadResult acknowledges an upload. A processing failure is reported in
// Status and Message, not as an error.
type UploadResult struct {
	DocumentID string        `json:"document_id"`
	Namespace  string        `json:"namespace,omitempty"`
	Filename   string        `json:"filename"`
	Status     domain.Status `json:"status"`
	Message    string        `json:"message"`
}

func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if req.Filename == "" || req.Content == nil {
		return UploadResult{}, fmt.Errorf("upload requires a filename and content")
	}

	documentID := uuid.NewString()

	dir := s.namespaceDocumentsDir(req.Namespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return UploadResult{}, &domain.StorageIOError{Op: "mkdir", Path: dir, Err: err}
	}

	// The document id prefixes the stored name so delete can find every
	// source file belonging to the document.
	path := filepath.Join(dir, documentID+"-"+filepath.Base(req.Filename))
	file, err := os.Create(path)
	if err != nil {
		return UploadResult{}, &domain.StorageIOError{Op: "create", Path: path, Err: err}
	}
	size, err := io.Copy(file, req.Content)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return UploadResult{}, &domain.StorageIOError{Op: "write", Path: path, Err: err}
	}

	s.log.Info("file uploaded", "document", documentID, "filename", req.Filename, "bytes", size)

	if req.Async {
		// Backgrounded ingestion outlives this request and has no
		// cancellation handle.
		go s.pipeline.Run(context.Background(), documentID, path, req.Namespace)

		return UploadResult{
			DocumentID: documentID,
			Namespace:  req.Namespace,
			Filename:   req.Filename,
			Status:     domain.StatusPending,
			Message:    "Document uploaded and queued for processing",
		}, nil
	}

	result := s.pipeline.Run(ctx, documentID, path, req.Namespace)
	if result.Status == domain.StatusFailed {
		return UploadResult{
			DocumentID: documentID,
			Namespace:  req.Namespace,
			Filename:   req.Filename,
			Status:     domain.StatusFailed,
			Message:    "Document processing failed: " + result.Err.Message,
		}, nil
	}

	return UploadResult{
		DocumentID: documentID,
		Namespace:  req.Namespace,
		Filename:   req.Filename,
		Status:     domain.StatusIndexed,
		Message:    "Document uploaded and processed successfully",
	}, nil
}

// Status returns the current processing status record for a document.
func (s *Service) Status(namespace, documentID string) (domain.ProcessingStatus, error) {
	return s.status.Get(namespace, documentID)
}

// DeleteResult reports what a delete removed.
type DeleteResult struct {
	DocumentID    string `json:"document_id"`
	FragmentCount int    `json:"fragment_count"`
	Message       string `json:"message"`
}

// Delete removes a document's source files and all of its fragments.
// Deleting an unknown id is not an error.
func (s *Service) Delete(namespace, documentID string) (DeleteResult, error) {
	sourcesDeleted := 0

	matches, err := filepath.Glob(filepath.Join(s.namespaceDocumentsDir(namespace), documentID+"-*"))
	if err == nil {
		for _, match := range matches {
			if err := os.Remove(match); err != nil {
				s.log.Warn("failed to remove source file", "path", match, "error", err)
				continue
			}
			sourcesDeleted++
		}
	}

	count, err := s.store.DeleteDocument(namespace, documentID)
	if err != nil {
		return DeleteResult{}, err
	}

	message := fmt.Sprintf("Document %s deleted (%d fragments)", documentID, count)
	if count == 0 && sourcesDeleted == 0 {
		message = fmt.Sprintf("No files or fragments found for document %s", documentID)
	}

	return DeleteResult{
		DocumentID:    documentID,
		FragmentCount: count,
		Message:       message,
	}, nil
}

// Query ranks stored fragments against a question.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	if req.Query == "" {
		return QueryResult{}, fmt.Errorf("query text is required")
	}
	return s.retriever.Query(ctx, req)
}

// ListDocuments summarizes the namespace's stored documents.
func (s *Service) ListDocuments(namespace string) ([]domain.DocumentSummary, error) {
	return s.store.ListDocuments(namespace)
}

// IngestFile runs the pipeline over a file already on disk, bypassing the
// upload copy. Used by the CLI for local ingestion.
func (s *Service) IngestFile(ctx context.Context, path, namespace string) Result {
	return s.pipeline.Run(ctx, uuid.NewString(), path, namespace)
}

func (s *Service) namespaceDocumentsDir(namespace string) string {
	if namespace == "" {
		return s.documentsDir
	}
	return filepath.Join(s.documentsDir, namespace)
}
