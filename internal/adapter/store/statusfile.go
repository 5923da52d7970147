package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"ragstore/internal/domain"
)

// StatusFileStore persists processing status records as one JSON file per
// document, named by document id. Every Put is a complete overwrite, so
// the file always reflects the latest stage transition.
type StatusFileStore struct {
	baseDir string
}

func NewStatusFileStore(baseDir string) *StatusFileStore {
	return &StatusFileStore{baseDir: baseDir}
}

func (s *StatusFileStore) path(namespace, documentID string) string {
	if namespace == "" {
		return filepath.Join(s.baseDir, documentID+".json")
	}
	return filepath.Join(s.baseDir, namespace, documentID+".json")
}

func (s *StatusFileStore) Put(status domain.ProcessingStatus) error {
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	path := s.path(status.Namespace, status.DocumentID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &domain.StorageIOError{Op: "mkdir", Path: filepath.Dir(path), Err: err}
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return &domain.StorageIOError{Op: "marshal", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &domain.StorageIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (s *StatusFileStore) Get(namespace, documentID string) (domain.ProcessingStatus, error) {
	path := s.path(namespace, documentID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ProcessingStatus{}, &domain.NotFoundError{Kind: "document", ID: documentID}
		}
		return domain.ProcessingStatus{}, &domain.StorageIOError{Op: "read", Path: path, Err: err}
	}

	var status domain.ProcessingStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.ProcessingStatus{}, &domain.StorageIOError{Op: "unmarshal", Path: path, Err: err}
	}
	return status, nil
}
