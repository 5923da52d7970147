package port

import "ragstore/internal/domain"

// FragmentStore is the durable repository of fragments, scoped by an
// optional namespace. An empty namespace addresses the default scope.
type FragmentStore interface {
	// Add persists the given fragments, assigning ids where absent, and
	// updates the namespace index once for the whole batch. A fragment that
	// fails to serialize is logged and skipped, not fatal to the batch.
	// Returns the ids of the fragments actually stored.
	Add(namespace string, fragments []domain.Fragment) ([]string, error)

	// Get returns the fragment with the given id. A missing index entry or
	// a missing/corrupt underlying record yields a NotFoundError.
	Get(namespace, id string) (domain.Fragment, error)

	// Search ranks all fragments matching the filters by cosine similarity
	// to the query vector, descending, and returns at most topK of them.
	// The computed score is attached to each result's metadata under
	// "score". The "document_id" filter key is matched at the index-entry
	// level; remaining keys are exact-match metadata filters.
	Search(namespace string, query []float32, topK int, filters map[string]any) ([]domain.Fragment, error)

	// DeleteDocument removes every fragment owned by the document and
	// returns the removed count. An unknown document id is not an error.
	DeleteDocument(namespace, documentID string) (int, error)

	// ListDocuments groups the namespace index by document id, one summary
	// per distinct document.
	ListDocuments(namespace string) ([]domain.DocumentSummary, error)

	Close() error
}

// StatusStore persists one processing status record per document,
// overwritten in full on every stage transition.
type StatusStore interface {
	Put(status domain.ProcessingStatus) error
	Get(namespace, documentID string) (domain.ProcessingStatus, error)
}
