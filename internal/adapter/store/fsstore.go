package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragstore/internal/domain"
)

const indexFileName = "index.json"

// indexEntry is the authoritative per-fragment record of a namespace index.
type indexEntry struct {
	DocumentID string         `json:"document_id"`
	Path       string         `json:"path"`
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// fragmentRecord is the serialized durable form of one fragment.
type fragmentRecord struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Namespace  string         `json:"namespace,omitempty"`
	Text       string         `json:"text"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// namespaceIndex serializes the load-mutate-persist cycle of one namespace.
type namespaceIndex struct {
	mu      sync.Mutex
	entries map[string]indexEntry
}

// FSStore is the filesystem fragment store: one directory per namespace
// holding an index.json plus one JSON record per fragment. Indexes are
// loaded fully into memory at startup and are the single source of truth;
// fragment records are only read lazily on Get and Search.
type FSStore struct {
	baseDir string
	log     *slog.Logger

	mu         sync.Mutex
	namespaces map[string]*namespaceIndex
}

func NewFSStore(baseDir string, log *slog.Logger) (*FSStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, &domain.StorageIOError{Op: "mkdir", Path: baseDir, Err: err}
	}

	s := &FSStore{
		baseDir:    baseDir,
		log:        log,
		namespaces: make(map[string]*namespaceIndex),
	}
	if err := s.loadIndexes(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadIndexes scans the base directory and every namespace subdirectory
// for persisted index files.
func (s *FSStore) loadIndexes() error {
	dirs := []string{""}

	children, err := os.ReadDir(s.baseDir)
	if err != nil {
		return &domain.StorageIOError{Op: "readdir", Path: s.baseDir, Err: err}
	}
	for _, child := range children {
		if child.IsDir() {
			dirs = append(dirs, child.Name())
		}
	}

	for _, ns := range dirs {
		path := filepath.Join(s.namespaceDir(ns), indexFileName)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return &domain.StorageIOError{Op: "read", Path: path, Err: err}
		}

		entries := make(map[string]indexEntry)
		if err := json.Unmarshal(data, &entries); err != nil {
			s.log.Warn("skipping corrupt namespace index", "path", path, "error", err)
			continue
		}

		s.namespaces[ns] = &namespaceIndex{entries: entries}
		s.log.Info("loaded namespace index", "namespace", ns, "fragments", len(entries))
	}

	return nil
}

func (s *FSStore) namespaceDir(namespace string) string {
	if namespace == "" {
		return s.baseDir
	}
	return filepath.Join(s.baseDir, namespace)
}

func (s *FSStore) index(namespace string) *namespaceIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.namespaces[namespace]
	if !ok {
		idx = &namespaceIndex{entries: make(map[string]indexEntry)}
		s.namespaces[namespace] = idx
	}
	return idx
}

// persistIndex writes a namespace index in full. Callers hold the
// namespace lock.
func (s *FSStore) persistIndex(namespace string, idx *namespaceIndex) error {
	dir := s.namespaceDir(namespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &domain.StorageIOError{Op: "mkdir", Path: dir, Err: err}
	}

	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return &domain.StorageIOError{Op: "marshal", Path: dir, Err: err}
	}

	path := filepath.Join(dir, indexFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &domain.StorageIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func (s *FSStore) Add(namespace string, fragments []domain.Fragment) ([]string, error) {
	if len(fragments) == 0 {
		return nil, nil
	}

	idx := s.index(namespace)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	dir := s.namespaceDir(namespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &domain.StorageIOError{Op: "mkdir", Path: dir, Err: err}
	}

	ids := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if fragment.ID == "" {
			fragment.ID = uuid.NewString()
		}
		if fragment.CreatedAt.IsZero() {
			fragment.CreatedAt = time.Now().UTC()
		}
		fragment.Namespace = namespace

		path := filepath.Join(dir, fragment.ID+".json")
		record := fragmentRecord{
			ID:         fragment.ID,
			DocumentID: fragment.DocumentID,
			Namespace:  fragment.Namespace,
			Text:       fragment.Text,
			Embedding:  fragment.Embedding,
			Metadata:   fragment.Metadata,
			CreatedAt:  fragment.CreatedAt,
		}

		data, err := json.Marshal(record)
		if err != nil {
			s.log.Warn("skipping fragment that failed to serialize", "fragment", fragment.ID, "error", err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			s.log.Warn("skipping fragment that failed to persist", "fragment", fragment.ID, "error", err)
			continue
		}

		idx.entries[fragment.ID] = indexEntry{
			DocumentID: fragment.DocumentID,
			Path:       path,
			CreatedAt:  fragment.CreatedAt,
			Metadata:   fragment.Metadata,
		}
		ids = append(ids, fragment.ID)
	}

	if err := s.persistIndex(namespace, idx); err != nil {
		return nil, err
	}

	s.log.Info("added fragments", "namespace", namespace, "count", len(ids))
	return ids, nil
}

func (s *FSStore) Get(namespace, id string) (domain.Fragment, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	entry, ok := idx.entries[id]
	idx.mu.Unlock()

	if !ok {
		return domain.Fragment{}, &domain.NotFoundError{Kind: "fragment", ID: id}
	}

	fragment, err := s.readRecord(entry.Path)
	if err != nil {
		// A missing or corrupt record behind a live index entry is an
		// inconsistency we tolerate rather than escalate.
		s.log.Warn("fragment record unreadable", "fragment", id, "path", entry.Path, "error", err)
		return domain.Fragment{}, &domain.NotFoundError{Kind: "fragment", ID: id}
	}
	return fragment, nil
}

func (s *FSStore) readRecord(path string) (domain.Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Fragment{}, err
	}
	var record fragmentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.Fragment{}, err
	}
	return domain.Fragment{
		ID:         record.ID,
		DocumentID: record.DocumentID,
		Namespace:  record.Namespace,
		Text:       record.Text,
		Embedding:  record.Embedding,
		Metadata:   record.Metadata,
		CreatedAt:  record.CreatedAt,
	}, nil
}

func (s *FSStore) Search(namespace string, query []float32, topK int, filters map[string]any) ([]domain.Fragment, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	candidates := make(map[string]indexEntry, len(idx.entries))
	for id, entry := range idx.entries {
		if matchesFilters(entry, filters) {
			candidates[id] = entry
		}
	}
	idx.mu.Unlock()

	scored := make([]domain.ScoredFragment, 0, len(candidates))
	for id, entry := range candidates {
		fragment, err := s.readRecord(entry.Path)
		if err != nil {
			s.log.Warn("fragment record unreadable during search", "fragment", id, "error", err)
			continue
		}
		if len(fragment.Embedding) == 0 {
			continue
		}
		scored = append(scored, domain.ScoredFragment{
			Fragment: fragment,
			Score:    CosineSimilarity(query, fragment.Embedding),
		})
	}

	return rankFragments(scored, topK), nil
}

func (s *FSStore) DeleteDocument(namespace, documentID string) (int, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var doomed []string
	for id, entry := range idx.entries {
		if entry.DocumentID == documentID {
			doomed = append(doomed, id)
		}
	}

	deleted := 0
	for _, id := range doomed {
		entry := idx.entries[id]
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove fragment record", "fragment", id, "error", err)
			continue
		}
		delete(idx.entries, id)
		deleted++
	}

	if deleted > 0 {
		if err := s.persistIndex(namespace, idx); err != nil {
			return deleted, err
		}
	}

	s.log.Info("deleted document fragments", "namespace", namespace, "document", documentID, "count", deleted)
	return deleted, nil
}

func (s *FSStore) ListDocuments(namespace string) ([]domain.DocumentSummary, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return summarize(idx.entries), nil
}

func (s *FSStore) Close() error { return nil }

// matchesFilters applies exact-match filters to an index entry. The
// document_id key is matched at the entry level; every other key is
// matched against the entry metadata.
func matchesFilters(entry indexEntry, filters map[string]any) bool {
	for key, want := range filters {
		if key == "document_id" {
			if entry.DocumentID != want {
				return false
			}
			continue
		}
		if got, ok := entry.Metadata[key]; ok && !filterEquals(got, want) {
			return false
		}
	}
	return true
}

// filterEquals compares a stored metadata value with a filter value.
// Numbers are compared by value since JSON reload widens them to float64.
func filterEquals(got, want any) bool {
	if g, ok := asFloat(got); ok {
		if w, ok := asFloat(want); ok {
			return g == w
		}
		return false
	}
	return got == want
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// rankFragments orders scored fragments by descending similarity, attaches
// the score to each fragment's metadata and truncates to topK.
func rankFragments(scored []domain.ScoredFragment, topK int) []domain.Fragment {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]domain.Fragment, 0, len(scored))
	for _, sf := range scored {
		fragment := sf.Fragment
		if fragment.Metadata == nil {
			fragment.Metadata = make(map[string]any, 1)
		}
		fragment.Metadata["score"] = sf.Score
		results = append(results, fragment)
	}
	return results
}

// summarize groups index entries by document id. Ids are visited in sorted
// order so the summary metadata (taken from the first fragment seen) is
// deterministic.
func summarize(entries map[string]indexEntry) []domain.DocumentSummary {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	order := make([]string, 0)
	byDoc := make(map[string]*domain.DocumentSummary)
	for _, id := range ids {
		entry := entries[id]
		summary, ok := byDoc[entry.DocumentID]
		if !ok {
			summary = &domain.DocumentSummary{
				DocumentID: entry.DocumentID,
				Metadata:   entry.Metadata,
				CreatedAt:  entry.CreatedAt,
			}
			byDoc[entry.DocumentID] = summary
			order = append(order, entry.DocumentID)
		}
		summary.ChunkCount++
	}

	summaries := make([]domain.DocumentSummary, 0, len(order))
	for _, docID := range order {
		summaries = append(summaries, *byDoc[docID])
	}
	return summaries
}
