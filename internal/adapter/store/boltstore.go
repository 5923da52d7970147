package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"ragstore/internal/domain"
)

var (
	bucketIndex     = []byte("index")
	bucketFragments = []byte("fragments")
)

// defaultNamespaceKey names the bucket for the empty namespace.
const defaultNamespaceKey = "_default"

// BoltStore is the embedded fragment store backend: one nested bucket per
// namespace under "index" and "fragments". Index mutations run inside
// write transactions, so concurrent writers cannot lose updates. Like the
// filesystem backend, namespace indexes are mirrored in memory at startup
// and fragment records are read lazily.
type BoltStore struct {
	db  *bbolt.DB
	log *slog.Logger

	mu         sync.Mutex
	namespaces map[string]*namespaceIndex
}

func NewBoltStore(path string, log *slog.Logger) (*BoltStore, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &domain.StorageIOError{Op: "open", Path: path, Err: err}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketIndex, bucketFragments} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &domain.StorageIOError{Op: "init", Path: path, Err: err}
	}

	s := &BoltStore{
		db:         db,
		log:        log,
		namespaces: make(map[string]*namespaceIndex),
	}
	if err := s.loadIndexes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func namespaceKey(namespace string) []byte {
	if namespace == "" {
		return []byte(defaultNamespaceKey)
	}
	return []byte(namespace)
}

func (s *BoltStore) loadIndexes() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketIndex)
		return root.ForEachBucket(func(key []byte) error {
			ns := string(key)
			if ns == defaultNamespaceKey {
				ns = ""
			}
			entries := make(map[string]indexEntry)

			err := root.Bucket(key).ForEach(func(id, v []byte) error {
				var entry indexEntry
				if err := json.Unmarshal(v, &entry); err != nil {
					s.log.Warn("skipping corrupt index entry", "namespace", ns, "fragment", string(id), "error", err)
					return nil
				}
				entries[string(id)] = entry
				return nil
			})
			if err != nil {
				return err
			}

			s.namespaces[ns] = &namespaceIndex{entries: entries}
			s.log.Info("loaded namespace index", "namespace", ns, "fragments", len(entries))
			return nil
		})
	})
}

func (s *BoltStore) index(namespace string) *namespaceIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.namespaces[namespace]
	if !ok {
		idx = &namespaceIndex{entries: make(map[string]indexEntry)}
		s.namespaces[namespace] = idx
	}
	return idx
}

func (s *BoltStore) Add(namespace string, fragments []domain.Fragment) ([]string, error) {
	if len(fragments) == 0 {
		return nil, nil
	}

	idx := s.index(namespace)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ids := make([]string, 0, len(fragments))
	staged := make(map[string]indexEntry, len(fragments))

	err := s.db.Update(func(tx *bbolt.Tx) error {
		fragBucket, err := tx.Bucket(bucketFragments).CreateBucketIfNotExists(namespaceKey(namespace))
		if err != nil {
			return err
		}
		idxBucket, err := tx.Bucket(bucketIndex).CreateBucketIfNotExists(namespaceKey(namespace))
		if err != nil {
			return err
		}

		for _, fragment := range fragments {
			if fragment.ID == "" {
				fragment.ID = uuid.NewString()
			}
			if fragment.CreatedAt.IsZero() {
				fragment.CreatedAt = time.Now().UTC()
			}
			fragment.Namespace = namespace

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
			if err := fragBucket.Put([]byte(fragment.ID), data); err != nil {
				return err
			}

			entry := indexEntry{
				DocumentID: fragment.DocumentID,
				Path:       fragment.ID,
				CreatedAt:  fragment.CreatedAt,
				Metadata:   fragment.Metadata,
			}
			entryData, err := json.Marshal(entry)
			if err != nil {
				s.log.Warn("skipping fragment index entry that failed to serialize", "fragment", fragment.ID, "error", err)
				continue
			}
			if err := idxBucket.Put([]byte(fragment.ID), entryData); err != nil {
				return err
			}

			staged[fragment.ID] = entry
			ids = append(ids, fragment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.StorageIOError{Op: "add", Path: s.db.Path(), Err: err}
	}

	for id, entry := range staged {
		idx.entries[id] = entry
	}

	s.log.Info("added fragments", "namespace", namespace, "count", len(ids))
	return ids, nil
}

func (s *BoltStore) Get(namespace, id string) (domain.Fragment, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	_, ok := idx.entries[id]
	idx.mu.Unlock()

	if !ok {
		return domain.Fragment{}, &domain.NotFoundError{Kind: "fragment", ID: id}
	}

	fragment, err := s.readRecord(namespace, id)
	if err != nil {
		s.log.Warn("fragment record unreadable", "fragment", id, "error", err)
		return domain.Fragment{}, &domain.NotFoundError{Kind: "fragment", ID: id}
	}
	return fragment, nil
}

func (s *BoltStore) readRecord(namespace, id string) (domain.Fragment, error) {
	var record fragmentRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketFragments).Bucket(namespaceKey(namespace))
		if bucket == nil {
			return fmt.Errorf("namespace bucket missing: %s", namespace)
		}
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("fragment record missing: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
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

func (s *BoltStore) Search(namespace string, query []float32, topK int, filters map[string]any) ([]domain.Fragment, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	candidates := make([]string, 0, len(idx.entries))
	for id, entry := range idx.entries {
		if matchesFilters(entry, filters) {
			candidates = append(candidates, id)
		}
	}
	idx.mu.Unlock()

	scored := make([]domain.ScoredFragment, 0, len(candidates))
	for _, id := range candidates {
		fragment, err := s.readRecord(namespace, id)
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

func (s *BoltStore) DeleteDocument(namespace, documentID string) (int, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var doomed []string
	for id, entry := range idx.entries {
		if entry.DocumentID == documentID {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		fragBucket := tx.Bucket(bucketFragments).Bucket(namespaceKey(namespace))
		idxBucket := tx.Bucket(bucketIndex).Bucket(namespaceKey(namespace))
		for _, id := range doomed {
			if fragBucket != nil {
				if err := fragBucket.Delete([]byte(id)); err != nil {
					return err
				}
			}
			if idxBucket != nil {
				if err := idxBucket.Delete([]byte(id)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, &domain.StorageIOError{Op: "delete", Path: s.db.Path(), Err: err}
	}

	for _, id := range doomed {
		delete(idx.entries, id)
	}

	s.log.Info("deleted document fragments", "namespace", namespace, "document", documentID, "count", len(doomed))
	return len(doomed), nil
}

func (s *BoltStore) ListDocuments(namespace string) ([]domain.DocumentSummary, error) {
	idx := s.index(namespace)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return summarize(idx.entries), nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
