// Package memory provides in-memory implementations of the storage
// ports, primarily for tests. Insert semantics mirror the SQLite
// adapter: unique-key conflicts return domain.ErrAlreadyExists.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/paperstack-labs/paperstack-cli/internal/core/domain"
	"github.com/paperstack-labs/paperstack-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu           sync.RWMutex
	documents    map[string]domain.Document
	fingerprints map[string]string
	segments     map[string][]domain.Segment
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:    make(map[string]domain.Document),
		fingerprints: make(map[string]string),
		segments:     make(map[string][]domain.Segment),
	}
}

// InsertDocument stores a new document, failing on fingerprint conflict.
func (s *DocumentStore) InsertDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fingerprints[doc.Fingerprint]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.documents[doc.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.documents[doc.ID] = *doc
	s.fingerprints[doc.Fingerprint] = doc.ID
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByFingerprint retrieves a document by content fingerprint.
func (s *DocumentStore) GetDocumentByFingerprint(_ context.Context, fingerprint string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.fingerprints[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// DeleteDocument removes a document and its segments.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.fingerprints, doc.Fingerprint)
	delete(s.segments, id)
	return nil
}

// InsertSegments stores the segments of one document.
func (s *DocumentStore) InsertSegments(_ context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := segments[0].DocumentID
	if len(s.segments[docID]) > 0 {
		return domain.ErrAlreadyExists
	}
	stored := make([]domain.Segment, len(segments))
	copy(stored, segments)
	sort.Slice(stored, func(i, j int) bool { return stored[i].Ordinal < stored[j].Ordinal })
	s.segments[docID] = stored
	return nil
}

// GetSegments returns a document's segments in ordinal order.
func (s *DocumentStore) GetSegments(_ context.Context, documentID string) ([]domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	segments := s.segments[documentID]
	out := make([]domain.Segment, len(segments))
	copy(out, segments)
	return out, nil
}

// SearchSimilar ranks stored segments by cosine similarity.
func (s *DocumentStore) SearchSimilar(_ context.Context, vector []float32, topK int, documentID string) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Match
	for docID, segments := range s.segments {
		if documentID != "" && docID != documentID {
			continue
		}
		title := s.documents[docID].Title
		for _, seg := range segments {
			if len(seg.Embedding) != len(vector) {
				continue
			}
			matches = append(matches, domain.Match{
				Segment:       seg,
				DocumentTitle: title,
				Score:         cosineSimilarity(vector, seg.Embedding),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Segment.DocumentID != matches[j].Segment.DocumentID {
			return matches[i].Segment.DocumentID < matches[j].Segment.DocumentID
		}
		return matches[i].Segment.Ordinal < matches[j].Segment.Ordinal
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
