package testutil

import (
	"context"
	"sync"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// InMemoryDocumentStore implements document.Repository. Status transitions
// use compare-and-swap under the store lock so concurrency tests observe the
// same conflict semantics as a database-backed implementation.
type InMemoryDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*document.TransportDocument
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		documents: make(map[string]*document.TransportDocument),
	}
}

func (s *InMemoryDocumentStore) Create(ctx context.Context, doc *document.TransportDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		return ierr.NewError("document ID cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if _, exists := s.documents[doc.ID]; exists {
		return ierr.NewError("document already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.documents[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemoryDocumentStore) Get(ctx context.Context, id string) (*document.TransportDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.documents[id]
	if !exists {
		return nil, ierr.NewError("document not found").
			WithHintf("Document with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (s *InMemoryDocumentStore) Update(ctx context.Context, doc *document.TransportDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; !exists {
		return ierr.NewError("document not found").
			WithHintf("Document with ID %s was not found", doc.ID).
			Mark(ierr.ErrNotFound)
	}

	s.documents[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemoryDocumentStore) UpdateStatus(ctx context.Context, id string, from, to types.DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.documents[id]
	if !exists {
		return ierr.NewError("document not found").
			WithHintf("Document with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	if doc.DocumentStatus != from {
		return ierr.NewError("document status changed concurrently").
			WithHintf("Expected status %s but found %s", from, doc.DocumentStatus).
			Mark(ierr.ErrVersionConflict)
	}

	doc.DocumentStatus = to
	doc.Version++
	return nil
}

func (s *InMemoryDocumentStore) ListByStatus(ctx context.Context, status types.DocumentStatus) ([]*document.TransportDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*document.TransportDocument
	for _, doc := range s.documents {
		if doc.DocumentStatus == status {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}

// Clear removes all documents from the store
func (s *InMemoryDocumentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]*document.TransportDocument)
}
