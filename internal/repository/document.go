package repository

import (
	"context"
	"sync"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/types"
)

type documentRepository struct {
	mu        sync.RWMutex
	documents map[string]*document.TransportDocument
	log       *logger.Logger
}

func newDocumentRepository(log *logger.Logger) *documentRepository {
	return &documentRepository{
		documents: make(map[string]*document.TransportDocument),
		log:       log,
	}
}

func (r *documentRepository) Create(ctx context.Context, doc *document.TransportDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == "" {
		return ierr.NewError("document ID cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if _, exists := r.documents[doc.ID]; exists {
		return ierr.NewError("document already exists").
			WithHintf("A document with ID %s already exists", doc.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	r.documents[doc.ID] = doc.Clone()
	r.log.Debugw("stored transport document", "document_id", doc.ID)
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id string) (*document.TransportDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists {
		return nil, ierr.NewError("document not found").
			WithHintf("Document with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (r *documentRepository) Update(ctx context.Context, doc *document.TransportDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.documents[doc.ID]; !exists {
		return ierr.NewError("document not found").
			WithHintf("Document with ID %s was not found", doc.ID).
			Mark(ierr.ErrNotFound)
	}

	r.documents[doc.ID] = doc.Clone()
	return nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id string, from, to types.DocumentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, exists := r.documents[id]
	if !exists {
		return ierr.NewError("document not found").
			WithHintf("Document with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	// compare-and-swap: losing a race is a conflict, never a silent overwrite
	if doc.DocumentStatus != from {
		return ierr.NewError("document status changed concurrently").
			WithHintf("Expected status %s but found %s", from, doc.DocumentStatus).
			WithReportableDetails(map[string]any{
				"expected": from,
				"actual":   doc.DocumentStatus,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	doc.DocumentStatus = to
	doc.Version++
	r.log.Debugw("document status transition",
		"document_id", id,
		"from", from,
		"to", to)
	return nil
}

func (r *documentRepository) ListByStatus(ctx context.Context, status types.DocumentStatus) ([]*document.TransportDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*document.TransportDocument
	for _, doc := range r.documents {
		if doc.DocumentStatus == status {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}
