package document

import (
	"context"

	"github.com/fiscalmx/cartaporte/internal/types"
)

// Repository defines the interface for transport document persistence
type Repository interface {
	// Create creates a new transport document
	Create(ctx context.Context, doc *TransportDocument) error

	// Get retrieves a transport document by ID
	Get(ctx context.Context, id string) (*TransportDocument, error)

	// Update updates an existing transport document
	Update(ctx context.Context, doc *TransportDocument) error

	// UpdateStatus transitions the document status with compare-and-swap
	// semantics: the update applies only if the current status equals from.
	// A mismatch returns a version conflict so two concurrent callers
	// advancing the same document cannot both win.
	UpdateStatus(ctx context.Context, id string, from, to types.DocumentStatus) error

	// ListByStatus retrieves documents currently in the given status
	ListByStatus(ctx context.Context, status types.DocumentStatus) ([]*TransportDocument, error)
}
