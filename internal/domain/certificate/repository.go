package certificate

import (
	"context"
)

// Repository defines the interface for certificate persistence
type Repository interface {
	// Create stores a new certificate record
	Create(ctx context.Context, cert *Certificate) error

	// Get retrieves a certificate by ID
	Get(ctx context.Context, id string) (*Certificate, error)

	// Update updates an existing certificate record
	Update(ctx context.Context, cert *Certificate) error

	// List retrieves all certificates for the tenant in context
	List(ctx context.Context) ([]*Certificate, error)

	// GetActive returns the currently active certificate for the tenant
	GetActive(ctx context.Context) (*Certificate, error)

	// Activate marks the given certificate active and deactivates the
	// previous holder of the flag as one atomic update, so the single-active
	// invariant can never be observed broken
	Activate(ctx context.Context, id string) error
}
