package artifact

import (
	"context"
)

// Repository persists pipeline artifacts. Only the document lifecycle writes
// through it; compilation and signing logic never touch persistence directly.
// Renderers and trackers receive the artifacts as read-only views.
type Repository interface {
	// SaveCompiled stores a compiled document
	SaveCompiled(ctx context.Context, compiled *CompiledDocument) error

	// GetLatestCompiled returns the most recent compiled document for a
	// transport document
	GetLatestCompiled(ctx context.Context, documentID string) (*CompiledDocument, error)

	// SaveSigned stores a signed document
	SaveSigned(ctx context.Context, signed *SignedDocument) error

	// GetLatestSigned returns the most recent signed document for a
	// transport document
	GetLatestSigned(ctx context.Context, documentID string) (*SignedDocument, error)

	// SaveStamp stores a stamp result keyed by its idempotency hash
	SaveStamp(ctx context.Context, stamp *StampResult) error

	// GetStampByHash returns the stamp result recorded under the given
	// idempotency hash, if any
	GetStampByHash(ctx context.Context, hash string) (*StampResult, error)

	// GetStampByDocument returns the stamp result for a transport document
	GetStampByDocument(ctx context.Context, documentID string) (*StampResult, error)
}
