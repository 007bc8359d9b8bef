package repository

import (
	"context"
	"sync"

	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/logger"
)

type artifactRepository struct {
	mu           sync.RWMutex
	compiled     map[string][]*artifact.CompiledDocument
	signed       map[string][]*artifact.SignedDocument
	stampsByHash map[string]*artifact.StampResult
	stampsByDoc  map[string]*artifact.StampResult
	log          *logger.Logger
}

func newArtifactRepository(log *logger.Logger) *artifactRepository {
	return &artifactRepository{
		compiled:     make(map[string][]*artifact.CompiledDocument),
		signed:       make(map[string][]*artifact.SignedDocument),
		stampsByHash: make(map[string]*artifact.StampResult),
		stampsByDoc:  make(map[string]*artifact.StampResult),
		log:          log,
	}
}

func (r *artifactRepository) SaveCompiled(ctx context.Context, compiled *artifact.CompiledDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if compiled.DocumentID == "" {
		return ierr.NewError("compiled document has no document ID").
			Mark(ierr.ErrValidation)
	}

	r.compiled[compiled.DocumentID] = append(r.compiled[compiled.DocumentID], compiled)
	return nil
}

func (r *artifactRepository) GetLatestCompiled(ctx context.Context, documentID string) (*artifact.CompiledDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.compiled[documentID]
	if len(versions) == 0 {
		return nil, ierr.NewError("no compiled document").
			WithHintf("Document %s has not been compiled", documentID).
			Mark(ierr.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

func (r *artifactRepository) SaveSigned(ctx context.Context, signed *artifact.SignedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if signed.DocumentID == "" {
		return ierr.NewError("signed document has no document ID").
			Mark(ierr.ErrValidation)
	}

	r.signed[signed.DocumentID] = append(r.signed[signed.DocumentID], signed)
	return nil
}

func (r *artifactRepository) GetLatestSigned(ctx context.Context, documentID string) (*artifact.SignedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.signed[documentID]
	if len(versions) == 0 {
		return nil, ierr.NewError("no signed document").
			WithHintf("Document %s has not been signed", documentID).
			Mark(ierr.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

func (r *artifactRepository) SaveStamp(ctx context.Context, stamp *artifact.StampResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stamp.IdempotencyHash == "" {
		return ierr.NewError("stamp result has no idempotency hash").
			Mark(ierr.ErrValidation)
	}
	if _, exists := r.stampsByHash[stamp.IdempotencyHash]; exists {
		return ierr.NewError("stamp already recorded for this hash").
			Mark(ierr.ErrAlreadyExists)
	}

	r.stampsByHash[stamp.IdempotencyHash] = stamp
	r.stampsByDoc[stamp.DocumentID] = stamp
	r.log.Infow("recorded stamp result",
		"document_id", stamp.DocumentID,
		"uuid", stamp.UUID)
	return nil
}

func (r *artifactRepository) GetStampByHash(ctx context.Context, hash string) (*artifact.StampResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stamp, exists := r.stampsByHash[hash]
	if !exists {
		return nil, ierr.NewError("no stamp for hash").
			Mark(ierr.ErrNotFound)
	}
	return stamp, nil
}

func (r *artifactRepository) GetStampByDocument(ctx context.Context, documentID string) (*artifact.StampResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stamp, exists := r.stampsByDoc[documentID]
	if !exists {
		return nil, ierr.NewError("document has no stamp").
			WithHintf("Document %s has not been stamped", documentID).
			Mark(ierr.ErrNotFound)
	}
	return stamp, nil
}
