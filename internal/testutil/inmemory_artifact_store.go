package testutil

import (
	"context"
	"sync"

	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
)

// InMemoryArtifactStore implements artifact.Repository. Artifacts are
// append-only; "latest" means most recently saved for the document.
type InMemoryArtifactStore struct {
	mu           sync.RWMutex
	compiled     map[string][]*artifact.CompiledDocument
	signed       map[string][]*artifact.SignedDocument
	stampsByHash map[string]*artifact.StampResult
	stampsByDoc  map[string]*artifact.StampResult
}

func NewInMemoryArtifactStore() *InMemoryArtifactStore {
	return &InMemoryArtifactStore{
		compiled:     make(map[string][]*artifact.CompiledDocument),
		signed:       make(map[string][]*artifact.SignedDocument),
		stampsByHash: make(map[string]*artifact.StampResult),
		stampsByDoc:  make(map[string]*artifact.StampResult),
	}
}

func (s *InMemoryArtifactStore) SaveCompiled(ctx context.Context, compiled *artifact.CompiledDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if compiled.DocumentID == "" {
		return ierr.NewError("compiled document has no document ID").
			Mark(ierr.ErrValidation)
	}

	s.compiled[compiled.DocumentID] = append(s.compiled[compiled.DocumentID], compiled)
	return nil
}

func (s *InMemoryArtifactStore) GetLatestCompiled(ctx context.Context, documentID string) (*artifact.CompiledDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.compiled[documentID]
	if len(versions) == 0 {
		return nil, ierr.NewError("no compiled document").
			WithHintf("Document %s has not been compiled", documentID).
			Mark(ierr.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

func (s *InMemoryArtifactStore) SaveSigned(ctx context.Context, signed *artifact.SignedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if signed.DocumentID == "" {
		return ierr.NewError("signed document has no document ID").
			Mark(ierr.ErrValidation)
	}

	s.signed[signed.DocumentID] = append(s.signed[signed.DocumentID], signed)
	return nil
}

func (s *InMemoryArtifactStore) GetLatestSigned(ctx context.Context, documentID string) (*artifact.SignedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.signed[documentID]
	if len(versions) == 0 {
		return nil, ierr.NewError("no signed document").
			WithHintf("Document %s has not been signed", documentID).
			Mark(ierr.ErrNotFound)
	}
	return versions[len(versions)-1], nil
}

func (s *InMemoryArtifactStore) SaveStamp(ctx context.Context, stamp *artifact.StampResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stamp.IdempotencyHash == "" {
		return ierr.NewError("stamp result has no idempotency hash").
			Mark(ierr.ErrValidation)
	}
	if _, exists := s.stampsByHash[stamp.IdempotencyHash]; exists {
		return ierr.NewError("stamp already recorded for this hash").
			Mark(ierr.ErrAlreadyExists)
	}

	s.stampsByHash[stamp.IdempotencyHash] = stamp
	s.stampsByDoc[stamp.DocumentID] = stamp
	return nil
}

func (s *InMemoryArtifactStore) GetStampByHash(ctx context.Context, hash string) (*artifact.StampResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamp, exists := s.stampsByHash[hash]
	if !exists {
		return nil, ierr.NewError("no stamp for hash").
			Mark(ierr.ErrNotFound)
	}
	return stamp, nil
}

func (s *InMemoryArtifactStore) GetStampByDocument(ctx context.Context, documentID string) (*artifact.StampResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamp, exists := s.stampsByDoc[documentID]
	if !exists {
		return nil, ierr.NewError("document has no stamp").
			WithHintf("Document %s has not been stamped", documentID).
			Mark(ierr.ErrNotFound)
	}
	return stamp, nil
}

// Clear removes all artifacts from the store
func (s *InMemoryArtifactStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compiled = make(map[string][]*artifact.CompiledDocument)
	s.signed = make(map[string][]*artifact.SignedDocument)
	s.stampsByHash = make(map[string]*artifact.StampResult)
	s.stampsByDoc = make(map[string]*artifact.StampResult)
}
