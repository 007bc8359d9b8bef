package testutil

import (
	"context"
	"sync"

	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
)

// InMemoryCertificateStore implements certificate.Repository. Activation
// deactivates the previous holder under the same lock, so the single-active
// invariant holds at every observable point.
type InMemoryCertificateStore struct {
	mu           sync.RWMutex
	certificates map[string]*certificate.Certificate
}

func NewInMemoryCertificateStore() *InMemoryCertificateStore {
	return &InMemoryCertificateStore{
		certificates: make(map[string]*certificate.Certificate),
	}
}

func (s *InMemoryCertificateStore) Create(ctx context.Context, cert *certificate.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cert.ID == "" {
		return ierr.NewError("certificate ID cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if _, exists := s.certificates[cert.ID]; exists {
		return ierr.NewError("certificate already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.certificates[cert.ID] = cert.Clone()
	return nil
}

func (s *InMemoryCertificateStore) Get(ctx context.Context, id string) (*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, exists := s.certificates[id]
	if !exists {
		return nil, ierr.NewError("certificate not found").
			WithHintf("Certificate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	return cert.Clone(), nil
}

func (s *InMemoryCertificateStore) Update(ctx context.Context, cert *certificate.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.certificates[cert.ID]; !exists {
		return ierr.NewError("certificate not found").
			WithHintf("Certificate with ID %s was not found", cert.ID).
			Mark(ierr.ErrNotFound)
	}

	s.certificates[cert.ID] = cert.Clone()
	return nil
}

func (s *InMemoryCertificateStore) List(ctx context.Context) ([]*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*certificate.Certificate, 0, len(s.certificates))
	for _, cert := range s.certificates {
		result = append(result, cert.Clone())
	}
	return result, nil
}

func (s *InMemoryCertificateStore) GetActive(ctx context.Context) (*certificate.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cert := range s.certificates {
		if cert.Active {
			return cert.Clone(), nil
		}
	}
	return nil, ierr.NewError("no active certificate").
		WithHint("Activate a certificate before signing").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryCertificateStore) Activate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.certificates[id]
	if !exists {
		return ierr.NewError("certificate not found").
			WithHintf("Certificate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	for _, cert := range s.certificates {
		cert.Active = false
	}
	target.Active = true
	return nil
}

// Clear removes all certificates from the store
func (s *InMemoryCertificateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certificates = make(map[string]*certificate.Certificate)
}
