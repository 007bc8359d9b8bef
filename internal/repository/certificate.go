package repository

import (
	"context"
	"sync"

	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/logger"
)

type certificateRepository struct {
	mu           sync.RWMutex
	certificates map[string]*certificate.Certificate
	log          *logger.Logger
}

func newCertificateRepository(log *logger.Logger) *certificateRepository {
	return &certificateRepository{
		certificates: make(map[string]*certificate.Certificate),
		log:          log,
	}
}

func (r *certificateRepository) Create(ctx context.Context, cert *certificate.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cert.ID == "" {
		return ierr.NewError("certificate ID cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if _, exists := r.certificates[cert.ID]; exists {
		return ierr.NewError("certificate already exists").
			WithHintf("A certificate with ID %s already exists", cert.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	r.certificates[cert.ID] = cert.Clone()
	r.log.Debugw("stored certificate", "certificate_id", cert.ID, "rfc", cert.RFC)
	return nil
}

func (r *certificateRepository) Get(ctx context.Context, id string) (*certificate.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, exists := r.certificates[id]
	if !exists {
		return nil, ierr.NewError("certificate not found").
			WithHintf("Certificate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	return cert.Clone(), nil
}

func (r *certificateRepository) Update(ctx context.Context, cert *certificate.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.certificates[cert.ID]; !exists {
		return ierr.NewError("certificate not found").
			WithHintf("Certificate with ID %s was not found", cert.ID).
			Mark(ierr.ErrNotFound)
	}

	r.certificates[cert.ID] = cert.Clone()
	return nil
}

func (r *certificateRepository) List(ctx context.Context) ([]*certificate.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*certificate.Certificate, 0, len(r.certificates))
	for _, cert := range r.certificates {
		result = append(result, cert.Clone())
	}
	return result, nil
}

func (r *certificateRepository) GetActive(ctx context.Context) (*certificate.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cert := range r.certificates {
		if cert.Active {
			return cert.Clone(), nil
		}
	}
	return nil, ierr.NewError("no active certificate").
		WithHint("Activate a certificate before signing").
		Mark(ierr.ErrNotFound)
}

func (r *certificateRepository) Activate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, exists := r.certificates[id]
	if !exists {
		return ierr.NewError("certificate not found").
			WithHintf("Certificate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	// single atomic flip keeps the one-active invariant observable at all times
	for _, cert := range r.certificates {
		cert.Active = false
	}
	target.Active = true

	r.log.Infow("activated certificate", "certificate_id", id, "rfc", target.RFC)
	return nil
}
