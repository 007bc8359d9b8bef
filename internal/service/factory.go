package service

import (
	"github.com/fiscalmx/cartaporte/internal/cache"
	"github.com/fiscalmx/cartaporte/internal/config"
	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/idempotency"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/pac"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	// Repositories
	DocumentRepo    document.Repository
	CertificateRepo certificate.Repository
	ArtifactRepo    artifact.Repository

	// External collaborators
	PACClient      pac.Client
	IdempotencyGen *idempotency.Generator
}

// NewServiceParams creates a new ServiceParams instance
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	cache cache.Cache,
	documentRepo document.Repository,
	certificateRepo certificate.Repository,
	artifactRepo artifact.Repository,
	pacClient pac.Client,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		Cache:           cache,
		DocumentRepo:    documentRepo,
		CertificateRepo: certificateRepo,
		ArtifactRepo:    artifactRepo,
		PACClient:       pacClient,
		IdempotencyGen:  idempotency.NewGenerator(),
	}
}
