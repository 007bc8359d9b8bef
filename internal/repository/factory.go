// Package repository provides the storage implementations wired into the
// server. The embedded stores keep everything in process memory; swapping in a
// database-backed implementation only requires new factories here, the domain
// interfaces stay untouched.
package repository

import (
	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/logger"
)

func NewDocumentRepository(log *logger.Logger) document.Repository {
	return newDocumentRepository(log)
}

func NewCertificateRepository(log *logger.Logger) certificate.Repository {
	return newCertificateRepository(log)
}

func NewArtifactRepository(log *logger.Logger) artifact.Repository {
	return newArtifactRepository(log)
}
