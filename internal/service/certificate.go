package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fiscalmx/cartaporte/internal/cache"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/security"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// CertificateService manages the lifecycle of digital seal certificates:
// import, key-pair validation, activation and expiry tracking. The passphrase
// is used to validate the key pair at import and is never persisted.
type CertificateService interface {
	// ImportCertificate imports a split .cer/.key pair
	ImportCertificate(ctx context.Context, cerBytes, keyBytes []byte, passphrase string) (*certificate.Certificate, error)

	// ImportPKCS12 imports a .pfx bundle holding both halves
	ImportPKCS12(ctx context.Context, pfxBytes []byte, passphrase string) (*certificate.Certificate, error)

	// ReplaceFiles swaps the files on an existing record, re-validating the
	// pair and re-extracting the RFC. A holder RFC differing from the
	// declared emitter RFC yields a warning, not a failure.
	ReplaceFiles(ctx context.Context, certificateID string, cerBytes, keyBytes []byte, passphrase, declaredRFC string) (*certificate.Certificate, []string, error)

	// Activate makes the certificate the single active one for the tenant
	Activate(ctx context.Context, certificateID string) error

	// Get retrieves a certificate by id
	Get(ctx context.Context, certificateID string) (*certificate.Certificate, error)

	// List retrieves all certificates for the tenant
	List(ctx context.Context) ([]*certificate.Certificate, error)
}

type certificateService struct {
	ServiceParams
}

func NewCertificateService(params ServiceParams) CertificateService {
	return &certificateService{
		ServiceParams: params,
	}
}

func (s *certificateService) ImportCertificate(ctx context.Context, cerBytes, keyBytes []byte, passphrase string) (*certificate.Certificate, error) {
	record, err := s.buildRecord(ctx, cerBytes, keyBytes, passphrase)
	if err != nil {
		return nil, err
	}

	if err := s.CertificateRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.Logger.Infow("imported certificate",
		"certificate_id", record.ID,
		"rfc", record.RFC,
		"serial", record.SerialNumber,
		"not_after", record.NotAfter)

	return record, nil
}

func (s *certificateService) ImportPKCS12(ctx context.Context, pfxBytes []byte, passphrase string) (*certificate.Certificate, error) {
	cert, key, err := security.ParsePKCS12(pfxBytes, passphrase)
	if err != nil {
		return nil, err
	}

	if !security.KeyMatchesCertificate(key, cert) {
		return nil, ierr.NewError("bundle key does not match its certificate").
			WithHint("The PKCS#12 bundle is internally inconsistent").
			Mark(ierr.ErrKeyCertMismatch)
	}

	rfc, err := security.ExtractRFC(cert)
	if err != nil {
		return nil, err
	}

	record := &certificate.Certificate{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CERTIFICATE),
		RFC:            rfc,
		SerialNumber:   security.ExtractSerial(cert),
		NotBefore:      cert.NotBefore,
		NotAfter:       cert.NotAfter,
		CertificateDER: cert.Raw,
		// the original bundle stays the passphrase-protected key blob
		EncryptedKeyDER: pfxBytes,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}

	if err := s.CertificateRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.Logger.Infow("imported PKCS#12 certificate",
		"certificate_id", record.ID,
		"rfc", record.RFC,
		"serial", record.SerialNumber)

	return record, nil
}

func (s *certificateService) ReplaceFiles(ctx context.Context, certificateID string, cerBytes, keyBytes []byte, passphrase, declaredRFC string) (*certificate.Certificate, []string, error) {
	existing, err := s.CertificateRepo.Get(ctx, certificateID)
	if err != nil {
		return nil, nil, err
	}

	replacement, err := s.buildRecord(ctx, cerBytes, keyBytes, passphrase)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	if declaredRFC != "" && replacement.RFC != declaredRFC {
		// the business decision to reject belongs to the caller
		warnings = append(warnings, fmt.Sprintf(
			"certificate holder RFC %s differs from declared emitter RFC %s",
			replacement.RFC, declaredRFC))
	}

	existing.RFC = replacement.RFC
	existing.SerialNumber = replacement.SerialNumber
	existing.NotBefore = replacement.NotBefore
	existing.NotAfter = replacement.NotAfter
	existing.CertificateDER = replacement.CertificateDER
	existing.EncryptedKeyDER = replacement.EncryptedKeyDER
	existing.UpdatedAt = time.Now().UTC()
	existing.UpdatedBy = types.GetUserID(ctx)

	if err := s.CertificateRepo.Update(ctx, existing); err != nil {
		return nil, nil, err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixCertificate, existing.ID))

	s.Logger.Infow("replaced certificate files",
		"certificate_id", existing.ID,
		"rfc", existing.RFC,
		"warnings", len(warnings))

	return existing, warnings, nil
}

func (s *certificateService) Activate(ctx context.Context, certificateID string) error {
	if _, err := s.CertificateRepo.Get(ctx, certificateID); err != nil {
		return err
	}
	if err := s.CertificateRepo.Activate(ctx, certificateID); err != nil {
		return err
	}

	// activation flips the active flag on every record
	s.Cache.Flush(ctx)

	s.Logger.Infow("activated certificate", "certificate_id", certificateID)
	return nil
}

func (s *certificateService) Get(ctx context.Context, certificateID string) (*certificate.Certificate, error) {
	key := cache.GenerateKey(cache.PrefixCertificate, certificateID)
	if value, ok := s.Cache.Get(ctx, key); ok {
		if cert, ok := value.(*certificate.Certificate); ok {
			// the cached instance is shared; hand out a copy
			return cert.Clone(), nil
		}
	}

	cert, err := s.CertificateRepo.Get(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, cert.Clone(), 0)
	return cert, nil
}

func (s *certificateService) List(ctx context.Context) ([]*certificate.Certificate, error) {
	return s.CertificateRepo.List(ctx)
}

// buildRecord parses and cross-validates a .cer/.key pair and assembles the
// unsaved certificate record
func (s *certificateService) buildRecord(ctx context.Context, cerBytes, keyBytes []byte, passphrase string) (*certificate.Certificate, error) {
	cert, err := security.ParseCertificate(cerBytes)
	if err != nil {
		return nil, err
	}

	key, err := security.DecryptPrivateKey(keyBytes, passphrase)
	if err != nil {
		return nil, err
	}

	if !security.KeyMatchesCertificate(key, cert) {
		return nil, ierr.NewError("private key does not correspond to certificate").
			WithHint("The .key file does not belong to the supplied .cer file").
			Mark(ierr.ErrKeyCertMismatch)
	}

	rfc, err := security.ExtractRFC(cert)
	if err != nil {
		return nil, err
	}

	return &certificate.Certificate{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CERTIFICATE),
		RFC:             rfc,
		SerialNumber:    security.ExtractSerial(cert),
		NotBefore:       cert.NotBefore,
		NotAfter:        cert.NotAfter,
		CertificateDER:  cert.Raw,
		EncryptedKeyDER: keyBytes,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}, nil
}
