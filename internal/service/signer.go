package service

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/fiscalmx/cartaporte/internal/cfdi"
	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/idempotency"
	"github.com/fiscalmx/cartaporte/internal/security"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// SignerService produces digital signatures over compiled documents. Signing
// is pure and side-effect free: the same compiled document signed with the
// same certificate always yields byte-identical output, which the stamping
// idempotency key depends on.
type SignerService interface {
	Sign(ctx context.Context, compiled *artifact.CompiledDocument, cert *certificate.Certificate, passphrase string) (*artifact.SignedDocument, error)
}

type signerService struct {
	ServiceParams
	clock func() time.Time
}

func NewSignerService(params ServiceParams) SignerService {
	return &signerService{
		ServiceParams: params,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *signerService) Sign(ctx context.Context, compiled *artifact.CompiledDocument, cert *certificate.Certificate, passphrase string) (*artifact.SignedDocument, error) {
	if !compiled.Signable {
		return nil, ierr.NewError("compiled document is not signable").
			WithHint("Resolve the compile errors before signing").
			WithReportableDetails(map[string]any{
				"score":    compiled.Score,
				"findings": compiled.Findings,
			}).
			Mark(ierr.ErrNotSignable)
	}

	now := s.clock()
	if !cert.ValidAt(now) {
		return nil, ierr.NewError("certificate outside validity window").
			WithHint("The signing certificate is expired or not yet valid").
			WithReportableDetails(map[string]any{
				"not_before": cert.NotBefore,
				"not_after":  cert.NotAfter,
			}).
			Mark(ierr.ErrCertificateExpired)
	}

	// the passphrase lives only for the duration of this call
	key, err := security.DecryptStoredKey(cert.EncryptedKeyDER, passphrase)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The private key could not be decrypted").
			Mark(ierr.ErrDecryptionFailed)
	}

	signature, err := security.SignSHA256(key, compiled.XML)
	if err != nil {
		return nil, err
	}

	sello := base64.StdEncoding.EncodeToString(signature)
	certB64 := base64.StdEncoding.EncodeToString(cert.CertificateDER)

	signedXML, err := cfdi.EmbedSeal(compiled.XML, sello, cert.SerialNumber, certB64)
	if err != nil {
		return nil, err
	}

	signed := &artifact.SignedDocument{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SIGNED_DOCUMENT),
		DocumentID:         compiled.DocumentID,
		CompiledDocumentID: compiled.ID,
		XML:                signedXML,
		Signature:          signature,
		CertificateSerial:  cert.SerialNumber,
		// anchored to the compile timestamp so a retried signing of the
		// same compiled document is byte-identical
		SignedAt:        compiled.CompiledAt,
		IdempotencyHash: s.IdempotencyGen.GenerateContentKey(idempotency.ScopeStamp, signedXML),
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}

	s.Logger.Infow("signed document",
		"document_id", compiled.DocumentID,
		"compiled_document_id", compiled.ID,
		"certificate_serial", cert.SerialNumber,
		"idempotency_hash", signed.IdempotencyHash)

	return signed, nil
}
