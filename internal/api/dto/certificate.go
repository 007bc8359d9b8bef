package dto

import (
	"encoding/base64"
	"time"

	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/validator"
)

// ImportCertificateRequest uploads a digital seal certificate. Either the
// split .cer/.key pair or a single PKCS#12 bundle must be supplied, all
// base64-encoded. The passphrase is used for validation only.
type ImportCertificateRequest struct {
	Certificate string `json:"certificate,omitempty"`
	PrivateKey  string `json:"private_key,omitempty"`
	Bundle      string `json:"bundle,omitempty"`
	Passphrase  string `json:"passphrase" validate:"required"`
}

func (r *ImportCertificateRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	hasPair := r.Certificate != "" && r.PrivateKey != ""
	hasBundle := r.Bundle != ""
	if hasPair == hasBundle {
		return ierr.NewError("certificate material missing or ambiguous").
			WithHint("Provide either certificate and private_key, or bundle").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsBundle reports whether the upload is a PKCS#12 bundle
func (r *ImportCertificateRequest) IsBundle() bool {
	return r.Bundle != ""
}

// DecodePair returns the decoded .cer and .key bytes
func (r *ImportCertificateRequest) DecodePair() ([]byte, []byte, error) {
	cer, err := base64.StdEncoding.DecodeString(r.Certificate)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("The certificate field is not valid base64").
			Mark(ierr.ErrValidation)
	}
	key, err := base64.StdEncoding.DecodeString(r.PrivateKey)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("The private_key field is not valid base64").
			Mark(ierr.ErrValidation)
	}
	return cer, key, nil
}

// DecodeBundle returns the decoded PKCS#12 bytes
func (r *ImportCertificateRequest) DecodeBundle() ([]byte, error) {
	bundle, err := base64.StdEncoding.DecodeString(r.Bundle)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The bundle field is not valid base64").
			Mark(ierr.ErrValidation)
	}
	return bundle, nil
}

// ReplaceCertificateRequest swaps the files on an existing record
type ReplaceCertificateRequest struct {
	Certificate string `json:"certificate" validate:"required"`
	PrivateKey  string `json:"private_key" validate:"required"`
	Passphrase  string `json:"passphrase" validate:"required"`
	DeclaredRFC string `json:"declared_rfc,omitempty"`
}

func (r *ReplaceCertificateRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *ReplaceCertificateRequest) DecodePair() ([]byte, []byte, error) {
	cer, err := base64.StdEncoding.DecodeString(r.Certificate)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("The certificate field is not valid base64").
			Mark(ierr.ErrValidation)
	}
	key, err := base64.StdEncoding.DecodeString(r.PrivateKey)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("The private_key field is not valid base64").
			Mark(ierr.ErrValidation)
	}
	return cer, key, nil
}

// CertificateResponse is the API projection of a certificate record. Key
// material never leaves the service.
type CertificateResponse struct {
	ID           string    `json:"id"`
	RFC          string    `json:"rfc"`
	SerialNumber string    `json:"serial_number"`
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	Active       bool      `json:"active"`
	Warnings     []string  `json:"warnings,omitempty"`
}

func ToCertificateResponse(cert *certificate.Certificate, warnings []string) *CertificateResponse {
	return &CertificateResponse{
		ID:           cert.ID,
		RFC:          cert.RFC,
		SerialNumber: cert.SerialNumber,
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		Active:       cert.Active,
		Warnings:     warnings,
	}
}

// CertificateExpiryResponse reports the remaining validity of a certificate
type CertificateExpiryResponse struct {
	ID              string    `json:"id"`
	NotAfter        time.Time `json:"not_after"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	Expired         bool      `json:"expired"`
}

func ToCertificateExpiryResponse(cert *certificate.Certificate, now time.Time) *CertificateExpiryResponse {
	return &CertificateExpiryResponse{
		ID:              cert.ID,
		NotAfter:        cert.NotAfter,
		DaysUntilExpiry: cert.DaysUntilExpiry(now),
		Expired:         now.After(cert.NotAfter),
	}
}
