// Package security implements the cryptographic operations of the pipeline:
// parsing digital seal certificates (CSD), decrypting their passphrase-
// protected private keys and producing RSA signatures over canonical bytes.
package security

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"strings"

	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pkcs12"
)

// oidX500UniqueIdentifier is where the SAT records the holder RFC in the
// certificate subject, sometimes as "RFC / CURP"
var oidX500UniqueIdentifier = asn1.ObjectIdentifier{2, 5, 4, 45}

// ParseCertificate accepts a public certificate as raw DER or PEM
func ParseCertificate(data []byte) (*x509.Certificate, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The certificate file could not be parsed").
			Mark(ierr.ErrMalformedCertificate)
	}
	return cert, nil
}

// DecryptPrivateKey decrypts a passphrase-protected PKCS#8 private key
// supplied as raw DER or PEM. The passphrase is used for this call only and
// never retained.
func DecryptPrivateKey(data []byte, passphrase string) (*rsa.PrivateKey, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}

	key, err := pkcs8.ParsePKCS8PrivateKeyRSA(der, []byte(passphrase))
	if err != nil {
		if strings.Contains(err.Error(), "incorrect password") ||
			strings.Contains(err.Error(), "decryption") {
			return nil, ierr.WithError(err).
				WithHint("The private key passphrase is incorrect").
				Mark(ierr.ErrInvalidPassphrase)
		}
		return nil, ierr.WithError(err).
			WithHint("The private key file could not be parsed").
			Mark(ierr.ErrInvalidPassphrase)
	}
	return key, nil
}

// DecryptStoredKey decrypts a persisted key blob, accepting either a
// passphrase-protected PKCS#8 key or a PKCS#12 bundle
func DecryptStoredKey(data []byte, passphrase string) (*rsa.PrivateKey, error) {
	key, pkcs8Err := DecryptPrivateKey(data, passphrase)
	if pkcs8Err == nil {
		return key, nil
	}

	if _, bundleKey, err := ParsePKCS12(data, passphrase); err == nil {
		return bundleKey, nil
	}
	return nil, pkcs8Err
}

// ParsePKCS12 extracts the certificate and private key from a .pfx bundle
func ParsePKCS12(data []byte, passphrase string) (*x509.Certificate, *rsa.PrivateKey, error) {
	key, cert, err := pkcs12.Decode(data, passphrase)
	if err != nil {
		return nil, nil, ierr.WithError(err).
			WithHint("The PKCS#12 bundle could not be decoded; check the passphrase").
			Mark(ierr.ErrInvalidPassphrase)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, ierr.NewError("bundle key is not RSA").
			WithHint("Only RSA digital seal certificates are supported").
			Mark(ierr.ErrMalformedCertificate)
	}
	return cert, rsaKey, nil
}

// KeyMatchesCertificate verifies the private key mathematically corresponds
// to the certificate's public key
func KeyMatchesCertificate(key *rsa.PrivateKey, cert *x509.Certificate) bool {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return false
	}
	return pub.N.Cmp(key.N) == 0 && pub.E == key.E
}

// ExtractRFC returns the holder RFC from the certificate subject
func ExtractRFC(cert *x509.Certificate) (string, error) {
	for _, name := range cert.Subject.Names {
		if name.Type.Equal(oidX500UniqueIdentifier) {
			if value, ok := name.Value.(string); ok {
				// the SAT encodes "RFC / CURP"; keep the RFC only
				rfc := strings.TrimSpace(strings.SplitN(value, "/", 2)[0])
				if rfc != "" {
					return rfc, nil
				}
			}
		}
	}
	return "", ierr.NewError("certificate has no holder RFC").
		WithHint("The certificate subject does not carry an RFC").
		Mark(ierr.ErrMalformedCertificate)
}

// ExtractSerial returns the authority-assigned certificate number. The SAT
// encodes the 20-digit number as the ASCII bytes of the x509 serial; fall
// back to the hex rendering when the bytes are not digits.
func ExtractSerial(cert *x509.Certificate) string {
	raw := cert.SerialNumber.Bytes()
	ascii := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b < '0' || b > '9' {
			return fmt.Sprintf("%x", raw)
		}
		ascii = append(ascii, b)
	}
	return string(ascii)
}

// SignSHA256 produces a deterministic RSA PKCS#1 v1.5 signature over the
// SHA-256 digest of the given bytes
func SignSHA256(key *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	signature, err := rsa.SignPKCS1v15(nil, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The signature could not be produced").
			Mark(ierr.ErrSystem)
	}
	return signature, nil
}
