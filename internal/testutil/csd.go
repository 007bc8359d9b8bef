package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"time"

	"github.com/youmark/pkcs8"
)

// TestCSD is a freshly generated digital seal certificate for tests: the
// public certificate in DER form and the private key as a passphrase-
// protected PKCS#8 blob, mirroring the file pair the tax authority issues.
type TestCSD struct {
	CertDER         []byte
	EncryptedKeyDER []byte
	Key             *rsa.PrivateKey
	SerialNumber    string
}

var oidHolderRFC = asn1.ObjectIdentifier{2, 5, 4, 45}

// GenerateTestCSD creates a self-signed certificate carrying the given RFC in
// the subject and a digit-ASCII serial, valid over [notBefore, notAfter]
func GenerateTestCSD(rfc, passphrase string, notBefore, notAfter time.Time) (*TestCSD, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	// the authority encodes its 20-digit certificate number as the ASCII
	// bytes of the x509 serial
	serialDigits := fmt.Sprintf("%020d", time.Now().UnixNano())
	serial := new(big.Int).SetBytes([]byte(serialDigits))

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "TEST CSD " + rfc,
			Organization: []string{"TEST"},
			ExtraNames: []pkix.AttributeTypeAndValue{
				{Type: oidHolderRFC, Value: rfc + " / TESTCURP000000000"},
			},
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := pkcs8.MarshalPrivateKey(key, []byte(passphrase), nil)
	if err != nil {
		return nil, err
	}

	return &TestCSD{
		CertDER:         certDER,
		EncryptedKeyDER: encryptedKey,
		Key:             key,
		SerialNumber:    serialDigits,
	}, nil
}
