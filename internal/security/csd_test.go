package security

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"testing"
	"time"

	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "12345678a"

func newCSD(t *testing.T, rfc string) *testutil.TestCSD {
	t.Helper()
	now := time.Now().UTC()
	csd, err := testutil.GenerateTestCSD(rfc, testPassphrase, now.Add(-time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	return csd
}

func TestParseCertificateExtractsRFCAndSerial(t *testing.T) {
	csd := newCSD(t, "EKU9003173C9")

	cert, err := ParseCertificate(csd.CertDER)
	require.NoError(t, err)

	rfc, err := ExtractRFC(cert)
	require.NoError(t, err)
	assert.Equal(t, "EKU9003173C9", rfc)

	serial := ExtractSerial(cert)
	assert.Equal(t, csd.SerialNumber, serial)
	assert.Len(t, serial, 20)
}

func TestParseCertificateRejectsGarbage(t *testing.T) {
	_, err := ParseCertificate([]byte("not a certificate"))
	assert.True(t, ierr.Is(err, ierr.ErrMalformedCertificate))
}

func TestDecryptPrivateKey(t *testing.T) {
	csd := newCSD(t, "EKU9003173C9")

	key, err := DecryptPrivateKey(csd.EncryptedKeyDER, testPassphrase)
	require.NoError(t, err)
	assert.Equal(t, 0, key.N.Cmp(csd.Key.N))
}

func TestDecryptPrivateKeyWrongPassphrase(t *testing.T) {
	csd := newCSD(t, "EKU9003173C9")

	_, err := DecryptPrivateKey(csd.EncryptedKeyDER, "wrong")
	assert.True(t, ierr.Is(err, ierr.ErrInvalidPassphrase))
}

func TestKeyMatchesCertificate(t *testing.T) {
	a := newCSD(t, "EKU9003173C9")
	b := newCSD(t, "XAXX010101000")

	certA, err := ParseCertificate(a.CertDER)
	require.NoError(t, err)

	assert.True(t, KeyMatchesCertificate(a.Key, certA))
	assert.False(t, KeyMatchesCertificate(b.Key, certA))
}

func TestSignSHA256IsDeterministicAndVerifiable(t *testing.T) {
	csd := newCSD(t, "EKU9003173C9")
	payload := []byte("||4.0|2026-01-02T15:04:05|EKU9003173C9||")

	first, err := SignSHA256(csd.Key, payload)
	require.NoError(t, err)
	second, err := SignSHA256(csd.Key, payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	digest := sha256.Sum256(payload)
	assert.NoError(t, rsa.VerifyPKCS1v15(&csd.Key.PublicKey, crypto.SHA256, digest[:], first))
}
