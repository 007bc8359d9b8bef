package service

import (
	"testing"
	"time"

	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/stretchr/testify/suite"
)

const testPassphrase = "12345678a"

type SignerServiceSuite struct {
	testutil.BaseServiceTestSuite
	compiler CompilerService
	signer   SignerService
	csd      *testutil.TestCSD
	cert     *certificate.Certificate
}

func TestSignerService(t *testing.T) {
	suite.Run(t, new(SignerServiceSuite))
}

func (s *SignerServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	params := NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetCache(),
		stores.DocumentRepo,
		stores.CertificateRepo,
		stores.ArtifactRepo,
		s.GetPACClient(),
	)
	s.compiler = NewCompilerService(params)
	s.signer = NewSignerService(params)

	csd, err := testutil.GenerateTestCSD(
		"EKU9003173C9",
		testPassphrase,
		s.GetNow().Add(-time.Hour),
		s.GetNow().Add(4*365*24*time.Hour),
	)
	s.Require().NoError(err)
	s.csd = csd
	s.cert = &certificate.Certificate{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CERTIFICATE),
		RFC:             "EKU9003173C9",
		SerialNumber:    csd.SerialNumber,
		NotBefore:       s.GetNow().Add(-time.Hour),
		NotAfter:        s.GetNow().Add(4 * 365 * 24 * time.Hour),
		CertificateDER:  csd.CertDER,
		EncryptedKeyDER: csd.EncryptedKeyDER,
	}
}

func (s *SignerServiceSuite) compile() *artifact.CompiledDocument {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion31)
	s.Require().NoError(err)
	s.Require().True(compiled.Signable)
	return compiled
}

func (s *SignerServiceSuite) TestSignEmbedsSeal() {
	compiled := s.compile()

	signed, err := s.signer.Sign(s.GetContext(), compiled, s.cert, testPassphrase)
	s.NoError(err)
	s.NotEmpty(signed.Signature)
	s.Equal(s.cert.SerialNumber, signed.CertificateSerial)
	s.NotContains(string(signed.XML), `Sello=""`)
	s.Contains(string(signed.XML), `NoCertificado="`+s.cert.SerialNumber+`"`)
	s.NotEmpty(signed.IdempotencyHash)
}

func (s *SignerServiceSuite) TestSigningIsDeterministic() {
	compiled := s.compile()

	first, err := s.signer.Sign(s.GetContext(), compiled, s.cert, testPassphrase)
	s.NoError(err)
	second, err := s.signer.Sign(s.GetContext(), compiled, s.cert, testPassphrase)
	s.NoError(err)

	s.Equal(first.XML, second.XML)
	s.Equal(first.Signature, second.Signature)
	s.Equal(first.SignedAt, second.SignedAt)
	s.Equal(first.IdempotencyHash, second.IdempotencyHash)
}

func (s *SignerServiceSuite) TestSignedAtAnchoredToCompile() {
	compiled := s.compile()

	signed, err := s.signer.Sign(s.GetContext(), compiled, s.cert, testPassphrase)
	s.NoError(err)
	s.Equal(compiled.CompiledAt, signed.SignedAt)
}

func (s *SignerServiceSuite) TestRefusesUnsignableDocument() {
	compiled := s.compile()
	compiled.Signable = false

	_, err := s.signer.Sign(s.GetContext(), compiled, s.cert, testPassphrase)
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrNotSignable))
}

func (s *SignerServiceSuite) TestRefusesExpiredCertificate() {
	compiled := s.compile()
	s.cert.NotBefore = s.GetNow().Add(-48 * time.Hour)
	s.cert.NotAfter = s.GetNow().Add(-24 * time.Hour)

	_, err := s.signer.Sign(s.GetContext(), compiled, s.cert, testPassphrase)
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrCertificateExpired))
}

func (s *SignerServiceSuite) TestRefusesWrongPassphrase() {
	compiled := s.compile()

	_, err := s.signer.Sign(s.GetContext(), compiled, s.cert, "wrong-passphrase")
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrDecryptionFailed))
}
