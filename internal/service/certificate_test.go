package service

import (
	"testing"
	"time"

	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type CertificateServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CertificateService
}

func TestCertificateService(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}

func (s *CertificateServiceSuite) SetupTest() {
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
	s.service = NewCertificateService(params)
}

func (s *CertificateServiceSuite) generate(rfc string) *testutil.TestCSD {
	csd, err := testutil.GenerateTestCSD(
		rfc,
		testPassphrase,
		s.GetNow().Add(-time.Hour),
		s.GetNow().Add(4*365*24*time.Hour),
	)
	s.Require().NoError(err)
	return csd
}

func (s *CertificateServiceSuite) TestImportCertificatePair() {
	csd := s.generate("EKU9003173C9")

	record, err := s.service.ImportCertificate(s.GetContext(), csd.CertDER, csd.EncryptedKeyDER, testPassphrase)
	s.NoError(err)
	s.Equal("EKU9003173C9", record.RFC)
	s.Equal(csd.SerialNumber, record.SerialNumber)
	s.False(record.Active)

	stored, err := s.service.Get(s.GetContext(), record.ID)
	s.NoError(err)
	s.Equal(record.RFC, stored.RFC)
}

func (s *CertificateServiceSuite) TestImportRejectsMismatchedKey() {
	certHalf := s.generate("EKU9003173C9")
	keyHalf := s.generate("EKU9003173C9")

	_, err := s.service.ImportCertificate(s.GetContext(), certHalf.CertDER, keyHalf.EncryptedKeyDER, testPassphrase)
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrKeyCertMismatch))
}

func (s *CertificateServiceSuite) TestImportRejectsWrongPassphrase() {
	csd := s.generate("EKU9003173C9")

	_, err := s.service.ImportCertificate(s.GetContext(), csd.CertDER, csd.EncryptedKeyDER, "not-the-passphrase")
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrInvalidPassphrase))
}

func (s *CertificateServiceSuite) TestImportRejectsGarbageCertificate() {
	csd := s.generate("EKU9003173C9")

	_, err := s.service.ImportCertificate(s.GetContext(), []byte("not a certificate"), csd.EncryptedKeyDER, testPassphrase)
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrMalformedCertificate))
}

func (s *CertificateServiceSuite) TestGetHandsOutIndependentCopies() {
	csd := s.generate("EKU9003173C9")
	record, err := s.service.ImportCertificate(s.GetContext(), csd.CertDER, csd.EncryptedKeyDER, testPassphrase)
	s.Require().NoError(err)

	// the second read is served from the cache
	first, err := s.service.Get(s.GetContext(), record.ID)
	s.Require().NoError(err)
	first.RFC = "MUTATED"
	first.CertificateDER[0] ^= 0xff

	second, err := s.service.Get(s.GetContext(), record.ID)
	s.NoError(err)
	s.Equal("EKU9003173C9", second.RFC)
	s.Equal(csd.CertDER, second.CertificateDER)
}

func (s *CertificateServiceSuite) TestActivateKeepsSingleActive() {
	first := s.generate("EKU9003173C9")
	second := s.generate("EKU9003173C9")

	recordA, err := s.service.ImportCertificate(s.GetContext(), first.CertDER, first.EncryptedKeyDER, testPassphrase)
	s.Require().NoError(err)
	recordB, err := s.service.ImportCertificate(s.GetContext(), second.CertDER, second.EncryptedKeyDER, testPassphrase)
	s.Require().NoError(err)

	s.NoError(s.service.Activate(s.GetContext(), recordA.ID))
	s.NoError(s.service.Activate(s.GetContext(), recordB.ID))

	active, err := s.GetStores().CertificateRepo.GetActive(s.GetContext())
	s.NoError(err)
	s.Equal(recordB.ID, active.ID)

	all, err := s.service.List(s.GetContext())
	s.NoError(err)
	activeCount := 0
	for _, cert := range all {
		if cert.Active {
			activeCount++
		}
	}
	s.Equal(1, activeCount)
}

func (s *CertificateServiceSuite) TestReplaceFilesWarnsOnRFCMismatch() {
	original := s.generate("EKU9003173C9")
	replacement := s.generate("XEXX010101000")

	record, err := s.service.ImportCertificate(s.GetContext(), original.CertDER, original.EncryptedKeyDER, testPassphrase)
	s.Require().NoError(err)

	updated, warnings, err := s.service.ReplaceFiles(
		s.GetContext(), record.ID,
		replacement.CertDER, replacement.EncryptedKeyDER,
		testPassphrase, "EKU9003173C9")
	s.NoError(err)
	s.Len(warnings, 1)
	s.Equal("XEXX010101000", updated.RFC)
	s.Equal(replacement.SerialNumber, updated.SerialNumber)
}

func (s *CertificateServiceSuite) TestDaysUntilExpiry() {
	csd := s.generate("EKU9003173C9")

	record, err := s.service.ImportCertificate(s.GetContext(), csd.CertDER, csd.EncryptedKeyDER, testPassphrase)
	s.Require().NoError(err)

	s.Equal(10, record.DaysUntilExpiry(record.NotAfter.Add(-240*time.Hour)))
	s.Equal(11, record.DaysUntilExpiry(record.NotAfter.Add(-241*time.Hour)))
	s.Equal(0, record.DaysUntilExpiry(record.NotAfter))
	s.Negative(record.DaysUntilExpiry(record.NotAfter.Add(25 * time.Hour)))
}
