package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/stretchr/testify/suite"
)

type LifecycleServiceSuite struct {
	testutil.BaseServiceTestSuite
	lifecycle DocumentLifecycleService
	cert      *certificate.Certificate
}

func TestLifecycleService(t *testing.T) {
	suite.Run(t, new(LifecycleServiceSuite))
}

func (s *LifecycleServiceSuite) SetupTest() {
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

	migration := NewMigrationService(params)
	compiler := NewCompilerService(params)
	signer := NewSignerService(params)
	stamping := NewStampingService(params)
	s.lifecycle = NewDocumentLifecycleService(params, migration, compiler, signer, stamping)

	csd, err := testutil.GenerateTestCSD(
		"EKU9003173C9",
		testPassphrase,
		s.GetNow().Add(-time.Hour),
		s.GetNow().Add(4*365*24*time.Hour),
	)
	s.Require().NoError(err)
	s.cert = &certificate.Certificate{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CERTIFICATE),
		RFC:             "EKU9003173C9",
		SerialNumber:    csd.SerialNumber,
		NotBefore:       s.GetNow().Add(-time.Hour),
		NotAfter:        s.GetNow().Add(4 * 365 * 24 * time.Hour),
		CertificateDER:  csd.CertDER,
		EncryptedKeyDER: csd.EncryptedKeyDER,
	}
	s.Require().NoError(stores.CertificateRepo.Create(s.GetContext(), s.cert))
}

// createSigned walks a fresh document to the signed state
func (s *LifecycleServiceSuite) createSigned() string {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.Require().NoError(err)

	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), doc.ID, types.SchemaVersion31, false)
	s.Require().NoError(err)

	_, err = s.lifecycle.SignDocument(s.GetContext(), doc.ID, s.cert.ID, testPassphrase)
	s.Require().NoError(err)

	return doc.ID
}

func (s *LifecycleServiceSuite) status(id string) types.DocumentStatus {
	doc, err := s.lifecycle.GetDocument(s.GetContext(), id)
	s.Require().NoError(err)
	return doc.DocumentStatus
}

func (s *LifecycleServiceSuite) TestFullPipeline() {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.NoError(err)
	s.Equal(types.DocumentStatusDraft, doc.DocumentStatus)
	s.NotEmpty(doc.Folio)

	compiled, warnings, err := s.lifecycle.CompileDocument(s.GetContext(), doc.ID, types.SchemaVersion31, false)
	s.NoError(err)
	s.Empty(warnings)
	s.True(compiled.Signable)
	s.Equal(types.DocumentStatusCompiled, s.status(doc.ID))

	signed, err := s.lifecycle.SignDocument(s.GetContext(), doc.ID, s.cert.ID, testPassphrase)
	s.NoError(err)
	s.NotEmpty(signed.IdempotencyHash)
	s.Equal(types.DocumentStatusSigned, s.status(doc.ID))

	s.GetPACClient().QueueSuccess("aaaabbbb-cccc-dddd-eeee-ffff00001111")
	result, err := s.lifecycle.StampDocument(s.GetContext(), doc.ID, types.StampEnvironmentSandbox)
	s.NoError(err)
	s.Equal("aaaabbbb-cccc-dddd-eeee-ffff00001111", result.UUID)
	s.Equal(types.DocumentStatusStamped, s.status(doc.ID))

	view, err := s.lifecycle.GetStatus(s.GetContext(), doc.ID)
	s.NoError(err)
	s.Equal(types.DocumentStatusStamped, view.Status)
	s.Equal(result.UUID, view.StampUUID)
	s.NotNil(view.Score)
	s.Equal(100, *view.Score)
}

func (s *LifecycleServiceSuite) TestCompileMigratesWhenTargetDiffers() {
	source := testutil.NewTestDocument(types.SchemaVersion30)
	source.CustomsRegime = "IMD"
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), source)
	s.Require().NoError(err)

	compiled, _, err := s.lifecycle.CompileDocument(s.GetContext(), doc.ID, types.SchemaVersion31, false)
	s.NoError(err)
	s.Equal(types.SchemaVersion31, compiled.Version)

	migrated, err := s.lifecycle.GetDocument(s.GetContext(), doc.ID)
	s.NoError(err)
	s.Equal(types.SchemaVersion31, migrated.SchemaVersion)
	s.Equal([]string{"IMD"}, migrated.CustomsRegimes)
	s.NotEmpty(migrated.CCPID)
}

func (s *LifecycleServiceSuite) TestSignRequiresCompiledState() {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.Require().NoError(err)

	_, err = s.lifecycle.SignDocument(s.GetContext(), doc.ID, s.cert.ID, testPassphrase)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LifecycleServiceSuite) TestStampRequiresSignedState() {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.Require().NoError(err)
	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), doc.ID, types.SchemaVersion31, false)
	s.Require().NoError(err)

	_, err = s.lifecycle.StampDocument(s.GetContext(), doc.ID, types.StampEnvironmentSandbox)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(0, s.GetPACClient().Calls())
}

func (s *LifecycleServiceSuite) TestRejectionMarksDocumentFailed() {
	id := s.createSigned()

	s.GetPACClient().QueueRejection("CFDI40161", "El UUID ya se encuentra registrado")
	_, err := s.lifecycle.StampDocument(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Error(err)
	s.True(ierr.IsAuthorityRejected(err))
	s.Equal(types.DocumentStatusFailed, s.status(id))

	doc, err := s.lifecycle.GetDocument(s.GetContext(), id)
	s.NoError(err)
	s.NotNil(doc.LastRejection)
	s.Equal("CFDI40161", doc.LastRejection.Code)
	s.NotNil(doc.FailureReason)
}

func (s *LifecycleServiceSuite) TestResumeRefusedAfterRejection() {
	id := s.createSigned()

	s.GetPACClient().QueueRejection("CFDI40147", "patron requerido")
	_, err := s.lifecycle.StampDocument(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Require().Error(err)

	_, err = s.lifecycle.ResumeStamping(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LifecycleServiceSuite) TestRetryExhaustionKeepsSignedAndResumes() {
	id := s.createSigned()

	for i := 0; i < s.GetConfig().PAC.MaxAttempts; i++ {
		s.GetPACClient().QueueNetworkError()
	}
	_, err := s.lifecycle.StampDocument(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Error(err)
	s.True(ierr.IsRetryExhausted(err))
	s.Equal(types.DocumentStatusSigned, s.status(id))

	s.GetPACClient().QueueSuccess("aaaabbbb-cccc-dddd-eeee-ffff00002222")
	result, err := s.lifecycle.ResumeStamping(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.NoError(err)
	s.Equal("aaaabbbb-cccc-dddd-eeee-ffff00002222", result.UUID)
	s.Equal(types.DocumentStatusStamped, s.status(id))
}

func (s *LifecycleServiceSuite) TestResumeRequiresPendingSubmission() {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.Require().NoError(err)

	_, err = s.lifecycle.ResumeStamping(s.GetContext(), doc.ID, types.StampEnvironmentSandbox)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LifecycleServiceSuite) TestStampedDocumentIsImmutable() {
	id := s.createSigned()

	s.GetPACClient().QueueSuccess("aaaabbbb-cccc-dddd-eeee-ffff00003333")
	_, err := s.lifecycle.StampDocument(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Require().NoError(err)

	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), id, types.SchemaVersion31, false)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LifecycleServiceSuite) TestConcurrentSignOnlyOneWins() {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.Require().NoError(err)
	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), doc.ID, types.SchemaVersion31, false)
	s.Require().NoError(err)

	const callers = 8
	var wg sync.WaitGroup
	var successes atomic.Int32
	failures := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.lifecycle.SignDocument(s.GetContext(), doc.ID, s.cert.ID, testPassphrase); err != nil {
				failures <- err
				return
			}
			successes.Add(1)
		}()
	}
	wg.Wait()
	close(failures)

	s.Equal(int32(1), successes.Load())
	s.Equal(types.DocumentStatusSigned, s.status(doc.ID))
	for err := range failures {
		s.True(ierr.IsInvalidOperation(err) || ierr.IsVersionConflict(err))
	}
}

func (s *LifecycleServiceSuite) TestLosingStatusRaceConflicts() {
	doc, err := s.lifecycle.CreateDocument(s.GetContext(), testutil.NewTestDocument(types.SchemaVersion31))
	s.Require().NoError(err)
	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), doc.ID, types.SchemaVersion31, false)
	s.Require().NoError(err)

	repo := s.GetStores().DocumentRepo
	s.NoError(repo.UpdateStatus(s.GetContext(), doc.ID, types.DocumentStatusCompiled, types.DocumentStatusSigned))

	// the same expected-status swap cannot apply twice
	err = repo.UpdateStatus(s.GetContext(), doc.ID, types.DocumentStatusCompiled, types.DocumentStatusSigned)
	s.Error(err)
	s.True(ierr.IsVersionConflict(err))
}

func (s *LifecycleServiceSuite) TestRejectionKeepsVersionCounter() {
	id := s.createSigned()
	signedDoc, err := s.lifecycle.GetDocument(s.GetContext(), id)
	s.Require().NoError(err)

	s.GetPACClient().QueueRejection("CFDI40161", "El UUID ya se encuentra registrado")
	_, err = s.lifecycle.StampDocument(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Require().Error(err)

	// the failed-state swap incremented the counter; persisting the
	// rejection detail must not roll it back
	failed, err := s.lifecycle.GetDocument(s.GetContext(), id)
	s.NoError(err)
	s.Equal(types.DocumentStatusFailed, failed.DocumentStatus)
	s.NotNil(failed.LastRejection)
	s.Equal(signedDoc.Version+1, failed.Version)

	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), id, types.SchemaVersion31, false)
	s.Require().NoError(err)
	recompiled, err := s.lifecycle.GetDocument(s.GetContext(), id)
	s.NoError(err)
	s.Nil(recompiled.FailureReason)
	s.Equal(failed.Version+1, recompiled.Version)
}

func (s *LifecycleServiceSuite) TestRecompileAfterRejection() {
	id := s.createSigned()

	s.GetPACClient().QueueRejection("CFDI40147", "patron requerido")
	_, err := s.lifecycle.StampDocument(s.GetContext(), id, types.StampEnvironmentSandbox)
	s.Require().Error(err)
	s.Require().Equal(types.DocumentStatusFailed, s.status(id))

	// correcting and recompiling clears the failure and re-enters the pipeline
	_, _, err = s.lifecycle.CompileDocument(s.GetContext(), id, types.SchemaVersion31, false)
	s.NoError(err)
	s.Equal(types.DocumentStatusCompiled, s.status(id))

	doc, err := s.lifecycle.GetDocument(s.GetContext(), id)
	s.NoError(err)
	s.Nil(doc.LastRejection)
	s.Nil(doc.FailureReason)
}
