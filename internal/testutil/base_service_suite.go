package testutil

import (
	"context"
	"time"

	"github.com/fiscalmx/cartaporte/internal/cache"
	"github.com/fiscalmx/cartaporte/internal/config"
	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	DocumentRepo    document.Repository
	CertificateRepo certificate.Repository
	ArtifactRepo    artifact.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	cache  cache.Cache
	pac    *MockPACClient
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	// keep retries fast in tests
	s.config.PAC.InitialBackoff = time.Millisecond
	s.config.PAC.MaxBackoff = 5 * time.Millisecond
	s.config.PAC.MaxElapsedTime = time.Second
	s.logger = logger.GetLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		DocumentRepo:    NewInMemoryDocumentStore(),
		CertificateRepo: NewInMemoryCertificateStore(),
		ArtifactRepo:    NewInMemoryArtifactStore(),
	}
	s.cache = cache.NewInMemoryCache()
	s.pac = NewMockPACClient()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.DocumentRepo.(*InMemoryDocumentStore).Clear()
	s.stores.CertificateRepo.(*InMemoryCertificateStore).Clear()
	s.stores.ArtifactRepo.(*InMemoryArtifactStore).Clear()
	s.cache.Flush(s.ctx)
	s.pac.Reset()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetStores returns the in-memory stores
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetPACClient returns the mock authority client
func (s *BaseServiceTestSuite) GetPACClient() *MockPACClient {
	return s.pac
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
