package service

import (
	"testing"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/stretchr/testify/suite"
)

type MigrationServiceSuite struct {
	testutil.BaseServiceTestSuite
	migration MigrationService
}

func TestMigrationService(t *testing.T) {
	suite.Run(t, new(MigrationServiceSuite))
}

func (s *MigrationServiceSuite) SetupTest() {
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
	s.migration = NewMigrationService(params)
}

func (s *MigrationServiceSuite) TestSameVersionReturnsCopy() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)

	out, warnings, err := s.migration.Migrate(s.GetContext(), doc, types.SchemaVersion30, false)
	s.NoError(err)
	s.Empty(warnings)
	s.NotSame(doc, out)
	s.Equal(doc.ID, out.ID)

	// mutating the copy must not touch the input
	out.Locations[0].PostalCode = "99999"
	s.Equal("64000", doc.Locations[0].PostalCode)
}

func (s *MigrationServiceSuite) TestUpgradePromotesRegimeAndFabricatesCCPID() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	doc.CustomsRegime = "IMD"

	out, warnings, err := s.migration.Migrate(s.GetContext(), doc, types.SchemaVersion31, false)
	s.NoError(err)
	s.Empty(warnings)
	s.Equal(types.SchemaVersion31, out.SchemaVersion)
	s.Equal([]string{"IMD"}, out.CustomsRegimes)
	s.Empty(out.CustomsRegime)
	s.NotEmpty(out.CCPID)
	s.Equal("CCC", out.CCPID[:3])
}

func (s *MigrationServiceSuite) TestUpgradeDowngradeRoundTrip() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	doc.CustomsRegime = "IMD"

	up, _, err := s.migration.Migrate(s.GetContext(), doc, types.SchemaVersion31, false)
	s.NoError(err)

	down, warnings, err := s.migration.Migrate(s.GetContext(), up, types.SchemaVersion30, false)
	s.NoError(err)
	s.Empty(warnings)

	s.Equal(doc.SchemaVersion, down.SchemaVersion)
	s.Equal(doc.CustomsRegime, down.CustomsRegime)
	s.Nil(down.CustomsRegimes)
	s.Empty(down.CCPID)
	s.Equal(doc.Locations, down.Locations)
	s.Equal(doc.Goods, down.Goods)
	s.Equal(doc.Vehicle, down.Vehicle)
	s.Equal(doc.Actors, down.Actors)
}

func (s *MigrationServiceSuite) TestDowngradeRefusedWhenLossy() {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	doc.CustomsRegimes = []string{"IMD", "EXD"}
	doc.Vehicle.Trailers = append(doc.Vehicle.Trailers, document.Trailer{
		SubTypeKey:  "CTR004",
		PlateNumber: "TRL999",
	})

	out, warnings, err := s.migration.Migrate(s.GetContext(), doc, types.SchemaVersion30, false)
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrUnsupportedMigration))
	s.Nil(out)
	s.Len(warnings, 2)
}

func (s *MigrationServiceSuite) TestDowngradeWithAcknowledgedLoss() {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	doc.CustomsRegimes = []string{"IMD", "EXD"}

	out, warnings, err := s.migration.Migrate(s.GetContext(), doc, types.SchemaVersion30, true)
	s.NoError(err)
	s.Len(warnings, 1)
	s.Equal(types.SchemaVersion30, out.SchemaVersion)
	s.Equal("IMD", out.CustomsRegime)
	s.Nil(out.CustomsRegimes)
	s.Empty(out.CCPID)
	s.Empty(out.Vehicle.Trailers)
}

func (s *MigrationServiceSuite) TestInvalidTargetVersion() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)

	_, _, err := s.migration.Migrate(s.GetContext(), doc, types.SchemaVersion("2.0"), false)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
