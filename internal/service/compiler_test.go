package service

import (
	"testing"

	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CompilerServiceSuite struct {
	testutil.BaseServiceTestSuite
	compiler CompilerService
}

func TestCompilerService(t *testing.T) {
	suite.Run(t, new(CompilerServiceSuite))
}

func (s *CompilerServiceSuite) SetupTest() {
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
}

func (s *CompilerServiceSuite) TestCompileHappyPath() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)

	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion30)
	s.NoError(err)
	s.True(compiled.Signable)
	s.Equal(100, compiled.Score)
	s.Empty(compiled.Findings)
	s.NotEmpty(compiled.XML)
	s.Contains(string(compiled.XML), `Version="4.0"`)
	s.Contains(string(compiled.XML), "cartaporte:CartaPorte")
	s.Equal("||", compiled.OriginalChain[:2])
}

func (s *CompilerServiceSuite) TestCompileIsDeterministic() {
	doc := testutil.NewTestDocument(types.SchemaVersion31)

	first, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion31)
	s.NoError(err)
	second, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion31)
	s.NoError(err)

	s.Equal(first.XML, second.XML)
	s.Equal(first.OriginalChain, second.OriginalChain)
	s.Equal(first.Score, second.Score)
}

func (s *CompilerServiceSuite) TestMissingDestinoBlocksSigning() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	doc.Locations[1].Type = types.LocationTypeIntermedio

	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion30)
	s.NoError(err)
	s.False(compiled.Signable)
	s.Equal(95, compiled.Score)
	s.Len(compiled.Findings, 1)
	s.Equal(types.FindingSeverityError, compiled.Findings[0].Severity)
	s.Equal("missing Destino location", compiled.Findings[0].Message)
}

func (s *CompilerServiceSuite) TestOverweightGoodsWarns() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	doc.Vehicle.GrossWeightKG = decimal.NewFromInt(100)

	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion30)
	s.NoError(err)
	s.True(compiled.Signable)
	s.Equal(99, compiled.Score)
	s.Len(compiled.Findings, 1)
	s.Equal(types.FindingSeverityWarning, compiled.Findings[0].Severity)
}

func (s *CompilerServiceSuite) TestSchema31RequiresComplementID() {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	doc.CCPID = ""

	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion31)
	s.NoError(err)
	s.False(compiled.Signable)

	found := false
	for _, f := range compiled.Findings {
		if f.Field == "ccp_id" && f.Severity == types.FindingSeverityError {
			found = true
		}
	}
	s.True(found)
}

func (s *CompilerServiceSuite) TestSchema31MissingTariffFractionWarns() {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	doc.Goods[0].TariffFraction = ""

	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion31)
	s.NoError(err)
	s.True(compiled.Signable)
	s.Equal(99, compiled.Score)
	s.Len(compiled.Findings, 1)
	s.Equal("goods.tariff_fraction", compiled.Findings[0].Field)
}

func (s *CompilerServiceSuite) TestScoreFloorsAtZero() {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	doc.EmitterRFC = ""
	doc.ReceiverRFC = ""
	doc.Locations = nil
	doc.Goods = nil
	doc.Actors = nil
	doc.Vehicle.PlateNumber = ""
	doc.CCPID = ""

	compiled, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion31)
	s.NoError(err)
	s.False(compiled.Signable)
	s.GreaterOrEqual(compiled.Score, 0)
	s.LessOrEqual(compiled.Score, 100-5*compiled.ErrorCount())
}

func (s *CompilerServiceSuite) TestNegativeQuantityRejected() {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	doc.Goods[0].Quantity = decimal.NewFromInt(-1)

	_, err := s.compiler.Compile(s.GetContext(), doc, types.SchemaVersion30)
	s.Error(err)
}
