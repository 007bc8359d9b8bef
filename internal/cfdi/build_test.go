package cfdi

import (
	"strings"
	"testing"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/testutil"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalIsDeterministic(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion31)

	first, err := Marshal(Build(doc, types.SchemaVersion31))
	require.NoError(t, err)
	second, err := Marshal(Build(doc, types.SchemaVersion31))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildTrasladoCarriesNoAmounts(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion30)

	c := Build(doc, types.SchemaVersion30)
	assert.Equal(t, "0", c.SubTotal)
	assert.Equal(t, "0", c.Total)
	assert.Equal(t, "XXX", c.Moneda)
}

func TestBuildIngresoSumsGoodsValues(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	doc.CFDIType = types.CFDITypeIngreso

	c := Build(doc, types.SchemaVersion30)
	assert.Equal(t, "15000.00", c.SubTotal)
	assert.Equal(t, "15000.00", c.Total)
	assert.Equal(t, "MXN", c.Moneda)
}

func TestBuildSelectsComplementNamespace(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion31)

	xml30, err := Marshal(Build(testutil.NewTestDocument(types.SchemaVersion30), types.SchemaVersion30))
	require.NoError(t, err)
	xml31, err := Marshal(Build(doc, types.SchemaVersion31))
	require.NoError(t, err)

	assert.Contains(t, string(xml30), NamespaceCartaPorte30)
	assert.Contains(t, string(xml31), NamespaceCartaPorte31)
	assert.Contains(t, string(xml31), `IdCCP="`+doc.CCPID+`"`)
}

func TestTrailersOnlyRenderInSchema31(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion31)
	doc.Vehicle.Trailers = []document.Trailer{{SubTypeKey: "CTR004", PlateNumber: "TRL999"}}

	xml31, err := Marshal(Build(doc, types.SchemaVersion31))
	require.NoError(t, err)
	assert.Contains(t, string(xml31), `<cartaporte:Remolque SubTipoRem="CTR004" Placa="TRL999">`)

	doc.SchemaVersion = types.SchemaVersion30
	xml30, err := Marshal(Build(doc, types.SchemaVersion30))
	require.NoError(t, err)
	assert.NotContains(t, string(xml30), "cartaporte:Remolque")
}

func TestWeightsUseThreeDecimalPlaces(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion30)

	xmlBytes, err := Marshal(Build(doc, types.SchemaVersion30))
	require.NoError(t, err)
	assert.Contains(t, string(xmlBytes), `PesoEnKg="120.500"`)
	assert.Contains(t, string(xmlBytes), `PesoBrutoTotal="120.500"`)
}

func TestEmbedSealFillsPlaceholder(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion30)
	xmlBytes, err := Marshal(Build(doc, types.SchemaVersion30))
	require.NoError(t, err)
	require.Contains(t, string(xmlBytes), sealPlaceholder)

	sealed, err := EmbedSeal(xmlBytes, "c2VsbG8=", "30001000000400002444", "Y2VydA==")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), sealPlaceholder)
	assert.Contains(t, string(sealed), `Sello="c2VsbG8="`)
	assert.Contains(t, string(sealed), `NoCertificado="30001000000400002444"`)
}

func TestEmbedSealRequiresPlaceholder(t *testing.T) {
	_, err := EmbedSeal([]byte(`<cfdi:Comprobante Sello="x"/>`), "s", "n", "c")
	assert.Error(t, err)
}

func TestOriginalChainFormat(t *testing.T) {
	doc := testutil.NewTestDocument(types.SchemaVersion31)

	chain := OriginalChain(Build(doc, types.SchemaVersion31))
	assert.True(t, strings.HasPrefix(chain, "||"))
	assert.True(t, strings.HasSuffix(chain, "||"))
	assert.Contains(t, chain, doc.EmitterRFC)
	assert.Contains(t, chain, doc.CCPID)
}
