// Package cfdi holds the canonical wire representation of a CFDI voucher with
// its Carta Porte complement, for both supported complement versions. Field
// order in these structs is load-bearing: the digital signature is defined
// over the exact serialized bytes, so attribute and element order must be
// stable across runs.
package cfdi

import "encoding/xml"

const (
	// NamespaceCFDI is the CFDI 4.0 voucher namespace
	NamespaceCFDI = "http://www.sat.gob.mx/cfd/4"
	// NamespaceCartaPorte30 is the Carta Porte 3.0 complement namespace
	NamespaceCartaPorte30 = "http://www.sat.gob.mx/CartaPorte30"
	// NamespaceCartaPorte31 is the Carta Porte 3.1 complement namespace
	NamespaceCartaPorte31 = "http://www.sat.gob.mx/CartaPorte31"

	// DateLayout is the SAT timestamp layout, local time without zone
	DateLayout = "2006-01-02T15:04:05"
)

// Comprobante is the root CFDI voucher element. Sello, NoCertificado and
// Certificado are emitted as empty placeholders at compile time and filled in
// by the signer without re-serializing the document.
type Comprobante struct {
	XMLName xml.Name `xml:"cfdi:Comprobante"`

	XMLNSCfdi       string `xml:"xmlns:cfdi,attr"`
	XMLNSCartaPorte string `xml:"xmlns:cartaporte,attr"`

	Version           string `xml:"Version,attr"`
	Serie             string `xml:"Serie,attr,omitempty"`
	Folio             string `xml:"Folio,attr,omitempty"`
	Fecha             string `xml:"Fecha,attr"`
	Sello             string `xml:"Sello,attr"`
	NoCertificado     string `xml:"NoCertificado,attr"`
	Certificado       string `xml:"Certificado,attr"`
	SubTotal          string `xml:"SubTotal,attr"`
	Moneda            string `xml:"Moneda,attr"`
	Total             string `xml:"Total,attr"`
	TipoDeComprobante string `xml:"TipoDeComprobante,attr"`
	Exportacion       string `xml:"Exportacion,attr"`
	LugarExpedicion   string `xml:"LugarExpedicion,attr"`

	Emisor      Emisor      `xml:"cfdi:Emisor"`
	Receptor    Receptor    `xml:"cfdi:Receptor"`
	Conceptos   Conceptos   `xml:"cfdi:Conceptos"`
	Complemento Complemento `xml:"cfdi:Complemento"`
}

type Emisor struct {
	Rfc           string `xml:"Rfc,attr"`
	Nombre        string `xml:"Nombre,attr"`
	RegimenFiscal string `xml:"RegimenFiscal,attr"`
}

type Receptor struct {
	Rfc                     string `xml:"Rfc,attr"`
	Nombre                  string `xml:"Nombre,attr"`
	DomicilioFiscalReceptor string `xml:"DomicilioFiscalReceptor,attr"`
	RegimenFiscalReceptor   string `xml:"RegimenFiscalReceptor,attr"`
	UsoCFDI                 string `xml:"UsoCFDI,attr"`
}

type Conceptos struct {
	Conceptos []Concepto `xml:"cfdi:Concepto"`
}

type Concepto struct {
	ClaveProdServ string `xml:"ClaveProdServ,attr"`
	Cantidad      string `xml:"Cantidad,attr"`
	ClaveUnidad   string `xml:"ClaveUnidad,attr"`
	Descripcion   string `xml:"Descripcion,attr"`
	ValorUnitario string `xml:"ValorUnitario,attr"`
	Importe       string `xml:"Importe,attr"`
	ObjetoImp     string `xml:"ObjetoImp,attr"`
}

type Complemento struct {
	CartaPorte CartaPorte `xml:"cartaporte:CartaPorte"`
}

// CartaPorte is the complement root. RegimenAduanero is the 3.0 scalar form;
// RegimenesAduaneros is the 3.1 array form. Exactly one of them is populated
// for a given version.
type CartaPorte struct {
	Version         string `xml:"Version,attr"`
	IdCCP           string `xml:"IdCCP,attr,omitempty"`
	RegimenAduanero string `xml:"RegimenAduanero,attr,omitempty"`
	TranspInternac  string `xml:"TranspInternac,attr"`
	TotalDistRec    string `xml:"TotalDistRec,attr"`

	RegimenesAduaneros *RegimenesAduaneros `xml:"cartaporte:RegimenesAduaneros,omitempty"`
	Ubicaciones        Ubicaciones         `xml:"cartaporte:Ubicaciones"`
	Mercancias         Mercancias          `xml:"cartaporte:Mercancias"`
	FiguraTransporte   FiguraTransporte    `xml:"cartaporte:FiguraTransporte"`
}

type RegimenesAduaneros struct {
	Regimenes []RegimenAduaneroCCP `xml:"cartaporte:RegimenAduaneroCCP"`
}

type RegimenAduaneroCCP struct {
	RegimenAduanero string `xml:"RegimenAduanero,attr"`
}

type Ubicaciones struct {
	Ubicaciones []Ubicacion `xml:"cartaporte:Ubicacion"`
}

type Ubicacion struct {
	TipoUbicacion               string `xml:"TipoUbicacion,attr"`
	RFCRemitenteDestinatario    string `xml:"RFCRemitenteDestinatario,attr,omitempty"`
	NombreRemitenteDestinatario string `xml:"NombreRemitenteDestinatario,attr,omitempty"`
	FechaHoraSalidaLlegada      string `xml:"FechaHoraSalidaLlegada,attr"`
	DistanciaRecorrida          string `xml:"DistanciaRecorrida,attr,omitempty"`

	Domicilio Domicilio `xml:"cartaporte:Domicilio"`
}

type Domicilio struct {
	Estado       string `xml:"Estado,attr"`
	Pais         string `xml:"Pais,attr"`
	CodigoPostal string `xml:"CodigoPostal,attr"`
}

type Mercancias struct {
	PesoBrutoTotal     string `xml:"PesoBrutoTotal,attr"`
	UnidadPeso         string `xml:"UnidadPeso,attr"`
	NumTotalMercancias string `xml:"NumTotalMercancias,attr"`

	Mercancias     []Mercancia    `xml:"cartaporte:Mercancia"`
	Autotransporte Autotransporte `xml:"cartaporte:Autotransporte"`
}

type Mercancia struct {
	BienesTransp        string `xml:"BienesTransp,attr"`
	Descripcion         string `xml:"Descripcion,attr"`
	Cantidad            string `xml:"Cantidad,attr"`
	ClaveUnidad         string `xml:"ClaveUnidad,attr"`
	PesoEnKg            string `xml:"PesoEnKg,attr"`
	ValorMercancia      string `xml:"ValorMercancia,attr,omitempty"`
	Moneda              string `xml:"Moneda,attr,omitempty"`
	FraccionArancelaria string `xml:"FraccionArancelaria,attr,omitempty"`
}

type Autotransporte struct {
	PermSCT       string `xml:"PermSCT,attr"`
	NumPermisoSCT string `xml:"NumPermisoSCT,attr"`

	IdentificacionVehicular IdentificacionVehicular `xml:"cartaporte:IdentificacionVehicular"`
	Seguros                 Seguros                 `xml:"cartaporte:Seguros"`
	Remolques               *Remolques              `xml:"cartaporte:Remolques,omitempty"`
}

type IdentificacionVehicular struct {
	ConfigVehicular    string `xml:"ConfigVehicular,attr"`
	PesoBrutoVehicular string `xml:"PesoBrutoVehicular,attr"`
	PlacaVM            string `xml:"PlacaVM,attr"`
	AnioModeloVM       string `xml:"AnioModeloVM,attr"`
}

type Seguros struct {
	AseguraRespCivil string `xml:"AseguraRespCivil,attr"`
	PolizaRespCivil  string `xml:"PolizaRespCivil,attr"`
}

type Remolques struct {
	Remolques []Remolque `xml:"cartaporte:Remolque"`
}

type Remolque struct {
	SubTipoRem string `xml:"SubTipoRem,attr"`
	Placa      string `xml:"Placa,attr"`
}

type FiguraTransporte struct {
	TiposFigura []TipoFigura `xml:"cartaporte:TiposFigura"`
}

type TipoFigura struct {
	TipoFigura   string `xml:"TipoFigura,attr"`
	RFCFigura    string `xml:"RFCFigura,attr,omitempty"`
	NumLicencia  string `xml:"NumLicencia,attr,omitempty"`
	NombreFigura string `xml:"NombreFigura,attr,omitempty"`
}
