package cfdi

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/shopspring/decimal"
)

const (
	// weights and quantities carry three decimal places, money two; the
	// signature is defined over these exact renderings
	weightPlaces   = 3
	moneyPlaces    = 2
	distancePlaces = 2

	currencyMXN  = "MXN"
	currencyNone = "XXX"
	unitKGM      = "KGM"

	sealPlaceholder = `Sello="" NoCertificado="" Certificado=""`
)

// Build maps a transport document to the canonical voucher structure for the
// target complement version. It performs no validation; callers compile what
// they are given and report findings separately.
func Build(doc *document.TransportDocument, version types.SchemaVersion) *Comprobante {
	c := &Comprobante{
		XMLNSCfdi:         NamespaceCFDI,
		XMLNSCartaPorte:   complementNamespace(version),
		Version:           "4.0",
		Folio:             doc.Folio,
		Fecha:             doc.IssuedAt.Format(DateLayout),
		TipoDeComprobante: doc.CFDIType.String(),
		Exportacion:       "01",
		Emisor: Emisor{
			Rfc:           doc.EmitterRFC,
			Nombre:        doc.EmitterName,
			RegimenFiscal: "601",
		},
		Receptor: Receptor{
			Rfc:                   doc.ReceiverRFC,
			Nombre:                doc.ReceiverName,
			RegimenFiscalReceptor: "616",
			UsoCFDI:               "S01",
		},
	}

	if origen, ok := doc.LocationOfType(types.LocationTypeOrigen); ok {
		c.LugarExpedicion = origen.PostalCode
	}
	if destino, ok := doc.LocationOfType(types.LocationTypeDestino); ok {
		c.Receptor.DomicilioFiscalReceptor = destino.PostalCode
	}

	c.SubTotal, c.Total, c.Moneda = totals(doc)
	c.Conceptos = buildConceptos(doc)
	c.Complemento.CartaPorte = buildCartaPorte(doc, version)

	return c
}

// Marshal serializes the voucher to its canonical byte form. Repeated calls
// on equal input yield byte-identical output.
func Marshal(c *Comprobante) ([]byte, error) {
	body, err := xml.Marshal(c)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The document could not be serialized").
			Mark(ierr.ErrSystem)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	return buf.Bytes(), nil
}

// EmbedSeal fills the compile-time seal placeholder with the signature,
// certificate serial and base64 certificate, without re-serializing or
// otherwise touching the document bytes.
func EmbedSeal(compiledXML []byte, sello, serial, certificateB64 string) ([]byte, error) {
	placeholder := []byte(sealPlaceholder)
	if !bytes.Contains(compiledXML, placeholder) {
		return nil, ierr.NewError("compiled document has no seal placeholder").
			WithHint("The compiled XML was not produced by this compiler").
			Mark(ierr.ErrInvalidOperation)
	}

	filled := []byte(`Sello="` + sello + `" NoCertificado="` + serial + `" Certificado="` + certificateB64 + `"`)
	return bytes.Replace(compiledXML, placeholder, filled, 1), nil
}

func complementNamespace(version types.SchemaVersion) string {
	if version == types.SchemaVersion31 {
		return NamespaceCartaPorte31
	}
	return NamespaceCartaPorte30
}

func totals(doc *document.TransportDocument) (subTotal, total, currency string) {
	// Traslado vouchers carry no consideration: zero amounts, no currency
	if doc.CFDIType == types.CFDITypeTraslado {
		return "0", "0", currencyNone
	}

	sum := decimal.Zero
	for _, item := range doc.Goods {
		sum = sum.Add(item.Value)
	}
	return sum.StringFixed(moneyPlaces), sum.StringFixed(moneyPlaces), currencyMXN
}

func buildConceptos(doc *document.TransportDocument) Conceptos {
	conceptos := make([]Concepto, 0, len(doc.Goods))
	for _, item := range doc.Goods {
		unit := item.Value
		if item.Quantity.IsPositive() {
			unit = item.Value.DivRound(item.Quantity, moneyPlaces)
		}
		conceptos = append(conceptos, Concepto{
			ClaveProdServ: item.ProductKey,
			Cantidad:      item.Quantity.StringFixed(weightPlaces),
			ClaveUnidad:   item.UnitKey,
			Descripcion:   item.Description,
			ValorUnitario: unit.StringFixed(moneyPlaces),
			Importe:       item.Value.StringFixed(moneyPlaces),
			ObjetoImp:     "01",
		})
	}
	return Conceptos{Conceptos: conceptos}
}

func buildCartaPorte(doc *document.TransportDocument, version types.SchemaVersion) CartaPorte {
	cp := CartaPorte{
		Version:        version.String(),
		TranspInternac: "No",
		TotalDistRec:   totalDistance(doc).StringFixed(distancePlaces),
	}

	switch version {
	case types.SchemaVersion31:
		cp.IdCCP = doc.CCPID
		if len(doc.CustomsRegimes) > 0 {
			regimenes := make([]RegimenAduaneroCCP, 0, len(doc.CustomsRegimes))
			for _, r := range doc.CustomsRegimes {
				regimenes = append(regimenes, RegimenAduaneroCCP{RegimenAduanero: r})
			}
			cp.RegimenesAduaneros = &RegimenesAduaneros{Regimenes: regimenes}
		}
	default:
		cp.RegimenAduanero = doc.CustomsRegime
	}

	cp.Ubicaciones = buildUbicaciones(doc)
	cp.Mercancias = buildMercancias(doc, version)
	cp.FiguraTransporte = buildFiguras(doc)

	return cp
}

func totalDistance(doc *document.TransportDocument) decimal.Decimal {
	total := decimal.Zero
	for _, loc := range doc.Locations {
		if loc.Type != types.LocationTypeOrigen {
			total = total.Add(loc.DistanceKM)
		}
	}
	return total
}

func buildUbicaciones(doc *document.TransportDocument) Ubicaciones {
	ubicaciones := make([]Ubicacion, 0, len(doc.Locations))
	for _, loc := range doc.Locations {
		u := Ubicacion{
			TipoUbicacion:               loc.Type.String(),
			RFCRemitenteDestinatario:    loc.RFC,
			NombreRemitenteDestinatario: loc.Name,
			FechaHoraSalidaLlegada:      loc.Timestamp.Format(DateLayout),
			Domicilio: Domicilio{
				Estado:       loc.StateCode,
				Pais:         loc.CountryCode,
				CodigoPostal: loc.PostalCode,
			},
		}
		if loc.Type != types.LocationTypeOrigen {
			u.DistanciaRecorrida = loc.DistanceKM.StringFixed(distancePlaces)
		}
		ubicaciones = append(ubicaciones, u)
	}
	return Ubicaciones{Ubicaciones: ubicaciones}
}

func buildMercancias(doc *document.TransportDocument, version types.SchemaVersion) Mercancias {
	mercancias := make([]Mercancia, 0, len(doc.Goods))
	for _, item := range doc.Goods {
		m := Mercancia{
			BienesTransp: item.ProductKey,
			Descripcion:  item.Description,
			Cantidad:     item.Quantity.StringFixed(weightPlaces),
			ClaveUnidad:  item.UnitKey,
			PesoEnKg:     item.WeightKG.StringFixed(weightPlaces),
		}
		if !item.Value.IsZero() {
			m.ValorMercancia = item.Value.StringFixed(moneyPlaces)
			m.Moneda = item.CurrencyCode
			if m.Moneda == "" {
				m.Moneda = currencyMXN
			}
		}
		if version == types.SchemaVersion31 {
			m.FraccionArancelaria = item.TariffFraction
		}
		mercancias = append(mercancias, m)
	}

	auto := Autotransporte{
		PermSCT:       doc.Vehicle.PermitType,
		NumPermisoSCT: doc.Vehicle.PermitNumber,
		IdentificacionVehicular: IdentificacionVehicular{
			ConfigVehicular:    doc.Vehicle.ConfigKey,
			PesoBrutoVehicular: doc.Vehicle.GrossWeightKG.StringFixed(weightPlaces),
			PlacaVM:            doc.Vehicle.PlateNumber,
			AnioModeloVM:       strconv.Itoa(doc.Vehicle.ModelYear),
		},
		Seguros: Seguros{
			AseguraRespCivil: doc.Vehicle.Insurer,
			PolizaRespCivil:  doc.Vehicle.PolicyNumber,
		},
	}

	// trailer blocks only exist in the 3.1 schema
	if version == types.SchemaVersion31 && len(doc.Vehicle.Trailers) > 0 {
		remolques := make([]Remolque, 0, len(doc.Vehicle.Trailers))
		for _, t := range doc.Vehicle.Trailers {
			remolques = append(remolques, Remolque{
				SubTipoRem: t.SubTypeKey,
				Placa:      t.PlateNumber,
			})
		}
		auto.Remolques = &Remolques{Remolques: remolques}
	}

	return Mercancias{
		PesoBrutoTotal:     doc.TotalGoodsWeight().StringFixed(weightPlaces),
		UnidadPeso:         unitKGM,
		NumTotalMercancias: strconv.Itoa(len(doc.Goods)),
		Mercancias:         mercancias,
		Autotransporte:     auto,
	}
}

func buildFiguras(doc *document.TransportDocument) FiguraTransporte {
	figuras := make([]TipoFigura, 0, len(doc.Actors))
	for _, actor := range doc.Actors {
		figuras = append(figuras, TipoFigura{
			TipoFigura:   actor.Type,
			RFCFigura:    actor.RFC,
			NumLicencia:  actor.LicenseNumber,
			NombreFigura: actor.Name,
		})
	}
	return FiguraTransporte{TiposFigura: figuras}
}
