package testutil

import (
	"time"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/shopspring/decimal"
)

// NewTestDocument returns a structurally complete transport document for the
// given schema version. Tests mutate the copy to produce invalid variants.
func NewTestDocument(version types.SchemaVersion) *document.TransportDocument {
	doc := &document.TransportDocument{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSPORT_DOCUMENT),
		Folio:         types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_FOLIO),
		EmitterRFC:    "EKU9003173C9",
		EmitterName:   "ESCUELA KEMPER URGATE",
		ReceiverRFC:   "XAXX010101000",
		ReceiverName:  "PUBLICO EN GENERAL",
		CFDIType:      types.CFDITypeTraslado,
		SchemaVersion: version,
		IssuedAt:      time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Locations: []document.Location{
			{
				Type:        types.LocationTypeOrigen,
				PostalCode:  "64000",
				StateCode:   "NLE",
				CountryCode: "MEX",
				Timestamp:   time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
			},
			{
				Type:        types.LocationTypeDestino,
				PostalCode:  "44100",
				StateCode:   "JAL",
				CountryCode: "MEX",
				Timestamp:   time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC),
				DistanceKM:  decimal.NewFromInt(780),
			},
		},
		Goods: []document.GoodsItem{
			{
				ProductKey:   "31181701",
				Description:  "Cajas de refacciones",
				Quantity:     decimal.NewFromInt(10),
				UnitKey:      "XBX",
				WeightKG:     decimal.NewFromFloat(120.5),
				Value:        decimal.NewFromInt(15000),
				CurrencyCode: "MXN",
			},
		},
		Vehicle: document.VehicleBlock{
			PlateNumber:   "ABC1234",
			ModelYear:     2020,
			ConfigKey:     "C2",
			GrossWeightKG: decimal.NewFromInt(3500),
			PermitType:    "TPAF01",
			PermitNumber:  "1234567",
			Insurer:       "ASEGURADORA SA",
			PolicyNumber:  "POL-998877",
		},
		Actors: []document.TransportActor{
			{
				Type:          "Operador",
				RFC:           "XAXX010101000",
				Name:          "JUAN OPERADOR",
				LicenseNumber: "LIC123456",
			},
		},
		CustomsRegime:  "",
		DocumentStatus: types.DocumentStatusDraft,
	}

	if version == types.SchemaVersion31 {
		doc.CCPID = "CCCaf6f71e0-0000-4f5a-9f3a-000000000001"
		doc.Goods[0].TariffFraction = "8708299999"
	}

	return doc
}
