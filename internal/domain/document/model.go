package document

import (
	"time"

	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/shopspring/decimal"
)

// TransportDocument is the structured Carta Porte model supplied by the
// calling workflow. The pipeline treats it as input: structural and schema
// validation happens at compile time and is reported as findings, not here.
type TransportDocument struct {
	ID            string              `json:"id"`
	Folio         string              `json:"folio"`
	EmitterRFC    string              `json:"emitter_rfc"`
	EmitterName   string              `json:"emitter_name"`
	ReceiverRFC   string              `json:"receiver_rfc"`
	ReceiverName  string              `json:"receiver_name"`
	CFDIType      types.CFDIType      `json:"cfdi_type"`
	SchemaVersion types.SchemaVersion `json:"schema_version"`
	IssuedAt      time.Time           `json:"issued_at"`

	Locations []Location       `json:"locations"`
	Goods     []GoodsItem      `json:"goods"`
	Vehicle   VehicleBlock     `json:"vehicle"`
	Actors    []TransportActor `json:"actors"`

	// CustomsRegime is the single scalar used by schema 3.0
	CustomsRegime string `json:"customs_regime,omitempty"`
	// CustomsRegimes is the array form used by schema 3.1
	CustomsRegimes []string `json:"customs_regimes,omitempty"`
	// CCPID is the Carta Porte complement id, required by schema 3.1
	CCPID string `json:"ccp_id,omitempty"`

	DocumentStatus types.DocumentStatus   `json:"document_status"`
	FailureReason  *string                `json:"failure_reason,omitempty"`
	LastRejection  *types.RejectionDetail `json:"last_rejection,omitempty"`

	Version int `json:"version"`
	types.BaseModel
}

// Location is one ordered stop in the transport route
type Location struct {
	Type        types.LocationType `json:"type"`
	RFC         string             `json:"rfc,omitempty"`
	Name        string             `json:"name,omitempty"`
	PostalCode  string             `json:"postal_code"`
	StateCode   string             `json:"state_code"`
	CountryCode string             `json:"country_code"`
	Timestamp   time.Time          `json:"timestamp"`
	DistanceKM  decimal.Decimal    `json:"distance_km"`
}

// GoodsItem is a single transported line item
type GoodsItem struct {
	ProductKey     string          `json:"product_key"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitKey        string          `json:"unit_key"`
	WeightKG       decimal.Decimal `json:"weight_kg"`
	Value          decimal.Decimal `json:"value"`
	CurrencyCode   string          `json:"currency_code"`
	TariffFraction string          `json:"tariff_fraction,omitempty"`
}

// VehicleBlock holds the vehicle, permit and insurance details
type VehicleBlock struct {
	PlateNumber   string          `json:"plate_number"`
	ModelYear     int             `json:"model_year"`
	ConfigKey     string          `json:"config_key"`
	GrossWeightKG decimal.Decimal `json:"gross_weight_kg"`
	PermitType    string          `json:"permit_type"`
	PermitNumber  string          `json:"permit_number"`
	Insurer       string          `json:"insurer"`
	PolicyNumber  string          `json:"policy_number"`
	Trailers      []Trailer       `json:"trailers,omitempty"`
}

// Trailer is a towed unit; only representable in schema 3.1
type Trailer struct {
	SubTypeKey  string `json:"sub_type_key"`
	PlateNumber string `json:"plate_number"`
}

// TransportActor is a person involved in the transport, e.g. the operator
type TransportActor struct {
	Type          string `json:"type"`
	RFC           string `json:"rfc"`
	Name          string `json:"name"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// TotalGoodsWeight returns the sum of the goods line weights
func (d *TransportDocument) TotalGoodsWeight() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Goods {
		total = total.Add(item.WeightKG)
	}
	return total
}

// LocationOfType returns the first location with the given type, if present
func (d *TransportDocument) LocationOfType(t types.LocationType) (Location, bool) {
	for _, loc := range d.Locations {
		if loc.Type == t {
			return loc, true
		}
	}
	return Location{}, false
}

// Validate rejects models that are internally inconsistent beyond what the
// compiler reports as findings: negative quantities, weights or values are
// never acceptable input.
func (d *TransportDocument) Validate() error {
	if err := d.CFDIType.Validate(); err != nil {
		return err
	}
	if err := d.SchemaVersion.Validate(); err != nil {
		return err
	}

	for i, item := range d.Goods {
		if item.Quantity.IsNegative() {
			return ierr.NewError("goods quantity must be non negative").
				WithHint("Goods quantities cannot be negative").
				WithReportableDetails(map[string]any{
					"line": i,
				}).
				Mark(ierr.ErrValidation)
		}
		if item.WeightKG.IsNegative() {
			return ierr.NewError("goods weight must be non negative").
				WithHint("Goods weights cannot be negative").
				WithReportableDetails(map[string]any{
					"line": i,
				}).
				Mark(ierr.ErrValidation)
		}
		if item.Value.IsNegative() {
			return ierr.NewError("goods value must be non negative").
				WithHint("Goods values cannot be negative").
				WithReportableDetails(map[string]any{
					"line": i,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if d.Vehicle.GrossWeightKG.IsNegative() {
		return ierr.NewError("vehicle gross weight must be non negative").
			WithHint("Vehicle gross weight cannot be negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// Clone returns a deep copy of the document. The migrator operates on copies
// so the caller's model is never mutated in place.
func (d *TransportDocument) Clone() *TransportDocument {
	out := *d

	out.Locations = make([]Location, len(d.Locations))
	copy(out.Locations, d.Locations)

	out.Goods = make([]GoodsItem, len(d.Goods))
	copy(out.Goods, d.Goods)

	out.Actors = make([]TransportActor, len(d.Actors))
	copy(out.Actors, d.Actors)

	if d.CustomsRegimes != nil {
		out.CustomsRegimes = make([]string, len(d.CustomsRegimes))
		copy(out.CustomsRegimes, d.CustomsRegimes)
	}

	if d.Vehicle.Trailers != nil {
		out.Vehicle.Trailers = make([]Trailer, len(d.Vehicle.Trailers))
		copy(out.Vehicle.Trailers, d.Vehicle.Trailers)
	}

	if d.FailureReason != nil {
		reason := *d.FailureReason
		out.FailureReason = &reason
	}
	if d.LastRejection != nil {
		rejection := *d.LastRejection
		out.LastRejection = &rejection
	}

	return &out
}
