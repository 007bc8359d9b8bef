package dto

import (
	"time"

	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/fiscalmx/cartaporte/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateDocumentRequest is the payload for registering a new transport document
type CreateDocumentRequest struct {
	Folio         string              `json:"folio"`
	EmitterRFC    string              `json:"emitter_rfc" validate:"required"`
	EmitterName   string              `json:"emitter_name" validate:"required"`
	ReceiverRFC   string              `json:"receiver_rfc" validate:"required"`
	ReceiverName  string              `json:"receiver_name" validate:"required"`
	CFDIType      types.CFDIType      `json:"cfdi_type" validate:"required"`
	SchemaVersion types.SchemaVersion `json:"schema_version" validate:"required"`
	IssuedAt      time.Time           `json:"issued_at" validate:"required"`

	Locations []LocationRequest       `json:"locations" validate:"required,min=1,dive"`
	Goods     []GoodsItemRequest      `json:"goods" validate:"required,min=1,dive"`
	Vehicle   VehicleRequest          `json:"vehicle" validate:"required"`
	Actors    []TransportActorRequest `json:"actors" validate:"required,min=1,dive"`

	CustomsRegime  string   `json:"customs_regime,omitempty"`
	CustomsRegimes []string `json:"customs_regimes,omitempty"`
	CCPID          string   `json:"ccp_id,omitempty"`
}

type LocationRequest struct {
	Type        types.LocationType `json:"type" validate:"required"`
	RFC         string             `json:"rfc,omitempty"`
	Name        string             `json:"name,omitempty"`
	PostalCode  string             `json:"postal_code" validate:"required"`
	StateCode   string             `json:"state_code" validate:"required"`
	CountryCode string             `json:"country_code" validate:"required"`
	Timestamp   time.Time          `json:"timestamp" validate:"required"`
	DistanceKM  decimal.Decimal    `json:"distance_km"`
}

type GoodsItemRequest struct {
	ProductKey     string          `json:"product_key" validate:"required"`
	Description    string          `json:"description" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity" validate:"required"`
	UnitKey        string          `json:"unit_key" validate:"required"`
	WeightKG       decimal.Decimal `json:"weight_kg" validate:"required"`
	Value          decimal.Decimal `json:"value"`
	CurrencyCode   string          `json:"currency_code,omitempty"`
	TariffFraction string          `json:"tariff_fraction,omitempty"`
}

type VehicleRequest struct {
	PlateNumber   string           `json:"plate_number" validate:"required"`
	ModelYear     int              `json:"model_year" validate:"required"`
	ConfigKey     string           `json:"config_key" validate:"required"`
	GrossWeightKG decimal.Decimal  `json:"gross_weight_kg"`
	PermitType    string           `json:"permit_type"`
	PermitNumber  string           `json:"permit_number"`
	Insurer       string           `json:"insurer"`
	PolicyNumber  string           `json:"policy_number"`
	Trailers      []TrailerRequest `json:"trailers,omitempty"`
}

type TrailerRequest struct {
	SubTypeKey  string `json:"sub_type_key" validate:"required"`
	PlateNumber string `json:"plate_number" validate:"required"`
}

type TransportActorRequest struct {
	Type          string `json:"type" validate:"required"`
	RFC           string `json:"rfc" validate:"required"`
	Name          string `json:"name" validate:"required"`
	LicenseNumber string `json:"license_number,omitempty"`
}

func (r *CreateDocumentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.CFDIType.Validate(); err != nil {
		return err
	}
	return r.SchemaVersion.Validate()
}

// ToDocument converts the request to the domain model
func (r *CreateDocumentRequest) ToDocument() *document.TransportDocument {
	doc := &document.TransportDocument{
		Folio:          r.Folio,
		EmitterRFC:     r.EmitterRFC,
		EmitterName:    r.EmitterName,
		ReceiverRFC:    r.ReceiverRFC,
		ReceiverName:   r.ReceiverName,
		CFDIType:       r.CFDIType,
		SchemaVersion:  r.SchemaVersion,
		IssuedAt:       r.IssuedAt,
		CustomsRegime:  r.CustomsRegime,
		CustomsRegimes: r.CustomsRegimes,
		CCPID:          r.CCPID,
	}

	for _, loc := range r.Locations {
		doc.Locations = append(doc.Locations, document.Location{
			Type:        loc.Type,
			RFC:         loc.RFC,
			Name:        loc.Name,
			PostalCode:  loc.PostalCode,
			StateCode:   loc.StateCode,
			CountryCode: loc.CountryCode,
			Timestamp:   loc.Timestamp,
			DistanceKM:  loc.DistanceKM,
		})
	}
	for _, item := range r.Goods {
		doc.Goods = append(doc.Goods, document.GoodsItem{
			ProductKey:     item.ProductKey,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitKey:        item.UnitKey,
			WeightKG:       item.WeightKG,
			Value:          item.Value,
			CurrencyCode:   item.CurrencyCode,
			TariffFraction: item.TariffFraction,
		})
	}
	doc.Vehicle = document.VehicleBlock{
		PlateNumber:   r.Vehicle.PlateNumber,
		ModelYear:     r.Vehicle.ModelYear,
		ConfigKey:     r.Vehicle.ConfigKey,
		GrossWeightKG: r.Vehicle.GrossWeightKG,
		PermitType:    r.Vehicle.PermitType,
		PermitNumber:  r.Vehicle.PermitNumber,
		Insurer:       r.Vehicle.Insurer,
		PolicyNumber:  r.Vehicle.PolicyNumber,
	}
	for _, t := range r.Vehicle.Trailers {
		doc.Vehicle.Trailers = append(doc.Vehicle.Trailers, document.Trailer{
			SubTypeKey:  t.SubTypeKey,
			PlateNumber: t.PlateNumber,
		})
	}
	for _, actor := range r.Actors {
		doc.Actors = append(doc.Actors, document.TransportActor{
			Type:          actor.Type,
			RFC:           actor.RFC,
			Name:          actor.Name,
			LicenseNumber: actor.LicenseNumber,
		})
	}

	return doc
}

// CompileDocumentRequest selects the target schema version for compilation.
// An empty target compiles for the document's stored version.
type CompileDocumentRequest struct {
	TargetVersion types.SchemaVersion `json:"target_version,omitempty"`
	AllowDataLoss bool                `json:"allow_data_loss,omitempty"`
}

func (r *CompileDocumentRequest) Validate() error {
	if r.TargetVersion == "" {
		return nil
	}
	return r.TargetVersion.Validate()
}

// SignDocumentRequest names the certificate and supplies the passphrase for
// this call only
type SignDocumentRequest struct {
	CertificateID string `json:"certificate_id" validate:"required"`
	Passphrase    string `json:"passphrase" validate:"required"`
}

func (r *SignDocumentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// StampDocumentRequest selects the stamping environment
type StampDocumentRequest struct {
	Environment types.StampEnvironment `json:"environment" validate:"required"`
}

func (r *StampDocumentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Environment.Validate()
}

// DocumentResponse is the API projection of a transport document
type DocumentResponse struct {
	ID            string               `json:"id"`
	Folio         string               `json:"folio"`
	EmitterRFC    string               `json:"emitter_rfc"`
	ReceiverRFC   string               `json:"receiver_rfc"`
	CFDIType      types.CFDIType       `json:"cfdi_type"`
	SchemaVersion types.SchemaVersion  `json:"schema_version"`
	Status        types.DocumentStatus `json:"status"`
	CCPID         string               `json:"ccp_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

func ToDocumentResponse(doc *document.TransportDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:            doc.ID,
		Folio:         doc.Folio,
		EmitterRFC:    doc.EmitterRFC,
		ReceiverRFC:   doc.ReceiverRFC,
		CFDIType:      doc.CFDIType,
		SchemaVersion: doc.SchemaVersion,
		Status:        doc.DocumentStatus,
		CCPID:         doc.CCPID,
		CreatedAt:     doc.CreatedAt,
	}
}

// CompileDocumentResponse carries the validation report and canonical XML
type CompileDocumentResponse struct {
	CompiledDocumentID string              `json:"compiled_document_id"`
	Version            types.SchemaVersion `json:"version"`
	Score              int                 `json:"score"`
	Signable           bool                `json:"signable"`
	Findings           []types.Finding     `json:"findings"`
	Warnings           []string            `json:"warnings,omitempty"`
	XML                string              `json:"xml"`
	CompiledAt         time.Time           `json:"compiled_at"`
}

func ToCompileDocumentResponse(compiled *artifact.CompiledDocument, warnings []string) *CompileDocumentResponse {
	return &CompileDocumentResponse{
		CompiledDocumentID: compiled.ID,
		Version:            compiled.Version,
		Score:              compiled.Score,
		Signable:           compiled.Signable,
		Findings:           compiled.Findings,
		Warnings:           warnings,
		XML:                string(compiled.XML),
		CompiledAt:         compiled.CompiledAt,
	}
}

// SignDocumentResponse acknowledges the signature without exposing key material
type SignDocumentResponse struct {
	SignedDocumentID  string    `json:"signed_document_id"`
	CertificateSerial string    `json:"certificate_serial"`
	SignedAt          time.Time `json:"signed_at"`
	IdempotencyHash   string    `json:"idempotency_hash"`
}

func ToSignDocumentResponse(signed *artifact.SignedDocument) *SignDocumentResponse {
	return &SignDocumentResponse{
		SignedDocumentID:  signed.ID,
		CertificateSerial: signed.CertificateSerial,
		SignedAt:          signed.SignedAt,
		IdempotencyHash:   signed.IdempotencyHash,
	}
}

// StampDocumentResponse carries the authority-issued fiscal proof
type StampDocumentResponse struct {
	UUID          string    `json:"uuid"`
	StampedAt     time.Time `json:"stamped_at"`
	SatSeal       string    `json:"sat_seal"`
	EmitterSeal   string    `json:"emitter_seal"`
	OriginalChain string    `json:"original_chain"`
	QRPayload     string    `json:"qr_payload"`
}

func ToStampDocumentResponse(result *artifact.StampResult) *StampDocumentResponse {
	return &StampDocumentResponse{
		UUID:          result.UUID,
		StampedAt:     result.StampedAt,
		SatSeal:       result.SatSeal,
		EmitterSeal:   result.EmitterSeal,
		OriginalChain: result.OriginalChain,
		QRPayload:     result.QRPayload,
	}
}
