package types

import (
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/samber/lo"
)

// SchemaVersion identifies a Carta Porte complement schema generation.
// The two generations are mutually incompatible on the wire.
type SchemaVersion string

const (
	SchemaVersion30 SchemaVersion = "3.0"
	SchemaVersion31 SchemaVersion = "3.1"
)

func (v SchemaVersion) String() string {
	return string(v)
}

func (v SchemaVersion) Validate() error {
	allowed := []SchemaVersion{
		SchemaVersion30,
		SchemaVersion31,
	}
	if !lo.Contains(allowed, v) {
		return ierr.NewError("invalid schema version").
			WithHint("Please provide a valid Carta Porte schema version").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CFDIType categorizes the fiscal nature of the voucher the complement rides on
type CFDIType string

const (
	// CFDITypeIngreso indicates the carrier invoices the freight service
	CFDITypeIngreso CFDIType = "I"
	// CFDITypeTraslado indicates the owner moves its own goods without invoicing
	CFDITypeTraslado CFDIType = "T"
)

func (t CFDIType) String() string {
	return string(t)
}

func (t CFDIType) Validate() error {
	allowed := []CFDIType{
		CFDITypeIngreso,
		CFDITypeTraslado,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid CFDI type").
			WithHint("Please provide a valid CFDI type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LocationType marks a stop in the transport route
type LocationType string

const (
	LocationTypeOrigen     LocationType = "Origen"
	LocationTypeDestino    LocationType = "Destino"
	LocationTypeIntermedio LocationType = "Intermedio"
)

func (t LocationType) String() string {
	return string(t)
}

func (t LocationType) Validate() error {
	allowed := []LocationType{
		LocationTypeOrigen,
		LocationTypeDestino,
		LocationTypeIntermedio,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid location type").
			WithHint("Please provide a valid location type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DocumentStatus represents the current state of a transport document in the
// compilation and stamping pipeline. Stamped is terminal; a stamped document
// never re-enters an earlier state.
type DocumentStatus string

const (
	// DocumentStatusDraft indicates the document model exists but has not been compiled
	DocumentStatusDraft DocumentStatus = "DRAFT"
	// DocumentStatusCompiled indicates canonical XML has been produced and is signable
	DocumentStatusCompiled DocumentStatus = "COMPILED"
	// DocumentStatusSigned indicates a digital signature has been produced and persisted
	DocumentStatusSigned DocumentStatus = "SIGNED"
	// DocumentStatusStamped indicates the authority issued a stamp; terminal state
	DocumentStatusStamped DocumentStatus = "STAMPED"
	// DocumentStatusFailed indicates a terminal failure that requires caller intervention
	DocumentStatusFailed DocumentStatus = "FAILED"
)

func (s DocumentStatus) String() string {
	return string(s)
}

func (s DocumentStatus) Validate() error {
	allowed := []DocumentStatus{
		DocumentStatusDraft,
		DocumentStatusCompiled,
		DocumentStatusSigned,
		DocumentStatusStamped,
		DocumentStatusFailed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid document status").
			WithHint("Please provide a valid document status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further pipeline transition is allowed
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusStamped || s == DocumentStatusFailed
}

// StampEnvironment selects between the non-binding sandbox and the binding
// production authority endpoint
type StampEnvironment string

const (
	StampEnvironmentSandbox    StampEnvironment = "sandbox"
	StampEnvironmentProduction StampEnvironment = "production"
)

func (e StampEnvironment) String() string {
	return string(e)
}

func (e StampEnvironment) Validate() error {
	allowed := []StampEnvironment{
		StampEnvironmentSandbox,
		StampEnvironmentProduction,
	}
	if !lo.Contains(allowed, e) {
		return ierr.NewError("invalid stamping environment").
			WithHint("Please provide a valid stamping environment").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
