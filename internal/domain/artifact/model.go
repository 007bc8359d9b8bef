package artifact

import (
	"time"

	"github.com/fiscalmx/cartaporte/internal/types"
)

// CompiledDocument is the canonical XML rendition of a transport document for
// one target schema version, together with its validation report. It is
// produced fresh on every compile and never mutated.
type CompiledDocument struct {
	ID         string              `json:"id"`
	DocumentID string              `json:"document_id"`
	Version    types.SchemaVersion `json:"version"`
	XML        []byte              `json:"xml"`
	Score      int                 `json:"score"`
	Findings   []types.Finding     `json:"findings"`
	Signable   bool                `json:"signable"`
	CompiledAt time.Time           `json:"compiled_at"`

	// OriginalChain is the pipe-delimited chain derived from the same
	// canonical rendering as XML; the emitter seal is computed over it
	OriginalChain string `json:"original_chain"`

	types.BaseModel
}

// ErrorCount returns the number of error-severity findings
func (c *CompiledDocument) ErrorCount() int {
	count := 0
	for _, f := range c.Findings {
		if f.Severity == types.FindingSeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-severity findings
func (c *CompiledDocument) WarningCount() int {
	count := 0
	for _, f := range c.Findings {
		if f.Severity == types.FindingSeverityWarning {
			count++
		}
	}
	return count
}

// SignedDocument wraps a compiled document with its digital signature.
// Immutable once created; the persisted instance is the canonical input to
// stamping on resume.
type SignedDocument struct {
	ID                 string    `json:"id"`
	DocumentID         string    `json:"document_id"`
	CompiledDocumentID string    `json:"compiled_document_id"`
	XML                []byte    `json:"xml"`
	Signature          []byte    `json:"signature"`
	CertificateSerial  string    `json:"certificate_serial"`
	SignedAt           time.Time `json:"signed_at"`

	// IdempotencyHash is the stamp idempotency key derived from XML; the
	// same hash maps to at most one authority UUID for the account lifetime
	IdempotencyHash string `json:"idempotency_hash"`

	types.BaseModel
}

// StampResult is the authority-issued fiscal proof. Its presence is the
// terminal evidence of stamping and must be consulted before any resubmission.
type StampResult struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"document_id"`
	UUID            string    `json:"uuid"`
	StampedAt       time.Time `json:"stamped_at"`
	SatSeal         string    `json:"sat_seal"`
	EmitterSeal     string    `json:"emitter_seal"`
	OriginalChain   string    `json:"original_chain"`
	QRPayload       string    `json:"qr_payload"`
	IdempotencyHash string    `json:"idempotency_hash"`

	types.BaseModel
}
