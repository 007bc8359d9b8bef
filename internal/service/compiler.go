package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fiscalmx/cartaporte/internal/cfdi"
	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// CompilerService maps a transport document to canonical XML for a target
// schema version and produces the validation report. Compilation is pure and
// CPU-bound; a document with structural errors still compiles so the caller
// can show diagnostics, but is marked not signable.
type CompilerService interface {
	Compile(ctx context.Context, doc *document.TransportDocument, version types.SchemaVersion) (*artifact.CompiledDocument, error)
}

type compilerService struct {
	ServiceParams
}

func NewCompilerService(params ServiceParams) CompilerService {
	return &compilerService{
		ServiceParams: params,
	}
}

func (c *compilerService) Compile(ctx context.Context, doc *document.TransportDocument, version types.SchemaVersion) (*artifact.CompiledDocument, error) {
	if err := version.Validate(); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	findings := c.validate(doc, version)

	voucher := cfdi.Build(doc, version)
	xmlBytes, err := cfdi.Marshal(voucher)
	if err != nil {
		return nil, err
	}

	compiled := &artifact.CompiledDocument{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COMPILED_DOCUMENT),
		DocumentID:    doc.ID,
		Version:       version,
		XML:           xmlBytes,
		Findings:      findings,
		CompiledAt:    time.Now().UTC(),
		OriginalChain: cfdi.OriginalChain(voucher),
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}

	compiled.Signable = compiled.ErrorCount() == 0
	compiled.Score = score(compiled.ErrorCount(), compiled.WarningCount())

	c.Logger.Infow("compiled document",
		"document_id", doc.ID,
		"version", version,
		"score", compiled.Score,
		"signable", compiled.Signable,
		"findings", len(findings))

	return compiled, nil
}

// score is 100 minus 5 per error and 1 per warning, floored at zero
func score(errors, warnings int) int {
	s := 100 - 5*errors - warnings
	if s < 0 {
		return 0
	}
	return s
}

func (c *compilerService) validate(doc *document.TransportDocument, version types.SchemaVersion) []types.Finding {
	findings := []types.Finding{}

	addError := func(field, message string) {
		findings = append(findings, types.Finding{
			Severity: types.FindingSeverityError,
			Field:    field,
			Message:  message,
		})
	}
	addWarning := func(field, message string) {
		findings = append(findings, types.Finding{
			Severity: types.FindingSeverityWarning,
			Field:    field,
			Message:  message,
		})
	}

	if doc.EmitterRFC == "" {
		addError("emitter_rfc", "missing emitter RFC")
	}
	if doc.ReceiverRFC == "" {
		addError("receiver_rfc", "missing receiver RFC")
	}

	if len(doc.Locations) < 2 {
		addError("locations", "at least two locations are required")
	}

	origenes, destinos := 0, 0
	for _, loc := range doc.Locations {
		switch loc.Type {
		case types.LocationTypeOrigen:
			origenes++
		case types.LocationTypeDestino:
			destinos++
		}
	}
	if origenes == 0 {
		addError("locations", "missing Origen location")
	}
	if origenes > 1 {
		addError("locations", "more than one Origen location")
	}
	if destinos == 0 {
		addError("locations", "missing Destino location")
	}
	if destinos > 1 {
		addError("locations", "more than one Destino location")
	}

	if len(doc.Goods) == 0 {
		addError("goods", "at least one goods line is required")
	}

	if len(doc.Actors) == 0 {
		addError("actors", "at least one transport actor is required")
	}

	if doc.Vehicle.PlateNumber == "" {
		addError("vehicle.plate_number", "missing vehicle plate")
	}

	// an overloaded vehicle is suspicious, not fatal
	if !doc.Vehicle.GrossWeightKG.IsZero() &&
		doc.Vehicle.GrossWeightKG.LessThan(doc.TotalGoodsWeight()) {
		addWarning("vehicle.gross_weight_kg", "vehicle gross weight is below total goods weight")
	}

	if version == types.SchemaVersion31 {
		if doc.CCPID == "" {
			addError("ccp_id", "missing complement id for schema 3.1")
		}
		for i, item := range doc.Goods {
			if item.TariffFraction == "" {
				addWarning("goods.tariff_fraction",
					fmt.Sprintf("missing tariff fraction on goods line %d", i))
			}
		}
	}

	return findings
}
