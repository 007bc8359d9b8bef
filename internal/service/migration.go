package service

import (
	"context"
	"fmt"

	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// MigrationService translates a transport document between the two supported
// schema generations. Migration only changes structural shape: it never
// invents RFCs, quantities or monetary values.
type MigrationService interface {
	Migrate(ctx context.Context, doc *document.TransportDocument, target types.SchemaVersion, allowDataLoss bool) (*document.TransportDocument, []string, error)
}

type migrationService struct {
	ServiceParams
}

func NewMigrationService(params ServiceParams) MigrationService {
	return &migrationService{
		ServiceParams: params,
	}
}

func (m *migrationService) Migrate(ctx context.Context, doc *document.TransportDocument, target types.SchemaVersion, allowDataLoss bool) (*document.TransportDocument, []string, error) {
	if err := target.Validate(); err != nil {
		return nil, nil, err
	}

	if doc.SchemaVersion == target {
		return doc.Clone(), nil, nil
	}

	switch target {
	case types.SchemaVersion31:
		return m.upgrade(ctx, doc), nil, nil
	default:
		return m.downgrade(ctx, doc, allowDataLoss)
	}
}

// upgrade promotes a 3.0 document to 3.1 shape. All changes are structural
// and reversible, so no warnings are produced.
func (m *migrationService) upgrade(ctx context.Context, doc *document.TransportDocument) *document.TransportDocument {
	out := doc.Clone()
	out.SchemaVersion = types.SchemaVersion31

	// the scalar customs regime becomes an array-of-one
	if out.CustomsRegime != "" {
		out.CustomsRegimes = []string{out.CustomsRegime}
		out.CustomsRegime = ""
	}

	// 3.1 requires a complement id; fabricate one when absent
	if out.CCPID == "" {
		out.CCPID = fabricateCCPID()
	}

	m.Logger.Debugw("upgraded document schema",
		"document_id", doc.ID,
		"from", doc.SchemaVersion,
		"to", types.SchemaVersion31)

	return out
}

// downgrade demotes a 3.1 document to 3.0 shape. Shape-only changes are
// silent; anything the 3.0 schema cannot represent is data loss and requires
// the caller's explicit acknowledgement.
func (m *migrationService) downgrade(ctx context.Context, doc *document.TransportDocument, allowDataLoss bool) (*document.TransportDocument, []string, error) {
	var warnings []string

	if len(doc.CustomsRegimes) > 1 {
		warnings = append(warnings, fmt.Sprintf(
			"document declares %d customs regimes; schema 3.0 keeps only %q",
			len(doc.CustomsRegimes), doc.CustomsRegimes[0]))
	}
	if len(doc.Vehicle.Trailers) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"document declares %d trailer blocks not representable in schema 3.0",
			len(doc.Vehicle.Trailers)))
	}

	if len(warnings) > 0 && !allowDataLoss {
		return nil, warnings, ierr.NewError("downgrade would drop data").
			WithHint("Pass the allow-data-loss flag to acknowledge the discarded fields").
			WithReportableDetails(map[string]any{
				"warnings": warnings,
			}).
			Mark(ierr.ErrUnsupportedMigration)
	}

	out := doc.Clone()
	out.SchemaVersion = types.SchemaVersion30

	if len(out.CustomsRegimes) > 0 {
		out.CustomsRegime = out.CustomsRegimes[0]
		out.CustomsRegimes = nil
	}

	// the complement id and trailer blocks do not exist in 3.0
	out.CCPID = ""
	out.Vehicle.Trailers = nil

	m.Logger.Debugw("downgraded document schema",
		"document_id", doc.ID,
		"from", doc.SchemaVersion,
		"to", types.SchemaVersion30,
		"warnings", len(warnings))

	return out, warnings, nil
}

// fabricateCCPID produces a fresh complement id in the authority's expected
// shape, a unique identifier starting with "CCC"
func fabricateCCPID() string {
	id := types.GenerateUUID()
	return fmt.Sprintf("CCC%s", id[3:])
}
