package types

import (
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/samber/lo"
)

// FindingSeverity classifies a compile-time validation finding. Errors block
// signing; warnings only lower the compliance score.
type FindingSeverity string

const (
	FindingSeverityError   FindingSeverity = "error"
	FindingSeverityWarning FindingSeverity = "warning"
)

func (s FindingSeverity) String() string {
	return string(s)
}

func (s FindingSeverity) Validate() error {
	allowed := []FindingSeverity{
		FindingSeverityError,
		FindingSeverityWarning,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid finding severity").
			WithHint("Please provide a valid finding severity").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Finding is a single structural or semantic validation result produced by
// the compiler
type Finding struct {
	Severity FindingSeverity `json:"severity"`
	Field    string          `json:"field"`
	Message  string          `json:"message"`
}

// RejectionDetail is the structured rejection returned by the stamping
// authority. It is persisted verbatim alongside the document for audit.
type RejectionDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
