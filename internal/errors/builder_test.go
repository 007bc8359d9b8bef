package errors

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderMarksSentinel(t *testing.T) {
	err := NewError("document not found").
		WithHintf("Document with ID %s was not found", "ctd_123").
		Mark(ErrNotFound)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))

	hints := errors.GetAllHints(err)
	require.NotEmpty(t, hints)
	assert.Equal(t, "Document with ID ctd_123 was not found", hints[0])
}

func TestBuilderWrapsExistingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WithError(cause).
		WithHint("The stamping provider is unreachable").
		Mark(ErrHTTPClient)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrHTTPClient))
}

func TestReportableDetailsCarryJSONEnvelope(t *testing.T) {
	err := NewError("validation failed").
		WithReportableDetails(map[string]any{"field": "gross_weight_kg"}).
		Mark(ErrValidation)

	var payload string
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, detail := range sdp.SafeDetails {
			if strings.HasPrefix(detail, "__json__:") {
				payload = detail
			}
		}
	}
	require.NotEmpty(t, payload)
	assert.Contains(t, payload, `"field":"gross_weight_kg"`)
}
