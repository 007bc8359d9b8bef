package pac

import (
	"github.com/samber/lo"
)

// sandboxRFCs are publicly-known test taxpayer ids that only exist in the
// authority's sandbox. Submitting a document emitted under one of these to
// the binding production endpoint is always a configuration mistake.
var sandboxRFCs = []string{
	"EKU9003173C9",
	"XAXX010101000",
	"XEXX010101000",
}

// IsSandboxRFC reports whether the RFC is a sandbox-only fixture
func IsSandboxRFC(rfc string) bool {
	return lo.Contains(sandboxRFCs, rfc)
}
