package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope represents the scope of idempotency
type Scope string

const (
	// ScopeStamp keys authority submissions by the signed document bytes, so
	// the same signed XML can never trigger two authority calls
	ScopeStamp Scope = "stamp"

	// ScopeCompile keys compilation artifacts by document and target version
	ScopeCompile Scope = "compile"
)

// Generator generates idempotency keys
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	// Sort params for consistent hashing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:8]))
}

// GenerateContentKey generates an idempotency key from raw content bytes.
// The full digest is kept because the stamp-once guarantee hangs on it.
func (g *Generator) GenerateContentKey(scope Scope, content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:]))
}

// ValidateKey validates if an idempotency key matches expected parameters
func (g *Generator) ValidateKey(scope Scope, params map[string]interface{}, key string) bool {
	generated := g.GenerateKey(scope, params)
	return generated == key
}
