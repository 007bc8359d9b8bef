package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/pac"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// stampOutcome is one scripted answer from the mock authority
type stampOutcome struct {
	response *pac.StampResponse
	err      error
}

// MockPACClient implements pac.Client with scripted outcomes. Outcomes are
// consumed in order; when the script runs dry the client keeps returning a
// fresh success so happy-path tests need no setup.
type MockPACClient struct {
	mu       sync.Mutex
	script   []stampOutcome
	calls    int
	lastXML  []byte
	lastEnv  types.StampEnvironment
	sequence int
}

func NewMockPACClient() *MockPACClient {
	return &MockPACClient{}
}

func (m *MockPACClient) Stamp(ctx context.Context, signedXML []byte, env types.StampEnvironment) (*pac.StampResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastXML = signedXML
	m.lastEnv = env

	if len(m.script) > 0 {
		outcome := m.script[0]
		m.script = m.script[1:]
		return outcome.response, outcome.err
	}

	m.sequence++
	return &pac.StampResponse{
		UUID:        fmt.Sprintf("00000000-0000-0000-0000-%012d", m.sequence),
		StampedAt:   time.Now().UTC().Format(time.RFC3339),
		SatSeal:     "mock-sat-seal",
		EmitterSeal: "mock-emitter-seal",
		QRPayload:   "mock-qr",
	}, nil
}

// QueueSuccess scripts a successful stamp with the given UUID
func (m *MockPACClient) QueueSuccess(uuid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, stampOutcome{
		response: &pac.StampResponse{
			UUID:        uuid,
			StampedAt:   time.Now().UTC().Format(time.RFC3339),
			SatSeal:     "mock-sat-seal",
			EmitterSeal: "mock-emitter-seal",
			QRPayload:   "mock-qr",
		},
	})
}

// QueueNetworkError scripts a retryable transport failure
func (m *MockPACClient) QueueNetworkError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, stampOutcome{
		err: ierr.NewError("connection refused").
			Mark(ierr.ErrHTTPClient),
	})
}

// QueueRejection scripts a terminal authority rejection
func (m *MockPACClient) QueueRejection(code, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, stampOutcome{
		err: &pac.RejectionError{
			Detail: types.RejectionDetail{
				Code:    code,
				Message: message,
			},
		},
	})
}

// Calls returns how many stamp attempts the authority has seen
func (m *MockPACClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastEnvironment returns the environment of the last attempt
func (m *MockPACClient) LastEnvironment() types.StampEnvironment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEnv
}

// Reset clears the script and counters
func (m *MockPACClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = nil
	m.calls = 0
	m.lastXML = nil
	m.lastEnv = ""
	m.sequence = 0
}
