package pac

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/fiscalmx/cartaporte/internal/config"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/httpclient"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHTTPClient struct {
	response *httpclient.Response
	err      error
	lastReq  *httpclient.Request
}

func (s *stubHTTPClient) Send(_ context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func newTestClient(stub *stubHTTPClient) Client {
	return NewClient(stub, config.GetDefaultConfig(), logger.GetLogger())
}

func TestStampDecodesSuccessResponse(t *testing.T) {
	body, err := json.Marshal(StampResponse{
		UUID:      "5FB2822E-396D-4725-8521-CDC07BDD1B87",
		StampedAt: "2026-01-02T15:04:05",
		SatSeal:   "c2F0",
	})
	require.NoError(t, err)
	stub := &stubHTTPClient{response: &httpclient.Response{StatusCode: 200, Body: body}}

	signed := []byte(`<cfdi:Comprobante Sello="abc"/>`)
	resp, err := newTestClient(stub).Stamp(context.Background(), signed, types.StampEnvironmentSandbox)
	require.NoError(t, err)
	assert.Equal(t, "5FB2822E-396D-4725-8521-CDC07BDD1B87", resp.UUID)

	assert.Equal(t, "http://localhost:8400/stamp", stub.lastReq.URL)
	var sent StampRequest
	require.NoError(t, json.Unmarshal(stub.lastReq.Body, &sent))
	assert.Equal(t, base64.StdEncoding.EncodeToString(signed), sent.Document)
	assert.Equal(t, "sandbox", sent.Environment)
}

func TestStampParsesStructuredRejection(t *testing.T) {
	stub := &stubHTTPClient{response: &httpclient.Response{
		StatusCode: 422,
		Body:       []byte(`{"code":"CFDI40161","message":"RFC del emisor no existe"}`),
	}}

	_, err := newTestClient(stub).Stamp(context.Background(), []byte("<x/>"), types.StampEnvironmentSandbox)
	var rejection *RejectionError
	require.True(t, ierr.As(err, &rejection))
	assert.Equal(t, "CFDI40161", rejection.Detail.Code)
	assert.Equal(t, "RFC del emisor no existe", rejection.Detail.Message)
}

func TestStampFallsBackToStatusCodeOnOpaqueRejection(t *testing.T) {
	stub := &stubHTTPClient{response: &httpclient.Response{
		StatusCode: 400,
		Body:       []byte("bad request"),
	}}

	_, err := newTestClient(stub).Stamp(context.Background(), []byte("<x/>"), types.StampEnvironmentSandbox)
	var rejection *RejectionError
	require.True(t, ierr.As(err, &rejection))
	assert.Equal(t, "HTTP_400", rejection.Detail.Code)
	assert.Equal(t, "bad request", rejection.Detail.Message)
}

func TestStampServerErrorIsRetryable(t *testing.T) {
	stub := &stubHTTPClient{response: &httpclient.Response{StatusCode: 503}}

	_, err := newTestClient(stub).Stamp(context.Background(), []byte("<x/>"), types.StampEnvironmentSandbox)
	assert.True(t, ierr.IsHTTPClient(err))
	var rejection *RejectionError
	assert.False(t, ierr.As(err, &rejection))
}

func TestStampSuccessWithoutUUIDIsRetryable(t *testing.T) {
	stub := &stubHTTPClient{response: &httpclient.Response{StatusCode: 200, Body: []byte(`{}`)}}

	_, err := newTestClient(stub).Stamp(context.Background(), []byte("<x/>"), types.StampEnvironmentSandbox)
	assert.True(t, ierr.IsHTTPClient(err))
}

func TestStampRequiresConfiguredEndpoint(t *testing.T) {
	stub := &stubHTTPClient{}

	// the default configuration has no production endpoint
	_, err := newTestClient(stub).Stamp(context.Background(), []byte("<x/>"), types.StampEnvironmentProduction)
	assert.True(t, ierr.IsValidation(err))
	assert.Nil(t, stub.lastReq)
}

func TestIsSandboxRFC(t *testing.T) {
	assert.True(t, IsSandboxRFC("EKU9003173C9"))
	assert.True(t, IsSandboxRFC("XAXX010101000"))
	assert.False(t, IsSandboxRFC("GHI100924HA3"))
}
