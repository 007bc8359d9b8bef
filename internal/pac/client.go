// Package pac talks to the external certification authority that stamps
// signed fiscal documents. It is a single-attempt transport: retry policy and
// idempotency live in the stamping service, not here.
package pac

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fiscalmx/cartaporte/internal/config"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/httpclient"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// Client submits signed XML to the authority and parses the outcome
type Client interface {
	// Stamp performs one submission attempt. Network-class failures are
	// marked ErrHTTPClient and may be retried by the caller; structured
	// authority rejections are returned as *RejectionError and are terminal.
	Stamp(ctx context.Context, signedXML []byte, env types.StampEnvironment) (*StampResponse, error)
}

// StampRequest is the authority wire request
type StampRequest struct {
	Document    string `json:"document"` // base64-encoded signed XML
	Environment string `json:"environment"`
}

// StampResponse is the authority wire response for a successful stamp
type StampResponse struct {
	UUID          string `json:"uuid"`
	StampedAt     string `json:"stamped_at"`
	SatSeal       string `json:"sat_seal"`
	EmitterSeal   string `json:"emitter_seal"`
	OriginalChain string `json:"original_chain"`
	QRPayload     string `json:"qr_payload"`
}

type rejectionBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RejectionError carries the authority's structured rejection. It is terminal
// and must never be retried automatically.
type RejectionError struct {
	Detail types.RejectionDetail
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("authority rejected document: %s: %s", e.Detail.Code, e.Detail.Message)
}

type defaultClient struct {
	http   httpclient.Client
	config *config.Configuration
	logger *logger.Logger
}

// NewClient creates an authority client using the configured endpoints
func NewClient(client httpclient.Client, cfg *config.Configuration, log *logger.Logger) Client {
	return &defaultClient{
		http:   client,
		config: cfg,
		logger: log,
	}
}

func (c *defaultClient) Stamp(ctx context.Context, signedXML []byte, env types.StampEnvironment) (*StampResponse, error) {
	baseURL := c.config.PAC.BaseURL(env)
	if baseURL == "" {
		return nil, ierr.NewError("no authority endpoint configured").
			WithHintf("No endpoint is configured for the %s environment", env).
			Mark(ierr.ErrValidation)
	}

	payload, err := json.Marshal(StampRequest{
		Document:    base64.StdEncoding.EncodeToString(signedXML),
		Environment: env.String(),
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The stamp request could not be encoded").
			Mark(ierr.ErrSystem)
	}

	resp, err := c.http.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    baseURL + "/stamp",
		Body:   payload,
	})
	if err != nil {
		// transport-level failure; the authority may or may not have seen
		// the request, so the caller may retry under the same hash
		return nil, err
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, ierr.NewError("authority returned a server error").
			WithHintf("The authority responded with status %d", resp.StatusCode).
			WithReportableDetails(map[string]any{
				"status": resp.StatusCode,
			}).
			Mark(ierr.ErrHTTPClient)

	case resp.StatusCode >= http.StatusBadRequest:
		var rejection rejectionBody
		if err := json.Unmarshal(resp.Body, &rejection); err != nil || rejection.Code == "" {
			rejection = rejectionBody{
				Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
				Message: string(resp.Body),
			}
		}
		c.logger.Warnw("authority rejected document",
			"code", rejection.Code,
			"environment", env)
		return nil, &RejectionError{
			Detail: types.RejectionDetail{
				Code:    rejection.Code,
				Message: rejection.Message,
			},
		}
	}

	var stamp StampResponse
	if err := json.Unmarshal(resp.Body, &stamp); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The authority response could not be decoded").
			Mark(ierr.ErrHTTPClient)
	}

	if stamp.UUID == "" {
		return nil, ierr.NewError("authority response missing UUID").
			WithHint("The authority returned success without a fiscal UUID").
			Mark(ierr.ErrHTTPClient)
	}

	return &stamp, nil
}
