package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fiscalmx/cartaporte/internal/cache"
	"github.com/fiscalmx/cartaporte/internal/cfdi"
	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/idempotency"
	"github.com/fiscalmx/cartaporte/internal/pac"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// StampingService submits signed documents to the certification authority.
// It is the single point of network suspension in the pipeline and owns the
// stamp-once guarantee: the same signed bytes can never produce two authority
// calls that both count.
type StampingService interface {
	Stamp(ctx context.Context, doc *document.TransportDocument, signed *artifact.SignedDocument, env types.StampEnvironment) (*artifact.StampResult, error)
}

type stampingService struct {
	ServiceParams
}

func NewStampingService(params ServiceParams) StampingService {
	return &stampingService{
		ServiceParams: params,
	}
}

func (s *stampingService) Stamp(ctx context.Context, doc *document.TransportDocument, signed *artifact.SignedDocument, env types.StampEnvironment) (*artifact.StampResult, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	// a sandbox fixture RFC must never reach the binding endpoint
	if env == types.StampEnvironmentProduction && pac.IsSandboxRFC(doc.EmitterRFC) {
		return nil, ierr.NewError("sandbox test RFC submitted to production").
			WithHintf("Emitter RFC %s is a sandbox fixture and cannot be stamped in production", doc.EmitterRFC).
			WithReportableDetails(map[string]any{
				"emitter_rfc": doc.EmitterRFC,
				"environment": env,
			}).
			Mark(ierr.ErrValidation)
	}

	hash := signed.IdempotencyHash
	if hash == "" {
		hash = s.IdempotencyGen.GenerateContentKey(idempotency.ScopeStamp, signed.XML)
	}

	if cached, ok := s.lookupStamp(ctx, hash); ok {
		s.Logger.Infow("stamp already recorded, returning cached result",
			"document_id", doc.ID,
			"uuid", cached.UUID,
			"idempotency_hash", hash)
		return cached, nil
	}

	response, err := s.submitWithRetry(ctx, signed, env)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(ctx, doc, signed, response, hash)

	if err := s.ArtifactRepo.SaveStamp(ctx, result); err != nil {
		// the stamp happened; losing the record would break the stamp-once
		// guarantee, so surface the persistence failure loudly
		s.Logger.Errorw("failed to persist stamp result",
			"document_id", doc.ID,
			"uuid", result.UUID,
			"error", err)
		return nil, err
	}
	s.Cache.Set(ctx, cache.GenerateKey(cache.PrefixStampResult, hash), result, 0)

	s.Logger.Infow("stamped document",
		"document_id", doc.ID,
		"uuid", result.UUID,
		"environment", env)

	return result, nil
}

// lookupStamp checks the in-process cache, then the persistent record
func (s *stampingService) lookupStamp(ctx context.Context, hash string) (*artifact.StampResult, bool) {
	if value, ok := s.Cache.Get(ctx, cache.GenerateKey(cache.PrefixStampResult, hash)); ok {
		if result, ok := value.(*artifact.StampResult); ok {
			return result, true
		}
	}

	result, err := s.ArtifactRepo.GetStampByHash(ctx, hash)
	if err != nil || result == nil {
		return nil, false
	}
	s.Cache.Set(ctx, cache.GenerateKey(cache.PrefixStampResult, hash), result, 0)
	return result, true
}

func (s *stampingService) submitWithRetry(ctx context.Context, signed *artifact.SignedDocument, env types.StampEnvironment) (*pac.StampResponse, error) {
	cfg := s.Config.PAC

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialBackoff
	policy.MaxInterval = cfg.MaxBackoff
	policy.MaxElapsedTime = cfg.MaxElapsedTime

	attempts := uint64(0)
	if cfg.MaxAttempts > 1 {
		attempts = uint64(cfg.MaxAttempts - 1)
	}

	var response *pac.StampResponse
	operation := func() error {
		// cancellation is honored up to the moment a request goes out; a
		// canceled caller must never trigger a binding authority call
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		// once a request is in flight its outcome must be awaited, so the
		// attempt gets its own timeout detached from caller cancellation
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.RequestTimeout)
		defer cancel()

		resp, err := s.PACClient.Stamp(attemptCtx, signed.XML, env)
		if err != nil {
			rejection := &pac.RejectionError{}
			if ierr.As(err, &rejection) {
				// authority rejections are terminal, never retried
				return backoff.Permanent(err)
			}
			return err
		}
		response = resp
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.Logger.Warnw("stamp attempt failed, backing off",
			"document_id", signed.DocumentID,
			"wait", wait,
			"error", err)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, attempts), ctx), notify)
	if err == nil {
		return response, nil
	}

	rejection := &pac.RejectionError{}
	if ierr.As(err, &rejection) {
		return nil, ierr.WithError(err).
			WithHintf("The authority rejected the document: %s", rejection.Detail.Message).
			WithReportableDetails(map[string]any{
				"code":    rejection.Detail.Code,
				"message": rejection.Detail.Message,
			}).
			Mark(ierr.ErrAuthorityRejected)
	}

	// a canceled caller gets the context error back unwrapped; nothing was
	// submitted and the document keeps its signed state
	if ctx.Err() != nil {
		return nil, err
	}

	// the retry budget ran out on network-class failures; the document keeps
	// its signed state and the submission may be resumed later
	return nil, ierr.WithError(err).
		WithHint("The authority could not be reached; try again later").
		Mark(ierr.ErrRetryExhausted)
}

func (s *stampingService) buildResult(ctx context.Context, doc *document.TransportDocument, signed *artifact.SignedDocument, response *pac.StampResponse, hash string) *artifact.StampResult {
	stampedAt, err := time.Parse(time.RFC3339, response.StampedAt)
	if err != nil {
		if stampedAt, err = time.Parse(cfdi.DateLayout, response.StampedAt); err != nil {
			stampedAt = time.Now().UTC()
		}
	}

	qr := response.QRPayload
	if qr == "" {
		qr = fmt.Sprintf(
			"https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx?id=%s&re=%s&rr=%s",
			response.UUID, doc.EmitterRFC, doc.ReceiverRFC)
	}

	return &artifact.StampResult{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STAMP_RESULT),
		DocumentID:      doc.ID,
		UUID:            response.UUID,
		StampedAt:       stampedAt.UTC(),
		SatSeal:         response.SatSeal,
		EmitterSeal:     response.EmitterSeal,
		OriginalChain:   response.OriginalChain,
		QRPayload:       qr,
		IdempotencyHash: hash,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}
