package service

import (
	"context"
	"sync"
	"time"

	"github.com/fiscalmx/cartaporte/internal/domain/artifact"
	"github.com/fiscalmx/cartaporte/internal/domain/document"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/pac"
	"github.com/fiscalmx/cartaporte/internal/types"
)

// DocumentLifecycleService drives a transport document through the pipeline:
// draft, compiled, signed, stamped, with failed as the terminal error state.
// All transitions go through compare-and-swap status updates so concurrent
// callers cannot both advance the same document.
type DocumentLifecycleService interface {
	// CreateDocument registers a new draft document, assigning id and folio
	CreateDocument(ctx context.Context, doc *document.TransportDocument) (*document.TransportDocument, error)

	// GetDocument retrieves a document by id
	GetDocument(ctx context.Context, documentID string) (*document.TransportDocument, error)

	// CompileDocument compiles the document for the target schema version,
	// migrating it first when the stored version differs. Migration warnings
	// are returned alongside the compiled artifact.
	CompileDocument(ctx context.Context, documentID string, target types.SchemaVersion, allowDataLoss bool) (*artifact.CompiledDocument, []string, error)

	// SignDocument signs the latest compiled artifact with the given
	// certificate. The passphrase is used for this call only.
	SignDocument(ctx context.Context, documentID, certificateID, passphrase string) (*artifact.SignedDocument, error)

	// StampDocument submits the latest signed artifact to the authority
	StampDocument(ctx context.Context, documentID string, env types.StampEnvironment) (*artifact.StampResult, error)

	// ResumeStamping resubmits a signed document whose earlier submission ran
	// out of retry budget. Only documents still in the signed state qualify;
	// a failed document was rejected and needs correction first.
	ResumeStamping(ctx context.Context, documentID string, env types.StampEnvironment) (*artifact.StampResult, error)

	// GetStatus returns the pipeline status projection for a document
	GetStatus(ctx context.Context, documentID string) (*DocumentStatusView, error)
}

// DocumentStatusView is the read model returned by GetStatus
type DocumentStatusView struct {
	DocumentID    string                 `json:"document_id"`
	Folio         string                 `json:"folio"`
	Status        types.DocumentStatus   `json:"status"`
	SchemaVersion types.SchemaVersion    `json:"schema_version"`
	Score         *int                   `json:"score,omitempty"`
	Signable      *bool                  `json:"signable,omitempty"`
	Findings      []types.Finding        `json:"findings,omitempty"`
	SignedAt      *time.Time             `json:"signed_at,omitempty"`
	StampUUID     string                 `json:"stamp_uuid,omitempty"`
	StampedAt     *time.Time             `json:"stamped_at,omitempty"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	LastRejection *types.RejectionDetail `json:"last_rejection,omitempty"`
}

type lifecycleService struct {
	ServiceParams

	migration MigrationService
	compiler  CompilerService
	signer    SignerService
	stamping  StampingService

	// per-document locks serializing pipeline operations
	locks sync.Map
}

func NewDocumentLifecycleService(
	params ServiceParams,
	migration MigrationService,
	compiler CompilerService,
	signer SignerService,
	stamping StampingService,
) DocumentLifecycleService {
	return &lifecycleService{
		ServiceParams: params,
		migration:     migration,
		compiler:      compiler,
		signer:        signer,
		stamping:      stamping,
	}
}

func (l *lifecycleService) lock(documentID string) func() {
	mu, _ := l.locks.LoadOrStore(documentID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

func (l *lifecycleService) CreateDocument(ctx context.Context, doc *document.TransportDocument) (*document.TransportDocument, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	doc.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSPORT_DOCUMENT)
	if doc.Folio == "" {
		doc.Folio = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_FOLIO)
	}
	doc.DocumentStatus = types.DocumentStatusDraft
	doc.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := l.DocumentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	l.Logger.Infow("created transport document",
		"document_id", doc.ID,
		"folio", doc.Folio,
		"schema_version", doc.SchemaVersion)

	return doc, nil
}

func (l *lifecycleService) GetDocument(ctx context.Context, documentID string) (*document.TransportDocument, error) {
	return l.DocumentRepo.Get(ctx, documentID)
}

func (l *lifecycleService) CompileDocument(ctx context.Context, documentID string, target types.SchemaVersion, allowDataLoss bool) (*artifact.CompiledDocument, []string, error) {
	unlock := l.lock(documentID)
	defer unlock()

	doc, err := l.DocumentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	if doc.DocumentStatus == types.DocumentStatusStamped {
		return nil, nil, ierr.NewError("document is already stamped").
			WithHint("A stamped document is immutable").
			Mark(ierr.ErrInvalidOperation)
	}

	if target == "" {
		target = doc.SchemaVersion
	}

	var warnings []string
	if doc.SchemaVersion != target {
		migrated, migrationWarnings, err := l.migration.Migrate(ctx, doc, target, allowDataLoss)
		if err != nil {
			return nil, migrationWarnings, err
		}
		warnings = migrationWarnings

		migrated.UpdatedAt = time.Now().UTC()
		migrated.UpdatedBy = types.GetUserID(ctx)
		if err := l.DocumentRepo.Update(ctx, migrated); err != nil {
			return nil, warnings, err
		}
		doc = migrated
	}

	compiled, err := l.compiler.Compile(ctx, doc, target)
	if err != nil {
		return nil, warnings, err
	}
	if err := l.ArtifactRepo.SaveCompiled(ctx, compiled); err != nil {
		return nil, warnings, err
	}

	// compiling from any pre-stamp state lands on compiled; a prior signature
	// or failure is superseded by the fresh artifact
	if doc.DocumentStatus != types.DocumentStatusCompiled {
		if err := l.DocumentRepo.UpdateStatus(ctx, documentID, doc.DocumentStatus, types.DocumentStatusCompiled); err != nil {
			return nil, warnings, err
		}
	}
	if doc.FailureReason != nil || doc.LastRejection != nil {
		// re-read after the status swap so the stored version counter is
		// carried forward, not overwritten with the stale copy
		fresh, err := l.DocumentRepo.Get(ctx, documentID)
		if err != nil {
			return nil, warnings, err
		}
		fresh.FailureReason = nil
		fresh.LastRejection = nil
		if err := l.DocumentRepo.Update(ctx, fresh); err != nil {
			return nil, warnings, err
		}
	}

	return compiled, warnings, nil
}

func (l *lifecycleService) SignDocument(ctx context.Context, documentID, certificateID, passphrase string) (*artifact.SignedDocument, error) {
	unlock := l.lock(documentID)
	defer unlock()

	doc, err := l.DocumentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.DocumentStatus != types.DocumentStatusCompiled {
		return nil, ierr.NewError("document is not in the compiled state").
			WithHintf("Documents can only be signed from the compiled state, current state is %s", doc.DocumentStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	compiled, err := l.ArtifactRepo.GetLatestCompiled(ctx, documentID)
	if err != nil {
		return nil, err
	}

	cert, err := l.CertificateRepo.Get(ctx, certificateID)
	if err != nil {
		return nil, err
	}

	signed, err := l.signer.Sign(ctx, compiled, cert, passphrase)
	if err != nil {
		return nil, err
	}

	if err := l.ArtifactRepo.SaveSigned(ctx, signed); err != nil {
		return nil, err
	}
	if err := l.DocumentRepo.UpdateStatus(ctx, documentID, types.DocumentStatusCompiled, types.DocumentStatusSigned); err != nil {
		return nil, err
	}

	return signed, nil
}

func (l *lifecycleService) StampDocument(ctx context.Context, documentID string, env types.StampEnvironment) (*artifact.StampResult, error) {
	unlock := l.lock(documentID)
	defer unlock()

	return l.stampLocked(ctx, documentID, env)
}

func (l *lifecycleService) ResumeStamping(ctx context.Context, documentID string, env types.StampEnvironment) (*artifact.StampResult, error) {
	unlock := l.lock(documentID)
	defer unlock()

	doc, err := l.DocumentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.DocumentStatus == types.DocumentStatusFailed {
		return nil, ierr.NewError("document was rejected by the authority").
			WithHint("A failed document needs correction and recompilation before stamping again").
			Mark(ierr.ErrInvalidOperation)
	}
	if doc.DocumentStatus != types.DocumentStatusSigned {
		return nil, ierr.NewError("document has no pending submission").
			WithHintf("Only signed documents can resume stamping, current state is %s", doc.DocumentStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	return l.stampLocked(ctx, documentID, env)
}

// stampLocked runs the submission while the caller holds the document lock
func (l *lifecycleService) stampLocked(ctx context.Context, documentID string, env types.StampEnvironment) (*artifact.StampResult, error) {
	doc, err := l.DocumentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if doc.DocumentStatus != types.DocumentStatusSigned {
		return nil, ierr.NewError("document is not in the signed state").
			WithHintf("Documents can only be stamped from the signed state, current state is %s", doc.DocumentStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	signed, err := l.ArtifactRepo.GetLatestSigned(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result, err := l.stamping.Stamp(ctx, doc, signed, env)
	if err != nil {
		if ierr.IsAuthorityRejected(err) {
			l.recordRejection(ctx, doc, err)
		}
		// retry exhaustion and pre-flight refusals keep the signed state
		return nil, err
	}

	if err := l.DocumentRepo.UpdateStatus(ctx, documentID, types.DocumentStatusSigned, types.DocumentStatusStamped); err != nil {
		return nil, err
	}

	return result, nil
}

// recordRejection moves the document to failed and persists the authority's
// rejection detail for later inspection
func (l *lifecycleService) recordRejection(ctx context.Context, doc *document.TransportDocument, cause error) {
	detail := rejectionDetail(cause)
	reason := detail.Message

	if err := l.DocumentRepo.UpdateStatus(ctx, doc.ID, types.DocumentStatusSigned, types.DocumentStatusFailed); err != nil {
		l.Logger.Errorw("failed to mark document as failed",
			"document_id", doc.ID,
			"error", err)
		return
	}

	// re-read after the status swap so the failure fields land on the
	// post-transition version counter
	fresh, err := l.DocumentRepo.Get(ctx, doc.ID)
	if err != nil {
		l.Logger.Errorw("failed to reload document after rejection",
			"document_id", doc.ID,
			"error", err)
		return
	}
	fresh.FailureReason = &reason
	fresh.LastRejection = &detail
	fresh.UpdatedAt = time.Now().UTC()
	if err := l.DocumentRepo.Update(ctx, fresh); err != nil {
		l.Logger.Errorw("failed to persist rejection detail",
			"document_id", doc.ID,
			"error", err)
	}

	l.Logger.Warnw("authority rejected document",
		"document_id", doc.ID,
		"code", detail.Code,
		"message", detail.Message)
}

// rejectionDetail extracts the authority's code and message from the error
// chain, falling back to the rendered error when the typed detail is absent
func rejectionDetail(err error) types.RejectionDetail {
	rejection := &pac.RejectionError{}
	if ierr.As(err, &rejection) {
		return rejection.Detail
	}
	return types.RejectionDetail{
		Code:    ierr.ErrCodeAuthorityRejected,
		Message: err.Error(),
	}
}

func (l *lifecycleService) GetStatus(ctx context.Context, documentID string) (*DocumentStatusView, error) {
	doc, err := l.DocumentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	view := &DocumentStatusView{
		DocumentID:    doc.ID,
		Folio:         doc.Folio,
		Status:        doc.DocumentStatus,
		SchemaVersion: doc.SchemaVersion,
		FailureReason: doc.FailureReason,
		LastRejection: doc.LastRejection,
	}

	if compiled, err := l.ArtifactRepo.GetLatestCompiled(ctx, documentID); err == nil && compiled != nil {
		view.Score = &compiled.Score
		view.Signable = &compiled.Signable
		view.Findings = compiled.Findings
	}
	if signed, err := l.ArtifactRepo.GetLatestSigned(ctx, documentID); err == nil && signed != nil {
		signedAt := signed.SignedAt
		view.SignedAt = &signedAt
	}
	if stamp, err := l.ArtifactRepo.GetStampByDocument(ctx, documentID); err == nil && stamp != nil {
		view.StampUUID = stamp.UUID
		stampedAt := stamp.StampedAt
		view.StampedAt = &stampedAt
	}

	return view, nil
}
