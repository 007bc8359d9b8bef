package v1

import (
	"net/http"

	"github.com/fiscalmx/cartaporte/internal/api/dto"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/service"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	service service.DocumentLifecycleService
	log     *logger.Logger
}

func NewDocumentHandler(service service.DocumentLifecycleService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, log: log}
}

func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	doc, err := h.service.CreateDocument(ctx, req.ToDocument())
	if err != nil {
		h.log.Error("Failed to create document", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	doc, err := h.service.GetDocument(ctx, id)
	if err != nil {
		h.log.Error("Failed to get document", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDocumentResponse(doc))
}

func (h *DocumentHandler) CompileDocument(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.CompileDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	compiled, warnings, err := h.service.CompileDocument(ctx, id, req.TargetVersion, req.AllowDataLoss)
	if err != nil {
		h.log.Error("Failed to compile document", "document_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompileDocumentResponse(compiled, warnings))
}

func (h *DocumentHandler) SignDocument(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.SignDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	signed, err := h.service.SignDocument(ctx, id, req.CertificateID, req.Passphrase)
	if err != nil {
		h.log.Error("Failed to sign document", "document_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSignDocumentResponse(signed))
}

func (h *DocumentHandler) StampDocument(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.StampDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	result, err := h.service.StampDocument(ctx, id, req.Environment)
	if err != nil {
		h.log.Error("Failed to stamp document", "document_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStampDocumentResponse(result))
}

func (h *DocumentHandler) ResumeStamping(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.StampDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	result, err := h.service.ResumeStamping(ctx, id, req.Environment)
	if err != nil {
		h.log.Error("Failed to resume stamping", "document_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStampDocumentResponse(result))
}

func (h *DocumentHandler) GetStatus(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	view, err := h.service.GetStatus(ctx, id)
	if err != nil {
		h.log.Error("Failed to get document status", "document_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}
