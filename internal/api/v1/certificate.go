package v1

import (
	"net/http"
	"time"

	"github.com/fiscalmx/cartaporte/internal/api/dto"
	"github.com/fiscalmx/cartaporte/internal/domain/certificate"
	ierr "github.com/fiscalmx/cartaporte/internal/errors"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/service"
	"github.com/gin-gonic/gin"
)

type CertificateHandler struct {
	service service.CertificateService
	log     *logger.Logger
}

func NewCertificateHandler(service service.CertificateService, log *logger.Logger) *CertificateHandler {
	return &CertificateHandler{service: service, log: log}
}

func (h *CertificateHandler) ImportCertificate(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.ImportCertificateRequest
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

	var record *certificate.Certificate
	var err error
	if req.IsBundle() {
		var bundle []byte
		if bundle, err = req.DecodeBundle(); err == nil {
			record, err = h.service.ImportPKCS12(ctx, bundle, req.Passphrase)
		}
	} else {
		var cer, key []byte
		if cer, key, err = req.DecodePair(); err == nil {
			record, err = h.service.ImportCertificate(ctx, cer, key, req.Passphrase)
		}
	}
	if err != nil {
		h.log.Error("Failed to import certificate", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCertificateResponse(record, nil))
}

func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	ctx := c.Request.Context()

	certs, err := h.service.List(ctx)
	if err != nil {
		h.log.Error("Failed to list certificates", "error", err)
		c.Error(err)
		return
	}

	response := make([]*dto.CertificateResponse, 0, len(certs))
	for _, cert := range certs {
		response = append(response, dto.ToCertificateResponse(cert, nil))
	}
	c.JSON(http.StatusOK, response)
}

func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	cert, err := h.service.Get(ctx, id)
	if err != nil {
		h.log.Error("Failed to get certificate", "certificate_id", id, "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCertificateResponse(cert, nil))
}

func (h *CertificateHandler) ReplaceFiles(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req dto.ReplaceCertificateRequest
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

	cer, key, err := req.DecodePair()
	if err != nil {
		c.Error(err)
		return
	}

	record, warnings, err := h.service.ReplaceFiles(ctx, id, cer, key, req.Passphrase, req.DeclaredRFC)
	if err != nil {
		h.log.Error("Failed to replace certificate files", "certificate_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCertificateResponse(record, warnings))
}

func (h *CertificateHandler) ActivateCertificate(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if err := h.service.Activate(ctx, id); err != nil {
		h.log.Error("Failed to activate certificate", "certificate_id", id, "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Certificate activated successfully"})
}

func (h *CertificateHandler) GetExpiry(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	cert, err := h.service.Get(ctx, id)
	if err != nil {
		h.log.Error("Failed to get certificate", "certificate_id", id, "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCertificateExpiryResponse(cert, time.Now().UTC()))
}
