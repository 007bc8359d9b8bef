package api

import (
	v1 "github.com/fiscalmx/cartaporte/internal/api/v1"
	"github.com/fiscalmx/cartaporte/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health      *v1.HealthHandler
	Document    *v1.DocumentHandler
	Certificate *v1.CertificateHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Document pipeline routes
	documents := router.Group("/documents")
	{
		documents.POST("", handlers.Document.CreateDocument)
		documents.GET("/:id", handlers.Document.GetDocument)
		documents.GET("/:id/status", handlers.Document.GetStatus)
		documents.POST("/:id/compile", handlers.Document.CompileDocument)
		documents.POST("/:id/sign", handlers.Document.SignDocument)
		documents.POST("/:id/stamp", handlers.Document.StampDocument)
		documents.POST("/:id/resume", handlers.Document.ResumeStamping)
	}

	// Certificate routes
	certificates := router.Group("/certificates")
	{
		certificates.POST("", handlers.Certificate.ImportCertificate)
		certificates.GET("", handlers.Certificate.ListCertificates)
		certificates.GET("/:id", handlers.Certificate.GetCertificate)
		certificates.GET("/:id/expiry", handlers.Certificate.GetExpiry)
		certificates.PUT("/:id/files", handlers.Certificate.ReplaceFiles)
		certificates.POST("/:id/activate", handlers.Certificate.ActivateCertificate)
	}
}
