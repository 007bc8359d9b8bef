package main

import (
	"context"
	"net/http"
	"time"

	"github.com/fiscalmx/cartaporte/internal/api"
	v1 "github.com/fiscalmx/cartaporte/internal/api/v1"
	"github.com/fiscalmx/cartaporte/internal/cache"
	"github.com/fiscalmx/cartaporte/internal/config"
	"github.com/fiscalmx/cartaporte/internal/httpclient"
	"github.com/fiscalmx/cartaporte/internal/logger"
	"github.com/fiscalmx/cartaporte/internal/pac"
	"github.com/fiscalmx/cartaporte/internal/repository"
	"github.com/fiscalmx/cartaporte/internal/service"
	"github.com/fiscalmx/cartaporte/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// HTTP client and authority transport
			provideHTTPClient,
			pac.NewClient,

			// Repositories
			repository.NewDocumentRepository,
			repository.NewCertificateRepository,
			repository.NewArtifactRepository,

			// Service layer
			service.NewServiceParams,
			service.NewMigrationService,
			service.NewCompilerService,
			service.NewSignerService,
			service.NewStampingService,
			service.NewDocumentLifecycleService,
			service.NewCertificateService,

			// API
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			initValidator,
			startServer,
		),
	)
	app.Run()
}

func initValidator() {
	validator.NewValidator()
}

func provideHTTPClient(cfg *config.Configuration) httpclient.Client {
	return httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout: cfg.PAC.RequestTimeout,
	})
}

func provideHandlers(
	logger *logger.Logger,
	lifecycleService service.DocumentLifecycleService,
	certificateService service.CertificateService,
) api.Handlers {
	return api.Handlers{
		Health:      v1.NewHealthHandler(logger),
		Document:    v1.NewDocumentHandler(lifecycleService, logger),
		Certificate: v1.NewCertificateHandler(certificateService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server",
				"address", cfg.Server.Address,
				"pac_environment", cfg.PAC.Environment)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
