package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/facturante/facturante/internal/app"
	"github.com/facturante/facturante/internal/auth"
	"github.com/facturante/facturante/internal/folio"
	"github.com/facturante/facturante/internal/integration"
	"github.com/facturante/facturante/internal/invoice"
	"github.com/facturante/facturante/internal/masterdata"
	"github.com/facturante/facturante/internal/masterdata/clients"
	"github.com/facturante/facturante/internal/masterdata/products"
	"github.com/facturante/facturante/internal/masterdata/sellers"
	"github.com/facturante/facturante/internal/masterdata/terms"
	"github.com/facturante/facturante/internal/observability"
	"github.com/facturante/facturante/internal/payment"
	"github.com/facturante/facturante/internal/platform/cache"
	"github.com/facturante/facturante/internal/platform/db"
	"github.com/facturante/facturante/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summary cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	clientsRepo := clients.NewRepository(pool)
	sellersRepo := sellers.NewRepository(pool)
	productsRepo := products.NewRepository(pool)
	termsRepo := terms.NewRepository(pool)
	catalog := masterdata.NewCatalog(clientsRepo, sellersRepo, productsRepo, termsRepo)

	clientsHandler := clients.NewHandler(logger, clients.NewService(clientsRepo))
	sellersHandler := sellers.NewHandler(logger, sellers.NewService(sellersRepo))
	productsHandler := products.NewHandler(logger, products.NewService(productsRepo))
	termsHandler := terms.NewHandler(logger, terms.NewService(termsRepo))

	folioRepo := folio.NewRepository(pool)
	folioService := folio.NewService(folioRepo, logger, cfg.DefaultFolioSeries)
	folioHandler := folio.NewHandler(logger, folioService)

	paymentRepo := payment.NewRepository(pool)
	paymentService := payment.NewService(paymentRepo, catalog, logger, redisClient, cfg.SummaryCacheTTL)
	paymentHandler := payment.NewHandler(logger, paymentService)

	hooks := integration.NewHooks(paymentService)

	invoiceRepo := invoice.NewRepository(pool)
	invoiceService := invoice.NewService(invoiceRepo, folioRepo, catalog, hooks, logger, invoice.ServiceConfig{
		DefaultSeries: cfg.DefaultFolioSeries,
	})
	invoiceHandler := invoice.NewHandler(logger, invoiceService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthMiddleware:  authMiddleware,
		AuthHandler:     authHandler,
		FolioHandler:    folioHandler,
		InvoiceHandler:  invoiceHandler,
		PaymentHandler:  paymentHandler,
		ClientsHandler:  clientsHandler,
		SellersHandler:  sellersHandler,
		ProductsHandler: productsHandler,
		TermsHandler:    termsHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
