package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrops-br/products-api/internal/app/service"
	"github.com/mrops-br/products-api/internal/infrastructure/config"
	"github.com/mrops-br/products-api/internal/infrastructure/http"
	"github.com/mrops-br/products-api/internal/infrastructure/http/docs"
	"github.com/mrops-br/products-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-api/internal/infrastructure/telemetry"
)

const instrumentationName = "github.com/mrops-br/products-api"

// @title			Products Backend API
// @version		1.0.0
// @description	CRUD API over an in-memory product catalogue.
// @BasePath		/
// @tag.name		Health
// @tag.description	Liveness and service information
// @tag.name		Products
// @tag.description	Product catalogue CRUD
func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = ".env"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	docs.SwaggerInfo.Version = cfg.App.Version

	logger := telemetry.NewLogger(os.Stdout, cfg.App.LogLevel, &cfg.OTLP)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	telem, err := telemetry.NewTelemetry(ctx, &cfg.OTLP, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tracer := telem.TracerProvider.Tracer(instrumentationName)
	meter := telem.MeterProvider.Meter(instrumentationName)

	logger.Info("Starting Products API",
		slog.String("service", cfg.App.Name),
		slog.String("version", cfg.App.Version),
	)

	// One repository for the whole process; state must outlive a single request.
	repo := memory.NewProductRepository(tracer, logger)
	productService := service.NewProductService(repo, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, cfg.App, logger)

	server := http.NewServer(cfg, productHandler, telem, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", slog.String("error", err.Error()))
	}
	if err := telem.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down telemetry", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}
