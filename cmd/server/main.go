package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pokefinder/backend/config"
	httpDelivery "github.com/pokefinder/backend/internal/delivery/http"
	"github.com/pokefinder/backend/internal/infrastructure/logger"
	"github.com/pokefinder/backend/internal/infrastructure/pokeapi"
	"github.com/pokefinder/backend/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "pokefinder-backend"

func main() {
	// A missing .env is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting Pokefinder Backend v1.0.0",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.BaseURL),
		zap.String("language", cfg.Catalog.Language),
		zap.Duration("session_ttl", cfg.Session.TTL),
	)

	shutdownTracing := setupTracing(cfg.Tracing, zapLogger)
	defer shutdownTracing()

	// Initialize infrastructure dependencies
	catalog := pokeapi.NewClient(pokeapi.ClientConfig{
		BaseURL:           cfg.Catalog.BaseURL,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerMinute: cfg.RateLimit.Catalog,
	}, zapLogger)

	// Initialize usecase layer
	lookupService := usecase.NewLookupService(
		catalog,
		usecase.LookupServiceConfig{Language: cfg.Catalog.Language},
		zapLogger,
	)

	sessions := httpDelivery.NewSessionRegistry(cfg.Session.TTL)
	defer sessions.Close()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(lookupService, sessions, cfg.Server.AllowedOrigins, zapLogger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, zapLogger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zapLogger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}

// setupTracing installs a global tracer provider when tracing is enabled and returns its shutdown func
func setupTracing(cfg config.TracingConfig, zapLogger *zap.Logger) func() {
	if !cfg.Enabled {
		return func() {}
	}

	res, err := resource.Merge(resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)))
	if err != nil {
		zapLogger.Warn("Failed to build tracing resource", zap.Error(err))
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	zapLogger.Info("Tracing enabled", zap.Float64("sample_ratio", cfg.SampleRatio))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			zapLogger.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}
}
