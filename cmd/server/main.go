package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Kirkidoo/ProductAudit/config"
	"github.com/Kirkidoo/ProductAudit/internal/audit"
	"github.com/Kirkidoo/ProductAudit/internal/handlers"
	"github.com/Kirkidoo/ProductAudit/internal/middleware"
	"github.com/Kirkidoo/ProductAudit/internal/shopify"
	"github.com/Kirkidoo/ProductAudit/internal/storage"
	"github.com/Kirkidoo/ProductAudit/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting product audit service")

	if cfg.Shopify.StoreName == "" || cfg.Shopify.AccessToken == "" {
		logger.Fatal().Msg("SHOPIFY_STORE_NAME and SHOPIFY_ACCESS_TOKEN must be set")
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromEnv())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	cache, err := storage.NewLocalStore(cfg.Cache.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Cache.BasePath).Msg("Failed to open snapshot cache")
	}

	client := shopify.NewClient(cfg.Shopify, cfg.RateLimit, *logger)
	metrics := audit.NewMetrics(prometheus.DefaultRegisterer)
	runner := audit.NewRunner(client, cache, shopify.NormalizeOptions{
		LocationGID:      cfg.Shopify.LocationGID,
		LocationLegacyID: cfg.Shopify.LocationLegacyID,
	}, *logger, metrics)
	applier := audit.NewApplier(client, *logger, metrics)
	h := handlers.New(runner, applier, client, *logger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupRequestLogging(router, logger)

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewIPRateLimiter(10, 20)
	go func() {
		for range time.Tick(5 * time.Minute) {
			limiter.Cleanup(10 * time.Minute)
		}
	}()

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuth(cfg.Server.InternalKey))
	internal.Use(middleware.RateLimit(limiter))
	{
		internal.GET("/health", h.HealthCheck)
		internal.GET("/shopify/verify", h.VerifyCredentials)

		auditGroup := internal.Group("/audit")
		{
			auditGroup.POST("/run", h.RunAudit)
			auditGroup.GET("/result", h.GetResult)
			auditGroup.GET("/export", h.ExportReport)
			auditGroup.POST("/fix", h.FixDiscrepancies)
			auditGroup.POST("/create", h.CreateProducts)
			auditGroup.DELETE("/items", h.RemoveItems)
			auditGroup.DELETE("/cache", h.InvalidateCache)
		}

		media := internal.Group("/media")
		{
			media.POST("/variant-images", h.ReassignVariantImages)
			media.POST("/delete", h.DeleteMedia)
			media.POST("/alt-text", h.UpdateAltText)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "product-audit").Logger()
	return &logger
}

func setupRequestLogging(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
