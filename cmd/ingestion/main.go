package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/jafarkuku/preqin-task/config"
	"github.com/jafarkuku/preqin-task/pkg/clients"
	"github.com/jafarkuku/preqin-task/pkg/httpclient"
	"github.com/jafarkuku/preqin-task/pkg/ingest"
	"github.com/jafarkuku/preqin-task/pkg/logging"
	"github.com/jafarkuku/preqin-task/pkg/middleware"
	"github.com/jafarkuku/preqin-task/pkg/redis"
	"github.com/jafarkuku/preqin-task/pkg/routes/health"
	ingestionroutes "github.com/jafarkuku/preqin-task/pkg/routes/ingestion"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

const serviceName = "ingestion-api"

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New()

	if cfg.TracingEnabled {
		shutdown, err := tracing.InitProvider(ctx, serviceName, tracing.ProviderConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  cfg.TracingTimeout,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TracingTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("failed to shut down tracer provider")
			}
		}()
	}

	redisClient, err := connectRedis(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	locker := redis.NewLocker(redisClient, "")

	httpClient := httpclient.NewClient(httpclient.Config{
		Timeout:         cfg.HTTPClientTimeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}, logger)

	assetClassClient := clients.NewAssetClassClient(httpClient, cfg.AssetClassServiceURL, logger)
	investorClient := clients.NewInvestorClient(httpClient, cfg.InvestorServiceURL, logger)
	commitmentClient := clients.NewCommitmentClient(httpClient, cfg.CommitmentServiceURL, logger)

	parser := ingest.NewParser(logger)
	resolver := ingest.NewResolver(assetClassClient, investorClient, logger, cfg.ResolverConcurrency)
	processor := ingest.NewProcessor(parser, resolver, commitmentClient, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Fatal("failed to create DI container")
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		logger.WithError(err).Fatal("failed to register logger")
	}
	if err := ectoinject.RegisterInstance[*ingest.Processor](container, processor); err != nil {
		logger.WithError(err).Fatal("failed to register processor")
	}
	if err := ectoinject.RegisterInstance[*redis.Locker](container, locker); err != nil {
		logger.WithError(err).Fatal("failed to register locker")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker := health.NewChecker(nil, redisClient, cfg.AppName)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ingestionroutes.Register(e.Group("/api/v1/ingestion"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Infof("%s listening", serviceName)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()
	checker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	checker.SetReady(false)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down server gracefully")
	}
}

func connectRedis(cfg *config.Config, logger ectologger.Logger) (*redis.Client, error) {
	var client *redis.Client
	var err error
	for attempt := 1; attempt <= cfg.StartupMaxAttempts; attempt++ {
		client, err = redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err == nil {
			return client, nil
		}
		logger.WithError(err).Warnf("redis connection attempt %d/%d failed", attempt, cfg.StartupMaxAttempts)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}
