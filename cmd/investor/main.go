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
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/jafarkuku/preqin-task/config"
	"github.com/jafarkuku/preqin-task/internal/repositories/investor"
	"github.com/jafarkuku/preqin-task/pkg/aggregator"
	"github.com/jafarkuku/preqin-task/pkg/database"
	"github.com/jafarkuku/preqin-task/pkg/kafka"
	"github.com/jafarkuku/preqin-task/pkg/logging"
	"github.com/jafarkuku/preqin-task/pkg/middleware"
	"github.com/jafarkuku/preqin-task/pkg/routes/health"
	investorroutes "github.com/jafarkuku/preqin-task/pkg/routes/investor"
	"github.com/jafarkuku/preqin-task/pkg/tracing"
)

const serviceName = "investor-api"

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

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := runMigrations(db, cfg, logger); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	repo := investor.NewRepository(db, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Fatal("failed to create DI container")
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		logger.WithError(err).Fatal("failed to register logger")
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		logger.WithError(err).Fatal("failed to register database")
	}
	if err := ectoinject.RegisterInstance[*investor.Repository](container, repo); err != nil {
		logger.WithError(err).Fatal("failed to register investor repository")
	}

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		agg := aggregator.NewAggregator(repo, logger)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:        cfg.KafkaBrokers,
			Topic:          cfg.KafkaTopic,
			GroupID:        cfg.KafkaConsumerGroup,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        time.Second,
			CommitInterval: 0,
			StartOffset:    kafka.FirstOffset,
		}, logger, agg.HandleMessage)
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Fatal("failed to start consumer")
		}
		logger.WithFields(map[string]any{
			"topic": cfg.KafkaTopic,
			"group": cfg.KafkaConsumerGroup,
		}).Info("aggregator consumer started")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker := health.NewChecker(db, nil, cfg.AppName)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	investorroutes.Register(e.Group("/api/v1/investors"))

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

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop consumer cleanly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down server gracefully")
	}
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (database.DB, error) {
	connCfg := database.ConnectionConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}

	var db database.DB
	var err error
	for attempt := 1; attempt <= cfg.StartupMaxAttempts; attempt++ {
		db, err = database.Connect(ctx, connCfg, logger)
		if err == nil {
			return db, nil
		}
		logger.WithError(err).Warnf("database connection attempt %d/%d failed", attempt, cfg.StartupMaxAttempts)
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func runMigrations(db database.DB, cfg *config.Config, logger ectologger.Logger) error {
	driver, err := migratepg.WithInstance(db.Unsafe().DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	svc := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath + "/investor",
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return svc.Migrate(cfg.DatabaseName, driver)
}
