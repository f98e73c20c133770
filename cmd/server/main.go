package main

import (
	"context"
	"encoding/json"
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
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/Khalid-A/sidra/config"
	"github.com/Khalid-A/sidra/internal/repositories/duplicateflag"
	"github.com/Khalid-A/sidra/internal/repositories/member"
	"github.com/Khalid-A/sidra/internal/repositories/memberhistory"
	"github.com/Khalid-A/sidra/internal/repositories/photo"
	"github.com/Khalid-A/sidra/pkg/database"
	"github.com/Khalid-A/sidra/pkg/duplicates"
	"github.com/Khalid-A/sidra/pkg/events"
	"github.com/Khalid-A/sidra/pkg/graph"
	"github.com/Khalid-A/sidra/pkg/kafka"
	"github.com/Khalid-A/sidra/pkg/matching"
	"github.com/Khalid-A/sidra/pkg/members"
	"github.com/Khalid-A/sidra/pkg/merging"
	"github.com/Khalid-A/sidra/pkg/middleware"
	duplicateflagroutes "github.com/Khalid-A/sidra/pkg/routes/duplicateflag"
	"github.com/Khalid-A/sidra/pkg/routes/health"
	lineageroutes "github.com/Khalid-A/sidra/pkg/routes/lineage"
	memberroutes "github.com/Khalid-A/sidra/pkg/routes/member"
	"github.com/Khalid-A/sidra/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	shutdownTracing, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
		ServiceName:    cfg.AppName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPProtocol:   cfg.OTLPProtocol,
		OTLPInsecure:   cfg.OTLPInsecure,
	})
	if err != nil {
		logger.WithError(err).Error("failed to initialize tracing")
		os.Exit(1)
	}

	db, err := database.Connect(ctx, database.ConnectionConfig{
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	migrationDriver, err := migratepg.WithInstance(db.Conn().DB, &migratepg.Config{})
	if err != nil {
		logger.WithError(err).Error("failed to create migration driver")
		os.Exit(1)
	}
	migrator := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
	})
	if err := migrator.Migrate(cfg.DatabaseName, migrationDriver); err != nil {
		logger.WithError(err).Error("failed to run database migrations")
		os.Exit(1)
	}

	var graphClient *graph.Client
	var lineageGraph *graph.LineageService
	if cfg.GraphDBEnabled {
		graphClient, err = graph.NewClient(graph.Config{
			Host:     cfg.GraphDBHost,
			Port:     cfg.GraphDBPort,
			Username: cfg.GraphDBUser,
			Password: cfg.GraphDBPassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Error("failed to create graph client")
			os.Exit(1)
		}
		defer graphClient.Close(ctx)
		lineageGraph = graph.NewLineageService(graphClient, logger)
	}

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	memberRepo := member.NewRepository(db, logger)
	flagRepo := duplicateflag.NewRepository(db, logger)
	historyRepo := memberhistory.NewRepository(db, logger)
	photoRepo := photo.NewRepository(db, logger)

	scorer := matching.NewScorer(cfg.NamesMatchThreshold)
	matcher := matching.NewLineageMatcher(scorer, matching.LineageMatcherConfig{
		LowTierCutoff:     cfg.LowTierCutoff,
		MaxMatchesPerTier: cfg.MaxMatchesPerTier,
		MaxLowTierMatches: cfg.MaxLowTierMatches,
	})
	scanner := matching.NewScanner(scorer)

	matchingService := matching.NewService(memberRepo, matcher, logger)
	duplicatesService := duplicates.NewService(memberRepo, flagRepo, scanner, emitter, cfg.ScanThreshold, logger)
	membersService := members.NewService(memberRepo, historyRepo, photoRepo, emitter, graphWriter(lineageGraph), logger)
	resolver := merging.NewResolver(db, memberRepo, flagRepo, historyRepo, photoRepo, emitter, graphProjector(lineageGraph), logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("failed to create DI container")
		os.Exit(1)
	}
	mustRegister(logger, ectoinject.RegisterInstance[ectologger.Logger](container, logger))
	mustRegister(logger, ectoinject.RegisterInstance[*matching.Service](container, matchingService))
	mustRegister(logger, ectoinject.RegisterInstance[*duplicates.Service](container, duplicatesService))
	mustRegister(logger, ectoinject.RegisterInstance[*members.Service](container, membersService))
	mustRegister(logger, ectoinject.RegisterInstance[*merging.Resolver](container, resolver))
	if lineageGraph != nil {
		mustRegister(logger, ectoinject.RegisterInstance[*graph.LineageService](container, lineageGraph))
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	checker := health.NewChecker(db, graphPinger(graphClient), cfg.Version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	memberroutes.Register(api.Group("/members"))
	lineageroutes.Register(api.Group("/lineage"))
	duplicateflagroutes.Register(api.Group("/duplicate-flags"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Infof("Starting %s on %s", cfg.AppName, addr)
		checker.SetReady(true)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	checker.SetReady(false)
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("tracing shutdown failed")
	}
}

func newLogger(cfg *config.Config) ectologger.Logger {
	encoder := json.Marshal
	if cfg.PrettyLogs {
		encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		data, err := encoder(msg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode log message: %v\n", err)
			return
		}
		fmt.Fprintln(os.Stdout, string(data))
	})
}

// graphWriter and graphProjector keep a nil *LineageService from turning
// into a non-nil interface inside the services.
func graphWriter(svc *graph.LineageService) members.GraphWriter {
	if svc == nil {
		return nil
	}
	return svc
}

func graphProjector(svc *graph.LineageService) merging.GraphProjector {
	if svc == nil {
		return nil
	}
	return svc
}

func graphPinger(client *graph.Client) health.GraphPinger {
	if client == nil {
		return nil
	}
	return client
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		logger.WithError(err).Error("failed to register dependency")
		os.Exit(1)
	}
}
