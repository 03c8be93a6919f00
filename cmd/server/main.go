package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/shopledger/backend/internal/app"
	reportapp "github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/cache"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/event"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/migration"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/router"
	"github.com/shopledger/backend/migrations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	migrate := flag.Bool("migrate", false, "Apply the embedded migrations before serving")
	flag.Parse()

	if err := run(*migrate); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(migrate bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	defer shutdownWith(log, cfg.HTTP.ShutdownTimeout, "telemetry", provider.Shutdown)

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to start log export: %w", err)
	}
	defer shutdownWith(log, cfg.HTTP.ShutdownTimeout, "log export", logProvider.Shutdown)
	level, _ := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	log = telemetry.BridgeLogger(log, logProvider, cfg.Telemetry.ServiceName, level)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilerUser,
		BasicAuthPassword: cfg.Telemetry.ProfilerPassword,
		ProfileTypes:      cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to start profiler: %w", err)
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("shutdown step failed", zap.String("component", "profiler"), zap.Error(err))
		}
	}()
	if profiler.IsEnabled() && provider.IsEnabled() {
		provider.EnableSpanProfiles()
	}

	metrics, err := telemetry.NewLedgerMetrics(provider.Meter("shopledger"))
	if err != nil {
		return fmt.Errorf("failed to create ledger metrics: %w", err)
	}

	if migrate {
		if err := applyMigrations(cfg.Database.DSN(), log); err != nil {
			return err
		}
	}

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
		logger.WithSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		return fmt.Errorf("failed to enable database tracing: %w", err)
	}

	summaryCache, redisClient, err := cache.NewSummaryCacheFactory(cfg.Redis, cfg.Ledger.SummaryCacheTTL,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		return fmt.Errorf("failed to create summary cache: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		return err
	}
	bus.Subscribe(reportapp.NewSummaryInvalidationHandler(summaryCache, log))
	if cfg.Event.KafkaEnabled {
		sink := event.NewKafkaSink(event.NewKafkaWriter(cfg.Event), 0, log)
		sink.Start()
		bus.Subscribe(sink)
		defer shutdownWith(log, cfg.HTTP.ShutdownTimeout, "kafka sink", sink.Close)
		log.Info("forwarding ledger events to kafka",
			zap.Strings("brokers", cfg.Event.KafkaBrokers),
			zap.String("topic", cfg.Event.KafkaTopic),
		)
	}
	defer shutdownWith(log, cfg.HTTP.ShutdownTimeout, "event bus", bus.Stop)

	shared.ConfigurePageSize(cfg.Ledger.PageSizeDefault, cfg.Ledger.PageSizeMax)
	services := app.NewServices(db.DB, app.Options{
		DefaultCurrency: cfg.Ledger.DefaultCurrency,
		SummaryCache:    summaryCache,
		Publisher:       bus,
		Metrics:         metrics,
		Logger:          log,
	})

	engine, err := router.NewEngine(router.Options{
		Logger:           log,
		Auth:             auth.NewJWTService(cfg.JWT),
		ServiceName:      cfg.Telemetry.ServiceName,
		TracingEnabled:   cfg.Telemetry.Enabled,
		ProfilingEnabled: profiler.IsEnabled(),
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
	}, services.Handlers(handler.NewHealthHandler(db, redisPinger(redisClient))))
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// applyMigrations runs the embedded schema over its own connection; closing
// the migrator closes that connection.
func applyMigrations(dsn string, log *zap.Logger) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	m, err := migration.NewFromFS(conn, migrations.FS, log)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

// redisPinger returns nil when the summary cache is in memory so the health
// check reports it as such
func redisPinger(client *redis.Client) handler.Pinger {
	if client == nil {
		return nil
	}
	return handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}

func shutdownWith(log *zap.Logger, timeout time.Duration, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("shutdown step failed", zap.String("component", name), zap.Error(err))
	}
}
