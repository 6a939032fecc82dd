package app

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/agencyledger-backend/internal/data/db"
	apphttp "github.com/yungbote/agencyledger-backend/internal/http"
	"github.com/yungbote/agencyledger-backend/internal/observability"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"github.com/yungbote/agencyledger-backend/internal/realtime/bus"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Cfg        Config
	Metrics    *observability.Metrics
	Bus        bus.Bus
	Repos      Repos
	Aggregates Aggregates
	Services   Services
	Server     *apphttp.Server

	redis        *goredis.Client
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDB connects to DB_DRIVER and brings the schema up to date.
func OpenDB(log *logger.Logger, driver string) (*gorm.DB, error) {
	theDB, err := db.Open(driver, log)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", driver, err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return theDB, nil
}

func New() (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	metrics := observability.Init(log)

	theDB, err := OpenDB(log, cfg.DBDriver)
	if err != nil {
		log.Sync()
		return nil, err
	}

	eventBus, rdb, err := wireBus(context.Background(), log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	aggs := wireAggregates(theDB, log, cfg, reposet, metrics)
	serviceset := wireServices(theDB, log, cfg, reposet, aggs, eventBus)
	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Bus:          eventBus,
		Repos:        reposet,
		Aggregates:   aggs,
		Services:     serviceset,
		Server:       server,
		redis:        rdb,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background collectors. Safe to call more than once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.redis)
		}
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	}
}

// Run serves the API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()
	addr := ":" + a.Cfg.Port
	a.Log.Info("Serving API", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	// The redis bus owns the shared client.
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("event bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
