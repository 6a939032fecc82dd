package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	dataagg "github.com/yungbote/agencyledger-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
	"github.com/yungbote/agencyledger-backend/internal/observability"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
	"github.com/yungbote/agencyledger-backend/internal/realtime/bus"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type Aggregates struct {
	Ledger     domainagg.LedgerAggregate
	Obligation domainagg.ObligationAggregate
	Assignment domainagg.AssignmentAggregate
	Reconciler domainagg.Reconciler
}

type Services struct {
	Gate       authz.Gate
	Tokens     *services.TokenService
	Events     *services.EventPublisher
	Ledger     services.LedgerService
	Obligation services.ObligationService
	Project    services.ProjectService
	Reconcile  services.ReconcileService
}

func wireAggregates(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, metrics *observability.Metrics) Aggregates {
	log.Info("Wiring aggregates...")
	runner := dataagg.NewGormTxRunner(db,
		dataagg.WithLockTimeout(cfg.AggLockTimeout),
		dataagg.WithTimeout(cfg.AggTxTimeout),
	)
	base := dataagg.BaseDeps{
		DB:     db,
		Log:    log.With("component", "aggregates"),
		Runner: runner,
		Hooks:  dataagg.NewObservabilityHooks(metrics),
		Guard:  dataagg.NewStatusGuard(db),
	}
	fr := reposet.finance()
	return Aggregates{
		Ledger:     dataagg.NewLedgerAggregate(dataagg.LedgerAggregateDeps{Base: base, Repos: fr}),
		Obligation: dataagg.NewObligationAggregate(dataagg.ObligationAggregateDeps{Base: base, Repos: fr}),
		Assignment: dataagg.NewAssignmentAggregate(dataagg.AssignmentAggregateDeps{Base: base, Repos: fr}),
		Reconciler: dataagg.NewReconciler(dataagg.ReconcilerDeps{
			Base:        base,
			Repos:       fr,
			Concurrency: cfg.ReconcileConcurrency,
		}),
	}
}

// wireBus picks redis pub/sub when REDIS_ADDR is set and falls back to an in-process bus.
// The returned client is nil for the in-process bus.
func wireBus(ctx context.Context, log *logger.Logger, cfg Config) (bus.Bus, *goredis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set; totals events stay in-process")
		return bus.NewMemoryBus(), nil, nil
	}
	rdb, err := bus.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	b, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("init redis bus: %w", err)
	}
	return b, rdb, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, aggs Aggregates, eventBus bus.Bus) Services {
	log.Info("Wiring services...")
	gate := authz.NewRoleGate(log, authz.DefaultPolicy())
	publisher := services.NewEventPublisher(log, eventBus)
	return Services{
		Gate:       gate,
		Tokens:     services.NewTokenService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Events:     publisher,
		Ledger:     services.NewLedgerService(log, gate, aggs.Ledger, reposet.LedgerEntry, reposet.Organization, publisher),
		Obligation: services.NewObligationService(log, gate, aggs.Obligation, reposet.Organization, publisher),
		Project: services.NewProjectService(db, log, gate,
			reposet.Organization, reposet.Project, reposet.Assignment, reposet.Obligation, aggs.Assignment),
		Reconcile: services.NewReconcileService(log, gate, aggs.Reconciler, publisher),
	}
}
