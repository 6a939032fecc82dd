package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/agencyledger-backend/internal/http"
	httpH "github.com/yungbote/agencyledger-backend/internal/http/handlers"
	httpMW "github.com/yungbote/agencyledger-backend/internal/http/middleware"
	"github.com/yungbote/agencyledger-backend/internal/observability"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Ledger     *httpH.LedgerHandler
	Obligation *httpH.ObligationHandler
	Project    *httpH.ProjectHandler
	Reconcile  *httpH.ReconcileHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Ledger:     httpH.NewLedgerHandler(services.Ledger),
		Obligation: httpH.NewObligationHandler(services.Obligation),
		Project:    httpH.NewProjectHandler(services.Project),
		Reconcile:  httpH.NewReconcileHandler(services.Reconcile),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Tokens),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		LedgerHandler:     handlers.Ledger,
		ObligationHandler: handlers.Obligation,
		ProjectHandler:    handlers.Project,
		ReconcileHandler:  handlers.Reconcile,
		HealthHandler:     handlers.Health,
	})
}
