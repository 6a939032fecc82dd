package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/agencyledger-backend/internal/http/handlers"
	httpMW "github.com/yungbote/agencyledger-backend/internal/http/middleware"
	"github.com/yungbote/agencyledger-backend/internal/observability"
	"github.com/yungbote/agencyledger-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	LedgerHandler     *httpH.LedgerHandler
	ObligationHandler *httpH.ObligationHandler
	ProjectHandler    *httpH.ProjectHandler
	ReconcileHandler  *httpH.ReconcileHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Projects + assignments (non-derived fields only)
	if cfg.ProjectHandler != nil {
		api.POST("/projects", cfg.ProjectHandler.Create)
		api.GET("/projects", cfg.ProjectHandler.List)
		api.GET("/projects/:id", cfg.ProjectHandler.Get)
		api.PATCH("/projects/:id", cfg.ProjectHandler.Update)
		api.POST("/projects/:id/assignments", cfg.ProjectHandler.CreateAssignment)
		api.GET("/projects/:id/assignments", cfg.ProjectHandler.ListAssignments)
		api.PATCH("/assignments/:id", cfg.ProjectHandler.UpdateAssignment)
		api.DELETE("/assignments/:id", cfg.ProjectHandler.RemoveAssignment)
	}

	// Obligations
	if cfg.ObligationHandler != nil {
		api.POST("/obligations", cfg.ObligationHandler.Create)
		api.GET("/obligations/:id", cfg.ObligationHandler.Get)
		api.DELETE("/obligations/:id", cfg.ObligationHandler.Delete)
	}

	// Ledger
	if cfg.LedgerHandler != nil {
		api.POST("/obligations/:id/entries", cfg.LedgerHandler.Append)
		api.GET("/obligations/:id/entries", cfg.LedgerHandler.ListByObligation)
		api.PATCH("/entries/:id", cfg.LedgerHandler.UpdateAmount)
		api.DELETE("/entries/:id", cfg.LedgerHandler.Remove)
	}

	// Reconciliation
	if cfg.ReconcileHandler != nil {
		api.POST("/reconcile", cfg.ReconcileHandler.ReconcileAll)
	}

	return r
}
