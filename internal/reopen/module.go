// Package reopen provides the reopen request arbitration module.
package reopen

import (
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	apphttp "github.com/npsfilm/proof-perfect-sub000/internal/http"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/handler"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/service"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"
	"github.com/npsfilm/proof-perfect-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the reopen arbitration domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// NewModule creates a new reopen module with all dependencies wired
func NewModule(pool *pgxpool.Pool, galleries service.GalleryDirectory, reopener service.GalleryReopener, val *validator.Validator, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, galleries, reopener, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:    h,
		Service:    svc,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "reopen"
}

// RegisterRoutes registers the client route under the public /gallery group
// and the arbitration routes under /admin/reopen-requests
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterClientRoutes(ctx.Gallery)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/reopen-requests"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
