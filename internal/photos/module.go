// Package photos provides the photo registry and selection ledger module.
package photos

import (
	"github.com/npsfilm/proof-perfect-sub000/internal/adapters/storage"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	apphttp "github.com/npsfilm/proof-perfect-sub000/internal/http"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/handler"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/service"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"
	"github.com/npsfilm/proof-perfect-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the photos domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new photos module with all dependencies wired
func NewModule(pool *pgxpool.Pool, galleries service.GalleryReader, val *validator.Validator, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, galleries, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// SetStorage wires object storage for photo uploads and previews.
func (m *Module) SetStorage(svc storage.StorageService, bucket string) {
	m.Service.SetStorage(svc, bucket)
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "photos"
}

// RegisterRoutes registers the studio routes under /admin/galleries and the
// client routes under the public /gallery group
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/galleries"))
	m.handler.RegisterClientRoutes(ctx.Gallery)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
