// Package galleries provides the gallery lifecycle and finalization module.
package galleries

import (
	"github.com/npsfilm/proof-perfect-sub000/internal/adapters/storage"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/handler"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/service"
	apphttp "github.com/npsfilm/proof-perfect-sub000/internal/http"
	"github.com/npsfilm/proof-perfect-sub000/internal/scheduler"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"
	"github.com/npsfilm/proof-perfect-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the galleries domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// NewModule creates a new galleries module with all dependencies wired
func NewModule(pool *pgxpool.Pool, photos service.PhotoStore, val *validator.Validator, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, photos, eventBus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:    h,
		Service:    svc,
		Repository: repo,
	}
}

// SetStorage wires object storage for previews, reference files and deliveries.
func (m *Module) SetStorage(svc storage.StorageService, photosBucket, referencesBucket, deliveriesBucket string) {
	m.Service.SetStorage(svc, photosBucket, referencesBucket, deliveriesBucket)
}

// SetReminderScheduler wires the selection reminder scheduler.
func (m *Module) SetReminderScheduler(rs scheduler.ReminderScheduler) {
	m.Service.SetReminderScheduler(rs)
}

// SetReopenReader wires the reopen request lookup for admin responses.
func (m *Module) SetReopenReader(r service.ReopenReader) {
	m.Service.SetReopenReader(r)
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "galleries"
}

// RegisterRoutes registers the studio routes under /admin/galleries and the
// client view plus finalize routes under the public /gallery group
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/galleries"))
	m.handler.RegisterClientRoutes(ctx.Gallery)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
