package service

import (
	"context"
	"strings"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/adapters/storage"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	photorepo "github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/scheduler"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

// selectionReminderDelay is how long an open gallery may sit untouched before
// the client gets a nudge.
const selectionReminderDelay = 72 * time.Hour

// GalleryStore provides gallery persistence.
type GalleryStore interface {
	Create(ctx context.Context, g *repository.Gallery) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Gallery, error)
	GetBySlug(ctx context.Context, slug string) (*repository.Gallery, error)
	List(ctx context.Context, status *domain.Status, limit, offset int) ([]repository.Gallery, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, propertyName string, clientEmails []string, packageTargetCount *int, expressDelivery bool) error
	MarkSent(ctx context.Context, id uuid.UUID) (bool, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveryLink, deliveryFileKey *string) (bool, error)
	Reopen(ctx context.Context, id uuid.UUID, from domain.Status) (bool, error)
	ListPhotoIDs(ctx context.Context, galleryID uuid.UUID) ([]uuid.UUID, error)
	Finalize(ctx context.Context, p repository.FinalizeParams) (bool, error)
}

// PhotoStore provides the photo reads the gallery views need.
type PhotoStore interface {
	ListByGallery(ctx context.Context, galleryID uuid.UUID) ([]photorepo.Photo, error)
	CountByGallery(ctx context.Context, galleryID uuid.UUID) (total int, selected int, err error)
}

// ReopenReader reports whether a gallery has an unresolved reopen request.
type ReopenReader interface {
	HasPending(ctx context.Context, galleryID uuid.UUID) (bool, error)
}

// Service provides business logic for gallery lifecycle and finalization
type Service struct {
	galleries         GalleryStore
	photos            PhotoStore
	eventBus          events.Bus
	log               *logger.Logger
	reminderScheduler scheduler.ReminderScheduler
	reopenReader      ReopenReader

	storageSvc       storage.StorageService
	photosBucket     string
	referencesBucket string
	deliveriesBucket string
}

// New creates a new galleries service
func New(galleries GalleryStore, photos PhotoStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		galleries: galleries,
		photos:    photos,
		eventBus:  eventBus,
		log:       log,
	}
}

// SetStorage wires the object storage used for photo previews, reference
// files and delivery archives.
func (s *Service) SetStorage(svc storage.StorageService, photosBucket, referencesBucket, deliveriesBucket string) {
	s.storageSvc = svc
	s.photosBucket = photosBucket
	s.referencesBucket = referencesBucket
	s.deliveriesBucket = deliveriesBucket
}

// SetReminderScheduler wires the scheduler used for selection reminders.
func (s *Service) SetReminderScheduler(rs scheduler.ReminderScheduler) {
	s.reminderScheduler = rs
}

// SetReopenReader wires the reopen request lookup used by admin responses.
func (s *Service) SetReopenReader(r ReopenReader) {
	s.reopenReader = r
}

// Create creates a new gallery in Planning
func (s *Service) Create(ctx context.Context, req transport.CreateGalleryRequest) (*transport.GalleryResponse, error) {
	now := time.Now().UTC()
	g := &repository.Gallery{
		ID:                 uuid.New(),
		Slug:               normalizeSlug(req.Slug),
		PropertyName:       strings.TrimSpace(req.PropertyName),
		ClientEmails:       normalizeEmails(req.ClientEmails),
		Status:             domain.StatusPlanning,
		PackageTargetCount: req.PackageTargetCount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if g.Slug == "" {
		return nil, apperr.BadRequest("slug is required")
	}

	if err := s.galleries.Create(ctx, g); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, g), nil
}

// Get retrieves a gallery by id for the admin surface
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.GalleryResponse, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, g), nil
}

// Update changes the admin-editable gallery details
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateGalleryRequest) (*transport.GalleryResponse, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.galleries.UpdateDetails(ctx, id,
		strings.TrimSpace(req.PropertyName), normalizeEmails(req.ClientEmails),
		req.PackageTargetCount, req.ExpressDelivery)
	if err != nil {
		return nil, err
	}

	g, err = s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, g), nil
}

// List retrieves galleries with optional status filtering and pagination
func (s *Service) List(ctx context.Context, req transport.ListGalleriesRequest) (*transport.GalleryListResponse, error) {
	var status *domain.Status
	if req.Status != "" {
		st := domain.Status(req.Status)
		if !domain.IsKnownStatus(st) {
			return nil, apperr.BadRequest("unknown status filter")
		}
		status = &st
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	galleries, err := s.galleries.List(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]transport.GalleryResponse, 0, len(galleries))
	for i := range galleries {
		items = append(items, *s.toResponse(ctx, &galleries[i]))
	}

	return &transport.GalleryListResponse{Items: items, Page: page, PageSize: pageSize}, nil
}

func (s *Service) toResponse(ctx context.Context, g *repository.Gallery) *transport.GalleryResponse {
	resp := &transport.GalleryResponse{
		ID:                 g.ID,
		Slug:               g.Slug,
		PropertyName:       g.PropertyName,
		ClientEmails:       g.ClientEmails,
		Status:             g.Status,
		PackageTargetCount: g.PackageTargetCount,
		IsLocked:           g.IsLocked,
		ExpressDelivery:    g.ExpressDeliveryRequested,
		ClientComment:      g.ClientComment,
		FinalDeliveryLink:  g.FinalDeliveryLink,
		SentAt:             g.SentAt,
		ReviewedAt:         g.ReviewedAt,
		DeliveredAt:        g.DeliveredAt,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}

	if total, selected, err := s.photos.CountByGallery(ctx, g.ID); err == nil {
		resp.PhotoCount = total
		resp.SelectedCount = selected
	}
	if s.reopenReader != nil {
		if pending, err := s.reopenReader.HasPending(ctx, g.ID); err == nil {
			resp.HasPendingReopenRequest = pending
		}
	}

	return resp
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
