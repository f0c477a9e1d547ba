// Package service implements the selection ledger: per-photo selection state
// with optimistic, compare-and-set writes.
package service

import (
	"context"
	"sync"

	"github.com/npsfilm/proof-perfect-sub000/internal/adapters/storage"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	galdomain "github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	galrepo "github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

// PhotoStore is the persistence interface of the ledger. Satisfied by
// *repository.Repository.
type PhotoStore interface {
	RegisterBatch(ctx context.Context, galleryID uuid.UUID, fileKeys []string) ([]repository.Photo, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Photo, error)
	ListByGallery(ctx context.Context, galleryID uuid.UUID) ([]repository.Photo, error)
	ToggleSelected(ctx context.Context, id uuid.UUID, expected bool) (bool, bool, error)
	UpdateComment(ctx context.Context, id uuid.UUID, comment *string) error
	CountByGallery(ctx context.Context, galleryID uuid.UUID) (int, int, error)
}

// GalleryReader provides the owning gallery for editability checks.
// Satisfied by *galrepo.Repository.
type GalleryReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*galrepo.Gallery, error)
	GetBySlug(ctx context.Context, slug string) (*galrepo.Gallery, error)
}

// Service is the selection ledger. Writes go through two explicit layers: an
// in-memory pending set holding the target value of each in-flight toggle,
// and the persisted state confirmed by the compare-and-set. A duplicate
// delivery of the same toggle intent reconciles against the pending layer
// instead of failing, which gives at-least-once semantics per user action.
type Service struct {
	photos     PhotoStore
	galleries  GalleryReader
	storageSvc storage.StorageService
	bucket     string
	bus        events.Bus
	log        *logger.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]bool // photoID -> target value of an in-flight write
}

// New creates a new selection ledger service
func New(photos PhotoStore, galleries GalleryReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		photos:    photos,
		galleries: galleries,
		bus:       bus,
		log:       log,
		pending:   make(map[uuid.UUID]bool),
	}
}

// SetStorage injects the object storage used for upload URL issuance.
func (s *Service) SetStorage(storageSvc storage.StorageService, bucket string) {
	s.storageSvc = storageSvc
	s.bucket = bucket
}

// Register attaches uploaded photos to a gallery with a stable upload order.
// Only galleries still being assembled (Planning) or open for selection
// accept new photos.
func (s *Service) Register(ctx context.Context, galleryID uuid.UUID, fileKeys []string) ([]repository.Photo, error) {
	gallery, err := s.galleries.GetByID(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if gallery.Status != galdomain.StatusPlanning && gallery.Status != galdomain.StatusOpen {
		return nil, galdomain.ErrGalleryNotEditable(gallery.Status, gallery.IsLocked)
	}

	photos, err := s.photos.RegisterBatch(ctx, galleryID, fileKeys)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.PhotosRegistered{
			BaseEvent: events.NewBaseEvent(),
			GalleryID: galleryID,
			Count:     len(photos),
		})
	}

	return photos, nil
}

// List returns all photos of a gallery in upload order.
func (s *Service) List(ctx context.Context, galleryID uuid.UUID) ([]repository.Photo, error) {
	return s.photos.ListByGallery(ctx, galleryID)
}

// Toggle flips the selection state of a photo from the expected current value
// to its complement and returns the new state.
//
// The caller's expected value guards against lost updates: when the persisted
// state no longer matches, the toggle fails with a stale-state error and the
// caller must refetch rather than overwrite. A duplicate arrival of the same
// intent while the first write is still pending returns the pending target
// without flipping twice.
func (s *Service) Toggle(ctx context.Context, slug string, photoID uuid.UUID, expected bool) (bool, error) {
	gallery, err := s.galleries.GetBySlug(ctx, slug)
	if err != nil {
		return false, err
	}

	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return false, err
	}
	if photo.GalleryID != gallery.ID {
		return false, apperr.NotFound("photo not found")
	}

	if !galdomain.IsEditable(gallery.Status, gallery.IsLocked) {
		return false, galdomain.ErrGalleryNotEditable(gallery.Status, gallery.IsLocked)
	}

	target := !expected

	s.mu.Lock()
	if pendingTarget, ok := s.pending[photoID]; ok && pendingTarget == target {
		// Same toggle intent delivered again while the first write is in
		// flight. Confirm the pending target instead of double-flipping.
		s.mu.Unlock()
		return pendingTarget, nil
	}
	s.pending[photoID] = target
	s.mu.Unlock()

	newState, ok, err := s.photos.ToggleSelected(ctx, photoID, expected)

	s.mu.Lock()
	delete(s.pending, photoID)
	s.mu.Unlock()

	if err != nil {
		return false, err
	}
	if !ok {
		return false, galdomain.ErrStaleState()
	}

	return newState, nil
}

// UpdateComment sets the client comment on a photo, under the same
// editability guard as selection toggles.
func (s *Service) UpdateComment(ctx context.Context, slug string, photoID uuid.UUID, comment *string) error {
	gallery, err := s.galleries.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.GalleryID != gallery.ID {
		return apperr.NotFound("photo not found")
	}

	if !galdomain.IsEditable(gallery.Status, gallery.IsLocked) {
		return galdomain.ErrGalleryNotEditable(gallery.Status, gallery.IsLocked)
	}

	return s.photos.UpdateComment(ctx, photoID, comment)
}

// CreateUploadURL issues a presigned PUT URL for an original photo upload.
func (s *Service) CreateUploadURL(ctx context.Context, galleryID uuid.UUID, fileName, contentType string, sizeBytes int64) (*storage.PresignedURL, error) {
	if s.storageSvc == nil {
		return nil, apperr.Unavailable("file storage is not configured")
	}

	gallery, err := s.galleries.GetByID(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if gallery.Status != galdomain.StatusPlanning && gallery.Status != galdomain.StatusOpen {
		return nil, galdomain.ErrGalleryNotEditable(gallery.Status, gallery.IsLocked)
	}

	folder := gallery.ID.String() + "/originals"
	return s.storageSvc.GenerateUploadURL(ctx, s.bucket, folder, fileName, contentType, sizeBytes)
}
