package service

import (
	"context"
	"io"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"

	"github.com/google/uuid"
)

// ReferenceUpload is an optional client-provided reference file attached to a
// finalize call, typically an annotated floor plan or styling example.
type ReferenceUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Finalize commits the client's package: the selected photo set replaces any
// prior selection, add-ons are attached, and the gallery closes. Validation
// runs in a fixed order so the client always sees the most fundamental
// problem first. The reference file is uploaded before the database
// transaction; a storage failure aborts the finalize with nothing committed.
func (s *Service) Finalize(ctx context.Context, slug string, req transport.FinalizeRequest, ref *ReferenceUpload) (*transport.FinalizeResponse, error) {
	g, err := s.galleries.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if !domain.IsEditable(g.Status, g.IsLocked) {
		return nil, domain.ErrGalleryNotEditable(g.Status, g.IsLocked)
	}

	selected := dedupeIDs(req.SelectedPhotoIDs)
	if len(selected) == 0 {
		return nil, domain.ErrEmptySelection()
	}

	galleryPhotos, err := s.galleries.ListPhotoIDs(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[uuid.UUID]bool, len(galleryPhotos))
	for _, id := range galleryPhotos {
		owned[id] = true
	}
	for _, id := range selected {
		if !owned[id] {
			return nil, domain.ErrForeignPhoto(id.String())
		}
	}

	selectedSet := make(map[uuid.UUID]bool, len(selected))
	for _, id := range selected {
		selectedSet[id] = true
	}
	for _, choice := range req.AddOns.StagingSelections {
		if !selectedSet[choice.PhotoID] {
			return nil, domain.ErrAddOnOnUnselectedPhoto(choice.PhotoID.String())
		}
	}
	for _, id := range req.AddOns.BlueHourSelections {
		if !selectedSet[id] {
			return nil, domain.ErrAddOnOnUnselectedPhoto(id.String())
		}
	}

	referenceFileKey, err := s.uploadReferenceFile(ctx, g.ID, ref)
	if err != nil {
		return nil, err
	}

	params := repository.FinalizeParams{
		GalleryID:        g.ID,
		SelectedPhotoIDs: selected,
		BlueHourPhotoIDs: dedupeIDs(req.AddOns.BlueHourSelections),
		Comment:          req.Comment,
		ExpressDelivery:  req.AddOns.ExpressDelivery,
		ReferenceFileKey: referenceFileKey,
	}
	for _, choice := range req.AddOns.StagingSelections {
		params.StagingChoices = append(params.StagingChoices, repository.StagingChoice{
			PhotoID: choice.PhotoID,
			Style:   choice.Style,
		})
	}

	ok, err := s.galleries.Finalize(ctx, params)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the compare-and-set: another finalize or an admin action got
		// there first. Report the current state instead of a generic failure.
		current, err := s.galleries.GetByID(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrGalleryNotEditable(current.Status, current.IsLocked)
	}
	s.log.Transition(g.ID.String(), string(domain.StatusOpen), string(domain.StatusClosed))

	addonCount := len(params.StagingChoices) + len(params.BlueHourPhotoIDs)
	if params.ExpressDelivery {
		addonCount++
	}
	s.eventBus.Publish(ctx, events.GalleryFinalized{
		BaseEvent:     events.NewBaseEvent(),
		GalleryID:     g.ID,
		Slug:          g.Slug,
		PropertyName:  g.PropertyName,
		ClientEmails:  g.ClientEmails,
		SelectedCount: len(selected),
		AddonCount:    addonCount,
	})

	reviewedAt := time.Now().UTC()
	if current, err := s.galleries.GetByID(ctx, g.ID); err == nil && current.ReviewedAt != nil {
		reviewedAt = *current.ReviewedAt
	}

	return &transport.FinalizeResponse{
		GalleryID:     g.ID,
		Status:        domain.StatusClosed,
		SelectedCount: len(selected),
		ReviewedAt:    reviewedAt,
	}, nil
}

func (s *Service) uploadReferenceFile(ctx context.Context, galleryID uuid.UUID, ref *ReferenceUpload) (*string, error) {
	if ref == nil {
		return nil, nil
	}
	if s.storageSvc == nil {
		return nil, apperr.Unavailable("file storage is not configured")
	}
	if err := s.storageSvc.ValidateContentType(ref.ContentType); err != nil {
		return nil, err
	}
	if err := s.storageSvc.ValidateFileSize(ref.Size); err != nil {
		return nil, err
	}

	key, err := s.storageSvc.UploadFile(ctx, s.referencesBucket, galleryID.String(),
		ref.FileName, ref.ContentType, ref.Reader, ref.Size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to store reference file", err)
	}
	return &key, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
