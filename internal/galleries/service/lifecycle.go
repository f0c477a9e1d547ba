package service

import (
	"context"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	"github.com/npsfilm/proof-perfect-sub000/internal/scheduler"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"

	"github.com/google/uuid"
)

// Send moves a gallery from Planning to Open and notifies the client that the
// selection link is available. The status update is a compare-and-set, so two
// concurrent sends fire the notification exactly once.
func (s *Service) Send(ctx context.Context, id uuid.UUID) (*transport.GalleryResponse, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(g.ClientEmails) == 0 {
		return nil, apperr.BadRequest("at least one client recipient address is required before sending")
	}

	ok, err := s.galleries.MarkSent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrIllegalTransition(g.Status, domain.StatusOpen, "admin sends gallery")
	}
	s.log.Transition(id.String(), string(domain.StatusPlanning), string(domain.StatusOpen))

	s.eventBus.Publish(ctx, events.GallerySent{
		BaseEvent:    events.NewBaseEvent(),
		GalleryID:    g.ID,
		Slug:         g.Slug,
		PropertyName: g.PropertyName,
		ClientEmails: g.ClientEmails,
	})
	s.scheduleSelectionReminder(ctx, g.ID)

	return s.Get(ctx, id)
}

// OpenReview is called when an admin opens the review screen. A Closed
// gallery auto-advances to Processing; a gallery already in Processing or
// Delivered is returned as is, so hitting the review page twice is harmless.
func (s *Service) OpenReview(ctx context.Context, id uuid.UUID) (*transport.GalleryResponse, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch g.Status {
	case domain.StatusClosed:
		ok, err := s.galleries.MarkProcessing(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			s.log.Transition(id.String(), string(domain.StatusClosed), string(domain.StatusProcessing))
			s.eventBus.Publish(ctx, events.GalleryProcessingStarted{
				BaseEvent:    events.NewBaseEvent(),
				GalleryID:    g.ID,
				PropertyName: g.PropertyName,
			})
		}
		// A lost compare-and-set means another admin advanced the gallery
		// first. Both review tabs end up looking at Processing.
	case domain.StatusProcessing, domain.StatusDelivered:
		// Already past Closed, nothing to advance.
	default:
		return nil, domain.ErrIllegalTransition(g.Status, domain.StatusProcessing, "admin opens review of a closed gallery")
	}

	return s.Get(ctx, id)
}

// Deliver moves a gallery from Processing to Delivered, recording either an
// external download link or the key of an uploaded archive, and notifies the
// client.
func (s *Service) Deliver(ctx context.Context, id uuid.UUID, req transport.DeliverRequest) (*transport.GalleryResponse, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.DeliveryLink == nil && req.DeliveryFileKey == nil {
		return nil, apperr.BadRequest("either a delivery link or an uploaded delivery file is required")
	}
	if len(g.ClientEmails) == 0 {
		return nil, domain.ErrIllegalTransition(g.Status, domain.StatusDelivered, "at least one client recipient address exists")
	}

	ok, err := s.galleries.MarkDelivered(ctx, id, req.DeliveryLink, req.DeliveryFileKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrIllegalTransition(g.Status, domain.StatusDelivered, "admin supplies final files or link")
	}
	s.log.Transition(id.String(), string(domain.StatusProcessing), string(domain.StatusDelivered))

	s.eventBus.Publish(ctx, events.GalleryDelivered{
		BaseEvent:    events.NewBaseEvent(),
		GalleryID:    g.ID,
		Slug:         g.Slug,
		PropertyName: g.PropertyName,
		ClientEmails: g.ClientEmails,
		DownloadLink: s.downloadLink(ctx, req.DeliveryLink, req.DeliveryFileKey),
	})

	return s.Get(ctx, id)
}

// Reopen moves a gallery back to Open, either as an explicit admin override
// or on behalf of an approved reopen request. Prior selections survive; only
// the lock is cleared.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID) (*transport.GalleryResponse, error) {
	g, err := s.galleries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanReopenFrom(g.Status) {
		return nil, domain.ErrNotEligible(g.Status)
	}

	ok, err := s.galleries.Reopen(ctx, id, g.Status)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Status moved between read and update. Surface the conflict so the
		// caller re-reads instead of assuming the gallery is open.
		return nil, domain.ErrStaleState()
	}
	s.log.Transition(id.String(), string(g.Status), string(domain.StatusOpen))

	s.eventBus.Publish(ctx, events.GalleryReopened{
		BaseEvent:      events.NewBaseEvent(),
		GalleryID:      g.ID,
		Slug:           g.Slug,
		PropertyName:   g.PropertyName,
		ClientEmails:   g.ClientEmails,
		PreviousStatus: string(g.Status),
	})
	s.scheduleSelectionReminder(ctx, g.ID)

	return s.Get(ctx, id)
}

func (s *Service) scheduleSelectionReminder(ctx context.Context, galleryID uuid.UUID) {
	if s.reminderScheduler == nil {
		return
	}
	err := s.reminderScheduler.ScheduleSelectionReminder(ctx,
		scheduler.SelectionReminderPayload{GalleryID: galleryID.String()},
		time.Now().Add(selectionReminderDelay))
	if err != nil {
		s.log.DispatchError("selection_reminder_schedule", galleryID.String(), err)
	}
}

// downloadLink resolves what the client should click: the external link when
// one was supplied, otherwise a presigned URL for the uploaded archive.
func (s *Service) downloadLink(ctx context.Context, deliveryLink, deliveryFileKey *string) string {
	if deliveryLink != nil && *deliveryLink != "" {
		return *deliveryLink
	}
	if deliveryFileKey == nil || s.storageSvc == nil {
		return ""
	}
	presigned, err := s.storageSvc.GenerateDownloadURL(ctx, s.deliveriesBucket, *deliveryFileKey)
	if err != nil {
		s.log.DispatchError("delivery_download_url", *deliveryFileKey, err)
		return ""
	}
	return presigned.URL
}
