package service

import (
	"context"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	galrepo "github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	galtransport "github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/transport"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

// RequestStore provides reopen request persistence. Satisfied by
// *repository.Repository.
type RequestStore interface {
	Create(ctx context.Context, r *repository.ReopenRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.ReopenRequest, error)
	List(ctx context.Context, status *string) ([]repository.ReopenRequest, error)
	Resolve(ctx context.Context, id uuid.UUID, decision string, resolvedBy uuid.UUID) (bool, error)
}

// GalleryDirectory provides the gallery reads the arbitrator needs.
type GalleryDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*galrepo.Gallery, error)
	GetBySlug(ctx context.Context, slug string) (*galrepo.Gallery, error)
}

// GalleryReopener applies the approved backward transition.
type GalleryReopener interface {
	Reopen(ctx context.Context, id uuid.UUID) (*galtransport.GalleryResponse, error)
}

// Service arbitrates client requests to reopen a finalized gallery
type Service struct {
	repo      RequestStore
	galleries GalleryDirectory
	reopener  GalleryReopener
	eventBus  events.Bus
	log       *logger.Logger
}

// New creates a new reopen arbitration service
func New(repo RequestStore, galleries GalleryDirectory, reopener GalleryReopener, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		galleries: galleries,
		reopener:  reopener,
		eventBus:  eventBus,
		log:       log,
	}
}

// Request files a pending reopen request for the gallery behind the slug.
// Only galleries past finalization are eligible, and a second request while
// one is pending is refused rather than superseding it.
func (s *Service) Request(ctx context.Context, slug string, req transport.CreateReopenRequest) (*transport.ReopenRequestResponse, error) {
	g, err := s.galleries.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !domain.CanReopenFrom(g.Status) {
		return nil, domain.ErrNotEligible(g.Status)
	}

	request := &repository.ReopenRequest{
		ID:        uuid.New(),
		GalleryID: g.ID,
		Status:    repository.StatusPending,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	reason := ""
	if req.Message != nil {
		reason = *req.Message
	}
	clientEmail := ""
	if len(g.ClientEmails) > 0 {
		clientEmail = g.ClientEmails[0]
	}
	s.eventBus.Publish(ctx, events.ReopenRequested{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    request.ID,
		GalleryID:    g.ID,
		PropertyName: g.PropertyName,
		ClientEmail:  clientEmail,
		Reason:       reason,
	})

	return toResponse(request), nil
}

// Resolve decides a pending request. The pending→decision update is a
// compare-and-set, so a double-resolve from two admin tabs fails the second
// call instead of transitioning the gallery twice.
func (s *Service) Resolve(ctx context.Context, requestID uuid.UUID, req transport.ResolveReopenRequest, resolvedBy uuid.UUID) (*transport.ReopenRequestResponse, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.Resolve(ctx, requestID, req.Decision, resolvedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyResolved()
	}

	g, err := s.galleries.GetByID(ctx, request.GalleryID)
	if err != nil {
		return nil, err
	}

	approved := req.Decision == repository.StatusApproved
	if approved && g.Status != domain.StatusOpen {
		if _, err := s.reopener.Reopen(ctx, g.ID); err != nil {
			// The request is already approved; surface the transition
			// failure so the admin can retry the reopen explicitly.
			return nil, err
		}
	}

	s.eventBus.Publish(ctx, events.ReopenResolved{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    request.ID,
		GalleryID:    g.ID,
		PropertyName: g.PropertyName,
		ClientEmails: g.ClientEmails,
		Approved:     approved,
		ResolvedBy:   resolvedBy,
	})

	resolved, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toResponse(resolved), nil
}

// List retrieves reopen requests for the admin surface, optionally filtered
// by status
func (s *Service) List(ctx context.Context, status string) (*transport.ReopenRequestListResponse, error) {
	var filter *string
	if status != "" {
		if status != repository.StatusPending && status != repository.StatusApproved && status != repository.StatusRejected {
			return nil, apperr.BadRequest("unknown status filter")
		}
		filter = &status
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]transport.ReopenRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, *toResponse(&requests[i]))
	}
	return &transport.ReopenRequestListResponse{Items: items, Total: len(items)}, nil
}

func toResponse(r *repository.ReopenRequest) *transport.ReopenRequestResponse {
	return &transport.ReopenRequestResponse{
		ID:           r.ID,
		GalleryID:    r.GalleryID,
		GallerySlug:  r.GallerySlug,
		PropertyName: r.PropertyName,
		Status:       r.Status,
		Message:      r.Message,
		ResolvedBy:   r.ResolvedBy,
		CreatedAt:    r.CreatedAt,
		ResolvedAt:   r.ResolvedAt,
	}
}
