package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	photorepo "github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

// fakeGalleryStore keeps galleries in memory and mimics the repository's
// compare-and-set semantics.
type fakeGalleryStore struct {
	mu        sync.Mutex
	galleries map[uuid.UUID]*repository.Gallery
	photoIDs  map[uuid.UUID][]uuid.UUID

	finalizeCalls  []repository.FinalizeParams
	finalizeResult bool
}

func newFakeGalleryStore() *fakeGalleryStore {
	return &fakeGalleryStore{
		galleries:      make(map[uuid.UUID]*repository.Gallery),
		photoIDs:       make(map[uuid.UUID][]uuid.UUID),
		finalizeResult: true,
	}
}

func (f *fakeGalleryStore) add(g *repository.Gallery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.galleries[g.ID] = g
}

func (f *fakeGalleryStore) Create(_ context.Context, g *repository.Gallery) error {
	f.add(g)
	return nil
}

func (f *fakeGalleryStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Gallery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.galleries[id]
	if !ok {
		return nil, apperr.NotFound("gallery not found")
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGalleryStore) GetBySlug(_ context.Context, slug string) (*repository.Gallery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.galleries {
		if g.Slug == slug {
			copied := *g
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("gallery not found")
}

func (f *fakeGalleryStore) List(_ context.Context, status *domain.Status, _, _ int) ([]repository.Gallery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Gallery
	for _, g := range f.galleries {
		if status == nil || g.Status == *status {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGalleryStore) UpdateDetails(_ context.Context, id uuid.UUID, propertyName string, clientEmails []string, packageTargetCount *int, expressDelivery bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.galleries[id]
	if !ok {
		return apperr.NotFound("gallery not found")
	}
	g.PropertyName = propertyName
	g.ClientEmails = clientEmails
	g.PackageTargetCount = packageTargetCount
	g.ExpressDeliveryRequested = expressDelivery
	return nil
}

func (f *fakeGalleryStore) cas(id uuid.UUID, expected domain.Status, apply func(*repository.Gallery)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.galleries[id]
	if !ok || g.Status != expected {
		return false
	}
	apply(g)
	return true
}

func (f *fakeGalleryStore) MarkSent(_ context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	return f.cas(id, domain.StatusPlanning, func(g *repository.Gallery) {
		g.Status = domain.StatusOpen
		g.SentAt = &now
	}), nil
}

func (f *fakeGalleryStore) MarkProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	return f.cas(id, domain.StatusClosed, func(g *repository.Gallery) {
		g.Status = domain.StatusProcessing
	}), nil
}

func (f *fakeGalleryStore) MarkDelivered(_ context.Context, id uuid.UUID, deliveryLink, deliveryFileKey *string) (bool, error) {
	now := time.Now()
	return f.cas(id, domain.StatusProcessing, func(g *repository.Gallery) {
		g.Status = domain.StatusDelivered
		g.DeliveredAt = &now
		g.FinalDeliveryLink = deliveryLink
		g.DeliveryFileKey = deliveryFileKey
	}), nil
}

func (f *fakeGalleryStore) Reopen(_ context.Context, id uuid.UUID, from domain.Status) (bool, error) {
	return f.cas(id, from, func(g *repository.Gallery) {
		g.Status = domain.StatusOpen
		g.IsLocked = false
	}), nil
}

func (f *fakeGalleryStore) ListPhotoIDs(_ context.Context, galleryID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.photoIDs[galleryID], nil
}

func (f *fakeGalleryStore) Finalize(_ context.Context, p repository.FinalizeParams) (bool, error) {
	f.mu.Lock()
	f.finalizeCalls = append(f.finalizeCalls, p)
	result := f.finalizeResult
	f.mu.Unlock()
	if !result {
		return false, nil
	}

	now := time.Now()
	return f.cas(p.GalleryID, domain.StatusOpen, func(g *repository.Gallery) {
		g.Status = domain.StatusClosed
		g.IsLocked = true
		g.ReviewedAt = &now
		g.ClientComment = p.Comment
		g.ExpressDeliveryRequested = p.ExpressDelivery
		if p.ReferenceFileKey != nil {
			g.ReferenceFileKey = p.ReferenceFileKey
		}
	}), nil
}

type fakePhotoStore struct {
	photos map[uuid.UUID][]photorepo.Photo
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{photos: make(map[uuid.UUID][]photorepo.Photo)}
}

func (f *fakePhotoStore) ListByGallery(_ context.Context, galleryID uuid.UUID) ([]photorepo.Photo, error) {
	return f.photos[galleryID], nil
}

func (f *fakePhotoStore) CountByGallery(_ context.Context, galleryID uuid.UUID) (int, int, error) {
	total := len(f.photos[galleryID])
	selected := 0
	for _, p := range f.photos[galleryID] {
		if p.IsSelected {
			selected++
		}
	}
	return total, selected, nil
}

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

func (b *recordingBus) has(name string) bool {
	for _, n := range b.names() {
		if n == name {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *fakeGalleryStore, *fakePhotoStore, *recordingBus) {
	t.Helper()
	store := newFakeGalleryStore()
	photos := newFakePhotoStore()
	bus := &recordingBus{}
	svc := New(store, photos, bus, logger.New("development"))
	return svc, store, photos, bus
}

func seedGallery(store *fakeGalleryStore, status domain.Status, emails []string) *repository.Gallery {
	g := &repository.Gallery{
		ID:           uuid.New(),
		Slug:         "maple-street-12",
		PropertyName: "Maple Street 12",
		ClientEmails: emails,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	store.add(g)
	return g
}

func deliverRequest(link, fileKey *string) transport.DeliverRequest {
	return transport.DeliverRequest{DeliveryLink: link, DeliveryFileKey: fileKey}
}

func TestSendTransitionsPlanningToOpen(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g := seedGallery(store, domain.StatusPlanning, []string{"client@example.com"})

	resp, err := svc.Send(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.Status != domain.StatusOpen {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusOpen)
	}
	if resp.SentAt == nil {
		t.Error("sentAt not set")
	}
	if !bus.has("galleries.gallery.sent") {
		t.Errorf("expected gallery sent event, got %v", bus.names())
	}
}

func TestSendRequiresRecipient(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g := seedGallery(store, domain.StatusPlanning, nil)

	_, err := svc.Send(context.Background(), g.ID)
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestSendOutsidePlanningFails(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g := seedGallery(store, domain.StatusOpen, []string{"client@example.com"})

	_, err := svc.Send(context.Background(), g.ID)
	if !apperr.HasCode(err, domain.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
	if len(bus.names()) != 0 {
		t.Errorf("no events expected on failed send, got %v", bus.names())
	}
}

func TestOpenReviewAdvancesClosedToProcessing(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g := seedGallery(store, domain.StatusClosed, []string{"client@example.com"})

	resp, err := svc.OpenReview(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("OpenReview() error = %v", err)
	}
	if resp.Status != domain.StatusProcessing {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusProcessing)
	}
	if !bus.has("galleries.gallery.processing_started") {
		t.Errorf("expected processing started event, got %v", bus.names())
	}
}

func TestOpenReviewIsIdempotent(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g := seedGallery(store, domain.StatusClosed, []string{"client@example.com"})

	if _, err := svc.OpenReview(context.Background(), g.ID); err != nil {
		t.Fatalf("first OpenReview() error = %v", err)
	}
	resp, err := svc.OpenReview(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("second OpenReview() error = %v", err)
	}
	if resp.Status != domain.StatusProcessing {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusProcessing)
	}

	// The side effect fires exactly once.
	count := 0
	for _, n := range bus.names() {
		if n == "galleries.gallery.processing_started" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("processing started events = %d, want 1", count)
	}
}

func TestOpenReviewBeforeFinalizeFails(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g := seedGallery(store, domain.StatusOpen, []string{"client@example.com"})

	_, err := svc.OpenReview(context.Background(), g.ID)
	if !apperr.HasCode(err, domain.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestDeliverPublishesEventWithLink(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g := seedGallery(store, domain.StatusProcessing, []string{"client@example.com"})
	link := "https://downloads.example.com/final.zip"

	resp, err := svc.Deliver(context.Background(), g.ID, deliverRequest(&link, nil))
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if resp.Status != domain.StatusDelivered {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusDelivered)
	}
	if resp.DeliveredAt == nil {
		t.Error("deliveredAt not set")
	}

	for _, e := range bus.events {
		if delivered, ok := e.(events.GalleryDelivered); ok {
			if delivered.DownloadLink != link {
				t.Errorf("download link = %q, want %q", delivered.DownloadLink, link)
			}
			return
		}
	}
	t.Errorf("expected delivered event, got %v", bus.names())
}

func TestDeliverRequiresRecipient(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g := seedGallery(store, domain.StatusProcessing, nil)
	link := "https://downloads.example.com/final.zip"

	_, err := svc.Deliver(context.Background(), g.ID, deliverRequest(&link, nil))
	if !apperr.HasCode(err, domain.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestDeliverRequiresLinkOrFile(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g := seedGallery(store, domain.StatusProcessing, []string{"client@example.com"})

	_, err := svc.Deliver(context.Background(), g.ID, deliverRequest(nil, nil))
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestDeliverOutsideProcessingFails(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g := seedGallery(store, domain.StatusOpen, []string{"client@example.com"})
	link := "https://downloads.example.com/final.zip"

	_, err := svc.Deliver(context.Background(), g.ID, deliverRequest(&link, nil))
	if !apperr.HasCode(err, domain.CodeIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestReopenClearsLockAndKeepsSelection(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g := seedGallery(store, domain.StatusClosed, []string{"client@example.com"})
	store.galleries[g.ID].IsLocked = true

	resp, err := svc.Reopen(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("Reopen() error = %v", err)
	}
	if resp.Status != domain.StatusOpen {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusOpen)
	}
	if resp.IsLocked {
		t.Error("lock not cleared on reopen")
	}
	if !bus.has("galleries.gallery.reopened") {
		t.Errorf("expected reopened event, got %v", bus.names())
	}
}

func TestReopenFromDelivered(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g := seedGallery(store, domain.StatusDelivered, []string{"client@example.com"})

	resp, err := svc.Reopen(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("Reopen() error = %v", err)
	}
	if resp.Status != domain.StatusOpen {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusOpen)
	}
}

// TestFullLifecycle walks a gallery through the whole happy path including a
// reopen round trip after the first finalize.
func TestFullLifecycle(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	ctx := context.Background()
	g := seedGallery(store, domain.StatusPlanning, []string{"client@example.com"})
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	store.photoIDs[g.ID] = ids

	if _, err := svc.Send(ctx, g.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.Finalize(ctx, g.Slug, transport.FinalizeRequest{SelectedPhotoIDs: ids[:2]}, nil); err != nil {
		t.Fatalf("first finalize: %v", err)
	}

	if _, err := svc.OpenReview(ctx, g.ID); err != nil {
		t.Fatalf("review: %v", err)
	}

	// Client asks for changes, admin reopens from Processing.
	if _, err := svc.Reopen(ctx, g.ID); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	cur, _ := store.GetByID(ctx, g.ID)
	if cur.Status != domain.StatusOpen || cur.IsLocked {
		t.Fatalf("after reopen: status=%s locked=%v", cur.Status, cur.IsLocked)
	}

	// Second finalize replaces the first selection entirely.
	if _, err := svc.Finalize(ctx, g.Slug, transport.FinalizeRequest{SelectedPhotoIDs: ids[1:]}, nil); err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	last := store.finalizeCalls[len(store.finalizeCalls)-1]
	if len(last.SelectedPhotoIDs) != 2 || last.SelectedPhotoIDs[0] != ids[1] {
		t.Errorf("second finalize selection = %v", last.SelectedPhotoIDs)
	}

	if _, err := svc.OpenReview(ctx, g.ID); err != nil {
		t.Fatalf("second review: %v", err)
	}
	link := "https://downloads.example.com/final.zip"
	resp, err := svc.Deliver(ctx, g.ID, deliverRequest(&link, nil))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if resp.Status != domain.StatusDelivered {
		t.Errorf("final status = %q, want %q", resp.Status, domain.StatusDelivered)
	}

	want := []string{
		"galleries.gallery.sent",
		"galleries.gallery.finalized",
		"galleries.gallery.processing_started",
		"galleries.gallery.reopened",
		"galleries.gallery.finalized",
		"galleries.gallery.processing_started",
		"galleries.gallery.delivered",
	}
	got := bus.names()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReopenNotEligibleBeforeFinalize(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	for _, status := range []domain.Status{domain.StatusPlanning, domain.StatusOpen} {
		g := seedGallery(store, status, []string{"client@example.com"})
		_, err := svc.Reopen(context.Background(), g.ID)
		if !apperr.HasCode(err, domain.CodeNotEligible) {
			t.Errorf("status %s: expected not eligible, got %v", status, err)
		}
	}
}
