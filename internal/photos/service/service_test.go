package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	galdomain "github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	galrepo "github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"
	"github.com/npsfilm/proof-perfect-sub000/platform/logger"

	"github.com/google/uuid"
)

type fakePhotoStore struct {
	mu     sync.Mutex
	photos map[uuid.UUID]*repository.Photo

	toggleCalls int
	toggleGate  chan struct{} // when set, ToggleSelected blocks until closed
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{photos: make(map[uuid.UUID]*repository.Photo)}
}

func (f *fakePhotoStore) add(p *repository.Photo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos[p.ID] = p
}

func (f *fakePhotoStore) RegisterBatch(_ context.Context, galleryID uuid.UUID, fileKeys []string) ([]repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Photo, 0, len(fileKeys))
	for i, key := range fileKeys {
		p := repository.Photo{
			ID:          uuid.New(),
			GalleryID:   galleryID,
			FileKey:     key,
			UploadOrder: len(f.photos) + i,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		f.photos[p.ID] = &p
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePhotoStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, apperr.NotFound("photo not found")
	}
	copied := *p
	return &copied, nil
}

func (f *fakePhotoStore) ListByGallery(_ context.Context, galleryID uuid.UUID) ([]repository.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Photo
	for _, p := range f.photos {
		if p.GalleryID == galleryID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePhotoStore) ToggleSelected(_ context.Context, id uuid.UUID, expected bool) (bool, bool, error) {
	if f.toggleGate != nil {
		<-f.toggleGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggleCalls++
	p, ok := f.photos[id]
	if !ok || p.IsSelected != expected {
		return false, false, nil
	}
	p.IsSelected = !expected
	return p.IsSelected, true, nil
}

func (f *fakePhotoStore) UpdateComment(_ context.Context, id uuid.UUID, comment *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return apperr.NotFound("photo not found")
	}
	p.ClientComment = comment
	return nil
}

func (f *fakePhotoStore) CountByGallery(_ context.Context, galleryID uuid.UUID) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, selected := 0, 0
	for _, p := range f.photos {
		if p.GalleryID == galleryID {
			total++
			if p.IsSelected {
				selected++
			}
		}
	}
	return total, selected, nil
}

type fakeGalleryReader struct {
	gallery *galrepo.Gallery
}

func (f *fakeGalleryReader) GetByID(_ context.Context, id uuid.UUID) (*galrepo.Gallery, error) {
	if f.gallery == nil || f.gallery.ID != id {
		return nil, apperr.NotFound("gallery not found")
	}
	copied := *f.gallery
	return &copied, nil
}

func (f *fakeGalleryReader) GetBySlug(_ context.Context, slug string) (*galrepo.Gallery, error) {
	if f.gallery == nil || f.gallery.Slug != slug {
		return nil, apperr.NotFound("gallery not found")
	}
	copied := *f.gallery
	return &copied, nil
}

type countingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *countingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *countingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *countingBus) Subscribe(string, events.Handler) {}

func testGallery(status galdomain.Status, locked bool) *galrepo.Gallery {
	return &galrepo.Gallery{
		ID:           uuid.New(),
		Slug:         "oak-avenue-7",
		PropertyName: "Oak Avenue 7",
		Status:       status,
		IsLocked:     locked,
	}
}

func newToggleFixture(status galdomain.Status, locked, selected bool) (*Service, *fakePhotoStore, *galrepo.Gallery, uuid.UUID) {
	store := newFakePhotoStore()
	gallery := testGallery(status, locked)
	photo := &repository.Photo{ID: uuid.New(), GalleryID: gallery.ID, FileKey: "a.jpg", IsSelected: selected}
	store.add(photo)
	svc := New(store, &fakeGalleryReader{gallery: gallery}, &countingBus{}, logger.New("development"))
	return svc, store, gallery, photo.ID
}

func TestToggleFlipsSelection(t *testing.T) {
	svc, _, gallery, photoID := newToggleFixture(galdomain.StatusOpen, false, false)

	newState, err := svc.Toggle(context.Background(), gallery.Slug, photoID, false)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !newState {
		t.Error("newState = false, want true")
	}

	newState, err = svc.Toggle(context.Background(), gallery.Slug, photoID, true)
	if err != nil {
		t.Fatalf("second Toggle() error = %v", err)
	}
	if newState {
		t.Error("newState = true, want false")
	}
}

func TestToggleStaleStateOnLostUpdate(t *testing.T) {
	// Photo is already selected but the caller still believes it is not.
	svc, _, gallery, photoID := newToggleFixture(galdomain.StatusOpen, false, true)

	_, err := svc.Toggle(context.Background(), gallery.Slug, photoID, false)
	if !apperr.HasCode(err, galdomain.CodeStaleState) {
		t.Fatalf("error = %v, want code %q", err, galdomain.CodeStaleState)
	}
}

func TestToggleRefusedWhenNotEditable(t *testing.T) {
	tests := []struct {
		name   string
		status galdomain.Status
		locked bool
	}{
		{"planning", galdomain.StatusPlanning, false},
		{"closed", galdomain.StatusClosed, true},
		{"processing", galdomain.StatusProcessing, true},
		{"delivered", galdomain.StatusDelivered, true},
		{"open but locked", galdomain.StatusOpen, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, gallery, photoID := newToggleFixture(tt.status, tt.locked, false)

			_, err := svc.Toggle(context.Background(), gallery.Slug, photoID, false)
			if !apperr.HasCode(err, galdomain.CodeGalleryNotEditable) {
				t.Fatalf("error = %v, want code %q", err, galdomain.CodeGalleryNotEditable)
			}
			if store.toggleCalls != 0 {
				t.Error("guard failure must not reach the store")
			}
		})
	}
}

func TestTogglePhotoFromAnotherGallery(t *testing.T) {
	svc, store, gallery, _ := newToggleFixture(galdomain.StatusOpen, false, false)
	stray := &repository.Photo{ID: uuid.New(), GalleryID: uuid.New(), FileKey: "b.jpg"}
	store.add(stray)

	_, err := svc.Toggle(context.Background(), gallery.Slug, stray.ID, false)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestToggleDuplicateIntentConfirmsPendingTarget(t *testing.T) {
	svc, store, gallery, photoID := newToggleFixture(galdomain.StatusOpen, false, false)
	store.toggleGate = make(chan struct{})

	first := make(chan struct{})
	go func() {
		defer close(first)
		if _, err := svc.Toggle(context.Background(), gallery.Slug, photoID, false); err != nil {
			t.Errorf("in-flight Toggle() error = %v", err)
		}
	}()

	// Wait for the first call to park inside the store, then replay the same
	// intent. It must confirm the pending target without a second write.
	deadline := time.After(2 * time.Second)
	for {
		svc.mu.Lock()
		_, inFlight := svc.pending[photoID]
		svc.mu.Unlock()
		if inFlight {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first toggle never became pending")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	newState, err := svc.Toggle(context.Background(), gallery.Slug, photoID, false)
	if err != nil {
		t.Fatalf("duplicate Toggle() error = %v", err)
	}
	if !newState {
		t.Error("duplicate toggle must confirm the pending target")
	}

	close(store.toggleGate)
	<-first

	if store.toggleCalls != 1 {
		t.Errorf("store writes = %d, want 1", store.toggleCalls)
	}
}

func TestRegisterGuardsGalleryStatus(t *testing.T) {
	store := newFakePhotoStore()
	gallery := testGallery(galdomain.StatusClosed, true)
	bus := &countingBus{}
	svc := New(store, &fakeGalleryReader{gallery: gallery}, bus, logger.New("development"))

	_, err := svc.Register(context.Background(), gallery.ID, []string{"a.jpg"})
	if !apperr.HasCode(err, galdomain.CodeGalleryNotEditable) {
		t.Fatalf("error = %v, want code %q", err, galdomain.CodeGalleryNotEditable)
	}
	if len(bus.events) != 0 {
		t.Error("no event expected on refused registration")
	}
}

func TestRegisterPublishesEvent(t *testing.T) {
	store := newFakePhotoStore()
	gallery := testGallery(galdomain.StatusPlanning, false)
	bus := &countingBus{}
	svc := New(store, &fakeGalleryReader{gallery: gallery}, bus, logger.New("development"))

	photos, err := svc.Register(context.Background(), gallery.ID, []string{"a.jpg", "b.jpg"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photos = %d, want 2", len(photos))
	}
	if len(bus.events) != 1 {
		t.Fatalf("events = %d, want 1", len(bus.events))
	}
	registered, ok := bus.events[0].(events.PhotosRegistered)
	if !ok || registered.Count != 2 {
		t.Errorf("event = %+v", bus.events[0])
	}
}

func TestUpdateCommentGuard(t *testing.T) {
	svc, _, gallery, photoID := newToggleFixture(galdomain.StatusClosed, true, true)
	comment := "swap the sky"

	err := svc.UpdateComment(context.Background(), gallery.Slug, photoID, &comment)
	if !apperr.HasCode(err, galdomain.CodeGalleryNotEditable) {
		t.Fatalf("error = %v, want code %q", err, galdomain.CodeGalleryNotEditable)
	}
}
