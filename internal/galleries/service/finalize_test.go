package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/adapters/storage"
	"github.com/npsfilm/proof-perfect-sub000/internal/events"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"

	"github.com/google/uuid"
)

type fakeStorage struct {
	uploadedKeys []string
	uploadErr    error
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, _, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://storage.test/upload", FileKey: folder + "/" + fileName, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://storage.test/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeStorage) DownloadFile(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStorage) DeleteObject(context.Context, string, string) error { return nil }

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	key := folder + "/" + fileName
	f.uploadedKeys = append(f.uploadedKeys, key)
	return key, nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }
func (f *fakeStorage) ValidateContentType(string) error                 { return nil }
func (f *fakeStorage) ValidateFileSize(int64) error                     { return nil }
func (f *fakeStorage) GetMaxFileSize() int64                            { return 50 << 20 }

func seedOpenGalleryWithPhotos(store *fakeGalleryStore, n int) (*repository.Gallery, []uuid.UUID) {
	g := seedGallery(store, domain.StatusOpen, []string{"client@example.com"})
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	store.photoIDs[g.ID] = ids
	return g, ids
}

func TestFinalizeClosesGalleryAndReplacesSelection(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g, ids := seedOpenGalleryWithPhotos(store, 4)
	comment := "please brighten the kitchen shots"

	req := transport.FinalizeRequest{
		SelectedPhotoIDs: []uuid.UUID{ids[0], ids[1], ids[0]},
		AddOns: transport.FinalizeAddOns{
			ExpressDelivery:    true,
			StagingSelections:  []transport.StagingSelection{{PhotoID: ids[0], Style: "scandinavian"}},
			BlueHourSelections: []uuid.UUID{ids[1]},
		},
		Comment: &comment,
	}

	resp, err := svc.Finalize(context.Background(), g.Slug, req, nil)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if resp.Status != domain.StatusClosed {
		t.Errorf("status = %q, want %q", resp.Status, domain.StatusClosed)
	}
	if resp.SelectedCount != 2 {
		t.Errorf("selectedCount = %d, want 2 (duplicates collapsed)", resp.SelectedCount)
	}

	if len(store.finalizeCalls) != 1 {
		t.Fatalf("finalize calls = %d, want 1", len(store.finalizeCalls))
	}
	params := store.finalizeCalls[0]
	if len(params.SelectedPhotoIDs) != 2 {
		t.Errorf("selected ids = %d, want 2", len(params.SelectedPhotoIDs))
	}
	if len(params.StagingChoices) != 1 || params.StagingChoices[0].Style != "scandinavian" {
		t.Errorf("staging choices = %+v", params.StagingChoices)
	}
	if !params.ExpressDelivery {
		t.Error("express delivery not carried into params")
	}

	var finalized *events.GalleryFinalized
	for _, e := range bus.events {
		if f, ok := e.(events.GalleryFinalized); ok {
			finalized = &f
		}
	}
	if finalized == nil {
		t.Fatalf("expected finalized event, got %v", bus.names())
	}
	if finalized.SelectedCount != 2 {
		t.Errorf("event selectedCount = %d, want 2", finalized.SelectedCount)
	}
	// staging + blue hour + express
	if finalized.AddonCount != 3 {
		t.Errorf("event addonCount = %d, want 3", finalized.AddonCount)
	}

	updated, _ := store.GetByID(context.Background(), g.ID)
	if updated.Status != domain.StatusClosed || !updated.IsLocked {
		t.Errorf("gallery after finalize: status=%s locked=%v", updated.Status, updated.IsLocked)
	}
	if updated.ClientComment == nil || *updated.ClientComment != comment {
		t.Error("client comment not stored")
	}
}

func TestFinalizeValidationOrder(t *testing.T) {
	foreign := uuid.New()

	tests := []struct {
		name     string
		status   domain.Status
		locked   bool
		build    func(ids []uuid.UUID) transport.FinalizeRequest
		wantCode string
	}{
		{
			name:   "not editable wins over empty selection",
			status: domain.StatusClosed,
			locked: true,
			build: func([]uuid.UUID) transport.FinalizeRequest {
				return transport.FinalizeRequest{}
			},
			wantCode: domain.CodeGalleryNotEditable,
		},
		{
			name:   "locked open gallery is not editable",
			status: domain.StatusOpen,
			locked: true,
			build: func(ids []uuid.UUID) transport.FinalizeRequest {
				return transport.FinalizeRequest{SelectedPhotoIDs: ids[:1]}
			},
			wantCode: domain.CodeGalleryNotEditable,
		},
		{
			name:   "empty selection wins over foreign photo",
			status: domain.StatusOpen,
			build: func([]uuid.UUID) transport.FinalizeRequest {
				return transport.FinalizeRequest{
					AddOns: transport.FinalizeAddOns{BlueHourSelections: []uuid.UUID{foreign}},
				}
			},
			wantCode: domain.CodeEmptySelection,
		},
		{
			name:   "foreign photo wins over add-on check",
			status: domain.StatusOpen,
			build: func(ids []uuid.UUID) transport.FinalizeRequest {
				return transport.FinalizeRequest{
					SelectedPhotoIDs: []uuid.UUID{ids[0], foreign},
					AddOns:           transport.FinalizeAddOns{BlueHourSelections: []uuid.UUID{foreign}},
				}
			},
			wantCode: domain.CodeForeignPhoto,
		},
		{
			name:   "staging add-on must target a selected photo",
			status: domain.StatusOpen,
			build: func(ids []uuid.UUID) transport.FinalizeRequest {
				return transport.FinalizeRequest{
					SelectedPhotoIDs: ids[:1],
					AddOns: transport.FinalizeAddOns{
						StagingSelections: []transport.StagingSelection{{PhotoID: ids[1], Style: "modern"}},
					},
				}
			},
			wantCode: domain.CodeAddOnOnUnselectedPhoto,
		},
		{
			name:   "blue hour add-on must target a selected photo",
			status: domain.StatusOpen,
			build: func(ids []uuid.UUID) transport.FinalizeRequest {
				return transport.FinalizeRequest{
					SelectedPhotoIDs: ids[:1],
					AddOns:           transport.FinalizeAddOns{BlueHourSelections: []uuid.UUID{ids[1]}},
				}
			},
			wantCode: domain.CodeAddOnOnUnselectedPhoto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, _ := newTestService(t)
			g := seedGallery(store, tt.status, []string{"client@example.com"})
			store.galleries[g.ID].IsLocked = tt.locked
			ids := []uuid.UUID{uuid.New(), uuid.New()}
			store.photoIDs[g.ID] = ids

			_, err := svc.Finalize(context.Background(), g.Slug, tt.build(ids), nil)
			if !apperr.HasCode(err, tt.wantCode) {
				t.Fatalf("error = %v, want code %q", err, tt.wantCode)
			}
			if len(store.finalizeCalls) != 0 {
				t.Error("validation failure must not reach the store")
			}
		})
	}
}

func TestFinalizeLostRaceReportsCurrentState(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g, ids := seedOpenGalleryWithPhotos(store, 2)
	store.finalizeResult = false
	store.galleries[g.ID].Status = domain.StatusClosed
	store.galleries[g.ID].IsLocked = true

	_, err := svc.Finalize(context.Background(), g.Slug, transport.FinalizeRequest{SelectedPhotoIDs: ids}, nil)
	if !apperr.HasCode(err, domain.CodeGalleryNotEditable) {
		t.Fatalf("error = %v, want code %q", err, domain.CodeGalleryNotEditable)
	}
	if bus.has("galleries.gallery.finalized") {
		t.Error("no event may fire when the commit lost the race")
	}
}

func TestFinalizeUploadsReferenceFileBeforeCommit(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g, ids := seedOpenGalleryWithPhotos(store, 2)
	fs := &fakeStorage{}
	svc.SetStorage(fs, "photos", "references", "deliveries")

	ref := &ReferenceUpload{
		FileName:    "floorplan.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		Reader:      strings.NewReader("pdf-bytes"),
	}
	_, err := svc.Finalize(context.Background(), g.Slug, transport.FinalizeRequest{SelectedPhotoIDs: ids}, ref)
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if len(fs.uploadedKeys) != 1 {
		t.Fatalf("uploads = %d, want 1", len(fs.uploadedKeys))
	}
	if store.finalizeCalls[0].ReferenceFileKey == nil || *store.finalizeCalls[0].ReferenceFileKey != fs.uploadedKeys[0] {
		t.Error("reference file key not passed to the commit")
	}
}

func TestFinalizeStorageFailureAborts(t *testing.T) {
	svc, store, _, bus := newTestService(t)
	g, ids := seedOpenGalleryWithPhotos(store, 2)
	svc.SetStorage(&fakeStorage{uploadErr: errors.New("connection refused")}, "photos", "references", "deliveries")

	ref := &ReferenceUpload{
		FileName:    "floorplan.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		Reader:      strings.NewReader("pdf-bytes"),
	}
	_, err := svc.Finalize(context.Background(), g.Slug, transport.FinalizeRequest{SelectedPhotoIDs: ids}, ref)
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("error = %v, want internal", err)
	}
	if len(store.finalizeCalls) != 0 {
		t.Error("storage failure must abort before the commit")
	}
	if len(bus.names()) != 0 {
		t.Errorf("no events expected, got %v", bus.names())
	}

	updated, _ := store.GetByID(context.Background(), g.ID)
	if updated.Status != domain.StatusOpen {
		t.Errorf("gallery status changed to %s on aborted finalize", updated.Status)
	}
}

func TestFinalizeWithoutStorageConfigured(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	g, ids := seedOpenGalleryWithPhotos(store, 2)

	ref := &ReferenceUpload{FileName: "notes.txt", ContentType: "text/plain", Size: 10, Reader: strings.NewReader("hello")}
	_, err := svc.Finalize(context.Background(), g.Slug, transport.FinalizeRequest{SelectedPhotoIDs: ids}, ref)
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("error = %v, want unavailable", err)
	}
	if len(store.finalizeCalls) != 0 {
		t.Error("missing storage must abort before the commit")
	}
}
