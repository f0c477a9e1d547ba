package service

import (
	"context"

	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	photorepo "github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
)

// ClientView builds the status-dependent client payload for a gallery slug.
// Open exposes the photo grid with selection state, Closed and Processing a
// waiting summary, Delivered the download link.
func (s *Service) ClientView(ctx context.Context, slug string) (*transport.ClientGalleryResponse, error) {
	g, err := s.galleries.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	resp := &transport.ClientGalleryResponse{
		Slug:               g.Slug,
		PropertyName:       g.PropertyName,
		Status:             g.Status,
		PackageTargetCount: g.PackageTargetCount,
		IsLocked:           g.IsLocked,
		ReviewedAt:         g.ReviewedAt,
		DeliveredAt:        g.DeliveredAt,
	}

	_, selected, err := s.photos.CountByGallery(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	resp.SelectedCount = selected

	switch g.Status {
	case domain.StatusOpen:
		photos, err := s.photos.ListByGallery(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		resp.Photos = s.toClientPhotos(ctx, photos)
	case domain.StatusDelivered:
		if link := s.downloadLink(ctx, g.FinalDeliveryLink, g.DeliveryFileKey); link != "" {
			resp.DownloadURL = &link
		}
	}

	return resp, nil
}

func (s *Service) toClientPhotos(ctx context.Context, photos []photorepo.Photo) []transport.ClientPhotoResponse {
	out := make([]transport.ClientPhotoResponse, 0, len(photos))
	for _, p := range photos {
		resp := transport.ClientPhotoResponse{
			ID:                p.ID,
			UploadOrder:       p.UploadOrder,
			IsSelected:        p.IsSelected,
			StagingRequested:  p.StagingRequested,
			StagingStyle:      p.StagingStyle,
			BlueHourRequested: p.BlueHourRequested,
			ClientComment:     p.ClientComment,
		}
		if s.storageSvc != nil {
			if presigned, err := s.storageSvc.GenerateDownloadURL(ctx, s.photosBucket, p.FileKey); err == nil {
				resp.ViewURL = presigned.URL
			}
		}
		out = append(out, resp)
	}
	return out
}
