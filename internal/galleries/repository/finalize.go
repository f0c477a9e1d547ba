package repository

import (
	"context"
	"fmt"

	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StagingChoice designates one selected photo for virtual staging.
type StagingChoice struct {
	PhotoID uuid.UUID
	Style   string
}

// FinalizeParams is the validated package committed by Finalize.
type FinalizeParams struct {
	GalleryID        uuid.UUID
	SelectedPhotoIDs []uuid.UUID
	StagingChoices   []StagingChoice
	BlueHourPhotoIDs []uuid.UUID
	Comment          *string
	ExpressDelivery  bool
	ReferenceFileKey *string
}

// ListPhotoIDs returns the ids of all photos belonging to the gallery.
// Used by finalize to reject foreign photo ids before opening a transaction.
func (r *Repository) ListPhotoIDs(ctx context.Context, galleryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM photos WHERE gallery_id = $1`, galleryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photo ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan photo id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return ids, nil
}

// Finalize commits the client's package as one transaction: selection replace,
// add-on flags, gallery comment and the Open→Closed compare-and-set. Returns
// false without committing when the gallery was no longer Open, so two
// concurrent finalize calls produce exactly one set of side effects.
func (r *Repository) Finalize(ctx context.Context, p FinalizeParams) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin finalize: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Selection is a replace, not a merge: exactly the selected ids end up
	// true, every other photo false with add-on flags reset.
	_, err = tx.Exec(ctx, `
		UPDATE photos
		SET is_selected = (id = ANY($2)), staging_requested = false, staging_style = NULL,
			blue_hour_requested = false, updated_at = now()
		WHERE gallery_id = $1`,
		p.GalleryID, p.SelectedPhotoIDs,
	)
	if err != nil {
		return false, fmt.Errorf("failed to replace selection: %w", err)
	}

	for _, choice := range p.StagingChoices {
		_, err = tx.Exec(ctx, `
			UPDATE photos
			SET staging_requested = true, staging_style = $3, updated_at = now()
			WHERE id = $2 AND gallery_id = $1`,
			p.GalleryID, choice.PhotoID, choice.Style,
		)
		if err != nil {
			return false, fmt.Errorf("failed to apply staging add-on: %w", err)
		}
	}

	if len(p.BlueHourPhotoIDs) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE photos
			SET blue_hour_requested = true, updated_at = now()
			WHERE gallery_id = $1 AND id = ANY($2)`,
			p.GalleryID, p.BlueHourPhotoIDs,
		)
		if err != nil {
			return false, fmt.Errorf("failed to apply blue-hour add-on: %w", err)
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE galleries
		SET status = $2, reviewed_at = now(), is_locked = true, client_comment = $4,
			express_delivery_requested = $5, reference_file_key = COALESCE($6, reference_file_key),
			updated_at = now()
		WHERE id = $1 AND status = $3`,
		p.GalleryID, domain.StatusClosed, domain.StatusOpen, p.Comment, p.ExpressDelivery, p.ReferenceFileKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to close gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit finalize: %w", err)
	}
	return true, nil
}
