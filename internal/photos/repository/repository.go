package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Photo represents the photo database model
type Photo struct {
	ID                uuid.UUID `db:"id"`
	GalleryID         uuid.UUID `db:"gallery_id"`
	FileKey           string    `db:"file_key"`
	UploadOrder       int       `db:"upload_order"`
	IsSelected        bool      `db:"is_selected"`
	StagingRequested  bool      `db:"staging_requested"`
	StagingStyle      *string   `db:"staging_style"`
	BlueHourRequested bool      `db:"blue_hour_requested"`
	ClientComment     *string   `db:"client_comment"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

const photoNotFoundMsg = "photo not found"

const photoColumns = `id, gallery_id, file_key, upload_order, is_selected, staging_requested,
	staging_style, blue_hour_requested, client_comment, created_at, updated_at`

// Repository provides database operations for photos
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new photos repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RegisterBatch inserts new photos for a gallery, assigning consecutive
// upload_order values after the current maximum. The order is the stable sort
// key of the client view.
func (r *Repository) RegisterBatch(ctx context.Context, galleryID uuid.UUID, fileKeys []string) ([]Photo, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin register batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var nextOrder int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(upload_order), 0) + 1 FROM photos WHERE gallery_id = $1`,
		galleryID,
	).Scan(&nextOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to determine upload order: %w", err)
	}

	now := time.Now().UTC()
	photos := make([]Photo, 0, len(fileKeys))
	for i, fileKey := range fileKeys {
		p := Photo{
			ID:          uuid.New(),
			GalleryID:   galleryID,
			FileKey:     fileKey,
			UploadOrder: nextOrder + i,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO photos (id, gallery_id, file_key, upload_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.GalleryID, p.FileKey, p.UploadOrder, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register photo: %w", err)
		}
		photos = append(photos, p)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit register batch: %w", err)
	}
	return photos, nil
}

// GetByID retrieves a photo by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Photo, error) {
	var p Photo
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.GalleryID, &p.FileKey, &p.UploadOrder, &p.IsSelected, &p.StagingRequested,
		&p.StagingStyle, &p.BlueHourRequested, &p.ClientComment, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(photoNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	return &p, nil
}

// ListByGallery retrieves all photos of a gallery in upload order
func (r *Repository) ListByGallery(ctx context.Context, galleryID uuid.UUID) ([]Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE gallery_id = $1 ORDER BY upload_order ASC`

	rows, err := r.pool.Query(ctx, query, galleryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(
			&p.ID, &p.GalleryID, &p.FileKey, &p.UploadOrder, &p.IsSelected, &p.StagingRequested,
			&p.StagingStyle, &p.BlueHourRequested, &p.ClientComment, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return photos, nil
}

// ToggleSelected flips is_selected with a compare-and-set on the expected
// current value. Returns the new state and false when the persisted state no
// longer matched (lost update).
func (r *Repository) ToggleSelected(ctx context.Context, id uuid.UUID, expected bool) (bool, bool, error) {
	var newState bool
	err := r.pool.QueryRow(ctx, `
		UPDATE photos
		SET is_selected = NOT is_selected, updated_at = now()
		WHERE id = $1 AND is_selected = $2
		RETURNING is_selected`,
		id, expected,
	).Scan(&newState)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to toggle photo selection: %w", err)
	}

	return newState, true, nil
}

// UpdateComment sets the client comment of a photo
func (r *Repository) UpdateComment(ctx context.Context, id uuid.UUID, comment *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE photos
		SET client_comment = $2, updated_at = now()
		WHERE id = $1`,
		id, comment,
	)
	if err != nil {
		return fmt.Errorf("failed to update photo comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(photoNotFoundMsg)
	}

	return nil
}

// CountByGallery returns the total and selected photo counts of a gallery
func (r *Repository) CountByGallery(ctx context.Context, galleryID uuid.UUID) (total int, selected int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_selected)
		FROM photos WHERE gallery_id = $1`,
		galleryID,
	).Scan(&total, &selected)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return total, selected, nil
}
