package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"
	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Gallery represents the gallery database model
type Gallery struct {
	ID                       uuid.UUID     `db:"id"`
	Slug                     string        `db:"slug"`
	PropertyName             string        `db:"property_name"`
	ClientEmails             []string      `db:"client_emails"`
	Status                   domain.Status `db:"status"`
	PackageTargetCount       *int          `db:"package_target_count"`
	IsLocked                 bool          `db:"is_locked"`
	ExpressDeliveryRequested bool          `db:"express_delivery_requested"`
	ClientComment            *string       `db:"client_comment"`
	FinalDeliveryLink        *string       `db:"final_delivery_link"`
	DeliveryFileKey          *string       `db:"delivery_file_key"`
	ReferenceFileKey         *string       `db:"reference_file_key"`
	SentAt                   *time.Time    `db:"sent_at"`
	ReviewedAt               *time.Time    `db:"reviewed_at"`
	DeliveredAt              *time.Time    `db:"delivered_at"`
	CreatedAt                time.Time     `db:"created_at"`
	UpdatedAt                time.Time     `db:"updated_at"`
}

const galleryNotFoundMsg = "gallery not found"

const galleryColumns = `id, slug, property_name, client_emails, status, package_target_count,
	is_locked, express_delivery_requested, client_comment, final_delivery_link,
	delivery_file_key, reference_file_key, sent_at, reviewed_at, delivered_at, created_at, updated_at`

// Repository provides database operations for galleries
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new galleries repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanGallery(row pgx.Row) (*Gallery, error) {
	var g Gallery
	err := row.Scan(
		&g.ID, &g.Slug, &g.PropertyName, &g.ClientEmails, &g.Status, &g.PackageTargetCount,
		&g.IsLocked, &g.ExpressDeliveryRequested, &g.ClientComment, &g.FinalDeliveryLink,
		&g.DeliveryFileKey, &g.ReferenceFileKey, &g.SentAt, &g.ReviewedAt, &g.DeliveredAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(galleryNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to scan gallery: %w", err)
	}
	return &g, nil
}

// Create inserts a new gallery
func (r *Repository) Create(ctx context.Context, g *Gallery) error {
	query := `
		INSERT INTO galleries (
			id, slug, property_name, client_emails, status, package_target_count,
			is_locked, express_delivery_requested, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	_, err := r.pool.Exec(ctx, query,
		g.ID, g.Slug, g.PropertyName, g.ClientEmails, g.Status, g.PackageTargetCount,
		g.IsLocked, g.ExpressDeliveryRequested, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create gallery: %w", err)
	}

	return nil
}

// GetByID retrieves a gallery by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Gallery, error) {
	query := `SELECT ` + galleryColumns + ` FROM galleries WHERE id = $1`
	return scanGallery(r.pool.QueryRow(ctx, query, id))
}

// GetBySlug retrieves a gallery by its client-facing slug
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Gallery, error) {
	query := `SELECT ` + galleryColumns + ` FROM galleries WHERE slug = $1`
	return scanGallery(r.pool.QueryRow(ctx, query, slug))
}

// List retrieves galleries, newest first, optionally filtered by status
func (r *Repository) List(ctx context.Context, status *domain.Status, limit, offset int) ([]Gallery, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + galleryColumns + ` FROM galleries`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list galleries: %w", err)
	}
	defer rows.Close()

	var galleries []Gallery
	for rows.Next() {
		var g Gallery
		if err := rows.Scan(
			&g.ID, &g.Slug, &g.PropertyName, &g.ClientEmails, &g.Status, &g.PackageTargetCount,
			&g.IsLocked, &g.ExpressDeliveryRequested, &g.ClientComment, &g.FinalDeliveryLink,
			&g.DeliveryFileKey, &g.ReferenceFileKey, &g.SentAt, &g.ReviewedAt, &g.DeliveredAt, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan gallery: %w", err)
		}
		galleries = append(galleries, g)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return galleries, nil
}

// UpdateDetails updates the admin-editable gallery fields while in Planning or Open
func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, propertyName string, clientEmails []string, packageTargetCount *int, expressDelivery bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE galleries
		SET property_name = $2, client_emails = $3, package_target_count = $4,
			express_delivery_requested = $5, updated_at = now()
		WHERE id = $1`,
		id, propertyName, clientEmails, packageTargetCount, expressDelivery,
	)
	if err != nil {
		return fmt.Errorf("failed to update gallery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(galleryNotFoundMsg)
	}

	return nil
}

// MarkSent applies the Planning→Open transition with a compare-and-set on
// status. Returns false when the gallery was not in Planning.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE galleries
		SET status = $2, sent_at = now(), updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, domain.StatusOpen, domain.StatusPlanning,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark gallery sent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkProcessing applies the Closed→Processing transition. Returns false when
// the gallery was not in Closed; the caller treats an already-Processing
// gallery as satisfied.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE galleries
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, domain.StatusProcessing, domain.StatusClosed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark gallery processing: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkDelivered applies the Processing→Delivered transition, recording the
// delivery link or uploaded archive key.
func (r *Repository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveryLink, deliveryFileKey *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE galleries
		SET status = $2, delivered_at = now(), final_delivery_link = $4,
			delivery_file_key = $5, updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, domain.StatusDelivered, domain.StatusProcessing, deliveryLink, deliveryFileKey,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark gallery delivered: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reopen applies the backward transition to Open from the given status,
// unlocking selection edits. Prior selections are preserved.
func (r *Repository) Reopen(ctx context.Context, id uuid.UUID, from domain.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE galleries
		SET status = $2, is_locked = false, updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, domain.StatusOpen, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reopen gallery: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
