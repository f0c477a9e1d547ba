package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reopen request statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const uniqueViolationCode = "23505"

// ReopenRequest represents a client appeal to unlock a finalized gallery.
// GallerySlug and PropertyName are populated by list queries for admin
// display and are not stored on the request row.
type ReopenRequest struct {
	ID           uuid.UUID  `db:"id"`
	GalleryID    uuid.UUID  `db:"gallery_id"`
	Status       string     `db:"status"`
	Message      *string    `db:"message"`
	ResolvedBy   *uuid.UUID `db:"resolved_by"`
	CreatedAt    time.Time  `db:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
	GallerySlug  string     `db:"-"`
	PropertyName string     `db:"-"`
}

// Repository provides database operations for reopen requests
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reopen request repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending reopen request. A partial unique index allows at
// most one pending request per gallery; a second one is refused.
func (r *Repository) Create(ctx context.Context, req *ReopenRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reopen_requests (id, gallery_id, status, message, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		req.ID, req.GalleryID, req.Status, req.Message, req.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperr.Conflict("a reopen request is already pending for this gallery").
				WithCode("reopen_request_pending")
		}
		return fmt.Errorf("failed to create reopen request: %w", err)
	}

	return nil
}

// GetByID retrieves a reopen request by its id
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ReopenRequest, error) {
	var req ReopenRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, gallery_id, status, message, resolved_by, created_at, resolved_at
		FROM reopen_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.GalleryID, &req.Status, &req.Message, &req.ResolvedBy, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("reopen request not found")
		}
		return nil, fmt.Errorf("failed to get reopen request: %w", err)
	}

	return &req, nil
}

// List retrieves reopen requests, newest first, optionally filtered by status
func (r *Repository) List(ctx context.Context, status *string) ([]ReopenRequest, error) {
	query := `
		SELECT rr.id, rr.gallery_id, rr.status, rr.message, rr.resolved_by,
			rr.created_at, rr.resolved_at, g.slug, g.property_name
		FROM reopen_requests rr
		JOIN galleries g ON g.id = rr.gallery_id`
	args := []any{}
	if status != nil {
		query += ` WHERE rr.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY rr.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reopen requests: %w", err)
	}
	defer rows.Close()

	var requests []ReopenRequest
	for rows.Next() {
		var req ReopenRequest
		if err := rows.Scan(
			&req.ID, &req.GalleryID, &req.Status, &req.Message, &req.ResolvedBy,
			&req.CreatedAt, &req.ResolvedAt, &req.GallerySlug, &req.PropertyName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reopen request: %w", err)
		}
		requests = append(requests, req)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return requests, nil
}

// HasPending reports whether the gallery has an unresolved reopen request
func (r *Repository) HasPending(ctx context.Context, galleryID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM reopen_requests WHERE gallery_id = $1 AND status = $2)`,
		galleryID, StatusPending,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending reopen request: %w", err)
	}
	return exists, nil
}

// Resolve applies the pending→decision compare-and-set. Returns false when
// the request was already resolved, so two admin tabs cannot both win.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, decision string, resolvedBy uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reopen_requests
		SET status = $2, resolved_by = $3, resolved_at = now()
		WHERE id = $1 AND status = $4`,
		id, decision, resolvedBy, StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve reopen request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
