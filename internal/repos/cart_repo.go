package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"maisonaurore/internal/domain"
)

// CartRepo keeps one serialized cart blob (and one last-added marker) per
// session in sqlite.
type CartRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db, now: time.Now} }

func (r *CartRepo) Read(ctx context.Context, sessionID string) ([]byte, error) {
	var blob string
	err := r.db.GetContext(ctx, &blob, `SELECT blob FROM cart_blobs WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(blob), nil
}

func (r *CartRepo) Write(ctx context.Context, sessionID string, blob []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_blobs(session_id, blob, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE
		SET blob = excluded.blob, updated_at = excluded.updated_at
	`, sessionID, string(blob), r.now().UTC().Format(time.RFC3339))
	return err
}

func (r *CartRepo) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_blobs WHERE session_id = ?`, sessionID)
	return err
}

func (r *CartRepo) ReadMarker(ctx context.Context, sessionID string) ([]byte, error) {
	var row struct {
		Blob      string        `db:"blob"`
		ExpiresAt sql.NullInt64 `db:"expires_at"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT blob, expires_at FROM cart_markers WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt.Valid && row.ExpiresAt.Int64 <= r.now().UnixMilli() {
		_ = r.ClearMarker(ctx, sessionID)
		return nil, domain.ErrNotFound
	}
	return []byte(row.Blob), nil
}

// WriteMarker stores the marker; ttl <= 0 keeps it until cleared.
func (r *CartRepo) WriteMarker(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	var expires sql.NullInt64
	if ttl > 0 {
		expires = sql.NullInt64{Int64: r.now().Add(ttl).UnixMilli(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_markers(session_id, blob, expires_at)
		VALUES(?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE
		SET blob = excluded.blob, expires_at = excluded.expires_at
	`, sessionID, string(blob), expires)
	return err
}

func (r *CartRepo) ClearMarker(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_markers WHERE session_id = ?`, sessionID)
	return err
}
