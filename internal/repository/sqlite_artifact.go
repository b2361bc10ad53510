package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/bananadeck/internal/db"
	"github.com/alexanderramin/bananadeck/internal/domain"
)

// SQLiteArtifactRepo implements ArtifactRepo using a SQLite database.
type SQLiteArtifactRepo struct {
	db db.DBTX
}

// NewSQLiteArtifactRepo creates a new SQLiteArtifactRepo.
func NewSQLiteArtifactRepo(conn db.DBTX) *SQLiteArtifactRepo {
	return &SQLiteArtifactRepo{db: conn}
}

func (r *SQLiteArtifactRepo) Create(ctx context.Context, b *domain.ArtifactBlob) error {
	if b.ID == "" {
		return errors.New("artifact id is required")
	}
	if len(b.Data) == 0 {
		return errors.New("artifact data is empty")
	}
	b.MimeType = sniffMime(b.MimeType, b.Data)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO artifacts (id, mime_type, data, size_bytes, prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.MimeType,
		b.Data,
		len(b.Data),
		b.Prompt,
		formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting artifact: %w", err)
	}
	return nil
}

func (r *SQLiteArtifactRepo) GetByID(ctx context.Context, id string) (*domain.ArtifactBlob, error) {
	query := `SELECT id, mime_type, data, prompt, created_at FROM artifacts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var (
		b         domain.ArtifactBlob
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.MimeType, &b.Data, &b.Prompt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("artifact %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning artifact: %w", err)
	}
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}

// List returns the newest artifacts first. limit <= 0 means no limit.
func (r *SQLiteArtifactRepo) List(ctx context.Context, limit int) ([]ArtifactMeta, error) {
	query := `SELECT id, mime_type, size_bytes, created_at FROM artifacts
		ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	defer rows.Close()

	var out []ArtifactMeta
	for rows.Next() {
		var (
			m         ArtifactMeta
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.MimeType, &m.SizeBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning artifact row: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteBefore removes artifacts created before cutoff and reports how many went.
func (r *SQLiteArtifactRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM artifacts WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning artifacts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning artifacts: %w", err)
	}
	return n, nil
}
