package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// ArtifactMeta describes a stored artifact without its payload.
type ArtifactMeta struct {
	ID        string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}

type ArtifactRepo interface {
	Create(ctx context.Context, blob *domain.ArtifactBlob) error
	GetByID(ctx context.Context, id string) (*domain.ArtifactBlob, error)
	List(ctx context.Context, limit int) ([]ArtifactMeta, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
