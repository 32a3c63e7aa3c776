package repositories

import (
	"context"

	"github.com/speechcoach/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListForUser(ctx context.Context, userID string) ([]models.Video, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	SetDuration(ctx context.Context, id string, duration *float64, status string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}
