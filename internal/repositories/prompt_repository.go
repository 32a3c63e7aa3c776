package repositories

import (
	"context"

	"github.com/speechcoach/backend/internal/models"
)

// PromptRepository exposes data access for reflection prompts.
type PromptRepository interface {
	ListActive(ctx context.Context) ([]models.Prompt, error)
	FindByID(ctx context.Context, id string) (models.Prompt, error)
	Count(ctx context.Context) (int64, error)
	SeedDefaults(ctx context.Context) error
}
