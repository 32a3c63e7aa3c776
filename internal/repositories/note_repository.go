package repositories

import (
	"context"

	"github.com/speechcoach/backend/internal/models"
)

// NoteRepository exposes data access for analysis notes.
type NoteRepository interface {
	Upsert(ctx context.Context, note models.Note) error
	ListForVideo(ctx context.Context, videoID string) ([]models.Note, error)
	ListWithPrompts(ctx context.Context, videoID string) ([]models.NoteWithPrompt, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
}
