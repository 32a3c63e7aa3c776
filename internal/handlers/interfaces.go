package handlers

import (
	"context"
	"io"
	"os"

	"github.com/speechcoach/backend/internal/archive"
	"github.com/speechcoach/backend/internal/models"
	"github.com/speechcoach/backend/internal/probe"
)

// UserStore captures the persistence operations required by the auth and
// profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// VideoStore captures persistence for the upload and serving workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListForUser(ctx context.Context, userID string) ([]models.Video, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	SetDuration(ctx context.Context, id string, duration *float64, status string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// PromptStore resolves the reflection prompts shown on the analysis page.
type PromptStore interface {
	ListActive(ctx context.Context) ([]models.Prompt, error)
	FindByID(ctx context.Context, id string) (models.Prompt, error)
}

// NoteStore captures persistence for annotation notes.
type NoteStore interface {
	Upsert(ctx context.Context, note models.Note) error
	ListWithPrompts(ctx context.Context, videoID string) ([]models.NoteWithPrompt, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
}

// FileStore abstracts where accepted uploads live on disk.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(name string) (*os.File, error)
	Path(name string) string
	Remove(name string) error
}

// MetadataProber extracts media metadata from a stored file.
type MetadataProber interface {
	Probe(ctx context.Context, path string) probe.Result
}

// VideoArchiver schedules background mirroring of stored uploads.
type VideoArchiver interface {
	Enqueue(ctx context.Context, job archive.Job) error
}
