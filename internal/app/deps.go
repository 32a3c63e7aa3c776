package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/speechcoach/backend/internal/archive"
	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/config"
	"github.com/speechcoach/backend/internal/db"
	"github.com/speechcoach/backend/internal/handlers"
	"github.com/speechcoach/backend/internal/middleware"
	"github.com/speechcoach/backend/internal/probe"
	"github.com/speechcoach/backend/internal/repositories"
	"github.com/speechcoach/backend/internal/storage"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 24 * time.Hour
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background workers and must run
// before the process exits.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	files, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	ffprobe := probe.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)
	prober := probe.NewCachingProber(ffprobe, cfg.ProbeCacheTTL)

	sessionStore := repositories.NewPostgresSessionStore(pool)
	sessions := auth.NewManager(accessTokenTTL, refreshTokenTTL, sessionStore)

	videoRepo := repositories.NewPostgresVideoRepository(pool)

	var archiver handlers.VideoArchiver
	cleanup := func(context.Context) error { return nil }
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure archive storage: %w", err)
		}
		workers := archive.New(s3Store, videoRepo, archive.Config{
			QueueSize: cfg.Archive.QueueSize,
			Workers:   cfg.Archive.Workers,
		}, logger)
		archiver = workers
		cleanup = workers.Shutdown
	}

	deps := handlers.Dependencies{
		Users:          repositories.NewPostgresUserRepository(pool),
		Sessions:       sessions,
		Authenticator:  sessions,
		Videos:         videoRepo,
		Prompts:        repositories.NewPostgresPromptRepository(pool),
		Notes:          repositories.NewPostgresNoteRepository(pool),
		Files:          files,
		Prober:         prober,
		Archiver:       archiver,
		AuthLimiter:    middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		UploadLimiter:  middleware.NewIPRateLimiter(6, time.Minute, 3, 10*time.Minute),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	return deps, cleanup, nil
}
