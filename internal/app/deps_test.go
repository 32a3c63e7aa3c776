package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/speechcoach/backend/internal/config"
)

func TestBuildDependenciesWiring(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.UploadDir = t.TempDir()
	cfg.ObjectStore.Bucket = ""

	deps, cleanup, err := buildDependencies(context.Background(), nil, cfg, slog.Default())
	if err != nil {
		t.Fatalf("build dependencies: %v", err)
	}
	defer func() {
		if err := cleanup(context.Background()); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}()

	if deps.Users == nil || deps.Sessions == nil || deps.Authenticator == nil {
		t.Fatal("expected auth collaborators to be wired")
	}
	if deps.Videos == nil || deps.Prompts == nil || deps.Notes == nil {
		t.Fatal("expected repositories to be wired")
	}
	if deps.Files == nil || deps.Prober == nil {
		t.Fatal("expected storage and prober to be wired")
	}
	if deps.Archiver != nil {
		t.Fatal("expected archiving to stay disabled without a bucket")
	}
	if deps.AuthLimiter == nil || deps.UploadLimiter == nil {
		t.Fatal("expected rate limiters to be wired")
	}
	if deps.MaxUploadBytes != cfg.MaxUploadBytes {
		t.Fatalf("expected upload ceiling %d, got %d", cfg.MaxUploadBytes, deps.MaxUploadBytes)
	}
}
