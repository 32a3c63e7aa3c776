package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type storageStub struct {
	saved map[string][]byte
	err   error
}

func (s *storageStub) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	_ = ctx
	if s.err != nil {
		return "", s.err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[name] = data
	return fmt.Sprintf("https://archive.example.com/%s", name), nil
}

type updaterStub struct {
	archivedCalls []string
	archivedLoc   string
	failedCalls   []string
	archivedErr   error
}

func (u *updaterStub) MarkArchived(ctx context.Context, videoID, location string) error {
	_ = ctx
	u.archivedCalls = append(u.archivedCalls, videoID)
	u.archivedLoc = location
	return u.archivedErr
}

func (u *updaterStub) MarkArchiveFailed(ctx context.Context, videoID string) error {
	_ = ctx
	u.failedCalls = append(u.failedCalls, videoID)
	return nil
}

func TestArchiverSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stored.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	storage := &storageStub{}
	updater := &updaterStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	archiver := New(storage, updater, Config{QueueSize: 1, Workers: 1}, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = archiver.Shutdown(ctx)
	}()

	job := Job{VideoID: "video-1", Filename: "stored.mp4", Path: path}
	if err := archiver.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(updater.archivedCalls) > 0 }, time.Second)

	if _, ok := storage.saved[filepath.Join("video-1", "stored.mp4")]; !ok {
		t.Fatalf("expected archive key to be prefixed with video id")
	}
	if updater.archivedLoc == "" {
		t.Fatal("expected archived location to be recorded")
	}
}

func TestArchiverFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stored.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	storage := &storageStub{err: fmt.Errorf("bucket unavailable")}
	updater := &updaterStub{}
	archiver := New(storage, updater, Config{QueueSize: 1, Workers: 1}, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = archiver.Shutdown(ctx)
	}()

	if err := archiver.Enqueue(context.Background(), Job{VideoID: "video-2", Filename: "stored.mp4", Path: path}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(updater.failedCalls) > 0 }, time.Second)
	if len(updater.archivedCalls) != 0 {
		t.Fatal("expected no archived calls on failure")
	}
}

func TestArchiverMissingFile(t *testing.T) {
	storage := &storageStub{}
	updater := &updaterStub{}
	archiver := New(storage, updater, Config{QueueSize: 1, Workers: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = archiver.Shutdown(ctx)
	}()

	job := Job{VideoID: "video-3", Filename: "gone.mp4", Path: filepath.Join(t.TempDir(), "gone.mp4")}
	if err := archiver.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitForCondition(t, func() bool { return len(updater.failedCalls) > 0 }, time.Second)
}

func TestArchiverEnqueueAfterShutdown(t *testing.T) {
	archiver := New(&storageStub{}, &updaterStub{}, Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := archiver.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := archiver.Enqueue(context.Background(), Job{VideoID: "video-4"}); err == nil {
		t.Fatal("expected enqueue to fail after shutdown")
	}
}

func waitForCondition(t *testing.T, predicate func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
