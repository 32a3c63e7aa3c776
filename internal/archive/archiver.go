// Package archive mirrors stored uploads to an off-site object store in the
// background. Archiving is best-effort: a failed mirror marks the video's
// archive status but never affects the upload that produced it.
package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"sync"
	"time"
)

// Storage persists archival copies of uploaded files.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// StatusUpdater records archive outcomes on the owning video row.
type StatusUpdater interface {
	MarkArchived(ctx context.Context, videoID, location string) error
	MarkArchiveFailed(ctx context.Context, videoID string) error
}

// Config controls the concurrency characteristics of the archiver.
type Config struct {
	QueueSize int
	Workers   int
}

// Job identifies one stored file to mirror.
type Job struct {
	VideoID  string
	Filename string
	Path     string
}

// Archiver asynchronously copies stored uploads to the archive bucket.
type Archiver struct {
	storage Storage
	updater StatusUpdater
	logger  *slog.Logger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errArchiverClosed = errors.New("archiver closed")

// New constructs a background worker pool that mirrors uploads.
func New(storage Storage, updater StatusUpdater, cfg Config, logger *slog.Logger) *Archiver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Archiver{
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan Job, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	a.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go a.worker()
	}

	return a
}

// Enqueue schedules an archival copy for the supplied job.
func (a *Archiver) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return errArchiverClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return errArchiverClosed
	case a.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (a *Archiver) Shutdown(ctx context.Context) error {
	a.once.Do(func() {
		a.cancel()
		close(a.jobs)
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (a *Archiver) worker() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case job, ok := <-a.jobs:
			if !ok {
				return
			}
			a.handleJob(job)
		}
	}
}

func (a *Archiver) handleJob(job Job) {
	if a.storage == nil || a.updater == nil {
		a.logger.Error("archiver missing dependencies", "hasStorage", a.storage != nil, "hasUpdater", a.updater != nil)
		return
	}

	f, err := os.Open(job.Path)
	if err != nil {
		a.logger.Error("archive open failed", "videoId", job.VideoID, "path", job.Path, "error", err)
		a.recordFailure(job.VideoID)
		return
	}
	defer f.Close()

	uploadCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key := path.Join(job.VideoID, job.Filename)
	location, err := a.storage.Save(uploadCtx, key, f)
	if err != nil {
		a.logger.Error("archive upload failed", "videoId", job.VideoID, "error", err)
		a.recordFailure(job.VideoID)
		return
	}

	if err := a.recordSuccess(job.VideoID, location); err != nil {
		a.logger.Error("mark video archived", "videoId", job.VideoID, "error", err)
		a.recordFailure(job.VideoID)
	}
}

func (a *Archiver) recordFailure(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.updater.MarkArchiveFailed(ctx, videoID); err != nil {
		a.logger.Error("record archive failure", "videoId", videoID, "error", err)
	}
}

func (a *Archiver) recordSuccess(videoID, location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return a.updater.MarkArchived(ctx, videoID, location)
}
