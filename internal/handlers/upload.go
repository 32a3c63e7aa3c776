package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/speechcoach/backend/internal/archive"
	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/logging"
	"github.com/speechcoach/backend/internal/models"
	"github.com/speechcoach/backend/internal/probe"
	"github.com/speechcoach/backend/internal/storage"
	"github.com/speechcoach/backend/internal/uploads"
)

// multipartMemoryLimit caps how much of a parsed form is held in memory;
// larger parts spool to temporary files.
const multipartMemoryLimit = 32 << 20

// UploadHandler accepts video uploads and drives them through validation,
// local storage, record creation, duration probing, and archival scheduling.
type UploadHandler struct {
	Videos   VideoStore
	Files    FileStore
	Prober   MetadataProber
	Archiver VideoArchiver
	Limiter  RateLimiter
	MaxBytes int64
	NowFunc  func() time.Time
}

// Upload handles POST /upload requests. The side-effect order is strict:
// nothing is written for rejected uploads, the file reaches disk before the
// database row, and the row is committed before probing starts. Probe and
// archive failures degrade the record but never fail the request.
func (h UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "upload") {
		logger.Warn("upload rate limited", "remote", r.RemoteAddr)
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	if h.Videos == nil || h.Files == nil {
		logger.Error("upload dependencies unavailable", "hasVideos", h.Videos != nil, "hasFiles", h.Files != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "upload services unavailable"})
		return
	}

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	limit := h.MaxBytes
	if limit <= 0 {
		limit = uploads.MaxUploadBytes
	}

	// Slack over the limit covers multipart framing; the exact size check
	// happens against the materialized part below.
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemoryLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("upload exceeded request size ceiling", "limit", maxErr.Limit)
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": (&uploads.FileTooLargeError{Size: maxErr.Limit, Limit: limit}).Error()})
			return
		}
		logger.Warn("invalid multipart payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart payload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("upload missing file field", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "file field is required"})
		return
	}
	defer file.Close()

	if err := uploads.ValidateFile(header.Filename, header.Header.Get("Content-Type")); err != nil {
		logger.Warn("upload rejected", "filename", header.Filename, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := uploads.CheckSize(header.Size, limit); err != nil {
		logger.Warn("upload too large", "filename", header.Filename, "size", header.Size)
		respondJSON(ctx, w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}

	name := storage.AssignName(header.Filename)
	path, err := h.Files.Save(ctx, name, file)
	if err != nil {
		logger.Error("store upload", "filename", header.Filename, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to store upload"})
		return
	}

	archiveStatus := models.ArchiveStatusNone
	if h.Archiver != nil {
		archiveStatus = models.ArchiveStatusPending
	}

	video := models.Video{
		ID:            uuid.NewString(),
		UserID:        userID,
		Filename:      name,
		OriginalName:  header.Filename,
		FileSize:      header.Size,
		Status:        models.VideoStatusUploaded,
		ArchiveStatus: archiveStatus,
		UploadedAt:    h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		if removeErr := h.Files.Remove(name); removeErr != nil {
			logger.Error("remove orphaned upload", "filename", name, "error", removeErr)
		}
		logger.Error("create video record", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to record upload"})
		return
	}

	h.recordDuration(r, logger, video.ID, path)

	if h.Archiver != nil {
		job := archive.Job{VideoID: video.ID, Filename: name, Path: path}
		if err := h.Archiver.Enqueue(ctx, job); err != nil {
			logger.Warn("schedule archive", "videoId", video.ID, "error", err)
		}
	}

	http.Redirect(w, r, "/analysis/"+video.ID, http.StatusSeeOther)
}

// recordDuration runs the probe and folds the outcome into the stored record.
// Completed and Degraded both finish the upload; only an unreadable stored
// file marks the video as errored.
func (h UploadHandler) recordDuration(r *http.Request, logger *slog.Logger, videoID, path string) {
	ctx := r.Context()

	result := probe.Result{Outcome: probe.OutcomeDegraded}
	if h.Prober != nil {
		result = h.Prober.Probe(ctx, path)
	}

	switch result.Outcome {
	case probe.OutcomeFailed:
		logger.Error("stored upload unreadable", "videoId", videoID, "path", path)
		if err := h.Videos.UpdateStatus(ctx, videoID, models.VideoStatusError); err != nil {
			logger.Error("mark video errored", "videoId", videoID, "error", err)
		}
	default:
		if result.Outcome == probe.OutcomeDegraded {
			logger.Warn("duration probe degraded", "videoId", videoID)
		}
		if err := h.Videos.SetDuration(ctx, videoID, result.Duration, models.VideoStatusCompleted); err != nil {
			logger.Error("record video duration", "videoId", videoID, "error", err)
		}
	}
}

func (h UploadHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
