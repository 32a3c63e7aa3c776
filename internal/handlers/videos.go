package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/logging"
	"github.com/speechcoach/backend/internal/models"
	"github.com/speechcoach/backend/internal/probe"
	"github.com/speechcoach/backend/internal/repositories"
)

// VideoHandler serves stored videos and their metadata to their owners.
type VideoHandler struct {
	Videos VideoStore
	Files  FileStore
	Prober MetadataProber
}

// Serve handles GET /video/{id} requests. Ownership is enforced before the
// file is touched so a non-owner learns nothing about asset existence.
// http.ServeContent provides Accept-Ranges and 206 partial responses.
func (h VideoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	f, err := h.Files.Open(video.Filename)
	if err != nil {
		logger.Error("open stored video", "videoId", video.ID, "error", err)
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video file not found"})
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		logger.Error("stat stored video", "videoId", video.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to read video"})
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, video.Filename, stat.ModTime(), f)
}

// Info handles GET /api/v1/videos/{id}/info requests, combining the stored
// record with probed resolution. Probe results come through the caching
// prober so repeated info requests do not re-run ffprobe.
func (h VideoHandler) Info(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	resp := videoInfoResponse{
		ID:           video.ID,
		OriginalName: video.OriginalName,
		FileSize:     video.FileSize,
		Duration:     video.Duration,
		Status:       video.Status,
	}

	if h.Prober != nil && h.Files != nil {
		result := h.Prober.Probe(ctx, h.Files.Path(video.Filename))
		if result.Outcome == probe.OutcomeCompleted {
			if resp.Duration == nil {
				resp.Duration = result.Duration
			}
			resp.Width = result.Width
			resp.Height = result.Height
		}
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}

// List handles GET /api/v1/videos requests, returning the caller's uploads
// newest first.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	videos, err := h.Videos.ListForUser(ctx, userID)
	if err != nil {
		logger.Error("list videos", "userId", userID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to list videos"})
		return
	}

	resp := make([]videoResponse, 0, len(videos))
	for _, video := range videos {
		resp = append(resp, newVideoResponse(video))
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": resp})
}

// Delete handles DELETE /api/v1/videos/{id} requests. The record and its
// notes go first; file removal is best-effort afterwards.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("delete video", "videoId", video.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video"})
		return
	}

	if h.Files != nil {
		if err := h.Files.Remove(video.Filename); err != nil {
			logger.Warn("remove stored video", "videoId", video.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	return resolveOwnedVideo(w, r, h.Videos)
}

// resolveOwnedVideo resolves the {id} path value to a video the caller owns.
// It writes the error response itself and reports success through the bool.
// The owner check runs on the record alone so a non-owner gets the same 403
// whether or not the asset still exists.
func resolveOwnedVideo(w http.ResponseWriter, r *http.Request, videos VideoStore) (models.Video, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.Video{}, false
	}

	id := r.PathValue("id")
	if id == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video id is required"})
		return models.Video{}, false
	}

	video, err := videos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return models.Video{}, false
		}
		logger.Error("find video", "videoId", id, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return models.Video{}, false
	}

	if video.UserID != userID {
		logger.Warn("video access denied", "videoId", id, "userId", userID)
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "access denied"})
		return models.Video{}, false
	}

	return video, true
}

type videoResponse struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	Duration     *float64  `json:"duration"`
	Status       string    `json:"status"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type videoInfoResponse struct {
	ID           string   `json:"id"`
	OriginalName string   `json:"originalName"`
	FileSize     int64    `json:"fileSize"`
	Duration     *float64 `json:"duration"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	Status       string   `json:"status"`
}

func newVideoResponse(video models.Video) videoResponse {
	return videoResponse{
		ID:           video.ID,
		OriginalName: video.OriginalName,
		FileSize:     video.FileSize,
		Duration:     video.Duration,
		Status:       video.Status,
		UploadedAt:   video.UploadedAt,
	}
}
