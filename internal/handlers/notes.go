package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/logging"
	"github.com/speechcoach/backend/internal/models"
	"github.com/speechcoach/backend/internal/repositories"
)

// NoteHandler persists annotation notes against reflection prompts.
type NoteHandler struct {
	Videos  VideoStore
	Prompts PromptStore
	Notes   NoteStore
	NowFunc func() time.Time
}

// Save handles POST /api/v1/notes requests. Saving twice for the same
// (video, prompt) pair replaces the earlier content; the database constraint
// guarantees a single row per pair.
func (h NoteHandler) Save(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req saveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid note payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.VideoID == "" || req.PromptID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video_id and prompt_id are required"})
		return
	}

	video, err := h.Videos.FindByID(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video not found"})
			return
		}
		logger.Error("find video for note", "videoId", req.VideoID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video"})
		return
	}

	if video.UserID != userID {
		logger.Warn("note save denied", "videoId", video.ID, "userId", userID)
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "access denied"})
		return
	}

	prompt, err := h.Prompts.FindByID(ctx, req.PromptID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "prompt not found"})
			return
		}
		logger.Error("find prompt for note", "promptId", req.PromptID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load prompt"})
		return
	}

	note := models.Note{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		PromptID:  prompt.ID,
		ViewType:  prompt.ViewType,
		Content:   req.Content,
		CreatedAt: h.now(),
	}

	if err := h.Notes.Upsert(ctx, note); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "video or prompt not found"})
			return
		}
		logger.Error("save note", "videoId", video.ID, "promptId", prompt.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to save note"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "success"})
}

type saveNoteRequest struct {
	VideoID  string `json:"video_id"`
	PromptID string `json:"prompt_id"`
	Content  string `json:"content"`
}

func (h NoteHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
