package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/logging"
	"github.com/speechcoach/backend/internal/repositories"
)

// ProfileHandler reports account details and annotation activity.
type ProfileHandler struct {
	Users  UserStore
	Videos VideoStore
	Notes  NoteStore
}

// Show handles GET /api/v1/profile requests.
func (h ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "account not found"})
			return
		}
		logger.Error("find profile user", "userId", userID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
		return
	}

	videoCount, err := h.Videos.CountForUser(ctx, userID)
	if err != nil {
		logger.Error("count videos", "userId", userID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
		return
	}

	noteCount, err := h.Notes.CountForUser(ctx, userID)
	if err != nil {
		logger.Error("count notes", "userId", userID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		Email:       user.Email,
		VideoCount:  videoCount,
		NoteCount:   noteCount,
		MemberSince: user.CreatedAt,
	})
}

type profileResponse struct {
	Email       string    `json:"email"`
	VideoCount  int64     `json:"videoCount"`
	NoteCount   int64     `json:"noteCount"`
	MemberSince time.Time `json:"memberSince"`
}
