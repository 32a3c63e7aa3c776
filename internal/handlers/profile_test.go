package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/speechcoach/backend/internal/auth"
	"github.com/speechcoach/backend/internal/models"
)

func TestProfileHandlerShow(t *testing.T) {
	users := newInMemoryUserStore()
	users.users["user-1"] = models.User{ID: "user-1", Email: "me@example.com", Active: true, CreatedAt: time.Now().UTC()}

	videos := newInMemoryVideoStore()
	if err := videos.Create(context.Background(), models.Video{ID: "vid-1", UserID: "user-1", Filename: "a.mp4", UploadedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("create video: %v", err)
	}

	prompts := samplePrompts()
	notes := newInMemoryNoteStore(prompts)
	if err := notes.Upsert(context.Background(), models.Note{ID: "n1", VideoID: "vid-1", PromptID: "p-video-1", ViewType: models.ViewTypeVideo, Content: "x"}); err != nil {
		t.Fatalf("create note: %v", err)
	}

	handler := ProfileHandler{Users: users, Videos: videos, Notes: notes}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	handler.Show(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Email != "me@example.com" {
		t.Fatalf("unexpected email %q", resp.Email)
	}
	if resp.VideoCount != 1 || resp.NoteCount != 1 {
		t.Fatalf("unexpected counts %+v", resp)
	}
}

func TestProfileHandlerRequiresAuthentication(t *testing.T) {
	handler := ProfileHandler{Users: newInMemoryUserStore(), Videos: newInMemoryVideoStore(), Notes: newInMemoryNoteStore(nil)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	rec := httptest.NewRecorder()
	handler.Show(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
