package handlers

import (
	"net/http"
	"strings"

	"github.com/speechcoach/backend/internal/logging"
	"github.com/speechcoach/backend/internal/models"
)

// AnalysisHandler assembles the annotation workspace and the final report
// for a video.
type AnalysisHandler struct {
	Videos  VideoStore
	Prompts PromptStore
	Notes   NoteStore
}

// Analysis handles GET /analysis/{id} and /api/v1/videos/{id}/analysis
// requests: the video, the active prompts grouped per view, and the content
// of any notes already saved.
func (h AnalysisHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := resolveOwnedVideo(w, r, h.Videos)
	if !ok {
		return
	}

	prompts, err := h.Prompts.ListActive(ctx)
	if err != nil {
		logger.Error("list prompts", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load prompts"})
		return
	}

	grouped := make(map[string][]promptResponse, len(models.ViewTypes))
	for _, view := range models.ViewTypes {
		grouped[view] = []promptResponse{}
	}
	for _, prompt := range prompts {
		grouped[prompt.ViewType] = append(grouped[prompt.ViewType], promptResponse{
			ID:         prompt.ID,
			ViewType:   prompt.ViewType,
			Question:   prompt.QuestionText,
			OrderIndex: prompt.OrderIndex,
		})
	}

	notes, err := h.Notes.ListWithPrompts(ctx, video.ID)
	if err != nil {
		logger.Error("list notes", "videoId", video.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load notes"})
		return
	}

	existing := make(map[string]string, len(notes))
	for _, note := range notes {
		existing[note.PromptID] = note.Content
	}

	respondJSON(ctx, w, http.StatusOK, analysisResponse{
		Video:   newVideoResponse(video),
		Prompts: grouped,
		Notes:   existing,
	})
}

// Report handles GET /api/v1/videos/{id}/report requests. Notes are joined
// to their prompts, ordered by (view type, prompt order), and bucketed per
// view; notes with only whitespace content count as unanswered and are left
// out.
func (h AnalysisHandler) Report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := resolveOwnedVideo(w, r, h.Videos)
	if !ok {
		return
	}

	notes, err := h.Notes.ListWithPrompts(ctx, video.ID)
	if err != nil {
		logger.Error("list notes for report", "videoId", video.ID, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load notes"})
		return
	}

	sections := make(map[string][]reportEntry, len(models.ViewTypes))
	for _, view := range models.ViewTypes {
		sections[view] = []reportEntry{}
	}
	for _, note := range notes {
		if strings.TrimSpace(note.Content) == "" {
			continue
		}
		sections[note.ViewType] = append(sections[note.ViewType], reportEntry{
			Question:   note.QuestionText,
			OrderIndex: note.OrderIndex,
			Content:    note.Content,
		})
	}

	respondJSON(ctx, w, http.StatusOK, reportResponse{
		Video:    newVideoResponse(video),
		Sections: sections,
	})
}

type promptResponse struct {
	ID         string `json:"id"`
	ViewType   string `json:"viewType"`
	Question   string `json:"question"`
	OrderIndex int    `json:"orderIndex"`
}

type analysisResponse struct {
	Video   videoResponse               `json:"video"`
	Prompts map[string][]promptResponse `json:"prompts"`
	Notes   map[string]string           `json:"notes"`
}

type reportEntry struct {
	Question   string `json:"question"`
	OrderIndex int    `json:"orderIndex"`
	Content    string `json:"content"`
}

type reportResponse struct {
	Video    videoResponse            `json:"video"`
	Sections map[string][]reportEntry `json:"sections"`
}
