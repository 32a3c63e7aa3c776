package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/speechcoach/backend/internal/models"
)

func newAnalysisFixture(t *testing.T) (AnalysisHandler, *inMemoryNoteStore) {
	t.Helper()

	videos := newInMemoryVideoStore()
	video := models.Video{ID: "vid-1", UserID: "user-1", Filename: "vid.mp4", OriginalName: "talk.mp4", UploadedAt: time.Now().UTC()}
	if err := videos.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}

	prompts := samplePrompts()
	notes := newInMemoryNoteStore(prompts)

	return AnalysisHandler{Videos: videos, Prompts: prompts, Notes: notes}, notes
}

func TestAnalysisHandlerGroupsPromptsByView(t *testing.T) {
	handler, notes := newAnalysisFixture(t)

	if err := notes.Upsert(context.Background(), models.Note{
		ID: "n1", VideoID: "vid-1", PromptID: "p-video-1",
		ViewType: models.ViewTypeVideo, Content: "Steady stance",
	}); err != nil {
		t.Fatalf("seed note: %v", err)
	}

	req := ownerRequest(http.MethodGet, "/api/v1/videos/vid-1/analysis", "user-1", "vid-1")
	rec := httptest.NewRecorder()
	handler.Analysis(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp analysisResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Video.ID != "vid-1" {
		t.Fatalf("unexpected video %+v", resp.Video)
	}
	if len(resp.Prompts[models.ViewTypeVideo]) != 2 {
		t.Fatalf("expected 2 video prompts, got %d", len(resp.Prompts[models.ViewTypeVideo]))
	}
	if len(resp.Prompts[models.ViewTypeAudio]) != 1 || len(resp.Prompts[models.ViewTypeText]) != 1 {
		t.Fatalf("unexpected prompt grouping %+v", resp.Prompts)
	}
	for _, prompt := range resp.Prompts[models.ViewTypeText] {
		if prompt.ID == "p-old" {
			t.Fatal("inactive prompts must not appear on the analysis page")
		}
	}
	if resp.Notes["p-video-1"] != "Steady stance" {
		t.Fatalf("expected existing note content, got %+v", resp.Notes)
	}
}

func TestAnalysisHandlerDeniesNonOwner(t *testing.T) {
	handler, _ := newAnalysisFixture(t)

	req := ownerRequest(http.MethodGet, "/api/v1/videos/vid-1/analysis", "user-2", "vid-1")
	rec := httptest.NewRecorder()
	handler.Analysis(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
}

func TestReportExcludesBlankNotes(t *testing.T) {
	handler, notes := newAnalysisFixture(t)

	seed := []models.Note{
		{ID: "n1", VideoID: "vid-1", PromptID: "p-video-1", ViewType: models.ViewTypeVideo, Content: "Confident posture"},
		{ID: "n2", VideoID: "vid-1", PromptID: "p-video-2", ViewType: models.ViewTypeVideo, Content: "   "},
		{ID: "n3", VideoID: "vid-1", PromptID: "p-audio-1", ViewType: models.ViewTypeAudio, Content: "Pace was even"},
	}
	for _, note := range seed {
		if err := notes.Upsert(context.Background(), note); err != nil {
			t.Fatalf("seed note: %v", err)
		}
	}

	req := ownerRequest(http.MethodGet, "/api/v1/videos/vid-1/report", "user-1", "vid-1")
	rec := httptest.NewRecorder()
	handler.Report(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp reportResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Sections[models.ViewTypeVideo]) != 1 {
		t.Fatalf("expected blank note excluded from video section, got %+v", resp.Sections[models.ViewTypeVideo])
	}
	if resp.Sections[models.ViewTypeVideo][0].Content != "Confident posture" {
		t.Fatalf("unexpected video section %+v", resp.Sections[models.ViewTypeVideo])
	}
	if len(resp.Sections[models.ViewTypeAudio]) != 1 {
		t.Fatalf("expected one audio entry, got %+v", resp.Sections[models.ViewTypeAudio])
	}
	if entries, ok := resp.Sections[models.ViewTypeText]; !ok || len(entries) != 0 {
		t.Fatalf("expected an empty text section to be present, got %+v", resp.Sections)
	}
	if resp.Sections[models.ViewTypeVideo][0].Question == "" {
		t.Fatal("expected report entries to carry their prompt question")
	}
}
