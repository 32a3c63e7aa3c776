package handlers

import (
	"context"
	"sort"
	"sync"

	"github.com/speechcoach/backend/internal/archive"
	"github.com/speechcoach/backend/internal/models"
	"github.com/speechcoach/backend/internal/probe"
	"github.com/speechcoach/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

type inMemoryVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.videos[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) ListForUser(_ context.Context, userID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var videos []models.Video
	for _, video := range s.videos {
		if video.UserID == userID {
			videos = append(videos, video)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].UploadedAt.After(videos[j].UploadedAt) })
	return videos, nil
}

func (s *inMemoryVideoStore) CountForUser(ctx context.Context, userID string) (int64, error) {
	videos, err := s.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(videos)), nil
}

func (s *inMemoryVideoStore) SetDuration(_ context.Context, id string, duration *float64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Duration = duration
	video.Status = status
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Status = status
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) only() models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, video := range s.videos {
		return video
	}
	return models.Video{}
}

func (s *inMemoryVideoStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.videos)
}

type inMemoryPromptStore struct {
	prompts []models.Prompt
}

func (s *inMemoryPromptStore) ListActive(_ context.Context) ([]models.Prompt, error) {
	var active []models.Prompt
	for _, prompt := range s.prompts {
		if prompt.Active {
			active = append(active, prompt)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].ViewType != active[j].ViewType {
			return active[i].ViewType < active[j].ViewType
		}
		return active[i].OrderIndex < active[j].OrderIndex
	})
	return active, nil
}

func (s *inMemoryPromptStore) FindByID(_ context.Context, id string) (models.Prompt, error) {
	for _, prompt := range s.prompts {
		if prompt.ID == id {
			return prompt, nil
		}
	}
	return models.Prompt{}, repositories.ErrNotFound
}

type inMemoryNoteStore struct {
	prompts *inMemoryPromptStore
	notes   map[[2]string]models.Note
}

func newInMemoryNoteStore(prompts *inMemoryPromptStore) *inMemoryNoteStore {
	return &inMemoryNoteStore{prompts: prompts, notes: make(map[[2]string]models.Note)}
}

func (s *inMemoryNoteStore) Upsert(_ context.Context, note models.Note) error {
	key := [2]string{note.VideoID, note.PromptID}
	if existing, ok := s.notes[key]; ok {
		existing.Content = note.Content
		s.notes[key] = existing
		return nil
	}
	s.notes[key] = note
	return nil
}

func (s *inMemoryNoteStore) ListWithPrompts(ctx context.Context, videoID string) ([]models.NoteWithPrompt, error) {
	var joined []models.NoteWithPrompt
	for _, note := range s.notes {
		if note.VideoID != videoID {
			continue
		}
		entry := models.NoteWithPrompt{Note: note}
		if s.prompts != nil {
			if prompt, err := s.prompts.FindByID(ctx, note.PromptID); err == nil {
				entry.QuestionText = prompt.QuestionText
				entry.OrderIndex = prompt.OrderIndex
			}
		}
		joined = append(joined, entry)
	}
	sort.Slice(joined, func(i, j int) bool {
		if joined[i].ViewType != joined[j].ViewType {
			return joined[i].ViewType < joined[j].ViewType
		}
		return joined[i].OrderIndex < joined[j].OrderIndex
	})
	return joined, nil
}

func (s *inMemoryNoteStore) CountForUser(_ context.Context, _ string) (int64, error) {
	return int64(len(s.notes)), nil
}

type stubProber struct {
	result probe.Result
	calls  int
}

func (p *stubProber) Probe(_ context.Context, _ string) probe.Result {
	p.calls++
	return p.result
}

type stubArchiver struct {
	jobs []archive.Job
	err  error
}

func (a *stubArchiver) Enqueue(_ context.Context, job archive.Job) error {
	if a.err != nil {
		return a.err
	}
	a.jobs = append(a.jobs, job)
	return nil
}

// samplePrompts mirrors the seeded defaults closely enough for handler tests.
func samplePrompts() *inMemoryPromptStore {
	return &inMemoryPromptStore{prompts: []models.Prompt{
		{ID: "p-video-1", ViewType: models.ViewTypeVideo, QuestionText: "What do you notice about your body language?", OrderIndex: 1, Active: true},
		{ID: "p-video-2", ViewType: models.ViewTypeVideo, QuestionText: "How was your eye contact?", OrderIndex: 2, Active: true},
		{ID: "p-audio-1", ViewType: models.ViewTypeAudio, QuestionText: "How was your speaking pace?", OrderIndex: 1, Active: true},
		{ID: "p-text-1", ViewType: models.ViewTypeText, QuestionText: "How well-structured was your content?", OrderIndex: 1, Active: true},
		{ID: "p-old", ViewType: models.ViewTypeText, QuestionText: "Retired question", OrderIndex: 9, Active: false},
	}}
}
