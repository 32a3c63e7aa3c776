package models

import "time"

// User represents an account within the Speech Coach platform.
type User struct {
	ID        string
	Email     string
	Password  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video is one uploaded recording owned by a user. Filename is the generated
// on-disk name; OriginalName is the client-supplied name kept for display only.
type Video struct {
	ID            string
	UserID        string
	Filename      string
	OriginalName  string
	FileSize      int64
	Duration      *float64
	Status        string
	ArchiveStatus string
	ArchiveURL    string
	UploadedAt    time.Time
}

// Video lifecycle statuses.
const (
	VideoStatusUploaded   = "uploaded"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusError      = "error"
)

// Archive mirror statuses for a video's off-site copy.
const (
	ArchiveStatusNone     = "none"
	ArchiveStatusPending  = "pending"
	ArchiveStatusArchived = "archived"
	ArchiveStatusFailed   = "failed"
)

// View types categorize prompts and notes by which aspect of the recorded
// speech they address.
const (
	ViewTypeVideo = "video"
	ViewTypeAudio = "audio"
	ViewTypeText  = "text"
)

// ViewTypes lists the view types in display order.
var ViewTypes = []string{ViewTypeVideo, ViewTypeAudio, ViewTypeText}

// Prompt is a fixed reflection question shown during analysis. Inactive
// prompts are hidden from analysis pages but retained for historical notes.
type Prompt struct {
	ID           string
	ViewType     string
	QuestionText string
	OrderIndex   int
	Active       bool
}

// Note is a user's free-text answer to one prompt for one video. ViewType is
// denormalized from the prompt at creation time for fast filtering. At most
// one note exists per (video, prompt) pair.
type Note struct {
	ID        string
	VideoID   string
	PromptID  string
	ViewType  string
	Content   string
	CreatedAt time.Time
}

// NoteWithPrompt pairs a note with the prompt it answers, as returned by the
// report query.
type NoteWithPrompt struct {
	Note
	QuestionText string
	OrderIndex   int
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
