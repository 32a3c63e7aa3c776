package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/speechcoach/backend/internal/db"
	"github.com/speechcoach/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Email, user.Password, user.Active, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, active, created_at, updated_at
        FROM users
        WHERE email = $1
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, password_hash, active, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, active = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Email, user.Password, user.Active, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for uploaded videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := video.Status
	if status == "" {
		status = models.VideoStatusUploaded
	}
	archiveStatus := video.ArchiveStatus
	if archiveStatus == "" {
		archiveStatus = models.ArchiveStatusNone
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, user_id, filename, original_name, file_size, duration, status, archive_status, archive_url, uploaded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, video.ID, video.UserID, video.Filename, video.OriginalName, video.FileSize, video.Duration, status, archiveStatus, video.ArchiveURL, video.UploadedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by primary key.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, user_id, filename, original_name, file_size, duration, status, archive_status, archive_url, uploaded_at
        FROM videos
        WHERE id = $1
    `, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// ListForUser returns a user's videos, newest first.
func (r *PostgresVideoRepository) ListForUser(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, filename, original_name, file_size, duration, status, archive_status, archive_url, uploaded_at
        FROM videos
        WHERE user_id = $1
        ORDER BY uploaded_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// CountForUser returns the number of videos a user owns.
func (r *PostgresVideoRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}

	return count, nil
}

// SetDuration records the probed duration (possibly unknown) and the
// resulting lifecycle status in a single update.
func (r *PostgresVideoRepository) SetDuration(ctx context.Context, id string, duration *float64, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET duration = $2, status = $3
        WHERE id = $1
    `, id, duration, status)
	if err != nil {
		return fmt.Errorf("update video duration: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateStatus transitions a video's lifecycle status.
func (r *PostgresVideoRepository) UpdateStatus(ctx context.Context, id, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET status = $2
        WHERE id = $1
    `, id, status)
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkArchived records a successful archival mirror for the video.
func (r *PostgresVideoRepository) MarkArchived(ctx context.Context, id, location string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET archive_status = $2, archive_url = $3
        WHERE id = $1
    `, id, models.ArchiveStatusArchived, location)
	if err != nil {
		return fmt.Errorf("update video archive status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkArchiveFailed records a failed archival attempt for the video.
func (r *PostgresVideoRepository) MarkArchiveFailed(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET archive_status = $2, archive_url = ''
        WHERE id = $1
    `, id, models.ArchiveStatusFailed)
	if err != nil {
		return fmt.Errorf("update video archive status failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a video and all notes referencing it in one transaction.
// Children go first so the cascade is explicit rather than relying on
// schema-level ON DELETE behavior alone.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM notes WHERE video_id = $1`, id); err != nil {
		return fmt.Errorf("delete notes for video: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	return nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var (
		video    models.Video
		duration sql.NullFloat64
	)
	if err := row.Scan(&video.ID, &video.UserID, &video.Filename, &video.OriginalName, &video.FileSize,
		&duration, &video.Status, &video.ArchiveStatus, &video.ArchiveURL, &video.UploadedAt); err != nil {
		return models.Video{}, err
	}
	if duration.Valid {
		d := duration.Float64
		video.Duration = &d
	}
	return video, nil
}

// PostgresPromptRepository provides PostgreSQL-backed persistence for prompts.
type PostgresPromptRepository struct {
	pool db.Pool
}

// NewPostgresPromptRepository constructs a prompt repository backed by PostgreSQL.
func NewPostgresPromptRepository(pool db.Pool) *PostgresPromptRepository {
	return &PostgresPromptRepository{pool: pool}
}

// defaultPrompts are the reflection questions installed on first start.
var defaultPrompts = []models.Prompt{
	{ViewType: models.ViewTypeVideo, QuestionText: "What do you notice about your body language and posture?", OrderIndex: 1},
	{ViewType: models.ViewTypeVideo, QuestionText: "How would you rate your eye contact and facial expressions?", OrderIndex: 2},
	{ViewType: models.ViewTypeVideo, QuestionText: "What gestures or movements stood out to you?", OrderIndex: 3},
	{ViewType: models.ViewTypeAudio, QuestionText: "How was your speaking pace and rhythm?", OrderIndex: 1},
	{ViewType: models.ViewTypeAudio, QuestionText: "Did you notice any filler words or vocal habits?", OrderIndex: 2},
	{ViewType: models.ViewTypeAudio, QuestionText: "How clear and confident did your voice sound?", OrderIndex: 3},
	{ViewType: models.ViewTypeText, QuestionText: "How well-structured was your content?", OrderIndex: 1},
	{ViewType: models.ViewTypeText, QuestionText: "What key points came across most clearly?", OrderIndex: 2},
	{ViewType: models.ViewTypeText, QuestionText: "What would you improve about your message?", OrderIndex: 3},
}

// ListActive returns active prompts ordered for stable display: view type
// first, order index within each view.
func (r *PostgresPromptRepository) ListActive(ctx context.Context) ([]models.Prompt, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, view_type, question_text, order_index, active
        FROM prompts
        WHERE active
        ORDER BY view_type, order_index
    `)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var prompts []models.Prompt
	for rows.Next() {
		var prompt models.Prompt
		if err := rows.Scan(&prompt.ID, &prompt.ViewType, &prompt.QuestionText, &prompt.OrderIndex, &prompt.Active); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, prompt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}

	return prompts, nil
}

// FindByID fetches a prompt by primary key, active or not.
func (r *PostgresPromptRepository) FindByID(ctx context.Context, id string) (models.Prompt, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Prompt{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, view_type, question_text, order_index, active
        FROM prompts
        WHERE id = $1
    `, id)

	var prompt models.Prompt
	if err := row.Scan(&prompt.ID, &prompt.ViewType, &prompt.QuestionText, &prompt.OrderIndex, &prompt.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Prompt{}, ErrNotFound
		}
		return models.Prompt{}, fmt.Errorf("select prompt: %w", err)
	}

	return prompt, nil
}

// Count returns the total number of prompts, including inactive ones.
func (r *PostgresPromptRepository) Count(ctx context.Context) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM prompts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count prompts: %w", err)
	}

	return count, nil
}

// SeedDefaults installs the default prompts when the table is empty. The
// emptiness check and inserts share one transaction so a second seed attempt
// against a populated store inserts nothing.
func (r *PostgresPromptRepository) SeedDefaults(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM prompts`).Scan(&count); err != nil {
		return fmt.Errorf("count prompts: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, prompt := range defaultPrompts {
		if _, err := tx.Exec(ctx, `
            INSERT INTO prompts (id, view_type, question_text, order_index, active)
            VALUES ($1, $2, $3, $4, TRUE)
        `, uuid.NewString(), prompt.ViewType, prompt.QuestionText, prompt.OrderIndex); err != nil {
			return fmt.Errorf("insert default prompt: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}

	return nil
}

// PostgresNoteRepository provides PostgreSQL-backed persistence for notes.
type PostgresNoteRepository struct {
	pool db.Pool
}

// NewPostgresNoteRepository constructs a note repository backed by PostgreSQL.
func NewPostgresNoteRepository(pool db.Pool) *PostgresNoteRepository {
	return &PostgresNoteRepository{pool: pool}
}

// Upsert stores a note, replacing the content of any existing note for the
// same (video, prompt) pair. The uniqueness invariant is enforced by the
// database constraint, so racing saves resolve as last write wins.
func (r *PostgresNoteRepository) Upsert(ctx context.Context, note models.Note) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO notes (id, video_id, prompt_id, view_type, content, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (video_id, prompt_id)
        DO UPDATE SET content = EXCLUDED.content
    `, note.ID, note.VideoID, note.PromptID, note.ViewType, note.Content, note.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("upsert note: %w", err)
	}

	return nil
}

// ListForVideo returns all notes for a video, oldest first.
func (r *PostgresNoteRepository) ListForVideo(ctx context.Context, videoID string) ([]models.Note, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, prompt_id, view_type, content, created_at
        FROM notes
        WHERE video_id = $1
        ORDER BY created_at
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var note models.Note
		if err := rows.Scan(&note.ID, &note.VideoID, &note.PromptID, &note.ViewType, &note.Content, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// ListWithPrompts returns a video's notes joined to their prompts, ordered by
// view type then prompt order index, as consumed by the report assembly.
func (r *PostgresNoteRepository) ListWithPrompts(ctx context.Context, videoID string) ([]models.NoteWithPrompt, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT n.id, n.video_id, n.prompt_id, n.view_type, n.content, n.created_at,
               p.question_text, p.order_index
        FROM notes n
        JOIN prompts p ON p.id = n.prompt_id
        WHERE n.video_id = $1
        ORDER BY p.view_type, p.order_index
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query notes with prompts: %w", err)
	}
	defer rows.Close()

	var notes []models.NoteWithPrompt
	for rows.Next() {
		var note models.NoteWithPrompt
		if err := rows.Scan(&note.ID, &note.VideoID, &note.PromptID, &note.ViewType, &note.Content, &note.CreatedAt,
			&note.QuestionText, &note.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan note with prompt: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes with prompts: %w", err)
	}

	return notes, nil
}

// CountForUser returns the number of notes across all videos a user owns.
func (r *PostgresNoteRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM notes n
        JOIN videos v ON v.id = n.video_id
        WHERE v.user_id = $1
    `, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}

	return count, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ PromptRepository = (*PostgresPromptRepository)(nil)
var _ NoteRepository = (*PostgresNoteRepository)(nil)
