package handlers

import (
	"net/http"

	"github.com/speechcoach/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	upload := UploadHandler{
		Videos:   deps.Videos,
		Files:    deps.Files,
		Prober:   deps.Prober,
		Archiver: deps.Archiver,
		Limiter:  deps.UploadLimiter,
		MaxBytes: deps.MaxUploadBytes,
	}
	videos := VideoHandler{Videos: deps.Videos, Files: deps.Files, Prober: deps.Prober}
	analysis := AnalysisHandler{Videos: deps.Videos, Prompts: deps.Prompts, Notes: deps.Notes}
	notes := NoteHandler{Videos: deps.Videos, Prompts: deps.Prompts, Notes: deps.Notes}
	profile := ProfileHandler{Users: deps.Users, Videos: deps.Videos, Notes: deps.Notes}

	requireAuth := middleware.RequireAuth(deps.Authenticator)

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("/api/v1/auth/signup", authHandler.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", authHandler.Logout)
	mux.Handle("/upload", requireAuth(http.HandlerFunc(upload.Upload)))
	mux.Handle("/video/{id}", requireAuth(http.HandlerFunc(videos.Serve)))
	mux.Handle("/analysis/{id}", requireAuth(http.HandlerFunc(analysis.Analysis)))
	mux.Handle("/api/v1/videos", requireAuth(http.HandlerFunc(videos.List)))
	mux.Handle("/api/v1/videos/{id}", requireAuth(http.HandlerFunc(videos.Delete)))
	mux.Handle("/api/v1/videos/{id}/info", requireAuth(http.HandlerFunc(videos.Info)))
	mux.Handle("/api/v1/videos/{id}/analysis", requireAuth(http.HandlerFunc(analysis.Analysis)))
	mux.Handle("/api/v1/videos/{id}/report", requireAuth(http.HandlerFunc(analysis.Report)))
	mux.Handle("/api/v1/notes", requireAuth(http.HandlerFunc(notes.Save)))
	mux.Handle("/api/v1/profile", requireAuth(http.HandlerFunc(profile.Show)))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Authenticator  middleware.Authenticator
	Videos         VideoStore
	Prompts        PromptStore
	Notes          NoteStore
	Files          FileStore
	Prober         MetadataProber
	Archiver       VideoArchiver
	AuthLimiter    RateLimiter
	UploadLimiter  RateLimiter
	MaxUploadBytes int64
}
