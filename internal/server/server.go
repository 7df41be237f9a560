package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/notesync/internal/cache"
	"github.com/dukerupert/notesync/internal/category"
	"github.com/dukerupert/notesync/internal/handler"
	"github.com/dukerupert/notesync/internal/identity"
	"github.com/dukerupert/notesync/internal/middleware"
	"github.com/dukerupert/notesync/internal/model"
	notesync "github.com/dukerupert/notesync/internal/sync"
	ws "github.com/dukerupert/notesync/internal/websocket"
)

// Credential endpoints allow this many attempts per client per minute.
const credentialAttempts = 10

type Server struct {
	hub         *ws.Hub
	cache       *cache.Cache
	identity    *identity.Manager
	noteH       *handler.NoteHandler
	syncH       *handler.SyncHandler
	authH       *handler.AuthHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New builds the HTTP surface over an engine. Status and identity changes
// are broadcast to every /ws client.
func New(engine *notesync.Engine, c *cache.Cache, reg *category.Registry, ids *identity.Manager, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	engine.OnStatus(func(status string) {
		hub.Broadcast(ws.StatusMessage(status))
	})
	ids.OnChange(func(id model.Identity) {
		hub.Broadcast(ws.IdentityMessage(id))
	})

	return &Server{
		hub:         hub,
		cache:       c,
		identity:    ids,
		noteH:       handler.NewNoteHandler(engine, hub, logger.With("component", "note")),
		syncH:       handler.NewSyncHandler(engine, reg, logger.With("component", "sync")),
		authH:       handler.NewAuthHandler(engine, logger.With("component", "auth")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Hub returns the broadcast hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Notes
	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.HandleFunc("POST /api/notes", s.noteH.Create)
	mux.HandleFunc("GET /api/notes/{id}", s.noteH.Get)
	mux.HandleFunc("PUT /api/notes/{id}", s.noteH.Update)
	mux.HandleFunc("DELETE /api/notes/{id}", s.noteH.Delete)

	// Sync
	mux.HandleFunc("POST /api/sync", s.syncH.Sync)
	mux.HandleFunc("GET /api/status", s.syncH.Status)
	mux.HandleFunc("GET /api/ping", s.syncH.Ping)
	mux.HandleFunc("GET /api/categories", s.syncH.Categories)

	// Identity
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.SignUp))
	mux.HandleFunc("POST /api/auth/signin", s.rateLimitedHandler(s.authH.SignIn))
	mux.HandleFunc("POST /api/auth/link", s.rateLimitedHandler(s.authH.Link))
	mux.HandleFunc("POST /api/auth/signout", s.authH.SignOut)

	// Real-time
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
	mux.HandleFunc("GET /ws/notes", ws.HandleLiveNotes(s.cache, s.identity.UID, s.logger.With("component", "live_query")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, credentialAttempts, time.Minute)
	wrapped := rl(h)
	return wrapped.ServeHTTP
}
