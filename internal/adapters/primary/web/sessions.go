// Package web serves the weather widget page. Each browser session owns one
// lookup orchestrator, so a newer lookup in one tab supersedes an older one
// without touching other visitors.
package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/core/services"
)

// SessionHeader lets API clients carry a session without cookies.
const SessionHeader = "X-Session-ID"

// OrchestratorFactory builds the orchestrator for a new session.
type OrchestratorFactory func() *services.Orchestrator

// SessionConfig controls session identity and lifetime.
type SessionConfig struct {
	CookieName      string
	TTL             time.Duration
	CleanupInterval time.Duration
	SecureCookie    bool
}

// Sessions maps session IDs to orchestrators. Idle sessions expire after TTL.
type Sessions struct {
	store   *cache.Cache
	factory OrchestratorFactory
	cfg     SessionConfig
	logger  *zap.Logger

	// mu serializes lookup-or-create so a session never gets two orchestrators
	mu sync.Mutex
}

// NewSessions creates a session registry.
//
// Parameters:
//   - factory: Builds an Idle orchestrator for each new session
//   - cfg: Cookie name and lifetimes; zero values use defaults
//   - logger: Zap logger for session events
//
// Returns:
//   - *Sessions: Empty registry
func NewSessions(factory OrchestratorFactory, cfg SessionConfig, logger *zap.Logger) *Sessions {
	if cfg.CookieName == "" {
		cfg.CookieName = "weather_session"
	}

	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}

	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	return &Sessions{
		store:   cache.New(cfg.TTL, cfg.CleanupInterval),
		factory: factory,
		cfg:     cfg,
		logger:  logger,
	}
}

// Orchestrator returns the orchestrator of the request's session, creating the
// session when the request carries none or an expired one. The session ID is
// written back as a cookie and a response header.
func (s *Sessions) Orchestrator(w http.ResponseWriter, r *http.Request) *services.Orchestrator {
	id := s.sessionID(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if value, ok := s.store.Get(id); ok {
			if o, ok := value.(*services.Orchestrator); ok {
				s.store.Set(id, o, cache.DefaultExpiration)
				s.attach(w, id)

				return o
			}
		}
	} else {
		id = uuid.NewString()
	}

	o := s.factory()
	s.store.Set(id, o, cache.DefaultExpiration)
	s.attach(w, id)

	s.logger.Debug("session created", zap.String("session_id", id))

	return o
}

// Count returns the number of live sessions.
func (s *Sessions) Count() int {
	return s.store.ItemCount()
}

// sessionID reads the header first, then the cookie. Values that are not
// UUIDs are ignored.
func (s *Sessions) sessionID(r *http.Request) string {
	raw := r.Header.Get(SessionHeader)

	if raw == "" {
		if cookie, err := r.Cookie(s.cfg.CookieName); err == nil {
			raw = cookie.Value
		}
	}

	id, err := uuid.Parse(raw)

	if err != nil {
		return ""
	}

	return id.String()
}

func (s *Sessions) attach(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set(SessionHeader, id)
}
