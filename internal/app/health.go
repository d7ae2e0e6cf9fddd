package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/version"
)

func (a *App) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (a *App) healthHandler(w http.ResponseWriter, _ *http.Request) {
	a.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": a.cfg.Observability.ServiceName,
		"version": version.Version,
	})
}

func (a *App) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	a.respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// readinessHandler checks the optional backing services that are connected.
func (a *App) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	ready := true
	checks := map[string]bool{"server": true}

	if a.db != nil {
		checks["database"] = a.db.Ping(ctx) == nil
		ready = ready && checks["database"]
	}

	if a.redis != nil {
		checks["redis"] = a.redis.Ping(ctx).Err() == nil
		ready = ready && checks["redis"]
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	a.respondWithJSON(w, status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	a.respondWithJSON(w, http.StatusOK, version.Get())
}

// statsHandler reports breaker state, live sessions and, with an audit
// database, the last hour of lookups.
func (a *App) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"circuit_breakers": a.breakers.GetStats(),
	}

	if a.sessions != nil {
		stats["sessions"] = a.sessions.Count()
	}

	if a.audit != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		lookups, err := a.audit.GetLookupStats(ctx, time.Now().Add(-time.Hour))

		if err != nil {
			a.logger.Warn("failed to read lookup stats", zap.Error(err))
		} else {
			stats["lookups"] = lookups
		}
	}

	a.respondWithJSON(w, http.StatusOK, stats)
}
