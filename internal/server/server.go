// Package server exposes the game engine over HTTP. Players are
// identified by an opaque bearer credential; each credential gets its
// own running session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"manaforge/internal/config"
	"manaforge/internal/httpmw"
	"manaforge/internal/persist"
	"manaforge/internal/session"
	"manaforge/internal/telemetry"
)

// App holds what the handlers depend on.
type App struct {
	Sessions *session.Manager
	Service  persist.Service
	// Events may be nil; the stats endpoint then returns 404.
	Events telemetry.Repository
	Config *config.Config
	Logger *log.Logger

	BootNow time.Time
}

func NewHandler(app *App) (http.Handler, error) {
	if app == nil || app.Sessions == nil || app.Service == nil {
		return nil, errors.New("sessions and service are required")
	}
	if app.Config == nil {
		app.Config = config.Default()
	}
	if app.Logger == nil {
		app.Logger = log.Default()
	}
	if app.BootNow.IsZero() {
		app.BootNow = time.Now().UTC()
	}

	mux := http.NewServeMux()
	rr := &RouteRegistry{}
	RegisterAPIRoutes(mux, rr, app)

	mux.HandleFunc("GET /_/admin/routes.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "manaforge",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if _, err := app.Service.FetchStaticCatalogs(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "persistence unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "manaforge",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(app.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(app.Logger),
	), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// credential extracts the bearer token identifying the player.
func credential(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}
