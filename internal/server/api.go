package server

import (
	"encoding/json"
	"net/http"
	"time"

	"manaforge/internal/progress"
	"manaforge/internal/session"
	"manaforge/internal/telemetry"
)

func RegisterAPIRoutes(mux *http.ServeMux, rr *RouteRegistry, app *App) {
	// withSession resolves the player's engine or writes the error
	// itself.
	withSession := func(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
		cred := credential(r)
		if cred == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer credential")
			return nil, false
		}
		s, err := app.Sessions.Get(r.Context(), cred)
		if err != nil {
			app.Logger.Printf("session %q: %v", cred, err)
			writeError(w, http.StatusInternalServerError, "session unavailable")
			return nil, false
		}
		return s, true
	}

	// Static catalog data. Served straight from persistence so edits
	// to stored game data show up without a restart.
	Handle(mux, rr, "GET /api/data/catalog", "Full static catalog", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat)
	})

	Handle(mux, rr, "GET /api/data/buildings", "Building definitions", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat.Buildings)
	})

	Handle(mux, rr, "GET /api/data/upgrades", "Upgrade definitions", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat.Upgrades)
	})

	Handle(mux, rr, "GET /api/data/achievements", "Achievement definitions", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat.Achievements)
	})

	Handle(mux, rr, "GET /api/data/surges", "Surge type definitions", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat.SurgeTypes)
	})

	Handle(mux, rr, "GET /api/data/talents", "Talent definitions", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat.Talents)
	})

	Handle(mux, rr, "GET /api/data/runes", "Rune definitions", "", func(w http.ResponseWriter, r *http.Request) {
		cat, err := app.Service.FetchStaticCatalogs(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "catalog unavailable")
			return
		}
		writeJSON(w, http.StatusOK, cat.Runes)
	})

	// Game state and mutations. Every mutation returns the new snapshot
	// so clients never need a follow-up read.
	Handle(mux, rr, "GET /api/game/state", "Current snapshot with derived rates", "", func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Store.Snapshot())
	})

	Handle(mux, rr, "POST /api/game/click", "Perform one manual click", `{}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		s.NoteActivity()
		writeJSON(w, http.StatusOK, s.Store.Click())
	})

	Handle(mux, rr, "POST /api/game/buildings/buy", "Buy building units", `{"id":"wisp","quantity":1}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if body.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		s.NoteActivity()
		// Zero quantity means "use the selected purchase multiplier".
		if body.Quantity == 0 {
			writeJSON(w, http.StatusOK, s.Store.BuySelected(body.ID))
			return
		}
		writeJSON(w, http.StatusOK, s.Store.BuyBuildingBulk(body.ID, body.Quantity))
	})

	Handle(mux, rr, "POST /api/game/upgrades/buy", "Buy an upgrade", `{"id":"sturdy_finger"}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		s.NoteActivity()
		writeJSON(w, http.StatusOK, s.Store.BuyUpgrade(body.ID))
	})

	Handle(mux, rr, "POST /api/game/multiplier", "Set the bulk-buy multiplier (1, 10, 25, 50; 0 = max)", `{"multiplier":10}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			Multiplier int `json:"multiplier"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		s.Store.SetPurchaseMultiplier(progress.PurchaseMultiplier(body.Multiplier))
		writeJSON(w, http.StatusOK, map[string]any{
			"multiplier": int(s.Store.PurchaseMultiplier()),
		})
	})

	Handle(mux, rr, "GET /api/game/essence", "Essence an ascension would grant now", "", func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"essence": s.Store.EssencePreview()})
	})

	Handle(mux, rr, "POST /api/game/ascend", "Reset the run for essence", `{}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Store.Ascend(r.Context()))
	})

	Handle(mux, rr, "POST /api/game/talents/buy", "Buy a talent with essence", `{"id":"firm_grip"}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		writeJSON(w, http.StatusOK, s.Store.BuyTalent(r.Context(), body.ID))
	})

	Handle(mux, rr, "POST /api/game/talents/reset", "Reset talents for a partial refund", `{}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Store.ResetTalents(r.Context()))
	})

	Handle(mux, rr, "POST /api/game/runes/buy", "Buy a rune level with essence", `{"id":"rune_of_hands"}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		writeJSON(w, http.StatusOK, s.Store.BuyRune(r.Context(), body.ID))
	})

	Handle(mux, rr, "POST /api/game/autoclicker", "Enable or disable the auto-clicker", `{"enabled":true}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		writeJSON(w, http.StatusOK, s.Store.ToggleAutoClicker(r.Context(), body.Enabled))
	})

	Handle(mux, rr, "POST /api/game/autobuyer", "Reconfigure the auto-buyer",
		`{"enabled":true,"mode":"cheapest","maxSpendPercent":10}`, func(w http.ResponseWriter, r *http.Request) {
			s, ok := withSession(w, r)
			if !ok {
				return
			}
			var patch progress.AutoBuyerPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json body")
				return
			}
			writeJSON(w, http.StatusOK, s.Store.ConfigureAutoBuyer(r.Context(), patch))
		})

	Handle(mux, rr, "POST /api/game/surge/claim", "Claim the active surge", `{"type":"golden_orb"}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		var body struct {
			Type string `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type == "" {
			writeError(w, http.StatusBadRequest, "type is required")
			return
		}
		s.NoteActivity()
		writeJSON(w, http.StatusOK, s.Store.ClaimSurge(r.Context(), body.Type))
	})

	Handle(mux, rr, "POST /api/game/surge/dismiss", "Dismiss the active surge", `{}`, func(w http.ResponseWriter, r *http.Request) {
		s, ok := withSession(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Store.DismissSurge())
	})

	Handle(mux, rr, "GET /api/stats", "Telemetry stats since a date (?since=2026-01-02)", "", func(w http.ResponseWriter, r *http.Request) {
		if app.Events == nil {
			writeError(w, http.StatusNotFound, "telemetry disabled")
			return
		}
		since := app.BootNow
		if raw := r.URL.Query().Get("since"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
				return
			}
			since = parsed
		}
		events, err := app.Events.GetEvents(since, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "telemetry unavailable")
			return
		}
		stats, err := telemetry.CalculateStats(events, since)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "telemetry unavailable")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	Handle(mux, rr, "GET /api/config", "Effective server configuration", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, app.Config)
	})
}
