package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"manaforge/internal/config"
	"manaforge/internal/persist"
	"manaforge/internal/progress"
	"manaforge/internal/session"
	"manaforge/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *persist.MemoryService) {
	t.Helper()
	svc := persist.NewMemoryService(persist.MemoryOptions{})
	cfg := config.Default()
	cfg.Engine.TickSeconds = 3600
	cfg.Engine.AutosaveSeconds = 3600
	cfg.Surges.MinDelaySeconds = 3600
	cfg.Surges.MaxDelaySeconds = 7200

	mgr := session.NewManager(session.ManagerOptions{Service: svc, Config: cfg})
	t.Cleanup(func() { mgr.Close(context.Background()) })

	h, err := NewHandler(&App{
		Sessions: mgr,
		Service:  svc,
		Events:   telemetry.NewMemoryRepository(),
		Config:   cfg,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, svc
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "manaforge", body["service"])
}

func TestReadyz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}

func TestCatalogEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{
		"/api/data/catalog",
		"/api/data/buildings",
		"/api/data/upgrades",
		"/api/data/achievements",
		"/api/data/surges",
		"/api/data/talents",
		"/api/data/runes",
	} {
		resp, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestGameState_RequiresCredential(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodGet, "/api/game/state", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestClickAndState(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/click", "alice", "{}")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["mana"])

	resp, body = doJSON(t, ts, http.MethodGet, "/api/game/state", "alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["mana"])
	assert.Equal(t, 1.0, body["clickCount"])
}

func TestBuyBuildingFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	// Earn enough for a wisp, then buy one.
	for i := 0; i < 10; i++ {
		resp, _ := doJSON(t, ts, http.MethodPost, "/api/game/click", "bob", "{}")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/buildings/buy", "bob", `{"id":"wisp","quantity":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buildings, ok := body["buildings"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, buildings["wisp"])
	assert.Equal(t, 0.0, body["mana"])
}

func TestBuyBuilding_MissingID(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := doJSON(t, ts, http.MethodPost, "/api/game/buildings/buy", "bob", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMultiplierEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/multiplier", "carol", `{"multiplier":25}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 25.0, body["multiplier"])

	// Invalid values leave the previous selection.
	resp, body = doJSON(t, ts, http.MethodPost, "/api/game/multiplier", "carol", `{"multiplier":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 25.0, body["multiplier"])
}

func TestAscendFlow(t *testing.T) {
	ts, svc := newTestServer(t)

	// Seed a save past the threshold, then ascend over HTTP.
	st := progress.DefaultSaveState()
	st.TotalManaEarned = 10_000_000
	require.NoError(t, svc.SaveProgress(context.Background(), "dora", st))

	resp, body := doJSON(t, ts, http.MethodPost, "/api/game/ascend", "dora", "{}")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["ascensionCount"])
	assert.Equal(t, 20.0, body["currentEssence"])
}

func TestEssencePreview(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodGet, "/api/game/essence", "eve", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.0, body["essence"])
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, _ := doJSON(t, ts, http.MethodGet, "/api/stats", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/api/stats?since=not-a-date", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutesJSON(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/_/admin/routes.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var routes []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&routes))
	assert.NotEmpty(t, routes)
}
