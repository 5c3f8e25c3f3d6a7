package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/osa030/loungeclock/internal/app/session"
	"github.com/osa030/loungeclock/internal/app/session/registry"
	"github.com/osa030/loungeclock/internal/app/ticker"
	"github.com/osa030/loungeclock/internal/domain/sessionclock"
	"github.com/osa030/loungeclock/internal/domain/tier"
	"github.com/osa030/loungeclock/internal/infra/storage"
)

const testToken = "test-admin-token"

var t0 = time.Date(2025, 3, 14, 18, 0, 0, 0, time.Local)

type fixture struct {
	router *gin.Engine
	mgr    *session.Manager
	clock  *sessionclock.TestClock
	sched  *ticker.ManualScheduler
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewMemory(nil)
	require.NoError(t, err)

	f := &fixture{
		clock: sessionclock.NewTestClock(t0),
		sched: ticker.NewManualScheduler(),
	}
	f.mgr, err = session.NewManager(session.Config{
		Catalog:   tier.DefaultCatalog(),
		Store:     store,
		Clock:     f.clock,
		Scheduler: f.sched,
	})
	require.NoError(t, err)
	require.NoError(t, f.mgr.Start(context.Background()))
	t.Cleanup(f.mgr.Close)

	if opts.AdminToken == "" {
		opts.AdminToken = testToken
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Inf
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 1
	}
	f.router = NewRouter(f.mgr, opts)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(AdminTokenHeader, token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func addBody(tierID, name string, controllers, minutes int) map[string]any {
	return map[string]any{
		"tier":        tierID,
		"playerName":  name,
		"phone":       "98450 00000",
		"controllers": controllers,
		"minutes":     minutes,
	}
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"add without token", http.MethodPost, "/api/stations", ""},
		{"add with wrong token", http.MethodPost, "/api/stations", "nope"},
		{"pause without token", http.MethodPost, "/api/stations/SYS001/pause", ""},
		{"remove with wrong token", http.MethodDelete, "/api/stations/SYS001", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.token, addBody("27in", "Ira", 1, 60))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
	assert.Len(t, f.mgr.Snapshot(), 3, "nothing was added")
	assert.Equal(t, "available", f.mgr.Snapshot()[0].Status.String())
}

func TestStationLifecycle(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/api/stations", testToken, addBody("32in", "Ira", 3, 60))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[map[string]any](t, w)
	assert.Equal(t, "SYS002", added["id"])
	assert.Equal(t, "active", added["status"])
	assert.Equal(t, "ACTIVE", added["statusLabel"])
	// The first 30-minute band is owed from the first second.
	assert.Equal(t, "₹170.00", added["costText"])
	assert.Equal(t, "06:00 pm", added["startedAt"])

	f.clock.Advance(45 * time.Minute)
	f.sched.Tick()

	w = f.do(t, http.MethodPost, "/api/stations/SYS002/pause", testToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	paused := decode[struct {
		Applied bool           `json:"applied"`
		Station map[string]any `json:"station"`
	}](t, w)
	assert.True(t, paused.Applied)
	assert.Equal(t, "PAUSED", paused.Station["statusLabel"])
	assert.Equal(t, "00:45:00", paused.Station["durationText"])
	// 32in 60-minute band (100) plus two extra controllers at 50.
	assert.Equal(t, "₹200.00", paused.Station["costText"])

	w = f.do(t, http.MethodPost, "/api/stations/SYS002/pause", testToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[transitionResponse](t, w).Applied, "second pause is a no-op")

	w = f.do(t, http.MethodPost, "/api/stations/SYS002/resume", testToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[transitionResponse](t, w).Applied)

	w = f.do(t, http.MethodPost, "/api/stations/SYS002/end", testToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	ended := decode[struct {
		Applied bool           `json:"applied"`
		Station map[string]any `json:"station"`
	}](t, w)
	assert.True(t, ended.Applied)
	assert.Equal(t, "COMPLETED", ended.Station["statusLabel"])
	assert.Equal(t, "06:45 pm", ended.Station["endedAt"])

	w = f.do(t, http.MethodGet, "/api/summary", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[map[string]any](t, w)
	assert.Equal(t, "₹200.00", sum["earningsText"])
	assert.Equal(t, float64(1), sum["players"])
	assert.Equal(t, "45m 0s", sum["playTimeText"])
	assert.Equal(t, "14 Mar 2025", sum["dateText"])

	w = f.do(t, http.MethodDelete, "/api/stations/SYS002", testToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	removed := decode[struct {
		Applied bool           `json:"applied"`
		Station map[string]any `json:"station"`
	}](t, w)
	assert.True(t, removed.Applied)
	assert.Equal(t, "AVAILABLE", removed.Station["statusLabel"])
}

func TestPostStation_Errors(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{"blank name", addBody("27in", " ", 1, 60), http.StatusBadRequest, "playerName"},
		{"unknown tier", addBody("vr", "Ira", 1, 60), http.StatusBadRequest, "tier"},
		{"zero minutes", addBody("27in", "Ira", 1, 0), http.StatusBadRequest, "requestedMinutes"},
		{"too many controllers", addBody("27in", "Ira", 5, 60), http.StatusBadRequest, "controllers"},
		{"malformed body", "not an object", http.StatusBadRequest, ""},
		{"name too long", addBody("27in", strings.Repeat("x", 65), 1, 60), http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/stations", testToken, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[map[string]any](t, w)["field"])
			}
		})
	}

	w := f.do(t, http.MethodPost, "/api/stations", testToken, addBody("27in", "Ira", 1, 60))
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/api/stations", testToken, addBody("27in", "Jo", 1, 60))
	assert.Equal(t, http.StatusBadRequest, w.Code, "tier is occupied")
}

func TestTransitions_UnknownStation(t *testing.T) {
	f := newFixture(t, Options{})

	for _, path := range []string{"/api/stations/SYS404/pause", "/api/stations/SYS404/resume", "/api/stations/SYS404/end"} {
		w := f.do(t, http.MethodPost, path, testToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := f.do(t, http.MethodDelete, "/api/stations/SYS404", testToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, http.MethodGet, "/api/stations/SYS404", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStations(t *testing.T) {
	f := newFixture(t, Options{})
	w := f.do(t, http.MethodPost, "/api/stations", testToken, addBody("55in", "Ira", 1, 90))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/stations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Stations     []map[string]any           `json:"stations"`
		Availability []session.TierAvailability `json:"availability"`
	}](t, w)
	require.Len(t, body.Stations, 3)
	assert.Equal(t, "SYS003", body.Stations[2]["id"])
	assert.Equal(t, "₹180.00", body.Stations[2]["projectedText"])
	require.Len(t, body.Availability, 3)
	assert.True(t, body.Availability[0].Available)
	assert.False(t, body.Availability[2].Available)
}

func TestGetTiers_Cached(t *testing.T) {
	f := newFixture(t, Options{CacheTTL: time.Minute})

	w := f.do(t, http.MethodGet, "/api/tiers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	tiers := decode[[]map[string]any](t, w)
	require.Len(t, tiers, 3)
	assert.Equal(t, "27in", tiers[0]["id"])
	assert.Equal(t, "₹60.00", tiers[0]["priceText"].(map[string]any)["30m"])
	assert.Equal(t, "₹40.00", tiers[0]["extraControllerText"])

	w = f.do(t, http.MethodGet, "/api/tiers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
}

func TestGetQuote(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name   string
		query  string
		status int
		cost   string
	}{
		{"single band", "tier=27in&minutes=45", http.StatusOK, "₹80.00"},
		{"grace band", "tier=27in&minutes=140", http.StatusOK, "₹160.00"},
		{"block beyond grace", "tier=27in&minutes=170", http.StatusOK, "₹220.00"},
		{"extra controllers", "tier=55in&minutes=60&controllers=3", http.StatusOK, "₹240.00"},
		{"unknown tier", "tier=vr&minutes=60", http.StatusBadRequest, ""},
		{"bad minutes", "tier=27in&minutes=0", http.StatusBadRequest, ""},
		{"bad controllers", "tier=27in&minutes=30&controllers=two", http.StatusBadRequest, ""},
		{"too many controllers", "tier=27in&minutes=30&controllers=5", http.StatusBadRequest, ""},
		{"zero controllers clamp to one", "tier=27in&minutes=30&controllers=0", http.StatusOK, "₹60.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, "/api/quote?"+tt.query, "", nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.cost != "" {
				assert.Equal(t, tt.cost, decode[map[string]any](t, w)["costText"])
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Options{RateLimit: rate.Limit(0.001), RateBurst: 2})

	for i := 0; i < 2; i++ {
		w := f.do(t, http.MethodGet, "/api/summary", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := f.do(t, http.MethodGet, "/api/summary", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health checks are not rate limited")
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "open", decode[map[string]any](t, w)["phase"])

	w = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lounge_stations")

	f.mgr.Close()
	w = f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = f.do(t, http.MethodPost, "/api/stations", testToken, addBody("27in", "Ira", 1, 60))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if name != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestEvents_Stream(t *testing.T) {
	f := newFixture(t, Options{PingInterval: time.Hour})
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	r := bufio.NewReader(resp.Body)
	name, data := readEvent(t, r)
	require.Equal(t, "snapshot", name)
	var snap map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, "snapshot", snap["kind"])
	assert.Len(t, snap["stations"], 3)

	_, err = f.mgr.Add(addRequest("27in", "Ira"))
	require.NoError(t, err)

	name, data = readEvent(t, r)
	require.Equal(t, "changed", name)
	var changed map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &changed))
	assert.Equal(t, "add", changed["change"].(map[string]any)["op"])

	f.clock.Advance(time.Minute)
	f.sched.Tick()
	name, _ = readEvent(t, r)
	assert.Equal(t, "tick", name)
}

func addRequest(tierID, name string) registry.AddRequest {
	return registry.AddRequest{TierID: tierID, PlayerName: name, Controllers: 1, RequestedMinutes: 60}
}
