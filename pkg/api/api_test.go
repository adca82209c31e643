package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gopass/dashboard/pkg/api/stats"
	"github.com/gopass/dashboard/pkg/apiclient"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/gopass/dashboard/pkg/feed"
	"github.com/gopass/dashboard/pkg/session"
	"github.com/gopass/dashboard/pkg/tracking"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	data string
}

func (s staticSource) Watch(ctx context.Context, path string, emit func(feed.Snapshot)) error {
	snapshot, err := feed.DecodeSnapshot(path, []byte(s.data), time.Now())
	if err != nil {
		return err
	}
	emit(snapshot)

	<-ctx.Done()
	return ctx.Err()
}

type backendState struct {
	role       string
	statsCalls atomic.Int32
	routeCalls atomic.Int32
	lastUpdate atomic.Value
}

func newBackend(t *testing.T, state *backendState) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/auth/login":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{
					"user":   map[string]interface{}{"id": "u1", "email": "admin@gopass.rw", "role": state.role},
					"tokens": map[string]interface{}{"accessToken": "access", "refreshToken": "refresh"},
				},
			})
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			w.Write([]byte(`{"data":[{"id":"u1","name":"Aline","role":"ADMIN"},{"id":"u2","name":"Eric","role":"DRIVER"}]}`))
		case r.URL.Path == "/users/u9":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"User not found"}`))
		case r.URL.Path == "/buses" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"bus-9","plateNumber":"RAE001A","status":"ACTIVE"}}`))
		case r.URL.Path == "/buses/bus-1" && r.Method == http.MethodGet:
			w.Write([]byte(`{"data":{"id":"bus-1","plateNumber":"RAD123B","capacity":30,"status":"ACTIVE","routeId":"r1","driverId":"u2"}}`))
		case r.URL.Path == "/buses/bus-1" && r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			state.lastUpdate.Store(string(body))
			w.Write([]byte(`{"data":{"id":"bus-1"}}`))
		case r.URL.Path == "/buses":
			w.Write([]byte(`{"data":[{"id":"bus-1","plateNumber":"RAD123B","status":"ON_ROUTE","routeId":"r1"}]}`))
		case r.URL.Path == "/routes" && r.Method == http.MethodPost:
			state.routeCalls.Add(1)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"r2","name":"Express"}}`))
		case r.URL.Path == "/routes":
			w.Write([]byte(`{"data":[{"id":"r1","name":"Downtown","origin":"Nyabugogo","destination":"Remera"}]}`))
		case r.URL.Path == "/bookings/b1" && r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/admin/stats" || r.URL.Path == "/stats":
			state.statsCalls.Add(1)
			w.Write([]byte(`{"data":{"totalUsers":12,"activeBuses":3,"totalBookings":40,"activePasses":5,"totalRevenue":1200}}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func newTestApp(t *testing.T, state *backendState, statsCache *stats.Cache) (*fiber.App, *session.Session) {
	t.Helper()

	backend := newBackend(t, state)

	client := apiclient.New(config.APISettings{BaseURL: backend.URL, Timeout: 5 * time.Second})
	operatorSession := session.New(client, &session.MemoryStore{}, nil)
	client.SetTokenProvider(operatorSession)

	settings := config.Default()
	settings.Feed.Kind = "redis"
	options := tracking.OptionsFrom(settings)
	options.Sink = nil

	view := tracking.NewView(client, staticSource{data: `{"bus-1":{"lat":-1.95,"lng":30.06,"speed":8,"updatedAt":` + nowMillis() + `}}`}, options)

	app := NewApp(Dependencies{
		API:            client,
		Session:        operatorSession,
		View:           view,
		Stats:          statsCache,
		CaptureTimeout: 2 * time.Second,
	})

	return app, operatorSession
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func request(t *testing.T, app *fiber.App, token string, method string, target string, body string) (*http.Response, map[string]interface{}, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)

	return resp, decoded, raw
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, body, _ := request(t, app, "", http.MethodPost, "/dashboard/auth/login", `{"email":"admin@gopass.rw","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "access", body["accessToken"])

	return body["accessToken"].(string)
}

func TestVersion(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)

	resp, body, _ := request(t, app, "", http.MethodGet, "/dashboard/version", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dev", body["version"])
	assert.Equal(t, "gopass-dashboard", body["name"])
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)

	resp, body, _ := request(t, app, "", http.MethodGet, "/dashboard/users", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestAnonymousCallersAreRefusedOnceTheOperatorIsLoggedIn(t *testing.T) {
	app, operatorSession := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	for _, target := range []string{"/dashboard/users", "/dashboard/buses", "/dashboard/stats", "/dashboard/tracking", "/dashboard/auth/profile"} {
		resp, _, _ := request(t, app, "", http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)

		resp, _, _ = request(t, app, "not-the-operator", http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
	}

	resp, _, _ := request(t, app, "", http.MethodDelete, "/dashboard/bookings/b1", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _, _ = request(t, app, "", http.MethodPost, "/dashboard/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.True(t, operatorSession.IsAuthenticated())

	resp, _, _ = request(t, app, token, http.MethodGet, "/dashboard/users", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _, _ = request(t, app, token, http.MethodPost, "/dashboard/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, operatorSession.IsAuthenticated())

	resp, _, _ = request(t, app, token, http.MethodGet, "/dashboard/users", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRefuseNonAdmin(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "DRIVER"}, nil)
	token := login(t, app)

	resp, _, _ := request(t, app, token, http.MethodGet, "/dashboard/buses", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLoginValidation(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)

	resp, _, _ := request(t, app, "", http.MethodPost, "/dashboard/auth/login", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsersList(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	resp, _, raw := request(t, app, token, http.MethodGet, "/dashboard/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &users))
	assert.Len(t, users, 2)
	assert.Equal(t, "Eric", users[1]["name"])
}

func TestBackendErrorsKeepTheirStatus(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	resp, body, _ := request(t, app, token, http.MethodGet, "/dashboard/users/u9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", body["error"])
}

func TestBusCreateAndStatus(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	resp, body, _ := request(t, app, token, http.MethodPost, "/dashboard/buses", `{"plateNumber":"RAE001A","capacity":30}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "bus-9", body["id"])

	resp, _, _ = request(t, app, token, http.MethodPatch, "/dashboard/buses/bus-1/status", `{"status":"FLYING"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBusPartialUpdateKeepsCurrentFields(t *testing.T) {
	state := &backendState{role: "ADMIN"}
	app, _ := newTestApp(t, state, nil)
	token := login(t, app)

	resp, _, _ := request(t, app, token, http.MethodPatch, "/dashboard/buses/bus-1", `{"status":"MAINTENANCE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sent, ok := state.lastUpdate.Load().(string)
	require.True(t, ok)
	assert.JSONEq(t, `{"plateNumber":"RAD123B","capacity":30,"status":"MAINTENANCE","routeId":"r1","driverId":"u2"}`, sent)
}

func TestRouteDurationIsChecked(t *testing.T) {
	state := &backendState{role: "ADMIN"}
	app, _ := newTestApp(t, state, nil)
	token := login(t, app)

	resp, body, _ := request(t, app, token, http.MethodPost, "/dashboard/routes", `{"name":"Express","estimatedDuration":"about an hour"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "estimatedDuration")

	resp, _, _ = request(t, app, token, http.MethodPut, "/dashboard/routes/r1", `{"estimatedDuration":"PT1X"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(0), state.routeCalls.Load())

	for _, estimate := range []string{"PT45M", "1h30m", "45", ""} {
		resp, _, _ = request(t, app, token, http.MethodPost, "/dashboard/routes", `{"name":"Express","estimatedDuration":"`+estimate+`"}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, estimate)
	}
	assert.Equal(t, int32(4), state.routeCalls.Load())
}

func TestBookingDelete(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	resp, _, _ := request(t, app, token, http.MethodDelete, "/dashboard/bookings/b1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestStatsAreCached(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	state := &backendState{role: "ADMIN"}
	app, _ := newTestApp(t, state, stats.NewCache(client, time.Minute))
	token := login(t, app)

	for i := 0; i < 3; i++ {
		resp, body, _ := request(t, app, token, http.MethodGet, "/dashboard/stats", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 12, body["totalUsers"])
	}
	assert.EqualValues(t, 1, state.statsCalls.Load())

	resp, _, _ := request(t, app, token, http.MethodPost, "/dashboard/stats/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, state.statsCalls.Load())
}

func TestRecordWritesInvalidateStats(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	state := &backendState{role: "ADMIN"}
	app, _ := newTestApp(t, state, stats.NewCache(client, time.Minute))
	token := login(t, app)

	request(t, app, token, http.MethodGet, "/dashboard/stats", "")
	request(t, app, token, http.MethodGet, "/dashboard/users", "")
	request(t, app, token, http.MethodGet, "/dashboard/stats", "")
	assert.EqualValues(t, 1, state.statsCalls.Load())

	resp, _, _ := request(t, app, token, http.MethodPatch, "/dashboard/buses/bus-1/status", `{"status":"FLYING"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	request(t, app, token, http.MethodGet, "/dashboard/stats", "")
	assert.EqualValues(t, 1, state.statsCalls.Load())

	resp, _, _ = request(t, app, token, http.MethodDelete, "/dashboard/bookings/b1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	request(t, app, token, http.MethodGet, "/dashboard/stats", "")
	assert.EqualValues(t, 2, state.statsCalls.Load())
}

func TestStatsWithoutCache(t *testing.T) {
	state := &backendState{role: "ADMIN"}
	app, _ := newTestApp(t, state, stats.NewCache(nil, 0))
	token := login(t, app)

	request(t, app, token, http.MethodGet, "/dashboard/stats", "")
	request(t, app, token, http.MethodGet, "/dashboard/stats", "")
	assert.EqualValues(t, 2, state.statsCalls.Load())
}

func TestTrackingBoard(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	resp, body, _ := request(t, app, token, http.MethodGet, "/dashboard/tracking?groups=detailed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cards := body["cards"].([]interface{})
	require.Len(t, cards, 1)

	card := cards[0].(map[string]interface{})
	assert.Equal(t, "RAD123B", card["plateNumber"])
	assert.Equal(t, "Downtown", card["routeLabel"])
	assert.Equal(t, "28.8 km/h", card["speed"])
	assert.Contains(t, card, "position")
	assert.Contains(t, body, "mapCenter")
}

func TestTrackingBoardBasicGroup(t *testing.T) {
	app, _ := newTestApp(t, &backendState{role: "ADMIN"}, nil)
	token := login(t, app)

	resp, body, _ := request(t, app, token, http.MethodGet, "/dashboard/tracking", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	card := body["cards"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "live", card["state"])
	assert.NotContains(t, card, "position")
	assert.NotContains(t, body, "mapCenter")
}
