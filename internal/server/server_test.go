package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/calx-web/internal/analytics"
	"github.com/nulzo/calx-web/internal/backend"
	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/nulzo/calx-web/internal/config"
	"github.com/nulzo/calx-web/internal/modelfetch"
	"github.com/nulzo/calx-web/internal/session"
	"github.com/nulzo/calx-web/internal/store/cache"
	"github.com/nulzo/calx-web/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBackend struct {
	devices  []api.Device
	firmware []api.Firmware
	err      error

	settings   *api.DeviceSettings
	sentTo     string
	boundCode  string
	otaDevice  string
	deletedFor string
}

func (f *fakeBackend) Register(context.Context, string, string) (string, error) {
	return "u-new", f.err
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (*api.LoginResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.LoginResult{Token: "backend-token", User: api.User{ID: "u1", Email: email}}, nil
}

func (f *fakeBackend) ListDevices(context.Context, string) ([]api.Device, error) {
	return f.devices, f.err
}

func (f *fakeBackend) FindDevice(_ context.Context, _ string, id string) (*api.Device, error) {
	for i := range f.devices {
		if f.devices[i].ID == id {
			return &f.devices[i], nil
		}
	}
	return nil, &backend.Error{Status: http.StatusNotFound, Message: "Device not found"}
}

func (f *fakeBackend) BindDevice(_ context.Context, _ string, code string) (*api.BindResult, error) {
	f.boundCode = code
	if f.err != nil {
		return nil, f.err
	}
	return &api.BindResult{Status: "bound", DeviceID: "d-new"}, nil
}

func (f *fakeBackend) DeviceActivity(context.Context, string, string) (*api.DeviceActivity, error) {
	return &api.DeviceActivity{}, f.err
}

func (f *fakeBackend) RevokeDeviceToken(context.Context, string, string) error { return f.err }

func (f *fakeBackend) UpdateSettings(_ context.Context, _ string, s api.DeviceSettings) error {
	f.settings = &s
	return f.err
}

func (f *fakeBackend) Messages(context.Context, string, string, string) ([]api.ChatMessage, error) {
	return []api.ChatMessage{{ID: "m1", Sender: "DEVICE", Content: "hi"}}, f.err
}

func (f *fakeBackend) SendMessage(_ context.Context, _ string, deviceID, content string) (*api.ChatMessage, error) {
	f.sentTo = deviceID
	return &api.ChatMessage{ID: "m2", Sender: "WEB", Content: content}, f.err
}

func (f *fakeBackend) UploadFile(_ context.Context, _ string, _ string, content string) (int, error) {
	return len(content), f.err
}

func (f *fakeBackend) DeleteFile(_ context.Context, _ string, deviceID string) error {
	f.deletedFor = deviceID
	return f.err
}

func (f *fakeBackend) TriggerOTA(_ context.Context, _ string, deviceID, _ string) (string, error) {
	f.otaDevice = deviceID
	return "job-1", f.err
}

func (f *fakeBackend) ListFirmware(context.Context, string) ([]api.Firmware, error) {
	return f.firmware, f.err
}

type harness struct {
	t       *testing.T
	handler http.Handler
	backend *fakeBackend
	vendor  *httptest.Server
	cookie  *http.Cookie
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Env: "test", AllowedOrigins: []string{"http://localhost:3000"}},
		Fetch:     config.FetchConfig{RequireSession: true},
		Session:   config.SessionConfig{Store: "memory", TTL: time.Hour, CookieName: "calx_session"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"llama3-70b-8192"}]}`))
	}))
	t.Cleanup(vendor.Close)

	registry := catalog.NewRegistry(map[string]string{catalog.Groq: vendor.URL})
	fb := &fakeBackend{
		devices: []api.Device{
			{ID: "d1", DeviceID: "CALX-01", FirmwareVersion: "1.0.0"},
			{ID: "d2", DeviceID: "CALX-02", FirmwareVersion: "1.2.0"},
		},
		firmware: []api.Firmware{{ID: "fw1", Version: "1.0.0"}, {ID: "fw2", Version: "1.2.0"}},
	}

	srv := New(cfg, zap.NewNop(), Deps{
		Fetcher:   modelfetch.NewService(registry, vendor.Client(), zap.NewNop(), nil),
		Analytics: analytics.NewService(nil),
		Backend:   fb,
		Sessions:  session.NewManager(cache.NewMemoryCache(), time.Hour),
	})

	return &harness{t: t, handler: srv.Handler(), backend: fb, vendor: vendor}
}

func (h *harness) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) login() {
	h.t.Helper()
	w := h.do(http.MethodPost, "/web/auth/login", api.LoginRequest{Email: "a@calx.dev", Password: "secret"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == "calx_session" {
			h.cookie = c
		}
	}
	require.NotNil(h.t, h.cookie)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestProviders(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodGet, "/api/providers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].([]interface{})
	assert.Len(t, data, 8)
	assert.Equal(t, "GEMINI", data[2].(map[string]interface{})["dashboard_id"])
}

func TestFetchModels_RequiresSession(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "groq", APIKey: "good"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestFetchModels(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Fetch.RequireSession = false })

	t.Run("missing fields", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/fetch-models", map[string]string{"provider": "groq"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Provider and API key are required", decode(t, w)["error"])
	})

	t.Run("unknown provider", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "mistral", APIKey: "k"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Unknown provider", body["error"])
		assert.Equal(t, []interface{}{}, body["models"])
	})

	t.Run("local", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "local", APIKey: "none"})
		require.Equal(t, http.StatusOK, w.Code)
		models := decode(t, w)["models"].([]interface{})
		assert.Equal(t, "custom", models[0].(map[string]interface{})["id"])
	})

	t.Run("live", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "groq", APIKey: "good"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.NotContains(t, body, "warning")
		assert.Len(t, body["models"], 1)
	})

	t.Run("rejected key falls back", func(t *testing.T) {
		w := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "groq", APIKey: "bad"})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, modelfetch.WarnUpstream, body["warning"])
		assert.NotEmpty(t, body["models"])
	})
}

func TestFetchModels_RateLimited(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Fetch.RequireSession = false
		c.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	})

	first := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "local", APIKey: "x"})
	assert.Equal(t, http.StatusOK, first.Code)

	second := h.do(http.MethodPost, "/api/fetch-models", api.FetchModelsRequest{Provider: "local", APIKey: "x"})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "Too Many Requests", decode(t, second)["title"])
}

func TestLoginSessionLogout(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodGet, "/web/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	h.login()
	assert.True(t, h.cookie.HttpOnly)

	w = h.do(http.MethodGet, "/web/session", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "d1", body["device_id"])
	assert.NotContains(t, w.Body.String(), "backend-token")

	w = h.do(http.MethodPost, "/web/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(http.MethodGet, "/web/session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_BackendRejects(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.err = &backend.Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}

	w := h.do(http.MethodPost, "/web/auth/login", api.LoginRequest{Email: "a@calx.dev", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["detail"])
}

func TestBackendOutage(t *testing.T) {
	h := newHarness(t, nil)
	h.login()
	h.backend.err = &backend.Error{Status: http.StatusInternalServerError, Message: "boom"}

	w := h.do(http.MethodGet, "/web/device/list", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(http.MethodPost, "/web/auth/register", api.RegisterRequest{Email: "not-an-email", Password: "123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	w = h.do(http.MethodPost, "/web/auth/register", api.RegisterRequest{Email: "a@calx.dev", Password: "123456"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBindSelectsDevice(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	w := h.do(http.MethodPost, "/web/bind/confirm", api.BindRequest{BindCode: "ab-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/web/bind/confirm", api.BindRequest{BindCode: "a b-1 2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "AB12", h.backend.boundCode)

	w = h.do(http.MethodGet, "/web/session", nil)
	assert.Equal(t, "d-new", decode(t, w)["device_id"])
}

func TestSelectCurrentDevice(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	w := h.do(http.MethodPut, "/web/device/current", api.SelectDeviceRequest{DeviceID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPut, "/web/device/current", api.SelectDeviceRequest{DeviceID: "d2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d2", decode(t, w)["device_id"])

	h.do(http.MethodPost, "/web/chat/send", api.SendMessageRequest{Content: "hello"})
	assert.Equal(t, "d2", h.backend.sentTo)
}

func TestSettings(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	w := h.do(http.MethodPost, "/web/device/settings", map[string]interface{}{"power_mode": "TURBO"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "power_mode")

	w = h.do(http.MethodPost, "/web/device/settings", map[string]interface{}{"keyboard": "T9", "text_size": "LARGE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, h.backend.settings)
	assert.Equal(t, "d1", h.backend.settings.DeviceID)
	assert.Equal(t, "T9", h.backend.settings.Keyboard)
}

func TestAIConfig(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	w := h.do(http.MethodPost, "/web/device/ai-config", map[string]interface{}{
		"provider": "GEMINI", "model": "gemini-1.5-pro", "api_key": "k", "max_tokens": 4096, "temperature": 0.5,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/web/device/ai-config", map[string]interface{}{
		"provider": "GEMINI", "model": "gemini-1.5-pro", "api_key": "k", "max_tokens": 150, "temperature": 0.5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ai := h.backend.settings.AIConfig
	require.NotNil(t, ai)
	assert.Equal(t, 600, ai.MaxChars)
	assert.Equal(t, "GEMINI", ai.Provider)
	assert.InDelta(t, 0.5, *ai.Temperature, 1e-9)
}

func TestChatLimits(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	long := string(bytes.Repeat([]byte("x"), api.MaxMessageLength+1))
	w := h.do(http.MethodPost, "/web/chat/send", api.SendMessageRequest{Content: long})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/web/chat/messages?since=2026-01-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 1)
}

func TestFileUploadAndDelete(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	tooBig := string(bytes.Repeat([]byte("y"), api.MaxFileChars+1))
	w := h.do(http.MethodPost, "/web/file/upload", api.UploadFileRequest{Content: tooBig})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/web/file/upload", api.UploadFileRequest{Content: "notes"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, decode(t, w)["char_count"])

	w = h.do(http.MethodDelete, "/web/file/d2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "d2", h.backend.deletedFor)
}

func TestFirmwareAndOTA(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	w := h.do(http.MethodGet, "/web/device/update/firmware", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "fw2", body["latest"].(map[string]interface{})["id"])
	assert.Equal(t, "1.0.0", body["current_version"])
	assert.Equal(t, true, body["update_available"])

	w = h.do(http.MethodPost, "/web/device/update/trigger", api.TriggerOTARequest{FirmwareID: "fw2"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "job-1", decode(t, w)["job_id"])
	assert.Equal(t, "d1", h.backend.otaDevice)
}

func TestFirmware_SelectedDeviceGone(t *testing.T) {
	h := newHarness(t, nil)
	h.login()
	// d1 was unbound elsewhere after login selected it
	h.backend.devices = h.backend.devices[1:]

	w := h.do(http.MethodGet, "/web/device/update/firmware", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "fw2", body["latest"].(map[string]interface{})["id"])
	assert.Len(t, body["firmware"], 2)
	assert.NotContains(t, body, "current_version")
	assert.Equal(t, false, body["update_available"])
}

func TestNoDeviceSelected(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.devices = nil
	h.login()

	w := h.do(http.MethodPost, "/web/chat/send", api.SendMessageRequest{Content: "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "No device selected")
}

func TestDiagnostics(t *testing.T) {
	h := newHarness(t, nil)
	h.login()

	w := h.do(http.MethodGet, "/api/diagnostics/fetches?days=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/diagnostics/fetches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["data"])
}

func TestCORS(t *testing.T) {
	h := newHarness(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/fetch-models", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/fetch-models", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
