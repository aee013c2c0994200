package modelfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/nulzo/calx-web/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var allProviders = []string{
	catalog.OpenAI, catalog.Anthropic, catalog.Google, catalog.DeepSeek,
	catalog.Perplexity, catalog.Groq, catalog.OpenRouter,
}

type captureRecorder struct {
	mu       sync.Mutex
	attempts []model.FetchAttempt
}

func (c *captureRecorder) Log(a *model.FetchAttempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts = append(c.attempts, *a)
}

func (c *captureRecorder) last(t *testing.T) model.FetchAttempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.attempts)
	return c.attempts[len(c.attempts)-1]
}

// newTestService points every provider at srv.
func newTestService(t *testing.T, srv *httptest.Server, logger *zap.Logger) (*Service, *captureRecorder) {
	t.Helper()
	overrides := map[string]string{}
	for _, id := range allProviders {
		overrides[id] = srv.URL
	}
	rec := &captureRecorder{}
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewService(catalog.NewRegistry(overrides), srv.Client(), logger, rec), rec
}

func serve(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestFetchModels_Local(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()
	svc, rec := newTestService(t, srv, nil)

	res := svc.FetchModels(context.Background(), catalog.Local, "")

	assert.Equal(t, catalog.Fallback(catalog.Local), res.Models)
	assert.Empty(t, res.Warning)
	assert.Empty(t, res.Error)
	assert.Equal(t, 0, hits)
	assert.Equal(t, model.OutcomeLocal, rec.last(t).Outcome)
}

func TestFetchModels_UnknownProvider(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()
	svc, rec := newTestService(t, srv, nil)

	res := svc.FetchModels(context.Background(), "mistral", "sk-x")

	assert.NotNil(t, res.Models)
	assert.Empty(t, res.Models)
	assert.Equal(t, ErrUnknownProvider, res.Error)
	assert.Equal(t, KindUnknownProvider, res.Kind)
	assert.Equal(t, 0, hits)
	assert.Equal(t, model.OutcomeUnknownProvider, rec.last(t).Outcome)
}

func TestFetchModels_UpstreamErrorFallsBackForEveryProvider(t *testing.T) {
	srv := serve(http.StatusUnauthorized, `{"error":"invalid api key"}`)
	defer srv.Close()
	svc, rec := newTestService(t, srv, nil)

	for _, id := range allProviders {
		t.Run(id, func(t *testing.T) {
			res := svc.FetchModels(context.Background(), id, "bad-key")

			assert.Equal(t, catalog.Fallback(id), res.Models)
			assert.NotEmpty(t, res.Models)
			assert.Equal(t, WarnUpstream, res.Warning)
			assert.Empty(t, res.Error)
			assert.Equal(t, KindUpstream, res.Kind)
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, model.OutcomeUpstream, rec.last(t).Outcome)
		})
	}
}

func TestFetchModels_EmptyList(t *testing.T) {
	srv := serve(http.StatusOK, `{"data":[]}`)
	defer srv.Close()
	svc, rec := newTestService(t, srv, nil)

	tests := []string{catalog.OpenAI, catalog.DeepSeek, catalog.Perplexity, catalog.Groq, catalog.OpenRouter}
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			res := svc.FetchModels(context.Background(), id, "k")

			assert.Equal(t, catalog.Fallback(id), res.Models)
			assert.Equal(t, WarnEmpty, res.Warning)
			assert.Empty(t, res.Error)
			assert.Equal(t, KindEmpty, res.Kind)
			assert.Equal(t, model.OutcomeEmpty, rec.last(t).Outcome)
		})
	}
}

func TestFetchModels_FilteredToEmpty(t *testing.T) {
	srv := serve(http.StatusOK, `{"data":[{"id":"whisper-1"},{"id":"dall-e-3"}]}`)
	defer srv.Close()
	svc, _ := newTestService(t, srv, nil)

	res := svc.FetchModels(context.Background(), catalog.OpenAI, "k")

	assert.Equal(t, WarnEmpty, res.Warning)
	assert.Equal(t, catalog.Fallback(catalog.OpenAI), res.Models)
}

func TestFetchModels_MalformedBody(t *testing.T) {
	srv := serve(http.StatusOK, `<html>gateway</html>`)
	defer srv.Close()
	svc, _ := newTestService(t, srv, nil)

	res := svc.FetchModels(context.Background(), catalog.DeepSeek, "k")

	assert.Equal(t, WarnNetwork, res.Warning)
	assert.Equal(t, KindTransport, res.Kind)
	assert.Equal(t, catalog.Fallback(catalog.DeepSeek), res.Models)
}

func TestFetchModels_TransportFailure(t *testing.T) {
	srv := serve(http.StatusOK, `{}`)
	svc, rec := newTestService(t, srv, nil)
	srv.Close()

	res := svc.FetchModels(context.Background(), catalog.Anthropic, "k")

	assert.Equal(t, WarnNetwork, res.Warning)
	assert.Equal(t, KindTransport, res.Kind)
	assert.Equal(t, 0, res.StatusCode)
	assert.Equal(t, catalog.Fallback(catalog.Anthropic), res.Models)
	assert.Equal(t, model.OutcomeTransport, rec.last(t).Outcome)
}

func TestFetchModels_CancelledContext(t *testing.T) {
	srv := serve(http.StatusOK, `{"data":[{"id":"llama3-8b-8192"}]}`)
	defer srv.Close()
	svc, _ := newTestService(t, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.FetchModels(ctx, catalog.Groq, "k")

	assert.Equal(t, WarnNetwork, res.Warning)
}

func TestFetchModels_Live(t *testing.T) {
	srv := serve(http.StatusOK, `{"data":[{"id":"llama3-70b-8192"},{"id":"mixtral-8x7b-32768"}]}`)
	defer srv.Close()
	svc, rec := newTestService(t, srv, nil)

	res := svc.FetchModels(context.Background(), catalog.Groq, "k")

	require.Len(t, res.Models, 2)
	assert.Equal(t, "llama3-70b-8192", res.Models[0].ID)
	assert.Equal(t, "llama3-70b-8192", res.Models[0].Name)
	assert.Empty(t, res.Warning)
	assert.Equal(t, SourceLive, res.Source)

	last := rec.last(t)
	assert.Equal(t, model.OutcomeLive, last.Outcome)
	assert.Equal(t, 2, last.ModelCount)
	assert.NotEmpty(t, last.ID)

	list := res.ToList()
	assert.Equal(t, res.Models, list.Models)
	assert.Empty(t, list.Error)
}

func TestFetchModels_AttachesCredential(t *testing.T) {
	type seen struct {
		auth, apiKey, version, query, path string
	}
	var got seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = seen{
			auth:    r.Header.Get("Authorization"),
			apiKey:  r.Header.Get("x-api-key"),
			version: r.Header.Get("anthropic-version"),
			query:   r.URL.Query().Get("key"),
			path:    r.URL.Path,
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	svc, _ := newTestService(t, srv, nil)

	svc.FetchModels(context.Background(), catalog.OpenAI, "sk-openai")
	assert.Equal(t, seen{auth: "Bearer sk-openai", path: "/models"}, got)

	svc.FetchModels(context.Background(), catalog.Anthropic, "sk-ant")
	assert.Equal(t, seen{apiKey: "sk-ant", version: "2023-06-01", path: "/models"}, got)

	svc.FetchModels(context.Background(), catalog.Google, "AIza")
	assert.Equal(t, seen{query: "AIza", path: "/models"}, got)
}

func TestFetchModels_NeverLogsCredential(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	srv := serve(http.StatusForbidden, `{"error":"key AIza-secret is not valid"}`)
	defer srv.Close()
	svc, _ := newTestService(t, srv, zap.New(core))

	svc.FetchModels(context.Background(), catalog.Google, "AIza-secret")

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, "AIza-secret")
		for _, v := range entry.ContextMap() {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "AIza-secret")
			}
		}
	}
}

func TestFetchModels_Concurrent(t *testing.T) {
	srv := serve(http.StatusOK, `{"data":[{"id":"deepseek-chat"}]}`)
	defer srv.Close()
	svc, rec := newTestService(t, srv, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := svc.FetchModels(context.Background(), catalog.DeepSeek, "k")
			assert.Len(t, res.Models, 1)
		}()
	}
	wg.Wait()
	assert.Len(t, rec.attempts, 20)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "upstream", KindUpstream.String())
	assert.Equal(t, "none", KindNone.String())
}
