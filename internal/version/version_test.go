package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newChecker(t *testing.T, current, tag string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/nulzo/calx-web/releases/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"tag_name":"` + tag + `"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("nulzo/calx-web", srv.Client())
	c.baseURL = srv.URL
	c.current = current
	return c
}

func TestChecker_Latest(t *testing.T) {
	latest, outdated, err := newChecker(t, "v1.2.0", "v1.10.0").Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.10.0", latest)
	assert.True(t, outdated)

	_, outdated, err = newChecker(t, "v2.0.0", "v1.10.0").Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, outdated)
}

func TestChecker_CheckForUpdatesLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	newChecker(t, "v0.1.0", "v0.2.0").CheckForUpdates(context.Background(), zap.New(core))
	require.Equal(t, 1, logs.FilterMessage("A newer release is available").Len())

	newChecker(t, "v0.1.0", "not-a-version").CheckForUpdates(context.Background(), zap.New(core))
	assert.Equal(t, 1, logs.FilterMessage("Update check failed").Len())
}
