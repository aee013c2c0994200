package httpclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulzo/calx-web/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := httpclient.SendRequest(context.Background(), server.Client(), "POST", server.URL,
		map[string]string{"Authorization": "Bearer abc"}, map[string]string{"a": "b"}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestSendRequest_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	err := httpclient.SendRequest(context.Background(), server.Client(), "GET", server.URL, nil, nil, nil)

	var upstream *httpclient.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
	assert.JSONEq(t, `{"error":"nope"}`, string(upstream.Body))
}

func TestSendRequest_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := httpclient.SendRequest(context.Background(), server.Client(), "GET", server.URL, nil, nil, &out)

	var decodeErr *httpclient.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestGet_ReturnsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	body, err := httpclient.Get(context.Background(), server.Client(), server.URL, map[string]string{"X-Test": "v"})
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(body))
}
