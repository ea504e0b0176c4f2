package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/registry"
)

type captured struct {
	method string
	auth   string
	ctype  string
	body   map[string]any
}

func newEndpoint(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got = append(got, captured{
			method: r.Method,
			auth:   r.Header.Get("Authorization"),
			ctype:  r.Header.Get("Content-Type"),
			body:   body,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestSend(t *testing.T) {
	srv, requests := newEndpoint(t, http.StatusAccepted)

	a := New(Config{URL: srv.URL, Method: http.MethodPost, Token: "secret", Timeout: 2 * time.Second})
	t.Cleanup(func() { a.Close() })

	status, err := a.Send(context.Background(), container.New().
		Set("int", container.Int(1)).
		Set("float", container.Float(2.5)).
		Set("text", container.Text("hello")).
		Set("boolean", container.Bool(true)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)

	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPost, got[0].method)
	assert.Equal(t, "Bearer secret", got[0].auth)
	assert.Contains(t, got[0].ctype, "application/json")
	assert.Equal(t, map[string]any{
		"int":     float64(1),
		"float":   2.5,
		"text":    "hello",
		"boolean": true,
	}, got[0].body)
}

func TestSend_ErrorStatus(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusInternalServerError)

	a := New(Config{URL: srv.URL, Method: http.MethodPut, Timeout: 2 * time.Second})
	t.Cleanup(func() { a.Close() })

	status, err := a.Send(context.Background(), container.New().Set("k", container.Int(1)))
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)

	// Invoke only logs.
	assert.NotPanics(t, func() { a.Invoke(context.Background(), container.New()) })
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(container.New().
		Set("url", container.Text("http://example.test/hook")).
		Set("method", container.Text("put")).
		Set("retries", container.Int(2)))
	require.NoError(t, err)
	assert.Equal(t, Config{
		URL:     "http://example.test/hook",
		Method:  http.MethodPut,
		Timeout: 5 * time.Second,
		Retries: 2,
	}, cfg)

	_, err = ParseConfig(container.New())
	assert.ErrorContains(t, err, "setting 'url' is required")

	_, err = ParseConfig(container.New().Set("url", container.Text("http://x")).Set("method", container.Text("GET")))
	assert.ErrorContains(t, err, "cannot carry a body")

	_, err = ParseConfig(container.New().Set("url", container.Text("http://x")).Set("retries", container.Int(-1)))
	assert.ErrorContains(t, err, "must not be negative")
}

func TestRegister(t *testing.T) {
	reg := registry.New()
	(&Module{}).Register(reg)

	a, err := reg.NewAction(context.Background(), "webhook", container.New().Set("url", container.Text("http://x")))
	require.NoError(t, err)
	require.IsType(t, &Action{}, a)
	a.(*Action).Close()
}
