package socketio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/registry"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(container.New().
		Set("url", container.Text("http://localhost:3000/socket.io/")).
		Set("event", container.Text("node_data")).
		Set("timeout", container.Text("2s")))
	require.NoError(t, err)
	assert.Equal(t, Config{
		URL:       "http://localhost:3000/socket.io/",
		Namespace: "/",
		Event:     "node_data",
		Timeout:   2 * time.Second,
	}, cfg)
}

func TestParseConfig_Errors(t *testing.T) {
	cases := []struct {
		name     string
		settings *container.Container
		want     string
	}{
		{"missing url", container.New().Set("event", container.Text("e")), "setting 'url' is required"},
		{"missing event", container.New().Set("url", container.Text("http://x")), "setting 'event' is required"},
		{
			"bad timeout",
			container.New().Set("url", container.Text("http://x")).Set("event", container.Text("e")).Set("timeout", container.Text("later")),
			"setting 'timeout'",
		},
		{
			"wrong kind",
			container.New().Set("url", container.Text("http://x")).Set("event", container.Text("e")).Set("insecure_skip_verify", container.Text("yes")),
			"must be a boolean",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig(tc.settings)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestRegister(t *testing.T) {
	reg := registry.New()
	(&Module{}).Register(reg)

	_, err := reg.NewAction(context.Background(), "socketio", container.New())
	assert.Error(t, err)

	a, err := reg.NewAction(context.Background(), "socketio", container.New().
		Set("url", container.Text("http://127.0.0.1:1")).
		Set("event", container.Text("e")))
	require.NoError(t, err)
	assert.IsType(t, &Action{}, a)
}

func TestEmit_UnreachableServer(t *testing.T) {
	a := &Action{cfg: Config{
		URL:       "http://127.0.0.1:1",
		Namespace: "/",
		Event:     "node_data",
		Timeout:   500 * time.Millisecond,
	}}

	start := time.Now()
	_, err := a.Emit(context.Background(), container.New().Set("k", container.Int(1)))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
