package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/adagraph/internal/app"
	"github.com/vk/adagraph/internal/cli"
)

func writeGraph(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRun_StartupError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeGraph(t, `
		node "a" {
			id = "00000000-0000-0000-0000-00000000000a"
		// Missing closing brace here
	`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{path})

	// --- Assert ---
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "expected an ExitError, got %v", err)
	require.Equal(t, 1, exitErr.Code)
	require.Contains(t, exitErr.Message, "startup failed")
	require.Contains(t, exitErr.Message, "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	t.Parallel()

	path := writeGraph(t, `
node "printer" {
  id     = "00000000-0000-0000-0000-0000000000aa"
  action = "print"
}
`)
	out := &app.SafeBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- run(ctx, out, []string{"-listen", "127.0.0.1:0", "-log-level", "debug", path}) }()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Accepting commands."))
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
