package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/adagraph/internal/hcl"
	"github.com/vk/adagraph/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance from an HCL topology for system
// testing. Set ADAGRAPH_TEST_LOGS=true to dump the captured logs.
func SetupAppTest(t *testing.T, cfg *Config, modules ...registry.Module) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp, err := NewApp(logBuffer, cfg, hcl.NewLoader(), modules...)
	if err != nil {
		t.Fatalf("failed to create app: %v\n%s", err, logBuffer.String())
	}

	t.Cleanup(func() {
		if os.Getenv("ADAGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
