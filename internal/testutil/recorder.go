package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/registry"
)

// RecordModule provides a "record" action that remembers every invocation.
// Nodes using it need a `label` setting and may set `sleep` (e.g. "20ms")
// to hold the node busy.
type RecordModule struct {
	mu             sync.Mutex
	calls          []Invocation
	completionChan chan<- string
}

// NewRecordModule creates a recorder. When completionChan is not nil, the
// label of every finished invocation is sent to it.
func NewRecordModule(completionChan chan<- string) *RecordModule {
	return &RecordModule{completionChan: completionChan}
}

// Register registers the "record" action.
func (m *RecordModule) Register(r *registry.Registry) {
	r.RegisterAction("record", func(_ context.Context, s *container.Container) (graph.Action, error) {
		label, err := registry.RequiredTextSetting(s, "label")
		if err != nil {
			return nil, err
		}
		sleep, err := registry.DurationSetting(s, "sleep", 0)
		if err != nil {
			return nil, err
		}

		return graph.ActionFunc(func(_ context.Context, args *container.Container) {
			startTime := time.Now()
			time.Sleep(sleep)
			endTime := time.Now()

			m.mu.Lock()
			m.calls = append(m.calls, Invocation{
				Label:           label,
				Data:            args,
				ExecutionRecord: ExecutionRecord{Start: startTime, End: endTime},
			})
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- label
			}
		}), nil
	})
}

// Calls returns a copy of the invocations so far.
func (m *RecordModule) Calls() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Invocation(nil), m.calls...)
}

// Labels returns the label of every invocation in call order.
func (m *RecordModule) Labels() []string {
	calls := m.Calls()
	labels := make([]string, len(calls))
	for i, c := range calls {
		labels[i] = c.Label
	}
	return labels
}

// WaitForCalls fails the test unless n invocations happen within timeout.
func (m *RecordModule) WaitForCalls(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(m.Calls()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d invocations within %s, got %d: %v", n, timeout, len(m.Calls()), m.Labels())
}
