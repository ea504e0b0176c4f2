// Package print provides the "print" action, which writes the data a node
// receives to an output stream and to the log.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Nil means os.Stdout.
	Out io.Writer
}

// Action prints every container it is invoked with.
type Action struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
}

// Invoke prints args one key per line, sorted by key.
func (a *Action) Invoke(ctx context.Context, args *container.Container) {
	ctxlog.FromContext(ctx).Info("Printing input", "prefix", a.prefix, "data", args)

	a.mu.Lock()
	defer a.mu.Unlock()

	fmt.Fprintf(a.out, "[%s]\n", a.prefix)
	if args.Len() == 0 {
		fmt.Fprintln(a.out, "      (empty)")
		return
	}
	for _, k := range args.Keys() {
		v, _ := args.Get(k)
		if t, ok := v.AsText(); ok {
			fmt.Fprintf(a.out, "      %s = %q\n", k, t)
			continue
		}
		fmt.Fprintf(a.out, "      %s = %s\n", k, v)
	}
}

// Register registers the action factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("print", func(_ context.Context, settings *container.Container) (graph.Action, error) {
		prefix, err := registry.TextSetting(settings, "prefix", "print")
		if err != nil {
			return nil, err
		}
		out := m.Out
		if out == nil {
			out = os.Stdout
		}
		return &Action{out: out, prefix: prefix}, nil
	})
}
