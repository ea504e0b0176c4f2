package graph

import (
	"context"

	"github.com/vk/adagraph/internal/container"
)

// Action is the work a node performs. Implementations are supplied by the
// embedding application (see package registry). The container is owned by
// the action for the duration of the call.
type Action interface {
	Invoke(ctx context.Context, args *container.Container)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, args *container.Container)

// Invoke calls f(ctx, args).
func (f ActionFunc) Invoke(ctx context.Context, args *container.Container) {
	f(ctx, args)
}
