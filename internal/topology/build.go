package topology

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/registry"
)

// ErrInvalid wraps every structural problem found in a model.
var ErrInvalid = errors.New("invalid topology")

// Build validates m and adds its nodes and dependency edges to g. Nothing is
// added to g unless the whole model is valid and every action was built.
func Build(ctx context.Context, m *Model, reg *registry.Registry, g *graph.Graph) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building graph from topology.", "nodes", len(m.Nodes))

	if err := validate(m); err != nil {
		return err
	}
	if err := reg.ValidateActions(ctx, m.ActionNames()...); err != nil {
		return err
	}

	nodes := make([]*graph.Node, 0, len(m.Nodes))
	ids := make(map[string]uuid.UUID, len(m.Nodes))
	for _, spec := range m.Nodes {
		nodeCtx := ctxlog.With(ctx, "node", spec.Name, "action", spec.Action)
		action, err := reg.NewAction(nodeCtx, spec.Action, spec.Settings)
		if err != nil {
			return fmt.Errorf("node '%s' (%s): %w", spec.Name, spec.Source, err)
		}
		nodes = append(nodes, graph.NewNode(spec.ID, action))
		ids[spec.Name] = spec.ID
	}

	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, spec := range m.Nodes {
		for _, dep := range spec.Dependents {
			// Both ends were added above.
			if err := g.AddDependent(spec.ID, ids[dep]); err != nil {
				return fmt.Errorf("node '%s': %w", spec.Name, err)
			}
		}
	}

	logger.Info("Graph built.", "nodes", g.Len())
	return nil
}

// validate reports every problem in m at once.
func validate(m *Model) error {
	var errs []error
	fail := func(spec *NodeSpec, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if spec.Source != "" {
			msg = fmt.Sprintf("%s: %s", spec.Source, msg)
		}
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, msg))
	}

	names := make(map[string]*NodeSpec, len(m.Nodes))
	ids := make(map[uuid.UUID]*NodeSpec, len(m.Nodes))
	for _, spec := range m.Nodes {
		switch {
		case spec.Name == "":
			fail(spec, "node has no name")
		case names[spec.Name] != nil:
			fail(spec, "node '%s' is declared twice", spec.Name)
		default:
			names[spec.Name] = spec
		}

		switch {
		case spec.ID == uuid.Nil:
			fail(spec, "node '%s' has no id", spec.Name)
		case ids[spec.ID] != nil:
			fail(spec, "node '%s' reuses id %s of node '%s'", spec.Name, spec.ID, ids[spec.ID].Name)
		default:
			ids[spec.ID] = spec
		}

		if spec.Action == "" {
			fail(spec, "node '%s' has no action", spec.Name)
		}
	}

	for _, spec := range m.Nodes {
		for _, dep := range spec.Dependents {
			switch {
			case dep == spec.Name:
				fail(spec, "node '%s' lists itself as a dependent", spec.Name)
			case names[dep] == nil:
				fail(spec, "node '%s' has unknown dependent '%s'", spec.Name, dep)
			}
		}
	}

	return errors.Join(errs...)
}
