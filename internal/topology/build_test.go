package topology

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/registry"
)

// recorder builds actions that log the name of the node they belong to.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) Register(reg *registry.Registry) {
	reg.RegisterAction("record", func(_ context.Context, s *container.Container) (graph.Action, error) {
		name, _ := s.Get("name")
		label, _ := name.AsText()
		return graph.ActionFunc(func(context.Context, *container.Container) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.calls = append(r.calls, label)
		}), nil
	})
}

func spec(name, action string, deps ...string) *NodeSpec {
	return &NodeSpec{
		Name:       name,
		ID:         uuid.New(),
		Action:     action,
		Dependents: deps,
		Settings:   container.New().Set("name", container.Text(name)),
	}
}

func TestBuild_PopulatesGraph(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	reg := registry.New()
	rec.Register(reg)

	a, b, c := spec("a", "record", "b", "c"), spec("b", "record"), spec("c", "record")
	g := graph.New()
	require.NoError(t, Build(ctx, &Model{Nodes: []*NodeSpec{a, b, c}}, reg, g))

	assert.Equal(t, 3, g.Len())
	node, ok := g.Node(a.ID)
	require.True(t, ok)
	assert.ElementsMatch(t, []uuid.UUID{b.ID, c.ID}, node.Dependents())

	require.NoError(t, g.Propagate(ctx, a.ID, container.New()))
	assert.ElementsMatch(t, []string{"b", "c"}, rec.calls)
}

func TestBuild_InvalidModels(t *testing.T) {
	reg := registry.New()
	(&recorder{}).Register(reg)

	dupID := spec("x", "record")
	sameID := spec("y", "record")
	sameID.ID = dupID.ID
	noID := spec("z", "record")
	noID.ID = uuid.Nil

	cases := []struct {
		name  string
		nodes []*NodeSpec
		want  []string
	}{
		{"duplicate name", []*NodeSpec{spec("a", "record"), spec("a", "record")}, []string{"declared twice"}},
		{"duplicate id", []*NodeSpec{dupID, sameID}, []string{"reuses id"}},
		{"missing id", []*NodeSpec{noID}, []string{"has no id"}},
		{"missing action", []*NodeSpec{spec("a", "")}, []string{"has no action"}},
		{"unknown dependent", []*NodeSpec{spec("a", "record", "ghost")}, []string{"unknown dependent 'ghost'"}},
		{"self dependent", []*NodeSpec{spec("a", "record", "a")}, []string{"lists itself"}},
		{
			"several problems",
			[]*NodeSpec{spec("a", "record", "ghost"), spec("", "record")},
			[]string{"unknown dependent", "has no name"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := graph.New()
			err := Build(context.Background(), &Model{Nodes: tc.nodes}, reg, g)
			require.ErrorIs(t, err, ErrInvalid)
			for _, w := range tc.want {
				assert.Contains(t, err.Error(), w)
			}
			assert.Equal(t, 0, g.Len(), "nothing may be added from an invalid model")
		})
	}
}

func TestBuild_UnknownAction(t *testing.T) {
	g := graph.New()
	err := Build(context.Background(), &Model{Nodes: []*NodeSpec{spec("a", "missing")}}, registry.New(), g)
	assert.ErrorIs(t, err, registry.ErrUnknownAction)
	assert.Equal(t, 0, g.Len())
}

func TestBuild_FactoryError(t *testing.T) {
	reg := registry.New()
	reg.RegisterAction("bad", func(context.Context, *container.Container) (graph.Action, error) {
		return nil, assert.AnError
	})
	(&recorder{}).Register(reg)

	g := graph.New()
	err := Build(context.Background(), &Model{Nodes: []*NodeSpec{spec("ok", "record"), spec("a", "bad")}}, reg, g)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "node 'a'")
	assert.Equal(t, 0, g.Len())
}
