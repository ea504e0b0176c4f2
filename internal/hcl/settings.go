package hcl

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
)

// decodeSettings evaluates the attributes of a settings block into a
// container. A nil body yields an empty container.
func decodeSettings(ctx context.Context, body hcl.Body) (*container.Container, error) {
	c := container.New()
	if body == nil {
		return c, nil
	}

	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid settings block: %w", diags)
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("setting '%s': %w", name, diags)
		}
		v, err := toValue(val)
		if err != nil {
			return nil, fmt.Errorf("setting '%s': %w", name, err)
		}
		c.Set(name, v)
	}

	ctxlog.FromContext(ctx).Debug("Decoded node settings.", "settings", c)
	return c, nil
}

// toValue converts a primitive cty value to a container value.
func toValue(val cty.Value) (container.Value, error) {
	if val.IsNull() || !val.IsKnown() {
		return container.Value{}, fmt.Errorf("value must be known and not null")
	}

	switch ty := val.Type(); ty {
	case cty.String:
		return container.Text(val.AsString()), nil
	case cty.Bool:
		return container.Bool(val.True()), nil
	case cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact && i >= math.MinInt32 && i <= math.MaxInt32 {
				return container.Int(int32(i)), nil
			}
		}
		f, _ := bf.Float64()
		return container.Float(f), nil
	default:
		return container.Value{}, fmt.Errorf("unsupported type %s, want string, number or bool", ty.FriendlyName())
	}
}
