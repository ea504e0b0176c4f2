package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/adagraph/internal/ctxlog"
)

// ErrUnknownAction is returned for an action name nothing registered.
var ErrUnknownAction = errors.New("unknown action")

// ValidateActions checks that every name in use has a registered factory and
// reports all missing names at once.
func (r *Registry) ValidateActions(ctx context.Context, names ...string) error {
	logger := ctxlog.FromContext(ctx)

	var errs []string
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := r.factories[name]; !ok {
			errs = append(errs, fmt.Sprintf("action '%s' is not registered", name))
		}
	}

	if len(errs) > 0 {
		logger.Debug("Action validation failed.", "registered", r.Names())
		return fmt.Errorf("%w: registry validation failed:\n- %s", ErrUnknownAction, strings.Join(errs, "\n- "))
	}
	return nil
}
