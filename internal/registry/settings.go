package registry

import (
	"fmt"
	"time"

	"github.com/vk/adagraph/internal/container"
)

// TextSetting reads a Text setting, returning def when the key is absent.
func TextSetting(s *container.Container, key, def string) (string, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	t, ok := v.AsText()
	if !ok {
		return "", fmt.Errorf("setting '%s' must be text, got %s", key, v.Kind())
	}
	return t, nil
}

// RequiredTextSetting reads a Text setting that must be present and not empty.
func RequiredTextSetting(s *container.Container, key string) (string, error) {
	t, err := TextSetting(s, key, "")
	if err != nil {
		return "", err
	}
	if t == "" {
		return "", fmt.Errorf("setting '%s' is required", key)
	}
	return t, nil
}

// IntSetting reads an Integer setting, returning def when the key is absent.
func IntSetting(s *container.Container, key string, def int) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, fmt.Errorf("setting '%s' must be an integer, got %s", key, v.Kind())
	}
	return int(i), nil
}

// BoolSetting reads a Boolean setting, returning def when the key is absent.
func BoolSetting(s *container.Container, key string, def bool) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	b, ok := v.AsBool()
	if !ok {
		return false, fmt.Errorf("setting '%s' must be a boolean, got %s", key, v.Kind())
	}
	return b, nil
}

// DurationSetting reads a Text setting such as "10s" as a duration.
func DurationSetting(s *container.Container, key string, def time.Duration) (time.Duration, error) {
	t, err := TextSetting(s, key, "")
	if err != nil || t == "" {
		return def, err
	}
	d, err := time.ParseDuration(t)
	if err != nil {
		return 0, fmt.Errorf("setting '%s': %w", key, err)
	}
	return d, nil
}
