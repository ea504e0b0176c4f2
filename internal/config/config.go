package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every setting name to form its environment
// variable, e.g. ADAGRAPH_LISTEN_ADDR.
const EnvPrefix = "ADAGRAPH"

// Settings are the runtime settings of the server.
type Settings struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	QueueOrder      string        `mapstructure:"queue_order"`
	MaxFrameSize    uint32        `mapstructure:"max_frame_size"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	HealthcheckPort int           `mapstructure:"healthcheck_port"`
	GraphPath       string        `mapstructure:"graph_path"`
}

// Defaults returns the settings used when neither a file nor the
// environment provides a value.
func Defaults() Settings {
	return Settings{
		ListenAddr:   "127.0.0.1:7878",
		PollInterval: 100 * time.Millisecond,
		QueueOrder:   "lifo",
		MaxFrameSize: 16 << 20,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads settings. path may be empty, in which case only defaults and
// the environment are used.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &s, nil
}

// setDefaults registers every key, which also makes AutomaticEnv see it
// during Unmarshal.
func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("queue_order", d.QueueOrder)
	v.SetDefault("max_frame_size", d.MaxFrameSize)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("healthcheck_port", d.HealthcheckPort)
	v.SetDefault("graph_path", d.GraphPath)
}
