package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/adagraph/internal/app"
	"github.com/vk/adagraph/internal/config"
	"github.com/vk/adagraph/internal/queue"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Settings come from the optional -config file and ADAGRAPH_* variables;
// flags given explicitly take precedence over both.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("adagraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
adagraph - A TCP command server driving a graph of executable nodes.

Usage:
  adagraph [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Every option can also be set in the -config file or through an ADAGRAPH_*
environment variable (e.g. ADAGRAPH_LISTEN_ADDR). Flags win.

Options:
`)
		flagSet.PrintDefaults()
	}

	d := config.Defaults()
	configFlag := flagSet.String("config", "", "Path to a YAML settings file.")
	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	listenFlag := flagSet.String("listen", d.ListenAddr, "TCP address of the ingestion server.")
	intervalFlag := flagSet.Duration("poll-interval", d.PollInterval, "Pause between two drains of the command queue.")
	orderFlag := flagSet.String("queue-order", d.QueueOrder, "Order in which queued commands are dispatched. Options: 'lifo' or 'fifo'.")
	maxFrameFlag := flagSet.Uint("max-frame-size", uint(d.MaxFrameSize), "Largest frame accepted, in bytes.")
	healthPortFlag := flagSet.Int("healthcheck-port", d.HealthcheckPort, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", d.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", d.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	settings, err := config.Load(*configFlag)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			settings.ListenAddr = *listenFlag
		case "poll-interval":
			settings.PollInterval = *intervalFlag
		case "queue-order":
			settings.QueueOrder = *orderFlag
		case "max-frame-size":
			settings.MaxFrameSize = uint32(*maxFrameFlag)
		case "healthcheck-port":
			settings.HealthcheckPort = *healthPortFlag
		case "log-format":
			settings.LogFormat = *logFormatFlag
		case "log-level":
			settings.LogLevel = *logLevelFlag
		}
	})

	path := settings.GraphPath
	if *graphFlag != "" {
		path = *graphFlag
	} else if *gFlag != "" {
		path = *gFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(settings.LogFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(settings.LogLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	order, err := queue.ParseOrder(settings.QueueOrder)
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}
	if *maxFrameFlag > uint(^uint32(0)) {
		return nil, false, usageError("invalid max-frame-size: must fit in 32 bits")
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		GraphPath:       path,
		ListenAddr:      settings.ListenAddr,
		PollInterval:    settings.PollInterval,
		QueueOrder:      order,
		MaxFrameSize:    settings.MaxFrameSize,
		HealthcheckPort: settings.HealthcheckPort,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
