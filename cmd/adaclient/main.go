// Command adaclient sends sample commands to an adagraph server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vk/adagraph/internal/client"
	"github.com/vk/adagraph/internal/protocol"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, outW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("adaclient", flag.ContinueOnError)
	flagSet.SetOutput(outW)

	addr := flagSet.String("addr", "127.0.0.1:7878", "Address of the adagraph server.")
	nodeFlag := flagSet.String("node", "", "Node ID to address. Empty sends no node.")
	networkFlag := flagSet.String("network", "", "Network ID to address. Empty sends no network.")
	propagate := flagSet.Bool("propagate", false, "Send PropagateNode instead of ExecuteNode.")
	count := flagSet.Int("count", 0, "Number of commands to send. 0 sends until interrupted.")
	interval := flagSet.Duration("interval", 0, "Pause between two commands.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	node, err := parseID(*nodeFlag)
	if err != nil {
		return fmt.Errorf("invalid -node: %w", err)
	}
	network, err := parseID(*networkFlag)
	if err != nil {
		return fmt.Errorf("invalid -network: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(outW, nil))

	c, err := client.Dial(ctx, *addr)
	if err != nil {
		return err
	}
	logger.Info("Successfully connected to server.", "address", *addr)

	cmd := client.SampleCommand(network, node)
	if *propagate {
		cmd.Header.Type = protocol.PropagateNode
	}

	sent := 0
	for *count == 0 || sent < *count {
		if ctx.Err() != nil {
			break
		}
		if err := c.Send(cmd); err != nil {
			c.Close()
			return err
		}
		sent++

		if *interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(*interval):
			}
		}
	}

	logger.Info("Finished sending.", "commands", sent)
	return c.Hangup()
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
