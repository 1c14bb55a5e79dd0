// Package cmd implements the CLI surface described in spec §6: no-args
// foreground mode, single-queue mode, and systemd unit generation.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sh0rch/nf-wgobfs/domain/config"
	infraconfig "github.com/sh0rch/nf-wgobfs/infrastructure/config"
	"github.com/sh0rch/nf-wgobfs/infrastructure/logging"
	"github.com/sh0rch/nf-wgobfs/infrastructure/supervisor"
	"github.com/sh0rch/nf-wgobfs/infrastructure/systemd"
)

// Exit codes (spec §7 "Error handling design").
const (
	ExitOK           = 0
	ExitConfigError  = 1
	ExitQueueBind    = 2
	ExitRuntimeError = 3
)

// envQueue overrides --queue for single-queue mode (spec §6).
const envQueue = "NF_WGOBFS_QUEUE"

var (
	queueFlag        uint16
	generateUnitsDir string
	metricsAddr      string
)

var rootCmd = &cobra.Command{
	Use:           "nf-wgobfs",
	Short:         "Userspace NFQUEUE filter that obfuscates WireGuard's wire format",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().Uint16Var(&queueFlag, "queue", 0, "single-queue foreground mode: synthesize one entry with defaults")
	rootCmd.Flags().StringVar(&generateUnitsDir, "generate-units", "", "emit systemd unit templates into this directory and exit")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address (disabled if empty)")
}

// Execute runs the root command and terminates the process with the
// exit code spec §7 assigns to the error class encountered.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nf-wgobfs:", err)
		os.Exit(exitCodeFor(err))
	}
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if generateUnitsDir != "" {
		return runGenerateUnits(generateUnitsDir)
	}

	logger := logging.NewLogLogger()

	entries, err := loadEntries(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	sup := supervisor.New(entries, logger)
	sup.MetricsAddr = metricsAddr
	return sup.Run(context.Background())
}

func loadEntries(cmd *cobra.Command) ([]config.Entry, error) {
	queue := queueFlag
	singleQueue := cmd.Flags().Changed("queue")

	if v := os.Getenv(envQueue); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envQueue, err)
		}
		queue = uint16(parsed)
		singleQueue = true
	}

	if singleQueue {
		return singleQueueEntry(queue), nil
	}
	return infraconfig.Load(infraconfig.ResolvePath())
}

func singleQueueEntry(queue uint16) []config.Entry {
	return []config.Entry{{
		Queue: queue,
		Dir:   config.Egress,
		Name:  "single-queue",
		Mode:  config.Auto,
		MTU:   config.DefaultMTU,
	}}
}

func runGenerateUnits(dir string) error {
	bin, err := os.Executable()
	if err != nil {
		bin = "/usr/local/bin/nf-wgobfs"
	}
	path, err := systemd.Generate(dir, bin)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	fmt.Println("wrote", path)
	return nil
}
