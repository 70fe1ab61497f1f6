// Package main provides the CLI entry point for scootlink.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/scootlink/scootlink/internal/config"
	"github.com/scootlink/scootlink/internal/logging"
	"github.com/scootlink/scootlink/internal/metrics"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "scootlink",
		Short: "scootlink - a BLE control client for M365/Ninebot scooters",
		Long: `scootlink discovers, pairs with, logs into and drives the
Xiaomi M365/Ninebot family of BLE-controlled scooters.

It implements the scooter's proprietary Mi pairing handshake, the
per-session login key exchange, and the encrypted UART command channel
used to read telemetry and change settings.`,
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (optional, built-in defaults otherwise)")

	rootCmd.AddGroup(&cobra.Group{ID: "discovery", Title: "Discovery:"})
	rootCmd.AddGroup(&cobra.Group{ID: "pairing", Title: "Pairing & Login:"})
	rootCmd.AddGroup(&cobra.Group{ID: "control", Title: "Control:"})

	loadCfg := func() (*config.Config, error) {
		if configPath == "" {
			return config.Default(), nil
		}
		return config.Load(configPath)
	}

	discover := discoverCmd(loadCfg)
	discover.GroupID = "discovery"
	rootCmd.AddCommand(discover)

	pair := pairCmd(loadCfg)
	pair.GroupID = "pairing"
	rootCmd.AddCommand(pair)

	login := loginCmd(loadCfg)
	login.GroupID = "pairing"
	rootCmd.AddCommand(login)

	drive := driveCmd(loadCfg)
	drive.GroupID = "control"
	rootCmd.AddCommand(drive)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the resolved config's Log
// section, per internal/logging's level+format construction.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
}

// initMetrics wires the process-wide metrics instance so every subcommand
// shares the same counters/histograms for the lifetime of the process.
func initMetrics() *metrics.Metrics {
	return metrics.Default()
}
