package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/scootlink/scootlink/internal/config"
	"github.com/scootlink/scootlink/internal/scanner"
)

var (
	discoverHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	discoverScooterRow  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	discoverOtherRow    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func discoverCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan for nearby scooters",
		Long: `Scan for nearby BLE devices and list the ones that advertise as
Xiaomi M365/Ninebot scooters.

The scan runs for the configured adapter scan duration (default 15s) or
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}

			central, err := newCentral(cfg.Adapter.Name)
			if err != nil {
				return err
			}

			logger := newLogger(cfg)
			s := scanner.New(central, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Adapter.ScanDuration)
			defer cancel()

			found, err := s.Start(ctx)
			if err != nil {
				return fmt.Errorf("start scan: %w", err)
			}

			fmt.Println(render(discoverHeaderStyle, fmt.Sprintf("Scanning for %s...", cfg.Adapter.ScanDuration)))
			for range found {
				// ScooterScanner already filters to the scooter name prefix;
				// drain the channel to let Scooters()/Devices() settle before
				// ctx expires.
			}

			scooters := s.Scooters()
			if len(scooters) == 0 {
				fmt.Println("No scooters found.")
				return nil
			}

			fmt.Printf("%-20s %s\n", "ADDRESS", "NAME")
			for _, d := range scooters {
				fmt.Println(render(discoverScooterRow, fmt.Sprintf("%-20s %s", d.Address, d.Name)))
			}

			if showAll {
				fmt.Println()
				fmt.Println(render(discoverHeaderStyle, "Other devices seen:"))
				for _, d := range s.Devices() {
					if d.IsScooter() {
						continue
					}
					fmt.Println(render(discoverOtherRow, fmt.Sprintf("%-20s %s", d.Address, d.Name)))
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "Also list non-scooter devices seen during the scan")

	return cmd
}
