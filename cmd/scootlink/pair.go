package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/config"
	"github.com/scootlink/scootlink/internal/reconnect"
	"github.com/scootlink/scootlink/internal/register"
	"github.com/scootlink/scootlink/internal/scanner"
)

func pairCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair <address>",
		Short: "Pair with a scooter and persist its auth token",
		Long: `Run the Mi-Home registration handshake against a scooter and save the
resulting auth token to disk.

The scooter must be woken up and ready to accept a new key, which normally
means pressing and holding its power button until the bell chirps and the
dashboard starts blinking. Confirm this has been done before continuing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			cfg, err := loadCfg()
			if err != nil {
				return err
			}

			var ready bool
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title("Press and hold the scooter's power button until it chirps, then confirm").
					Affirmative("Ready").
					Negative("Cancel").
					Value(&ready),
			))
			if err := form.Run(); err != nil {
				return fmt.Errorf("pair: confirmation prompt: %w", err)
			}
			if !ready {
				return fmt.Errorf("pair: aborted, scooter was not put into pairing mode")
			}

			ctx := cmd.Context()
			logger := newLogger(cfg)

			central, err := newCentral(cfg.Adapter.Name)
			if err != nil {
				return err
			}
			s := scanner.New(central, logger)

			tracked, err := s.WaitFor(ctx, address)
			if err != nil {
				return fmt.Errorf("pair: %w", err)
			}

			peripheral, err := s.Peripheral(ctx, tracked)
			if err != nil {
				return fmt.Errorf("pair: resolve peripheral: %w", err)
			}

			conn := reconnect.New(peripheral, logger)
			if err := conn.Connect(ctx); err != nil {
				return fmt.Errorf("pair: %w", err)
			}
			defer conn.Disconnect(ctx)

			if err := peripheral.DiscoverServices(ctx); err != nil {
				return fmt.Errorf("pair: discover services: %w", err)
			}
			for _, c := range []ble.Characteristic{ble.AVDTP, ble.UPNP} {
				if err := peripheral.Subscribe(ctx, c); err != nil {
					return fmt.Errorf("pair: subscribe: %w", err)
				}
			}

			req, err := register.New(peripheral, logger)
			if err != nil {
				return fmt.Errorf("pair: %w", err)
			}

			tok, err := req.Start(ctx)
			if err != nil {
				return fmt.Errorf("pair: registration failed: %w", err)
			}

			if err := saveToken(cfg.Token.Path, tok); err != nil {
				return fmt.Errorf("pair: %w", err)
			}

			fmt.Printf("Paired with %s, token saved to %s\n", tracked.Address, cfg.Token.Path)
			return nil
		},
	}

	return cmd
}
