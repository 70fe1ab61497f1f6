package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/config"
	"github.com/scootlink/scootlink/internal/login"
	"github.com/scootlink/scootlink/internal/reconnect"
	"github.com/scootlink/scootlink/internal/scanner"
)

func loginCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <address>",
		Short: "Negotiate a session with an already-paired scooter",
		Long: `Connect to a scooter and run the per-session login exchange using the
auth token saved by a previous pair run.

login alone does not do anything useful by itself; it exists to verify
pairing succeeded. Use "drive" to both log in and read telemetry in one
step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			cfg, err := loadCfg()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := newLogger(cfg)

			tok, err := loadToken(cfg.Token.Path)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			central, err := newCentral(cfg.Adapter.Name)
			if err != nil {
				return err
			}
			s := scanner.New(central, logger)

			tracked, err := s.WaitFor(ctx, address)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			peripheral, err := s.Peripheral(ctx, tracked)
			if err != nil {
				return fmt.Errorf("login: resolve peripheral: %w", err)
			}

			conn := reconnect.New(peripheral, logger)
			if err := conn.Connect(ctx); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			defer conn.Disconnect(ctx)

			if err := peripheral.DiscoverServices(ctx); err != nil {
				return fmt.Errorf("login: discover services: %w", err)
			}
			for _, c := range []ble.Characteristic{ble.AVDTP, ble.UPNP} {
				if err := peripheral.Subscribe(ctx, c); err != nil {
					return fmt.Errorf("login: subscribe: %w", err)
				}
			}

			req, err := login.New(peripheral, tok, logger)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			if _, err := req.Start(ctx); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			fmt.Printf("Logged in to %s\n", tracked.Address)
			return nil
		},
	}

	return cmd
}
