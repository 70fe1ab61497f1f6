package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/config"
	"github.com/scootlink/scootlink/internal/login"
	"github.com/scootlink/scootlink/internal/metrics"
	"github.com/scootlink/scootlink/internal/reconnect"
	"github.com/scootlink/scootlink/internal/scanner"
	"github.com/scootlink/scootlink/internal/session"
)

var (
	driveLabelStyle = lipgloss.NewStyle().Bold(true).Width(16)
	driveWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func driveCmd(loadCfg func() (*config.Config, error)) *cobra.Command {
	var (
		watch        bool
		interval     time.Duration
		setCruise    string
		setTailLight string
	)

	cmd := &cobra.Command{
		Use:   "drive <address>",
		Short: "Log in and read or change live scooter state",
		Long: `Log in to a paired scooter and print its current telemetry: battery,
motor and trip state. With --watch, keep polling and reprinting at the
given interval until interrupted.

--set-cruise and --set-tail-light send a write command instead of (or in
addition to) reading telemetry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := args[0]
			cfg, err := loadCfg()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := newLogger(cfg)
			m := initMetrics()

			tok, err := loadToken(cfg.Token.Path)
			if err != nil {
				return fmt.Errorf("drive: %w", err)
			}

			central, err := newCentral(cfg.Adapter.Name)
			if err != nil {
				return err
			}
			s := scanner.New(central, logger)

			tracked, err := s.WaitFor(ctx, address)
			if err != nil {
				return fmt.Errorf("drive: %w", err)
			}

			peripheral, err := s.Peripheral(ctx, tracked)
			if err != nil {
				return fmt.Errorf("drive: resolve peripheral: %w", err)
			}

			conn := reconnect.New(peripheral, logger)
			if err := conn.Connect(ctx); err != nil {
				return fmt.Errorf("drive: %w", err)
			}
			m.ConnectAttempts.Inc()
			m.Connected.Set(1)
			defer func() {
				m.Connected.Set(0)
				conn.Disconnect(ctx)
			}()

			if err := peripheral.DiscoverServices(ctx); err != nil {
				return fmt.Errorf("drive: discover services: %w", err)
			}
			for _, c := range []ble.Characteristic{ble.AVDTP, ble.UPNP} {
				if err := peripheral.Subscribe(ctx, c); err != nil {
					return fmt.Errorf("drive: subscribe: %w", err)
				}
			}

			loginReq, err := login.New(peripheral, tok, logger)
			if err != nil {
				return fmt.Errorf("drive: %w", err)
			}
			keys, err := loginReq.Start(ctx)
			if err != nil {
				return fmt.Errorf("drive: login failed: %w", err)
			}

			for _, c := range []ble.Characteristic{ble.AVDTP, ble.UPNP} {
				if err := peripheral.Unsubscribe(ctx, c); err != nil {
					return fmt.Errorf("drive: unsubscribe: %w", err)
				}
			}
			if err := peripheral.Subscribe(ctx, ble.RX); err != nil {
				return fmt.Errorf("drive: subscribe RX: %w", err)
			}

			sess := session.New(peripheral, keys, logger)

			if setCruise != "" {
				on := setCruise == "on"
				if err := sess.SetCruise(ctx, on); err != nil {
					return fmt.Errorf("drive: set cruise: %w", err)
				}
				fmt.Printf("Cruise control set to %s\n", setCruise)
			}
			if setTailLight != "" {
				mode, err := parseTailLightFlag(setTailLight)
				if err != nil {
					return fmt.Errorf("drive: %w", err)
				}
				if err := sess.SetTailLight(ctx, mode); err != nil {
					return fmt.Errorf("drive: set tail light: %w", err)
				}
				fmt.Printf("Tail light mode set to %s\n", setTailLight)
			}

			for {
				if err := printTelemetry(ctx, sess, m); err != nil {
					return fmt.Errorf("drive: %w", err)
				}
				if !watch {
					return nil
				}
				select {
				case <-time.After(interval):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling telemetry until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval used with --watch")
	cmd.Flags().StringVar(&setCruise, "set-cruise", "", "Set cruise control: on or off")
	cmd.Flags().StringVar(&setTailLight, "set-tail-light", "", "Set tail light mode: off, brake or always")

	return cmd
}

func parseTailLightFlag(v string) (session.TailLight, error) {
	switch v {
	case "off":
		return session.TailLightOff, nil
	case "brake":
		return session.TailLightOnBrake, nil
	case "always":
		return session.TailLightAlways, nil
	default:
		return session.TailLightUnknown, fmt.Errorf("unknown tail light mode %q, want off/brake/always", v)
	}
}

func printTelemetry(ctx context.Context, sess *session.MiSession, m *metrics.Metrics) error {
	start := time.Now()
	battery, err := sess.BatteryInfo(ctx)
	if err != nil {
		m.RecordDecodeError("battery_info")
		return err
	}
	m.RecordCommand(time.Since(start).Seconds())
	m.RecordDecodeSuccess()

	start = time.Now()
	motor, err := sess.MotorInfo(ctx)
	if err != nil {
		m.RecordDecodeError("motor_info")
		return err
	}
	m.RecordCommand(time.Since(start).Seconds())
	m.RecordDecodeSuccess()

	start = time.Now()
	trip, err := sess.TripDistance(ctx)
	if err != nil {
		m.RecordDecodeError("trip_distance")
		return err
	}
	m.RecordCommand(time.Since(start).Seconds())
	m.RecordDecodeSuccess()

	fmt.Println(render(driveLabelStyle, "Battery:"), fmt.Sprintf("%d%% %.2fV %.1fA", battery.Percent, battery.VoltageVolts, battery.CurrentAmps))
	fmt.Println(render(driveLabelStyle, "Speed:"), fmt.Sprintf("%.1f km/h (avg %.1f km/h)", motor.SpeedKMH, motor.AverageSpeedKMH))
	fmt.Println(render(driveLabelStyle, "Odometer:"), fmt.Sprintf("%s m total", humanize.Comma(int64(motor.TotalDistanceM))))
	fmt.Println(render(driveLabelStyle, "Trip:"), fmt.Sprintf("%s m", humanize.Comma(int64(trip))))
	fmt.Println(render(driveLabelStyle, "Uptime:"), motor.Uptime.String())

	if battery.Percent <= 15 {
		fmt.Println(render(driveWarnStyle, fmt.Sprintf("Battery low: %d%%", battery.Percent)))
	}

	return nil
}
