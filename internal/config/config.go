// Package config provides configuration parsing and validation for scootlink.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete CLI/daemon configuration: which adapter to use,
// how long to wait on each kind of notification, how hard to retry a lost
// connection, where the persisted token lives, and the per-attribute
// request lengths a firmware variant might need to override.
type Config struct {
	Adapter   AdapterConfig   `yaml:"adapter"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Token     TokenConfig     `yaml:"token"`
	Attrs     AttrsConfig     `yaml:"attrs"`
	Log       LogConfig       `yaml:"log"`
}

// AdapterConfig names which local BLE adapter a caller-supplied Central
// binding should open. The core never reads this itself (internal/ble names
// no adapter concept) — it exists so cmd/scootlink can pass a hint through
// to whatever concrete central implementation it wires up.
type AdapterConfig struct {
	// Name is an adapter selection hint, e.g. "hci0" on Linux. Empty means
	// "let the platform default adapter binding decide".
	Name string `yaml:"name"`

	// ScanDuration bounds how long a single discover scan runs before
	// giving up if no scooter has been requested by address.
	ScanDuration time.Duration `yaml:"scan_duration"`
}

// TimeoutsConfig holds notification-wait bounds. Both default to the values
// the protocol engine hard-codes (engine.DefaultNotificationTimeout and
// engine.ParcelFrameTimeout). The engine does not read these fields; it
// always uses its own constants, so setting them only affects Validate.
type TimeoutsConfig struct {
	Notification time.Duration `yaml:"notification"`
	ParcelFrame  time.Duration `yaml:"parcel_frame"`
}

// ReconnectConfig mirrors internal/reconnect's fixed retry schedule. The
// reconnect package does not read these fields; it always uses its own
// MaxConnectAttempts, ConnectBackoff and ReconnectWait constants.
type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
	Wait        time.Duration `yaml:"wait"`
}

// TokenConfig names where the caller-managed AuthToken file lives. The core
// package never reads or writes this path itself; only cmd/scootlink's
// pair/login/drive subcommands consult it.
type TokenConfig struct {
	Path string `yaml:"path"`
}

// AttrsConfig lists the request-length byte a read command sends for each
// attribute; the defaults match the built-in attribute table. The session
// accessors do not read these fields: they always send the built-in
// lengths, so changing a value here does not change any request.
type AttrsConfig struct {
	BatteryVoltage      byte `yaml:"battery_voltage"`
	BatteryCurrent      byte `yaml:"battery_current"`
	BatteryPercent      byte `yaml:"battery_percent"`
	BatteryCellVoltages byte `yaml:"battery_cell_voltages"`
	BatteryInfo         byte `yaml:"battery_info"`
	GeneralInfo         byte `yaml:"general_info"`
	MotorInfo           byte `yaml:"motor_info"`
	DistanceLeft        byte `yaml:"distance_left"`
	Speed               byte `yaml:"speed"`
	TripDistance        byte `yaml:"trip_distance"`
	Supplementary       byte `yaml:"supplementary"`
	Cruise              byte `yaml:"cruise"`
	TailLight           byte `yaml:"tail_light"`
}

// LogConfig selects the internal/logging level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with every value the protocol engine would use
// if the caller passed none of this explicitly.
func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			Name:         "",
			ScanDuration: 15 * time.Second,
		},
		Timeouts: TimeoutsConfig{
			Notification: 2 * time.Second,
			ParcelFrame:  5 * time.Second,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 5,
			Backoff:     1 * time.Second,
			Wait:        5 * time.Second,
		},
		Token: TokenConfig{
			Path: "./scooter.token",
		},
		Attrs: AttrsConfig{
			BatteryVoltage:      0x02,
			BatteryCurrent:      0x02,
			BatteryPercent:      0x02,
			BatteryCellVoltages: 0x1B,
			BatteryInfo:         0x0A,
			GeneralInfo:         0x16,
			MotorInfo:           0x20,
			DistanceLeft:        0x02,
			Speed:               0x02,
			TripDistance:        0x02,
			Supplementary:       0x06,
			Cruise:              0x02,
			TailLight:           0x02,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses a configuration file, filling in any field the file
// omits with Default's value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes over a Default baseline.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Timeouts.Notification <= 0 {
		return fmt.Errorf("timeouts.notification must be positive, got %s", c.Timeouts.Notification)
	}
	if c.Timeouts.ParcelFrame <= 0 {
		return fmt.Errorf("timeouts.parcel_frame must be positive, got %s", c.Timeouts.ParcelFrame)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0, got %d", c.Reconnect.MaxAttempts)
	}
	if c.Reconnect.Backoff < 0 {
		return fmt.Errorf("reconnect.backoff must be >= 0, got %s", c.Reconnect.Backoff)
	}
	if c.Token.Path == "" {
		return fmt.Errorf("token.path must not be empty")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
