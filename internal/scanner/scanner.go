// Package scanner discovers nearby scooters over BLE advertisements and
// resolves a found one into a connectable peripheral; connect and reconnect
// supervision lives in internal/reconnect. It sits one
// layer below internal/ble: where ble.Peripheral drives an already-resolved
// GATT connection, Central here is how a peripheral gets resolved in the
// first place.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/recovery"
)

// defaultEventRateLimit and defaultEventBurst bound how fast the background
// consumer drains adapter events. A single device re-advertising far faster
// than any scooter's real beacon interval (a misbehaving adapter driver, a
// replayed capture) shouldn't be able to spin the consumer loop; a generous
// limit keeps this invisible under normal scan traffic.
const (
	defaultEventRateLimit = rate.Limit(50)
	defaultEventBurst     = 50
)

// xiaomiScooterPrefix is the advertised name prefix every M365/Ninebot
// scooter covered by this protocol uses.
const xiaomiScooterPrefix = "MIScooter"

// DeviceEvent is one adapter-level discovery notification.
type DeviceEvent struct {
	ID      string
	Address string
	Name    string
}

// Central is the BLE adapter abstraction a scan runs against: start
// scanning, stream discovery events, and resolve a discovered id into a
// connectable ble.Peripheral. A concrete binding (TinyGo bluetooth, a
// platform-specific central) is supplied by the caller.
type Central interface {
	StartScan(ctx context.Context) error
	Events() <-chan DeviceEvent
	Peripheral(ctx context.Context, id string) (ble.Peripheral, error)
}

// TrackedDevice is one device this scanner has seen, by address.
type TrackedDevice struct {
	ID      string
	Address string
	Name    string
}

// IsScooter reports whether the advertised name matches a Xiaomi scooter.
func (d TrackedDevice) IsScooter() bool {
	return strings.HasPrefix(d.Name, xiaomiScooterPrefix)
}

// ErrScooterNotFound is returned by WaitFor when the discovery stream ends
// (the adapter's event channel closed or the scan's context was done)
// before the requested address is seen; a context that is already done may
// surface as ctx.Err() instead.
var ErrScooterNotFound = errors.New("scanner: scooter not found before context was done")

// ScooterScanner owns a shared, lock-protected set of TrackedDevice keyed by
// address, fed by a background task draining Central.Events.
type ScooterScanner struct {
	central Central
	logger  *slog.Logger
	limiter *rate.Limiter

	mu      sync.RWMutex
	devices map[string]TrackedDevice
}

// New wraps central for scooter discovery.
func New(central Central, logger *slog.Logger) *ScooterScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScooterScanner{
		central: central,
		logger:  logger,
		limiter: rate.NewLimiter(defaultEventRateLimit, defaultEventBurst),
		devices: make(map[string]TrackedDevice),
	}
}

// Start begins scanning and returns a channel of scooters as they're
// discovered. The channel has capacity 32 and is closed when ctx is done.
func (s *ScooterScanner) Start(ctx context.Context) (<-chan TrackedDevice, error) {
	if err := s.central.StartScan(ctx); err != nil {
		return nil, fmt.Errorf("scanner: start scan: %w", err)
	}

	out := make(chan TrackedDevice, 32)
	go s.run(ctx, out)
	return out, nil
}

func (s *ScooterScanner) run(ctx context.Context, out chan<- TrackedDevice) {
	defer close(out)
	defer recovery.RecoverWithLog(s.logger, "scanner.run")
	events := s.central.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			tracked, isNew := s.track(ev)
			if !isNew || !tracked.IsScooter() {
				continue
			}
			select {
			case out <- tracked:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *ScooterScanner) track(ev DeviceEvent) (TrackedDevice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.devices[ev.Address]; exists {
		return TrackedDevice{}, false
	}
	tracked := TrackedDevice{ID: ev.ID, Address: ev.Address, Name: ev.Name}
	s.devices[ev.Address] = tracked
	return tracked, true
}

// WaitFor starts a scan and blocks until address is discovered or ctx is
// done.
func (s *ScooterScanner) WaitFor(ctx context.Context, address string) (TrackedDevice, error) {
	found, err := s.Start(ctx)
	if err != nil {
		return TrackedDevice{}, err
	}
	for {
		select {
		case tracked, ok := <-found:
			if !ok {
				return TrackedDevice{}, ErrScooterNotFound
			}
			if tracked.Address == address {
				s.logger.Info("found requested scooter", "address", address)
				return tracked, nil
			}
			s.logger.Debug("found scooter nearby", "address", tracked.Address, "name", tracked.Name)
		case <-ctx.Done():
			return TrackedDevice{}, ctx.Err()
		}
	}
}

// Peripheral resolves tracked into a connectable ble.Peripheral.
func (s *ScooterScanner) Peripheral(ctx context.Context, tracked TrackedDevice) (ble.Peripheral, error) {
	return s.central.Peripheral(ctx, tracked.ID)
}

// Scooters snapshots every tracked device whose name matches the scooter
// prefix.
func (s *ScooterScanner) Scooters() []TrackedDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []TrackedDevice
	for _, d := range s.devices {
		if d.IsScooter() {
			out = append(out, d)
		}
	}
	return out
}

// Devices snapshots every device this scanner has seen, scooter or not.
func (s *ScooterScanner) Devices() []TrackedDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TrackedDevice, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out
}
