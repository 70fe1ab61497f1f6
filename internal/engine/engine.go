// Package engine sequences characteristic writes against awaited
// notifications: the RCV_RDY/RCV_OK handshake that both registration and
// login are built from, and the Mi-parcel/Ninebot-frame read/write
// primitives layered on top of a raw ble.Peripheral.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
	"github.com/scootlink/scootlink/internal/frame"
)

// DefaultNotificationTimeout bounds a single notification wait.
const DefaultNotificationTimeout = 2 * time.Second

// ParcelFrameTimeout bounds waiting for one Mi-parcel frame during a longer
// transfer.
const ParcelFrameTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a notification wait exceeds its bound.
	ErrTimeout = errors.New("engine: timed out waiting for notification")

	// ErrProtocolMismatch is returned when a received frame does not match
	// the token the caller expected.
	ErrProtocolMismatch = errors.New("engine: unexpected response")
)

// Engine drives one Peripheral through the characteristic-level protocol.
// It owns the peripheral's single notification stream; no two callers may
// drive the same Engine concurrently.
type Engine struct {
	peripheral ble.Peripheral
	logger     *slog.Logger
}

// New wraps peripheral for protocol-level use.
func New(peripheral ble.Peripheral, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{peripheral: peripheral, logger: logger}
}

// Write performs a bare characteristic write of a literal MiCommand.
func (e *Engine) Write(ctx context.Context, c ble.Characteristic, cmd command.MiCommand) error {
	e.logger.Debug("-> mi command", "characteristic", c.Characteristic, "command", cmd.String())
	return e.peripheral.Write(ctx, c, cmd.Bytes())
}

// WriteRaw writes arbitrary bytes to a characteristic.
func (e *Engine) WriteRaw(ctx context.Context, c ble.Characteristic, value []byte) error {
	return e.peripheral.Write(ctx, c, value)
}

// WaitForNotification blocks for the next notification on any subscribed
// characteristic, bounded by timeout.
func (e *Engine) WaitForNotification(ctx context.Context, timeout time.Duration) (ble.Notification, error) {
	select {
	case n, ok := <-e.peripheral.Notifications():
		if !ok {
			return ble.Notification{}, fmt.Errorf("engine: notification stream closed")
		}
		return n, nil
	case <-time.After(timeout):
		return ble.Notification{}, ErrTimeout
	case <-ctx.Done():
		return ble.Notification{}, ctx.Err()
	}
}

// NextMiResponse waits for the next notification and classifies it against
// the known RCV_* literals. ok is false if the notification did not match
// any known response.
func (e *Engine) NextMiResponse(ctx context.Context) (command.MiCommand, bool, error) {
	n, err := e.WaitForNotification(ctx, DefaultNotificationTimeout)
	if err != nil {
		return 0, false, err
	}
	cmd, ok := command.ClassifyMiResponse(n.Value)
	return cmd, ok, nil
}

// WaitForScooterToReceiveData waits for RCV_RDY, the scooter's readiness
// signal before an incoming Mi parcel.
func (e *Engine) WaitForScooterToReceiveData(ctx context.Context) error {
	return e.expect(ctx, command.RcvRdy)
}

// WaitForScooterToAckData waits for RCV_OK, the scooter's confirmation that
// a Mi parcel was received in full.
func (e *Engine) WaitForScooterToAckData(ctx context.Context) error {
	return e.expect(ctx, command.RcvOK)
}

func (e *Engine) expect(ctx context.Context, want command.MiCommand) error {
	got, ok, err := e.NextMiResponse(ctx)
	if err != nil {
		return err
	}
	if !ok || got != want {
		return fmt.Errorf("%w: expected %s, got %v (matched=%v)", ErrProtocolMismatch, want, got, ok)
	}
	return nil
}

// WriteMiParcel writes payload to characteristic c as a sequence of Mi
// parcel chunks.
func (e *Engine) WriteMiParcel(ctx context.Context, c ble.Characteristic, payload []byte) error {
	for _, chunk := range frame.SplitMiParcel(payload) {
		if err := e.peripheral.Write(ctx, c, chunk); err != nil {
			return fmt.Errorf("engine: write Mi parcel chunk: %w", err)
		}
	}
	return nil
}

// ReadMiParcel reads a full Mi parcel from characteristic c: it consumes the
// first notification for the frame count, the RCV_RDY acknowledgement write,
// each subsequent data frame, and finally sends RCV_OK.
func (e *Engine) ReadMiParcel(ctx context.Context, c ble.Characteristic) ([]byte, error) {
	first, err := e.WaitForNotification(ctx, DefaultNotificationTimeout)
	if err != nil {
		return nil, fmt.Errorf("engine: read Mi parcel frame count: %w", err)
	}

	total, err := frame.FrameCount(first.Value)
	if err != nil {
		return nil, err
	}

	var asm frame.MiParcelAssembler
	if err := asm.AddFirst(first.Value); err != nil {
		return nil, err
	}

	if err := e.peripheral.Write(ctx, c, command.RcvRdy.Bytes()); err != nil {
		return nil, fmt.Errorf("engine: send RCV_RDY: %w", err)
	}

	for i := uint16(1); i < total; i++ {
		n, err := e.WaitForNotification(ctx, ParcelFrameTimeout)
		if err != nil {
			return nil, fmt.Errorf("engine: read Mi parcel frame %d/%d: %w", i+1, total, err)
		}
		if err := asm.Add(n.Value); err != nil {
			return nil, err
		}
	}

	if err := e.peripheral.Write(ctx, c, command.RcvOK.Bytes()); err != nil {
		return nil, fmt.Errorf("engine: send RCV_OK: %w", err)
	}

	return asm.Bytes(), nil
}

// WriteNbParcel writes payload to characteristic c as raw 20-byte Ninebot
// chunks with no added framing.
func (e *Engine) WriteNbParcel(ctx context.Context, c ble.Characteristic, payload []byte) error {
	for _, chunk := range frame.SplitNbFrames(payload) {
		if err := e.peripheral.Write(ctx, c, chunk); err != nil {
			return fmt.Errorf("engine: write Ninebot frame: %w", err)
		}
	}
	return nil
}

// ReadNbParcel reads the next frameCount raw notifications, from whichever
// subscribed characteristic delivers them, and concatenates them.
func (e *Engine) ReadNbParcel(ctx context.Context, frameCount int) ([]byte, error) {
	notifications := make([][]byte, 0, frameCount)
	for i := 0; i < frameCount; i++ {
		n, err := e.WaitForNotification(ctx, ParcelFrameTimeout)
		if err != nil {
			return nil, fmt.Errorf("engine: read Ninebot frame %d/%d: %w", i+1, frameCount, err)
		}
		notifications = append(notifications, n.Value)
	}
	return frame.JoinNbFrames(notifications), nil
}
