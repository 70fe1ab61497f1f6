// Package reconnect supervises a single peripheral's connect lifecycle: a
// bounded-retry connect, an idempotent disconnect, and the
// disconnect-wait-connect cycle a lost link recovers through.
package reconnect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scootlink/scootlink/internal/ble"
)

// MaxConnectAttempts bounds how many times Connect dials in total before
// giving up.
const MaxConnectAttempts = 5

// ConnectBackoff is the fixed delay between connect attempts.
const ConnectBackoff = time.Second

// ReconnectWait is how long Reconnect waits after disconnecting before
// dialing again, giving the scooter's radio time to notice the link drop.
const ReconnectWait = 5 * time.Second

// Helper wraps one peripheral's connect/disconnect/reconnect cycle. Unlike
// the general-purpose exponential backoff this protocol's BLE transport
// layer doesn't need, a scooter's radio either answers within a couple of
// fixed-interval retries or it's out of range — there's no benefit to
// widening the delay.
type Helper struct {
	peripheral ble.Peripheral
	logger     *slog.Logger
}

// New wraps peripheral for connect supervision.
func New(peripheral ble.Peripheral, logger *slog.Logger) *Helper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Helper{peripheral: peripheral, logger: logger}
}

// Connect establishes the GATT connection, dialing at most
// MaxConnectAttempts times with ConnectBackoff between attempts. Already
// being connected is a no-op success.
func (h *Helper) Connect(ctx context.Context) error {
	connected, err := h.peripheral.IsConnected(ctx)
	if err != nil {
		return fmt.Errorf("reconnect: check connection state: %w", err)
	}
	if connected {
		h.logger.Debug("already connected")
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < MaxConnectAttempts; attempt++ {
		lastErr = h.peripheral.Connect(ctx)
		if lastErr == nil {
			h.logger.Debug("connected", "attempt", attempt+1)
			return nil
		}
		if attempt == MaxConnectAttempts-1 {
			break
		}
		h.logger.Debug("retrying connection", "attempt", attempt+1, "remaining", MaxConnectAttempts-attempt-1, "reason", lastErr)
		select {
		case <-time.After(ConnectBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("reconnect: connect failed after %d attempts: %w", MaxConnectAttempts, lastErr)
}

// Disconnect tears down the connection. Idempotent: disconnecting an
// already-disconnected peripheral succeeds without error.
func (h *Helper) Disconnect(ctx context.Context) error {
	connected, err := h.peripheral.IsConnected(ctx)
	if err != nil {
		return fmt.Errorf("reconnect: check connection state: %w", err)
	}
	if !connected {
		h.logger.Debug("already disconnected")
		return nil
	}
	if err := h.peripheral.Disconnect(ctx); err != nil {
		return fmt.Errorf("reconnect: disconnect: %w", err)
	}
	h.logger.Debug("disconnected")
	return nil
}

// Reconnect disconnects, waits ReconnectWait for the radio to settle, and
// connects again.
func (h *Helper) Reconnect(ctx context.Context) error {
	h.logger.Debug("reconnecting")
	if err := h.Disconnect(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(ReconnectWait):
	case <-ctx.Done():
		return ctx.Err()
	}
	return h.Connect(ctx)
}
