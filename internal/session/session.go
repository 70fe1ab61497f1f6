package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
	"github.com/scootlink/scootlink/internal/engine"
	"github.com/scootlink/scootlink/internal/mcrypto"
	"github.com/scootlink/scootlink/internal/token"
)

// MiSession is the encrypted command/response channel negotiated by a
// successful login. It owns the peripheral's UART characteristics
// (ble.TX/ble.RX) exclusively: send/read pairs are not safe to interleave
// across goroutines.
type MiSession struct {
	eng     *engine.Engine
	keys    token.SessionKeychain
	counter atomic.Uint32
	logger  *slog.Logger
}

// New constructs a MiSession over peripheral using the keychain a login
// negotiated. The caller is responsible for having already unsubscribed
// AVDTP/UPNP and subscribed RX before handing the peripheral here, since
// Read consumes RX notifications.
func New(peripheral ble.Peripheral, keys token.SessionKeychain, logger *slog.Logger) *MiSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &MiSession{eng: engine.New(peripheral, logger), keys: keys, logger: logger}
}

// Send serialises cmd, encrypts it under the session's app key, and writes
// it as a Ninebot parcel to TX. The per-frame counter increments on every
// call; the scooter tolerates a constant 0 too, since the random nonce
// field already carries entropy, but an incrementing counter costs nothing
// and narrows the nonce-reuse window across a long-lived session.
func (s *MiSession) Send(ctx context.Context, cmd command.ScooterCommand) error {
	wire, err := mcrypto.EncryptUART(s.keys.AppKey, s.keys.AppIV, cmd.AsBytes(), s.counter.Add(1)-1, nil)
	if err != nil {
		return fmt.Errorf("session: encrypt command: %w", err)
	}
	return s.eng.WriteNbParcel(ctx, ble.TX, wire)
}

// Read gathers frames raw notifications from RX, decrypts them under the
// session's device key, and returns a Payload cursor over the plaintext.
func (s *MiSession) Read(ctx context.Context, frames int) (*Payload, error) {
	wire, err := s.eng.ReadNbParcel(ctx, frames)
	if err != nil {
		return nil, fmt.Errorf("session: read response: %w", err)
	}
	plain, err := mcrypto.DecryptUART(s.keys.DevKey, s.keys.DevIV, wire)
	if err != nil {
		return nil, fmt.Errorf("session: decrypt response: %w", err)
	}
	return NewPayload(plain), nil
}

// query is the common send-then-read shape nearly every typed accessor
// below reduces to; each accessor skips the response header itself.
func (s *MiSession) query(ctx context.Context, cmd command.ScooterCommand, frames int) (*Payload, error) {
	if err := s.Send(ctx, cmd); err != nil {
		return nil, err
	}
	payload, err := s.Read(ctx, frames)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
