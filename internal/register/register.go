// Package register drives the pairing handshake that turns a freshly
// connected scooter into a persisted AuthToken: a linear six-step exchange
// over the unencrypted UPNP/AVDTP characteristic pair.
package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
	"github.com/scootlink/scootlink/internal/engine"
	"github.com/scootlink/scootlink/internal/mcrypto"
	"github.com/scootlink/scootlink/internal/token"
)

// ErrRestartNeeded signals that the caller must disconnect, wait for the
// user to press the scooter's power button, reconnect, and start a fresh
// Request — the scooter's key-announce window has closed.
var ErrRestartNeeded = errors.New("register: restart needed, reconnect and press the power button")

// ErrRegistrationFailed signals the scooter rejected the final
// authentication step, or answered the key announce or the DID upload with
// an unexpected response. A wrong acknowledgement after the public-key
// upload surfaces as engine.ErrProtocolMismatch instead.
var ErrRegistrationFailed = errors.New("register: registration failed")

// Request runs one pairing attempt against a connected peripheral. A Request
// is single-use: discard it and build a new one after ErrRestartNeeded.
type Request struct {
	eng        *engine.Engine
	secret     mcrypto.EphemeralKeyPair
	remoteInfo []byte
	token      token.AuthToken
	logger     *slog.Logger
}

// New generates a fresh ephemeral key pair and prepares a registration
// attempt against peripheral. The caller must already be connected and have
// subscribed to AVDTP/UPNP.
func New(peripheral ble.Peripheral, logger *slog.Logger) (*Request, error) {
	secret, err := mcrypto.GenKeyPair()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Request{
		eng:    engine.New(peripheral, logger),
		secret: secret,
		logger: logger,
	}, nil
}

// Start runs the full registration sequence and returns the token to
// persist. On ErrRestartNeeded the caller must reconnect and call New again.
func (r *Request) Start(ctx context.Context) (token.AuthToken, error) {
	if err := r.readRemoteInfo(ctx); err != nil {
		return token.AuthToken{}, err
	}
	if err := r.sendPublicKey(ctx); err != nil {
		return token.AuthToken{}, err
	}
	if err := r.sendDID(ctx); err != nil {
		return token.AuthToken{}, err
	}
	if err := r.performAuth(ctx); err != nil {
		return token.AuthToken{}, err
	}
	return r.token, nil
}

// readRemoteInfo is step 1: CMD_GET_INFO on UPNP, then the scooter's reply
// arrives as a Mi parcel on AVDTP.
func (r *Request) readRemoteInfo(ctx context.Context) error {
	if err := r.eng.Write(ctx, ble.UPNP, command.CmdGetInfo); err != nil {
		return err
	}
	info, err := r.eng.ReadMiParcel(ctx, ble.AVDTP)
	if err != nil {
		return fmt.Errorf("register: read remote info: %w", err)
	}
	r.logger.Debug("<- remote_info", "len", len(info))
	r.remoteInfo = info
	return nil
}

// sendPublicKey is step 2+3: announce intent to send a key, wait for
// RCV_RDY (timing out here means the scooter's window closed and the whole
// connection must be restarted), upload our public point, and confirm with
// RCV_OK.
func (r *Request) sendPublicKey(ctx context.Context) error {
	if err := r.eng.Write(ctx, ble.UPNP, command.CmdSetKey); err != nil {
		return err
	}
	if err := r.eng.Write(ctx, ble.AVDTP, command.CmdSendData); err != nil {
		return err
	}

	got, ok, err := r.eng.NextMiResponse(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrTimeout) {
			return ErrRestartNeeded
		}
		return err
	}
	if !ok || got != command.RcvRdy {
		return fmt.Errorf("%w: expected RCV_RDY announcing key, got %v", ErrRegistrationFailed, got)
	}

	r.logger.Debug("-> public key", "bytes", len(r.secret.PublicPoint()))
	if err := r.eng.WriteMiParcel(ctx, ble.AVDTP, r.secret.PublicPoint()); err != nil {
		return err
	}

	return r.eng.WaitForScooterToAckData(ctx)
}

// sendDID is step 4: read the scooter's public key, derive did_ct and the
// token, then retry the Mi-parcel upload on every RCV_RDY until RCV_OK.
func (r *Request) sendDID(ctx context.Context) error {
	remoteKey, err := r.eng.ReadMiParcel(ctx, ble.AVDTP)
	if err != nil {
		return fmt.Errorf("register: read remote key: %w", err)
	}

	didCT, tok, err := mcrypto.CalcDID(r.secret, remoteKey, r.remoteInfo)
	if err != nil {
		return fmt.Errorf("register: calc did: %w", err)
	}
	r.token = token.AuthToken(tok)

	if err := r.eng.Write(ctx, ble.AVDTP, command.CmdSendDID); err != nil {
		return err
	}

	for {
		got, ok, err := r.eng.NextMiResponse(ctx)
		if err != nil {
			return err
		}
		switch {
		case ok && got == command.RcvRdy:
			r.logger.Debug("-> did")
			if err := r.eng.WriteMiParcel(ctx, ble.AVDTP, didCT); err != nil {
				return err
			}
		case ok && got == command.RcvOK:
			r.logger.Debug("<- did confirmed")
			return nil
		default:
			return fmt.Errorf("%w: scooter did not accept did", ErrRegistrationFailed)
		}
	}
}

// performAuth is step 5: CMD_AUTH on UPNP, expect RCV_AUTH_OK.
func (r *Request) performAuth(ctx context.Context) error {
	if err := r.eng.Write(ctx, ble.UPNP, command.CmdAuth); err != nil {
		return err
	}
	got, ok, err := r.eng.NextMiResponse(ctx)
	if err != nil {
		return err
	}
	if !ok || got != command.RcvAuthOK {
		return fmt.Errorf("%w: expected RCV_AUTH_OK, got %v", ErrRegistrationFailed, got)
	}
	r.logger.Info("registered", "token_present", !r.token.IsZero())
	return nil
}
