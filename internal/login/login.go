// Package login drives the per-session key exchange that runs after
// registration: given a persisted AuthToken, it negotiates the AES-CCM
// session keychain and hands it back for the caller to build a session on.
package login

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/scootlink/scootlink/internal/ble"
	"github.com/scootlink/scootlink/internal/command"
	"github.com/scootlink/scootlink/internal/engine"
	"github.com/scootlink/scootlink/internal/mcrypto"
	"github.com/scootlink/scootlink/internal/token"
)

// ErrLoginFailed signals the scooter rejected the final login step.
var ErrLoginFailed = errors.New("login: login failed")

// ErrInvalidDID signals the scooter's remote_info did not match the value
// the keychain derivation expected, meaning the persisted AuthToken is
// stale or wrong: the caller should re-register.
var ErrInvalidDID = errors.New("login: scooter sent an unexpected remote key, token may be stale")

// Request runs one login attempt against a connected, registered
// peripheral using a previously persisted AuthToken.
type Request struct {
	eng     *engine.Engine
	token   token.AuthToken
	randKey []byte
	logger  *slog.Logger
}

// New prepares a login attempt. token must have been produced by a prior
// successful registration against this same scooter.
func New(peripheral ble.Peripheral, authToken token.AuthToken, logger *slog.Logger) (*Request, error) {
	randKey := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, randKey); err != nil {
		return nil, fmt.Errorf("login: generate rand_key: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Request{
		eng:     engine.New(peripheral, logger),
		token:   authToken,
		randKey: randKey,
		logger:  logger,
	}, nil
}

// Start runs the full login sequence and returns the negotiated session
// keychain. The caller still owns unsubscribing AVDTP/UPNP/RX and
// constructing the UART session on top of the returned keychain.
func (r *Request) Start(ctx context.Context) (token.SessionKeychain, error) {
	if err := r.sendKey(ctx); err != nil {
		return token.SessionKeychain{}, err
	}
	remoteKey, err := r.eng.ReadMiParcel(ctx, ble.AVDTP)
	if err != nil {
		return token.SessionKeychain{}, fmt.Errorf("login: read remote key: %w", err)
	}

	remoteInfo, err := r.eng.ReadMiParcel(ctx, ble.AVDTP)
	if err != nil {
		return token.SessionKeychain{}, fmt.Errorf("login: read remote info: %w", err)
	}
	if len(remoteInfo) != 32 {
		return token.SessionKeychain{}, fmt.Errorf("login: remote info is %d bytes, want 32", len(remoteInfo))
	}

	keys, err := r.validateAndSendDID(ctx, remoteKey, remoteInfo)
	if err != nil {
		return token.SessionKeychain{}, err
	}
	if err := r.confirm(ctx); err != nil {
		return token.SessionKeychain{}, err
	}

	return keys, nil
}

// sendKey is step 2: CMD_LOGIN on UPNP, CMD_SEND_KEY on AVDTP, then upload
// rand_key once the scooter signals it is ready.
func (r *Request) sendKey(ctx context.Context) error {
	if err := r.eng.Write(ctx, ble.UPNP, command.CmdLogin); err != nil {
		return err
	}
	if err := r.eng.Write(ctx, ble.AVDTP, command.CmdSendKey); err != nil {
		return err
	}
	if err := r.eng.WaitForScooterToReceiveData(ctx); err != nil {
		return err
	}
	if err := r.eng.WriteMiParcel(ctx, ble.AVDTP, r.randKey); err != nil {
		return err
	}
	return r.eng.WaitForScooterToAckData(ctx)
}

// validateAndSendDID is step 4+5: derive the keychain and the scooter's
// expected remote_info from (rand_key, remote_key, token); if the scooter's
// own remote_info value disagrees, the token is stale and login cannot
// proceed. Otherwise upload the HMAC confirmation and wait for the ack.
func (r *Request) validateAndSendDID(ctx context.Context, remoteKey, remoteInfo []byte) (token.SessionKeychain, error) {
	infoCT, expectedRemoteInfo, keys, err := mcrypto.CalcLoginDID(r.randKey, remoteKey, r.token)
	if err != nil {
		return token.SessionKeychain{}, fmt.Errorf("login: calc login did: %w", err)
	}

	if !bytesEqual(remoteInfo, expectedRemoteInfo) {
		r.logger.Error("scooter sent unexpected remote key",
			"expected", fmt.Sprintf("%x", expectedRemoteInfo),
			"received", fmt.Sprintf("%x", remoteInfo))
		return token.SessionKeychain{}, ErrInvalidDID
	}

	r.logger.Debug("remote info validated, sending did")
	if err := r.eng.Write(ctx, ble.AVDTP, command.CmdSendInfo); err != nil {
		return token.SessionKeychain{}, err
	}
	if err := r.eng.WaitForScooterToReceiveData(ctx); err != nil {
		return token.SessionKeychain{}, err
	}
	if err := r.eng.WriteMiParcel(ctx, ble.AVDTP, infoCT); err != nil {
		return token.SessionKeychain{}, err
	}
	if err := r.eng.WaitForScooterToAckData(ctx); err != nil {
		return token.SessionKeychain{}, err
	}

	return token.FromLoginKeychain(keys), nil
}

// confirm is step 6: expect RCV_LOGIN_OK.
func (r *Request) confirm(ctx context.Context) error {
	got, ok, err := r.eng.NextMiResponse(ctx)
	if err != nil {
		return err
	}
	if !ok || got != command.RcvLoginOK {
		return fmt.Errorf("%w: expected RCV_LOGIN_OK, got %v", ErrLoginFailed, got)
	}
	r.logger.Info("logged in")
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
