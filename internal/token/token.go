// Package token defines the value types that cross the boundary between a
// registration, a login, and a session: the persistent AuthToken and the
// per-session SessionKeychain derived from it. Neither type performs any
// disk I/O — persistence is a caller concern (see cmd/scootlink).
package token

import (
	"encoding/hex"
	"fmt"

	"github.com/scootlink/scootlink/internal/mcrypto"
)

// Size is the length of an AuthToken in octets.
const Size = 12

// AuthToken is the opaque secret produced once by registration and supplied
// to every subsequent login. Equality is byte-wise.
type AuthToken [Size]byte

// FromBytes builds an AuthToken from a byte slice of the expected length.
func FromBytes(b []byte) (AuthToken, error) {
	var t AuthToken
	if len(b) != Size {
		return t, fmt.Errorf("token: expected %d bytes, got %d", Size, len(b))
	}
	copy(t[:], b)
	return t, nil
}

// Bytes returns the token as a byte slice.
func (t AuthToken) Bytes() []byte { return t[:] }

// String renders the token as a hex string for logging; never log the
// token value itself in production, only that one is present.
func (t AuthToken) String() string { return hex.EncodeToString(t[:]) }

// IsZero reports whether the token is uninitialized.
func (t AuthToken) IsZero() bool { return t == AuthToken{} }

// SessionKeychain is the pair of AES-128 keys (plus their 4-byte IV
// prefixes) negotiated during login: app_key/app_iv encrypt frames flowing
// toward the scooter, dev_key/dev_iv decrypt frames flowing back.
type SessionKeychain struct {
	AppKey [mcrypto.KeySize]byte
	AppIV  [mcrypto.IVSize]byte
	DevKey [mcrypto.KeySize]byte
	DevIV  [mcrypto.IVSize]byte
}

// FromLoginKeychain adapts the crypto package's derivation output into the
// session-facing keychain type.
func FromLoginKeychain(k mcrypto.LoginKeychain) SessionKeychain {
	return SessionKeychain{
		AppKey: k.AppKey,
		AppIV:  k.AppIV,
		DevKey: k.DevKey,
		DevIV:  k.DevIV,
	}
}
