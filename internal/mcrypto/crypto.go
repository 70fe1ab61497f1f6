// Package mcrypto provides the cryptographic primitives the scooter control
// channel is built on: P-256 ECDH, HKDF-SHA256 key derivation, AES-CCM
// encryption, and the CRC-16 checksum carried on every UART frame.
package mcrypto

import (
	"crypto/aes"
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the size of an AES-128 session key in bytes.
	KeySize = 16

	// IVSize is the size of the 4-byte IV prefix folded into every UART nonce.
	IVSize = 4

	// TagSize is the AES-CCM authentication tag size this protocol uses
	// everywhere (both the DID ciphertext and UART frames).
	TagSize = 4

	// uartNonceSize is key.iv (4) + per-frame random (4) + counter (4).
	uartNonceSize = 12

	setupInfo = "mible-setup-info"
	loginInfo = "mible-login-info"
)

// EphemeralKeyPair is a one-shot P-256 key pair generated for a single
// registration attempt.
type EphemeralKeyPair struct {
	Secret *ecdh.PrivateKey
}

// GenKeyPair generates a fresh P-256 ephemeral key pair.
func GenKeyPair() (EphemeralKeyPair, error) {
	secret, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return EphemeralKeyPair{}, fmt.Errorf("generate P-256 key pair: %w", err)
	}
	return EphemeralKeyPair{Secret: secret}, nil
}

// PublicPoint returns the uncompressed public point without the leading
// 0x04 marker octet, i.e. the 64-byte X||Y the scooter expects on the wire.
func (k EphemeralKeyPair) PublicPoint() []byte {
	raw := k.Secret.PublicKey().Bytes()
	return raw[1:]
}

// ecdhSharedSecret computes the ECDH shared X-coordinate from our secret and
// the scooter's raw public point, which arrives without the 0x04 prefix.
func ecdhSharedSecret(secret *ecdh.PrivateKey, remotePointNoPrefix []byte) ([]byte, error) {
	full := make([]byte, 0, 1+len(remotePointNoPrefix))
	full = append(full, 0x04)
	full = append(full, remotePointNoPrefix...)

	remotePub, err := ecdh.P256().NewPublicKey(full)
	if err != nil {
		return nil, fmt.Errorf("parse remote public key: %w", err)
	}

	shared, err := secret.ECDH(remotePub)
	if err != nil {
		return nil, fmt.Errorf("compute ECDH shared secret: %w", err)
	}
	return shared, nil
}

func hkdfExpand(secret, salt []byte, info string, n int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, []byte(info))
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("HKDF expand: %w", err)
	}
	return out, nil
}

// CalcDID implements the Mi-Home pairing derivation: given our
// ephemeral secret, the scooter's raw public point (no 0x04 prefix) and the
// remote_info blob read earlier, it returns the DID ciphertext to upload and
// the 12-byte AuthToken to persist.
//
// The HKDF output is split: token = B[0:12], a_key = B[12:28], a_iv =
// B[28:32], d_key = B[32:48], d_iv = B[48:52], hmac_key = B[52:64].
//
// did_ct folds remote_info in via an 8-byte HMAC-SHA256 tag rather than by
// literal concatenation (the scooter never discloses the exact plaintext
// layout); plaintext = hmacTag(remote_info)[:8] || token, CCM-sealed under
// (a_key, nonce=a_iv||0x00000000||0x00000000) with a 4-byte tag, giving a
// 24-byte ciphertext.
func CalcDID(secret EphemeralKeyPair, remotePointNoPrefix, remoteInfo []byte) (didCT []byte, token [12]byte, err error) {
	shared, err := ecdhSharedSecret(secret.Secret, remotePointNoPrefix)
	if err != nil {
		return nil, token, err
	}

	split, err := hkdfExpand(shared, nil, setupInfo, 64)
	if err != nil {
		return nil, token, err
	}

	copy(token[:], split[0:12])
	aKey := split[12:28]
	aIV := split[28:32]
	hmacKey := split[52:64]

	block, err := aes.NewCipher(aKey)
	if err != nil {
		return nil, token, fmt.Errorf("new AES cipher: %w", err)
	}
	aead, err := newCCM(block, uartNonceSize, TagSize)
	if err != nil {
		return nil, token, err
	}

	mac := hmac.New(sha256.New, hmacKey)
	mac.Write(remoteInfo)
	infoTag := mac.Sum(nil)[:8]

	plain := make([]byte, 0, 20)
	plain = append(plain, infoTag...)
	plain = append(plain, token[:]...)

	nonce := make([]byte, uartNonceSize)
	copy(nonce[:IVSize], aIV)

	didCT = aead.Seal(nil, nonce, plain, nil)
	return didCT, token, nil
}

// LoginKeychain holds the four session values derived during login:
// app_key/app_iv encrypt app->scooter frames, dev_key/dev_iv decrypt
// scooter->app frames.
type LoginKeychain struct {
	AppKey [KeySize]byte
	AppIV  [IVSize]byte
	DevKey [KeySize]byte
	DevIV  [IVSize]byte
}

// CalcLoginDID implements the login derivation: given our
// random key, the scooter's remote key and the persisted AuthToken, it
// returns the confirmation blob to send back, the remote_info value we
// expect to have already read from the scooter, and the derived keychain.
func CalcLoginDID(randKey, remoteKey []byte, token [12]byte) (infoCT, expectedRemoteInfo []byte, keys LoginKeychain, err error) {
	if len(randKey) != 16 || len(remoteKey) != 16 {
		return nil, nil, keys, fmt.Errorf("login keys must be 16 bytes, got rand=%d remote=%d", len(randKey), len(remoteKey))
	}

	secret := make([]byte, 0, 32)
	secret = append(secret, randKey...)
	secret = append(secret, remoteKey...)

	split, err := hkdfExpand(secret, token[:], loginInfo, 40)
	if err != nil {
		return nil, nil, keys, err
	}

	copy(keys.DevKey[:], split[0:16])
	copy(keys.AppKey[:], split[16:32])
	copy(keys.DevIV[:], split[32:36])
	copy(keys.AppIV[:], split[36:40])

	confirmMsg := make([]byte, 0, 32)
	confirmMsg = append(confirmMsg, randKey...)
	confirmMsg = append(confirmMsg, remoteKey...)

	devMAC := hmac.New(sha256.New, keys.DevKey[:])
	devMAC.Write(confirmMsg)
	expectedRemoteInfo = devMAC.Sum(nil)

	appMAC := hmac.New(sha256.New, keys.AppKey[:])
	appMAC.Write(confirmMsg)
	infoCT = appMAC.Sum(nil)

	return infoCT, expectedRemoteInfo, keys, nil
}

// EncryptUART wraps plaintext in the wire envelope the scooter's UART
// characteristic expects: magic prefix, length, a random nonce component and
// a monotonic counter, followed by the AES-CCM ciphertext+tag and a
// trailing CRC-16. rng, if non-nil, supplies the 4 random nonce octets
// (tests pass a fixed value; production passes nil to use crypto/rand).
func EncryptUART(key [KeySize]byte, iv [IVSize]byte, plaintext []byte, counter uint32, rng []byte) ([]byte, error) {
	randBytes := make([]byte, 4)
	if rng != nil {
		if len(rng) != 4 {
			return nil, fmt.Errorf("rng must be 4 bytes, got %d", len(rng))
		}
		copy(randBytes, rng)
	} else if _, err := io.ReadFull(rand.Reader, randBytes); err != nil {
		return nil, fmt.Errorf("generate nonce random: %w", err)
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("new AES cipher: %w", err)
	}
	aead, err := newCCM(block, uartNonceSize, TagSize)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, uartNonceSize)
	copy(nonce[0:4], iv[:])
	copy(nonce[4:8], randBytes)
	binary.LittleEndian.PutUint32(nonce[8:12], counter)

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	body := make([]byte, 0, 11+len(sealed))
	body = append(body, 0x55, 0xab)
	length := uint16(len(sealed))
	body = append(body, byte(length), byte(length>>8))
	body = append(body, 0x00, 0x00)
	body = append(body, randBytes...)
	body = append(body, byte(counter), byte(counter>>8), byte(counter>>16), byte(counter>>24))
	body = append(body, sealed...)

	crc := CRC16(body)
	body = append(body, byte(crc), byte(crc>>8))

	return body, nil
}

// DecryptUART unwraps a frame produced by EncryptUART (or by the scooter
// firmware, which uses the same envelope) and returns the authenticated
// plaintext.
func DecryptUART(key [KeySize]byte, iv [IVSize]byte, wire []byte) ([]byte, error) {
	if len(wire) < 16 {
		return nil, fmt.Errorf("mcrypto: UART frame too short: %d bytes", len(wire))
	}
	if wire[0] != 0x55 || wire[1] != 0xab {
		return nil, fmt.Errorf("mcrypto: bad UART frame prefix")
	}

	got := binary.LittleEndian.Uint16(wire[len(wire)-2:])
	want := CRC16(wire[:len(wire)-2])
	if got != want {
		return nil, fmt.Errorf("mcrypto: UART CRC mismatch: got %04x want %04x", got, want)
	}

	randBytes := wire[6:10]
	counter := wire[10:14]
	sealed := wire[14 : len(wire)-2]

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("new AES cipher: %w", err)
	}
	aead, err := newCCM(block, uartNonceSize, TagSize)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, uartNonceSize)
	copy(nonce[0:4], iv[:])
	copy(nonce[4:8], randBytes)
	copy(nonce[8:12], counter)

	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("mcrypto: decrypt UART frame: %w", err)
	}
	return plain, nil
}

// CRC16 is the little-endian sum-complement checksum used to trail every
// UART frame: the bitwise complement of the 16-bit sum of all input octets.
func CRC16(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return ^sum
}
