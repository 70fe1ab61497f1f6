package mcrypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}

func TestCRC16(t *testing.T) {
	got := CRC16(mustHex(t, "a121f3040506070809"))
	if want := uint16(0xfe23); got != want {
		t.Fatalf("CRC16 = %04x, want %04x", got, want)
	}
}

func TestEncryptDecryptUARTRoundTrip(t *testing.T) {
	var key [KeySize]byte
	copy(key[:], mustHex(t, "5066d82368375a1f6a0a3eba1317b525"))
	var iv [IVSize]byte
	copy(iv[:], mustHex(t, "28cee53e"))

	plaintext := []byte{0x03, 0x20, 0x01, 0x10, 0x0e}
	rng := mustHex(t, "897045e7")

	wire, err := EncryptUART(key, iv, plaintext, 0, rng)
	if err != nil {
		t.Fatalf("EncryptUART: %v", err)
	}
	if wire[0] != 0x55 || wire[1] != 0xab {
		t.Fatalf("missing magic prefix: %x", wire[:2])
	}

	got, err := DecryptUART(key, iv, wire)
	if err != nil {
		t.Fatalf("DecryptUART: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %x want %x", got, plaintext)
	}
}

func TestDecryptUARTRejectsBadCRC(t *testing.T) {
	var key [KeySize]byte
	copy(key[:], mustHex(t, "462f3fcc74200ca5f77ee2a581c42af0"))
	var iv [IVSize]byte
	copy(iv[:], mustHex(t, "f8901a05"))

	wire, err := EncryptUART(key, iv, []byte("26354/00467353"), 0, nil)
	if err != nil {
		t.Fatalf("EncryptUART: %v", err)
	}
	wire[len(wire)-1] ^= 0xff

	if _, err := DecryptUART(key, iv, wire); err == nil {
		t.Fatal("expected CRC mismatch error, got nil")
	}
}

func TestDecryptUARTRejectsBadPrefix(t *testing.T) {
	var key [KeySize]byte
	var iv [IVSize]byte
	if _, err := DecryptUART(key, iv, make([]byte, 20)); err == nil {
		t.Fatal("expected bad prefix error, got nil")
	}
}

func TestCalcDIDLengths(t *testing.T) {
	alice, err := GenKeyPair()
	if err != nil {
		t.Fatalf("GenKeyPair: %v", err)
	}
	bob, err := GenKeyPair()
	if err != nil {
		t.Fatalf("GenKeyPair: %v", err)
	}

	remoteInfo := bytes.Repeat([]byte{0x42}, 20)
	didCT, token, err := CalcDID(alice, bob.PublicPoint(), remoteInfo)
	if err != nil {
		t.Fatalf("CalcDID: %v", err)
	}

	if len(didCT) != 24 {
		t.Fatalf("did_ct length = %d, want 24", len(didCT))
	}
	if len(token) != 12 {
		t.Fatalf("token length = %d, want 12", len(token))
	}
}

func TestCalcLoginDIDAgreement(t *testing.T) {
	randKey := bytes.Repeat([]byte{0x01}, 16)
	remoteKey := bytes.Repeat([]byte{0x02}, 16)
	var token [12]byte
	copy(token[:], bytes.Repeat([]byte{0x03}, 12))

	infoCT1, expected1, keys1, err := CalcLoginDID(randKey, remoteKey, token)
	if err != nil {
		t.Fatalf("CalcLoginDID: %v", err)
	}
	infoCT2, expected2, keys2, err := CalcLoginDID(randKey, remoteKey, token)
	if err != nil {
		t.Fatalf("CalcLoginDID: %v", err)
	}

	if !bytes.Equal(infoCT1, infoCT2) || !bytes.Equal(expected1, expected2) {
		t.Fatal("CalcLoginDID is not deterministic for identical inputs")
	}
	if keys1 != keys2 {
		t.Fatal("derived keychains differ for identical inputs")
	}
	if len(expected1) != 32 {
		t.Fatalf("expected remote info length = %d, want 32", len(expected1))
	}
}
