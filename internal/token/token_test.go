package token

import (
	"bytes"
	"testing"
)

func TestFromBytesRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0x42}, Size)
	tok, err := FromBytes(raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !bytes.Equal(tok.Bytes(), raw) {
		t.Fatalf("Bytes() = %x, want %x", tok.Bytes(), raw)
	}
	if tok.IsZero() {
		t.Fatal("expected a non-zero token")
	}
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := FromBytes(make([]byte, Size-1)); err == nil {
		t.Fatal("expected an error for a short token")
	}
	if _, err := FromBytes(make([]byte, Size+1)); err == nil {
		t.Fatal("expected an error for a long token")
	}
}

func TestAuthTokenIsZero(t *testing.T) {
	var tok AuthToken
	if !tok.IsZero() {
		t.Fatal("expected the zero value to report IsZero")
	}
}

func TestAuthTokenEqualityIsBytewise(t *testing.T) {
	a, err := FromBytes(bytes.Repeat([]byte{0x01}, Size))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	b, err := FromBytes(bytes.Repeat([]byte{0x01}, Size))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if a != b {
		t.Fatal("expected identical byte contents to compare equal")
	}
	c, err := FromBytes(bytes.Repeat([]byte{0x02}, Size))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if a == c {
		t.Fatal("expected different byte contents to compare unequal")
	}
}

func TestAuthTokenStringIsHex(t *testing.T) {
	tok, err := FromBytes(bytes.Repeat([]byte{0xab}, Size))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got, want := tok.String(), "abababababababababababab"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
