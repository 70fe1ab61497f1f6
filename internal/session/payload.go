// Package session implements the encrypted UART command/response channel:
// serialising and sending a ScooterCommand, decrypting the scooter's reply,
// and decoding it into the typed values listed for each query.
package session

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Payload is a forward cursor over one decrypted UART response. Every
// response begins with a 3-byte header the caller skips with PopHead before
// reading fields; readers consume from the head in wire order (little
// endian), unlike the reversed-tail-pop trick of the Rust original this was
// ported from — a plain forward cursor reads the same bytes in the same
// order with less indirection.
type Payload struct {
	bytes []byte
	pos   int
}

// NewPayload wraps a decrypted response for field-by-field decoding.
func NewPayload(b []byte) *Payload {
	return &Payload{bytes: b}
}

func (p *Payload) take(n int) ([]byte, error) {
	if p.pos+n > len(p.bytes) {
		return nil, fmt.Errorf("session: payload out of bytes: need %d, have %d", n, len(p.bytes)-p.pos)
	}
	b := p.bytes[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

// PopHead skips the 3-byte header every UART response carries.
func (p *Payload) PopHead() error {
	_, err := p.take(3)
	return err
}

// PopByte consumes and returns a single octet.
func (p *Payload) PopByte() (byte, error) {
	b, err := p.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// PopU16 consumes a little-endian unsigned 16-bit field.
func (p *Payload) PopU16() (uint16, error) {
	b, err := p.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// PopI16 consumes a little-endian signed 16-bit field.
func (p *Payload) PopI16() (int16, error) {
	v, err := p.PopU16()
	return int16(v), err
}

// PopU32 consumes a little-endian unsigned 32-bit field.
func (p *Payload) PopU32() (uint32, error) {
	b, err := p.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// PopI32 consumes a little-endian signed 32-bit field.
func (p *Payload) PopI32() (int32, error) {
	v, err := p.PopU32()
	return int32(v), err
}

// PopBool consumes a u16 field and reports whether it equals 1.
func (p *Payload) PopBool() (bool, error) {
	v, err := p.PopU16()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// PopStringUTF8 consumes n octets and decodes them as UTF-8, lossily
// substituting the replacement character for any invalid sequence.
func (p *Payload) PopStringUTF8(n int) (string, error) {
	b, err := p.take(n)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}
