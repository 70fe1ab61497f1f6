// Package frame implements the two BLE framing schemes the scooter speaks:
// Mi parcels (acknowledged, multi-chunk transfers on the auth characteristic
// pair) and Ninebot frames (raw, fixed-size chunks on the UART pair).
package frame

import (
	"encoding/binary"
	"fmt"
)

// MiChunkSize is the payload size of a single Mi parcel chunk.
const MiChunkSize = 18

// NbChunkSize is the size of a single Ninebot UART chunk.
const NbChunkSize = 20

// SplitMiParcel breaks payload into MiChunkSize-byte chunks, each prefixed
// with a 2-byte little-endian frame index starting at 1 — the format
// write_mi_parcel puts on the wire one characteristic write per chunk.
func SplitMiParcel(payload []byte) [][]byte {
	var chunks [][]byte
	index := uint16(1)
	for off := 0; off < len(payload); off += MiChunkSize {
		end := off + MiChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := make([]byte, 2+end-off)
		binary.LittleEndian.PutUint16(chunk, index)
		copy(chunk[2:], payload[off:end])
		chunks = append(chunks, chunk)
		index++
	}
	if len(chunks) == 0 {
		chunk := make([]byte, 2)
		binary.LittleEndian.PutUint16(chunk, index)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// FrameCount reads the total-frame-count field out of the first notification
// of a Mi parcel read, which the scooter places at byte offset 4..6 as a
// little-endian u16.
func FrameCount(firstNotification []byte) (uint16, error) {
	if len(firstNotification) < 6 {
		return 0, fmt.Errorf("frame: first Mi notification too short for frame count: %d bytes", len(firstNotification))
	}
	return binary.LittleEndian.Uint16(firstNotification[4:6]), nil
}

// MiParcelAssembler accumulates Mi parcel notifications and strips their
// framing, reproducing the original payload in order. The first notification
// carries a 6-byte header (2-byte index, 2 reserved, 2-byte total frame
// count); every later one carries only the 2-byte index.
type MiParcelAssembler struct {
	buf []byte
}

// AddFirst appends the first notification of a parcel, stripping its 6-byte
// header.
func (a *MiParcelAssembler) AddFirst(notification []byte) error {
	if len(notification) < 6 {
		return fmt.Errorf("frame: first Mi parcel chunk too short: %d bytes", len(notification))
	}
	a.buf = append(a.buf, notification[6:]...)
	return nil
}

// Add appends one notification's payload (sans its 2-byte index) to the
// assembler.
func (a *MiParcelAssembler) Add(notification []byte) error {
	if len(notification) < 2 {
		return fmt.Errorf("frame: Mi parcel chunk too short: %d bytes", len(notification))
	}
	a.buf = append(a.buf, notification[2:]...)
	return nil
}

// Bytes returns the assembled payload.
func (a *MiParcelAssembler) Bytes() []byte { return a.buf }

// SplitNbFrames breaks payload into raw NbChunkSize-byte chunks with no
// added header — the Ninebot UART channel carries no framing of its own,
// relying entirely on the encrypted envelope inside each chunk.
func SplitNbFrames(payload []byte) [][]byte {
	var chunks [][]byte
	for off := 0; off < len(payload); off += NbChunkSize {
		end := off + NbChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := make([]byte, end-off)
		copy(chunk, payload[off:end])
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		chunks = append(chunks, []byte{})
	}
	return chunks
}

// JoinNbFrames concatenates a caller-specified number of raw UART
// notifications into the encrypted frame they jointly carry.
func JoinNbFrames(notifications [][]byte) []byte {
	var buf []byte
	for _, n := range notifications {
		buf = append(buf, n...)
	}
	return buf
}
