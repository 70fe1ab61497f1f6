package mcrypto

import (
	"crypto/cipher"
	"crypto/subtle"
	"errors"
)

// ccm implements AES-CCM (RFC 3610) directly against a cipher.Block. The
// ecosystem has no maintained CCM package the way it has hkdf/chacha20poly1305;
// every BLE stack that speaks this protocol hand-rolls CCM against the block
// cipher primitive the same way, so this follows suit rather than reaching for
// GCM or another AEAD the scooter firmware does not implement.
type ccm struct {
	block   cipher.Block
	nonceSz int
	tagSz   int
}

// newCCM wraps block for AES-CCM with the given nonce and tag sizes.
// RFC 3610 bounds: 7 <= nonceSz <= 13, tagSz in {4,6,8,10,12,14,16}.
func newCCM(block cipher.Block, nonceSz, tagSz int) (cipher.AEAD, error) {
	if block.BlockSize() != 16 {
		return nil, errors.New("mcrypto: CCM requires a 128-bit block cipher")
	}
	if nonceSz < 7 || nonceSz > 13 {
		return nil, errors.New("mcrypto: invalid CCM nonce size")
	}
	if tagSz < 4 || tagSz > 16 || tagSz%2 != 0 {
		return nil, errors.New("mcrypto: invalid CCM tag size")
	}
	return &ccm{block: block, nonceSz: nonceSz, tagSz: tagSz}, nil
}

func (c *ccm) NonceSize() int { return c.nonceSz }
func (c *ccm) Overhead() int  { return c.tagSz }

// lengthFieldSize (L in RFC 3610) encodes the message length; it occupies
// 15-nonceSz octets of the first block.
func (c *ccm) lengthFieldSize() int { return 15 - c.nonceSz }

func (c *ccm) formatB0(nonce []byte, aadLen, msgLen int) []byte {
	b0 := make([]byte, 16)
	l := c.lengthFieldSize()

	var flags byte
	if aadLen > 0 {
		flags |= 0x40
	}
	flags |= byte((c.tagSz-2)/2) << 3
	flags |= byte(l - 1)
	b0[0] = flags

	copy(b0[1:1+c.nonceSz], nonce)
	putUintBE(b0[1+c.nonceSz:], l, uint64(msgLen))
	return b0
}

func putUintBE(dst []byte, width int, v uint64) {
	for i := width - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func (c *ccm) cbcMAC(nonce, aad, msg []byte) []byte {
	mac := make([]byte, 16)
	b0 := c.formatB0(nonce, len(aad), len(msg))
	c.block.Encrypt(mac, b0)

	xorBlockEncrypt := func(chunk []byte) {
		buf := make([]byte, 16)
		copy(buf, chunk)
		for i := range buf {
			buf[i] ^= mac[i]
		}
		c.block.Encrypt(mac, buf)
	}

	if len(aad) > 0 {
		var hdr []byte
		switch {
		case len(aad) < 0xFF00:
			hdr = []byte{byte(len(aad) >> 8), byte(len(aad))}
		default:
			hdr = []byte{0xFF, 0xFE, 0, 0, 0, 0}
			putUintBE(hdr[2:], 4, uint64(len(aad)))
		}
		buf := append(append([]byte{}, hdr...), aad...)
		for len(buf)%16 != 0 {
			buf = append(buf, 0)
		}
		for off := 0; off < len(buf); off += 16 {
			xorBlockEncrypt(buf[off : off+16])
		}
	}

	padded := append([]byte{}, msg...)
	for len(padded)%16 != 0 {
		padded = append(padded, 0)
	}
	for off := 0; off < len(padded); off += 16 {
		xorBlockEncrypt(padded[off : off+16])
	}

	return mac
}

func (c *ccm) counterBlock(nonce []byte, counter uint64) []byte {
	l := c.lengthFieldSize()
	a := make([]byte, 16)
	a[0] = byte(l - 1)
	copy(a[1:1+c.nonceSz], nonce)
	putUintBE(a[1+c.nonceSz:], l, counter)
	return a
}

func (c *ccm) ctrXOR(nonce, in []byte, startCounter uint64) []byte {
	out := make([]byte, len(in))
	var keystream [16]byte
	counter := startCounter
	for off := 0; off < len(in); off += 16 {
		block := c.counterBlock(nonce, counter)
		c.block.Encrypt(keystream[:], block)
		end := off + 16
		if end > len(in) {
			end = len(in)
		}
		for i := off; i < end; i++ {
			out[i] = in[i] ^ keystream[i-off]
		}
		counter++
	}
	return out
}

// Seal implements cipher.AEAD. dst/nonce/plaintext/aad follow stdlib conventions;
// the returned ciphertext has the tag appended, truncated to c.tagSz octets.
func (c *ccm) Seal(dst, nonce, plaintext, aad []byte) []byte {
	if len(nonce) != c.nonceSz {
		panic("mcrypto: bad CCM nonce length")
	}
	mac := c.cbcMAC(nonce, aad, plaintext)
	s0 := c.ctrXOR(nonce, mac[:16], 0)
	cipherText := c.ctrXOR(nonce, plaintext, 1)
	ret, out := sliceForAppend(dst, len(cipherText)+c.tagSz)
	copy(out, cipherText)
	copy(out[len(cipherText):], s0[:c.tagSz])
	return ret
}

// Open implements cipher.AEAD.
func (c *ccm) Open(dst, nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != c.nonceSz {
		return nil, errors.New("mcrypto: bad CCM nonce length")
	}
	if len(ciphertext) < c.tagSz {
		return nil, errors.New("mcrypto: CCM ciphertext too short")
	}
	body := ciphertext[:len(ciphertext)-c.tagSz]
	tag := ciphertext[len(ciphertext)-c.tagSz:]

	plain := c.ctrXOR(nonce, body, 1)
	mac := c.cbcMAC(nonce, aad, plain)
	s0 := c.ctrXOR(nonce, mac[:16], 0)

	if subtle.ConstantTimeCompare(s0[:c.tagSz], tag) != 1 {
		return nil, errors.New("mcrypto: CCM authentication failed")
	}

	ret, out := sliceForAppend(dst, len(plain))
	copy(out, plain)
	return ret, nil
}

func sliceForAppend(in []byte, n int) (head, tail []byte) {
	if total := len(in) + n; cap(in) >= total {
		head = in[:total]
	} else {
		head = make([]byte, total)
		copy(head, in)
	}
	tail = head[len(in):]
	return
}
