// Package wire implements the node's canonical binary encoding: the
// length-prefixed, fixed-endian, field-ordered format spec.md §6 specifies
// for both signed messages on the network and the canonical transaction
// encoding used for signing. Integers are little-endian; sequences are
// prefixed with an 8-byte unsigned length; H256/H160 are raw fixed-width
// bytes; strings are length-prefixed UTF-8.
//
// No general-purpose serialization library (gob, protobuf, msgpack,
// go-ethereum's RLP) produces this exact byte layout, so the codec is
// hand-rolled on top of encoding/binary — see DESIGN.md.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder accumulates a field-ordered binary encoding.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns a ready-to-use Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Fixed writes b verbatim — used for H256/H160 and other fixed-width fields.
func (e *Encoder) Fixed(b []byte) { e.buf.Write(b) }

// Uint16 writes v little-endian.
func (e *Encoder) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

// Uint32 writes v little-endian.
func (e *Encoder) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// Uint64 writes v little-endian.
func (e *Encoder) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// Uint128 writes v as a 16-byte little-endian value. The node never needs
// more than 64 bits of millisecond-epoch timestamp, so the high 8 bytes are
// always zero, but the field stays the full width spec.md §3 declares.
func (e *Encoder) Uint128(v uint64) {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], v)
	e.buf.Write(b[:])
}

// Len writes a sequence/string length as an 8-byte unsigned prefix.
func (e *Encoder) Len(n int) { e.Uint64(uint64(n)) }

// LenPrefixedBytes writes a length-prefixed byte string.
func (e *Encoder) LenPrefixedBytes(b []byte) {
	e.Len(len(b))
	e.buf.Write(b)
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.Len(len(s))
	e.buf.WriteString(s)
}

// Decoder reads fields back out of a field-ordered binary encoding.
type Decoder struct {
	r   *bytes.Reader
	err error
}

// NewDecoder wraps b for sequential field reads.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(b)}
}

// Err returns the first error encountered, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Fixed reads exactly n bytes.
func (d *Decoder) Fixed(n int) []byte {
	if d.err != nil {
		return make([]byte, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.fail(fmt.Errorf("wire: read %d fixed bytes: %w", n, err))
	}
	return b
}

// Uint16 reads a little-endian uint16.
func (d *Decoder) Uint16() uint16 {
	b := d.Fixed(2)
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// Uint32 reads a little-endian uint32.
func (d *Decoder) Uint32() uint32 {
	b := d.Fixed(4)
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Uint64 reads a little-endian uint64.
func (d *Decoder) Uint64() uint64 {
	b := d.Fixed(8)
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// Uint128 reads a 16-byte little-endian value, truncated to the low 64
// bits (see Encoder.Uint128).
func (d *Decoder) Uint128() uint64 {
	b := d.Fixed(16)
	if d.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b[:8])
}

// Len reads an 8-byte unsigned sequence/string length. A claimed length
// can never exceed the bytes actually left in the buffer — every
// element takes at least one byte — so anything larger is rejected
// here rather than handed to a caller's make([]T, n). This is what
// stops a spoofed length prefix (including one that wraps negative
// once converted to int, e.g. a buffer of 0xFF bytes) from reaching an
// allocation and panicking or exhausting memory.
func (d *Decoder) Len() int {
	raw := d.Uint64()
	if d.err != nil {
		return 0
	}
	if raw > uint64(d.r.Len()) {
		d.fail(fmt.Errorf("wire: length prefix %d exceeds %d remaining bytes", raw, d.r.Len()))
		return 0
	}
	return int(raw)
}

// LenPrefixedBytes reads a length-prefixed byte string.
func (d *Decoder) LenPrefixedBytes() []byte {
	n := d.Len()
	if d.err != nil {
		return nil
	}
	return d.Fixed(n)
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() string {
	return string(d.LenPrefixedBytes())
}
