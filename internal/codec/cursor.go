// Package codec provides the little-endian primitives shared by the
// transaction, block and frame encodings.
package codec

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Cursor is a bounds-checked sequential reader over a byte slice.
// After a failed read the offset is unspecified and the cursor must be
// discarded.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.off
}

// take returns the next n bytes without copying.
func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, errors.WithStack(&EndOfInputError{Width: n, Remaining: c.Remaining()})
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// ReadUint8 reads a single byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt32 reads a little-endian two's-complement int32.
func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

// ReadFixed reads exactly n bytes and returns a copy of them.
func (c *Cursor) ReadFixed(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadInto fills dst completely from the cursor.
func (c *Cursor) ReadInto(dst []byte) error {
	b, err := c.take(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ReadCompactSize reads a compact-size unsigned integer.
func (c *Cursor) ReadCompactSize() (uint64, error) {
	marker, err := c.ReadUint8()
	if err != nil {
		return 0, err
	}

	switch marker {
	case compactMarker16:
		v, err := c.ReadUint16()
		return uint64(v), err
	case compactMarker32:
		v, err := c.ReadUint32()
		return uint64(v), err
	case compactMarker64:
		return c.ReadUint64()
	default:
		return uint64(marker), nil
	}
}

// ReadVarBytes reads a compact-size length followed by that many bytes.
func (c *Cursor) ReadVarBytes() ([]byte, error) {
	n, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	if n > uint64(c.Remaining()) {
		return nil, errors.WithStack(&EndOfInputError{Width: clampWidth(n), Remaining: c.Remaining()})
	}
	return c.ReadFixed(int(n))
}

// ReadVarString reads length-prefixed bytes that must be valid UTF-8.
func (c *Cursor) ReadVarString() (string, error) {
	b, err := c.ReadVarBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.Wrapf(ErrInvalidEncoding, "%d byte text field at offset %d", len(b), c.off-len(b))
	}
	return string(b), nil
}

// Done reports ErrTrailingBytes if any input is left unread.
func (c *Cursor) Done() error {
	if n := c.Remaining(); n != 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d unread bytes", n)
	}
	return nil
}

func clampWidth(n uint64) int {
	const maxInt = int(^uint(0) >> 1)
	if n > uint64(maxInt) {
		return maxInt
	}
	return int(n)
}
