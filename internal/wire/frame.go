// Package wire wraps serialized blocks in magic and length framed messages.
package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"

	"github.com/yourusername/blockwire/internal/block"
	"github.com/yourusername/blockwire/internal/codec"
	"github.com/yourusername/blockwire/pkg/types"
)

const (
	// HeaderSize is the magic marker plus the payload length.
	HeaderSize = 8

	// DefaultMaxPayload bounds the payload a frame may declare.
	DefaultMaxPayload = 32 << 20
)

var (
	// ErrInvalidMagicBytes means a frame does not start with the expected marker.
	ErrInvalidMagicBytes = errors.New("invalid magic bytes")

	// ErrPayloadTooLarge means a frame declares more payload than allowed.
	ErrPayloadTooLarge = errors.New("frame payload too large")
)

// Magic is the 4-byte marker that opens every frame.
type Magic [4]byte

// MainMagic is the marker used on the main network.
var MainMagic = Magic{0xf9, 0xbe, 0xb4, 0xd9}

func (m Magic) String() string {
	return hex.EncodeToString(m[:])
}

// ParseMagic reads a marker written as 8 hex digits in wire order.
func ParseMagic(s string) (Magic, error) {
	var m Magic
	b, err := hex.DecodeString(s)
	if err != nil {
		return m, errors.Wrapf(err, "magic %q", s)
	}
	if len(b) != len(m) {
		return m, errors.Errorf("magic %q: want %d bytes, got %d", s, len(m), len(b))
	}
	copy(m[:], b)
	return m, nil
}

// Framer wraps and unwraps frames for one network.
type Framer struct {
	magic      Magic
	maxPayload uint32
}

// NewFramer creates a framer. A maxPayload of zero means DefaultMaxPayload.
func NewFramer(magic Magic, maxPayload uint32) *Framer {
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Framer{magic: magic, maxPayload: maxPayload}
}

// Magic returns the framer's marker.
func (f *Framer) Magic() Magic {
	return f.magic
}

// Wrap serializes a mined block and frames it.
func (f *Framer) Wrap(b *types.Block) ([]byte, error) {
	payload, err := block.Serialize(b)
	if err != nil {
		return nil, err
	}
	return f.WrapPayload(payload)
}

// WrapPayload frames an already serialized block.
func (f *Framer) WrapPayload(payload []byte) ([]byte, error) {
	if uint64(len(payload)) > uint64(f.maxPayload) {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes, max %d", len(payload), f.maxPayload)
	}

	frame := make([]byte, HeaderSize, HeaderSize+len(payload))
	copy(frame, f.magic[:])
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(payload)))
	return append(frame, payload...), nil
}

// Unwrap decodes exactly one frame. Bytes past the declared length are
// rejected. The returned block's hash is unset.
func (f *Framer) Unwrap(data []byte) (*types.Block, error) {
	payload, err := f.UnwrapPayload(data)
	if err != nil {
		return nil, err
	}
	return block.Deserialize(payload)
}

// UnwrapPayload checks the frame and returns its payload without decoding it.
func (f *Framer) UnwrapPayload(data []byte) ([]byte, error) {
	c := codec.NewCursor(data)

	magic, err := c.ReadFixed(len(f.magic))
	if err != nil {
		return nil, errors.Wrap(err, "frame magic")
	}
	if !bytes.Equal(magic, f.magic[:]) {
		return nil, errors.Wrapf(ErrInvalidMagicBytes, "got %x, want %s", magic, f.magic)
	}

	length, err := c.ReadUint32()
	if err != nil {
		return nil, errors.Wrap(err, "frame length")
	}
	if length > f.maxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes, max %d", length, f.maxPayload)
	}

	payload, err := c.ReadFixed(int(length))
	if err != nil {
		return nil, errors.Wrap(err, "frame payload")
	}
	if err := c.Done(); err != nil {
		return nil, errors.Wrap(err, "frame")
	}

	return payload, nil
}

// WriteFrame writes one framed block to w.
func (f *Framer) WriteFrame(w io.Writer, b *types.Block) error {
	frame, err := f.Wrap(b)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// ReadFrame reads exactly one frame from r and decodes its block. It returns
// io.EOF only when r ends before the first byte of a frame.
func (f *Framer) ReadFrame(r io.Reader) (*types.Block, error) {
	var hdr [HeaderSize]byte
	if n, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, readError(err, HeaderSize, n)
	}

	if !bytes.Equal(hdr[:4], f.magic[:]) {
		return nil, errors.Wrapf(ErrInvalidMagicBytes, "got %x, want %s", hdr[:4], f.magic)
	}

	length := binary.LittleEndian.Uint32(hdr[4:])
	if length > f.maxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes, max %d", length, f.maxPayload)
	}

	payload := make([]byte, length)
	if n, err := io.ReadFull(r, payload); err != nil {
		return nil, readError(err, int(length), n)
	}

	return block.Deserialize(payload)
}

// readError reports a short stream as an end-of-input error.
func readError(err error, width, got int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.WithStack(&codec.EndOfInputError{Width: width, Remaining: got})
	}
	return errors.Wrap(err, "read frame")
}
