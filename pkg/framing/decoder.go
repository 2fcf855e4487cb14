// pkg/framing/decoder.go
package framing

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Mode selects how an inbound byte stream is split into messages
type Mode string

const (
	ModeFixed Mode = "fixed"
	ModeRaw   Mode = "raw"
	ModeText  Mode = "text"
)

// Valid reports whether the mode is one of the supported strategies
func (m Mode) Valid() bool {
	switch m {
	case ModeFixed, ModeRaw, ModeText:
		return true
	}
	return false
}

// Message is one unit produced by a Decoder. Kind selects which of Frame, Raw
// or Text is meaningful; fixed frames also carry their Raw bytes.
type Message struct {
	Kind  Mode
	Frame Frame
	Raw   []byte
	Text  string
}

// Decoder turns chunks of bytes into messages. Implementations keep
// state between calls and perform no I/O.
type Decoder interface {
	Feed(p []byte) []Message
	Reset()
}

// NewDecoder creates the decoder for a mode
func NewDecoder(mode Mode) (Decoder, error) {
	switch mode {
	case ModeFixed, "":
		return NewFixedDecoder(), nil
	case ModeRaw:
		return &RawDecoder{}, nil
	case ModeText:
		return NewTextDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported frame mode: %s", mode)
	}
}

// FixedDecoder assembles FrameSize-byte frames. There is no
// resynchronization: the first byte after Reset starts a frame.
type FixedDecoder struct {
	buf [FrameSize]byte
	n   int
}

// NewFixedDecoder creates an empty fixed-frame decoder
func NewFixedDecoder() *FixedDecoder {
	return &FixedDecoder{}
}

// Feed appends bytes and returns every frame completed by them
func (d *FixedDecoder) Feed(p []byte) []Message {
	var out []Message
	for len(p) > 0 {
		c := copy(d.buf[d.n:], p)
		d.n += c
		p = p[c:]

		if d.n == FrameSize {
			raw := make([]byte, FrameSize)
			copy(raw, d.buf[:])
			frame, _ := ParseFrame(raw)
			out = append(out, Message{Kind: ModeFixed, Frame: frame, Raw: raw})
			d.n = 0
		}
	}
	return out
}

// Buffered returns the number of bytes waiting for a frame to complete
func (d *FixedDecoder) Buffered() int {
	return d.n
}

// Reset drops any partially assembled frame
func (d *FixedDecoder) Reset() {
	d.n = 0
}

// RawDecoder passes every chunk through unchanged
type RawDecoder struct{}

// Feed returns a copy of p as a single message
func (d *RawDecoder) Feed(p []byte) []Message {
	if len(p) == 0 {
		return nil
	}
	raw := make([]byte, len(p))
	copy(raw, p)
	return []Message{{Kind: ModeRaw, Raw: raw}}
}

// Reset is a no-op
func (d *RawDecoder) Reset() {}

// TextDecoder decodes UTF-8 lossily. Invalid sequences become U+FFFD;
// an incomplete sequence at the end of a chunk is held for the next one.
type TextDecoder struct {
	t       transform.Transformer
	pending []byte
}

// NewTextDecoder creates a streaming UTF-8 decoder
func NewTextDecoder() *TextDecoder {
	return &TextDecoder{t: unicode.UTF8.NewDecoder()}
}

// Feed decodes as much of the accumulated input as forms complete runes
func (d *TextDecoder) Feed(p []byte) []Message {
	d.pending = append(d.pending, p...)
	if len(d.pending) == 0 {
		return nil
	}

	// worst case every byte becomes a 3-byte replacement rune
	dst := make([]byte, len(d.pending)*3+utf8.UTFMax)
	nDst, nSrc, err := d.t.Transform(dst, d.pending, false)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		// drop the undecodable input rather than stall the stream
		d.Reset()
		return nil
	}

	d.pending = append(d.pending[:0], d.pending[nSrc:]...)
	if nDst == 0 {
		return nil
	}

	return []Message{{Kind: ModeText, Text: string(dst[:nDst])}}
}

// Pending returns the number of bytes held back as an incomplete rune
func (d *TextDecoder) Pending() int {
	return len(d.pending)
}

// Reset drops any held-back bytes
func (d *TextDecoder) Reset() {
	d.pending = d.pending[:0]
	d.t.Reset()
}
