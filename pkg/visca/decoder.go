package visca

import (
	"bytes"
	"fmt"
)

// Decoder reassembles packets from a byte stream that may split or merge
// packets across reads. It is not safe for concurrent use.
type Decoder struct {
	buf []byte
	// resync is set after an overflow; bytes are dropped until a terminator.
	resync bool
}

// Feed appends bytes read from the connection.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes held waiting for a terminator.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Next returns the next complete packet. It returns ErrIncomplete when more
// bytes are needed and an ErrFraming error for a malformed run, in which case
// the bad bytes up to the next terminator have already been discarded and
// Next may be called again.
func (d *Decoder) Next() (Packet, error) {
	idx := bytes.IndexByte(d.buf, Terminator)

	if d.resync {
		if idx < 0 {
			d.buf = d.buf[:0]
			return Packet{}, ErrIncomplete
		}
		d.consume(idx + 1)
		d.resync = false
		idx = bytes.IndexByte(d.buf, Terminator)
	}

	if idx < 0 {
		if len(d.buf) >= MaxPacketSize {
			dropped := len(d.buf)
			d.buf = d.buf[:0]
			d.resync = true
			return Packet{}, fmt.Errorf("%w: %d bytes without terminator", ErrFraming, dropped)
		}
		return Packet{}, ErrIncomplete
	}

	frame := d.buf[:idx+1]
	pkt, err := Decode(frame)
	d.consume(idx + 1)
	if err != nil {
		return Packet{}, err
	}
	return pkt, nil
}

func (d *Decoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}
