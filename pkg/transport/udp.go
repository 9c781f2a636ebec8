package transport

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/pkg/visca"
)

// VISCA-over-IP payload types.
const (
	PayloadCommand      uint16 = 0x0100
	PayloadInquiry      uint16 = 0x0110
	PayloadReply        uint16 = 0x0111
	PayloadControl      uint16 = 0x0200
	PayloadControlReply uint16 = 0x0201

	ipHeaderLen = 8
	// controlReset asks the camera to reset its expected sequence number.
	controlReset byte = 0x01
)

// IPHeader is the 8-byte VISCA-over-IP message header.
type IPHeader struct {
	Type     uint16
	Length   uint16
	Sequence uint32
}

// AppendIPMessage appends a framed VISCA-over-IP message to dst.
func AppendIPMessage(dst []byte, typ uint16, seq uint32, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, typ)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(payload)))
	dst = binary.BigEndian.AppendUint32(dst, seq)
	return append(dst, payload...)
}

// ParseIPMessage splits a datagram into header and payload.
func ParseIPMessage(b []byte) (IPHeader, []byte, error) {
	if len(b) < ipHeaderLen {
		return IPHeader{}, nil, fmt.Errorf("%w: datagram of %d bytes", visca.ErrFraming, len(b))
	}
	h := IPHeader{
		Type:     binary.BigEndian.Uint16(b[0:2]),
		Length:   binary.BigEndian.Uint16(b[2:4]),
		Sequence: binary.BigEndian.Uint32(b[4:8]),
	}
	payload := b[ipHeaderLen:]
	if int(h.Length) != len(payload) {
		return h, nil, fmt.Errorf("%w: header length %d, payload %d", visca.ErrFraming, h.Length, len(payload))
	}
	return h, payload, nil
}

// IPConn speaks Sony VISCA-over-IP: one VISCA packet per datagram behind an
// 8-byte header. Write expects whole packets, which the session guarantees.
type IPConn struct {
	conn        net.Conn
	readTimeout time.Duration
	logger      *slog.Logger

	writeMu sync.Mutex
	seq     uint32

	buf     []byte
	pending []byte
}

// NewIPConn wraps a connected datagram socket.
func NewIPConn(conn net.Conn, readTimeout time.Duration) *IPConn {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &IPConn{
		conn:        conn,
		readTimeout: readTimeout,
		logger:      logging.GetLogger("transport"),
		buf:         make([]byte, 1500),
	}
}

func dialUDP(ctx context.Context, cfg Config) (Transport, error) {
	addr, err := withPort(cfg.Endpoint, DefaultUDPPort)
	if err != nil {
		return nil, err
	}
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", visca.ErrTransport, addr, err)
	}
	c := NewIPConn(conn, cfg.ReadTimeout)
	if err := c.ResetSequence(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// ResetSequence sends the control reset and restarts numbering at zero.
// The camera's control reply is consumed by Read.
func (c *IPConn) ResetSequence() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg := AppendIPMessage(nil, PayloadControl, c.seq, []byte{controlReset})
	if _, err := c.conn.Write(msg); err != nil {
		return wrap("reset", c, err)
	}
	c.seq = 0
	return nil
}

func (c *IPConn) Write(p []byte) (int, error) {
	typ := PayloadCommand
	if len(p) > 1 && p[1] == visca.ClassInquiry {
		typ = PayloadInquiry
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg := AppendIPMessage(make([]byte, 0, ipHeaderLen+len(p)), typ, c.seq, p)
	if _, err := c.conn.Write(msg); err != nil {
		return 0, wrap("write", c, err)
	}
	c.seq++
	return len(p), nil
}

func (c *IPConn) Read(p []byte) (int, error) {
	if len(c.pending) > 0 {
		n := copy(p, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return 0, wrap("read", c, err)
	}
	n, err := c.conn.Read(c.buf)
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		return 0, wrap("read", c, err)
	}

	h, payload, err := ParseIPMessage(c.buf[:n])
	if err != nil {
		c.logger.Warn("Dropping datagram", "error", err, "packet", hex.EncodeToString(c.buf[:n]))
		return 0, nil
	}
	switch h.Type {
	case PayloadReply:
		n := copy(p, payload)
		c.pending = append(c.pending[:0], payload[n:]...)
		return n, nil
	case PayloadControlReply:
		c.logger.Debug("Control reply", "sequence", h.Sequence, "payload", hex.EncodeToString(payload))
		return 0, nil
	default:
		c.logger.Warn("Dropping datagram", "type", fmt.Sprintf("0x%04X", h.Type), "sequence", h.Sequence)
		return 0, nil
	}
}

func (c *IPConn) Close() error { return c.conn.Close() }

func (c *IPConn) String() string { return "udp:" + c.conn.RemoteAddr().String() }
