package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/benarent/viscago/pkg/visca"
)

// StreamConn carries raw VISCA bytes over a stream connection, as serial to
// Ethernet bridges and some PTZ cameras expose on TCP.
type StreamConn struct {
	conn        net.Conn
	readTimeout time.Duration
}

// NewStreamConn wraps an established connection.
func NewStreamConn(conn net.Conn, readTimeout time.Duration) *StreamConn {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &StreamConn{conn: conn, readTimeout: readTimeout}
}

func dialTCP(ctx context.Context, cfg Config) (Transport, error) {
	addr, err := withPort(cfg.Endpoint, DefaultTCPPort)
	if err != nil {
		return nil, err
	}
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", visca.ErrTransport, addr, err)
	}
	return NewStreamConn(conn, cfg.ReadTimeout), nil
}

func (c *StreamConn) Read(p []byte) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return 0, wrap("read", c, err)
	}
	n, err := c.conn.Read(p)
	if err != nil {
		if isTimeout(err) {
			return n, nil
		}
		return n, wrap("read", c, err)
	}
	return n, nil
}

func (c *StreamConn) Write(p []byte) (int, error) {
	n, err := c.conn.Write(p)
	if err != nil {
		return n, wrap("write", c, err)
	}
	return n, nil
}

func (c *StreamConn) Close() error { return c.conn.Close() }

func (c *StreamConn) String() string { return "tcp:" + c.conn.RemoteAddr().String() }
