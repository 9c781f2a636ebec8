// Package transport opens the byte streams a VISCA session runs over:
// RS-232 serial ports, raw TCP and Sony VISCA-over-IP (UDP).
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/benarent/viscago/pkg/visca"
)

// Kind selects a transport implementation.
type Kind string

// Built-in transport kinds.
const (
	KindSerial Kind = "serial"
	KindTarm   Kind = "tarm"
	KindTCP    Kind = "tcp"
	KindUDP    Kind = "udp"
)

// Defaults for the VISCA physical layers.
const (
	DefaultBaud        = 9600
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultDialTimeout = 5 * time.Second
	DefaultTCPPort     = 5678
	DefaultUDPPort     = 52381
)

// Transport is an open connection to a camera bus.
//
// Read returns (0, nil) when the read timeout elapses with no data so the
// caller can poll for shutdown. Every I/O failure wraps visca.ErrTransport.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	String() string
}

// Config describes how to reach the cameras.
type Config struct {
	Kind Kind
	// Port is the serial device path (serial and tarm kinds).
	Port string
	Baud int
	// Endpoint is host[:port] for the network kinds.
	Endpoint    string
	ReadTimeout time.Duration
	DialTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	return c
}

// Opener opens a transport of one kind.
type Opener func(ctx context.Context, cfg Config) (Transport, error)

var (
	openersMu sync.RWMutex
	openers   = map[Kind]Opener{
		KindSerial: openSerial,
		KindTarm:   openTarm,
		KindTCP:    dialTCP,
		KindUDP:    dialUDP,
	}
)

// Register adds or replaces the opener for kind.
func Register(kind Kind, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[kind] = open
}

// Kinds lists the registered transport kinds in sorted order.
func Kinds() []Kind {
	openersMu.RLock()
	defer openersMu.RUnlock()
	out := make([]Kind, 0, len(openers))
	for k := range openers {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Open opens the transport described by cfg.
func Open(ctx context.Context, cfg Config) (Transport, error) {
	cfg = cfg.withDefaults()
	openersMu.RLock()
	open, ok := openers[cfg.Kind]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown transport kind %q", visca.ErrTransport, cfg.Kind)
	}
	return open(ctx, cfg)
}

// withPort appends the default port when endpoint has none.
func withPort(endpoint string, port int) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%w: missing endpoint", visca.ErrTransport)
	}
	if _, _, err := net.SplitHostPort(endpoint); err == nil {
		return endpoint, nil
	}
	return net.JoinHostPort(endpoint, strconv.Itoa(port)), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())
}

func wrap(op string, t Transport, err error) error {
	return fmt.Errorf("%w: %s %s: %v", visca.ErrTransport, op, t, err)
}
