// Package simcam is an in-process VISCA daisy chain. It implements
// transport.Transport so the session engine, the camera API and the CLI can
// run without hardware, and registers itself as the "sim" transport kind.
package simcam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/pkg/transport"
	"github.com/benarent/viscago/pkg/visca"
)

// Kind is the transport kind served by this package.
const Kind transport.Kind = "sim"

// Identity reported by DeviceInfoInq.
const (
	VendorSony    = 0x0020
	DefaultModel  = 0x0402
	DefaultROM    = 0x0100
	DefaultCount  = 1
	DefaultSocket = 2
)

func init() {
	transport.Register(Kind, open)
}

// open builds a chain from a transport config. Endpoint holds the camera
// count; an empty endpoint means one camera.
func open(_ context.Context, cfg transport.Config) (transport.Transport, error) {
	n := DefaultCount
	if cfg.Endpoint != "" {
		v, err := strconv.Atoi(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: sim endpoint %q is not a camera count", visca.ErrTransport, cfg.Endpoint)
		}
		n = v
	}
	return New(Config{Cameras: n, ReadTimeout: cfg.ReadTimeout})
}

// Config shapes the simulated chain.
type Config struct {
	Cameras int
	Sockets int
	// Unaddressed cameras ignore everything but broadcasts until an
	// Address-Set assigns them addresses.
	Unaddressed bool
	// CompletionDelay separates a command's ACK from its Completion.
	CompletionDelay time.Duration
	ReadTimeout     time.Duration
	Model           int
}

// Chain is a simulated daisy chain of cameras behind one port.
type Chain struct {
	cfg Config
	log *slog.Logger

	mu      sync.Mutex
	dec     visca.Decoder
	cams    []*Camera
	out     []byte
	ready   chan struct{}
	closed  bool
	written [][]byte
}

// New creates a chain.
func New(cfg Config) (*Chain, error) {
	if cfg.Cameras < 1 || cfg.Cameras > visca.MaxAddress {
		return nil, fmt.Errorf("%w: sim chain of %d cameras", visca.ErrTransport, cfg.Cameras)
	}
	if cfg.Sockets == 0 {
		cfg.Sockets = DefaultSocket
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = transport.DefaultReadTimeout
	}
	if cfg.Model == 0 {
		cfg.Model = DefaultModel
	}
	c := &Chain{
		cfg:   cfg,
		log:   logging.GetLogger("simcam"),
		ready: make(chan struct{}),
	}
	for i := 0; i < cfg.Cameras; i++ {
		cam := newCamera(c, cfg.Sockets)
		if !cfg.Unaddressed {
			cam.address = i + 1
		}
		c.cams = append(c.cams, cam)
	}
	return c, nil
}

// Camera returns the simulated camera at chain position i (0-based).
func (c *Chain) Camera(i int) *Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cams[i]
}

// Written returns every packet the controller has sent, in order.
func (c *Chain) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

// Inject queues raw bytes as if a camera had sent them.
func (c *Chain) Inject(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(b)
}

// Read returns reply bytes, or (0, nil) after the read timeout.
func (c *Chain) Read(p []byte) (int, error) {
	timer := time.NewTimer(c.cfg.ReadTimeout)
	defer timer.Stop()
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return 0, fmt.Errorf("%w: sim chain closed", visca.ErrTransport)
		}
		if len(c.out) > 0 {
			n := copy(p, c.out)
			c.out = c.out[n:]
			c.mu.Unlock()
			return n, nil
		}
		ready := c.ready
		c.mu.Unlock()

		select {
		case <-ready:
		case <-timer.C:
			return 0, nil
		}
	}
}

// Write feeds controller bytes into the chain.
func (c *Chain) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, fmt.Errorf("%w: sim chain closed", visca.ErrTransport)
	}
	c.dec.Feed(p)
	for {
		pkt, err := c.dec.Next()
		if errors.Is(err, visca.ErrIncomplete) {
			break
		}
		if err != nil {
			c.log.Debug("Dropping malformed packet", "error", err)
			continue
		}
		c.written = append(c.written, pkt.Bytes())
		c.route(pkt)
	}
	return len(p), nil
}

// Close stops the chain; pending completions are dropped.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, cam := range c.cams {
		cam.stopAll()
	}
	close(c.ready)
	return nil
}

func (c *Chain) String() string {
	return fmt.Sprintf("sim:%d", len(c.cams))
}

// emit queues reply bytes for Read. Called with mu held.
func (c *Chain) emit(b []byte) {
	if c.closed {
		return
	}
	c.out = append(c.out, b...)
	close(c.ready)
	c.ready = make(chan struct{})
}

func (c *Chain) reply(address int, payload ...byte) {
	b := make([]byte, 0, len(payload)+2)
	b = append(b, visca.ReplyHeader(address))
	b = append(b, payload...)
	c.emit(append(b, visca.Terminator))
}

// route delivers a controller packet the way a physical chain would.
// Called with mu held.
func (c *Chain) route(pkt visca.Packet) {
	switch pkt.Kind() {
	case visca.KindAddressSet:
		next := int(pkt.Payload[1] & 0x0F)
		for _, cam := range c.cams {
			cam.address = next
			next++
		}
		c.emit([]byte{0x88, visca.ClassAddress, byte(next), visca.Terminator})
		return
	case visca.KindIFClear:
		if pkt.IsBroadcast() {
			for _, cam := range c.cams {
				cam.stopAll()
			}
			c.emit([]byte{0x88, 0x01, 0x00, 0x01, visca.Terminator})
			return
		}
	}

	for _, cam := range c.cams {
		if cam.address != 0 && cam.address == pkt.Receiver() {
			cam.handle(pkt)
			return
		}
	}
	c.log.Debug("No camera at address", "address", pkt.Receiver(), "packet", pkt.String())
}
