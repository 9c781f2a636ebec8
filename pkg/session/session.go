// Package session runs the VISCA protocol over one connection shared by a
// daisy chain of cameras. It serializes writes, tracks command sockets per
// camera and correlates ACK, Completion and Error replies to the requests
// that caused them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/internal/metrics"
	"github.com/benarent/viscago/pkg/transport"
	"github.com/benarent/viscago/pkg/visca"
)

// Policy decides what a command does when every socket is occupied.
type Policy string

// Socket policies.
const (
	PolicyBlock Policy = "block"
	PolicyFail  Policy = "fail"
)

// Defaults.
const (
	DefaultSockets        = 2
	DefaultCommandTimeout = 10 * time.Second
	DefaultInquiryTimeout = 3 * time.Second
	DefaultInquiryRetries = 1
	DefaultCancelTimeout  = 2 * time.Second

	// MaxSockets is the largest socket number a reply nibble can carry.
	MaxSockets = 15
)

// Config tunes the engine.
type Config struct {
	// Sockets is the command socket count assumed for new cameras.
	Sockets      int
	SocketPolicy Policy

	CommandTimeout time.Duration
	InquiryTimeout time.Duration
	// InquiryRetries bounds automatic re-sends of idempotent inquiries after
	// a timeout. Commands are never re-sent.
	InquiryRetries int
	// CancelTimeout is how long a cancelled or timed-out socket stays
	// reserved waiting for the camera to confirm.
	CancelTimeout time.Duration

	Events *events.Bus
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by the CLI when nothing is set.
func DefaultConfig() Config {
	return Config{
		Sockets:        DefaultSockets,
		SocketPolicy:   PolicyBlock,
		CommandTimeout: DefaultCommandTimeout,
		InquiryTimeout: DefaultInquiryTimeout,
		InquiryRetries: DefaultInquiryRetries,
		CancelTimeout:  DefaultCancelTimeout,
	}
}

func (c Config) withDefaults() (Config, error) {
	if c.Sockets == 0 {
		c.Sockets = DefaultSockets
	}
	if c.Sockets < 1 || c.Sockets > MaxSockets {
		return c, fmt.Errorf("sockets %d out of range 1..%d", c.Sockets, MaxSockets)
	}
	switch c.SocketPolicy {
	case "":
		c.SocketPolicy = PolicyBlock
	case PolicyBlock, PolicyFail:
	default:
		return c, fmt.Errorf("unknown socket policy %q", c.SocketPolicy)
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.InquiryTimeout <= 0 {
		c.InquiryTimeout = DefaultInquiryTimeout
	}
	if c.InquiryRetries < 0 {
		c.InquiryRetries = 0
	}
	if c.CancelTimeout <= 0 {
		c.CancelTimeout = DefaultCancelTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.GetLogger("session")
	}
	return c, nil
}

// cameraState is the per-address bookkeeping. Everything except turn is
// guarded by Session.mu.
type cameraState struct {
	address int
	// turn is a one-slot semaphore that keeps transmissions to this camera
	// in issue order.
	turn chan struct{}

	sockets int
	used    int
	freed   chan struct{}

	// queue holds transmitted requests that have not been ACKed (commands)
	// or answered (inquiries), oldest first.
	queue []*request
	slots map[int]*request
}

func newCameraState(address, sockets int) *cameraState {
	return &cameraState{
		address: address,
		turn:    make(chan struct{}, 1),
		sockets: sockets,
		freed:   make(chan struct{}),
		slots:   make(map[int]*request),
	}
}

func (c *cameraState) wake() {
	close(c.freed)
	c.freed = make(chan struct{})
}

func (c *cameraState) removeQueued(req *request) {
	for i, r := range c.queue {
		if r == req {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// Session owns one transport and every camera reachable through it.
type Session struct {
	cfg Config
	tr  transport.Transport
	log *slog.Logger
	bus *events.Bus

	writeMu sync.Mutex

	mu        sync.Mutex
	cameras   map[int]*cameraState
	err       error
	notes     []func()
	addrWait  chan visca.Reply
	clearWait chan visca.Reply

	done       chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once
	closeErr   error
}

// Open starts a session over an already open transport. The session takes
// ownership of tr and closes it on Close or on failure.
func Open(tr transport.Transport, cfg Config) (*Session, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", visca.ErrInvalidOperation, err)
	}
	s := &Session{
		cfg:        cfg,
		tr:         tr,
		log:        cfg.Logger,
		bus:        cfg.Events,
		cameras:    make(map[int]*cameraState),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	go s.readLoop()
	s.log.Debug("Session opened", "transport", tr.String(), "sockets", cfg.Sockets, "policy", cfg.SocketPolicy)
	return s, nil
}

// Dial opens the transport described by tcfg and starts a session on it.
func Dial(ctx context.Context, tcfg transport.Config, cfg Config) (*Session, error) {
	tr, err := transport.Open(ctx, tcfg)
	if err != nil {
		return nil, err
	}
	s, err := Open(tr, cfg)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	return s, nil
}

// Close fails every outstanding request with ErrClosed and releases the
// transport.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		// A lost transport was already closed by fail.
		alreadyFailed := s.Err() != nil
		s.fail(visca.ErrClosed)
		if !alreadyFailed {
			s.closeErr = s.tr.Close()
		}
		<-s.readerDone
		s.log.Debug("Session closed", "transport", s.tr.String())
	})
	return s.closeErr
}

// Done is closed once the session stops, by Close or by transport failure.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns why the session stopped, or nil while it is running.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Transport returns a description of the underlying connection.
func (s *Session) Transport() string { return s.tr.String() }

// AddCamera registers an address without running Address-Set, for cameras
// addressed by other means (IP cameras, pre-addressed chains). Adding a known
// address is a no-op.
func (s *Session) AddCamera(address int) error {
	if address < 1 || address > visca.MaxAddress {
		return fmt.Errorf("%w: camera address %d out of range 1..%d", visca.ErrInvalidOperation, address, visca.MaxAddress)
	}
	s.mu.Lock()
	defer s.unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.cameras[address]; !ok {
		s.cameras[address] = newCameraState(address, s.cfg.Sockets)
		metrics.SetCameras(len(s.cameras))
	}
	return nil
}

// SetSockets changes the socket capacity of a camera. Requests already in
// flight keep their sockets; blocked callers are re-evaluated.
func (s *Session) SetSockets(address, n int) error {
	if n < 1 || n > MaxSockets {
		return fmt.Errorf("%w: sockets %d out of range 1..%d", visca.ErrInvalidOperation, n, MaxSockets)
	}
	s.mu.Lock()
	defer s.unlock()
	cam, ok := s.cameras[address]
	if !ok {
		return fmt.Errorf("%w: camera %d", visca.ErrNotAddressed, address)
	}
	cam.sockets = n
	cam.wake()
	return nil
}

// Cameras lists registered addresses in ascending order.
func (s *Session) Cameras() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.cameras))
	for a := range s.cameras {
		out = append(out, a)
	}
	sort.Ints(out)
	return out
}

// SetAddress broadcasts Address-Set and registers the cameras that answered
// as addresses 1..n. Cameras beyond n are dropped and their requests fail.
func (s *Session) SetAddress(ctx context.Context) (int, error) {
	ch, err := s.await(&s.addrWait)
	if err != nil {
		return 0, err
	}
	defer s.release(&s.addrWait, ch)

	pkt, err := visca.Encode(visca.KindAddressSet, visca.Broadcast, []byte{visca.ClassAddress, 0x01})
	if err != nil {
		return 0, err
	}
	if err := s.write(pkt); err != nil {
		return 0, err
	}

	reply, err := s.waitBroadcast(ctx, ch, "address-set")
	if err != nil {
		return 0, err
	}
	n := reply.Next - 1
	if n < 1 || n > visca.MaxAddress {
		return 0, fmt.Errorf("%w: address-set reply %s", visca.ErrUnexpectedReply, reply.Raw)
	}

	s.mu.Lock()
	for a, cam := range s.cameras {
		if a > n {
			s.failCamera(cam, fmt.Errorf("%w: camera %d left the chain", visca.ErrNotAddressed, a))
			delete(s.cameras, a)
			cam.wake()
		}
	}
	for a := 1; a <= n; a++ {
		if _, ok := s.cameras[a]; !ok {
			s.cameras[a] = newCameraState(a, s.cfg.Sockets)
		}
	}
	metrics.SetCameras(len(s.cameras))
	s.notes = append(s.notes, func() { s.bus.Publish(events.AddressedEvent{Cameras: n}) })
	s.unlock()

	s.log.Info("Cameras addressed", "count", n)
	return n, nil
}

// ClearAll broadcasts IF-Clear, which empties every camera's command
// buffers. All outstanding requests resolve with ErrCancelled.
func (s *Session) ClearAll(ctx context.Context) error {
	ch, err := s.await(&s.clearWait)
	if err != nil {
		return err
	}
	defer s.release(&s.clearWait, ch)

	pkt, err := visca.Encode(visca.KindIFClear, visca.Broadcast, []byte{0x01, 0x00, 0x01})
	if err != nil {
		return err
	}
	if err := s.write(pkt); err != nil {
		return err
	}

	s.mu.Lock()
	for _, cam := range s.cameras {
		s.failCamera(cam, fmt.Errorf("%w: interface cleared", visca.ErrCancelled))
	}
	s.unlock()

	_, err = s.waitBroadcast(ctx, ch, "if-clear")
	return err
}

// await installs a waiter for a broadcast reply.
func (s *Session) await(slot *chan visca.Reply) (chan visca.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if *slot != nil {
		return nil, fmt.Errorf("%w: broadcast already in progress", visca.ErrInvalidOperation)
	}
	ch := make(chan visca.Reply, 1)
	*slot = ch
	return ch, nil
}

func (s *Session) release(slot *chan visca.Reply, ch chan visca.Reply) {
	s.mu.Lock()
	if *slot == ch {
		*slot = nil
	}
	s.mu.Unlock()
}

func (s *Session) waitBroadcast(ctx context.Context, ch chan visca.Reply, what string) (visca.Reply, error) {
	timer := time.NewTimer(s.cfg.CommandTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r, nil
	case <-timer.C:
		return visca.Reply{}, fmt.Errorf("%w: no %s reply", visca.ErrTimeout, what)
	case <-ctx.Done():
		return visca.Reply{}, ctx.Err()
	case <-s.done:
		return visca.Reply{}, s.Err()
	}
}

// unlock releases mu and then runs the callbacks and event publications
// queued while it was held.
func (s *Session) unlock() {
	notes := s.notes
	s.notes = nil
	s.mu.Unlock()
	for _, fn := range notes {
		fn()
	}
}

// write transmits one packet. A write failure is fatal to the session.
func (s *Session) write(p []byte) error {
	s.writeMu.Lock()
	n, err := s.tr.Write(p)
	s.writeMu.Unlock()
	if err == nil && n != len(p) {
		err = fmt.Errorf("%w: short write %d of %d bytes", visca.ErrTransport, n, len(p))
	}
	if err != nil {
		s.fail(err)
		return s.Err()
	}
	metrics.AddBytesWritten(n)
	s.log.Debug("Sent packet", "packet", fmt.Sprintf("% X", p))
	return nil
}

// fail stops the session and resolves every outstanding request with err.
// Only the first call has any effect.
func (s *Session) fail(err error) {
	if !errors.Is(err, visca.ErrTransport) && !errors.Is(err, visca.ErrClosed) {
		err = fmt.Errorf("%w: %v", visca.ErrTransport, err)
	}

	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = err
	close(s.done)
	for _, cam := range s.cameras {
		s.failCamera(cam, err)
		metrics.SetSocketsInUse(cam.address, 0)
	}
	lost := !errors.Is(err, visca.ErrClosed)
	if lost {
		ev := events.TransportLostEvent{Transport: s.tr.String(), Err: err}
		s.notes = append(s.notes, func() { s.bus.Publish(ev) })
	}
	s.unlock()

	if lost {
		s.log.Error("Transport lost", "transport", s.tr.String(), "error", err)
		_ = s.tr.Close()
	}
}

// failCamera resolves and drops every request tracked for cam.
func (s *Session) failCamera(cam *cameraState, err error) {
	var all []*request
	all = append(all, cam.queue...)
	for _, r := range cam.slots {
		all = append(all, r)
	}
	for _, r := range all {
		s.detach(r)
		s.resolve(r, visca.Reply{}, err)
	}
}
