package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/visca"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLink is a scripted transport: tests push reply bytes and inspect
// what the engine wrote.
type fakeLink struct {
	in     chan []byte
	writes chan []byte

	mu        sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		in:     make(chan []byte, 64),
		writes: make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (l *fakeLink) Read(p []byte) (int, error) {
	select {
	case b := <-l.in:
		return copy(p, b), nil
	case <-l.closed:
		return 0, fmt.Errorf("%w: link closed", visca.ErrTransport)
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (l *fakeLink) Write(p []byte) (int, error) {
	select {
	case <-l.closed:
		return 0, fmt.Errorf("%w: link closed", visca.ErrTransport)
	default:
	}
	l.writes <- append([]byte(nil), p...)
	return len(p), nil
}

func (l *fakeLink) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *fakeLink) String() string { return "fake" }

func (l *fakeLink) reply(b ...byte) { l.in <- b }

func (l *fakeLink) nextWrite(t *testing.T) []byte {
	t.Helper()
	select {
	case b := <-l.writes:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a write")
		return nil
	}
}

func (l *fakeLink) expectWrite(t *testing.T, want ...byte) {
	t.Helper()
	if got := l.nextWrite(t); !bytes.Equal(got, want) {
		t.Fatalf("wrote % X, want % X", got, want)
	}
}

func (l *fakeLink) expectNoWrite(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case b := <-l.writes:
		t.Fatalf("unexpected write % X", b)
	case <-time.After(within):
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func waitHandle(t *testing.T, h *Handle) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("handle for %s did not resolve", h.Operation())
	}
	return err
}

func newTestSession(t *testing.T, cfg Config, cameras ...int) (*Session, *fakeLink) {
	t.Helper()
	link := newFakeLink()
	cfg.Logger = testLogger()
	s, err := Open(link, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	for _, a := range cameras {
		if err := s.AddCamera(a); err != nil {
			t.Fatal(err)
		}
	}
	return s, link
}

func TestCommandAckThenCompletion(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)

	h, err := s.SendCommand(context.Background(), 1, catalog.PanTiltAbsolute, []int{0x18, 0x14, 100, 200})
	if err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	link.expectWrite(t, 0x81, 0x01, 0x06, 0x02, 0x18, 0x14, 0x00, 0x00, 0x06, 0x04, 0x00, 0x00, 0x0C, 0x08, 0xFF)
	if h.State() != StateSent {
		t.Errorf("State() = %s, want sent", h.State())
	}

	link.reply(0x90, 0x41, 0xFF)
	waitFor(t, func() bool { return h.State() == StateAwaitingCompletion }, "ack")
	if h.Socket() != 1 {
		t.Errorf("Socket() = %d, want 1", h.Socket())
	}

	link.reply(0x90, 0x51, 0xFF)
	if err := waitHandle(t, h); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if h.State() != StateCompleted || h.Camera() != 1 || h.Operation() != catalog.PanTiltAbsolute {
		t.Errorf("handle = %s cam %d op %s", h.State(), h.Camera(), h.Operation())
	}
}

func TestSplitReplyBytes(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)

	h, err := s.SendCommand(context.Background(), 1, catalog.PanTiltHome, nil)
	if err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)
	link.reply(0x90)
	link.reply(0x41, 0xFF, 0x90)
	link.reply(0x51, 0xFF)
	if err := waitHandle(t, h); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestInquiryRetriedAfterTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InquiryTimeout = 50 * time.Millisecond
	cfg.InquiryRetries = 1
	s, link := newTestSession(t, cfg, 1)

	type result struct {
		res catalog.Result
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := s.SendInquiry(context.Background(), 1, catalog.ZoomPositionInq)
		done <- result{res, err}
	}()

	link.expectWrite(t, 0x81, 0x09, 0x04, 0x47, 0xFF)
	// No answer: the engine re-sends once.
	link.expectWrite(t, 0x81, 0x09, 0x04, 0x47, 0xFF)
	link.reply(0x90, 0x50, 0x01, 0x02, 0x03, 0x04, 0xFF)

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("SendInquiry() error = %v", r.err)
		}
		if got := r.res.Int("zoom"); got != 0x1234 {
			t.Errorf("zoom = %#x, want 0x1234", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inquiry did not return")
	}
}

func TestInquiryTimeoutWithoutRetries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InquiryTimeout = 30 * time.Millisecond
	cfg.InquiryRetries = 0
	s, link := newTestSession(t, cfg, 1)

	start := time.Now()
	_, err := s.SendInquiry(context.Background(), 1, catalog.PowerInq)
	if !errors.Is(err, visca.ErrTimeout) {
		t.Fatalf("SendInquiry() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took %s", time.Since(start))
	}
	link.nextWrite(t)
	link.expectNoWrite(t, 60*time.Millisecond)
}

func TestCommandsAreNeverRetried(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommandTimeout = 30 * time.Millisecond
	cfg.InquiryRetries = 3
	s, link := newTestSession(t, cfg, 1)

	h, err := s.SendCommand(context.Background(), 1, catalog.PanTiltRelative, []int{1, 1, 10, 0})
	if err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)
	if err := waitHandle(t, h); !errors.Is(err, visca.ErrTimeout) {
		t.Fatalf("Wait() error = %v, want ErrTimeout", err)
	}
	link.expectNoWrite(t, 60*time.Millisecond)
}

func TestThirdCommandBlocksUntilSocketFrees(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)
	ctx := context.Background()

	h1, err := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendCommand(ctx, 1, catalog.FocusFar, nil); err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)
	link.nextWrite(t)
	link.reply(0x90, 0x41, 0xFF)
	link.reply(0x90, 0x42, 0xFF)

	third := make(chan error, 1)
	go func() {
		_, err := s.SendCommand(ctx, 1, catalog.PanTiltHome, nil)
		third <- err
	}()

	select {
	case err := <-third:
		t.Fatalf("third command returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	link.expectNoWrite(t, 0)

	link.reply(0x90, 0x51, 0xFF)
	if err := waitHandle(t, h1); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-third:
		if err != nil {
			t.Fatalf("third command error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("third command still blocked")
	}
	link.expectWrite(t, 0x81, 0x01, 0x06, 0x04, 0xFF)
}

func TestBlockedCommandHonoursContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sockets = 1
	s, link := newTestSession(t, cfg, 1)

	if _, err := s.SendCommand(context.Background(), 1, catalog.ZoomTele, nil); err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := s.SendCommand(ctx, 1, catalog.ZoomStop, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("SendCommand() error = %v, want DeadlineExceeded", err)
	}
	link.expectNoWrite(t, 20*time.Millisecond)
}

func TestFailPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SocketPolicy = PolicyFail
	s, link := newTestSession(t, cfg, 1)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.SendCommand(ctx, 1, catalog.ZoomTele, nil); err != nil {
			t.Fatal(err)
		}
		link.nextWrite(t)
	}
	if _, err := s.SendCommand(ctx, 1, catalog.ZoomStop, nil); !errors.Is(err, visca.ErrSocketsExhausted) {
		t.Fatalf("SendCommand() error = %v, want ErrSocketsExhausted", err)
	}
	link.expectNoWrite(t, 20*time.Millisecond)
}

func TestCamerasAreIndependent(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1, 2)
	if err := s.SetSockets(1, 1); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := s.SendCommand(ctx, 1, catalog.ZoomTele, nil); err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)

	blocked := make(chan struct{})
	go func() {
		defer close(blocked)
		_, _ = s.SendCommand(ctx, 1, catalog.ZoomStop, nil)
	}()

	done := make(chan error, 1)
	go func() {
		_, err := s.SendCommand(ctx, 2, catalog.ZoomTele, nil)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("camera 2 blocked behind camera 1")
	}
	link.expectWrite(t, 0x82, 0x01, 0x04, 0x07, 0x02, 0xFF)

	_ = s.Close()
	<-blocked
}

func TestUnmatchedReplyDiscarded(t *testing.T) {
	bus := events.New()
	discarded := make(chan events.ReplyDiscardedEvent, 4)
	defer bus.Subscribe(func(e events.ReplyDiscardedEvent) { discarded <- e })()

	cfg := DefaultConfig()
	cfg.Events = bus
	s, link := newTestSession(t, cfg, 1)

	h, err := s.SendCommand(context.Background(), 1, catalog.ZoomTele, nil)
	if err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)
	link.reply(0x90, 0x41, 0xFF)
	waitFor(t, func() bool { return h.Socket() == 1 }, "ack")

	// Completion for a socket nobody holds.
	link.reply(0x90, 0x52, 0xFF)
	select {
	case e := <-discarded:
		if e.Reason != ReasonUnmatchedComplete || e.Camera != 1 || e.Socket != 2 {
			t.Errorf("discard event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no discard event")
	}
	if h.State() != StateAwaitingCompletion {
		t.Errorf("pending request disturbed: %s", h.State())
	}

	link.reply(0x90, 0x51, 0xFF)
	if err := waitHandle(t, h); err != nil {
		t.Fatal(err)
	}
}

func TestDuplicateAckDoesNotOverwriteSocket(t *testing.T) {
	bus := events.New()
	discarded := make(chan events.ReplyDiscardedEvent, 4)
	defer bus.Subscribe(func(e events.ReplyDiscardedEvent) { discarded <- e })()

	cfg := DefaultConfig()
	cfg.Events = bus
	s, link := newTestSession(t, cfg, 1)
	ctx := context.Background()

	h1, _ := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
	h2, _ := s.SendCommand(ctx, 1, catalog.FocusFar, nil)
	link.nextWrite(t)
	link.nextWrite(t)

	link.reply(0x90, 0x41, 0xFF)
	link.reply(0x90, 0x41, 0xFF)
	select {
	case e := <-discarded:
		if e.Reason != ReasonDuplicateAck {
			t.Errorf("reason = %s", e.Reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("duplicate ack not reported")
	}
	if h1.Socket() != 1 || h2.Socket() != 0 {
		t.Errorf("sockets = %d, %d; want 1, 0", h1.Socket(), h2.Socket())
	}

	link.reply(0x90, 0x42, 0xFF)
	waitFor(t, func() bool { return h2.Socket() == 2 }, "second ack")
}

func TestDeviceError(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)

	h, err := s.SendCommand(context.Background(), 1, catalog.FocusOnePush, nil)
	if err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)
	link.reply(0x90, 0x41, 0xFF)
	link.reply(0x90, 0x61, 0x41, 0xFF)

	err = waitHandle(t, h)
	var devErr *visca.DeviceError
	if !errors.As(err, &devErr) || devErr.Code != visca.CodeNotExecutable || devErr.Socket != 1 {
		t.Fatalf("Wait() error = %v, want not-executable on socket 1", err)
	}
	if h.State() != StateFailed {
		t.Errorf("State() = %s, want failed", h.State())
	}
}

func TestErrorBeforeAckReleasesSocket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sockets = 1
	cfg.SocketPolicy = PolicyFail
	s, link := newTestSession(t, cfg, 1)
	ctx := context.Background()

	h, _ := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
	link.nextWrite(t)
	link.reply(0x90, 0x60, 0x03, 0xFF)

	if err := waitHandle(t, h); !errors.Is(err, visca.ErrDevice) {
		t.Fatalf("Wait() error = %v, want ErrDevice", err)
	}
	if _, err := s.SendCommand(ctx, 1, catalog.ZoomStop, nil); err != nil {
		t.Fatalf("socket not released: %v", err)
	}
}

func TestCancelAfterAck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sockets = 1
	cfg.SocketPolicy = PolicyFail
	s, link := newTestSession(t, cfg, 1)
	ctx := context.Background()

	h, _ := s.SendCommand(ctx, 1, catalog.PanTiltAbsolute, []int{1, 1, 500, 0})
	link.nextWrite(t)
	link.reply(0x90, 0x41, 0xFF)
	waitFor(t, func() bool { return h.Socket() == 1 }, "ack")

	if err := s.Cancel(h); err != nil {
		t.Fatal(err)
	}
	if err := h.Err(); !errors.Is(err, visca.ErrCancelled) {
		t.Fatalf("Err() = %v, want ErrCancelled", err)
	}
	if h.State() != StateCancelled {
		t.Errorf("State() = %s", h.State())
	}
	link.expectWrite(t, 0x81, 0x21, 0xFF)

	// The socket stays reserved until the camera confirms.
	if _, err := s.SendCommand(ctx, 1, catalog.ZoomStop, nil); !errors.Is(err, visca.ErrSocketsExhausted) {
		t.Fatalf("socket released before confirmation: %v", err)
	}

	// A completion that raced the cancel is swallowed.
	link.reply(0x90, 0x51, 0xFF)
	link.reply(0x90, 0x61, 0x05, 0xFF)
	waitFor(t, func() bool {
		_, err := s.SendCommand(ctx, 1, catalog.ZoomStop, nil)
		return err == nil
	}, "socket release")
}

func TestCancelBeforeAck(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 3)

	h, _ := s.SendCommand(context.Background(), 3, catalog.ZoomWide, nil)
	link.nextWrite(t)

	if err := s.Cancel(h); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(h.Err(), visca.ErrCancelled) {
		t.Fatalf("Err() = %v", h.Err())
	}
	link.expectNoWrite(t, 20*time.Millisecond)

	link.reply(0xB0, 0x42, 0xFF)
	link.expectWrite(t, 0x83, 0x22, 0xFF)
	link.reply(0xB0, 0x62, 0x04, 0xFF)

	// Cancelling again is a no-op.
	if err := s.Cancel(h); err != nil {
		t.Fatal(err)
	}
}

func TestLateAckAfterTimeoutIsAbsorbed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommandTimeout = 30 * time.Millisecond
	cfg.CancelTimeout = time.Second
	s, link := newTestSession(t, cfg, 1)
	ctx := context.Background()

	h1, _ := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
	link.nextWrite(t)
	if err := waitHandle(t, h1); !errors.Is(err, visca.ErrTimeout) {
		t.Fatalf("Wait() error = %v, want ErrTimeout", err)
	}

	h2, _ := s.SendCommand(ctx, 1, catalog.FocusFar, nil, WithTimeout(time.Second))
	link.nextWrite(t)

	// The first ACK belongs to the timed-out command.
	link.reply(0x90, 0x41, 0xFF)
	link.reply(0x90, 0x42, 0xFF)
	waitFor(t, func() bool { return h2.Socket() != 0 }, "second ack")
	if h2.Socket() != 2 {
		t.Errorf("Socket() = %d, want 2", h2.Socket())
	}
}

func TestAbandonedInquiryReplyIsAbsorbed(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := s.SendInquiry(ctx, 1, catalog.FocusPositionInq)
		errc <- err
	}()
	link.nextWrite(t)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("SendInquiry() error = %v", err)
	}

	resc := make(chan catalog.Result, 1)
	go func() {
		res, _ := s.SendInquiry(context.Background(), 1, catalog.PowerInq)
		resc <- res
	}()
	link.nextWrite(t)

	link.reply(0x90, 0x50, 0x01, 0x02, 0x03, 0x04, 0xFF)
	link.reply(0x90, 0x50, 0x02, 0xFF)
	select {
	case res := <-resc:
		if res.Int("power") != 2 {
			t.Errorf("power = %d, want 2", res.Int("power"))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second inquiry got no answer")
	}
}

func TestRetriedInquiryAbsorbsBothAnswers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InquiryTimeout = 100 * time.Millisecond
	cfg.InquiryRetries = 1
	s, link := newTestSession(t, cfg, 1)

	type result struct {
		res catalog.Result
		err error
	}
	zoomc := make(chan result, 1)
	go func() {
		res, err := s.SendInquiry(context.Background(), 1, catalog.ZoomPositionInq)
		zoomc <- result{res, err}
	}()
	link.expectWrite(t, 0x81, 0x09, 0x04, 0x47, 0xFF)
	link.expectWrite(t, 0x81, 0x09, 0x04, 0x47, 0xFF)

	focusc := make(chan result, 1)
	go func() {
		res, err := s.SendInquiry(context.Background(), 1, catalog.FocusPositionInq)
		focusc <- result{res, err}
	}()
	link.expectWrite(t, 0x81, 0x09, 0x04, 0x48, 0xFF)

	// The first transmission was only slow: both copies get answered.
	link.reply(0x90, 0x50, 0x01, 0x02, 0x03, 0x04, 0xFF)
	link.reply(0x90, 0x50, 0x01, 0x02, 0x03, 0x04, 0xFF)
	link.reply(0x90, 0x50, 0x0A, 0x0B, 0x0C, 0x0D, 0xFF)

	for name, tc := range map[string]struct {
		c     chan result
		field string
		want  int
	}{
		"zoom":  {zoomc, "zoom", 0x1234},
		"focus": {focusc, "focus", 0xABCD},
	} {
		select {
		case r := <-tc.c:
			if r.err != nil {
				t.Fatalf("%s inquiry error = %v", name, r.err)
			}
			if got := r.res.Int(tc.field); got != tc.want {
				t.Errorf("%s = %#x, want %#x", name, got, tc.want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s inquiry did not return", name)
		}
	}
}

func TestRetryTombstoneExpires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InquiryTimeout = 40 * time.Millisecond
	cfg.InquiryRetries = 1
	cfg.CancelTimeout = 50 * time.Millisecond
	s, link := newTestSession(t, cfg, 1)

	errc := make(chan error, 1)
	go func() {
		_, err := s.SendInquiry(context.Background(), 1, catalog.PowerInq)
		errc <- err
	}()
	link.nextWrite(t)
	link.nextWrite(t)
	// Only the retry is answered; the first copy was lost.
	link.reply(0x90, 0x50, 0x02, 0xFF)
	if err := <-errc; err != nil {
		t.Fatalf("SendInquiry() error = %v", err)
	}

	waitFor(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.cameras[1].queue) == 0
	}, "tombstone purge")

	resc := make(chan catalog.Result, 1)
	go func() {
		res, _ := s.SendInquiry(context.Background(), 1, catalog.PowerInq)
		resc <- res
	}()
	link.nextWrite(t)
	link.reply(0x90, 0x50, 0x03, 0xFF)
	select {
	case res := <-resc:
		if res.Int("power") != 3 {
			t.Errorf("power = %d, want 3", res.Int("power"))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("inquiry after purge got no answer")
	}
}

func TestRecoversAfterFramingError(t *testing.T) {
	bus := events.New()
	discarded := make(chan string, 4)
	defer bus.Subscribe(func(e events.ReplyDiscardedEvent) { discarded <- e.Reason })()

	cfg := DefaultConfig()
	cfg.Events = bus
	s, link := newTestSession(t, cfg, 1)

	h, err := s.SendCommand(context.Background(), 1, catalog.PowerOn, nil)
	if err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)

	link.reply(0x00, 0x12, 0xFF)
	link.reply(0x90, 0x41, 0xFF, 0x90, 0x51, 0xFF)
	if err := waitHandle(t, h); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	select {
	case reason := <-discarded:
		if reason != ReasonFraming {
			t.Errorf("discard reason = %q, want %q", reason, ReasonFraming)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("framing error was not reported")
	}
}

func TestCallback(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)

	got := make(chan error, 1)
	_, err := s.SendCommand(context.Background(), 1, catalog.PowerOn, nil, WithCallback(func(err error) { got <- err }))
	if err != nil {
		t.Fatal(err)
	}
	link.nextWrite(t)
	link.reply(0x90, 0x41, 0xFF)
	link.reply(0x90, 0x51, 0xFF)

	select {
	case err := <-got:
		if err != nil {
			t.Errorf("callback error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestTransportLoss(t *testing.T) {
	bus := events.New()
	lost := make(chan events.TransportLostEvent, 1)
	defer bus.Subscribe(func(e events.TransportLostEvent) { lost <- e })()

	cfg := DefaultConfig()
	cfg.Events = bus
	s, link := newTestSession(t, cfg, 1)

	h, _ := s.SendCommand(context.Background(), 1, catalog.ZoomTele, nil)
	link.nextWrite(t)
	_ = link.Close()

	if err := waitHandle(t, h); !errors.Is(err, visca.ErrTransport) {
		t.Fatalf("Wait() error = %v, want ErrTransport", err)
	}
	select {
	case <-lost:
	case <-time.After(2 * time.Second):
		t.Fatal("no transport lost event")
	}
	if _, err := s.SendCommand(context.Background(), 1, catalog.ZoomStop, nil); !errors.Is(err, visca.ErrTransport) {
		t.Errorf("SendCommand() after loss error = %v", err)
	}
	<-s.Done()
}

func TestClose(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)

	h, _ := s.SendCommand(context.Background(), 1, catalog.ZoomTele, nil)
	link.nextWrite(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := waitHandle(t, h); !errors.Is(err, visca.ErrClosed) {
		t.Fatalf("Wait() error = %v, want ErrClosed", err)
	}
	if _, err := s.SendCommand(context.Background(), 1, catalog.ZoomStop, nil); !errors.Is(err, visca.ErrClosed) {
		t.Errorf("SendCommand() after Close error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSetAddress(t *testing.T) {
	bus := events.New()
	addressed := make(chan events.AddressedEvent, 1)
	defer bus.Subscribe(func(e events.AddressedEvent) { addressed <- e })()

	cfg := DefaultConfig()
	cfg.Events = bus
	s, link := newTestSession(t, cfg)

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := s.SetAddress(context.Background())
		done <- result{n, err}
	}()
	link.expectWrite(t, 0x88, 0x30, 0x01, 0xFF)
	link.reply(0x88, 0x30, 0x03, 0xFF)

	r := <-done
	if r.err != nil || r.n != 2 {
		t.Fatalf("SetAddress() = %d, %v; want 2", r.n, r.err)
	}
	if got := s.Cameras(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Cameras() = %v", got)
	}
	select {
	case e := <-addressed:
		if e.Cameras != 2 {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no addressed event")
	}
}

func TestSetAddressTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommandTimeout = 30 * time.Millisecond
	s, _ := newTestSession(t, cfg)
	if _, err := s.SetAddress(context.Background()); !errors.Is(err, visca.ErrTimeout) {
		t.Fatalf("SetAddress() error = %v, want ErrTimeout", err)
	}
}

func TestClearAll(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1, 2)
	ctx := context.Background()

	h1, _ := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
	h2, _ := s.SendCommand(ctx, 2, catalog.FocusNear, nil)
	link.nextWrite(t)
	link.nextWrite(t)

	errc := make(chan error, 1)
	go func() { errc <- s.ClearAll(ctx) }()
	link.expectWrite(t, 0x88, 0x01, 0x00, 0x01, 0xFF)
	link.reply(0x88, 0x01, 0x00, 0x01, 0xFF)

	if err := <-errc; err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	for _, h := range []*Handle{h1, h2} {
		if err := waitHandle(t, h); !errors.Is(err, visca.ErrCancelled) {
			t.Errorf("camera %d: Wait() error = %v, want ErrCancelled", h.Camera(), err)
		}
	}
}

func TestCameraClear(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)
	ctx := context.Background()

	pending, _ := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
	link.nextWrite(t)
	link.reply(0x90, 0x41, 0xFF)
	waitFor(t, func() bool { return pending.Socket() == 1 }, "ack")

	h, err := s.SendCommand(ctx, 1, catalog.IFClear, nil)
	if err != nil {
		t.Fatal(err)
	}
	link.expectWrite(t, 0x81, 0x01, 0x00, 0x01, 0xFF)
	link.reply(0x90, 0x50, 0xFF)

	if err := waitHandle(t, h); err != nil {
		t.Fatalf("clear Wait() error = %v", err)
	}
	if err := waitHandle(t, pending); !errors.Is(err, visca.ErrCancelled) {
		t.Errorf("pending Wait() error = %v, want ErrCancelled", err)
	}
}

func TestRejectsBeforeWriting(t *testing.T) {
	s, link := newTestSession(t, DefaultConfig(), 1)
	ctx := context.Background()

	if _, err := s.SendCommand(ctx, 4, catalog.PowerOn, nil); !errors.Is(err, visca.ErrNotAddressed) {
		t.Errorf("unaddressed camera error = %v", err)
	}
	if _, err := s.SendCommand(ctx, 1, catalog.ZoomDirect, []int{0x5000}); !errors.Is(err, visca.ErrInvalidOperation) {
		t.Errorf("out of range error = %v", err)
	}
	if _, err := s.SendCommand(ctx, 1, catalog.PowerInq, nil); !errors.Is(err, visca.ErrInvalidOperation) {
		t.Errorf("inquiry as command error = %v", err)
	}
	if _, err := s.SendInquiry(ctx, 1, catalog.PowerOn); !errors.Is(err, visca.ErrInvalidOperation) {
		t.Errorf("command as inquiry error = %v", err)
	}
	if err := s.AddCamera(8); !errors.Is(err, visca.ErrInvalidOperation) {
		t.Errorf("AddCamera(8) error = %v", err)
	}
	link.expectNoWrite(t, 20*time.Millisecond)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Sockets: 16},
		{SocketPolicy: "sometimes"},
	} {
		cfg.Logger = testLogger()
		if _, err := Open(newFakeLink(), cfg); err == nil {
			t.Errorf("Open(%+v) should fail", cfg)
		}
	}
}

func TestNoSharedSockets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sockets = 3
	s, link := newTestSession(t, cfg, 1)
	ctx := context.Background()

	var handles []*Handle
	for i := 0; i < 3; i++ {
		h, err := s.SendCommand(ctx, 1, catalog.ZoomTele, nil)
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
		link.nextWrite(t)
	}
	link.reply(0x90, 0x41, 0xFF)
	link.reply(0x90, 0x42, 0xFF)
	link.reply(0x90, 0x43, 0xFF)
	waitFor(t, func() bool { return handles[2].Socket() != 0 }, "acks")

	seen := map[int]bool{}
	for _, h := range handles {
		if seen[h.Socket()] {
			t.Fatalf("socket %d assigned twice", h.Socket())
		}
		seen[h.Socket()] = true
	}
}
