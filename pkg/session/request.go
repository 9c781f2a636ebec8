package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benarent/viscago/internal/metrics"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/visca"
)

// State is the lifecycle position of a request on its (camera, socket) slot.
type State string

// Request states.
const (
	StateSent               State = "sent"
	StateAwaitingCompletion State = "awaiting_completion"
	StateCompleted          State = "completed"
	StateFailed             State = "failed"
	StateCancelled          State = "cancelled"
)

// Done reports whether the state is terminal.
func (s State) Done() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Option configures a single request.
type Option func(*options)

type options struct {
	callback func(error)
	timeout  time.Duration
}

// WithCallback registers fn to run once when the request resolves. It runs on
// an engine goroutine and must not block.
func WithCallback(fn func(error)) Option {
	return func(o *options) { o.callback = fn }
}

// WithTimeout overrides the session's default deadline for this request. The
// deadline covers ACK and Completion together.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Handle observes an in-flight request.
type Handle struct {
	req      *request
	camera   int
	op       catalog.Operation
	callback func(error)
	done     chan struct{}

	mu     sync.Mutex
	state  State
	socket int
	err    error
	reply  visca.Reply
}

// Done is closed when the request resolves.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the request resolves or ctx ends. Abandoning the wait
// does not cancel the request; use Session.Cancel for that.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the resolution error, or nil while pending or after success.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// State returns the current request state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Socket returns the socket assigned by the camera's ACK, or 0 before it.
func (h *Handle) Socket() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.socket
}

// Camera returns the target address.
func (h *Handle) Camera() int { return h.camera }

// Operation returns the catalog operation.
func (h *Handle) Operation() catalog.Operation { return h.op }

// Reply returns the reply that resolved the request.
func (h *Handle) Reply() visca.Reply {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reply
}

func (h *Handle) setAcked(socket int) {
	h.mu.Lock()
	h.socket = socket
	if !h.state.Done() {
		h.state = StateAwaitingCompletion
	}
	h.mu.Unlock()
}

func (h *Handle) finish(reply visca.Reply, err error) {
	h.mu.Lock()
	h.reply = reply
	h.err = err
	h.state = stateFor(err)
	h.mu.Unlock()
	close(h.done)
}

// request is the engine-side record of a transmission. All fields past the
// first block are guarded by Session.mu.
type request struct {
	cam        *cameraState
	op         catalog.Operation
	kind       visca.Kind
	packet     []byte
	timeout    time.Duration
	idempotent bool
	handle     *Handle

	sent          time.Time
	attempts      int
	outstanding   int // transmissions still owed a socket-0 reply
	socket        int
	acked         bool
	holdsToken    bool
	resolved      bool
	cancelPending bool
	cancelSent    bool
	timer         *time.Timer
	gen           int
}

// needsSocket reports whether the request occupies a command socket.
func (r *request) needsSocket() bool { return r.kind == visca.KindCommand }

// awaitsAck reports whether the request is answered by ACK then Completion.
func (r *request) awaitsAck() bool { return r.kind == visca.KindCommand }

// awaitsReply reports whether the request is answered on socket zero.
func (r *request) awaitsReply() bool {
	return r.kind == visca.KindInquiry || r.kind == visca.KindIFClear
}

func stateFor(err error) State {
	switch {
	case err == nil:
		return StateCompleted
	case errors.Is(err, visca.ErrCancelled), errors.Is(err, context.Canceled):
		return StateCancelled
	default:
		return StateFailed
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCompleted
	case errors.Is(err, visca.ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	case errors.Is(err, visca.ErrDevice):
		return metrics.OutcomeDevice
	case errors.Is(err, visca.ErrTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, visca.ErrClosed):
		return metrics.OutcomeClosed
	default:
		return metrics.OutcomeTransport
	}
}
