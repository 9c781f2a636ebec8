package session

import (
	"context"
	"fmt"
	"time"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/internal/metrics"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/visca"
)

// SendCommand builds op and transmits it to the camera at address. It
// returns once the packet is on the wire; completion is observed through the
// handle. It blocks while the camera's sockets are all occupied under
// PolicyBlock, and ctx bounds only that wait.
func (s *Session) SendCommand(ctx context.Context, address int, op catalog.Operation, params []int, opts ...Option) (*Handle, error) {
	r, err := catalog.Build(op, params...)
	if err != nil {
		return nil, err
	}
	if r.Kind == visca.KindInquiry {
		return nil, fmt.Errorf("%w: %s is an inquiry", visca.ErrInvalidOperation, op)
	}
	return s.Submit(ctx, address, r, opts...)
}

// SendInquiry asks the camera at address and decodes the answer. Inquiries
// that time out are re-sent up to Config.InquiryRetries times.
func (s *Session) SendInquiry(ctx context.Context, address int, op catalog.Operation, params ...int) (catalog.Result, error) {
	r, err := catalog.Build(op, params...)
	if err != nil {
		return catalog.Result{}, err
	}
	if r.Kind != visca.KindInquiry {
		return catalog.Result{}, fmt.Errorf("%w: %s is not an inquiry", visca.ErrInvalidOperation, op)
	}
	h, err := s.Submit(ctx, address, r)
	if err != nil {
		return catalog.Result{}, err
	}

	select {
	case <-h.done:
	case <-ctx.Done():
		s.abandon(h, ctx.Err())
		return catalog.Result{}, ctx.Err()
	}
	if err := h.Err(); err != nil {
		return catalog.Result{}, err
	}
	return catalog.Parse(op, h.Reply())
}

// Submit transmits a prebuilt request. Commands occupy a socket until they
// resolve; inquiries and per-camera IF-Clear do not.
func (s *Session) Submit(ctx context.Context, address int, r catalog.Request, opts ...Option) (*Handle, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	cam, err := s.camera(address)
	if err != nil {
		return nil, err
	}
	packet, err := r.Encode(address)
	if err != nil {
		return nil, err
	}

	req := &request{
		cam:    cam,
		op:     r.Operation,
		kind:   r.Kind,
		packet: packet,
	}
	switch r.Kind {
	case visca.KindInquiry:
		req.timeout = s.cfg.InquiryTimeout
	case visca.KindCommand, visca.KindIFClear:
		req.timeout = s.cfg.CommandTimeout
	default:
		return nil, fmt.Errorf("%w: cannot submit %s packets", visca.ErrInvalidOperation, r.Kind)
	}
	if o.timeout > 0 {
		req.timeout = o.timeout
	}
	if d, ok := catalog.Lookup(r.Operation); ok {
		req.idempotent = d.Idempotent
	}
	req.handle = &Handle{
		req:      req,
		camera:   address,
		op:       r.Operation,
		callback: o.callback,
		done:     make(chan struct{}),
		state:    StateSent,
	}

	select {
	case cam.turn <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, s.Err()
	}
	defer func() { <-cam.turn }()

	if req.needsSocket() {
		if err := s.acquire(ctx, cam, req); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	if err := s.registered(cam); err != nil {
		s.releaseToken(req)
		s.unlock()
		return nil, err
	}
	req.sent = time.Now()
	req.attempts = 1
	req.outstanding = 1
	cam.queue = append(cam.queue, req)
	s.arm(req, req.timeout, s.expire)
	s.unlock()

	if err := s.write(packet); err != nil {
		return nil, err
	}
	return req.handle, nil
}

// Cancel abandons a request. The handle resolves with ErrCancelled at once.
// An ACKed command is cancelled on the camera with 8x 2z FF; one not yet
// ACKed is cancelled as soon as its ACK names the socket. The socket stays
// reserved until the camera confirms, so a late reply is never attributed to
// another request.
func (s *Session) Cancel(h *Handle) error {
	if h == nil || h.req == nil {
		return fmt.Errorf("%w: nil handle", visca.ErrInvalidOperation)
	}
	req := h.req

	s.mu.Lock()
	if req.resolved {
		s.unlock()
		return nil
	}
	s.resolve(req, visca.Reply{}, fmt.Errorf("%w: by caller", visca.ErrCancelled))

	var pkt []byte
	switch {
	case !req.awaitsAck():
		// Stays queued so its reply is consumed; the deadline purges it.
	case !req.acked:
		req.cancelPending = true
	default:
		pkt = s.cancelPacket(req)
		s.arm(req, s.cfg.CancelTimeout, s.purge)
	}
	s.unlock()

	if pkt == nil {
		return nil
	}
	return s.write(pkt)
}

// abandon resolves a request whose caller stopped waiting. It stays in the
// queue so its eventual reply is not handed to a later request.
func (s *Session) abandon(h *Handle, err error) {
	s.mu.Lock()
	s.resolve(h.req, visca.Reply{}, err)
	s.unlock()
}

func (s *Session) camera(address int) (*cameraState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cam, ok := s.cameras[address]
	if !ok {
		return nil, fmt.Errorf("%w: camera %d", visca.ErrNotAddressed, address)
	}
	return cam, nil
}

// registered reports whether cam is still live. Called with mu held.
func (s *Session) registered(cam *cameraState) error {
	if s.err != nil {
		return s.err
	}
	if s.cameras[cam.address] != cam {
		return fmt.Errorf("%w: camera %d", visca.ErrNotAddressed, cam.address)
	}
	return nil
}

// acquire reserves a command socket on cam.
func (s *Session) acquire(ctx context.Context, cam *cameraState, req *request) error {
	for {
		s.mu.Lock()
		if err := s.registered(cam); err != nil {
			s.mu.Unlock()
			return err
		}
		if cam.used < cam.sockets {
			cam.used++
			req.holdsToken = true
			metrics.SetSocketsInUse(cam.address, cam.used)
			s.mu.Unlock()
			return nil
		}
		if s.cfg.SocketPolicy == PolicyFail {
			used := cam.used
			s.mu.Unlock()
			return fmt.Errorf("%w: camera %d has %d of %d sockets busy",
				visca.ErrSocketsExhausted, cam.address, used, cam.sockets)
		}
		freed := cam.freed
		s.mu.Unlock()

		select {
		case <-freed:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return s.Err()
		}
	}
}

// releaseToken returns req's socket reservation. Called with mu held.
func (s *Session) releaseToken(req *request) {
	if !req.holdsToken {
		return
	}
	req.holdsToken = false
	req.cam.used--
	req.cam.wake()
	metrics.SetSocketsInUse(req.cam.address, req.cam.used)
}

// arm replaces req's timer. A generation counter makes stale firings no-ops.
// Called with mu held.
func (s *Session) arm(req *request, d time.Duration, fire func(*request)) {
	if req.timer != nil {
		req.timer.Stop()
	}
	req.gen++
	gen := req.gen
	req.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.unlock()
		if req.gen != gen || s.err != nil {
			return
		}
		fire(req)
	})
}

// expire handles a request deadline. Called with mu held.
func (s *Session) expire(req *request) {
	if req.resolved {
		s.purge(req)
		return
	}

	if req.kind == visca.KindInquiry && req.idempotent && req.attempts <= s.cfg.InquiryRetries {
		req.attempts++
		s.arm(req, req.timeout, s.expire)
		metrics.RecordRetry(req.cam.address)
		s.log.Info("Retrying inquiry", "camera", req.cam.address, "operation", req.op, "attempt", req.attempts)
		s.notes = append(s.notes, func() { s.retransmit(req) })
		return
	}

	s.resolve(req, visca.Reply{}, fmt.Errorf("%w: %s to camera %d after %s",
		visca.ErrTimeout, req.op, req.cam.address, req.timeout))
	s.releaseToken(req)
	// Keep the entry long enough to absorb a late reply.
	s.arm(req, s.cfg.CancelTimeout, s.purge)
}

// retransmit re-sends an inquiry in its original queue position.
func (s *Session) retransmit(req *request) {
	cam := req.cam
	select {
	case cam.turn <- struct{}{}:
	case <-s.done:
		return
	}
	defer func() { <-cam.turn }()

	s.mu.Lock()
	live := !req.resolved
	if live {
		req.outstanding++
	}
	s.mu.Unlock()
	if live {
		_ = s.write(req.packet)
	}
}

// purge forgets a resolved request. Called with mu held.
func (s *Session) purge(req *request) {
	s.detach(req)
}

// detach removes req from its camera's queue and slots, stops its timer and
// releases its socket. Called with mu held.
func (s *Session) detach(req *request) {
	if req.timer != nil {
		req.timer.Stop()
		req.gen++
	}
	cam := req.cam
	cam.removeQueued(req)
	if req.acked && cam.slots[req.socket] == req {
		delete(cam.slots, req.socket)
	}
	s.releaseToken(req)
}

// resolve settles req's handle once. Socket release is left to the caller.
// Called with mu held; the callback and event run after unlock.
func (s *Session) resolve(req *request, reply visca.Reply, err error) {
	if req.resolved {
		return
	}
	req.resolved = true
	h := req.handle
	h.finish(reply, err)

	elapsed := time.Since(req.sent)
	metrics.RecordRequest(req.cam.address, req.kind.String(), outcome(err), elapsed)

	var ev events.Event
	if err == nil {
		s.log.Debug("Request completed", "camera", h.camera, "socket", req.socket, "operation", h.op, "elapsed", elapsed)
		ev = events.RequestCompletedEvent{Camera: h.camera, Socket: req.socket, Operation: string(h.op), Elapsed: elapsed}
	} else {
		s.log.Debug("Request failed", "camera", h.camera, "socket", req.socket, "operation", h.op, "error", err)
		ev = events.RequestFailedEvent{Camera: h.camera, Socket: req.socket, Operation: string(h.op), Err: err}
	}
	cb := h.callback
	s.notes = append(s.notes, func() {
		s.bus.Publish(ev)
		if cb != nil {
			cb(err)
		}
	})
}

// cancelPacket marks req's cancel as sent and returns 8x 2z FF.
// Called with mu held.
func (s *Session) cancelPacket(req *request) []byte {
	req.cancelSent = true
	pkt, err := visca.Encode(visca.KindCancel, req.cam.address, []byte{visca.ClassCancel | byte(req.socket)})
	if err != nil {
		// Socket numbers come from a reply nibble and are always encodable.
		panic(err)
	}
	return pkt
}
