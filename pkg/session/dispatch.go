package session

import (
	"errors"
	"fmt"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/internal/metrics"
	"github.com/benarent/viscago/pkg/visca"
)

// Anomaly reasons reported in logs, metrics and events.
const (
	ReasonFraming           = "framing"
	ReasonMalformed         = "malformed"
	ReasonUnknownCamera     = "unknown_camera"
	ReasonUnexpectedAck     = "unexpected_ack"
	ReasonDuplicateAck      = "duplicate_ack"
	ReasonUnmatchedComplete = "unmatched_completion"
	ReasonUnmatchedError    = "unmatched_error"
	ReasonUnmatchedReply    = "unmatched_reply"
	ReasonUnsolicited       = "unsolicited_broadcast"
)

const readBufferSize = 64

func (s *Session) readLoop() {
	defer close(s.readerDone)

	var dec visca.Decoder
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.tr.Read(buf)
		if n > 0 {
			metrics.AddBytesRead(n)
			dec.Feed(buf[:n])
			s.drain(&dec)
		}
		if err != nil {
			select {
			case <-s.done:
			default:
				s.fail(err)
			}
			return
		}
		select {
		case <-s.done:
			return
		default:
		}
	}
}

func (s *Session) drain(dec *visca.Decoder) {
	for {
		pkt, err := dec.Next()
		switch {
		case errors.Is(err, visca.ErrIncomplete):
			return
		case err != nil:
			s.mu.Lock()
			s.anomaly(0, 0, ReasonFraming, nil, err)
			s.unlock()
		default:
			s.dispatch(pkt)
		}
	}
}

func (s *Session) dispatch(pkt visca.Packet) {
	s.log.Debug("Received packet", "packet", fmt.Sprintf("% X", pkt.Bytes()))
	reply, err := visca.ParseReply(pkt)

	s.mu.Lock()
	defer s.unlock()

	if err != nil {
		s.anomaly(pkt.Sender(), 0, ReasonMalformed, pkt.Bytes(), err)
		return
	}

	switch reply.Type {
	case visca.ReplyAddressSet:
		s.deliver(&s.addrWait, reply)
		return
	case visca.ReplyIFClear:
		s.deliver(&s.clearWait, reply)
		return
	case visca.ReplyNetworkChange:
		s.log.Warn("Camera reports network change", "camera", reply.Camera)
		ev := events.NetworkChangeEvent{Camera: reply.Camera}
		s.notes = append(s.notes, func() { s.bus.Publish(ev) })
		return
	}

	cam, ok := s.cameras[reply.Camera]
	if !ok {
		s.anomaly(reply.Camera, reply.Socket, ReasonUnknownCamera, pkt.Bytes(), nil)
		return
	}

	switch reply.Type {
	case visca.ReplyACK:
		s.onAck(cam, reply)
	case visca.ReplyCompletion:
		if reply.Socket == 0 {
			s.onAnswer(cam, reply)
		} else {
			s.onCompletion(cam, reply)
		}
	case visca.ReplyError:
		if reply.Socket == 0 {
			s.onQueueError(cam, reply)
		} else {
			s.onSocketError(cam, reply)
		}
	}
}

func (s *Session) deliver(slot *chan visca.Reply, reply visca.Reply) {
	if *slot == nil {
		s.anomaly(0, 0, ReasonUnsolicited, reply.Raw.Bytes(), nil)
		return
	}
	select {
	case *slot <- reply:
	default:
	}
}

// onAck assigns the socket named by an ACK to the oldest un-ACKed command.
func (s *Session) onAck(cam *cameraState, reply visca.Reply) {
	z := reply.Socket
	var req *request
	for _, r := range cam.queue {
		if r.awaitsAck() {
			req = r
			break
		}
	}
	if req == nil || z == 0 {
		s.anomaly(cam.address, z, ReasonUnexpectedAck, reply.Raw.Bytes(), nil)
		return
	}
	if cur := cam.slots[z]; cur != nil {
		if !cur.resolved {
			s.anomaly(cam.address, z, ReasonDuplicateAck, reply.Raw.Bytes(), nil)
			return
		}
		// The camera reused the socket, so whatever it held is finished.
		s.purge(cur)
	}

	cam.removeQueued(req)
	req.socket = z
	req.acked = true
	cam.slots[z] = req
	req.handle.setAcked(z)

	if req.cancelPending {
		pkt := s.cancelPacket(req)
		s.arm(req, s.cfg.CancelTimeout, s.purge)
		s.notes = append(s.notes, func() { _ = s.write(pkt) })
	}
}

// onCompletion finishes the command executing on the reply's socket.
func (s *Session) onCompletion(cam *cameraState, reply visca.Reply) {
	req := cam.slots[reply.Socket]
	switch {
	case req == nil:
		s.anomaly(cam.address, reply.Socket, ReasonUnmatchedComplete, reply.Raw.Bytes(), nil)
	case req.resolved && req.cancelSent:
		// Raced the cancel; its 6z 04 or 6z 05 frees the socket.
		s.log.Debug("Completion raced cancel", "camera", cam.address, "socket", reply.Socket)
	case req.resolved:
		s.log.Debug("Late completion absorbed", "camera", cam.address, "socket", reply.Socket, "operation", req.op)
		s.purge(req)
	default:
		s.detach(req)
		s.resolve(req, reply, nil)
	}
}

// onSocketError fails the command on the reply's socket, or confirms a
// cancel.
func (s *Session) onSocketError(cam *cameraState, reply visca.Reply) {
	req := cam.slots[reply.Socket]
	if req == nil {
		s.anomaly(cam.address, reply.Socket, ReasonUnmatchedError, reply.Raw.Bytes(), nil)
		return
	}
	s.detach(req)
	if req.resolved {
		s.log.Debug("Socket released", "camera", cam.address, "socket", reply.Socket, "code", fmt.Sprintf("%02X", reply.Code))
		return
	}
	s.resolve(req, reply, reply.Err())
}

// onQueueError fails the oldest unanswered request. Errors on socket 0 are
// sent instead of an ACK (syntax, buffer full) or instead of an inquiry
// answer.
func (s *Session) onQueueError(cam *cameraState, reply visca.Reply) {
	if len(cam.queue) == 0 {
		s.anomaly(cam.address, 0, ReasonUnmatchedError, reply.Raw.Bytes(), nil)
		return
	}
	req := cam.queue[0]
	late := req.resolved
	s.consume(req)
	if late {
		s.log.Debug("Late error absorbed", "camera", cam.address, "operation", req.op)
		return
	}
	s.resolve(req, reply, reply.Err())
}

// onAnswer matches a socket-0 Completion to the oldest inquiry or IF-Clear.
func (s *Session) onAnswer(cam *cameraState, reply visca.Reply) {
	var req *request
	for _, r := range cam.queue {
		if r.awaitsReply() {
			req = r
			break
		}
	}
	if req == nil {
		s.anomaly(cam.address, 0, ReasonUnmatchedReply, reply.Raw.Bytes(), nil)
		return
	}
	late := req.resolved
	s.consume(req)
	if late {
		s.log.Debug("Late reply absorbed", "camera", cam.address, "operation", req.op, "outstanding", req.outstanding)
		return
	}
	s.resolve(req, reply, nil)

	if req.kind == visca.KindIFClear {
		s.failCamera(cam, fmt.Errorf("%w: camera %d interface cleared", visca.ErrCancelled, cam.address))
	}
}

// consume accounts for one socket-0 reply to a queued request. While a
// retransmission is still unanswered the entry stays queued, so that answer
// is absorbed here instead of reaching a younger request. Called with mu
// held, before req is resolved.
func (s *Session) consume(req *request) {
	req.outstanding--
	switch {
	case req.outstanding <= 0:
		s.detach(req)
	case !req.resolved:
		s.arm(req, s.cfg.CancelTimeout, s.purge)
	}
}

// anomaly logs, counts and publishes a discarded reply. Called with mu held.
func (s *Session) anomaly(camera, socket int, reason string, raw []byte, err error) {
	attrs := []any{"camera", camera, "socket", socket, "reason", reason}
	if raw != nil {
		attrs = append(attrs, "packet", fmt.Sprintf("% X", raw))
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.log.Warn("Discarding reply", attrs...)
	metrics.RecordAnomaly(reason)

	ev := events.ReplyDiscardedEvent{Camera: camera, Socket: socket, Reason: reason, Packet: raw}
	s.notes = append(s.notes, func() { s.bus.Publish(ev) })
}
