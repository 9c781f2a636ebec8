package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeRequestCompleted uint32 = iota + 1
	TypeRequestFailed
	TypeReplyDiscarded
	TypeTransportLost
	TypeAddressed
	TypeNetworkChange
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RequestCompletedEvent is published when a command completes or an inquiry
// is answered.
type RequestCompletedEvent struct {
	Camera    int
	Socket    int
	Operation string
	Elapsed   time.Duration
}

// Type returns the event type identifier for RequestCompletedEvent.
func (e RequestCompletedEvent) Type() uint32 { return TypeRequestCompleted }

// RequestFailedEvent is published when a request resolves with an error.
type RequestFailedEvent struct {
	Camera    int
	Socket    int
	Operation string
	Err       error
}

// Type returns the event type identifier for RequestFailedEvent.
func (e RequestFailedEvent) Type() uint32 { return TypeRequestFailed }

// ReplyDiscardedEvent reports a reply that matched no pending request.
type ReplyDiscardedEvent struct {
	Camera int
	Socket int
	Reason string
	Packet []byte
}

// Type returns the event type identifier for ReplyDiscardedEvent.
func (e ReplyDiscardedEvent) Type() uint32 { return TypeReplyDiscarded }

// TransportLostEvent is published once when the connection fails.
type TransportLostEvent struct {
	Transport string
	Err       error
}

// Type returns the event type identifier for TransportLostEvent.
func (e TransportLostEvent) Type() uint32 { return TypeTransportLost }

// AddressedEvent is published after a successful Address-Set.
type AddressedEvent struct {
	Cameras int
}

// Type returns the event type identifier for AddressedEvent.
func (e AddressedEvent) Type() uint32 { return TypeAddressed }

// NetworkChangeEvent reports a camera announcing a chain change (y0 38).
type NetworkChangeEvent struct {
	Camera int
}

// Type returns the event type identifier for NetworkChangeEvent.
func (e NetworkChangeEvent) Type() uint32 { return TypeNetworkChange }
