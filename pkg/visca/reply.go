package visca

import "fmt"

// ReplyType classifies a packet sent by a camera.
type ReplyType int

// Reply types.
const (
	ReplyACK ReplyType = iota + 1
	ReplyCompletion
	ReplyError
	ReplyAddressSet
	ReplyIFClear
	ReplyNetworkChange
)

func (t ReplyType) String() string {
	switch t {
	case ReplyACK:
		return "ack"
	case ReplyCompletion:
		return "completion"
	case ReplyError:
		return "error"
	case ReplyAddressSet:
		return "address-set"
	case ReplyIFClear:
		return "if-clear"
	case ReplyNetworkChange:
		return "network-change"
	default:
		return fmt.Sprintf("reply(%d)", int(t))
	}
}

// Reply response nibbles (high nibble of the first payload byte).
const (
	responseACK        byte = 0x40
	responseCompletion byte = 0x50
	responseError      byte = 0x60
	networkChange      byte = 0x38
)

// Reply is a classified camera reply.
type Reply struct {
	Type ReplyType
	// Camera is the sender address; zero for broadcast replies.
	Camera int
	// Socket is the z nibble of ACK, Completion and Error replies.
	Socket int
	// Data holds the bytes following the response byte of a Completion.
	Data []byte
	// Code is the device error code of an Error reply.
	Code byte
	// Next is the address the chain would hand to one more camera
	// (Address-Set replies only); the chain holds Next-1 cameras.
	Next int
	Raw  Packet
}

// ParseReply classifies a decoded packet as a camera reply.
func ParseReply(p Packet) (Reply, error) {
	if len(p.Payload) == 0 {
		return Reply{}, fmt.Errorf("%w: empty reply %s", ErrFraming, p)
	}

	if p.Header == broadcastHeader {
		switch {
		case len(p.Payload) == 2 && p.Payload[0] == ClassAddress:
			return Reply{Type: ReplyAddressSet, Next: int(p.Payload[1] & 0x0F), Raw: p}, nil
		case isIFClear(p.Payload):
			return Reply{Type: ReplyIFClear, Raw: p}, nil
		}
		return Reply{}, fmt.Errorf("%w: broadcast %s", ErrUnexpectedReply, p)
	}

	cam := p.Sender()
	if cam == 0 {
		return Reply{}, fmt.Errorf("%w: %s was sent by a controller", ErrUnexpectedReply, p)
	}

	first := p.Payload[0]
	r := Reply{Camera: cam, Socket: int(first & 0x0F), Raw: p}
	if first == networkChange {
		r.Type = ReplyNetworkChange
		r.Socket = 0
		return r, nil
	}

	switch first & 0xF0 {
	case responseACK:
		if len(p.Payload) != 1 {
			return Reply{}, fmt.Errorf("%w: ack with trailing bytes %s", ErrFraming, p)
		}
		r.Type = ReplyACK
	case responseCompletion:
		r.Type = ReplyCompletion
		r.Data = p.Payload[1:]
	case responseError:
		if len(p.Payload) != 2 {
			return Reply{}, fmt.Errorf("%w: error reply length %s", ErrFraming, p)
		}
		r.Type = ReplyError
		r.Code = p.Payload[1]
	default:
		return Reply{}, fmt.Errorf("%w: %s", ErrUnexpectedReply, p)
	}
	return r, nil
}

// Err returns the DeviceError for an Error reply and nil otherwise.
func (r Reply) Err() error {
	if r.Type != ReplyError {
		return nil
	}
	return &DeviceError{Camera: r.Camera, Socket: r.Socket, Code: r.Code}
}
