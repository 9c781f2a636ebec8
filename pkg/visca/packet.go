// Package visca implements the VISCA packet codec: header addressing, framing
// on the 0xFF terminator and classification of camera replies.
package visca

import (
	"encoding/hex"
	"fmt"
)

// Framing constants.
const (
	Terminator    byte = 0xFF
	MinPacketSize      = 3
	MaxPacketSize      = 16

	// Broadcast is the API address for Address-Set and IF-Clear packets.
	Broadcast = 0
	// MaxAddress is the highest camera address on a daisy chain.
	MaxAddress = 7

	broadcastHeader byte = 0x88
)

// Message classes (first payload byte of a request).
const (
	ClassCommand byte = 0x01
	ClassInquiry byte = 0x09
	ClassCancel  byte = 0x20
	ClassAddress byte = 0x30
)

// Kind identifies the shape of a packet.
type Kind int

// Packet kinds.
const (
	KindCommand Kind = iota + 1
	KindInquiry
	KindReply
	KindAddressSet
	KindIFClear
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindInquiry:
		return "inquiry"
	case KindReply:
		return "reply"
	case KindAddressSet:
		return "address-set"
	case KindIFClear:
		return "if-clear"
	case KindCancel:
		return "cancel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Packet is one framed VISCA message without its terminator.
type Packet struct {
	Header  byte
	Payload []byte
}

// Sender returns the address encoded in bits 6-4 of the header.
func (p Packet) Sender() int { return int(p.Header>>4) & 0x07 }

// Receiver returns the address encoded in bits 2-0 of the header.
func (p Packet) Receiver() int { return int(p.Header) & 0x07 }

// IsBroadcast reports whether the broadcast bit is set.
func (p Packet) IsBroadcast() bool { return p.Header&0x08 != 0 }

// Bytes returns the wire form including the terminator.
func (p Packet) Bytes() []byte {
	b := make([]byte, 0, len(p.Payload)+2)
	b = append(b, p.Header)
	b = append(b, p.Payload...)
	return append(b, Terminator)
}

func (p Packet) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Kind infers the packet kind from header direction and payload class.
func (p Packet) Kind() Kind {
	if p.Sender() != 0 {
		return KindReply
	}
	if len(p.Payload) == 0 {
		return 0
	}
	switch {
	case p.IsBroadcast() && p.Payload[0] == ClassAddress:
		return KindAddressSet
	case isIFClear(p.Payload):
		return KindIFClear
	case p.Payload[0]&0xF0 == ClassCancel:
		return KindCancel
	case p.Payload[0] == ClassCommand:
		return KindCommand
	case p.Payload[0] == ClassInquiry:
		return KindInquiry
	}
	return 0
}

func isIFClear(payload []byte) bool {
	return len(payload) == 3 && payload[0] == 0x01 && payload[1] == 0x00 && payload[2] == 0x01
}

// Header builds the controller-to-camera header byte for address.
// Address Broadcast maps to 0x88.
func Header(address int) (byte, error) {
	if address == Broadcast {
		return broadcastHeader, nil
	}
	if address < 1 || address > MaxAddress {
		return 0, fmt.Errorf("%w: camera address %d out of range 1..%d", ErrInvalidOperation, address, MaxAddress)
	}
	return 0x80 | byte(address), nil
}

// ReplyHeader builds the camera-to-controller header byte for address.
func ReplyHeader(address int) byte {
	return 0x80 | byte(address&0x07)<<4
}

// Encode validates payload against kind and returns the framed bytes.
func Encode(kind Kind, address int, payload []byte) ([]byte, error) {
	if err := validatePayload(kind, address, payload); err != nil {
		return nil, err
	}
	var header byte
	if kind == KindReply {
		header = ReplyHeader(address)
	} else {
		var err error
		if header, err = Header(address); err != nil {
			return nil, err
		}
	}
	return Packet{Header: header, Payload: payload}.Bytes(), nil
}

func validatePayload(kind Kind, address int, payload []byte) error {
	n := len(payload)
	if n < MinPacketSize-2 || n > MaxPacketSize-2 {
		return fmt.Errorf("%w: %s payload length %d out of range", ErrInvalidOperation, kind, n)
	}
	for _, b := range payload {
		if b == Terminator {
			return fmt.Errorf("%w: payload contains terminator byte", ErrInvalidOperation)
		}
	}

	broadcastOnly := kind == KindAddressSet
	switch {
	case broadcastOnly && address != Broadcast:
		return fmt.Errorf("%w: %s must be broadcast", ErrInvalidOperation, kind)
	case (kind == KindCommand || kind == KindInquiry || kind == KindCancel) && address == Broadcast:
		return fmt.Errorf("%w: %s cannot be broadcast", ErrInvalidOperation, kind)
	}

	switch kind {
	case KindCommand:
		if n < 3 || payload[0] != ClassCommand {
			return fmt.Errorf("%w: command payload must start with 01 and carry category and code", ErrInvalidOperation)
		}
	case KindInquiry:
		if n < 3 || payload[0] != ClassInquiry {
			return fmt.Errorf("%w: inquiry payload must start with 09 and carry category and code", ErrInvalidOperation)
		}
	case KindCancel:
		if n != 1 || payload[0]&0xF0 != ClassCancel || payload[0]&0x0F == 0 {
			return fmt.Errorf("%w: cancel payload must be 2p with socket p", ErrInvalidOperation)
		}
	case KindAddressSet:
		if n != 2 || payload[0] != ClassAddress || payload[1] < 1 || payload[1] > MaxAddress {
			return fmt.Errorf("%w: address-set payload must be 30 0p", ErrInvalidOperation)
		}
	case KindIFClear:
		if !isIFClear(payload) {
			return fmt.Errorf("%w: if-clear payload must be 01 00 01", ErrInvalidOperation)
		}
	case KindReply:
		if address < 1 || address > MaxAddress {
			return fmt.Errorf("%w: reply address %d out of range", ErrInvalidOperation, address)
		}
	default:
		return fmt.Errorf("%w: unknown packet kind %d", ErrInvalidOperation, int(kind))
	}
	return nil
}

// Decode parses exactly one terminated packet.
func Decode(b []byte) (Packet, error) {
	if len(b) < MinPacketSize || len(b) > MaxPacketSize {
		return Packet{}, fmt.Errorf("%w: packet length %d", ErrFraming, len(b))
	}
	if b[len(b)-1] != Terminator {
		return Packet{}, fmt.Errorf("%w: missing terminator", ErrFraming)
	}
	if b[0]&0x80 == 0 {
		return Packet{}, fmt.Errorf("%w: header 0x%02X lacks start bit", ErrFraming, b[0])
	}
	body := b[1 : len(b)-1]
	for _, c := range body {
		if c == Terminator {
			return Packet{}, fmt.Errorf("%w: embedded terminator", ErrFraming)
		}
	}
	payload := make([]byte, len(body))
	copy(payload, body)
	return Packet{Header: b[0], Payload: payload}, nil
}
