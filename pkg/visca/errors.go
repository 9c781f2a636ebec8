package visca

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the codec, the transports and the session engine.
var (
	ErrTransport        = errors.New("transport error")
	ErrFraming          = errors.New("framing error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrSocketsExhausted = errors.New("sockets exhausted")
	ErrTimeout          = errors.New("timeout")
	ErrCancelled        = errors.New("cancelled")
	ErrNotAddressed     = errors.New("camera not addressed")
	ErrClosed           = errors.New("session closed")
	ErrUnexpectedReply  = errors.New("unexpected reply")
	ErrDevice           = errors.New("device error")

	// ErrIncomplete is returned by Decoder.Next while no terminator has been seen.
	ErrIncomplete = errors.New("incomplete packet")
)

// Device error codes carried in an Error reply (y0 6z ee FF).
const (
	CodeMessageLength byte = 0x01
	CodeSyntax        byte = 0x02
	CodeBufferFull    byte = 0x03
	CodeCancelled     byte = 0x04
	CodeNoSocket      byte = 0x05
	CodeNotExecutable byte = 0x41
)

var deviceCodeNames = map[byte]string{
	CodeMessageLength: "message length error",
	CodeSyntax:        "syntax error",
	CodeBufferFull:    "command buffer full",
	CodeCancelled:     "command cancelled",
	CodeNoSocket:      "no socket",
	CodeNotExecutable: "command not executable",
}

// DeviceError is an Error reply returned by a camera.
type DeviceError struct {
	Camera int
	Socket int
	Code   byte
}

func (e *DeviceError) Error() string {
	name, ok := deviceCodeNames[e.Code]
	if !ok {
		name = fmt.Sprintf("unknown code 0x%02X", e.Code)
	}
	return fmt.Sprintf("camera %d socket %d: %s", e.Camera, e.Socket, name)
}

// Is reports ErrDevice for every device error, and ErrCancelled for the
// cancelled code so callers can treat both cancel paths alike.
func (e *DeviceError) Is(target error) bool {
	switch target {
	case ErrDevice:
		return true
	case ErrCancelled:
		return e.Code == CodeCancelled
	}
	return false
}
