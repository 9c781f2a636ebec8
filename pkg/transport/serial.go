package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/benarent/viscago/pkg/visca"
)

type serialPort struct {
	name string
	port serial.Port
}

// openSerial opens an RS-232 port at 8N1, the VISCA line format.
func openSerial(_ context.Context, cfg Config) (Transport, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: missing serial port", visca.ErrTransport)
	}
	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open serial port %s: %v", visca.ErrTransport, cfg.Port, err)
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: set read timeout on %s: %v", visca.ErrTransport, cfg.Port, err)
	}
	// Drop whatever a previous session left unread.
	_ = port.ResetInputBuffer()

	return &serialPort{name: cfg.Port, port: port}, nil
}

func (s *serialPort) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, wrap("read", s, err)
	}
	return n, nil
}

func (s *serialPort) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, wrap("write", s, err)
	}
	return n, nil
}

func (s *serialPort) Close() error {
	return s.port.Close()
}

func (s *serialPort) String() string { return "serial:" + s.name }
