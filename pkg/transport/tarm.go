package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	tarm "github.com/tarm/serial"

	"github.com/benarent/viscago/pkg/visca"
)

// tarmPort is the alternate serial backend for adapters go.bug.st/serial
// cannot configure.
type tarmPort struct {
	name string
	port *tarm.Port
}

func openTarm(_ context.Context, cfg Config) (Transport, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: missing serial port", visca.ErrTransport)
	}
	port, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open serial port %s: %v", visca.ErrTransport, cfg.Port, err)
	}
	_ = port.Flush()
	return &tarmPort{name: cfg.Port, port: port}, nil
}

// Read maps the io.EOF tarm returns on a read timeout to (0, nil).
func (t *tarmPort) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, wrap("read", t, err)
	}
	return n, nil
}

func (t *tarmPort) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, wrap("write", t, err)
	}
	return n, nil
}

func (t *tarmPort) Close() error { return t.port.Close() }

func (t *tarmPort) String() string { return "tarm:" + t.name }
