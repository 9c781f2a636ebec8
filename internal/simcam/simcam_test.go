package simcam

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/transport"
)

// readAll collects reply bytes until the chain goes quiet.
func readAll(t *testing.T, c *Chain) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 64)
	for {
		n, err := c.Read(buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}

func newChain(t *testing.T, cfg Config) *Chain {
	t.Helper()
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Millisecond
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAddressSet(t *testing.T) {
	c := newChain(t, Config{Cameras: 3, Unaddressed: true})

	if _, err := c.Write([]byte{0x81, 0x01, 0x04, 0x00, 0x02, 0xFF}); err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, c); len(got) != 0 {
		t.Fatalf("unaddressed chain replied % X", got)
	}

	_, _ = c.Write([]byte{0x88, 0x30, 0x01, 0xFF})
	if got, want := readAll(t, c), []byte{0x88, 0x30, 0x04, 0xFF}; !bytes.Equal(got, want) {
		t.Fatalf("address reply = % X, want % X", got, want)
	}
	for i := 0; i < 3; i++ {
		if got := c.Camera(i).Address(); got != i+1 {
			t.Errorf("camera %d address = %d", i, got)
		}
	}
}

func TestCommandAckAndCompletion(t *testing.T) {
	c := newChain(t, Config{Cameras: 2})

	_, _ = c.Write([]byte{0x82, 0x01, 0x04, 0x47, 0x01, 0x02, 0x03, 0x04, 0xFF})
	want := []byte{0xA0, 0x41, 0xFF, 0xA0, 0x51, 0xFF}
	if got := readAll(t, c); !bytes.Equal(got, want) {
		t.Fatalf("replies = % X, want % X", got, want)
	}
	if got := c.Camera(1).Answer(catalog.ZoomPositionInq); got[0] != 0x1234 {
		t.Errorf("zoom = %#x, want 0x1234", got[0])
	}
}

func TestInquiry(t *testing.T) {
	c := newChain(t, Config{Cameras: 1})

	_, _ = c.Write([]byte{0x81, 0x09, 0x04, 0x00, 0xFF})
	if got, want := readAll(t, c), []byte{0x90, 0x50, 0x02, 0xFF}; !bytes.Equal(got, want) {
		t.Fatalf("power reply = % X, want % X", got, want)
	}
}

func TestSplitWrites(t *testing.T) {
	c := newChain(t, Config{Cameras: 1})

	_, _ = c.Write([]byte{0x81, 0x09})
	_, _ = c.Write([]byte{0x04, 0x00, 0xFF})
	if got := readAll(t, c); !bytes.Equal(got, []byte{0x90, 0x50, 0x02, 0xFF}) {
		t.Fatalf("reply = % X", got)
	}
	if n := len(c.Written()); n != 1 {
		t.Errorf("Written() has %d packets, want 1", n)
	}
}

func TestUnknownCommandIsSyntaxError(t *testing.T) {
	c := newChain(t, Config{Cameras: 1})

	_, _ = c.Write([]byte{0x81, 0x01, 0x7E, 0x7E, 0xFF})
	if got, want := readAll(t, c), []byte{0x90, 0x60, 0x02, 0xFF}; !bytes.Equal(got, want) {
		t.Fatalf("reply = % X, want % X", got, want)
	}
}

func TestBufferFullAndCancel(t *testing.T) {
	c := newChain(t, Config{Cameras: 1, Sockets: 1, CompletionDelay: time.Hour})

	_, _ = c.Write([]byte{0x81, 0x01, 0x06, 0x04, 0xFF})
	_, _ = c.Write([]byte{0x81, 0x01, 0x06, 0x04, 0xFF})
	want := []byte{0x90, 0x41, 0xFF, 0x90, 0x60, 0x03, 0xFF}
	if got := readAll(t, c); !bytes.Equal(got, want) {
		t.Fatalf("replies = % X, want % X", got, want)
	}

	_, _ = c.Write([]byte{0x81, 0x21, 0xFF})
	_, _ = c.Write([]byte{0x81, 0x21, 0xFF})
	want = []byte{0x90, 0x61, 0x04, 0xFF, 0x90, 0x61, 0x05, 0xFF}
	if got := readAll(t, c); !bytes.Equal(got, want) {
		t.Fatalf("cancel replies = % X, want % X", got, want)
	}
	if c.Camera(0).Busy() != 0 {
		t.Error("cancelled socket still busy")
	}
}

func TestDelayedCompletion(t *testing.T) {
	c := newChain(t, Config{Cameras: 1, CompletionDelay: 20 * time.Millisecond})

	_, _ = c.Write([]byte{0x81, 0x01, 0x06, 0x04, 0xFF})
	buf := make([]byte, 16)
	n, _ := c.Read(buf)
	if !bytes.Equal(buf[:n], []byte{0x90, 0x41, 0xFF}) {
		t.Fatalf("first reply = % X", buf[:n])
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		n, _ = c.Read(buf)
		if n > 0 {
			break
		}
	}
	if !bytes.Equal(buf[:n], []byte{0x90, 0x51, 0xFF}) {
		t.Fatalf("completion = % X", buf[:n])
	}
}

func TestStandbyRejectsCommands(t *testing.T) {
	c := newChain(t, Config{Cameras: 1})

	_, _ = c.Write([]byte{0x81, 0x01, 0x04, 0x00, 0x03, 0xFF})
	readAll(t, c)
	_, _ = c.Write([]byte{0x81, 0x01, 0x04, 0x07, 0x02, 0xFF})
	want := []byte{0x90, 0x41, 0xFF, 0x90, 0x61, 0x41, 0xFF}
	if got := readAll(t, c); !bytes.Equal(got, want) {
		t.Fatalf("replies = % X, want % X", got, want)
	}
}

func TestBroadcastIFClear(t *testing.T) {
	c := newChain(t, Config{Cameras: 2, CompletionDelay: time.Hour})

	_, _ = c.Write([]byte{0x81, 0x01, 0x06, 0x04, 0xFF})
	readAll(t, c)
	_, _ = c.Write([]byte{0x88, 0x01, 0x00, 0x01, 0xFF})
	if got, want := readAll(t, c), []byte{0x88, 0x01, 0x00, 0x01, 0xFF}; !bytes.Equal(got, want) {
		t.Fatalf("reply = % X, want % X", got, want)
	}
	if c.Camera(0).Busy() != 0 {
		t.Error("IF clear left a socket busy")
	}
}

func TestMuteAndFailNext(t *testing.T) {
	c := newChain(t, Config{Cameras: 1})
	cam := c.Camera(0)

	cam.SetMute(true)
	_, _ = c.Write([]byte{0x81, 0x09, 0x04, 0x00, 0xFF})
	if got := readAll(t, c); len(got) != 0 {
		t.Fatalf("muted camera replied % X", got)
	}
	cam.SetMute(false)

	cam.FailNext(0x41)
	_, _ = c.Write([]byte{0x81, 0x01, 0x06, 0x04, 0xFF})
	want := []byte{0x90, 0x41, 0xFF, 0x90, 0x61, 0x41, 0xFF}
	if got := readAll(t, c); !bytes.Equal(got, want) {
		t.Fatalf("replies = % X, want % X", got, want)
	}
}

func TestRegisteredKind(t *testing.T) {
	tr, err := transport.Open(context.Background(), transport.Config{Kind: Kind, Endpoint: "3"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer tr.Close()
	if tr.String() != "sim:3" {
		t.Errorf("String() = %q", tr.String())
	}

	if _, err := transport.Open(context.Background(), transport.Config{Kind: Kind, Endpoint: "many"}); err == nil {
		t.Error("non-numeric endpoint should fail")
	}
}

func TestClosedChain(t *testing.T) {
	c := newChain(t, Config{Cameras: 1})
	_ = c.Close()
	if _, err := c.Write([]byte{0x81, 0x09, 0x04, 0x00, 0xFF}); err == nil {
		t.Error("Write() after Close should fail")
	}
	if _, err := c.Read(make([]byte, 8)); err == nil {
		t.Error("Read() after Close should fail")
	}
}
