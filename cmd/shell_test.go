package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/benarent/viscago/internal/simcam"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/session"
)

func newTestShell(t *testing.T, cameras int, input string) (*shell, *bytes.Buffer) {
	t.Helper()
	chain, err := simcam.New(simcam.Config{Cameras: cameras, ReadTimeout: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	scfg := session.DefaultConfig()
	scfg.InquiryTimeout = 200 * time.Millisecond
	scfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := session.Open(chain, scfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	for a := 1; a <= cameras; a++ {
		if err := s.AddCamera(a); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	sh, err := newShell(s, 1, strings.NewReader(input), &out)
	if err != nil {
		t.Fatal(err)
	}
	return sh, &out
}

func runShell(t *testing.T, sh *shell) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sh.run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestShellControlsCamera(t *testing.T) {
	sh, out := newTestShell(t, 1, strings.Join([]string{
		"on",
		"zoom 4096",
		"goto 100 -50",
		"status",
		"inq zoom_position_inq",
		"quit",
		"status",
	}, "\n"))
	runShell(t, sh)

	got := out.String()
	for _, want := range []string{
		"Camera powered on",
		"Power on, zoom 4096, pan 100, tilt -50",
		"zoom=4096 (0x1000)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Power on,") != 1 {
		t.Error("commands after quit should not run")
	}
}

func TestShellPresets(t *testing.T) {
	sh, out := newTestShell(t, 1, "goto 10 20\npreset set 3\nhome\npreset recall 3\nstatus\n")
	runShell(t, sh)

	if !strings.Contains(out.String(), "pan 10, tilt 20") {
		t.Errorf("preset not recalled:\n%s", out.String())
	}
}

func TestShellSwitchesCamera(t *testing.T) {
	sh, out := newTestShell(t, 2, "camera 2\nzoom 1000\ncameras\n")
	runShell(t, sh)

	if sh.cam.Address() != 2 {
		t.Fatalf("Address() = %d, want 2", sh.cam.Address())
	}
	if !strings.Contains(out.String(), "[2]> ") {
		t.Error("prompt should show the selected camera")
	}
	if !strings.Contains(out.String(), "Cameras: [1 2]") {
		t.Errorf("cameras not listed:\n%s", out.String())
	}
}

func TestShellReportsErrors(t *testing.T) {
	sh, out := newTestShell(t, 1, strings.Join([]string{
		"bogus",
		"zoom",
		"zoom 99999",
		"send no_such_op",
		"preset jump 1",
		"cancel",
		"camera 9",
	}, "\n"))
	runShell(t, sh)

	got := out.String()
	for _, want := range []string{
		"Unknown command",
		"Usage: zoom <position>",
		"Error: ",
		"Usage: preset",
		"Nothing to cancel",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Error: ") < 3 {
		t.Errorf("expected errors for zoom range, unknown op and camera 9:\n%s", got)
	}
}

func TestShellHelp(t *testing.T) {
	sh, out := newTestShell(t, 1, "help\n")
	runShell(t, sh)

	for _, h := range shellHelp {
		if !strings.Contains(out.String(), h[0]) {
			t.Errorf("help missing %q", h[0])
		}
	}
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"12", "0x2000", "-300"})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{12, 0x2000, -300}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("param %d = %d, want %d", i, got[i], want[i])
		}
	}
	if _, err := parseParams([]string{"fast"}); err == nil {
		t.Error("expected an error for a non-numeric parameter")
	}
}

func TestDescribeParams(t *testing.T) {
	d, _ := catalog.Lookup(catalog.ZoomDirect)
	if got := describeParams(d); got != "zoom[0..16384]" {
		t.Errorf("describeParams(zoom_direct) = %q", got)
	}
	d, _ = catalog.Lookup(catalog.PanTiltPositionInq)
	if got := describeParams(d); got != "-> pan tilt" {
		t.Errorf("describeParams(pan_tilt_position_inq) = %q", got)
	}
	d, _ = catalog.Lookup(catalog.PowerOn)
	if got := describeParams(d); got != "-" {
		t.Errorf("describeParams(power_on) = %q", got)
	}
}

func TestKindListIncludesSimulator(t *testing.T) {
	got := kindList()
	for _, want := range []string{"serial", "tarm", "tcp", "udp", string(simcam.Kind)} {
		if !strings.Contains(got, want) {
			t.Errorf("kindList() = %q, missing %s", got, want)
		}
	}
}
