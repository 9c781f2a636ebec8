// Package camera is a per-camera convenience layer over a session: named
// methods for the common operations, and a capability probe that sizes the
// session's socket accounting from what the camera reports.
package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/session"
	"github.com/benarent/viscago/pkg/visca"
)

// VendorSony is the vendor ID Sony cameras report.
const VendorSony = 0x20

var modelNames = map[int]string{
	0x0401: "FCB-IX47",
	0x0402: "FCB-EX47L",
	0x0404: "FCB-IX10",
	0x0411: "FCB-EX780",
	0x0412: "FCB-EX480A",
	0x0413: "FCB-EX480AP",
	0x0414: "FCB-EX48A",
	0x0418: "FCB-IX47A",
	0x0419: "FCB-IX47AP",
	0x041A: "FCB-IX45A",
	0x041B: "FCB-IX45AP",
	0x041C: "FCB-IX10A",
	0x041D: "FCB-IX10AP",
	0x041E: "FCB-EX45M",
	0x041F: "FCB-EX45MCE",
	0x0420: "FCB-EX780B",
	0x0421: "FCB-EX780BP",
	0x0422: "FCB-EX78B",
	0x0423: "FCB-EX78BP",
	0x0424: "FCB-EX480B",
	0x0425: "FCB-EX480BP",
	0x0426: "FCB-EX48B",
	0x0427: "FCB-EX48BP",
}

// ModelName returns a human name for a model ID, or its hex form.
func ModelName(vendor, model int) string {
	if vendor == VendorSony {
		if name, ok := modelNames[model]; ok {
			return name
		}
	}
	return fmt.Sprintf("%04X:%04X", vendor, model)
}

// Capabilities is what Probe learned about a camera.
type Capabilities struct {
	Vendor     int
	Model      int
	ModelName  string
	ROMVersion int
	Sockets    int
	// Discovered is false until a probe succeeds; Sockets then holds the
	// session default.
	Discovered bool
}

// Camera addresses one unit on a session.
type Camera struct {
	s       *session.Session
	address int
	log     *slog.Logger

	mu   sync.Mutex
	caps Capabilities
}

// Attach registers address on s and returns its handle.
func Attach(s *session.Session, address int) (*Camera, error) {
	if err := s.AddCamera(address); err != nil {
		return nil, err
	}
	return &Camera{
		s:       s,
		address: address,
		log:     logging.GetLogger("camera").With("camera", address),
		caps:    Capabilities{Sockets: session.DefaultSockets},
	}, nil
}

// Address returns the camera's bus address.
func (c *Camera) Address() int { return c.address }

// Capabilities returns the result of the last successful Probe.
func (c *Camera) Capabilities() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

// Probe asks the camera for its identity and socket count and applies the
// socket count to the session.
func (c *Camera) Probe(ctx context.Context) (Capabilities, error) {
	res, err := c.Inquire(ctx, catalog.DeviceInfoInq)
	if err != nil {
		return Capabilities{}, fmt.Errorf("probe failed: %w", err)
	}
	caps := Capabilities{
		Vendor:     res.Int("vendor"),
		Model:      res.Int("model"),
		ROMVersion: res.Int("rom_version"),
		Sockets:    res.Int("sockets"),
		Discovered: true,
	}
	caps.ModelName = ModelName(caps.Vendor, caps.Model)

	if caps.Sockets < 1 || caps.Sockets > session.MaxSockets {
		c.log.Warn("Camera reports unusable socket count, keeping default", "sockets", caps.Sockets)
		caps.Sockets = c.Capabilities().Sockets
	} else if err := c.s.SetSockets(c.address, caps.Sockets); err != nil {
		return Capabilities{}, fmt.Errorf("probe failed: %w", err)
	}

	c.mu.Lock()
	c.caps = caps
	c.mu.Unlock()
	c.log.Info("Camera probed", "model", caps.ModelName, "rom", fmt.Sprintf("%04X", caps.ROMVersion), "sockets", caps.Sockets)
	return caps, nil
}

// Start sends a command and returns without waiting for its completion.
func (c *Camera) Start(ctx context.Context, op catalog.Operation, params ...int) (*session.Handle, error) {
	return c.s.SendCommand(ctx, c.address, op, params)
}

// Do sends a command and waits for it to complete.
func (c *Camera) Do(ctx context.Context, op catalog.Operation, params ...int) error {
	h, err := c.Start(ctx, op, params...)
	if err != nil {
		return err
	}
	return h.Wait(ctx)
}

// Inquire sends an inquiry and returns the decoded reply.
func (c *Camera) Inquire(ctx context.Context, op catalog.Operation, params ...int) (catalog.Result, error) {
	return c.s.SendInquiry(ctx, c.address, op, params...)
}

// Cancel aborts a command started with Start.
func (c *Camera) Cancel(h *session.Handle) error {
	return c.s.Cancel(h)
}

// Clear empties this camera's command buffers. Outstanding commands on the
// camera resolve as cancelled.
func (c *Camera) Clear(ctx context.Context) error {
	if err := c.Do(ctx, catalog.IFClear); err != nil {
		return fmt.Errorf("interface clear failed: %w", err)
	}
	return nil
}

func (c *Camera) PowerOn(ctx context.Context) error {
	if err := c.Do(ctx, catalog.PowerOn); err != nil {
		return fmt.Errorf("power on failed: %w", err)
	}
	return nil
}

func (c *Camera) PowerOff(ctx context.Context) error {
	if err := c.Do(ctx, catalog.PowerOff); err != nil {
		return fmt.Errorf("power off failed: %w", err)
	}
	return nil
}

// Powered reports whether the camera is on rather than in standby.
func (c *Camera) Powered(ctx context.Context) (bool, error) {
	res, err := c.Inquire(ctx, catalog.PowerInq)
	if err != nil {
		return false, err
	}
	return res.Int("power") == 0x02, nil
}

// ZoomIn starts zooming toward tele. Speed 0 uses the camera's standard
// speed.
func (c *Camera) ZoomIn(ctx context.Context, speed int) error {
	if speed == 0 {
		return c.Do(ctx, catalog.ZoomTele)
	}
	return c.Do(ctx, catalog.ZoomTeleVariable, speed)
}

// ZoomOut starts zooming toward wide. Speed 0 uses the standard speed.
func (c *Camera) ZoomOut(ctx context.Context, speed int) error {
	if speed == 0 {
		return c.Do(ctx, catalog.ZoomWide)
	}
	return c.Do(ctx, catalog.ZoomWideVariable, speed)
}

func (c *Camera) ZoomStop(ctx context.Context) error {
	return c.Do(ctx, catalog.ZoomStop)
}

// ZoomTo drives the lens to an absolute zoom position.
func (c *Camera) ZoomTo(ctx context.Context, pos int) error {
	if pos < 0 || pos > catalog.MaxZoom {
		return fmt.Errorf("%w: zoom position must be 0..%d", visca.ErrInvalidOperation, catalog.MaxZoom)
	}
	return c.Do(ctx, catalog.ZoomDirect, pos)
}

func (c *Camera) ZoomPosition(ctx context.Context) (int, error) {
	res, err := c.Inquire(ctx, catalog.ZoomPositionInq)
	if err != nil {
		return 0, err
	}
	return res.Int("zoom"), nil
}

func (c *Camera) FocusAuto(ctx context.Context) error {
	return c.Do(ctx, catalog.FocusAuto)
}

func (c *Camera) FocusManual(ctx context.Context) error {
	return c.Do(ctx, catalog.FocusManual)
}

func (c *Camera) FocusTo(ctx context.Context, pos int) error {
	return c.Do(ctx, catalog.FocusDirect, pos)
}

func (c *Camera) FocusPosition(ctx context.Context) (int, error) {
	res, err := c.Inquire(ctx, catalog.FocusPositionInq)
	if err != nil {
		return 0, err
	}
	return res.Int("focus"), nil
}

// SetWhiteBalance selects a white balance mode (0 auto through 5 manual).
func (c *Camera) SetWhiteBalance(ctx context.Context, mode int) error {
	return c.Do(ctx, catalog.WhiteBalanceMode, mode)
}

// SetExposureMode selects an AE mode (0 full auto, 3 manual, 0x0A shutter
// priority, 0x0B iris priority, 0x0D bright).
func (c *Camera) SetExposureMode(ctx context.Context, mode int) error {
	return c.Do(ctx, catalog.ExposureMode, mode)
}

func (c *Camera) SetIris(ctx context.Context, value int) error {
	return c.Do(ctx, catalog.IrisDirect, value)
}

// SetAperture sets edge enhancement, 0 being the softest.
func (c *Camera) SetAperture(ctx context.Context, value int) error {
	return c.Do(ctx, catalog.ApertureDirect, value)
}

// SetPictureEffect selects 0 off, 1 pastel, 2 negative, 3 sepia, 4 B&W,
// 5 solarize, 6 mosaic, 7 slim or 8 stretch.
func (c *Camera) SetPictureEffect(ctx context.Context, effect int) error {
	return c.Do(ctx, catalog.PictureEffect, effect)
}

func (c *Camera) SetWideMode(ctx context.Context, mode int) error {
	return c.Do(ctx, catalog.WideMode, mode)
}

// SetDisplay shows or hides the on-screen display.
func (c *Camera) SetDisplay(ctx context.Context, show bool) error {
	return c.Do(ctx, onOff(show, catalog.DisplayOn, catalog.DisplayOff))
}

// SetIRReceive enables or disables the IR remote.
func (c *Camera) SetIRReceive(ctx context.Context, enable bool) error {
	return c.Do(ctx, onOff(enable, catalog.IRReceiveOn, catalog.IRReceiveOff))
}

// SetKeylock locks or unlocks the camera's own keys.
func (c *Camera) SetKeylock(ctx context.Context, lock bool) error {
	return c.Do(ctx, onOff(lock, catalog.KeylockOn, catalog.KeylockOff))
}

func onOff(v bool, on, off catalog.Operation) catalog.Operation {
	if v {
		return on
	}
	return off
}

func (c *Camera) PresetSet(ctx context.Context, n int) error {
	return c.Do(ctx, catalog.PresetSet, n)
}

func (c *Camera) PresetRecall(ctx context.Context, n int) error {
	return c.Do(ctx, catalog.PresetRecall, n)
}

func (c *Camera) PresetReset(ctx context.Context, n int) error {
	return c.Do(ctx, catalog.PresetReset, n)
}

// Move drives pan and tilt continuously. Directions are catalog.DirLeft,
// DirRight, DirUp, DirDown or DirStop.
func (c *Camera) Move(ctx context.Context, panDir, tiltDir, panSpeed, tiltSpeed int) error {
	return c.Do(ctx, catalog.PanTiltDrive, panSpeed, tiltSpeed, panDir, tiltDir)
}

func (c *Camera) PanLeft(ctx context.Context, speed int) error {
	return c.Move(ctx, catalog.DirLeft, catalog.DirStop, speed, 1)
}

func (c *Camera) PanRight(ctx context.Context, speed int) error {
	return c.Move(ctx, catalog.DirRight, catalog.DirStop, speed, 1)
}

func (c *Camera) TiltUp(ctx context.Context, speed int) error {
	return c.Move(ctx, catalog.DirStop, catalog.DirUp, 1, speed)
}

func (c *Camera) TiltDown(ctx context.Context, speed int) error {
	return c.Move(ctx, catalog.DirStop, catalog.DirDown, 1, speed)
}

// Stop halts pan and tilt.
func (c *Camera) Stop(ctx context.Context) error {
	return c.Move(ctx, catalog.DirStop, catalog.DirStop, 1, 1)
}

// PanTiltAbsolute moves to a signed pan/tilt position at the given speeds.
func (c *Camera) PanTiltAbsolute(ctx context.Context, pan, tilt, panSpeed, tiltSpeed int) error {
	return c.Do(ctx, catalog.PanTiltAbsolute, panSpeed, tiltSpeed, pan, tilt)
}

// PanTiltRelative moves by a signed offset at the given speeds.
func (c *Camera) PanTiltRelative(ctx context.Context, pan, tilt, panSpeed, tiltSpeed int) error {
	return c.Do(ctx, catalog.PanTiltRelative, panSpeed, tiltSpeed, pan, tilt)
}

func (c *Camera) Home(ctx context.Context) error {
	return c.Do(ctx, catalog.PanTiltHome)
}

func (c *Camera) PanTiltPosition(ctx context.Context) (pan, tilt int, err error) {
	res, err := c.Inquire(ctx, catalog.PanTiltPositionInq)
	if err != nil {
		return 0, 0, err
	}
	return res.Int("pan"), res.Int("tilt"), nil
}
