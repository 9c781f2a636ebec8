package simcam

import (
	"time"

	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/visca"
)

const (
	on      = 0x02
	off     = 0x03
	standby = 0x03
)

// onOff maps toggle commands to the inquiry that reports them.
var onOff = map[catalog.Operation]struct {
	inq   catalog.Operation
	value int
}{
	catalog.DZoomOn:       {catalog.DZoomInq, on},
	catalog.DZoomOff:      {catalog.DZoomInq, off},
	catalog.BacklightOn:   {catalog.BacklightInq, on},
	catalog.BacklightOff:  {catalog.BacklightInq, off},
	catalog.MirrorOn:      {catalog.MirrorInq, on},
	catalog.MirrorOff:     {catalog.MirrorInq, off},
	catalog.FreezeOn:      {catalog.FreezeInq, on},
	catalog.FreezeOff:     {catalog.FreezeInq, off},
	catalog.DataScreenOn:  {catalog.DataScreenInq, on},
	catalog.DataScreenOff: {catalog.DataScreenInq, off},

	catalog.KeylockOn:         {catalog.KeylockInq, on},
	catalog.KeylockOff:        {catalog.KeylockInq, off},
	catalog.DZoomCombine:      {catalog.DZoomModeInq, 0x00},
	catalog.DZoomSeparate:     {catalog.DZoomModeInq, 0x01},
	catalog.FocusSenseHigh:    {catalog.FocusSenseInq, on},
	catalog.FocusSenseLow:     {catalog.FocusSenseInq, off},
	catalog.SlowShutterAuto:   {catalog.SlowShutterInq, on},
	catalog.SlowShutterManual: {catalog.SlowShutterInq, off},
	catalog.ExpCompOn:         {catalog.ExpCompModeInq, on},
	catalog.ExpCompOff:        {catalog.ExpCompModeInq, off},
	catalog.ZeroLuxOn:         {catalog.ZeroLuxInq, on},
	catalog.ZeroLuxOff:        {catalog.ZeroLuxInq, off},
	catalog.IRLEDOn:           {catalog.IRLEDInq, on},
	catalog.IRLEDOff:          {catalog.IRLEDInq, off},
	catalog.DisplayOn:         {catalog.DisplayInq, on},
	catalog.DisplayOff:        {catalog.DisplayInq, off},
	catalog.IRReceiveOn:       {catalog.IRReceiveInq, on},
	catalog.IRReceiveOff:      {catalog.IRReceiveInq, off},
}

// toggles flip the on/off state read back by an inquiry.
var toggles = map[catalog.Operation]catalog.Operation{
	catalog.DisplayToggle:    catalog.DisplayInq,
	catalog.DataScreenToggle: catalog.DataScreenInq,
	catalog.IRReceiveToggle:  catalog.IRReceiveInq,
}

// directs maps value commands to the inquiry that reads them back.
var directs = map[catalog.Operation]catalog.Operation{
	catalog.RGainDirect:      catalog.RGainInq,
	catalog.BGainDirect:      catalog.BGainInq,
	catalog.ShutterDirect:    catalog.ShutterInq,
	catalog.IrisDirect:       catalog.IrisInq,
	catalog.GainDirect:       catalog.GainInq,
	catalog.BrightDirect:     catalog.BrightInq,
	catalog.ExpCompDirect:    catalog.ExpCompInq,
	catalog.WhiteBalanceMode: catalog.WhiteBalanceModeInq,
	catalog.ExposureMode:     catalog.ExposureModeInq,
	catalog.CameraIDSet:      catalog.CameraIDInq,
	catalog.ApertureDirect:   catalog.ApertureInq,
	catalog.WideMode:         catalog.WideModeInq,
	catalog.PictureEffect:    catalog.PictureEffectInq,
	catalog.DigitalEffect:    catalog.DigitalEffectInq,
	catalog.DigitalEffectLvl: catalog.DigitalEffectLvlInq,
}

type preset struct {
	pan, tilt, zoom int
}

type job struct {
	op     catalog.Operation
	params []int
	timer  *time.Timer
}

// Camera is one simulated unit on the chain. Its state is guarded by the
// chain's mutex.
type Camera struct {
	chain   *Chain
	address int
	sockets int
	jobs    map[int]*job

	mute     bool
	failNext byte

	power     int
	zoom      int
	focus     int
	focusMode int
	pan, tilt int
	recalled  int
	presets   map[int]preset
	values    map[catalog.Operation]int
}

func newCamera(c *Chain, sockets int) *Camera {
	return &Camera{
		chain:     c,
		sockets:   sockets,
		jobs:      make(map[int]*job),
		power:     on,
		focusMode: on,
		presets:   make(map[int]preset),
		values: map[catalog.Operation]int{
			catalog.DZoomInq:       off,
			catalog.BacklightInq:   off,
			catalog.MirrorInq:      off,
			catalog.FreezeInq:      off,
			catalog.DataScreenInq:  off,
			catalog.KeylockInq:     off,
			catalog.FocusSenseInq:  on,
			catalog.SlowShutterInq: on,
			catalog.ExpCompModeInq: off,
			catalog.ZeroLuxInq:     off,
			catalog.IRLEDInq:       off,
			catalog.DisplayInq:     off,
			catalog.IRReceiveInq:   on,
		},
	}
}

// Address returns the camera's current address, 0 before Address-Set.
func (cam *Camera) Address() int {
	cam.chain.mu.Lock()
	defer cam.chain.mu.Unlock()
	return cam.address
}

// SetMute makes the camera swallow every packet without replying.
func (cam *Camera) SetMute(mute bool) {
	cam.chain.mu.Lock()
	defer cam.chain.mu.Unlock()
	cam.mute = mute
}

// FailNext makes the next command fail with code after its ACK.
func (cam *Camera) FailNext(code byte) {
	cam.chain.mu.Lock()
	defer cam.chain.mu.Unlock()
	cam.failNext = code
}

// Busy returns the number of sockets executing a command.
func (cam *Camera) Busy() int {
	cam.chain.mu.Lock()
	defer cam.chain.mu.Unlock()
	return len(cam.jobs)
}

// Answer returns what the camera would report for an inquiry.
func (cam *Camera) Answer(op catalog.Operation) []int {
	cam.chain.mu.Lock()
	defer cam.chain.mu.Unlock()
	return cam.answer(op)
}

func (cam *Camera) handle(pkt visca.Packet) {
	if cam.mute {
		return
	}
	switch pkt.Kind() {
	case visca.KindIFClear:
		cam.stopAll()
		cam.chain.reply(cam.address, 0x50)
	case visca.KindCancel:
		cam.cancel(int(pkt.Payload[0] & 0x0F))
	case visca.KindInquiry:
		cam.inquire(pkt)
	case visca.KindCommand:
		cam.command(pkt)
	default:
		cam.chain.reply(cam.address, 0x60, visca.CodeSyntax)
	}
}

func (cam *Camera) inquire(pkt visca.Packet) {
	op, _, err := catalog.Identify(pkt)
	if err != nil {
		cam.chain.reply(cam.address, 0x60, visca.CodeSyntax)
		return
	}
	data, err := catalog.EncodeReply(op, cam.answer(op)...)
	if err != nil {
		cam.chain.log.Warn("Cannot encode inquiry answer", "operation", op, "error", err)
		cam.chain.reply(cam.address, 0x60, visca.CodeNotExecutable)
		return
	}
	cam.chain.reply(cam.address, append([]byte{0x50}, data...)...)
}

func (cam *Camera) command(pkt visca.Packet) {
	op, params, err := catalog.Identify(pkt)
	if err != nil {
		cam.chain.reply(cam.address, 0x60, visca.CodeSyntax)
		return
	}
	z := cam.freeSocket()
	if z == 0 {
		cam.chain.reply(cam.address, 0x60, visca.CodeBufferFull)
		return
	}
	cam.chain.reply(cam.address, 0x40|byte(z))

	if code := cam.failNext; code != 0 {
		cam.failNext = 0
		cam.chain.reply(cam.address, 0x60|byte(z), code)
		return
	}
	if cam.power == standby && op != catalog.PowerOn {
		cam.chain.reply(cam.address, 0x60|byte(z), visca.CodeNotExecutable)
		return
	}

	if cam.chain.cfg.CompletionDelay <= 0 {
		cam.apply(op, params)
		cam.chain.reply(cam.address, 0x50|byte(z))
		return
	}
	j := &job{op: op, params: params}
	cam.jobs[z] = j
	j.timer = time.AfterFunc(cam.chain.cfg.CompletionDelay, func() {
		cam.chain.mu.Lock()
		defer cam.chain.mu.Unlock()
		if cam.jobs[z] != j {
			return
		}
		delete(cam.jobs, z)
		cam.apply(j.op, j.params)
		cam.chain.reply(cam.address, 0x50|byte(z))
	})
}

func (cam *Camera) cancel(z int) {
	j, ok := cam.jobs[z]
	if !ok {
		cam.chain.reply(cam.address, 0x60|byte(z), visca.CodeNoSocket)
		return
	}
	j.timer.Stop()
	delete(cam.jobs, z)
	cam.chain.reply(cam.address, 0x60|byte(z), visca.CodeCancelled)
}

func (cam *Camera) freeSocket() int {
	for z := 1; z <= cam.sockets; z++ {
		if _, busy := cam.jobs[z]; !busy {
			return z
		}
	}
	return 0
}

func (cam *Camera) stopAll() {
	for z, j := range cam.jobs {
		j.timer.Stop()
		delete(cam.jobs, z)
	}
}

func (cam *Camera) apply(op catalog.Operation, p []int) {
	if t, ok := onOff[op]; ok {
		cam.values[t.inq] = t.value
		return
	}
	if inq, ok := directs[op]; ok {
		cam.values[inq] = p[0]
		return
	}
	if inq, ok := toggles[op]; ok {
		if cam.values[inq] == on {
			cam.values[inq] = off
		} else {
			cam.values[inq] = on
		}
		return
	}

	switch op {
	case catalog.PowerOn:
		cam.power = on
	case catalog.PowerOff:
		cam.power = standby
		cam.stopAll()
	case catalog.ZoomTele, catalog.ZoomTeleVariable:
		cam.zoom = catalog.MaxZoom
	case catalog.ZoomWide, catalog.ZoomWideVariable:
		cam.zoom = 0
	case catalog.ZoomDirect:
		cam.zoom = p[0]
	case catalog.ZoomFocusDirect:
		cam.zoom, cam.focus = p[0], p[1]
	case catalog.FocusDirect:
		cam.focus = p[0]
	case catalog.FocusInfinity:
		cam.focus = 0
	case catalog.FocusAuto:
		cam.focusMode = on
	case catalog.FocusManual:
		cam.focusMode = off
	case catalog.FocusAutoToggle:
		if cam.focusMode == on {
			cam.focusMode = off
		} else {
			cam.focusMode = on
		}
	case catalog.PanTiltAbsolute:
		cam.pan, cam.tilt = p[2], p[3]
	case catalog.PanTiltRelative:
		cam.pan = clamp(cam.pan+p[2], -0x8000, 0x7FFF)
		cam.tilt = clamp(cam.tilt+p[3], -0x8000, 0x7FFF)
	case catalog.PanTiltHome, catalog.PanTiltReset:
		cam.pan, cam.tilt = 0, 0
	case catalog.PresetSet:
		cam.presets[p[0]] = preset{pan: cam.pan, tilt: cam.tilt, zoom: cam.zoom}
	case catalog.PresetRecall:
		if pr, ok := cam.presets[p[0]]; ok {
			cam.pan, cam.tilt, cam.zoom = pr.pan, pr.tilt, pr.zoom
		}
		cam.recalled = p[0]
	case catalog.PresetReset:
		delete(cam.presets, p[0])
	}
}

func (cam *Camera) answer(op catalog.Operation) []int {
	switch op {
	case catalog.PowerInq:
		return []int{cam.power}
	case catalog.ZoomPositionInq:
		return []int{cam.zoom}
	case catalog.FocusPositionInq:
		return []int{cam.focus}
	case catalog.FocusModeInq:
		return []int{cam.focusMode}
	case catalog.PresetInq:
		return []int{cam.recalled}
	case catalog.DeviceInfoInq:
		return []int{VendorSony, cam.chain.cfg.Model, DefaultROM, cam.sockets}
	case catalog.PanTiltPositionInq:
		return []int{cam.pan, cam.tilt}
	case catalog.PanTiltMaxSpeedInq:
		return []int{catalog.MaxPanSpeed, catalog.MaxTiltSpeed}
	}
	d, _ := catalog.Lookup(op)
	out := make([]int, len(d.Fields))
	if len(out) == 1 {
		out[0] = cam.values[op]
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
