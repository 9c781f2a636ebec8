package catalog

import "github.com/benarent/viscago/pkg/visca"

// Categories.
const (
	catInterface byte = 0x00
	catCamera    byte = 0x04
	catPanTilt   byte = 0x06
)

// Generic on/off/reset arguments.
const (
	argOn    byte = 0x02
	argOff   byte = 0x03
	argReset byte = 0x00
	argUp    byte = 0x02
	argDown  byte = 0x03
	argFlip  byte = 0x10
)

// Commands.
const (
	PowerOn    Operation = "power_on"
	PowerOff   Operation = "power_off"
	IFClear    Operation = "if_clear"
	KeylockOn  Operation = "keylock_on"
	KeylockOff Operation = "keylock_off"

	ZoomStop         Operation = "zoom_stop"
	ZoomTele         Operation = "zoom_tele"
	ZoomWide         Operation = "zoom_wide"
	ZoomTeleVariable Operation = "zoom_tele_variable"
	ZoomWideVariable Operation = "zoom_wide_variable"
	ZoomDirect       Operation = "zoom_direct"
	ZoomFocusDirect  Operation = "zoom_focus_direct"
	DZoomOn          Operation = "dzoom_on"
	DZoomOff         Operation = "dzoom_off"
	DZoomCombine     Operation = "dzoom_combine"
	DZoomSeparate    Operation = "dzoom_separate"

	FocusStop         Operation = "focus_stop"
	FocusFar          Operation = "focus_far"
	FocusNear         Operation = "focus_near"
	FocusFarVariable  Operation = "focus_far_variable"
	FocusNearVariable Operation = "focus_near_variable"
	FocusDirect       Operation = "focus_direct"
	FocusAuto         Operation = "focus_auto"
	FocusManual       Operation = "focus_manual"
	FocusAutoToggle   Operation = "focus_auto_toggle"
	FocusOnePush      Operation = "focus_one_push"
	FocusInfinity     Operation = "focus_infinity"
	FocusNearLimit    Operation = "focus_near_limit"
	FocusSenseHigh    Operation = "focus_sense_high"
	FocusSenseLow     Operation = "focus_sense_low"

	WhiteBalanceMode    Operation = "wb_mode"
	WhiteBalanceTrigger Operation = "wb_one_push_trigger"
	RGainUp             Operation = "rgain_up"
	RGainDown           Operation = "rgain_down"
	RGainReset          Operation = "rgain_reset"
	RGainDirect         Operation = "rgain_direct"
	BGainUp             Operation = "bgain_up"
	BGainDown           Operation = "bgain_down"
	BGainReset          Operation = "bgain_reset"
	BGainDirect         Operation = "bgain_direct"

	ExposureMode      Operation = "ae_mode"
	ShutterUp         Operation = "shutter_up"
	ShutterDown       Operation = "shutter_down"
	ShutterReset      Operation = "shutter_reset"
	ShutterDirect     Operation = "shutter_direct"
	IrisUp            Operation = "iris_up"
	IrisDown          Operation = "iris_down"
	IrisReset         Operation = "iris_reset"
	IrisDirect        Operation = "iris_direct"
	GainUp            Operation = "gain_up"
	GainDown          Operation = "gain_down"
	GainReset         Operation = "gain_reset"
	GainDirect        Operation = "gain_direct"
	BrightUp          Operation = "bright_up"
	BrightDown        Operation = "bright_down"
	BrightReset       Operation = "bright_reset"
	BrightDirect      Operation = "bright_direct"
	ExpCompOn         Operation = "exp_comp_on"
	ExpCompOff        Operation = "exp_comp_off"
	ExpCompUp         Operation = "exp_comp_up"
	ExpCompDown       Operation = "exp_comp_down"
	ExpCompReset      Operation = "exp_comp_reset"
	ExpCompDirect     Operation = "exp_comp_direct"
	ApertureUp        Operation = "aperture_up"
	ApertureDown      Operation = "aperture_down"
	ApertureReset     Operation = "aperture_reset"
	ApertureDirect    Operation = "aperture_direct"
	ZeroLuxOn         Operation = "zero_lux_on"
	ZeroLuxOff        Operation = "zero_lux_off"
	IRLEDOn           Operation = "ir_led_on"
	IRLEDOff          Operation = "ir_led_off"
	WideMode          Operation = "wide_mode"
	BacklightOn       Operation = "backlight_on"
	BacklightOff      Operation = "backlight_off"
	SlowShutterAuto   Operation = "slow_shutter_auto"
	SlowShutterManual Operation = "slow_shutter_manual"
	MirrorOn          Operation = "mirror_on"
	MirrorOff         Operation = "mirror_off"
	FreezeOn          Operation = "freeze_on"
	FreezeOff         Operation = "freeze_off"
	PictureEffect     Operation = "picture_effect"
	DigitalEffect     Operation = "digital_effect"
	DigitalEffectLvl  Operation = "digital_effect_level"
	DisplayOn         Operation = "display_on"
	DisplayOff        Operation = "display_off"
	DisplayToggle     Operation = "display_toggle"
	DateDisplayOn     Operation = "date_display_on"
	DateDisplayOff    Operation = "date_display_off"
	TimeDisplayOn     Operation = "time_display_on"
	TimeDisplayOff    Operation = "time_display_off"
	TitleDisplayOn    Operation = "title_display_on"
	TitleDisplayOff   Operation = "title_display_off"
	TitleClear        Operation = "title_clear"
	CameraIDSet       Operation = "camera_id_set"

	PresetReset  Operation = "preset_reset"
	PresetSet    Operation = "preset_set"
	PresetRecall Operation = "preset_recall"

	PanTiltDrive      Operation = "pan_tilt_drive"
	PanTiltAbsolute   Operation = "pan_tilt_absolute"
	PanTiltRelative   Operation = "pan_tilt_relative"
	PanTiltHome       Operation = "pan_tilt_home"
	PanTiltReset      Operation = "pan_tilt_reset"
	PanTiltLimitSet   Operation = "pan_tilt_limit_set"
	PanTiltLimitClear Operation = "pan_tilt_limit_clear"
	DataScreenOn      Operation = "datascreen_on"
	DataScreenOff     Operation = "datascreen_off"
	DataScreenToggle  Operation = "datascreen_toggle"
	IRReceiveOn       Operation = "ir_receive_on"
	IRReceiveOff      Operation = "ir_receive_off"
	IRReceiveToggle   Operation = "ir_receive_toggle"
)

// Inquiries.
const (
	PowerInq            Operation = "power_inq"
	ZoomPositionInq     Operation = "zoom_position_inq"
	FocusPositionInq    Operation = "focus_position_inq"
	FocusModeInq        Operation = "focus_mode_inq"
	DZoomInq            Operation = "dzoom_inq"
	WhiteBalanceModeInq Operation = "wb_mode_inq"
	RGainInq            Operation = "rgain_inq"
	BGainInq            Operation = "bgain_inq"
	ExposureModeInq     Operation = "ae_mode_inq"
	ShutterInq          Operation = "shutter_inq"
	IrisInq             Operation = "iris_inq"
	GainInq             Operation = "gain_inq"
	BrightInq           Operation = "bright_inq"
	ExpCompInq          Operation = "exp_comp_inq"
	BacklightInq        Operation = "backlight_inq"
	MirrorInq           Operation = "mirror_inq"
	FreezeInq           Operation = "freeze_inq"
	PresetInq           Operation = "preset_inq"
	CameraIDInq         Operation = "camera_id_inq"
	DeviceInfoInq       Operation = "device_info_inq"
	VideoSystemInq      Operation = "video_system_inq"
	PanTiltModeInq      Operation = "pan_tilt_mode_inq"
	PanTiltMaxSpeedInq  Operation = "pan_tilt_max_speed_inq"
	PanTiltPositionInq  Operation = "pan_tilt_position_inq"
	DataScreenInq       Operation = "datascreen_inq"
	KeylockInq          Operation = "keylock_inq"
	DZoomModeInq        Operation = "dzoom_mode_inq"
	FocusSenseInq       Operation = "focus_sense_inq"
	FocusNearLimitInq   Operation = "focus_near_limit_inq"
	SlowShutterInq      Operation = "slow_shutter_inq"
	ExpCompModeInq      Operation = "exp_comp_mode_inq"
	ApertureInq         Operation = "aperture_inq"
	ZeroLuxInq          Operation = "zero_lux_inq"
	IRLEDInq            Operation = "ir_led_inq"
	WideModeInq         Operation = "wide_mode_inq"
	PictureEffectInq    Operation = "picture_effect_inq"
	DigitalEffectInq    Operation = "digital_effect_inq"
	DigitalEffectLvlInq Operation = "digital_effect_level_inq"
	DisplayInq          Operation = "display_inq"
	IRReceiveInq        Operation = "ir_receive_inq"
)

// Pan-tilt drive directions (the 0p / 0q bytes of Pan-tiltDrive).
const (
	DirLeft  = 0x01
	DirRight = 0x02
	DirStop  = 0x03
	DirUp    = 0x01
	DirDown  = 0x02
)

// Speed and position limits.
const (
	MaxPanSpeed   = 0x18
	MaxTiltSpeed  = 0x14
	MaxZoomSpeed  = 0x07
	MaxFocusSpeed = 0x07
	MaxZoom       = 0x4000
	MaxPreset     = 0x7F
	MaxEffectLvl  = 0x20
)

var (
	panSpeed  = Param{Name: "pan_speed", Min: 1, Max: MaxPanSpeed}
	tiltSpeed = Param{Name: "tilt_speed", Min: 1, Max: MaxTiltSpeed}
	panPos    = Param{Name: "pan", Min: -0x8000, Max: 0x7FFF}
	tiltPos   = Param{Name: "tilt", Min: -0x8000, Max: 0x7FFF}
	level     = Param{Name: "value", Min: 0, Max: 0xFF}
	position  = Param{Name: "position", Min: 0, Max: 0xFFFF}
	preset    = Param{Name: "preset", Min: 0, Max: MaxPreset}
)

func cmd(cat, code byte, rest ...any) []field {
	return seq(append([]any{lit(visca.ClassCommand, cat, code)}, rest...)...)
}

func inq(cat, code byte) []field {
	return lit(visca.ClassInquiry, cat, code)
}

// simple builds a parameterless command.
func simple(op Operation, desc string, cat, code byte, args ...byte) Definition {
	return Definition{Operation: op, Kind: visca.KindCommand, Description: desc, template: cmd(cat, code, lit(args...))}
}

// direct builds a "00 00 0p 0q" value command.
func direct(op Operation, desc string, code byte) Definition {
	return Definition{
		Operation:   op,
		Kind:        visca.KindCommand,
		Description: desc,
		Params:      []Param{level},
		template:    cmd(catCamera, code, lit(0x00, 0x00), nib2(0)),
	}
}

// inquiry builds an idempotent inquiry with the given reply layout.
func inquiry(op Operation, desc string, cat, code byte, fields []string, reply ...any) Definition {
	return Definition{
		Operation:   op,
		Kind:        visca.KindInquiry,
		Description: desc,
		Fields:      fields,
		Idempotent:  true,
		template:    inq(cat, code),
		reply:       seq(reply...),
	}
}

var definitions = []Definition{
	simple(PowerOn, "Camera power on", catCamera, 0x00, argOn),
	simple(PowerOff, "Camera power off (standby)", catCamera, 0x00, argOff),
	{Operation: IFClear, Kind: visca.KindIFClear, Description: "Clear the camera command buffers", template: lit(0x01, 0x00, 0x01)},
	simple(KeylockOn, "Lock the camera's front panel keys", catCamera, 0x17, argOn),
	simple(KeylockOff, "Unlock the front panel keys", catCamera, 0x17, argOff),

	simple(ZoomStop, "Stop zooming", catCamera, 0x07, 0x00),
	simple(ZoomTele, "Zoom in at standard speed", catCamera, 0x07, 0x02),
	simple(ZoomWide, "Zoom out at standard speed", catCamera, 0x07, 0x03),
	{Operation: ZoomTeleVariable, Kind: visca.KindCommand, Description: "Zoom in at speed 0-7",
		Params: []Param{{Name: "speed", Min: 0, Max: MaxZoomSpeed}}, template: cmd(catCamera, 0x07, low(0x20, 0))},
	{Operation: ZoomWideVariable, Kind: visca.KindCommand, Description: "Zoom out at speed 0-7",
		Params: []Param{{Name: "speed", Min: 0, Max: MaxZoomSpeed}}, template: cmd(catCamera, 0x07, low(0x30, 0))},
	{Operation: ZoomDirect, Kind: visca.KindCommand, Description: "Zoom to position 0000-4000",
		Params: []Param{{Name: "zoom", Min: 0, Max: MaxZoom}}, template: cmd(catCamera, 0x47, nib4(0))},
	{Operation: ZoomFocusDirect, Kind: visca.KindCommand, Description: "Zoom and focus to positions",
		Params:   []Param{{Name: "zoom", Min: 0, Max: MaxZoom}, {Name: "focus", Min: 0, Max: 0xFFFF}},
		template: cmd(catCamera, 0x47, nib4(0), nib4(1))},
	simple(DZoomOn, "Digital zoom on", catCamera, 0x06, argOn),
	simple(DZoomOff, "Digital zoom off", catCamera, 0x06, argOff),
	simple(DZoomCombine, "Optical and digital zoom combined", catCamera, 0x36, 0x00),
	simple(DZoomSeparate, "Optical and digital zoom separate", catCamera, 0x36, 0x01),

	simple(FocusStop, "Stop focus drive", catCamera, 0x08, 0x00),
	simple(FocusFar, "Focus far at standard speed", catCamera, 0x08, 0x02),
	simple(FocusNear, "Focus near at standard speed", catCamera, 0x08, 0x03),
	{Operation: FocusFarVariable, Kind: visca.KindCommand, Description: "Focus far at speed 0-7",
		Params: []Param{{Name: "speed", Min: 0, Max: MaxFocusSpeed}}, template: cmd(catCamera, 0x08, low(0x20, 0))},
	{Operation: FocusNearVariable, Kind: visca.KindCommand, Description: "Focus near at speed 0-7",
		Params: []Param{{Name: "speed", Min: 0, Max: MaxFocusSpeed}}, template: cmd(catCamera, 0x08, low(0x30, 0))},
	{Operation: FocusDirect, Kind: visca.KindCommand, Description: "Focus to position",
		Params: []Param{position}, template: cmd(catCamera, 0x48, nib4(0))},
	simple(FocusAuto, "Auto focus", catCamera, 0x38, 0x02),
	simple(FocusManual, "Manual focus", catCamera, 0x38, 0x03),
	simple(FocusAutoToggle, "Toggle auto/manual focus", catCamera, 0x38, 0x10),
	simple(FocusOnePush, "One push auto focus trigger", catCamera, 0x18, 0x01),
	simple(FocusInfinity, "Focus to infinity", catCamera, 0x18, 0x02),
	{Operation: FocusNearLimit, Kind: visca.KindCommand, Description: "Set focus near limit",
		Params: []Param{position}, template: cmd(catCamera, 0x28, nib4(0))},
	simple(FocusSenseHigh, "Auto focus sensitivity normal", catCamera, 0x58, 0x02),
	simple(FocusSenseLow, "Auto focus sensitivity low", catCamera, 0x58, 0x03),

	{Operation: WhiteBalanceMode, Kind: visca.KindCommand, Description: "White balance mode (0 auto, 1 indoor, 2 outdoor, 3 one push, 4 ATW, 5 manual)",
		Params: []Param{{Name: "mode", Min: 0, Max: 0x08}}, template: cmd(catCamera, 0x35, low(0x00, 0))},
	simple(WhiteBalanceTrigger, "One push white balance trigger", catCamera, 0x10, 0x05),
	simple(RGainUp, "Red gain up", catCamera, 0x03, argUp),
	simple(RGainDown, "Red gain down", catCamera, 0x03, argDown),
	simple(RGainReset, "Red gain reset", catCamera, 0x03, argReset),
	direct(RGainDirect, "Red gain direct", 0x43),
	simple(BGainUp, "Blue gain up", catCamera, 0x04, argUp),
	simple(BGainDown, "Blue gain down", catCamera, 0x04, argDown),
	simple(BGainReset, "Blue gain reset", catCamera, 0x04, argReset),
	direct(BGainDirect, "Blue gain direct", 0x44),

	{Operation: ExposureMode, Kind: visca.KindCommand, Description: "AE mode (0 full auto, 3 manual, 10 shutter priority, 11 iris priority, 12 gain priority, 13 bright)",
		Params:   []Param{{Name: "mode", Min: 0, Max: 0x0D, Allowed: []int{0x00, 0x03, 0x0A, 0x0B, 0x0C, 0x0D}}},
		template: cmd(catCamera, 0x39, low(0x00, 0))},
	simple(ShutterUp, "Shutter up", catCamera, 0x0A, argUp),
	simple(ShutterDown, "Shutter down", catCamera, 0x0A, argDown),
	simple(ShutterReset, "Shutter reset", catCamera, 0x0A, argReset),
	direct(ShutterDirect, "Shutter direct", 0x4A),
	simple(IrisUp, "Iris up", catCamera, 0x0B, argUp),
	simple(IrisDown, "Iris down", catCamera, 0x0B, argDown),
	simple(IrisReset, "Iris reset", catCamera, 0x0B, argReset),
	direct(IrisDirect, "Iris direct", 0x4B),
	simple(GainUp, "Gain up", catCamera, 0x0C, argUp),
	simple(GainDown, "Gain down", catCamera, 0x0C, argDown),
	simple(GainReset, "Gain reset", catCamera, 0x0C, argReset),
	direct(GainDirect, "Gain direct", 0x4C),
	simple(BrightUp, "Bright up", catCamera, 0x0D, argUp),
	simple(BrightDown, "Bright down", catCamera, 0x0D, argDown),
	simple(BrightReset, "Bright reset", catCamera, 0x0D, argReset),
	direct(BrightDirect, "Bright direct", 0x4D),
	simple(ExpCompOn, "Exposure compensation on", catCamera, 0x3E, argOn),
	simple(ExpCompOff, "Exposure compensation off", catCamera, 0x3E, argOff),
	simple(ExpCompUp, "Exposure compensation up", catCamera, 0x0E, argUp),
	simple(ExpCompDown, "Exposure compensation down", catCamera, 0x0E, argDown),
	simple(ExpCompReset, "Exposure compensation reset", catCamera, 0x0E, argReset),
	direct(ExpCompDirect, "Exposure compensation direct", 0x4E),
	simple(ApertureUp, "Aperture (sharpness) up", catCamera, 0x02, argUp),
	simple(ApertureDown, "Aperture (sharpness) down", catCamera, 0x02, argDown),
	simple(ApertureReset, "Aperture (sharpness) reset", catCamera, 0x02, argReset),
	direct(ApertureDirect, "Aperture (sharpness) direct", 0x42),
	simple(ZeroLuxOn, "Zero lux shot on", catCamera, 0x01, argOn),
	simple(ZeroLuxOff, "Zero lux shot off", catCamera, 0x01, argOff),
	simple(IRLEDOn, "IR LED on", catCamera, 0x31, argOn),
	simple(IRLEDOff, "IR LED off", catCamera, 0x31, argOff),
	{Operation: WideMode, Kind: visca.KindCommand, Description: "Wide mode (0 off, 1 cinema, 2 16:9 full)",
		Params: []Param{{Name: "mode", Min: 0, Max: 0x02}}, template: cmd(catCamera, 0x60, low(0x00, 0))},
	simple(BacklightOn, "Backlight compensation on", catCamera, 0x33, argOn),
	simple(BacklightOff, "Backlight compensation off", catCamera, 0x33, argOff),
	simple(SlowShutterAuto, "Auto slow shutter", catCamera, 0x5A, argOn),
	simple(SlowShutterManual, "Manual slow shutter", catCamera, 0x5A, argOff),
	simple(MirrorOn, "Picture flip horizontal on", catCamera, 0x61, argOn),
	simple(MirrorOff, "Picture flip horizontal off", catCamera, 0x61, argOff),
	simple(FreezeOn, "Freeze picture", catCamera, 0x62, argOn),
	simple(FreezeOff, "Release freeze", catCamera, 0x62, argOff),
	{Operation: PictureEffect, Kind: visca.KindCommand, Description: "Picture effect (0 off, 1 pastel, 2 negative, 3 sepia, 4 B&W, 5 solarize, 6 mosaic, 7 slim, 8 stretch)",
		Params: []Param{{Name: "effect", Min: 0, Max: 0x08}}, template: cmd(catCamera, 0x63, low(0x00, 0))},
	{Operation: DigitalEffect, Kind: visca.KindCommand, Description: "Digital effect (0 off, 1 still, 2 flash, 3 lumi, 4 trail)",
		Params: []Param{{Name: "effect", Min: 0, Max: 0x04}}, template: cmd(catCamera, 0x64, low(0x00, 0))},
	{Operation: DigitalEffectLvl, Kind: visca.KindCommand, Description: "Digital effect level 00-20",
		Params: []Param{{Name: "level", Min: 0, Max: MaxEffectLvl}}, template: cmd(catCamera, 0x65, byt(0))},
	simple(DisplayOn, "On-screen display on", catCamera, 0x15, argOn),
	simple(DisplayOff, "On-screen display off", catCamera, 0x15, argOff),
	simple(DisplayToggle, "Toggle on-screen display", catCamera, 0x15, argFlip),
	simple(DateDisplayOn, "Show date", catCamera, 0x71, argOn),
	simple(DateDisplayOff, "Hide date", catCamera, 0x71, argOff),
	simple(TimeDisplayOn, "Show time", catCamera, 0x72, argOn),
	simple(TimeDisplayOff, "Hide time", catCamera, 0x72, argOff),
	simple(TitleDisplayOn, "Show title", catCamera, 0x74, argOn),
	simple(TitleDisplayOff, "Hide title", catCamera, 0x74, argOff),
	simple(TitleClear, "Clear title", catCamera, 0x74, 0x00),
	{Operation: CameraIDSet, Kind: visca.KindCommand, Description: "Set camera ID 0000-FFFF",
		Params: []Param{{Name: "id", Min: 0, Max: 0xFFFF}}, template: cmd(catCamera, 0x22, nib4(0))},

	{Operation: PresetReset, Kind: visca.KindCommand, Description: "Clear preset memory",
		Params: []Param{preset}, template: cmd(catCamera, 0x3F, lit(0x00), byt(0))},
	{Operation: PresetSet, Kind: visca.KindCommand, Description: "Store current position to preset",
		Params: []Param{preset}, template: cmd(catCamera, 0x3F, lit(0x01), byt(0))},
	{Operation: PresetRecall, Kind: visca.KindCommand, Description: "Recall preset",
		Params: []Param{preset}, template: cmd(catCamera, 0x3F, lit(0x02), byt(0))},

	{Operation: PanTiltDrive, Kind: visca.KindCommand, Description: "Drive pan/tilt (dirs: pan 1 left 2 right 3 stop, tilt 1 up 2 down 3 stop)",
		Params: []Param{panSpeed, tiltSpeed, {Name: "pan_dir", Min: 1, Max: 3}, {Name: "tilt_dir", Min: 1, Max: 3}},
		template: cmd(catPanTilt, 0x01, byt(0), byt(1), low(0x00, 2), low(0x00, 3))},
	{Operation: PanTiltAbsolute, Kind: visca.KindCommand, Description: "Move to absolute pan/tilt position",
		Params:   []Param{panSpeed, tiltSpeed, panPos, tiltPos},
		template: cmd(catPanTilt, 0x02, byt(0), byt(1), nib4s(2), nib4s(3))},
	{Operation: PanTiltRelative, Kind: visca.KindCommand, Description: "Move by relative pan/tilt offset",
		Params:   []Param{panSpeed, tiltSpeed, panPos, tiltPos},
		template: cmd(catPanTilt, 0x03, byt(0), byt(1), nib4s(2), nib4s(3))},
	simple(PanTiltHome, "Move to home position", catPanTilt, 0x04),
	simple(PanTiltReset, "Initialize pan/tilt", catPanTilt, 0x05),
	{Operation: PanTiltLimitSet, Kind: visca.KindCommand, Description: "Set pan/tilt limit (corner 1 up-right, 0 down-left)",
		Params:   []Param{{Name: "corner", Min: 0, Max: 1}, panPos, tiltPos},
		template: cmd(catPanTilt, 0x07, lit(0x00), low(0x00, 0), nib4s(1), nib4s(2))},
	{Operation: PanTiltLimitClear, Kind: visca.KindCommand, Description: "Clear pan/tilt limit (corner 1 up-right, 0 down-left)",
		Params:   []Param{{Name: "corner", Min: 0, Max: 1}},
		template: cmd(catPanTilt, 0x07, lit(0x01), low(0x00, 0), lit(0x07, 0x0F, 0x0F, 0x0F, 0x07, 0x0F, 0x0F, 0x0F))},
	simple(DataScreenOn, "Data screen on", catPanTilt, 0x06, argOn),
	simple(DataScreenOff, "Data screen off", catPanTilt, 0x06, argOff),
	simple(DataScreenToggle, "Toggle data screen", catPanTilt, 0x06, argFlip),
	simple(IRReceiveOn, "Accept the IR remote", catPanTilt, 0x08, argOn),
	simple(IRReceiveOff, "Ignore the IR remote", catPanTilt, 0x08, argOff),
	simple(IRReceiveToggle, "Toggle IR remote reception", catPanTilt, 0x08, argFlip),

	inquiry(PowerInq, "Power state (2 on, 3 standby)", catCamera, 0x00, []string{"power"}, low(0x00, 0)),
	inquiry(ZoomPositionInq, "Zoom position", catCamera, 0x47, []string{"zoom"}, nib4(0)),
	inquiry(FocusPositionInq, "Focus position", catCamera, 0x48, []string{"focus"}, nib4(0)),
	inquiry(FocusModeInq, "Focus mode (2 auto, 3 manual)", catCamera, 0x38, []string{"mode"}, low(0x00, 0)),
	inquiry(DZoomInq, "Digital zoom (2 on, 3 off)", catCamera, 0x06, []string{"mode"}, low(0x00, 0)),
	inquiry(WhiteBalanceModeInq, "White balance mode", catCamera, 0x35, []string{"mode"}, low(0x00, 0)),
	inquiry(RGainInq, "Red gain", catCamera, 0x43, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(BGainInq, "Blue gain", catCamera, 0x44, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(ExposureModeInq, "AE mode", catCamera, 0x39, []string{"mode"}, low(0x00, 0)),
	inquiry(ShutterInq, "Shutter position", catCamera, 0x4A, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(IrisInq, "Iris position", catCamera, 0x4B, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(GainInq, "Gain position", catCamera, 0x4C, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(BrightInq, "Bright position", catCamera, 0x4D, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(ExpCompInq, "Exposure compensation position", catCamera, 0x4E, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(BacklightInq, "Backlight compensation (2 on, 3 off)", catCamera, 0x33, []string{"mode"}, low(0x00, 0)),
	inquiry(MirrorInq, "Horizontal flip (2 on, 3 off)", catCamera, 0x61, []string{"mode"}, low(0x00, 0)),
	inquiry(FreezeInq, "Freeze (2 on, 3 off)", catCamera, 0x62, []string{"mode"}, low(0x00, 0)),
	inquiry(PresetInq, "Last recalled preset", catCamera, 0x3F, []string{"preset"}, byt(0)),
	inquiry(CameraIDInq, "Camera ID", catCamera, 0x22, []string{"id"}, nib4(0)),
	inquiry(DeviceInfoInq, "Vendor, model, ROM version and socket count", catInterface, 0x02,
		[]string{"vendor", "model", "rom_version", "sockets"}, word(0), word(1), word(2), byt(3)),
	inquiry(VideoSystemInq, "Video system", catPanTilt, 0x23, []string{"system"}, low(0x00, 0)),
	inquiry(PanTiltModeInq, "Pan/tilt status word", catPanTilt, 0x10, []string{"status"}, word(0)),
	inquiry(PanTiltMaxSpeedInq, "Maximum pan/tilt speeds", catPanTilt, 0x11, []string{"pan_speed", "tilt_speed"}, byt(0), byt(1)),
	inquiry(PanTiltPositionInq, "Pan/tilt position", catPanTilt, 0x12, []string{"pan", "tilt"}, nib4s(0), nib4s(1)),
	inquiry(DataScreenInq, "Data screen (2 on, 3 off)", catPanTilt, 0x06, []string{"mode"}, low(0x00, 0)),
	inquiry(KeylockInq, "Key lock (2 on, 3 off)", catCamera, 0x17, []string{"mode"}, low(0x00, 0)),
	inquiry(DZoomModeInq, "Digital zoom mode (0 combined, 1 separate)", catCamera, 0x36, []string{"mode"}, low(0x00, 0)),
	inquiry(FocusSenseInq, "Auto focus sensitivity (2 normal, 3 low)", catCamera, 0x58, []string{"mode"}, low(0x00, 0)),
	inquiry(FocusNearLimitInq, "Focus near limit", catCamera, 0x28, []string{"position"}, nib4(0)),
	inquiry(SlowShutterInq, "Slow shutter (2 auto, 3 manual)", catCamera, 0x5A, []string{"mode"}, low(0x00, 0)),
	inquiry(ExpCompModeInq, "Exposure compensation (2 on, 3 off)", catCamera, 0x3E, []string{"mode"}, low(0x00, 0)),
	inquiry(ApertureInq, "Aperture (sharpness)", catCamera, 0x42, []string{"value"}, lit(0x00, 0x00), nib2(0)),
	inquiry(ZeroLuxInq, "Zero lux shot (2 on, 3 off)", catCamera, 0x01, []string{"mode"}, low(0x00, 0)),
	inquiry(IRLEDInq, "IR LED (2 on, 3 off)", catCamera, 0x31, []string{"mode"}, low(0x00, 0)),
	inquiry(WideModeInq, "Wide mode", catCamera, 0x60, []string{"mode"}, low(0x00, 0)),
	inquiry(PictureEffectInq, "Picture effect", catCamera, 0x63, []string{"effect"}, low(0x00, 0)),
	inquiry(DigitalEffectInq, "Digital effect", catCamera, 0x64, []string{"effect"}, low(0x00, 0)),
	inquiry(DigitalEffectLvlInq, "Digital effect level", catCamera, 0x65, []string{"level"}, byt(0)),
	inquiry(DisplayInq, "On-screen display (2 on, 3 off)", catCamera, 0x15, []string{"mode"}, low(0x00, 0)),
	inquiry(IRReceiveInq, "IR remote reception (2 on, 3 off)", catPanTilt, 0x08, []string{"mode"}, low(0x00, 0)),
}
