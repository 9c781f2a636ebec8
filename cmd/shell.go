package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/pkg/camera"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/session"
)

const defaultSpeed = 8

func newShellCmd() *cobra.Command {
	var address int

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive control of one camera at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bus := events.New()
			defer watch(bus, logging.GetLogger("cli"))()

			s, err := connect(ctx, bus)
			if err != nil {
				return err
			}
			defer s.Close()

			sh, err := newShell(s, address, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(sh.out, "VISCA shell (connected to %s, cameras %v)\n", s.Transport(), s.Cameras())
			fmt.Fprintln(sh.out, "Type 'help' for commands")
			return sh.run(ctx)
		},
	}
	cmd.Flags().IntVar(&address, "camera", 1, "camera to control first")
	return cmd
}

type shell struct {
	s   *session.Session
	cam *camera.Camera
	in  *bufio.Reader
	out io.Writer
	// last is the most recent command started with "start", for "cancel".
	last *session.Handle
}

func newShell(s *session.Session, address int, in io.Reader, out io.Writer) (*shell, error) {
	cam, err := camera.Attach(s, address)
	if err != nil {
		return nil, err
	}
	return &shell{s: s, cam: cam, in: bufio.NewReader(in), out: out}, nil
}

var shellHelp = [][2]string{
	{"on", "Power on camera"},
	{"off", "Power off camera (standby)"},
	{"stop", "Stop pan/tilt movement"},
	{"right [N]", "Start panning right at speed N"},
	{"left [N]", "Start panning left at speed N"},
	{"up [N]", "Start tilting up at speed N"},
	{"down [N]", "Start tilting down at speed N"},
	{"goto P T", "Move to absolute pan/tilt position"},
	{"move P T", "Move by relative pan/tilt offset"},
	{"home", "Move to home position"},
	{"zoom N", "Set zoom position (0-16384)"},
	{"zoomin [N]", "Zoom in at speed N (0-7)"},
	{"zoomout [N]", "Zoom out at speed N (0-7)"},
	{"zoomstop", "Stop zooming"},
	{"focus auto|manual|N", "Focus mode or position"},
	{"wb N", "White balance mode (0 auto .. 5 manual)"},
	{"ae N", "AE mode (0 auto, 3 manual, 10 shutter, 11 iris, 13 bright)"},
	{"iris N", "Iris position"},
	{"preset set|recall|reset N", "Preset memory"},
	{"status", "Power, zoom and pan/tilt position"},
	{"probe", "Model, ROM version and socket count"},
	{"camera N", "Switch to camera N"},
	{"cameras", "List addressed cameras"},
	{"send OP [ARGS]", "Send any catalog command"},
	{"start OP [ARGS]", "Send a command without waiting"},
	{"cancel", "Cancel the last started command"},
	{"inq OP", "Send any catalog inquiry"},
	{"clear", "Clear this camera's command buffers"},
	{"help", "Show this help"},
	{"quit", "Exit program"},
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, "\nAvailable commands:")
	for _, h := range shellHelp {
		fmt.Fprintf(sh.out, "%-26s - %s\n", h[0], h[1])
	}
}

// run reads commands until quit, EOF or ctx ends.
func (sh *shell) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(sh.out, "\n[%d]> ", sh.cam.Address())
		input, err := sh.in.ReadString('\n')
		parts := strings.Fields(strings.TrimSpace(input))
		if len(parts) > 0 {
			if quit := sh.exec(ctx, parts); quit {
				return nil
			}
		}
		if err == io.EOF {
			fmt.Fprintln(sh.out)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(ctx context.Context, parts []string) bool {
	cmd, args := parts[0], parts[1:]
	nums, numErr := parseParams(args)
	arg := func(i, def int) int {
		if numErr != nil || i >= len(nums) {
			return def
		}
		return nums[i]
	}

	var err error
	switch cmd {
	case "help":
		sh.printHelp()
		return false
	case "quit", "exit":
		return true

	case "on":
		if err = sh.cam.PowerOn(ctx); err == nil {
			fmt.Fprintln(sh.out, "Camera powered on")
		}
	case "off":
		if err = sh.cam.PowerOff(ctx); err == nil {
			fmt.Fprintln(sh.out, "Camera powered off")
		}
	case "stop":
		if err = sh.cam.Stop(ctx); err == nil {
			fmt.Fprintln(sh.out, "Movement stopped")
		}
	case "right":
		err = sh.cam.PanRight(ctx, arg(0, defaultSpeed))
	case "left":
		err = sh.cam.PanLeft(ctx, arg(0, defaultSpeed))
	case "up":
		err = sh.cam.TiltUp(ctx, arg(0, defaultSpeed))
	case "down":
		err = sh.cam.TiltDown(ctx, arg(0, defaultSpeed))

	case "goto", "move":
		if len(args) != 2 || numErr != nil {
			fmt.Fprintf(sh.out, "Usage: %s <pan> <tilt>\n", cmd)
			return false
		}
		if cmd == "goto" {
			err = sh.cam.PanTiltAbsolute(ctx, nums[0], nums[1], catalog.MaxPanSpeed, catalog.MaxTiltSpeed)
		} else {
			err = sh.cam.PanTiltRelative(ctx, nums[0], nums[1], catalog.MaxPanSpeed, catalog.MaxTiltSpeed)
		}
	case "home":
		err = sh.cam.Home(ctx)

	case "zoom":
		if len(args) != 1 || numErr != nil {
			fmt.Fprintln(sh.out, "Usage: zoom <position>")
			return false
		}
		err = sh.cam.ZoomTo(ctx, nums[0])
	case "zoomin":
		err = sh.cam.ZoomIn(ctx, arg(0, 0))
	case "zoomout":
		err = sh.cam.ZoomOut(ctx, arg(0, 0))
	case "zoomstop":
		err = sh.cam.ZoomStop(ctx)

	case "focus":
		if len(args) != 1 {
			fmt.Fprintln(sh.out, "Usage: focus <auto|manual|position>")
			return false
		}
		switch args[0] {
		case "auto":
			err = sh.cam.FocusAuto(ctx)
		case "manual":
			err = sh.cam.FocusManual(ctx)
		default:
			if numErr != nil {
				fmt.Fprintln(sh.out, "Invalid focus position")
				return false
			}
			err = sh.cam.FocusTo(ctx, nums[0])
		}

	case "wb", "ae", "iris":
		if len(args) != 1 || numErr != nil {
			fmt.Fprintf(sh.out, "Usage: %s <value>\n", cmd)
			return false
		}
		switch cmd {
		case "wb":
			err = sh.cam.SetWhiteBalance(ctx, nums[0])
		case "ae":
			err = sh.cam.SetExposureMode(ctx, nums[0])
		default:
			err = sh.cam.SetIris(ctx, nums[0])
		}

	case "preset":
		if len(args) != 2 {
			fmt.Fprintln(sh.out, "Usage: preset <set|recall|reset> <n>")
			return false
		}
		n, perr := strconv.Atoi(args[1])
		if perr != nil {
			fmt.Fprintln(sh.out, "Invalid preset number")
			return false
		}
		switch args[0] {
		case "set":
			err = sh.cam.PresetSet(ctx, n)
		case "recall":
			err = sh.cam.PresetRecall(ctx, n)
		case "reset":
			err = sh.cam.PresetReset(ctx, n)
		default:
			fmt.Fprintln(sh.out, "Usage: preset <set|recall|reset> <n>")
			return false
		}

	case "status":
		err = sh.status(ctx)
	case "probe":
		var caps camera.Capabilities
		if caps, err = sh.cam.Probe(ctx); err == nil {
			fmt.Fprintf(sh.out, "Model %s, ROM %04X, %d sockets\n", caps.ModelName, caps.ROMVersion, caps.Sockets)
		}

	case "camera":
		if len(args) != 1 || numErr != nil {
			fmt.Fprintln(sh.out, "Usage: camera <address>")
			return false
		}
		var cam *camera.Camera
		if cam, err = camera.Attach(sh.s, nums[0]); err == nil {
			sh.cam = cam
			sh.last = nil
		}
	case "cameras":
		fmt.Fprintf(sh.out, "Cameras: %v\n", sh.s.Cameras())

	case "send", "start", "inq":
		if len(args) < 1 {
			fmt.Fprintf(sh.out, "Usage: %s <operation> [args]\n", cmd)
			return false
		}
		err = sh.raw(ctx, cmd, catalog.Operation(args[0]), args[1:])
	case "cancel":
		if sh.last == nil {
			fmt.Fprintln(sh.out, "Nothing to cancel")
			return false
		}
		if err = sh.cam.Cancel(sh.last); err == nil {
			fmt.Fprintf(sh.out, "Cancelled %s\n", sh.last.Operation())
			sh.last = nil
		}
	case "clear":
		if err = sh.cam.Clear(ctx); err == nil {
			fmt.Fprintln(sh.out, "Command buffers cleared")
		}

	default:
		fmt.Fprintln(sh.out, "Unknown command. Type 'help' for available commands")
		return false
	}

	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
	return false
}

func (sh *shell) status(ctx context.Context) error {
	on, err := sh.cam.Powered(ctx)
	if err != nil {
		return err
	}
	power := "standby"
	if on {
		power = "on"
	}
	zoom, err := sh.cam.ZoomPosition(ctx)
	if err != nil {
		return err
	}
	pan, tilt, err := sh.cam.PanTiltPosition(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Power %s, zoom %d, pan %d, tilt %d\n", power, zoom, pan, tilt)
	return nil
}

func (sh *shell) raw(ctx context.Context, cmd string, op catalog.Operation, args []string) error {
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	switch cmd {
	case "inq":
		res, err := sh.cam.Inquire(ctx, op, params...)
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, formatResult(res))
	case "start":
		h, err := sh.cam.Start(ctx, op, params...)
		if err != nil {
			return err
		}
		sh.last = h
		fmt.Fprintf(sh.out, "Started %s\n", op)
	default:
		if err := sh.cam.Do(ctx, op, params...); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%s completed\n", op)
	}
	return nil
}
