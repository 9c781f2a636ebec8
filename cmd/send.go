package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/pkg/catalog"
	"github.com/benarent/viscago/pkg/session"
)

func newSendCmd() *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "send <camera> <operation> [params...]",
		Short: "Send one command and wait for its completion",
		Long: `Send one catalog command to a camera. Parameters are decimal or 0x-prefixed
hex integers in the order listed by "viscago ops".`,
		Example: `  viscago send 1 zoom_direct 0x2000
  viscago send 2 pan_tilt_absolute 24 20 -300 120`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}
			op := catalog.Operation(args[1])

			ctx := cmd.Context()
			s, err := connect(ctx, events.New())
			if err != nil {
				return err
			}
			defer s.Close()

			h, err := s.SendCommand(ctx, address, op, params)
			if err != nil {
				return err
			}
			if noWait {
				fmt.Fprintf(cmd.OutOrStdout(), "%s sent to camera %d\n", op, address)
				return nil
			}
			if err := h.Wait(ctx); err != nil {
				return fmt.Errorf("%s failed: %w", op, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s completed on camera %d socket %d\n", op, address, h.Socket())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return once the command is on the wire")
	return cmd
}

func newInquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "inquire <camera> <operation>",
		Aliases: []string{"inq"},
		Short:   "Send one inquiry and print the decoded reply",
		Example: `  viscago inquire 1 zoom_position_inq`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := connect(ctx, events.New())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.SendInquiry(ctx, address, catalog.Operation(args[1]), params...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatResult(res))
			return nil
		},
	}
}

func newAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Run Address-Set on the chain and report the camera count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			scfg := opts.Session()
			s, err := session.Dial(ctx, opts.Transport(), scfg)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.SetAddress(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d camera(s) addressed\n", n)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	var camera int

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear command buffers on every camera, or one with --camera",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := connect(ctx, events.New())
			if err != nil {
				return err
			}
			defer s.Close()

			if camera == 0 {
				if err := s.ClearAll(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All cameras cleared")
				return nil
			}
			h, err := s.SendCommand(ctx, camera, catalog.IFClear, nil)
			if err != nil {
				return err
			}
			if err := h.Wait(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Camera %d cleared\n", camera)
			return nil
		},
	}
	cmd.Flags().IntVar(&camera, "camera", 0, "clear only this camera")
	return cmd
}

func parseAddress(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid camera address %q", s)
	}
	return n, nil
}

// parseParams accepts decimal, 0x hex and negative values.
func parseParams(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseInt(a, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q", a)
		}
		out = append(out, int(v))
	}
	return out, nil
}

func formatResult(res catalog.Result) string {
	parts := make([]string, len(res.Fields))
	for i, f := range res.Fields {
		parts[i] = fmt.Sprintf("%s=%d (0x%X)", f, res.Values[i], res.Values[i])
	}
	return strings.Join(parts, " ")
}
