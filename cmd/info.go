package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"

	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/internal/version"
	"github.com/benarent/viscago/pkg/camera"
	"github.com/benarent/viscago/pkg/catalog"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports and USB adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return fmt.Errorf("failed to list ports: %w", err)
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PORT\tUSB\tVID:PID\tSERIAL\tPRODUCT")
			for _, p := range ports {
				usb, id := "no", ""
				if p.IsUSB {
					usb, id = "yes", p.VID+":"+p.PID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, usb, id, p.SerialNumber, p.Product)
			}
			return w.Flush()
		},
	}
}

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List catalog operations and their parameters",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tKIND\tPARAMS\tDESCRIPTION")
			for _, d := range catalog.Operations() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Operation, d.Kind, describeParams(d), d.Description)
			}
			_ = w.Flush()
		},
	}
}

func describeParams(d catalog.Definition) string {
	if d.IsInquiry() {
		if len(d.Fields) == 0 {
			return "-"
		}
		return "-> " + strings.Join(d.Fields, " ")
	}
	if len(d.Params) == 0 {
		return "-"
	}
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = fmt.Sprintf("%s[%d..%d]", p.Name, p.Min, p.Max)
	}
	return strings.Join(names, " ")
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe [camera...]",
		Short: "Ask cameras for vendor, model, ROM version and socket count",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := connect(ctx, events.New())
			if err != nil {
				return err
			}
			defer s.Close()

			addresses := s.Cameras()
			if len(args) > 0 {
				addresses = addresses[:0]
				for _, a := range args {
					n, err := parseAddress(a)
					if err != nil {
						return err
					}
					addresses = append(addresses, n)
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CAMERA\tMODEL\tROM\tSOCKETS")
			for _, a := range addresses {
				c, err := camera.Attach(s, a)
				if err != nil {
					return err
				}
				caps, err := c.Probe(ctx)
				if err != nil {
					fmt.Fprintf(w, "%d\t%v\t\t\n", a, err)
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%04X\t%d\n", a, caps.ModelName, caps.ROMVersion, caps.Sockets)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	}
}
