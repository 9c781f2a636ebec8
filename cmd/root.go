// Package cmd implements the viscago command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/benarent/viscago/internal/config"
	"github.com/benarent/viscago/internal/events"
	"github.com/benarent/viscago/internal/logging"
	"github.com/benarent/viscago/internal/simcam"
	"github.com/benarent/viscago/pkg/session"
	"github.com/benarent/viscago/pkg/transport"
)

var opts = config.Defaults()

var metricsServer *http.Server

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "viscago",
	Short: "Control VISCA PTZ cameras over serial, TCP or VISCA-over-IP",
	Long: `viscago drives Sony VISCA cameras on an RS-232 daisy chain or over the
network. Commands share one session engine that tracks command sockets and
correlates replies per camera.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadConfig(&opts, cmd); err != nil {
			return err
		}
		logging.Initialize(opts.Logging())
		return startMetrics(opts.MetricsListen)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		stopMetrics()
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.Config, "config", "c", opts.Config, "config file")
	pf.StringVar(&opts.TransportKind, "transport-kind", opts.TransportKind,
		"transport ("+kindList()+")")
	pf.StringVarP(&opts.TransportPort, "transport-port", "p", opts.TransportPort, "serial device")
	pf.IntVar(&opts.TransportBaud, "transport-baud", opts.TransportBaud, "serial baud rate")
	pf.StringVarP(&opts.TransportEndpoint, "transport-endpoint", "e", opts.TransportEndpoint, "host[:port] for tcp/udp, camera count for sim")
	pf.DurationVar(&opts.TransportReadTimeout, "transport-read-timeout", opts.TransportReadTimeout, "read poll interval")
	pf.IntVar(&opts.SessionSockets, "session-sockets", opts.SessionSockets, "command sockets per camera")
	pf.StringVar(&opts.SessionSocketPolicy, "session-socket-policy", opts.SessionSocketPolicy, "block or fail when sockets are busy")
	pf.DurationVar(&opts.SessionCommandTimeout, "session-command-timeout", opts.SessionCommandTimeout, "command deadline")
	pf.DurationVar(&opts.SessionInquiryTimeout, "session-inquiry-timeout", opts.SessionInquiryTimeout, "inquiry deadline")
	pf.IntVar(&opts.SessionInquiryRetries, "session-inquiry-retries", opts.SessionInquiryRetries, "inquiry re-sends after a timeout")
	pf.DurationVar(&opts.SessionCancelTimeout, "session-cancel-timeout", opts.SessionCancelTimeout, "how long a cancelled socket waits for confirmation")
	pf.BoolVar(&opts.SessionAutoAddress, "session-auto-address", opts.SessionAutoAddress, "run Address-Set on serial chains")
	pf.StringSliceVar(&opts.SessionCameras, "session-cameras", opts.SessionCameras, "camera addresses to register without Address-Set")
	pf.StringVar(&opts.MetricsListen, "metrics-listen", opts.MetricsListen, "serve Prometheus /metrics on this address")
	pf.StringVar(&opts.LoggingLevel, "logging-level", opts.LoggingLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&opts.LoggingFormat, "logging-format", opts.LoggingFormat, "log format (text, json)")
	pf.BoolVar(&opts.LoggingJournal, "logging-journal", opts.LoggingJournal, "also log to the systemd journal")

	rootCmd.AddCommand(
		newShellCmd(),
		newSendCmd(),
		newInquireCmd(),
		newAddressCmd(),
		newClearCmd(),
		newProbeCmd(),
		newPortsCmd(),
		newOpsCmd(),
		newVersionCmd(),
	)
}

func startMetrics(addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger := logging.GetLogger("cli")
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", addr)
	return nil
}

func stopMetrics() {
	if metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(ctx)
	metricsServer = nil
}

// connect opens the configured transport, starts a session and registers
// cameras: Address-Set on chains, otherwise the configured addresses or
// camera 1.
func connect(ctx context.Context, bus *events.Bus) (*session.Session, error) {
	logger := logging.GetLogger("cli")

	scfg := opts.Session()
	scfg.Events = bus
	s, err := session.Dial(ctx, opts.Transport(), scfg)
	if err != nil {
		return nil, err
	}

	cameras, err := opts.Cameras()
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	if len(cameras) == 0 && opts.SessionAutoAddress && isChain(transport.Kind(opts.TransportKind)) {
		n, err := s.SetAddress(ctx)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("address set failed: %w", err)
		}
		logger.Debug("Chain addressed", "cameras", n)
		return s, nil
	}

	if len(cameras) == 0 {
		cameras = []int{1}
	}
	for _, a := range cameras {
		if err := s.AddCamera(a); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func kindList() string {
	kinds := transport.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func isChain(kind transport.Kind) bool {
	switch kind {
	case transport.KindSerial, transport.KindTarm, simcam.Kind:
		return true
	}
	return false
}

// watch logs engine notifications that a caller would not otherwise see.
func watch(bus *events.Bus, logger *slog.Logger) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.ReplyDiscardedEvent) {
			logger.Debug("Reply discarded", "camera", e.Camera, "socket", e.Socket, "reason", e.Reason)
		}),
		bus.Subscribe(func(e events.NetworkChangeEvent) {
			logger.Warn("Camera reports network change, re-run address", "camera", e.Camera)
		}),
		bus.Subscribe(func(e events.TransportLostEvent) {
			logger.Error("Transport lost", "transport", e.Transport, "error", e.Err)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
