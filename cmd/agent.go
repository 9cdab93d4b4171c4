package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rviscarra/mirror-capture/internal/api"
	"github.com/rviscarra/mirror-capture/internal/capture"
	"github.com/rviscarra/mirror-capture/internal/config"
	"github.com/rviscarra/mirror-capture/internal/frame"
	"github.com/rviscarra/mirror-capture/internal/logging"
	"github.com/rviscarra/mirror-capture/internal/mirror"
	"github.com/rviscarra/mirror-capture/internal/rdisplay"
	"github.com/rviscarra/mirror-capture/internal/stream"
)

var (
	version = "0.1.0"
	cfgFile string

	flagScreen      int64
	flagFps         int
	flagFrames      int
	flagSnapshotDir string
	flagHTTP        string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "mirror-capture",
	Short: "Mirror driver screen capture agent",
	Long:  `mirror-capture - captures changed regions of the desktop or a single monitor through a mirror display driver`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var screensCmd = &cobra.Command{
	Use:   "screens",
	Short: "List the monitors and the desktop rectangle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScreens(cmd.OutOrStdout())
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether the capture driver can attach to the desktop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return probe(cmd.OutOrStdout())
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture frames until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("screen") {
			cfg.Screen = flagScreen
		}
		if f.Changed("fps") {
			cfg.Fps = flagFps
		}
		if f.Changed("frames") {
			cfg.Frames = flagFrames
		}
		if f.Changed("snapshot-dir") {
			cfg.SnapshotDir = flagSnapshotDir
		}
		if f.Changed("http") {
			cfg.HTTPListen = flagHTTP
		}
		for _, err := range cfg.Validate() {
			log.Warn("config", logging.KeyError, err)
		}
		return runCapture()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mirror-capture v%s\n", version)
	},
}

var (
	cfg       *config.Config
	logCloser io.Closer
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is capture.yaml in the config directory)")

	runCmd.Flags().Int64Var(&flagScreen, "screen", -1, "screen to capture, -1 for the entire desktop")
	runCmd.Flags().IntVar(&flagFps, "fps", 10, "capture rate in frames per second")
	runCmd.Flags().IntVar(&flagFrames, "frames", 0, "stop after this many frames, 0 for no limit")
	runCmd.Flags().StringVar(&flagSnapshotDir, "snapshot-dir", "", "write every Nth frame as PNG into this directory")
	runCmd.Flags().StringVar(&flagHTTP, "http", "", "serve diagnostics on host:port")

	rootCmd.AddCommand(screensCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		rf, err := logging.OpenRotatingFile(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = rf
		logCloser = rf
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, out)
	return nil
}

func newCapturer(display rdisplay.Service) *capture.Capturer {
	driver := mirror.NewPollDriver(cfg.TileSize, nil)
	return capture.New(display, driver, frame.NewAllocator(cfg.MaxFramePixels))
}

func listScreens(w io.Writer) error {
	display := rdisplay.NewScreenshotProvider()
	screens, err := display.Screens()
	if err != nil {
		return err
	}

	desktop := display.FullScreenRect()
	fmt.Fprintf(w, "desktop: %d,%d %dx%d\n", desktop.Min.X, desktop.Min.Y, desktop.Dx(), desktop.Dy())
	for _, s := range screens {
		primary := ""
		if s.Primary {
			primary = " (primary)"
		}
		fmt.Fprintf(w, "%d: %s %d,%d %dx%d%s\n", s.ID, s.Title,
			s.Bounds.Min.X, s.Bounds.Min.Y, s.Bounds.Dx(), s.Bounds.Dy(), primary)
	}
	return nil
}

func probe(w io.Writer) error {
	c := newCapturer(rdisplay.NewScreenshotProvider())
	defer c.Reset()

	if !c.ProbeAvailability() {
		fmt.Fprintln(w, "capture driver: unavailable")
		return errors.New("capture driver unavailable")
	}
	fmt.Fprintln(w, "capture driver: available")
	return nil
}

func runCapture() error {
	display := rdisplay.NewScreenshotProvider()
	c := newCapturer(display)
	defer c.Reset()

	if err := c.SelectScreen(rdisplay.ScreenID(cfg.Screen)); err != nil {
		return err
	}

	sinks := []stream.Sink{stream.NewLogSink()}
	if cfg.SnapshotDir != "" {
		snap, err := stream.NewSnapshotSink(cfg.SnapshotDir, cfg.SnapshotEvery, cfg.SnapshotWidth)
		if err != nil {
			return err
		}
		sinks = append(sinks, snap)
	}

	s := stream.New(c, cfg.Fps, sinks...)
	s.SetFrameLimit(cfg.Frames)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPListen != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPListen,
			Handler:           api.MakeHandler(display, c),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("diagnostics listening", "addr", cfg.HTTPListen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("diagnostics server stopped", logging.KeyError, err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	log.Info("capture starting",
		logging.KeyCapturer, c.ID(),
		logging.KeyScreen, c.Selection().ID,
		"fps", s.Fps(),
		"frames", cfg.Frames)

	err := s.Run(ctx)
	st := c.Stats()
	log.Info("capture stopped", "captures", st.Captures, "failures", st.Failures, "rebuilds", st.Rebuilds)
	return err
}
