package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/metrics"
	"git.home.luguber.info/inful/bindery/internal/pipeline"
	"git.home.luguber.info/inful/bindery/internal/preview"
	"git.home.luguber.info/inful/bindery/internal/watch"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct{}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bindery.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Metrics bool             `help:"Expose Prometheus metrics on the preview server"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Dev   DevCmd   `cmd:"" help:"Development build with preview server and watch"`
	Proof ProofCmd `cmd:"" help:"Production-form build with preview and watch, no packaging"`
	Dist  DistCmd  `cmd:"" help:"Build and package the distributable archive"`
	Check CheckCmd `cmd:"" help:"Build, package, and run the external validator"`
	Init  InitCmd  `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadPlan loads config and assembles the task plan for a mode.
func loadPlan(root *CLI, mode config.Mode) (*config.Config, *pipeline.Plan, metrics.Recorder, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, nil, err
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if root.Metrics {
		rec = metrics.NewPrometheusRecorder(prom.NewRegistry())
	}

	plan, err := pipeline.New(cfg, mode, ".", rec)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, plan, rec, nil
}

// runWatching is the shared body of the dev and proof commands: build once,
// start the preview session, then watch until interrupted.
func runWatching(root *CLI, mode config.Mode, portOverride int) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, plan, rec, err := loadPlan(root, mode)
	if err != nil {
		return err
	}

	if err := plan.Registry.Run(sigctx, pipeline.TaskBuild); err != nil {
		return err
	}

	port := cfg.Preview.Port
	if portOverride != 0 {
		port = portOverride
	}
	opts := []preview.SessionOption{preview.WithRecorder(rec)}
	if cfg.Preview.StartPath != "" {
		opts = append(opts, preview.WithStartPath(path.Join(cfg.ContentDir, cfg.Preview.StartPath)+"/"))
	}

	session := preview.NewSession(plan.Paths.ServeRoot, port, opts...)
	if err := session.Start(sigctx); err != nil {
		return err
	}

	coord := watch.NewCoordinator(plan.Registry, session, plan.Paths.SourceContent, plan.Bindings)
	if err := coord.Run(sigctx); err != nil {
		return err
	}

	slog.Info("Shutting down")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	return session.Stop(stopCtx)
}
