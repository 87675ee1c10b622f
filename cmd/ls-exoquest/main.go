// Command ls-exoquest is a terminal explorer for exoplanet systems.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"golang.org/x/term"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/config"
	"github.com/litescript/ls-exoquest/internal/logging"
	"github.com/litescript/ls-exoquest/internal/observability"
	"github.com/litescript/ls-exoquest/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options holds the resolved configuration shared by every command.
type options struct {
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "ls-exoquest",
		Short: "Explore exoplanet systems in the terminal",
		Long: `ls-exoquest browses an exoplanet catalog and animates each planetary
system in the terminal. Without a subcommand it starts the interactive
explorer; the stars, scene and summary commands print catalog data instead.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/"+config.DirName+"/config.yaml)")
	pf.String("api-base", catalog.DefaultBaseURL, "catalog API base URL")
	pf.Duration("timeout", catalog.DefaultTimeout, "per-request timeout")
	pf.Int("page", 1, "catalog page")
	pf.String("search", "", "search term")
	pf.String("mission", "all", "mission filter (all, tess, koi)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.String("log-file", "", "write logs to this file")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	pf.Bool("tracing", false, "enable OpenTelemetry tracing")
	pf.String("tracing-exporter", "stdout", "trace exporter (stdout, otlp)")
	pf.String("tracing-endpoint", "", "OTLP gRPC endpoint")

	f := root.Flags()
	f.Float64("speed", 1, "initial animation speed")
	f.Int("fps", config.DefaultFPS, "animation frame rate")
	f.Bool("show-orbits", true, "draw orbit rings")
	f.Bool("show-labels", true, "draw planet labels")

	bind(opts.v, pf, map[string]string{
		config.KeyAPIBase:         "api-base",
		config.KeyTimeout:         "timeout",
		config.KeyPage:            "page",
		config.KeySearch:          "search",
		config.KeyMission:         "mission",
		config.KeyLogLevel:        "log-level",
		config.KeyLogFormat:       "log-format",
		config.KeyLogFile:         "log-file",
		config.KeyMetricsAddr:     "metrics-addr",
		config.KeyTracingEnabled:  "tracing",
		config.KeyTracingExporter: "tracing-exporter",
		config.KeyTracingEndpoint: "tracing-endpoint",
	})
	bind(opts.v, f, map[string]string{
		config.KeySpeed:      "speed",
		config.KeyFPS:        "fps",
		config.KeyShowOrbits: "show-orbits",
		config.KeyShowLabels: "show-labels",
	})

	root.AddCommand(
		newStarsCmd(opts),
		newSceneCmd(opts),
		newSummaryCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// bind maps config keys onto flags so that an explicitly set flag wins over
// the environment and the config file.
func bind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// load reads the config file and resolves flags, environment and defaults.
func (o *options) load() error {
	config.Setup(o.v, o.cfgFile)
	if err := config.ReadFile(o.v); err != nil {
		return err
	}
	cfg, err := config.Load(o.v)
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// app bundles the services a command needs.
type app struct {
	cfg     config.Config
	log     *logging.Logger
	client  *catalog.Client
	metrics *catalog.Metrics

	logFile  *os.File
	shutdown observability.ShutdownFunc
	stopHTTP func(context.Context)
}

// newApp wires logging, metrics, tracing and the catalog client. Interactive
// sessions never log to the terminal.
func newApp(ctx context.Context, cfg config.Config, stderr io.Writer, interactive bool) (*app, error) {
	a := &app{cfg: cfg}

	out := stderr
	if interactive {
		out = io.Discard
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		out = f
	}
	a.log = logging.NewWithOptions(logging.Options{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: out,
	}).With("version", version.Version)

	metrics, err := catalog.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = metrics
	srv := observability.ServeMetrics(cfg.MetricsAddr, metrics.Handler(), a.log)
	a.stopHTTP = func(ctx context.Context) { observability.StopMetrics(ctx, srv) }

	shutdown, err := observability.InitTracing(ctx, cfg, out, a.log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdown = shutdown

	a.client = catalog.NewClient(
		catalog.WithBaseURL(cfg.APIBase),
		catalog.WithTimeout(cfg.Timeout),
		catalog.WithMetrics(metrics),
		catalog.WithTracerProvider(otel.GetTracerProvider()),
	)
	a.log.Debug("catalog client ready: %s (timeout %s)", a.client.BaseURL(), cfg.Timeout)
	return a, nil
}

// Close flushes traces, stops the metrics server and closes the log file.
func (a *app) Close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	observability.ShutdownWithTimeout(ctx, a.shutdown, a.log)
	if a.stopHTTP != nil {
		a.stopHTTP(ctx)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
