// Package main provides the rymbrowser command, which fetches
// rateyourmusic.com pages through a real browser and reports their titles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/entrhq/rymscraper/pkg/browser"
	"github.com/entrhq/rymscraper/pkg/config"
	"github.com/entrhq/rymscraper/pkg/logging"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Engine      string
	DriverPath  string
	Headed      bool
	MaxRestarts int
	OutputFile  string
	MetricsAddr string
	ShowVersion bool
	URLs        []string
}

// launcher is a browser.Launcher backed by a driver process that must be stopped.
type launcher interface {
	browser.Launcher
	Stop() error
}

// runtime holds the process-level dependencies of run
type runtime struct {
	lookupEnv   func(string) (string, bool)
	newLauncher func(install bool) (launcher, error)
	newLogger   func() (*logging.Logger, error)
	stdout      io.Writer
}

func defaultRuntime() runtime {
	return runtime{
		lookupEnv: os.LookupEnv,
		newLauncher: func(install bool) (launcher, error) {
			l, err := browser.NewPlaywrightLauncher(install)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
		newLogger: func() (*logging.Logger, error) {
			return logging.NewLogger("browser")
		},
		stdout: os.Stdout,
	}
}

func main() {
	cliConfig := parseFlags(os.Args[1:])

	if cliConfig.ShowVersion {
		fmt.Printf("rymbrowser v%s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cliConfig, defaultRuntime())
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "rymbrowser: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run result to the process status. A banned address is
// fatal like any other failure: nothing more can be fetched.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// parseFlags parses command line flags
func parseFlags(args []string) *CLIConfig {
	cliConfig := &CLIConfig{}
	fs := flag.NewFlagSet("rymbrowser", flag.ExitOnError)

	fs.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	fs.StringVar(&cliConfig.Engine, "engine", "", "Browser engine: edge, chrome, safari or firefox (overrides WEBDRIVER_NAME)")
	fs.StringVar(&cliConfig.DriverPath, "driver-path", "", "Browser executable path (overrides DRIVER_EXEC_PATH)")
	fs.BoolVar(&cliConfig.Headed, "headed", false, "Show the browser window")
	fs.IntVar(&cliConfig.MaxRestarts, "max-restarts", -1, "Maximum restarts per page when rate limited (0 = unlimited, -1 = from config)")
	fs.StringVar(&cliConfig.OutputFile, "output", "", "Write the HTML of the last fetched page to this file")
	fs.StringVar(&cliConfig.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	fs.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "rymbrowser - fetch rateyourmusic.com pages through a browser\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rymbrowser [options] URL...\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  WEBDRIVER_NAME=chrome rymbrowser https://rateyourmusic.com/artist/radiohead\n")
		fmt.Fprintf(os.Stderr, "  rymbrowser -config rymscraper.yaml -output page.html https://rateyourmusic.com/charts/\n\n")
	}

	_ = fs.Parse(args)
	cliConfig.URLs = fs.Args()
	return cliConfig
}

// resolveConfig layers file, environment and flags, in that order
func resolveConfig(cliConfig *CLIConfig, lookup func(string) (string, bool)) (*config.Config, error) {
	cfg, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(lookup)

	if cliConfig.Engine != "" {
		cfg.WebdriverName = cliConfig.Engine
	}
	if cliConfig.DriverPath != "" {
		cfg.DriverExecPath = cliConfig.DriverPath
	}
	if cliConfig.Headed {
		cfg.Headless = false
	}
	if cliConfig.MaxRestarts >= 0 {
		cfg.MaxRestarts = cliConfig.MaxRestarts
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cliConfig *CLIConfig, rt runtime) error {
	if len(cliConfig.URLs) == 0 {
		return errors.New("at least one URL is required")
	}

	cfg, err := resolveConfig(cliConfig, rt.lookupEnv)
	if err != nil {
		return err
	}

	logger, logErr := rt.newLogger()
	defer logger.Close()
	logger.SetLevel(cfg.LogLevel())
	if logErr == nil && logger.LogPath() != "" {
		fmt.Fprintf(os.Stderr, "Logging to %s (session %s)\n", logger.LogPath(), logger.SessionID())
	}

	options := []browser.Option{browser.WithLogger(logger)}
	if cliConfig.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics, err := browser.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		options = append(options, browser.WithMetrics(metrics))

		srv := serveMetrics(cliConfig.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	browsers, err := rt.newLauncher(cfg.InstallBrowsers)
	if err != nil {
		return err
	}
	defer func() {
		if err := browsers.Stop(); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	session, err := browser.New(cfg.BrowserOptions(), browsers, options...)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	var last *browser.Snapshot
	for _, url := range cliConfig.URLs {
		if err := session.GetURL(ctx, url); err != nil {
			if browser.IsFatal(err) {
				logger.Errorf("IP banned from rym, can't do any requests to the website, exiting")
			}
			return fmt.Errorf("failed to fetch %s: %w", url, err)
		}

		snap, err := session.Snapshot()
		if err != nil {
			return err
		}
		fmt.Fprintf(rt.stdout, "%s\t%s\n", url, snap.Title())
		last = snap
	}

	if cliConfig.OutputFile != "" && last != nil {
		if err := os.WriteFile(cliConfig.OutputFile, []byte(last.HTML()), 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	logger.Infof("fetched %d pages with %d browser restarts", len(cliConfig.URLs), session.Restarts())
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()
	return srv
}
