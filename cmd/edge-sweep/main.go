package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edge-sweep/internal/config"
	"github.com/ironsheep/edge-sweep/internal/pipeline"
	"github.com/ironsheep/edge-sweep/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "edge-sweep %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return 0
		case "--help", "-h", "help":
			printUsage(stdout)
			return 0
		case "serve":
			return runServe(args[1:], stderr)
		}
	}
	return runSweep(args, stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "edge-sweep - compare Canny edge density across threshold pairs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  edge-sweep [options]          Run the sweep and write edge masks")
	fmt.Fprintln(w, "  edge-sweep serve [options]    Run as an MCP server on stdin/stdout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -config path      TOML configuration file")
	fmt.Fprintln(w, "  -source loc       Image path or http(s) URL")
	fmt.Fprintln(w, "  -out dir          Output directory for images")
	fmt.Fprintln(w, "  -detector name    canny (default) or opencv")
	fmt.Fprintln(w, "  -debug            Enable debug logging")
	fmt.Fprintln(w, "  --version, -v     Print version information")
	fmt.Fprintln(w, "  --help, -h        Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s, %s, %s,\n", config.EnvConfig, config.EnvSource, config.EnvOutputDir)
	fmt.Fprintf(w, "  %s, %s=debug\n", config.EnvDetector, config.EnvLogLevel)
	fmt.Fprintln(w, "  A .env file in the working directory is loaded first.")
}

type cliFlags struct {
	config   string
	source   string
	out      string
	detector string
	debug    bool
}

func parseFlags(name string, args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	f := &cliFlags{}
	fs.StringVar(&f.config, "config", "", "TOML configuration file")
	fs.StringVar(&f.source, "source", "", "image path or http(s) URL")
	fs.StringVar(&f.out, "out", "", "output directory")
	fs.StringVar(&f.detector, "detector", "", "edge detector: canny or opencv")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return f, nil
}

// loadConfig layers defaults, the TOML file, the environment and flags.
func loadConfig(f *cliFlags) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path := f.config
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if f.source != "" {
		cfg.Source = f.source
	}
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	if f.detector != "" {
		cfg.Detector.Name = f.detector
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// initLogger writes to stderr so stdout stays free for the report and the
// MCP protocol.
func initLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)

	if lvl >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	return logger, nil
}

func setup(name string, args []string, stderr io.Writer) (*config.Config, *logrus.Logger, bool) {
	f, err := parseFlags(name, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, true
		}
		fmt.Fprintf(stderr, "edge-sweep: %v\n", err)
		return nil, nil, false
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "edge-sweep: %v\n", err)
		return nil, nil, false
	}

	logger, err := initLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "edge-sweep: invalid log level: %v\n", err)
		return nil, nil, false
	}
	logger.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
	}).Debug("Starting edge-sweep")
	return cfg, logger, true
}

func runSweep(args []string, stdout, stderr io.Writer) int {
	cfg, logger, ok := setup("edge-sweep", args, stderr)
	if cfg == nil {
		return exitCode(ok)
	}

	p, err := pipeline.New(cfg, stdout, logger)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return 1
	}
	if _, err := p.Run(context.Background()); err != nil {
		logger.WithError(err).Error("Sweep failed")
		return 1
	}
	return 0
}

func runServe(args []string, stderr io.Writer) int {
	cfg, logger, ok := setup("edge-sweep serve", args, stderr)
	if cfg == nil {
		return exitCode(ok)
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return 1
	}

	server.Version = Version
	logger.Info("MCP server listening on stdio")
	if err := server.New(cfg, logger).Run(context.Background()); err != nil {
		logger.WithError(err).Error("Server error")
		return 1
	}
	return 0
}

func exitCode(ok bool) int {
	if ok {
		return 0
	}
	return 1
}
