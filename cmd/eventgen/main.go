package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/hltjet/internal/config"
	"github.com/okian/hltjet/internal/eventgen"
	"github.com/okian/hltjet/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	runTimeout     = 10 * time.Minute
)

func main() {
	defaults := eventgen.DefaultConfig()
	var (
		baseURL  = flag.String("url", defaults.BaseURL, "Base URL of the service")
		events   = flag.Int("events", defaults.NumEvents, "Number of events to generate and submit")
		run      = flag.Uint("run", uint(defaults.Run), "Run number of the generated events")
		seed     = flag.Uint64("seed", defaults.Seed, "Seed of the event generator")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent requests")
		timeout  = flag.Duration("timeout", defaults.Timeout, "HTTP request timeout")
		attempts = flag.Uint("attempts", defaults.Attempts, "Attempts per request on 429/5xx")
		settle   = flag.Duration("settle", defaults.Settle, "How long to wait for the products of one event")
		output   = flag.String("output", "", "Optional JSON file receiving the generated events")
		verbose  = flag.Bool("verbose", false, "Log debug output and list every violation")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	// Collection labels follow the service configuration (file and env).
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	svcCfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cfg := &eventgen.Config{
		BaseURL:    *baseURL,
		NumEvents:  *events,
		Run:        uint32(*run),
		Workers:    *workers,
		Timeout:    *timeout,
		Attempts:   *attempts,
		Settle:     *settle,
		Seed:       *seed,
		OutputFile: *output,
		Verbose:    *verbose,
		Labels:     eventgen.LabelsFrom(svcCfg),
	}

	stats, err := eventgen.Run(ctx, cfg)
	if stats != nil {
		eventgen.Report(os.Stdout, stats, *verbose)
	}
	if err != nil {
		logger.Get().Error(ctx, "event generation failed", logger.Error(err))
		os.Exit(1)
	}
}
