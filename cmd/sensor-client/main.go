package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/sensorclient"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
)

// Default configuration constants.
const (
	defaultInterval   = 5 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 2 * time.Second
	defaultTimeout    = 10 * time.Second
)

func main() {
	var (
		serverURL  = flag.String("url", "http://localhost:8000/sensor", "Ingest endpoint")
		interval   = flag.Duration("interval", defaultInterval, "Pause between cycles")
		retries    = flag.Int("retries", defaultRetries, "Send attempts per reading")
		retryDelay = flag.Duration("retry-delay", defaultRetryDelay, "Pause between attempts")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sensorclient.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	// Run until SIGINT/SIGTERM; the runner reports stats on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &sensorclient.Config{
		ServerURL:    *serverURL,
		SendInterval: *interval,
		MaxRetries:   *retries,
		RetryDelay:   *retryDelay,
		Timeout:      *timeout,
		Verbose:      *verbose,
	}

	runner := sensorclient.NewRunner(config)
	runner.Run(ctx)
}
