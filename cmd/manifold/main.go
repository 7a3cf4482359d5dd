package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"manifold/internal/core/app"
	"manifold/internal/core/config"
	"manifold/internal/shared/observability"
)

var (
	configPath = flag.String("config", "./manifold.toml", "Path to config file")
	root       = flag.String("root", "", "Source root to track (overrides config)")
	once       = flag.Bool("once", false, "Build all segment manifests and exit")
	historyN   = flag.Int("history", 0, "Print the N most recent rebuilds and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("manifold v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx)
	if err != nil {
		slog.Warn("tracing setup failed", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	engine, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}

	if *historyN > 0 {
		printHistory(engine, *historyN)
		engine.Close()
		os.Exit(0)
	}

	engine.Bootstrap(ctx)

	if *once {
		engine.Close()
		os.Exit(0)
	}

	slog.Info("watching", "source_root", cfg.Paths.SourceRoot, "cache_root", cfg.Paths.CacheRoot)
	if err := engine.Run(ctx); err != nil {
		slog.Error("engine terminated", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithSourceRoot(*configPath, *root)
	if err != nil {
		if !os.IsNotExist(err) || isFlagSet("config") {
			return nil, err
		}
		// No config file: run against the given (or current) directory.
		sourceRoot := *root
		if sourceRoot == "" {
			sourceRoot = "."
		}
		return config.Default(sourceRoot)
	}
	return cfg, nil
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func printHistory(engine *app.Engine, n int) {
	store := engine.History()
	if store == nil {
		fmt.Fprintln(os.Stderr, "rebuild history is disabled; enable [history] in the config")
		return
	}
	rebuilds, err := store.Recent(n)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return
	}
	for _, r := range rebuilds {
		fmt.Printf("%s  %-32s  %-10s  files=%-4d  %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Segment, r.Trigger, r.Members, r.Duration)
	}
}
