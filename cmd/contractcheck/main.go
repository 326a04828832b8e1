// Package main runs the contract and scenario checks against a target API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"contractcheck/config"
	"contractcheck/internal/apiclient"
	"contractcheck/internal/contract"
	"contractcheck/internal/logging"
	"contractcheck/internal/observability"
	"contractcheck/internal/results"
	"contractcheck/internal/scenario"
	"contractcheck/internal/storage"
	"contractcheck/internal/version"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitBroken = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	versionFlag := flag.Bool("version", false, "Print version information")
	scenarioDir := flag.String("scenarios", "", "Directory of scenario files (overrides SCENARIO_DIR)")
	only := flag.String("only", "", "Comma-separated scenario names to run")
	history := flag.Int("history", 0, "Print the N most recent stored runs and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		return exitOK
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		return exitBroken
	}
	if *scenarioDir != "" {
		cfg.Runner.ScenarioDir = *scenarioDir
	}

	logger, err := logging.New(cfg.Logging.Format, cfg.Logging.Level, os.Stderr)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		return exitBroken
	}
	slog.SetDefault(logger)

	redacted := cfg.Redacted()
	slog.Info("starting contractcheck",
		"version", version.Version,
		"commit", version.Commit,
		"base_url", redacted.Target.BaseURL,
		"parallelism", redacted.Runner.Parallelism,
		"storage", redacted.Storage.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openResults(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize run history", "error", err)
		return exitBroken
	}
	defer closeStore()

	if *history > 0 {
		return printHistory(ctx, store, *history)
	}

	contracts := contract.NewRegistry()
	contractDir := filepath.Join(cfg.Runner.ScenarioDir, "contracts")
	if err := contracts.LoadDir(contractDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load contracts", "dir", contractDir, "error", err)
		return exitBroken
	}

	scenarios, err := loadScenarios(cfg.Runner.ScenarioDir)
	if err != nil {
		slog.Error("failed to load scenarios", "dir", cfg.Runner.ScenarioDir, "error", err)
		return exitBroken
	}
	if *only != "" {
		scenarios = scenario.Filter(scenarios, strings.Split(*only, ","))
		if len(scenarios) == 0 {
			slog.Error("no scenarios match -only", "only", *only)
			return exitBroken
		}
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:    cfg.Target.BaseURL,
		AuthToken:  cfg.Target.AuthToken,
		Timeout:    cfg.Target.Timeout.Std(),
		MaxRetries: cfg.Target.MaxRetries,
	})

	metrics := observability.NewMetrics()
	runner := scenario.NewRunner(client, contracts,
		scenario.WithVariables(map[string]string{
			"username": cfg.Target.LoginUsername,
			"password": cfg.Target.LoginPassword,
		}),
		scenario.WithObserver(metrics),
		scenario.WithLogger(logger),
	)

	report := scenario.NewSuite(runner, cfg.Runner.Parallelism).Run(ctx, scenarios)
	if err := report.WriteText(os.Stdout); err != nil {
		slog.Error("failed to write report", "error", err)
	}

	metrics.ObserveRun(report.StartedAt.Add(report.Duration), report.Duration)
	if cfg.Metrics.File != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.File); err != nil {
			slog.Error("failed to write metrics", "path", cfg.Metrics.File, "error", err)
		}
	}

	if store != nil {
		run := results.NewRun(report, cfg.Target.BaseURL)
		if err := store.WriteRun(ctx, run); err != nil {
			slog.Error("failed to store run", "error", err)
		} else {
			slog.Info("run stored", "run_id", run.ID)
		}
	}

	switch report.ExitCode() {
	case 0:
		return exitOK
	case 2:
		return exitBroken
	default:
		return exitFailed
	}
}

// loadScenarios returns the built-in scenarios followed by those in dir.
// A missing directory only yields the built-ins.
func loadScenarios(dir string) ([]*scenario.Scenario, error) {
	scenarios := scenario.Builtin(scenario.BuiltinOptions{})
	if dir == "" {
		return scenarios, nil
	}
	fromFiles, err := scenario.LoadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("scenario directory not found, running built-in scenarios only", "dir", dir)
			return scenarios, nil
		}
		return nil, err
	}
	return append(scenarios, fromFiles...), nil
}

func openResults(ctx context.Context, cfg *config.Config) (results.Store, func(), error) {
	if cfg.Storage.Type == config.StorageNone || cfg.Storage.Type == "" {
		return nil, func() {}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	backend, err := storage.New(openCtx, storage.FromConfig(cfg.Storage))
	if err != nil {
		return nil, nil, err
	}
	store, err := results.New(openCtx, backend)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close results store", "error", err)
		}
		if err := backend.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}
	return store, closeFn, nil
}

func printHistory(ctx context.Context, store results.Store, limit int) int {
	if store == nil {
		slog.Error("-history requires RESULTS_STORAGE to be set")
		return exitBroken
	}
	runs, err := store.RecentRuns(ctx, limit)
	if err != nil {
		slog.Error("failed to read run history", "error", err)
		return exitBroken
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  passed=%d failed=%d broken=%d  %s\n",
			r.StartedAt.Format(time.RFC3339), r.ID, r.Passed, r.Failed, r.Broken, r.BaseURL)
		for _, s := range r.Scenarios {
			if s.Status != string(scenario.StatusPassed) {
				fmt.Printf("    %-8s %s\n", s.Status, s.Name)
			}
		}
	}
	return exitOK
}
