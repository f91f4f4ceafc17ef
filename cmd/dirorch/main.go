package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/andrew-pa/dirorch/internal/cliux"
	"github.com/andrew-pa/dirorch/internal/config"
	"github.com/andrew-pa/dirorch/internal/logging"
	"github.com/andrew-pa/dirorch/internal/runtimestate"
	"github.com/andrew-pa/dirorch/internal/store"
	"github.com/andrew-pa/dirorch/internal/workflow"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:      "dirorch",
		Usage:     "Directory-backed workflow orchestrator",
		ArgsUsage: "<workflow>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Usage: "workflow root directory", Value: "."},
			&cli.IntFlag{Name: "retries", Usage: "override the configured retry count (>= 0)", Value: -1},
			&cli.StringFlag{Name: "state-file", Usage: "runtime state filename, resolved under root", Value: ".dirorch_runtime.json"},
			&cli.StringFlag{Name: "log-level", Usage: "DEBUG, INFO, WARNING, or ERROR", Value: "INFO"},
			&cli.BoolFlag{Name: "dry-run", Usage: "print the phase plan without executing anything"},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", cliux.Bold, cliux.Reset, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	workflowArg := cmd.Args().First()
	if workflowArg == "" {
		return fmt.Errorf("workflow argument is required")
	}

	root, err := filepath.Abs(cmd.String("root"))
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	configPath, err := config.ResolvePath(workflowArg)
	if err != nil {
		return fmt.Errorf("resolving workflow %q: %w", workflowArg, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if retries := cmd.Int("retries"); retries >= 0 {
		cfg.Retries = int(retries)
	}

	log, err := logging.New(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer log.Sync()
	log = log.With("run_id", uuid.NewString())

	if cmd.Bool("dry-run") {
		cliux.PrintDryRun(os.Stdout, cfg, root)
		return nil
	}

	s := store.New(root)
	statePath := runtimestate.Path(root, cmd.String("state-file"))
	st := runtimestate.New(statePath)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := workflow.New(cfg, s, st, log)
	return eng.Run(ctx)
}
