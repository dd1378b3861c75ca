// ollama-chat - A terminal chat client for a local Ollama server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/ollama-chat/internal/cli"
	"github.com/jeranaias/ollama-chat/internal/config"
	"github.com/jeranaias/ollama-chat/internal/controller"
	"github.com/jeranaias/ollama-chat/internal/engine"
	"github.com/jeranaias/ollama-chat/internal/export"
	"github.com/jeranaias/ollama-chat/internal/generation"
	"github.com/jeranaias/ollama-chat/internal/logging"
	"github.com/jeranaias/ollama-chat/internal/ollama"
	"github.com/jeranaias/ollama-chat/internal/session"
	"github.com/jeranaias/ollama-chat/internal/ui/chat"
	"github.com/jeranaias/ollama-chat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without the exit, so deferred cleanup always happens.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cli.PrintUsage(os.Stderr)
		return 2
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return 0
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return 0
	}

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		log = logging.Nop()
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.BaseURL,
		Timeout:      cfg.Ollama.Timeout.Duration,
		ListTimeout:  cfg.Ollama.ListTimeout.Duration,
		DefaultModel: cfg.Ollama.DefaultModel,
	})
	lister := ollama.NewModelLister(client, cfg.Ollama.ModelCacheTTL.Duration, log)

	listCtx, cancel := context.WithTimeout(ctx, cfg.Ollama.ListTimeout.Duration)
	err = client.CheckRunning(listCtx)
	var models []string
	if err == nil {
		models, err = ollama.RequireModels(listCtx, lister)
	}
	cancel()
	if err != nil {
		log.Error("startup aborted", zap.String("url", cfg.Ollama.BaseURL), zap.Error(err))
		fmt.Fprintln(os.Stderr, "No models found. Make sure Ollama is running: ollama serve")
		return 1
	}

	eng, err := engine.New(ctx, ollama.NewChatModel(client),
		engine.WithThreadStore(engine.NewThreadStore(cfg.Generation.ThreadTTL.Duration)),
		engine.WithStreaming(cfg.Generation.Stream),
		engine.WithLogger(log))
	if err != nil {
		log.Error("build engine", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	coord := generation.New(eng,
		generation.WithTimeout(cfg.Generation.Timeout.Duration),
		generation.WithLogger(log))
	defer coord.Close()

	ctl := controller.New(
		session.NewStore(session.WithLogger(log)),
		coord,
		export.FileSink{Perm: 0644},
		models,
		controller.WithForgetter(eng),
		controller.WithDefaultModel(cfg.Ollama.DefaultModel),
		controller.WithExportDir(cfg.Export.Dir),
		controller.WithExportFormat(cfg.Export.DefaultFormat),
		controller.WithLogger(log),
	)

	log.Info("ollama-chat started",
		zap.String("version", Version),
		zap.String("command", cmd.String()),
		zap.String("url", client.BaseURL()),
		zap.Int("models", len(models)),
		zap.String("model", ctl.Model()))

	switch {
	case cmd == cli.CmdModels:
		infos, listErr := client.ListModels(ctx)
		if listErr != nil {
			log.Warn("list model details", zap.Error(listErr))
			cli.PrintModels(os.Stdout, ctl.Models(), ctl.Model())
			return 0
		}
		cli.PrintModelDetails(os.Stdout, infos, ctl.Model())
		return 0
	case cmd == cli.CmdChat || !cli.CanRunTUI():
		err = runREPL(ctx, ctl, lister, cfg, log)
	default:
		err = runTUI(ctl, lister, cfg, log)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the config file named by --config, or the default one,
// and applies the --model override.
func loadConfig(args cli.Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if args.Model != "" {
		cfg.Ollama.DefaultModel = args.Model
	}
	return cfg, nil
}

func runTUI(ctl *controller.Controller, models controller.ModelCatalog, cfg *config.Config, log *zap.Logger) error {
	m := chat.New(ctl, styles.NewTheme(cfg.UI.CodeStyle), chat.Config{
		PollInterval:   cfg.Generation.PollInterval.Duration,
		SidebarWidth:   cfg.UI.SidebarWidth,
		ShowTimestamps: cfg.UI.ShowTimestamps,
		Logger:         log,
		Models:         models,
	})
	return chat.Run(m)
}

func runREPL(ctx context.Context, ctl *controller.Controller, models controller.ModelCatalog, cfg *config.Config, log *zap.Logger) error {
	editor := cli.NewLineEditor()
	defer editor.Close()

	repl := cli.NewREPL(ctl, editor, os.Stdout, cli.REPLConfig{
		PollInterval: cfg.Generation.PollInterval.Duration,
		Profile:      cli.GetColorProfile(),
		CodeStyle:    cfg.UI.CodeStyle,
		Width:        cli.GetTerminalWidth(),
		Logger:       log,
		Models:       models,
	})
	return repl.Run(ctx)
}
