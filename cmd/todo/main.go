package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/todo/internal/cli"
	"github.com/idilsaglam/todo/internal/config"
	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/store/sqlstore"
	"github.com/idilsaglam/todo/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	flag.CommandLine.Usage = func() { cli.PrintHelp(os.Stderr) }
	cfg, args, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		ui.Fail(os.Stderr, err.Error())
		return 2
	}
	ui.SetTheme(cfg.Theme)

	// The full-screen UI owns the terminal, so its logs only go to a file.
	var fallback io.Writer = os.Stderr
	if cli.Interactive(args) {
		fallback = nil
	}
	logger, closer, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		Path:     cfg.LogFile,
		Fallback: fallback,
		Prefix:   "todo",
	})
	if err != nil {
		ui.Fail(os.Stderr, err.Error())
		return 1
	}
	defer closer.Close()
	logger.Debug("config loaded", "file", cfg.ConfigFile, "theme", ui.Current().Name, "filter", cfg.Filter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cli.Run(ctx, args, cli.Options{
		Group:   cfg.Group,
		Filter:  cfg.Filter(),
		Timeout: cfg.Timeout.Duration,
		Logger:  logger,
		Open: func(ctx context.Context) (cli.Store, error) {
			if cfg.DatabaseURL == "" {
				return nil, fmt.Errorf("database url is not set (use -db, %sDATABASE_URL or database_url in %s)",
					config.EnvPrefix, config.FileName)
			}
			s, err := sqlstore.Open(ctx, cfg.DatabaseURL, logger)
			if err != nil {
				return nil, err
			}
			if cfg.EnsureSchema {
				if err := s.EnsureSchema(ctx); err != nil {
					s.Close()
					return nil, err
				}
			}
			return s, nil
		},
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
