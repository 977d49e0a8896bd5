package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hays/plex-mcp/config"
	"github.com/hays/plex-mcp/sentry"
	"github.com/hays/plex-mcp/server"
)

var version = "0.1.0"

type flags struct {
	configPath string
	transport  string
	host       string
	port       int
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "plex-mcp",
		Short:         "MCP server for controlling a Plex Media Server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			return err
		},
	}
	root.Flags().StringVar(&f.configPath, "config", "", "Path to config file (default: ~/.plex-mcp/config.yaml)")
	root.Flags().StringVar(&f.transport, "transport", "", "Transport protocol: stdio or sse")
	root.Flags().StringVar(&f.host, "host", "", "Host to bind the SSE server to")
	root.Flags().IntVar(&f.port, "port", 0, "Port for the SSE server")
	root.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newConfigCmd())
	return root
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no config path given and home directory is unknown")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	// Flags take precedence over file and environment.
	fs := cmd.Flags()
	if fs.Changed("transport") {
		cfg.Server.Transport = f.transport
	}
	if fs.Changed("host") {
		cfg.Server.Host = f.host
	}
	if fs.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fs.Changed("debug") {
		cfg.Server.Debug = f.debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := sentry.Init(cfg.Sentry.DSN, cfg.Sentry.Environment, version); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer sentry.Flush()
	defer sentry.RecoverPanic()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(cfg, logger, server.WithVersion(version))
	if err != nil {
		return err
	}

	err = srv.Run(ctx)
	switch {
	case errors.Is(err, io.EOF):
		logger.Info("Client disconnected")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("Shutting down")
		return nil
	}
	return err
}

// newLogger writes to stderr; stdout belongs to the stdio transport.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
