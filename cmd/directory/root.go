package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/directory/node"
)

// app holds state shared by every subcommand after flag parsing.
type app struct {
	configFile string
	verbose    bool

	cfg    *node.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "directory",
		Short:        "Run and query a replicated agent directory",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to a JSON or YAML config file")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable debug logging to stderr")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newClientCmds(a)...)

	return root
}

func (a *app) init() error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if a.configFile == "" {
		cfg := node.DefaultConfig()
		a.cfg = &cfg
		return nil
	}

	cfg, err := node.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
