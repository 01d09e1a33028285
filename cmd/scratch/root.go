package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-scratch/config"
	"github.com/goliatone/go-scratch/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev" // set with -ldflags during release builds

type rootOptions struct {
	configPath string
	envFiles   []string
	debug      bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scratch",
		Short: "Scratch - a simple note taking app",
		Long: `Scratch serves the note taking web app.

The shell restores the visitor's session on every request and renders the
navigation bar around the routed pages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Dotenv files to load (default .env)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Debug logging and config dump")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "scratch version %s\n", version)
		},
	})
	cmd.AddCommand(newServeCmd(opts, out))
	cmd.AddCommand(newMigrateCmd(opts, out))

	return cmd
}

// load reads the config and builds the logger every command shares
func (o *rootOptions) load(out io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath, o.envFiles...)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	if o.debug {
		cfg.Logging.Level = "debug"
		cfg.Database.Debug = true
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format, out)

	if o.debug {
		log.Debug().Msg("config:\n" + print.MaybePrettyJSON(redacted(*cfg)))
	}

	return cfg, log, nil
}

func redacted(cfg config.Config) config.Config {
	if cfg.Auth.SigningKey != "" {
		cfg.Auth.SigningKey = "[redacted]"
	}
	return cfg
}

// Execute runs the root command
func Execute() error {
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
