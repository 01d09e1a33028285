package main

import (
	"io"

	"github.com/goliatone/go-scratch/repository"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(out)
			if err != nil {
				return err
			}

			db, err := repository.Open(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if cfg.Database.Debug {
				db.AddQueryHook(repository.NewQueryLogger(log))
			}

			if down {
				if err := repository.Rollback(cmd.Context(), db); err != nil {
					return err
				}
				log.Info().Str("dsn", cfg.Database.DSN).Msg("database rolled back")
				return nil
			}

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}

			log.Info().Str("dsn", cfg.Database.DSN).Msg("database migrated")
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the last migration group")

	return cmd
}
