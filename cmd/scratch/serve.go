package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-scratch/config"
	"github.com/goliatone/go-scratch/identity"
	"github.com/goliatone/go-scratch/logging"
	"github.com/goliatone/go-scratch/repository"
	"github.com/goliatone/go-scratch/repository/redisstore"
	"github.com/goliatone/go-scratch/web"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(out)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.Debug {
		db.AddQueryHook(repository.NewQueryLogger(log))
	}

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	svcOpts := []identity.Option{
		identity.WithLogger(logging.NewAdapter(log, "identity")),
	}

	if cfg.Sessions.Backend == config.SessionBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Sessions.RedisAddr,
			DB:   cfg.Sessions.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "unable to reach redis").
				WithMetadata(map[string]any{"addr": cfg.Sessions.RedisAddr})
		}
		svcOpts = append(svcOpts, identity.WithSessionStore(redisstore.New(rdb)))
		log.Info().Str("addr", cfg.Sessions.RedisAddr).Msg("sessions stored in redis")
	}

	svc := identity.NewService(cfg.Auth, repository.NewRepositoryManager(db), svcOpts...)
	server := web.NewServer(cfg, svc, web.WithLogger(log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
