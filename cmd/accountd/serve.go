// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/infinitejoke/accounts/internal/account"
	"github.com/infinitejoke/accounts/internal/account/postgres"
	accountredis "github.com/infinitejoke/accounts/internal/account/redis"
	"github.com/infinitejoke/accounts/internal/config"
	"github.com/infinitejoke/accounts/internal/httpapi"
	"github.com/infinitejoke/accounts/internal/logging"
	"github.com/infinitejoke/accounts/internal/mail"
	"github.com/infinitejoke/accounts/internal/observability"
	"github.com/infinitejoke/accounts/internal/session"
	"github.com/infinitejoke/accounts/internal/store"
	"github.com/infinitejoke/accounts/internal/xdg"
)

const (
	serviceName       = "accountd"
	shutdownTimeout   = 10 * time.Second
	readinessTimeout  = 2 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account API server",
		Long: `Start the HTTP API under /api: register, login, logout, me,
forgot-password and change-password. Settings come from flags, the
--config file (default $XDG_CONFIG_HOME/accountd/config.yaml when present)
and the DATABASE_URL, REDIS_PASSWORD and SMTP_PASSWORD
environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := xdg.ResolveConfigFile(configFile)
			if err != nil {
				return err //nolint:wrapcheck // already coded by xdg
			}
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err //nolint:wrapcheck // already coded by config
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// runServeWithDeps starts the API with injectable dependencies and blocks
// until a signal arrives, ctx is cancelled or a server fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	})

	logger.Info("starting accountd",
		"http_addr", cfg.HTTPAddr,
		"log_format", cfg.LogFormat,
		"mailer", cfg.Mailer,
	)

	if cfg.AutoMigrate {
		if err := autoMigrate(logger, cfg.DatabaseURL, deps.MigratorFactory); err != nil {
			return err
		}
	}

	pool, err := deps.PostgresConnector(ctx, cfg.DatabaseURL)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	rdb, err := deps.RedisConnector(ctx, store.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return oops.With("operation", "connect to redis").Wrap(err)
	}
	defer func() {
		if closeErr := rdb.Close(); closeErr != nil {
			logger.Debug("error closing redis client", "error", closeErr)
		}
	}()

	logger.Info("connected to redis", "addr", cfg.RedisAddr)

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		return oops.With("operation", "create mailer").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, readiness(pool, rdb))
		metrics = obsServer.Metrics()
	}

	svc, err := account.NewService(
		postgres.NewUserRepository(pool),
		accountredis.NewTokenStore(rdb),
		account.NewArgon2idHasher(cfg.Argon2()),
		mailer,
		account.WithLogger(logger),
		account.WithRecorder(metrics),
		account.WithResetURL(cfg.ResetURL),
		account.WithResetTokenTTL(cfg.ResetTokenTTL),
	)
	if err != nil {
		return oops.With("operation", "create account service").Wrap(err)
	}

	handler := httpapi.NewHandler(svc,
		session.NewStore(rdb, session.WithTTL(cfg.SessionTTL)),
		httpapi.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure},
	)
	httpServer := &http.Server{
		Handler:           httpapi.NewRouter(handler, httpapi.Options{Logger: logger, Recorder: metrics}),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	listener, err := deps.ListenerFactory("tcp", cfg.HTTPAddr)
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", cfg.HTTPAddr).Wrap(err)
	}

	if obsServer != nil {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			if closeErr := listener.Close(); closeErr != nil {
				logger.Debug("error closing API listener", "error", closeErr)
			}
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	cmd.Println("accountd started")
	logger.Info("accountd ready", "http_addr", listener.Addr().String())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case serveErr := <-errChan:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// autoMigrate applies pending migrations before the server starts.
func autoMigrate(logger *slog.Logger, databaseURL string, factory func(string) (AutoMigrator, error)) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	logger.Info("database schema is up to date")
	return nil
}

func newMailer(cfg *config.Config, logger *slog.Logger) (account.Mailer, error) {
	if cfg.Mailer != config.MailerSMTP {
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return sender, nil
}

// readiness reports ready while both stores answer a ping.
func readiness(pool Pool, rdb RedisClient) observability.ReadinessChecker {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return false
		}
		return rdb.Ping(ctx).Err() == nil
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when an error is received, the channel is closed or ctx is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
