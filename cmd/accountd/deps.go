// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package main

import (
	"context"
	"net"

	goredis "github.com/redis/go-redis/v9"

	"github.com/infinitejoke/accounts/internal/account/postgres"
	"github.com/infinitejoke/accounts/internal/observability"
	"github.com/infinitejoke/accounts/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PostgresConnector opens the user database.
	// Default: store.Connect
	PostgresConnector func(ctx context.Context, url string) (Pool, error)

	// RedisConnector opens the session and token store.
	// Default: store.ConnectRedis
	RedisConnector func(ctx context.Context, opts store.RedisOptions) (RedisClient, error)

	// MigratorFactory creates the migrator used when auto-migrate is on.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory creates the API listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}

	if out.PostgresConnector == nil {
		out.PostgresConnector = func(ctx context.Context, url string) (Pool, error) {
			pool, err := store.Connect(ctx, url, store.DefaultConnectOptions)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.RedisConnector == nil {
		out.RedisConnector = func(ctx context.Context, opts store.RedisOptions) (RedisClient, error) {
			client, err := store.ConnectRedis(ctx, opts, store.DefaultConnectOptions)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (AutoMigrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	return &out
}

// Pool is the database handle serve needs: queries for the user
// repository, plus ping and close. *pgxpool.Pool implements it.
type Pool interface {
	postgres.Pool
	Ping(ctx context.Context) error
	Close()
}

// RedisClient is implemented by *goredis.Client.
type RedisClient interface {
	goredis.Cmdable
	Close() error
}

// AutoMigrator interface wraps the methods used from store.Migrator at startup.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}
