// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

// Package store connects to PostgreSQL and Redis and manages the schema.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions controls how Connect waits for the database.
type ConnectOptions struct {
	// Attempts is the number of pings tried before giving up.
	Attempts uint64
	// Backoff is the initial delay between pings. It doubles each attempt.
	Backoff time.Duration
}

// DefaultConnectOptions waits a little under a minute for the database.
var DefaultConnectOptions = ConnectOptions{Attempts: 8, Backoff: 250 * time.Millisecond}

type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool and pings the database until it answers or the
// attempts run out.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitFor(ctx, "postgres", pool, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitFor(ctx context.Context, name string, p pinger, opts ConnectOptions) error {
	if opts.Attempts == 0 {
		opts.Attempts = DefaultConnectOptions.Attempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultConnectOptions.Backoff
	}

	backoff := retry.WithMaxRetries(opts.Attempts-1, retry.NewExponential(opts.Backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_UNREACHABLE").
			With("store", name).
			With("attempts", opts.Attempts).
			Wrap(err)
	}
	return nil
}
