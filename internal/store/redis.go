// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package store

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// RedisOptions locates the Redis server.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err() //nolint:wrapcheck // wrapped by waitFor
}

// ConnectRedis opens a Redis client and pings it until it answers or the
// attempts run out.
func ConnectRedis(ctx context.Context, ro RedisOptions, opts ConnectOptions) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     ro.Addr,
		Password: ro.Password,
		DB:       ro.DB,
	})

	if err := waitFor(ctx, "redis", redisPinger{client}, opts); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
