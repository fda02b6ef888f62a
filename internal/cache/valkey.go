// Package cache provides Valkey (Redis-compatible) client initialization
// and the rendered-page cache for the public EcoTrack site.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// ConnectValkey dials host:port, selects db and waits for a PONG.
func ConnectValkey(host, port, password string, db int) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:        net.JoinHostPort(host, port),
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey %s: %w", opts.Addr, err)
	}

	slog.Info("valkey connected", "addr", opts.Addr, "db", db)
	return client, nil
}
