package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned by Connect when no URL is set.
var ErrNotConfigured = errors.New("redis: UPSTASH_REDIS_URL not configured")

type Config struct {
	URL      string // redis://host:port or rediss://host:port for TLS
	Password string // overrides the password embedded in URL
}

// Options translates cfg into go-redis options. rediss:// enables TLS.
func Options(cfg Config) (*redis.Options, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("redis: URL %q has no host", cfg.URL)
	}

	useTLS := parsed.Scheme == "rediss"
	addr := parsed.Host
	if parsed.Port() == "" {
		addr += ":6379"
	}

	password := cfg.Password
	if password == "" && parsed.User != nil {
		password, _ = parsed.User.Password()
	}

	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if parsed.User != nil && parsed.User.Username() != "" && parsed.User.Username() != "default" {
		opts.Username = parsed.User.Username()
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// Connect opens a client and verifies it with PING.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: connection failed: %w", err)
	}
	return client, nil
}

// HealthCheck pings client; a nil client reports not configured.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return ErrNotConfigured
	}
	return client.Ping(ctx).Err()
}
