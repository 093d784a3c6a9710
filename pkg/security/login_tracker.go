package security

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type LoginTrackerConfig struct {
	MaxAttempts   int           // failed attempts before a block
	AttemptWindow time.Duration // window in which attempts are counted
	BlockDuration time.Duration
	UseIPTracking bool // also count and block by client IP
}

func DefaultLoginTrackerConfig() LoginTrackerConfig {
	return LoginTrackerConfig{
		MaxAttempts:   5,
		AttemptWindow: 15 * time.Minute,
		BlockDuration: 15 * time.Minute,
		UseIPTracking: true,
	}
}

const (
	failLoginUserPrefix    = "fail:login:user:"
	failLoginIPPrefix      = "fail:login:ip:"
	blockedLoginUserPrefix = "blocked:login:user:"
	blockedLoginIPPrefix   = "blocked:login:ip:"
)

// LoginTracker counts failed logins per email and IP and blocks both once
// the threshold is reached.
type LoginTracker struct {
	config LoginTrackerConfig
	store  CounterStore
	logger *SecurityLogger
}

func NewLoginTracker(config LoginTrackerConfig, store CounterStore, logger *SecurityLogger) *LoginTracker {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultLoginTrackerConfig().MaxAttempts
	}
	if logger == nil {
		logger = DefaultLogger()
	}
	return &LoginTracker{config: config, store: store, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsBlocked reports whether email or ip is under an active block.
func (lt *LoginTracker) IsBlocked(ctx context.Context, email, ip string) (bool, error) {
	ttl, err := lt.store.TTL(ctx, blockedLoginUserPrefix+normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("check user block: %w", err)
	}
	if ttl > 0 {
		return true, nil
	}
	if lt.config.UseIPTracking && ip != "" {
		ttl, err = lt.store.TTL(ctx, blockedLoginIPPrefix+ip)
		if err != nil {
			return false, fmt.Errorf("check ip block: %w", err)
		}
		if ttl > 0 {
			return true, nil
		}
	}
	return false, nil
}

// RecordFailedAttempt counts a failure and returns whether a block was created.
func (lt *LoginTracker) RecordFailedAttempt(ctx context.Context, email, ip, userAgent, requestID string) (bool, error) {
	email = normalizeEmail(email)
	count, _, err := lt.store.Incr(ctx, failLoginUserPrefix+email, lt.config.AttemptWindow)
	if err != nil {
		return false, fmt.Errorf("count failed login: %w", err)
	}
	if lt.config.UseIPTracking && ip != "" {
		_, _, _ = lt.store.Incr(ctx, failLoginIPPrefix+ip, lt.config.AttemptWindow)
	}

	lt.logger.LogLoginFailed(ctx, email, ip, userAgent, requestID, "invalid_credentials")

	if count < lt.config.MaxAttempts {
		return false, nil
	}
	if err := lt.store.SetFlag(ctx, blockedLoginUserPrefix+email, lt.config.BlockDuration); err != nil {
		return false, fmt.Errorf("set user block: %w", err)
	}
	if lt.config.UseIPTracking && ip != "" {
		_ = lt.store.SetFlag(ctx, blockedLoginIPPrefix+ip, lt.config.BlockDuration)
	}
	lt.logger.LogBlockCreated(ctx, "email", email, ip, lt.config.BlockDuration)
	return true, nil
}

// ClearAttempts resets the counters after a successful login.
func (lt *LoginTracker) ClearAttempts(ctx context.Context, email, ip string) error {
	keys := []string{failLoginUserPrefix + normalizeEmail(email)}
	if lt.config.UseIPTracking && ip != "" {
		keys = append(keys, failLoginIPPrefix+ip)
	}
	return lt.store.Del(ctx, keys...)
}

func (lt *LoginTracker) RemainingAttempts(ctx context.Context, email string) (int, error) {
	count, err := lt.store.Get(ctx, failLoginUserPrefix+normalizeEmail(email))
	if err != nil {
		return 0, err
	}
	if remaining := lt.config.MaxAttempts - count; remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}
