package security

import (
	"context"
	"fmt"
	"time"
)

// UploadLimiter caps profile uploads per IP per minute and per user per day.
type UploadLimiter struct {
	store        CounterStore
	maxPerMinute int
	maxPerDay    int
}

func NewUploadLimiter(store CounterStore, perMin, perDay int) *UploadLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	if perDay <= 0 {
		perDay = 50
	}
	return &UploadLimiter{store: store, maxPerMinute: perMin, maxPerDay: perDay}
}

// AllowUpload counts one upload and returns whether it fits both quotas,
// with a retry hint when it does not. Store errors fail open.
func (ul *UploadLimiter) AllowUpload(ctx context.Context, ip, userID string) (bool, time.Duration, error) {
	count, left, err := ul.store.Incr(ctx, "ratelimit:upload:ip:"+ip, time.Minute)
	if err != nil {
		return true, 0, fmt.Errorf("upload limiter unavailable: %w", err)
	}
	if count > ul.maxPerMinute {
		return false, left, nil
	}

	if userID == "" {
		return true, 0, nil
	}
	count, left, err = ul.store.Incr(ctx, "ratelimit:upload:user:"+userID, 24*time.Hour)
	if err != nil {
		return true, 0, fmt.Errorf("upload limiter unavailable: %w", err)
	}
	if count > ul.maxPerDay {
		return false, left, nil
	}
	return true, 0, nil
}
