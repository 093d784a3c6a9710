package usecase

import (
	"context"
	"time"
)

// Pinger is any dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	deps map[string]Pinger
}

// NewHealthUsecase probes each named dependency. Nil entries are skipped.
func NewHealthUsecase(deps map[string]Pinger) HealthUsecase {
	clean := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			clean[name] = p
		}
	}
	return &healthUsecase{deps: clean}
}

// Check returns the status of every dependency and whether all are up.
func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result := map[string]string{"status": "ok"}
	healthy := true
	for name, p := range u.deps {
		if err := p.Ping(ctx); err != nil {
			result[name] = "down"
			healthy = false
			continue
		}
		result[name] = "up"
	}
	if !healthy {
		result["status"] = "degraded"
	}
	return result, healthy
}
