package healthcheck

import (
	"context"
	"time"
)

// Pinger is anything that can be liveness-probed with a context
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPingChecker builds a checker around a pingable dependency
func NewPingChecker(name string, pinger Pinger, timeout time.Duration) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		start := time.Now()
		check := Check{
			Name:        name,
			Status:      StatusHealthy,
			LastChecked: start.UTC(),
		}

		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := pinger.Ping(pingCtx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		}
		check.Duration = time.Since(start)
		return check
	})
}
