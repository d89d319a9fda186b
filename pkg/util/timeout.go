package util

import (
	"context"
	"time"
)

// Timeout derives a context from parent that expires after duration.
// A non-positive duration means no deadline, only the parent's cancellation.
func Timeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, duration)
}

// Sleep pauses for duration or until ctx is done, whichever comes first
func Sleep(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
