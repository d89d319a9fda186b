package ble

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/Krajiyah/ble-spp/pkg/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// nextBackoffDelay returns the delay before attempt N (1-based)
func nextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return 0
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-2))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// retry runs fn up to attempts times, sleeping with backoff in between.
// Only connection setup is retried: attribute reads and writes move the peer's
// transfer state and are never repeated.
// onFailure, when set, sees every failed attempt. A ctx that ends between attempts
// aborts the loop with ctx.Err() as the cause.
func retry(ctx context.Context, attempts int, backoff BackoffConfig, logger zerolog.Logger, method string, onFailure func(attempt int, err error), fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if e := util.Sleep(ctx, nextBackoffDelay(backoff, attempt, rng)); e != nil {
			if err == nil {
				return errors.Wrap(e, method+" aborted")
			}
			return errors.Wrapf(e, "%s aborted after: %v", method, err)
		}
		err = util.CatchErrs(func() error { return fn(attempt) })
		if err == nil {
			return nil
		}
		logger.Warn().Err(err).Int("attempt", attempt).Str("method", method).Msg("retrying")
		if onFailure != nil {
			onFailure(attempt, err)
		}
	}
	return errors.Wrapf(err, "%s exceeded %d attempts", method, attempts)
}
