package directions

import (
	"context"
	"errors"
	"log"
	"time"

	"itinera/models"
)

// RetryPolicy controls how often a failed provider call is retried before
// falling back to an estimate. Delays double per attempt up to MaxDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts:  3,
	BaseDelay: 250 * time.Millisecond,
	MaxDelay:  2 * time.Second,
}

// Resilient retries ProviderErrors from primary with backoff and, once the
// attempts are used up, answers with the Estimator. A nil primary means no
// live provider is configured and every request is estimated.
type Resilient struct {
	primary  Provider
	fallback Provider
	policy   RetryPolicy
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewResilient(primary Provider, policy RetryPolicy) *Resilient {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Resilient{
		primary:  primary,
		fallback: Estimator{},
		policy:   policy,
		sleep:    sleepCtx,
	}
}

func (r *Resilient) ComputeRoute(ctx context.Context, req Request) (*models.RouteResult, error) {
	if r.primary == nil {
		return r.fallback.ComputeRoute(ctx, req)
	}

	var lastErr *ProviderError
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		result, err := r.primary.ComputeRoute(ctx, req)
		if err == nil {
			return result, nil
		}

		// Only upstream failures are transient; bad input and caller
		// cancellation are returned as they are.
		if !errors.As(err, &lastErr) {
			return nil, err
		}
		log.Printf("[Directions] Attempt %d/%d failed: %v", attempt, r.policy.Attempts, err)

		if attempt < r.policy.Attempts {
			if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	log.Printf("[Directions] Provider exhausted (%s); using estimate", lastErr.Status)
	est, err := r.fallback.ComputeRoute(ctx, req)
	if err != nil {
		return nil, err
	}
	est.ProviderStatus = lastErr.Status
	return est, nil
}

func (r *Resilient) backoff(attempt int) time.Duration {
	d := r.policy.BaseDelay << (attempt - 1)
	if r.policy.MaxDelay > 0 && d > r.policy.MaxDelay {
		d = r.policy.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
