package directions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/models"
)

// scriptedProvider returns errs in order, then result.
type scriptedProvider struct {
	errs   []error
	result *models.RouteResult
	calls  int
}

func (p *scriptedProvider) ComputeRoute(ctx context.Context, req Request) (*models.RouteResult, error) {
	p.calls++
	if p.calls <= len(p.errs) {
		return nil, p.errs[p.calls-1]
	}
	return p.result, nil
}

func noSleep(r *Resilient) *Resilient {
	r.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return r
}

func TestResilientRetriesThenSucceeds(t *testing.T) {
	want := &models.RouteResult{DistanceKm: 12}
	p := &scriptedProvider{
		errs:   []error{&ProviderError{Status: StatusTimeout}, &ProviderError{Status: StatusUnavailable}},
		result: want,
	}
	r := noSleep(NewResilient(p, DefaultRetryPolicy))

	got, err := r.ComputeRoute(context.Background(), NewRequest([]models.RouteStop{angelsCamp, murphys}, ""))
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 3, p.calls)
}

func TestResilientFallsBackToEstimate(t *testing.T) {
	fail := &ProviderError{Status: "OVER_QUERY_LIMIT"}
	p := &scriptedProvider{errs: []error{fail, fail, fail}}
	r := noSleep(NewResilient(p, DefaultRetryPolicy))

	got, err := r.ComputeRoute(context.Background(), NewRequest([]models.RouteStop{angelsCamp, murphys}, models.ModeWalking))
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
	assert.True(t, got.Estimated)
	assert.Equal(t, "OVER_QUERY_LIMIT", got.ProviderStatus)
	assert.Equal(t, models.ModeWalking, got.Mode)
}

func TestResilientDoesNotRetryInvalidInput(t *testing.T) {
	p := &scriptedProvider{errs: []error{&InvalidInputError{Field: "origin", Reason: "missing"}}}
	r := noSleep(NewResilient(p, DefaultRetryPolicy))

	_, err := r.ComputeRoute(context.Background(), Request{})
	var ierr *InvalidInputError
	assert.ErrorAs(t, err, &ierr)
	assert.Equal(t, 1, p.calls)
}

func TestResilientStopsOnCancellation(t *testing.T) {
	p := &scriptedProvider{errs: []error{&ProviderError{Status: StatusTimeout}, &ProviderError{Status: StatusTimeout}}}
	r := NewResilient(p, RetryPolicy{Attempts: 3, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := r.ComputeRoute(ctx, NewRequest([]models.RouteStop{angelsCamp, murphys}, ""))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, p.calls)
}

func TestResilientWithoutPrimaryEstimates(t *testing.T) {
	r := NewResilient(nil, DefaultRetryPolicy)
	got, err := r.ComputeRoute(context.Background(), NewRequest([]models.RouteStop{angelsCamp, murphys}, ""))
	require.NoError(t, err)
	assert.True(t, got.Estimated)
	assert.Empty(t, got.ProviderStatus)
}

func TestResilientBackoff(t *testing.T) {
	r := NewResilient(nil, RetryPolicy{Attempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond})
	assert.Equal(t, 100*time.Millisecond, r.backoff(1))
	assert.Equal(t, 200*time.Millisecond, r.backoff(2))
	assert.Equal(t, 300*time.Millisecond, r.backoff(3))
	assert.Equal(t, 300*time.Millisecond, r.backoff(4))
}
