package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("down")

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(Config{FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = fixedClock(&now)

	calls := 0
	fail := func() error { calls++; return errDown }

	assert.ErrorIs(t, b.Execute(fail), errDown)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(fail), errDown)
	assert.Equal(t, StateOpen, b.State())

	assert.ErrorIs(t, b.Execute(fail), ErrOpen)
	assert.Equal(t, 2, calls, "open breaker must not call through")
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New(Config{FailureThreshold: 2})
	_ = b.Execute(func() error { return errDown })
	_ = b.Execute(func() error { return nil })
	_ = b.Execute(func() error { return errDown })
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = fixedClock(&now)

	_ = b.Execute(func() error { return errDown })
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	assert.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, b.State())
	assert.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{FailureThreshold: 1, Cooldown: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = fixedClock(&now)

	_ = b.Execute(func() error { return errDown })
	now = now.Add(2 * time.Minute)

	assert.ErrorIs(t, b.Execute(func() error { return errDown }), errDown)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, "open", b.State().String())
}

func TestBreakerSingleProbe(t *testing.T) {
	b := New(Config{FailureThreshold: 1, Cooldown: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = fixedClock(&now)

	_ = b.Execute(func() error { return errDown })
	now = now.Add(time.Minute)

	inner := error(nil)
	_ = b.Execute(func() error {
		inner = b.Execute(func() error { return nil })
		return nil
	})
	assert.ErrorIs(t, inner, ErrOpen, "a second call while probing is rejected")
}
