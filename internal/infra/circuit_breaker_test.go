package infra

import (
	"testing"
	"time"
)

func newTestBreaker() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		if !cb.Allow() {
			t.Fatalf("request %d should be allowed while closed", i)
		}
		cb.RecordFailure()
	}

	if cb.State() != BreakerOpen {
		t.Errorf("expected OPEN, got %s", cb.State())
	}
	if cb.Allow() {
		t.Error("open breaker should reject requests")
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}

	// Wait out the open timeout; the next Allow transitions to half-open.
	time.Sleep(60 * time.Millisecond)
	if !cb.Allow() {
		t.Fatal("expected probe to be allowed after timeout")
	}
	if cb.State() != BreakerHalfOpen {
		t.Fatalf("expected HALF_OPEN, got %s", cb.State())
	}

	cb.RecordSuccess()
	cb.RecordSuccess()

	if cb.State() != BreakerClosed {
		t.Errorf("expected CLOSED after successful probes, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	time.Sleep(60 * time.Millisecond)
	cb.Allow() // half-open

	cb.RecordFailure()

	if cb.State() != BreakerOpen {
		t.Errorf("expected OPEN after failed probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker()

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != BreakerClosed {
		t.Errorf("interleaved successes should keep the breaker closed, got %s", cb.State())
	}
}
