package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/audioscribe/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastRetry(3), func(int) (string, error) {
		calls++
		return "hello", nil
	})
	if err != nil || got != "hello" {
		t.Fatalf("expected hello, got %q (%v)", got, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RetriesServiceErrors(t *testing.T) {
	var attempts []int
	got, err := Retry(context.Background(), fastRetry(3), func(attempt int) (string, error) {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return "", errors.ServiceError("transcription", nil)
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q (%v)", got, err)
	}
	if len(attempts) != 3 || attempts[2] != 3 {
		t.Errorf("unexpected attempts %v", attempts)
	}
}

func TestRetry_DoesNotRetryUnauthorized(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(5), func(int) (int, error) {
		calls++
		return 0, errors.Unauthorized("")
	})
	if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_DoesNotRetryPlainErrors(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), fastRetry(3), func(int) (int, error) {
		calls++
		return 0, stderrors.New("plain")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(2), func(int) (int, error) {
		calls++
		return 0, errors.Timeout("transcribe")
	})
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if !errors.HasCode(err, errors.ErrCodeServiceError) {
		t.Errorf("expected SERVICE_ERROR, got %v", err)
	}
}

func TestRetry_ZeroValueMeansSingleAttempt(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), RetryConfig{}, func(int) (int, error) {
		calls++
		return 0, errors.ServiceError("x", nil)
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if (RetryConfig{}).Enabled() {
		t.Error("zero config should not be enabled")
	}
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	_, err := Retry(ctx, cfg, func(int) (int, error) {
		calls++
		return 0, errors.ServiceError("x", nil)
	})
	if calls != 1 {
		t.Errorf("expected no call after cancel, got %d", calls)
	}
	if !errors.HasCode(err, errors.ErrCodeServiceError) {
		t.Errorf("expected last error to be returned, got %v", err)
	}
}

func TestRetry_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(ctx, fastRetry(3), func(int) (int, error) {
		t.Fatal("fn must not run")
		return 0, nil
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackoff_ExponentialAndCapped(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 350 * time.Millisecond, BackoffFactor: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := Backoff(i+1, cfg); got != w {
			t.Errorf("attempt %d: expected %s, got %s", i+1, w, got)
		}
	}
}

func TestBackoff_JitterWithinBounds(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2, Jitter: 0.5}
	for range 50 {
		d := Backoff(1, cfg)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered backoff out of range: %s", d)
		}
	}
}
