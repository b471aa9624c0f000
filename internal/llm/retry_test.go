package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	orig := retrySleepFunc
	retrySleepFunc = noSleep
	defer func() { retrySleepFunc = orig }()

	attempts := 0
	err := withRetry(context.Background(), 3, func() error {
		attempts++
		if attempts < 3 {
			return &openai.APIError{HTTPStatusCode: 429}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetry_PermanentFailsFast(t *testing.T) {
	orig := retrySleepFunc
	retrySleepFunc = noSleep
	defer func() { retrySleepFunc = orig }()

	attempts := 0
	permanent := fmt.Errorf("decode verdict: bad payload")
	err := withRetry(context.Background(), 5, func() error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("permanent error retried: %d attempts", attempts)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	orig := retrySleepFunc
	retrySleepFunc = noSleep
	defer func() { retrySleepFunc = orig }()

	attempts := 0
	err := withRetry(context.Background(), 3, func() error {
		attempts++
		return &openai.APIError{HTTPStatusCode: 503}
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 502}, true},
		{"auth failure", &openai.APIError{HTTPStatusCode: 401}, false},
		{"bad request", &openai.APIError{HTTPStatusCode: 400}, false},
		{"http rate limit", &httpStatusError{status: 429, message: "slow down"}, true},
		{"http server error", &httpStatusError{status: 503, message: "model is loading"}, true},
		{"http not found", &httpStatusError{status: 404, message: "model not found"}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"cancel", context.Canceled, false},
		{"contract violation", errors.New("decode claims: invalid"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.transient {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.transient)
			}
		})
	}
}
