package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testPolicy(delays *[]time.Duration) RetryPolicy {
	policy := DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return policy
}

func TestRetryOnConnectivityError(t *testing.T) {
	var delays []time.Duration
	policy := testPolicy(&delays)

	calls := 0
	result, err := DoWithRetry(context.Background(), policy, nil, "op", func() (string, error) {
		calls++
		if calls < 3 {
			return "", &ConnectivityError{Op: "op", Err: errors.New("connection refused")}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %q, want ok", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestBackoffSequenceIsCapped(t *testing.T) {
	var delays []time.Duration
	policy := testPolicy(&delays)

	connErr := &ConnectivityError{Op: "op", Err: errors.New("timeout")}
	calls := 0
	_, err := DoWithRetry(context.Background(), policy, nil, "op", func() (int, error) {
		calls++
		return 0, connErr
	})
	if err != connErr {
		t.Fatalf("err = %v, want last connectivity error", err)
	}
	if calls != 6 {
		t.Errorf("calls = %d, want 6 (1 initial + 5 retries)", calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestRemoteErrorIsNotRetried(t *testing.T) {
	var delays []time.Duration
	policy := testPolicy(&delays)

	remoteErr := &RemoteError{Status: 400, Message: "not allowed"}
	calls := 0
	_, err := DoWithRetry(context.Background(), policy, nil, "op", func() (int, error) {
		calls++
		return 0, remoteErr
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	var got *RemoteError
	if !errors.As(err, &got) || got.Message != "not allowed" {
		t.Errorf("err = %v, want the remote error back unchanged", err)
	}
	if len(delays) != 0 {
		t.Errorf("slept %v, want no sleeps", delays)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultRetryPolicy()
	policy.Sleep = sleepContext

	cancel()
	_, err := DoWithRetry(ctx, policy, nil, "op", func() (int, error) {
		return 0, &ConnectivityError{Op: "op", Err: errors.New("unreachable")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestErrorText(t *testing.T) {
	if got := ErrorText(&RemoteError{Status: 400, Message: "not allowed"}); got != "not allowed" {
		t.Errorf("ErrorText(remote) = %q, want server message only", got)
	}
	plain := errors.New("boom")
	if got := ErrorText(plain); got != "boom" {
		t.Errorf("ErrorText(plain) = %q", got)
	}
	if got := ErrorText(nil); got != "" {
		t.Errorf("ErrorText(nil) = %q", got)
	}
}
