package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoPropagatesFirstError(t *testing.T) {
	t.Parallel()

	sup := New(context.Background())
	want := errors.New("boom")
	sup.Go("worker", func(ctx context.Context) error { return want })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Wait(ctx); !errors.Is(err, want) {
		t.Fatalf("Wait = %v, want %v", err, want)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	t.Parallel()

	sup := New(context.Background())
	sup.Go0("worker", func(ctx context.Context) { panic("boom") })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := sup.Wait(ctx)
	if err == nil {
		t.Fatal("panic should surface as an error")
	}
}

func TestCancelOnErrorStopsSiblings(t *testing.T) {
	t.Parallel()

	sup := New(context.Background(), WithCancelOnError(true))

	stopped := make(chan struct{})
	sup.Go0("sibling", func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	})
	sup.Go("failing", func(ctx context.Context) error { return errors.New("boom") })

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("sibling not canceled after error")
	}
}

func TestContextCanceledIsCleanStop(t *testing.T) {
	t.Parallel()

	sup := New(context.Background())
	sup.Go("worker", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop = %v, want nil", err)
	}
}

func TestWaitHonorsDeadline(t *testing.T) {
	t.Parallel()

	sup := New(context.Background())
	release := make(chan struct{})
	sup.Go0("stuck", func(ctx context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sup.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
	close(release)
}

func TestGoRestartRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	sup := New(context.Background())
	var runs atomic.Int32
	sup.GoRestart("flaky", func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithRestartBackoff(time.Millisecond, 5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Wait(ctx); err != nil {
		t.Fatalf("Wait = %v", err)
	}
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs = %d, want 3", got)
	}
}

func TestGoRestartStopsOnCancel(t *testing.T) {
	t.Parallel()

	sup := New(context.Background())
	sup.GoRestart("loop", func(ctx context.Context) error {
		return errors.New("always fails")
	}, WithRestartBackoff(time.Millisecond, 5*time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sup.Stop(ctx); err != nil {
		t.Fatalf("Stop = %v", err)
	}
}
