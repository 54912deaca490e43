package detection

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(ctx context.Context) *AsyncRunner {
	return NewAsyncRunner(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAsyncRunner_RunsSubmittedTasks(t *testing.T) {
	runner := newTestRunner(context.Background())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		runner.Submit(func(_ context.Context) {
			ran.Add(1)
		})
	}

	runner.Close()
	assert.Equal(t, int32(5), ran.Load())
}

func TestAsyncRunner_TasksOutliveRequestCancellation(t *testing.T) {
	reqCtx, cancel := context.WithCancel(context.Background())
	runner := newTestRunner(reqCtx)
	cancel()

	done := make(chan error, 1)
	runner.Submit(func(ctx context.Context) {
		select {
		case <-ctx.Done():
			done <- ctx.Err()
		case <-time.After(50 * time.Millisecond):
			done <- nil
		}
	})

	select {
	case err := <-done:
		assert.NoError(t, err, "task context must not inherit request cancellation")
	case <-time.After(time.Second):
		t.Fatal("task did not finish")
	}
	runner.Close()
}

func TestAsyncRunner_CloseWaitsForInFlightTasks(t *testing.T) {
	runner := newTestRunner(context.Background())

	var finished atomic.Bool
	started := make(chan struct{})
	runner.Submit(func(_ context.Context) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	runner.Close()
	assert.True(t, finished.Load(), "Close returned before the task finished")
}

func TestAsyncRunner_SubmitAfterCloseRunsInline(t *testing.T) {
	runner := newTestRunner(context.Background())
	runner.Close()

	var ran bool
	runner.Submit(func(_ context.Context) {
		ran = true
	})

	require.True(t, ran, "post-close submissions must run before Submit returns")
}

func TestAsyncRunner_RecoversFromPanics(t *testing.T) {
	runner := newTestRunner(context.Background())

	runner.Submit(func(_ context.Context) {
		panic("boom")
	})
	runner.Close()

	// A second task still runs after a panicked one.
	var ran atomic.Bool
	runner.Submit(func(_ context.Context) {
		ran.Store(true)
	})
	assert.True(t, ran.Load())
}
