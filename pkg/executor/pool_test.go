package executor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/downfa11-org/snapshotcore/pkg/executor"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	p := executor.New("test", 2, 4)
	defer p.Close()

	var n int32
	done := make(chan struct{})
	ok := p.Submit(func(ctx context.Context) {
		atomic.AddInt32(&n, 1)
		close(done)
	})
	if !ok {
		t.Fatal("expected Submit to accept the job")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run in time")
	}
	if atomic.LoadInt32(&n) != 1 {
		t.Fatalf("expected job to run once, got %d", n)
	}
}

func TestPoolRejectsAfterClose(t *testing.T) {
	p := executor.New("test", 1, 1)
	p.Close()

	if p.Submit(func(context.Context) {}) {
		t.Fatal("expected Submit to reject after Close")
	}
}

func TestDefaultIsASingleton(t *testing.T) {
	if executor.Default() != executor.Default() {
		t.Fatal("expected Default() to return the same pool instance")
	}
}
