package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestRunner_RunsJobOnTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ran := make(chan struct{}, 1)
	r := NewRunner("test", time.Minute, clock, discardLogger(), func(ctx context.Context) {
		ran <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run after tick")
	}
}

func TestRunner_StopsOnContextCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ran := make(chan struct{}, 1)
	r := NewRunner("test", time.Minute, clock, discardLogger(), func(ctx context.Context) {
		ran <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	clock.BlockUntil(1)
	cancel()

	// Give the loop a moment to observe the cancel, then tick.
	time.Sleep(50 * time.Millisecond)
	clock.Advance(time.Minute)

	select {
	case <-ran:
		t.Fatal("job ran after context cancel")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRunner_SkipsOverlappingRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r := NewRunner("test", time.Minute, clockwork.NewFakeClock(), discardLogger(), func(ctx context.Context) {
		close(started)
		<-release
	})

	go r.RunOnce(context.Background())
	<-started

	assert.False(t, r.RunOnce(context.Background()))
	close(release)
}
