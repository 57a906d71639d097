package sweep

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingService struct {
	runs atomic.Int64
	err  error
}

func (c *countingService) ExpireStaleOrders(_ context.Context) (int64, error) {
	c.runs.Add(1)
	return 0, c.err
}

func TestSweeper_RunsImmediatelyAndOnTicks(t *testing.T) {
	service := &countingService{}
	sweeper := NewSweeper(service, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return service.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSweeper_KeepsRunningAfterErrors(t *testing.T) {
	service := &countingService{err: assert.AnError}
	sweeper := NewSweeper(service, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return service.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
