package sweep

import (
	"context"
	"log"
	"time"
)

// ExpiryService transitions stale pending orders to expired.
type ExpiryService interface {
	ExpireStaleOrders(ctx context.Context) (int64, error)
}

// Sweeper runs the expiry pass on a fixed interval until its context is
// cancelled. One run also fires immediately at startup so orders left
// pending across a restart are not stuck for a full interval.
type Sweeper struct {
	service  ExpiryService
	interval time.Duration
}

func NewSweeper(service ExpiryService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{service: service, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.service.ExpireStaleOrders(ctx); err != nil {
		log.Printf("expiry sweep failed: %v", err)
	}
}
