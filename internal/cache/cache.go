package cache

import (
	"context"
	"errors"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// SoupPlanCache keeps the weekly plan hot; reads vastly outnumber updates.
type SoupPlanCache interface {
	Get(ctx context.Context) (*domain.SoupPlan, error)
	Set(ctx context.Context, plan *domain.SoupPlan) error
	Delete(ctx context.Context) error
}
