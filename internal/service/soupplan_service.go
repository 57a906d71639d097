package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Karlivar21/Bakari-Backend/internal/cache"
	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/Karlivar21/Bakari-Backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

// SoupPlanService serves the weekly plan through a cache-aside Redis layer.
// Cache errors fail open to the repository.
type SoupPlanService struct {
	repo  repository.SoupPlanRepository
	cache cache.SoupPlanCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewSoupPlanService(repo repository.SoupPlanRepository, planCache cache.SoupPlanCache) *SoupPlanService {
	return &SoupPlanService{repo: repo, cache: planCache}
}

func (s *SoupPlanService) Get(ctx context.Context) (*domain.SoupPlan, error) {
	v, err, _ := s.sfg.Do("soupplan", func() (interface{}, error) {
		if s.cache != nil {
			plan, err := s.cache.Get(ctx)
			if err == nil {
				return plan, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("soup plan cache get error: %v", err)
			}
		}

		plan, err := s.repo.Get(ctx)
		if errors.Is(err, repository.ErrSoupPlanNotFound) {
			return &domain.SoupPlan{}, nil
		}
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			go func() {
				if err := s.cache.Set(context.Background(), plan); err != nil {
					log.Printf("soup plan cache set error: %v", err)
				}
			}()
		}

		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SoupPlan), nil
}

func (s *SoupPlanService) Update(ctx context.Context, plan *domain.SoupPlan) error {
	for _, day := range plan.Days {
		if !domain.ValidSoupDay(day.Day) {
			return fmt.Errorf("%w: %q", ErrInvalidSoupDay, day.Day)
		}
	}

	if err := s.repo.Replace(ctx, plan); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx); err != nil {
			log.Printf("soup plan cache invalidate error: %v", err)
		}
	}
	return nil
}
