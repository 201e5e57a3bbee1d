// Package catalog fronts the lab-test catalog collaborator with a short TTL
// cache. The catalog is consulted only at order placement; placed orders keep
// their own price snapshot and never read back through here.
package catalog

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
)

const (
	defaultTTL      = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
)

type Service struct {
	repo  repository.CatalogRepository
	cache *cache.Cache
}

func NewService(repo repository.CatalogRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(defaultTTL, cleanupInterval),
	}
}

// Entry returns the catalog entry for a test id, from cache when fresh.
func (s *Service) Entry(ctx context.Context, testID string) (*model.TestCatalogEntry, error) {
	if v, ok := s.cache.Get(testID); ok {
		entry := v.(model.TestCatalogEntry)
		return &entry, nil
	}

	entry, err := s.repo.GetEntry(ctx, testID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(testID, *entry, cache.DefaultExpiration)
	return entry, nil
}

// Invalidate drops a cached entry, for catalog admin flows that change prices.
func (s *Service) Invalidate(testID string) {
	s.cache.Delete(testID)
}
