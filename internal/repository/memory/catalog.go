package memory

import (
	"context"

	"github.com/brookside/clinic-portal/internal/model"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

// CatalogRepository is a mutable in-memory test catalog. Unlike the other
// repositories it exposes Put, since the catalog collaborator has no write
// operation in the portal itself.
type CatalogRepository struct {
	*store
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{store: newStore()}
}

func (r *CatalogRepository) Put(entry model.TestCatalogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.Set(entry.TestID, &entry, 0)
}

func (r *CatalogRepository) GetEntry(ctx context.Context, testID string) (*model.TestCatalogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(testID)
	if !ok {
		return nil, apperrors.NotFound("catalog entry")
	}
	var out model.TestCatalogEntry
	if err := clone(v, &out); err != nil {
		return nil, apperrors.Unavailable(err)
	}
	return &out, nil
}
