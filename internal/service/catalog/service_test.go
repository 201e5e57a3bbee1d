package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository/memory"
	"github.com/brookside/clinic-portal/internal/service/catalog"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

func TestEntryCaching(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCatalogRepository()
	repo.Put(model.TestCatalogEntry{TestID: "cbc", Name: "Complete Blood Count", Code: "CBC", UnitPrice: decimal.NewFromFloat(49.99)})
	svc := catalog.NewService(repo)

	entry, err := svc.Entry(ctx, "cbc")
	require.NoError(t, err)
	assert.True(t, entry.UnitPrice.Equal(decimal.NewFromFloat(49.99)))

	// A price change is invisible until the cache entry is dropped
	repo.Put(model.TestCatalogEntry{TestID: "cbc", Name: "Complete Blood Count", Code: "CBC", UnitPrice: decimal.NewFromFloat(59.99)})

	cached, err := svc.Entry(ctx, "cbc")
	require.NoError(t, err)
	assert.True(t, cached.UnitPrice.Equal(decimal.NewFromFloat(49.99)))

	svc.Invalidate("cbc")
	fresh, err := svc.Entry(ctx, "cbc")
	require.NoError(t, err)
	assert.True(t, fresh.UnitPrice.Equal(decimal.NewFromFloat(59.99)))
}

func TestEntryUnknownTest(t *testing.T) {
	svc := catalog.NewService(memory.NewCatalogRepository())

	_, err := svc.Entry(context.Background(), "nope")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}
