package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brookside/clinic-portal/internal/model"
	apperrors "github.com/brookside/clinic-portal/pkg/errors"
)

func (r *catalogRepository) GetEntry(ctx context.Context, testID string) (*model.TestCatalogEntry, error) {
	query := `
		SELECT test_id, name, code, unit_price
		FROM test_catalog
		WHERE test_id = $1
	`
	var entry model.TestCatalogEntry
	err := r.db.GetContext(ctx, &entry, query, testID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("catalog entry")
	}
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to get catalog entry: %w", err))
	}
	return &entry, nil
}
