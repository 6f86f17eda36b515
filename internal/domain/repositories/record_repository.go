package repositories

import (
	"context"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

// RecordRepository defines read access to open-house records
type RecordRepository interface {
	// ListAll returns every record in store order
	ListAll(ctx context.Context) ([]*entities.Record, error)

	// FacetOptions returns the distinct values offered for each facet
	FacetOptions(ctx context.Context) (*entities.FacetOptions, error)
}
