package canonicalrecord

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const TableName = "canonical_records"

// Repository reads and loads canonical records
type Repository struct {
	db     database.DB
	table  *database.Table[models.CanonicalRecord]
	logger ectologger.Logger
}

// NewRepository creates a new canonical record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		table:  database.NewTable[models.CanonicalRecord](TableName, "id", db.Flavor()),
		logger: logger,
	}
}

// Find runs a store query against canonical_records
func (r *Repository) Find(ctx context.Context, q store.Query) ([]models.CanonicalRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalrecord.Repository.Find")
	defer span.End()

	records, err := r.table.Find(ctx, r.db, q)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find canonical records")
		return nil, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records)}).Debug("Found canonical records")
	return records, nil
}

// Upsert inserts or replaces records by id
func (r *Repository) Upsert(ctx context.Context, records []models.CanonicalRecord) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "canonicalrecord.Repository.Upsert")
	defer span.End()

	n, err := r.table.Upsert(ctx, r.db, records)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert canonical records")
		return 0, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": n}).Info("Upserted canonical records")
	return n, nil
}
