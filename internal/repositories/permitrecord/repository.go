package permitrecord

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const TableName = "permit_records"

// Repository reads and loads permit records
type Repository struct {
	db     database.DB
	table  *database.Table[models.PermitRecord]
	logger ectologger.Logger
}

// NewRepository creates a new permit record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		table:  database.NewTable[models.PermitRecord](TableName, "id", db.Flavor()),
		logger: logger,
	}
}

// Find runs a store query against permit_records
func (r *Repository) Find(ctx context.Context, q store.Query) ([]models.PermitRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "permitrecord.Repository.Find")
	defer span.End()

	records, err := r.table.Find(ctx, r.db, q)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find permit records")
		return nil, err
	}

	// the permit key is never logged
	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records), "conditions": len(q.Conditions)}).Debug("Found permit records")
	return records, nil
}

// Upsert inserts or replaces records by id
func (r *Repository) Upsert(ctx context.Context, records []models.PermitRecord) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "permitrecord.Repository.Upsert")
	defer span.End()

	n, err := r.table.Upsert(ctx, r.db, records)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert permit records")
		return 0, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": n}).Info("Upserted permit records")
	return n, nil
}
