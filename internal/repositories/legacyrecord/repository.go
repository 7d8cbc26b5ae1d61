package legacyrecord

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const TableName = "legacy_records"

// Repository reads and loads legacy records
type Repository struct {
	db     database.DB
	table  *database.Table[models.LegacyRecord]
	logger ectologger.Logger
}

// NewRepository creates a new legacy record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		table:  database.NewTable[models.LegacyRecord](TableName, "id", db.Flavor()),
		logger: logger,
	}
}

// Find runs a store query against legacy_records.
// Sizes are stored as text, so callers filter sizes after the query instead of using Between.
func (r *Repository) Find(ctx context.Context, q store.Query) ([]models.LegacyRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "legacyrecord.Repository.Find")
	defer span.End()

	records, err := r.table.Find(ctx, r.db, q)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find legacy records")
		return nil, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(records)}).Debug("Found legacy records")
	return records, nil
}

// Upsert inserts or replaces records by id
func (r *Repository) Upsert(ctx context.Context, records []models.LegacyRecord) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "legacyrecord.Repository.Upsert")
	defer span.End()

	n, err := r.table.Upsert(ctx, r.db, records)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert legacy records")
		return 0, err
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": n}).Info("Upserted legacy records")
	return n, nil
}
