package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
)

// Table arguments accepted by import
const (
	tablePermits   = "permits"
	tableCanonical = "canonical"
	tableLegacy    = "legacy"
)

var importCmd = &cobra.Command{
	Use:   "import TABLE FILE",
	Short: "Upsert a JSON array of records into a record table",
	Long: `Upsert a JSON array of records into permits, canonical or legacy.

Rows are keyed by id, so re-importing a file updates it in place. When the
result cache is enabled it is purged afterwards so stale matches are not served.`,
	Example:   `  fern import permits permits.json`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{tablePermits, tableCanonical, tableLegacy},
	RunE:      runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	table, path := args[0], args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	db, err := database.Connect(ctx, app.DatabaseConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer db.Close()
	repos := repositories.New(db, logger)

	var n int
	switch table {
	case tablePermits:
		n, err = upsertJSON(ctx, data, repos.Permits.Upsert, func(r *models.PermitRecord) *string { return &r.ID })
	case tableCanonical:
		n, err = upsertJSON(ctx, data, repos.Canonical.Upsert, func(r *models.CanonicalRecord) *string { return &r.ID })
	case tableLegacy:
		n, err = upsertJSON(ctx, data, repos.Legacy.Upsert, func(r *models.LegacyRecord) *string { return &r.ID })
	default:
		return fmt.Errorf("unknown table %q, expected permits, canonical or legacy", table)
	}
	if err != nil {
		return err
	}
	logger.WithFields(map[string]any{"table": table, "rows": n}).Info("Imported records")

	if cfg.RedisEnabled {
		return purgeCache(ctx)
	}
	return nil
}

// upsertJSON decodes a record array and upserts it. Records without an id get a generated one.
func upsertJSON[T any](ctx context.Context, data []byte, upsert func(context.Context, []T) (int, error), id func(*T) *string) (int, error) {
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to parse records: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		if key := id(&records[i]); *key == "" {
			*key = uuid.NewString()
		}
	}
	return upsert(ctx, records)
}

func purgeCache(ctx context.Context) error {
	client, err := redis.NewClient(ctx, app.RedisConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = app.NewCache(cfg, client, logger).Purge(ctx)
	return err
}
