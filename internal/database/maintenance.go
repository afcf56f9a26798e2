package database

import (
	"context"
	"fmt"
	"time"

	"latency-dashboard/internal/models"
)

// PruneHistory deletes history records older than days and returns how many went
func (db *DB) PruneHistory(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	// record timestamps sort lexically in TimestampLayout
	cutoff := time.Now().AddDate(0, 0, -days).Format(models.TimestampLayout)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        DELETE FROM measurement_targets
        WHERE measurement_id IN (SELECT id FROM measurements WHERE timestamp < ?)
    `, cutoff); err != nil {
		return 0, fmt.Errorf("prune targets: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune measurements: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune measurements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	// Vacuum to reclaim space (run occasionally)
	if removed > 0 && time.Now().Day() == 1 {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return removed, fmt.Errorf("vacuum: %w", err)
		}
	}

	return removed, nil
}
