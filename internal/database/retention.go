// Gridwatch - Spreadsheet Audit Telemetry and Analytics
// Copyright 2026 Gridwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gridwatch/gridwatch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gridwatch/gridwatch/internal/logging"
	"github.com/gridwatch/gridwatch/internal/metrics"
)

// DeleteEventsBefore removes events older than cutoff in batches of
// batchSize rows, looping until a batch deletes fewer rows than the batch
// size. Each batch is its own statement, so progress made before a failure
// is preserved.
//
// Returns the total number of rows deleted, including rows deleted before
// an error occurred.
func (db *DB) DeleteEventsBefore(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1000
	}

	query := `DELETE FROM audit_events
		WHERE event_id IN (
			SELECT event_id FROM audit_events
			WHERE timestamp < ?
			LIMIT ?
		)`

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		// Each batch gets its own timeout so a long cleanup run is bounded
		// per statement, not in aggregate.
		batchCtx, cancel := db.opCtx(ctx)
		result, err := db.conn.ExecContext(batchCtx, query, cutoff.UTC(), batchSize)
		cancel()
		if err != nil {
			return total, fmt.Errorf("failed to delete event batch: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to read deleted row count: %w", err)
		}

		total += int(affected)
		metrics.RecordRetentionDeleted(int(affected))

		if int(affected) < batchSize {
			break
		}

		logging.Debug().
			Int("batch_deleted", int(affected)).
			Int("total_deleted", total).
			Msg("retention cleanup batch committed")
	}

	return total, nil
}
