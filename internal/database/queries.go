package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"latency-dashboard/internal/models"
)

// SaveRecord appends record to the history log and makes its data the latest results
func (db *DB) SaveRecord(ctx context.Context, record models.HistoricalRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO measurements (timestamp, data) VALUES (?, ?)`,
		record.Timestamp, string(data))
	if err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("measurement id: %w", err)
	}

	position := 0
	var insertErr error
	record.Data.Each(func(target string, s models.TargetStatistics) {
		if insertErr != nil {
			return
		}
		_, insertErr = tx.ExecContext(ctx, `
            INSERT INTO measurement_targets (measurement_id, position, target, avg_ms, min_ms, max_ms, jitter_ms, packet_loss, protocol)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, id, position, target, s.Avg, s.Min, s.Max, s.Jitter, s.PacketLoss, s.Protocol)
		position++
	})
	if insertErr != nil {
		return fmt.Errorf("insert targets: %w", insertErr)
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO latest_results (id, timestamp, data) VALUES (1, ?, ?)
        ON CONFLICT(id) DO UPDATE SET timestamp = excluded.timestamp, data = excluded.data
    `, record.Timestamp, string(data)); err != nil {
		return fmt.Errorf("update latest: %w", err)
	}

	return tx.Commit()
}

// GetHistory returns every record in append order. Rows whose data cannot be
// decoded are skipped and logged.
func (db *DB) GetHistory(ctx context.Context) ([]models.HistoricalRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, timestamp, data FROM measurements ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.HistoricalRecord, 0)
	for rows.Next() {
		var id int64
		var ts, data string
		if err := rows.Scan(&id, &ts, &data); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rs := models.NewResultSet()
		if err := json.Unmarshal([]byte(data), rs); err != nil {
			db.logger.Warn("skipping undecodable history record",
				zap.Int64("id", id), zap.String("timestamp", ts), zap.Error(err))
			continue
		}
		records = append(records, models.HistoricalRecord{Timestamp: ts, Data: rs})
	}

	return records, rows.Err()
}

// ClearHistory removes every history record. The latest results are kept.
func (db *DB) ClearHistory(ctx context.Context) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM measurement_targets`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements`); err != nil {
		return err
	}
	return tx.Commit()
}

// GetLatest returns the results of the last measurement, empty when there is none
func (db *DB) GetLatest(ctx context.Context) (*models.ResultSet, error) {
	var data string
	err := db.QueryRowContext(ctx, `SELECT data FROM latest_results WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewResultSet(), nil
	}
	if err != nil {
		return nil, err
	}

	rs := models.NewResultSet()
	if err := json.Unmarshal([]byte(data), rs); err != nil {
		return nil, fmt.Errorf("decode latest results: %w", err)
	}
	return rs, nil
}

// ClearLatest forgets the latest results
func (db *DB) ClearLatest(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `DELETE FROM latest_results`)
	return err
}

// TargetSummary aggregates one target across the whole history
type TargetSummary struct {
	Target         string  `json:"target"`
	Measurements   int     `json:"measurements"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"` // over measurements where the target answered
	BestLatencyMs  float64 `json:"best_latency_ms"`
	WorstLatencyMs float64 `json:"worst_latency_ms"`
	AvgJitterMs    float64 `json:"avg_jitter_ms"`
	AvgPacketLoss  float64 `json:"avg_packet_loss"`
	FailedRuns     int     `json:"failed_runs"`
}

// GetTargetSummaries aggregates history per target, ordered by first appearance
func (db *DB) GetTargetSummaries(ctx context.Context) ([]TargetSummary, error) {
	query := `
        SELECT
            target,
            COUNT(*) as measurements,
            COALESCE(AVG(CASE WHEN avg_ms > 0 THEN avg_ms END), 0) as avg_latency,
            COALESCE(MIN(CASE WHEN avg_ms > 0 THEN min_ms END), 0) as best_latency,
            COALESCE(MAX(CASE WHEN avg_ms > 0 THEN max_ms END), 0) as worst_latency,
            COALESCE(AVG(CASE WHEN avg_ms > 0 THEN jitter_ms END), 0) as avg_jitter,
            ROUND(AVG(packet_loss), 2) as avg_loss,
            SUM(CASE WHEN avg_ms = 0 THEN 1 ELSE 0 END) as failed_runs
        FROM measurement_targets
        GROUP BY target
        ORDER BY MIN(measurement_id * 1000000 + position)
    `

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]TargetSummary, 0)
	for rows.Next() {
		var s TargetSummary
		if err := rows.Scan(&s.Target, &s.Measurements, &s.AvgLatencyMs, &s.BestLatencyMs,
			&s.WorstLatencyMs, &s.AvgJitterMs, &s.AvgPacketLoss, &s.FailedRuns); err != nil {
			return nil, fmt.Errorf("scan target summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
