package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const lastScanKey = "last_scan"

// LastScan records when the most recent scan finished and what it produced.
type LastScan struct {
	ScanID      string    `json:"scanId"`
	FinishedAt  time.Time `json:"finishedAt"`
	NewProjects int       `json:"newProjects"`
	Cancelled   bool      `json:"cancelled"`
}

// GetLastScan retrieves the last scan record, or nil when no scan has run.
func (db *DB) GetLastScan(ctx context.Context) (*LastScan, error) {
	var valueJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT value FROM app_state WHERE key = $1`, lastScanKey).Scan(&valueJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last scan: %w", err)
	}

	var last LastScan
	if err := json.Unmarshal(valueJSON, &last); err != nil {
		return nil, fmt.Errorf("failed to decode last scan: %w", err)
	}
	return &last, nil
}

// SetLastScan stores the last scan record.
func (db *DB) SetLastScan(ctx context.Context, last *LastScan) error {
	valueJSON, err := json.Marshal(last)
	if err != nil {
		return fmt.Errorf("failed to marshal last scan: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO app_state (key, value)
		 VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
		lastScanKey, valueJSON)
	if err != nil {
		return fmt.Errorf("failed to set last scan: %w", err)
	}
	return nil
}
