package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RefreshRecord is one completed dashboard refresh cycle.
type RefreshRecord struct {
	ID          int64     `json:"id"`
	Trigger     string    `json:"trigger"`
	Days        int       `json:"days"`
	Jobs        int       `json:"jobs"`
	Failed      int       `json:"failed"`
	Succeeded   int       `json:"succeeded"`
	Total       int       `json:"total"`
	Error       string    `json:"error,omitempty"`
	StartedUTC  time.Time `json:"started_utc"`
	FinishedUTC time.Time `json:"finished_utc"`
}

func (r RefreshRecord) Duration() time.Duration {
	return r.FinishedUTC.Sub(r.StartedUTC)
}

func (s *Store) RecordRefresh(ctx context.Context, rec RefreshRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_log (trigger_name, days, jobs, failed, succeeded, total, error_text, started_utc, finished_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Trigger, rec.Days, rec.Jobs, rec.Failed, rec.Succeeded, rec.Total, errText,
		rec.StartedUTC.UTC().Format(time.RFC3339Nano), rec.FinishedUTC.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record refresh: %w", err)
	}
	return nil
}

// ListRefreshes returns the most recent refresh records, newest first.
func (s *Store) ListRefreshes(ctx context.Context, limit int) ([]RefreshRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_name, days, jobs, failed, succeeded, total, error_text, started_utc, finished_utc
		FROM refresh_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list refreshes: %w", err)
	}
	defer rows.Close()

	out := []RefreshRecord{}
	for rows.Next() {
		var rec RefreshRecord
		var errText sql.NullString
		var started, finished string
		if err := rows.Scan(&rec.ID, &rec.Trigger, &rec.Days, &rec.Jobs, &rec.Failed, &rec.Succeeded, &rec.Total, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan refresh: %w", err)
		}
		rec.Error = errText.String
		rec.StartedUTC, _ = time.Parse(time.RFC3339Nano, started)
		rec.FinishedUTC, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refreshes: %w", err)
	}
	return out, nil
}

// PruneRefreshes keeps the newest keep records.
func (s *Store) PruneRefreshes(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM refresh_log
		WHERE id NOT IN (SELECT id FROM refresh_log ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune refreshes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune refreshes rows: %w", err)
	}
	return n, nil
}
