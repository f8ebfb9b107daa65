package repository

import (
	"context"
	"database/sql"
	"fmt"

	"dreamgenie/internal/domain"
)

// PostgresSleepRecordsRepo Postgres 实现
// 表结构：
//
//	CREATE TABLE sleep_records (
//	    user_id       TEXT NOT NULL,
//	    date          TEXT NOT NULL,  -- "2006-01-02"
//	    sleep_hours   DOUBLE PRECISION NOT NULL,
//	    bedtime       TEXT NOT NULL,
//	    quality_score DOUBLE PRECISION NOT NULL,
//	    PRIMARY KEY (user_id, date)
//	)
type PostgresSleepRecordsRepo struct {
	db *sql.DB
}

func NewPostgresSleepRecordsRepo(db *sql.DB) *PostgresSleepRecordsRepo {
	return &PostgresSleepRecordsRepo{db: db}
}

func (r *PostgresSleepRecordsRepo) Load(ctx context.Context, userID string) (map[string]domain.SleepRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, sleep_hours, bedtime, quality_score
		FROM sleep_records
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]domain.SleepRecord)
	for rows.Next() {
		var date string
		var rec domain.SleepRecord
		if err := rows.Scan(&date, &rec.SleepHours, &rec.Bedtime, &rec.QualityScore); err != nil {
			return nil, fmt.Errorf("failed to scan sleep record: %w", err)
		}
		records[date] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sleep records: %w", err)
	}
	return records, nil
}

func (r *PostgresSleepRecordsRepo) Save(ctx context.Context, userID string, date string, rec domain.SleepRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sleep_records (user_id, date, sleep_hours, bedtime, quality_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date) DO UPDATE SET
		    sleep_hours   = EXCLUDED.sleep_hours,
		    bedtime       = EXCLUDED.bedtime,
		    quality_score = EXCLUDED.quality_score
	`, userID, date, rec.SleepHours, rec.Bedtime, rec.QualityScore)
	if err != nil {
		return fmt.Errorf("failed to upsert sleep record: %w", err)
	}
	return nil
}
