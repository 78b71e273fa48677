package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"intelliinspect/internal/models"
)

// DefaultSampleLimit caps ListBySession when no positive limit is given.
const DefaultSampleLimit = 100

type SampleSQLite struct {
	db *sql.DB
}

func NewSampleSQLite(db *sql.DB) *SampleSQLite { return &SampleSQLite{db: db} }

const (
	insertSampleSQL = `
		INSERT INTO simulation_samples
			(session_id, recorded_at, sample_id, sample_time, prediction, confidence, temperature, pressure, humidity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectSamplesSQL = `SELECT session_id, recorded_at, sample_id, sample_time, prediction, confidence, temperature, pressure, humidity FROM simulation_samples`
)

// Record stores one accepted sample of a session.
func (r *SampleSQLite) Record(ctx context.Context, sessionID string, s models.SimulationSample) error {
	_, err := r.db.ExecContext(ctx, insertSampleSQL,
		sessionID,
		formatTimestamp(time.Now()),
		s.SampleID,
		s.Time,
		string(s.Prediction),
		s.Confidence,
		s.Temperature,
		s.Pressure,
		s.Humidity,
	)
	if err != nil {
		return fmt.Errorf("insert sample %s: %w", s.SampleID, err)
	}
	return nil
}

// ListBySession returns up to limit recorded samples, newest first. An empty
// sessionID lists samples of every session.
func (r *SampleSQLite) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.RecordedSample, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	q := selectSamplesSQL
	var args []any
	if sessionID != "" {
		q += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	out := make([]models.RecordedSample, 0, limit)
	for rows.Next() {
		var (
			rec        models.RecordedSample
			prediction string
		)
		if err := rows.Scan(
			&rec.SessionID,
			&rec.RecordedAt,
			&rec.Sample.SampleID,
			&rec.Sample.Time,
			&prediction,
			&rec.Sample.Confidence,
			&rec.Sample.Temperature,
			&rec.Sample.Pressure,
			&rec.Sample.Humidity,
		); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		rec.RecordedAt = rec.RecordedAt.UTC()
		rec.Sample.Prediction = models.Prediction(prediction)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
