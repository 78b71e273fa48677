package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"intelliinspect/internal/models"
)

// WorkflowSQLite persists the workflow part of the shared state in a single row.
type WorkflowSQLite struct {
	db *sql.DB
}

func NewWorkflowSQLite(db *sql.DB) *WorkflowSQLite {
	return &WorkflowSQLite{db: db}
}

const (
	workflowRowID = 1

	upsertWorkflowSQL = `
		INSERT INTO workflow_state (id, dataset, date_ranges, model_metrics, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dataset=excluded.dataset,
			date_ranges=excluded.date_ranges,
			model_metrics=excluded.model_metrics,
			updated_at=excluded.updated_at
	`

	selectWorkflowSQL = `
		SELECT dataset, date_ranges, model_metrics
		FROM workflow_state WHERE id=?
	`
)

// marshalNullable encodes v as JSON, or NULL when v is a nil pointer.
func marshalNullable[T any](v *T) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func unmarshalNullable[T any](s sql.NullString) (*T, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Save replaces the stored workflow snapshot.
func (r *WorkflowSQLite) Save(ctx context.Context, w models.WorkflowState) error {
	dataset, err := marshalNullable(w.Dataset)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	ranges, err := marshalNullable(w.DateRanges)
	if err != nil {
		return fmt.Errorf("encode date ranges: %w", err)
	}
	metrics, err := marshalNullable(w.ModelMetrics)
	if err != nil {
		return fmt.Errorf("encode model metrics: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, upsertWorkflowSQL,
		workflowRowID,
		dataset,
		ranges,
		metrics,
		formatTimestamp(time.Now()),
	); err != nil {
		return fmt.Errorf("save workflow state: %w", err)
	}
	return nil
}

// Load fetches the stored snapshot. A missing row yields the empty state.
func (r *WorkflowSQLite) Load(ctx context.Context) (models.WorkflowState, error) {
	var dataset, ranges, metrics sql.NullString
	err := r.db.QueryRowContext(ctx, selectWorkflowSQL, workflowRowID).Scan(&dataset, &ranges, &metrics)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WorkflowState{}, nil
		}
		return models.WorkflowState{}, fmt.Errorf("load workflow state: %w", err)
	}

	var w models.WorkflowState
	if w.Dataset, err = unmarshalNullable[models.DatasetInfo](dataset); err != nil {
		return models.WorkflowState{}, fmt.Errorf("decode dataset: %w", err)
	}
	if w.DateRanges, err = unmarshalNullable[models.DateRanges](ranges); err != nil {
		return models.WorkflowState{}, fmt.Errorf("decode date ranges: %w", err)
	}
	if w.ModelMetrics, err = unmarshalNullable[models.ModelMetrics](metrics); err != nil {
		return models.WorkflowState{}, fmt.Errorf("decode model metrics: %w", err)
	}
	return w, nil
}
