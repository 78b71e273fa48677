package repository

import (
	"context"
	"database/sql"
	"time"

	"intelliinspect/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type WorkflowRepo interface {
	Save(ctx context.Context, w models.WorkflowState) error
	Load(ctx context.Context) (models.WorkflowState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error)
}

type SampleRepo interface {
	Record(ctx context.Context, sessionID string, s models.SimulationSample) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.RecordedSample, error)
}

type Repository struct {
	WorkflowRepo WorkflowRepo
	EventRepo    EventRepo
	SampleRepo   SampleRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		WorkflowRepo: NewWorkflowSQLite(db),
		EventRepo:    NewEventSQLite(db),
		SampleRepo:   NewSampleSQLite(db),
		Auth:         NewUserRepository(db),
	}
}

// timestampLayout is how timestamps are written to TIMESTAMP columns; it sorts
// lexically in time order.
const timestampLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
