package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"intelliinspect/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var sampleCols = []string{"session_id", "recorded_at", "sample_id", "sample_time", "prediction", "confidence", "temperature", "pressure", "humidity"}

func TestSampleRecord(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSampleSQLite(db)

	s := models.SimulationSample{
		Time: "10:00:01", SampleID: "SAMPLE_001", Prediction: models.PredictionPass,
		Confidence: 91.5, Temperature: 30.2, Pressure: 1020, Humidity: 55.1,
	}
	mock.ExpectExec(regexp.QuoteMeta(insertSampleSQL)).
		WithArgs("sess-1", sqlmock.AnyArg(), "SAMPLE_001", "10:00:01", "Pass", 91.5, 30.2, 1020.0, 55.1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Record(ctx(t), "sess-1", s); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSampleRecord_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSampleSQLite(db)

	mock.ExpectExec("INSERT INTO simulation_samples").WillReturnError(errors.New("disk full"))

	if err := repo.Record(ctx(t), "s", models.SimulationSample{SampleID: "X"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestListBySession(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSampleSQLite(db)

	at := time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(sampleCols).
		AddRow("sess-1", at.Add(time.Second), "SAMPLE_002", "08:00:01", "Fail", 61.0, 31.0, 1011.0, 40.0).
		AddRow("sess-1", at, "SAMPLE_001", "08:00:00", "Pass", 88.0, 30.0, 1010.0, 41.0)

	mock.ExpectQuery(regexp.QuoteMeta(selectSamplesSQL + " WHERE session_id = ? ORDER BY id DESC LIMIT ?")).
		WithArgs("sess-1", 5).
		WillReturnRows(rows)

	got, err := repo.ListBySession(ctx(t), "sess-1", 5)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].Sample.SampleID != "SAMPLE_002" || got[0].Sample.Prediction != models.PredictionFail {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if !got[1].RecordedAt.Equal(at) {
		t.Fatalf("unexpected recorded_at %v", got[1].RecordedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestListBySession_AllSessionsDefaultLimit(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewSampleSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectSamplesSQL + " ORDER BY id DESC LIMIT ?")).
		WithArgs(DefaultSampleLimit).
		WillReturnRows(sqlmock.NewRows(sampleCols))

	got, err := repo.ListBySession(ctx(t), "", 0)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
