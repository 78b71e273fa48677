package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"intelliinspect/internal/models"
	"intelliinspect/internal/repository"
)

// MaxSampleLimit bounds one page of recorded samples.
const MaxSampleLimit = 1000

// LogFilter narrows session events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "START", "STOP", "RESTART", "CLEAR", "FETCH_ERROR"
}

// SampleFilter selects recorded samples of one session (all when empty).
type SampleFilter struct {
	SessionID string
	Limit     int
}

type HistoryService struct {
	eventRepo  repository.EventRepo
	sampleRepo repository.SampleRepo
}

func NewHistoryService(eventRepo repository.EventRepo, sampleRepo repository.SampleRepo) *HistoryService {
	return &HistoryService{eventRepo: eventRepo, sampleRepo: sampleRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidLimit     = errors.New("invalid limit: must be between 0 and 1000")
)

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	return from, to, normalizeEventType(f.Type), nil
}

// ListEvents returns session events matching f, oldest first.
func (s *HistoryService) ListEvents(ctx context.Context, f LogFilter) ([]models.SessionEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

// ListSamples returns recorded samples, newest first. A zero limit means the
// repository default.
func (s *HistoryService) ListSamples(ctx context.Context, f SampleFilter) ([]models.RecordedSample, error) {
	if f.Limit < 0 || f.Limit > MaxSampleLimit {
		return nil, errInvalidLimit
	}
	return s.sampleRepo.ListBySession(ctx, strings.TrimSpace(f.SessionID), f.Limit)
}
