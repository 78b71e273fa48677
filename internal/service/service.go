package service

import (
	"context"
	"io"
	"time"

	"intelliinspect/internal/logger"
	"intelliinspect/internal/metrics"
	"intelliinspect/internal/mlclient"
	"intelliinspect/internal/models"
	"intelliinspect/internal/repository"
	"intelliinspect/internal/state"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Simulation controls the live session. None of the calls wait for the ML service.
type Simulation interface {
	Start() (string, error)
	Stop() error
	Restart() (string, error)
	Clear() error
	SessionID() string
	LiveState() (string, state.Snapshot)
}

// Workflow relays the guided steps (upload, date ranges, training) and keeps
// the shared store current.
type Workflow interface {
	Relay(ctx context.Context, method, path string, body []byte, contentType string) (*mlclient.Response, error)
	UploadDataset(ctx context.Context, filename, contentType string, file io.Reader) (*mlclient.Response, error)
	DatasetMetadata(ctx context.Context) (*mlclient.Response, error)
	ValidateDateRanges(ctx context.Context, ranges models.DateRanges) (*mlclient.Response, error)
	Train(ctx context.Context, req models.TrainRequest) (*mlclient.Response, error)
	Current() models.WorkflowState
	Reset(ctx context.Context) error
	Restore(ctx context.Context) error
}

// History exposes recorded session events and accepted samples.
type History interface {
	ListEvents(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
	ListSamples(ctx context.Context, f SampleFilter) ([]models.RecordedSample, error)
}

type Service struct {
	Simulation
	Workflow
	History
	Authorization
}

// Options carries the wiring that does not come from the repositories.
type Options struct {
	TickInterval time.Duration
	SigningKey   string
	TokenTTL     time.Duration
	Sinks        []NamedSink // in addition to the sqlite sample sink
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

// NewService wires the repositories, the shared store and the ML client into
// concrete services. The returned orchestrator must be shut down by the caller.
func NewService(repos *repository.Repository, store *state.Store, ml *mlclient.Client, opts Options) (*Service, *SimulationService) {
	sinks := make([]NamedSink, 0, len(opts.Sinks)+1)
	if repos.SampleRepo != nil {
		sinks = append(sinks, NamedSink{Name: "sqlite", Sink: repos.SampleRepo})
	}
	sinks = append(sinks, opts.Sinks...)

	sim := NewSimulationService(ml, store, SimulationOptions{
		Interval: opts.TickInterval,
		Events:   repos.EventRepo,
		Sinks:    sinks,
		Metrics:  opts.Metrics,
		Logger:   opts.Logger,
	})

	return &Service{
		Simulation:    sim,
		Workflow:      NewWorkflowService(ml, store, repos.WorkflowRepo, sim, opts.Logger),
		History:       NewHistoryService(repos.EventRepo, repos.SampleRepo),
		Authorization: NewAuthService(repos.Auth, opts.SigningKey, opts.TokenTTL),
	}, sim
}
