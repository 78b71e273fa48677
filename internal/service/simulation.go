package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"intelliinspect/internal/logger"
	"intelliinspect/internal/metrics"
	"intelliinspect/internal/mlclient"
	"intelliinspect/internal/models"
	"intelliinspect/internal/repository"
	"intelliinspect/internal/state"

	"github.com/google/uuid"
)

const (
	DefaultTickInterval = time.Second
	sinkTimeout         = 5 * time.Second
	eventTimeout        = 5 * time.Second
)

var ErrSimulationClosed = errors.New("simulation orchestrator is shut down")

// SampleSink receives every sample accepted into the live window.
type SampleSink interface {
	Record(ctx context.Context, sessionID string, s models.SimulationSample) error
}

// NamedSink labels a sink in logs and metrics.
type NamedSink struct {
	Name string
	Sink SampleSink
}

type SimulationOptions struct {
	Interval time.Duration
	Events   repository.EventRepo // optional
	Sinks    []NamedSink
	Metrics  *metrics.Metrics // optional
	Logger   *logger.Logger
}

// SimulationService drives the remote simulation: one next-sample call per
// tick while a session runs, results committed to the store only if the
// session that issued them is still current.
type SimulationService struct {
	source   mlclient.SampleSource
	store    *state.Store
	events   repository.EventRepo
	sinks    []NamedSink
	metrics  *metrics.Metrics
	log      *logger.Logger
	interval time.Duration

	// baseCtx outlives sessions; in-flight calls run on it so a stop never
	// aborts them.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	sessionID  string
	cancel     context.CancelFunc // nil while idle
	lastSignal chan struct{}

	wg sync.WaitGroup
}

func NewSimulationService(source mlclient.SampleSource, store *state.Store, opts SimulationOptions) *SimulationService {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &SimulationService{
		source:     source,
		store:      store,
		events:     opts.Events,
		sinks:      opts.Sinks,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		interval:   opts.Interval,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

// Start opens a new session and returns its id. A running session is
// superseded. Start never waits for the ML service.
func (s *SimulationService) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSimulationClosed
	}
	id := s.startLocked()
	s.recordEvent(id, models.EventStart, "simulation started", map[string]any{"interval": s.interval.String()})
	return id, nil
}

// Stop ends the current session. In-flight fetches complete but their
// results are discarded.
func (s *SimulationService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulationClosed
	}
	id := s.stopLocked()
	s.recordEvent(id, models.EventStop, "simulation stopped", nil)
	return nil
}

// StopAndReset ends the current session and clears the whole store under one
// lock; a concurrent Start lands either before the stop or after the reset.
// After Shutdown the store is still cleared and ErrSimulationClosed returned.
func (s *SimulationService) StopAndReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.store.Reset()
		return ErrSimulationClosed
	}
	id := s.stopLocked()
	s.store.Reset()
	s.metrics.SetWindowLength(0)
	s.recordEvent(id, models.EventStop, "simulation stopped for workflow reset", nil)
	return nil
}

// Restart is Stop followed by Start.
func (s *SimulationService) Restart() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSimulationClosed
	}
	prev := s.stopLocked()
	id := s.startLocked()
	s.recordEvent(id, models.EventRestart, "simulation restarted", map[string]any{"previous_session": prev})
	return id, nil
}

// Clear empties the local window and statistics and asks the ML service to
// clear its session state. A running session keeps running.
func (s *SimulationService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSimulationClosed
	}
	s.store.ClearWindow()
	s.store.SetStatistics(models.LiveStatistics{})
	s.metrics.SetWindowLength(0)
	s.signalLocked("clear", func(ctx context.Context) error {
		_, err := s.source.ClearSimulation(ctx)
		return err
	})
	id := ""
	if s.cancel != nil {
		id = s.sessionID
	}
	s.recordEvent(id, models.EventClear, "simulation window cleared", nil)
	return nil
}

// SessionID returns the current session id, empty when idle.
func (s *SimulationService) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return ""
	}
	return s.sessionID
}

// LiveState returns the session id together with a store snapshot taken under
// the same lock, so the id and the running flag always agree.
func (s *SimulationService) LiveState() (string, state.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ""
	if s.cancel != nil {
		id = s.sessionID
	}
	return id, s.store.Snapshot()
}

// Shutdown cancels the schedule and every in-flight call, then waits for
// background work to finish or ctx to expire. No stop signal is sent upstream.
func (s *SimulationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.baseCancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SimulationService) startLocked() string {
	s.store.SetRunning(true)
	s.store.ClearWindow()
	s.store.SetStatistics(models.LiveStatistics{})
	s.metrics.SetRunning(true)
	s.metrics.SetWindowLength(0)

	if s.cancel != nil {
		s.cancel()
	}
	sessionCtx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.sessionID = uuid.NewString()

	s.signalLocked("start", func(ctx context.Context) error {
		_, err := s.source.StartSimulation(ctx)
		return err
	})

	s.wg.Add(1)
	go s.run(sessionCtx, s.sessionID)

	s.log.Infow("simulation_started", "session_id", s.sessionID, "interval", s.interval.String())
	return s.sessionID
}

// stopLocked returns the id of the session it ended, empty if none was running.
func (s *SimulationService) stopLocked() string {
	s.store.SetRunning(false)
	s.metrics.SetRunning(false)

	id := ""
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		id = s.sessionID
	}

	s.signalLocked("stop", func(ctx context.Context) error {
		_, err := s.source.StopSimulation(ctx)
		return err
	})

	s.log.Infow("simulation_stopped", "session_id", id)
	return id
}

// signalLocked sends a fire-and-forget control call. Signals reach the ML
// service in the order they were issued.
func (s *SimulationService) signalLocked(name string, call func(ctx context.Context) error) {
	prev := s.lastSignal
	done := make(chan struct{})
	s.lastSignal = done

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err := call(s.baseCtx); err != nil && s.baseCtx.Err() == nil {
			s.log.Warnw("simulation_"+name+"_signal_failed", "error", err)
		}
	}()
}

// run issues one fetch per tick until the session is cancelled. Fetches are
// not awaited: a slow response never delays the next tick.
func (s *SimulationService) run(sessionCtx context.Context, sessionID string) {
	defer s.wg.Done()

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-sessionCtx.Done():
			return
		case <-t.C:
			if sessionCtx.Err() != nil {
				return
			}
			s.metrics.Tick()
			s.wg.Add(1)
			go s.fetch(sessionCtx, sessionID)
		}
	}
}

func (s *SimulationService) fetch(sessionCtx context.Context, sessionID string) {
	defer s.wg.Done()

	started := time.Now()
	sample, err := s.source.NextSample(s.baseCtx)
	s.metrics.ObserveFetch(time.Since(started))
	if err != nil {
		if s.baseCtx.Err() != nil {
			return
		}
		s.metrics.FetchError()
		s.log.Errorw("simulation_fetch_failed", "session_id", sessionID, "error", err)
		s.recordEvent(sessionID, models.EventFetchError, "next sample fetch failed", map[string]any{"error": err.Error()})
		return
	}

	if !s.commit(sessionCtx, sample) {
		s.metrics.SampleDiscarded()
		s.log.Debugw("simulation_sample_discarded", "session_id", sessionID, "sample_id", sample.SampleID)
		return
	}
	s.forward(sessionID, sample)
}

// commit appends sample and refreshes statistics if its session is still the
// running one.
func (s *SimulationService) commit(sessionCtx context.Context, sample models.SimulationSample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionCtx.Err() != nil || !s.store.IsRunning() {
		return false
	}
	s.store.AppendSample(sample)
	window := s.store.Window()
	s.store.SetStatistics(Aggregate(window))
	s.metrics.SampleAccepted(len(window))
	return true
}

func (s *SimulationService) forward(sessionID string, sample models.SimulationSample) {
	for _, sink := range s.sinks {
		ctx, cancel := context.WithTimeout(s.baseCtx, sinkTimeout)
		err := sink.Sink.Record(ctx, sessionID, sample)
		cancel()
		if err != nil {
			s.metrics.SinkError(sink.Name)
			s.log.Warnw("simulation_sink_failed", "sink", sink.Name, "session_id", sessionID, "sample_id", sample.SampleID, "error", err)
		}
	}
}

// recordEvent appends a history entry in the background.
func (s *SimulationService) recordEvent(sessionID, typ, description string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ev := models.SessionEvent{
		EventID:     uuid.NewString(),
		SessionID:   sessionID,
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
	}
	if meta != nil {
		ev.Metadata = meta
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.baseCtx, eventTimeout)
		defer cancel()
		if err := s.events.Append(ctx, ev); err != nil && s.baseCtx.Err() == nil {
			s.log.Warnw("session_event_append_failed", "type", typ, "session_id", sessionID, "error", err)
		}
	}()
}
