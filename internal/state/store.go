// Package state holds the process-wide workflow and live simulation state.
package state

import (
	"sync"

	"intelliinspect/internal/models"
)

// WindowSize bounds the number of samples kept in the live window.
const WindowSize = 20

// Topic identifies which part of the store changed.
type Topic string

const (
	TopicRunning      Topic = "running"
	TopicWindow       Topic = "window"
	TopicStatistics   Topic = "statistics"
	TopicDataset      Topic = "dataset"
	TopicDateRanges   Topic = "dateRanges"
	TopicModelMetrics Topic = "modelMetrics"
	// TopicReset is delivered to every listener regardless of its filter.
	TopicReset Topic = "reset"
)

// Snapshot is a copy of the store contents at the moment of a change.
type Snapshot struct {
	Running      bool                      `json:"running"`
	Window       []models.SimulationSample `json:"window"`
	Statistics   models.LiveStatistics     `json:"statistics"`
	Dataset      *models.DatasetInfo       `json:"dataset"`
	DateRanges   *models.DateRanges        `json:"dateRanges"`
	ModelMetrics *models.ModelMetrics      `json:"modelMetrics"`
}

// Listener receives change notifications. It runs synchronously on the
// mutating goroutine and must not call mutating store methods.
type Listener func(topic Topic, snap Snapshot)

type subscription struct {
	id     uint64
	fn     Listener
	topics map[Topic]struct{} // nil means every topic
}

func (s subscription) wants(t Topic) bool {
	if s.topics == nil || t == TopicReset {
		return true
	}
	_, ok := s.topics[t]
	return ok
}

// Store is the single authoritative holder of the shared state.
//
// notifyMu serializes mutations together with their notifications so listeners
// observe changes in the order they happened; mu only guards the fields, so
// listeners may call getters freely.
type Store struct {
	notifyMu sync.Mutex
	mu       sync.RWMutex

	running      bool
	window       []models.SimulationSample
	stats        models.LiveStatistics
	dataset      *models.DatasetInfo
	dateRanges   *models.DateRanges
	modelMetrics *models.ModelMetrics

	subs   []subscription
	nextID uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{window: make([]models.SimulationSample, 0, WindowSize)}
}

// Subscribe registers fn for the given topics (all topics when none are given)
// and returns a function that removes the registration.
func (s *Store) Subscribe(fn Listener, topics ...Topic) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	sub := subscription{fn: fn}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}
	s.nextID++
	sub.id = s.nextID
	s.subs = append(s.subs, sub)

	id := sub.id
	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		for i, existing := range s.subs {
			if existing.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// mutate applies fn under the field lock and delivers topic to listeners.
func (s *Store) mutate(topic Topic, fn func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	for _, sub := range s.subs {
		if sub.wants(topic) {
			sub.fn(topic, snap)
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Running:      s.running,
		Window:       copyWindow(s.window),
		Statistics:   s.stats,
		Dataset:      cloneDataset(s.dataset),
		DateRanges:   cloneDateRanges(s.dateRanges),
		ModelMetrics: cloneModelMetrics(s.modelMetrics),
	}
}

// Snapshot returns a copy of the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsRunning reports the running flag.
func (s *Store) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Store) SetRunning(running bool) {
	s.mutate(TopicRunning, func() { s.running = running })
}

// Window returns the current samples, newest first.
func (s *Store) Window() []models.SimulationSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyWindow(s.window)
}

// AppendSample puts sample at the front of the window and drops whatever falls
// beyond WindowSize. It does not consult the running flag.
func (s *Store) AppendSample(sample models.SimulationSample) {
	s.mutate(TopicWindow, func() {
		n := len(s.window)
		if n >= WindowSize {
			n = WindowSize - 1
		}
		next := make([]models.SimulationSample, 0, WindowSize)
		next = append(next, sample)
		next = append(next, s.window[:n]...)
		s.window = next
	})
}

func (s *Store) ClearWindow() {
	s.mutate(TopicWindow, func() { s.window = make([]models.SimulationSample, 0, WindowSize) })
}

func (s *Store) Statistics() models.LiveStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Store) SetStatistics(stats models.LiveStatistics) {
	s.mutate(TopicStatistics, func() { s.stats = stats })
}

func (s *Store) Dataset() *models.DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDataset(s.dataset)
}

func (s *Store) SetDataset(d models.DatasetInfo) {
	s.mutate(TopicDataset, func() { s.dataset = &d })
}

func (s *Store) DateRanges() *models.DateRanges {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDateRanges(s.dateRanges)
}

func (s *Store) SetDateRanges(r models.DateRanges) {
	s.mutate(TopicDateRanges, func() { s.dateRanges = &r })
}

func (s *Store) ModelMetrics() *models.ModelMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneModelMetrics(s.modelMetrics)
}

func (s *Store) SetModelMetrics(m models.ModelMetrics) {
	s.mutate(TopicModelMetrics, func() { s.modelMetrics = &m })
}

// Workflow returns the persisted part of the store.
func (s *Store) Workflow() models.WorkflowState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.WorkflowState{
		Dataset:      cloneDataset(s.dataset),
		DateRanges:   cloneDateRanges(s.dateRanges),
		ModelMetrics: cloneModelMetrics(s.modelMetrics),
	}
}

// Restore loads a previously persisted workflow state as one reset transition.
func (s *Store) Restore(w models.WorkflowState) {
	s.mutate(TopicReset, func() {
		s.dataset = cloneDataset(w.Dataset)
		s.dateRanges = cloneDateRanges(w.DateRanges)
		s.modelMetrics = cloneModelMetrics(w.ModelMetrics)
	})
}

// Reset clears every field in a single transition.
func (s *Store) Reset() {
	s.mutate(TopicReset, func() {
		s.running = false
		s.window = make([]models.SimulationSample, 0, WindowSize)
		s.stats = models.LiveStatistics{}
		s.dataset = nil
		s.dateRanges = nil
		s.modelMetrics = nil
	})
}

func copyWindow(w []models.SimulationSample) []models.SimulationSample {
	out := make([]models.SimulationSample, len(w))
	copy(out, w)
	return out
}

func cloneDataset(d *models.DatasetInfo) *models.DatasetInfo {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneDateRanges(r *models.DateRanges) *models.DateRanges {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneModelMetrics(m *models.ModelMetrics) *models.ModelMetrics {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
