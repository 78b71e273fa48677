package state

import (
	"fmt"
	"testing"

	"intelliinspect/internal/models"
)

func sample(id string, conf float64, p models.Prediction) models.SimulationSample {
	return models.SimulationSample{SampleID: id, Confidence: conf, Prediction: p}
}

func TestAppendSample_NewestFirstAndBounded(t *testing.T) {
	s := New()

	for i := 1; i <= 25; i++ {
		s.AppendSample(sample(fmt.Sprintf("S%02d", i), 80, models.PredictionPass))
		if got := len(s.Window()); got > WindowSize {
			t.Fatalf("window length %d exceeds %d after %d appends", got, WindowSize, i)
		}
	}

	w := s.Window()
	if len(w) != WindowSize {
		t.Fatalf("expected %d samples, got %d", WindowSize, len(w))
	}
	// S25 newest ... S06 oldest; S01..S05 evicted
	for i, got := range w {
		want := fmt.Sprintf("S%02d", 25-i)
		if got.SampleID != want {
			t.Fatalf("window[%d]=%s, want %s", i, got.SampleID, want)
		}
	}
}

func TestClearWindow_StaysEmpty(t *testing.T) {
	s := New()
	s.AppendSample(sample("A", 90, models.PredictionPass))
	s.ClearWindow()

	for i := 0; i < 3; i++ {
		if w := s.Window(); len(w) != 0 {
			t.Fatalf("expected empty window, got %d samples", len(w))
		}
	}
}

func TestWindow_ReturnsCopy(t *testing.T) {
	s := New()
	s.AppendSample(sample("A", 90, models.PredictionPass))

	w := s.Window()
	w[0].SampleID = "mutated"

	if got := s.Window()[0].SampleID; got != "A" {
		t.Fatalf("store window was mutated through copy: %q", got)
	}
}

func TestAppendSample_DoesNotConsultRunningFlag(t *testing.T) {
	s := New()
	if s.IsRunning() {
		t.Fatalf("new store must not be running")
	}
	s.AppendSample(sample("A", 90, models.PredictionPass))
	if len(s.Window()) != 1 {
		t.Fatalf("append while not running should still store the sample")
	}
}

func TestSubscribe_TopicsAreIndependent(t *testing.T) {
	s := New()

	var windowEvents, statsEvents, allEvents []Topic
	s.Subscribe(func(topic Topic, _ Snapshot) { windowEvents = append(windowEvents, topic) }, TopicWindow)
	s.Subscribe(func(topic Topic, _ Snapshot) { statsEvents = append(statsEvents, topic) }, TopicStatistics)
	s.Subscribe(func(topic Topic, _ Snapshot) { allEvents = append(allEvents, topic) })

	s.SetRunning(true)
	s.AppendSample(sample("A", 90, models.PredictionPass))
	s.SetStatistics(models.LiveStatistics{Total: 1, Pass: 1, AvgConfidence: 90})
	s.ClearWindow()

	if len(windowEvents) != 2 {
		t.Fatalf("window listener got %v", windowEvents)
	}
	if len(statsEvents) != 1 || statsEvents[0] != TopicStatistics {
		t.Fatalf("statistics listener got %v", statsEvents)
	}
	want := []Topic{TopicRunning, TopicWindow, TopicStatistics, TopicWindow}
	if fmt.Sprint(allEvents) != fmt.Sprint(want) {
		t.Fatalf("delivery order: got %v, want %v", allEvents, want)
	}
}

func TestSubscribe_SnapshotReflectsMutation(t *testing.T) {
	s := New()
	var last Snapshot
	s.Subscribe(func(_ Topic, snap Snapshot) { last = snap }, TopicWindow)

	s.AppendSample(sample("A", 90, models.PredictionPass))
	s.AppendSample(sample("B", 70, models.PredictionFail))

	if len(last.Window) != 2 || last.Window[0].SampleID != "B" {
		t.Fatalf("unexpected snapshot window: %+v", last.Window)
	}
}

func TestSubscribe_ListenerMayReadStore(t *testing.T) {
	s := New()
	var seen bool
	s.Subscribe(func(_ Topic, _ Snapshot) { seen = s.IsRunning() }, TopicRunning)

	s.SetRunning(true)
	if !seen {
		t.Fatalf("listener should observe the new running flag")
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	s := New()
	calls := 0
	unsubscribe := s.Subscribe(func(Topic, Snapshot) { calls++ })

	s.SetRunning(true)
	unsubscribe()
	s.SetRunning(false)

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestReset_SingleTransition(t *testing.T) {
	s := New()
	s.SetRunning(true)
	s.AppendSample(sample("A", 90, models.PredictionPass))
	s.SetStatistics(models.LiveStatistics{Total: 1, Pass: 1, AvgConfidence: 90})
	s.SetDataset(models.DatasetInfo{FileName: "line.csv"})

	var topics []Topic
	var snap Snapshot
	// filtered listeners still receive reset
	s.Subscribe(func(topic Topic, sn Snapshot) {
		topics = append(topics, topic)
		snap = sn
	}, TopicWindow)

	s.Reset()

	if len(topics) != 1 || topics[0] != TopicReset {
		t.Fatalf("expected exactly one reset notification, got %v", topics)
	}
	if snap.Running || len(snap.Window) != 0 || snap.Statistics != (models.LiveStatistics{}) || snap.Dataset != nil {
		t.Fatalf("reset snapshot not empty: %+v", snap)
	}
}

func TestRestore_WorkflowRoundTrip(t *testing.T) {
	s := New()
	s.Restore(models.WorkflowState{
		Dataset:      &models.DatasetInfo{FileName: "line.csv", Records: 10},
		ModelMetrics: &models.ModelMetrics{Accuracy: 0.9},
	})

	w := s.Workflow()
	if w.Dataset == nil || w.Dataset.FileName != "line.csv" {
		t.Fatalf("dataset not restored: %+v", w.Dataset)
	}
	if w.DateRanges != nil {
		t.Fatalf("date ranges should stay nil")
	}
	if w.ModelMetrics == nil || w.ModelMetrics.Accuracy != 0.9 {
		t.Fatalf("metrics not restored: %+v", w.ModelMetrics)
	}

	w.Dataset.FileName = "changed.csv"
	if s.Dataset().FileName != "line.csv" {
		t.Fatalf("workflow getter leaked internal pointer")
	}
}
