package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"intelliinspect/internal/logger"
	"intelliinspect/internal/mlclient"
	"intelliinspect/internal/models"
	"intelliinspect/internal/repository"
	"intelliinspect/internal/state"
)

// Train request defaults applied when the client leaves a field out.
const (
	DefaultTrainModel       = models.AlgorithmLogReg
	DefaultTrainTestSize    = 0.2
	DefaultTrainRandomState = 42
)

const dateLayout = "2006-01-02"

var (
	ErrNotCSV      = errors.New("only .csv files are accepted")
	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")
)

// Relay is the ML service capability used by the workflow steps.
type Relay interface {
	Forward(ctx context.Context, req mlclient.Request) (*mlclient.Response, error)
	UploadDataset(ctx context.Context, filename, contentType string, file io.Reader) (*mlclient.Response, error)
}

// SessionResetter ends the live session and clears the store as one step.
type SessionResetter interface {
	StopAndReset() error
}

// WorkflowService relays the guided workflow steps to the ML service and keeps
// the shared store and its persisted snapshot in step with successful replies.
type WorkflowService struct {
	ml    Relay
	store *state.Store
	repo  repository.WorkflowRepo
	sim   SessionResetter
	log   *logger.Logger
}

func NewWorkflowService(ml Relay, store *state.Store, repo repository.WorkflowRepo, sim SessionResetter, log *logger.Logger) *WorkflowService {
	if log == nil {
		log = logger.Get()
	}
	return &WorkflowService{ml: ml, store: store, repo: repo, sim: sim, log: log}
}

// Relay forwards a call without touching the store. GET calls are retried.
func (s *WorkflowService) Relay(ctx context.Context, method, path string, body []byte, contentType string) (*mlclient.Response, error) {
	return s.ml.Forward(ctx, mlclient.Request{
		Method:      method,
		Path:        path,
		Body:        body,
		ContentType: contentType,
		Retry:       method == http.MethodGet,
	})
}

// UploadDataset re-encodes the CSV upload for the ML service.
func (s *WorkflowService) UploadDataset(ctx context.Context, filename, contentType string, file io.Reader) (*mlclient.Response, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, ErrNotCSV
	}
	resp, err := s.ml.UploadDataset(ctx, filepath.Base(filename), contentType, file)
	if err != nil {
		return nil, err
	}
	s.applyDataset(ctx, resp)
	return resp, nil
}

// DatasetMetadata fetches metadata of the last uploaded dataset.
func (s *WorkflowService) DatasetMetadata(ctx context.Context) (*mlclient.Response, error) {
	resp, err := s.Relay(ctx, http.MethodGet, mlclient.PathUploadMetadata, nil, "")
	if err != nil {
		return nil, err
	}
	s.applyDataset(ctx, resp)
	return resp, nil
}

func (s *WorkflowService) applyDataset(ctx context.Context, resp *mlclient.Response) {
	if !resp.OK() {
		return
	}
	var info models.DatasetInfo
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		s.log.Warnw("dataset_info_decode_failed", "error", err)
		return
	}
	s.store.SetDataset(info)
	s.persist(ctx)
}

// ValidateDateRanges fills in missing day counts and saves the ranges upstream.
// Periods whose dates do not parse are relayed as sent; the ML service owns
// date validation.
func (s *WorkflowService) ValidateDateRanges(ctx context.Context, ranges models.DateRanges) (*mlclient.Response, error) {
	for _, p := range []*models.DatePeriod{&ranges.Training, &ranges.Testing, &ranges.Simulation} {
		if p.Days != 0 {
			continue
		}
		days, err := InclusiveDays(p.Start, p.End)
		if err != nil {
			s.log.Debugw("date_range_days_skipped", "start", p.Start, "end", p.End, "error", err)
			continue
		}
		p.Days = days
	}

	body, err := json.Marshal(ranges)
	if err != nil {
		return nil, fmt.Errorf("encode date ranges: %w", err)
	}
	resp, err := s.ml.Forward(ctx, mlclient.Request{
		Method:      http.MethodPost,
		Path:        mlclient.PathDateRangesCheck,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		var saved models.DateRanges
		if err := json.Unmarshal(resp.Body, &saved); err != nil {
			s.log.Warnw("date_ranges_decode_failed", "error", err)
			return resp, nil
		}
		s.store.SetDateRanges(saved)
		s.persist(ctx)
	}
	return resp, nil
}

// InclusiveDays counts calendar days from start to end, both included, in
// either order.
func InclusiveDays(start, end string) (int, error) {
	a, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, start)
	}
	b, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, end)
	}
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours()/24)) + 1, nil
}

// Train applies request defaults and starts a training run.
func (s *WorkflowService) Train(ctx context.Context, req models.TrainRequest) (*mlclient.Response, error) {
	if req.Model == "" {
		req.Model = DefaultTrainModel
	}
	if req.TestSize == nil {
		v := DefaultTrainTestSize
		req.TestSize = &v
	}
	if req.RandomState == nil {
		v := DefaultTrainRandomState
		req.RandomState = &v
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode train request: %w", err)
	}
	resp, err := s.ml.Forward(ctx, mlclient.Request{
		Method:      http.MethodPost,
		Path:        mlclient.PathTrain,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		var out models.TrainResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			s.log.Warnw("train_response_decode_failed", "error", err)
			return resp, nil
		}
		s.store.SetModelMetrics(out.Metrics)
		s.persist(ctx)
		s.log.Infow("model_trained", "model_id", out.ModelID, "algorithm", out.Algorithm, "accuracy", out.Metrics.Accuracy)
	}
	return resp, nil
}

// Current returns the dataset, date ranges and model metrics known so far.
func (s *WorkflowService) Current() models.WorkflowState {
	return s.store.Workflow()
}

// Reset stops the live session and clears the whole store.
func (s *WorkflowService) Reset(ctx context.Context) error {
	if s.sim != nil {
		if err := s.sim.StopAndReset(); err != nil && !errors.Is(err, ErrSimulationClosed) {
			return err
		}
	} else {
		s.store.Reset()
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, models.WorkflowState{}); err != nil {
			return fmt.Errorf("clear workflow snapshot: %w", err)
		}
	}
	return nil
}

// Restore loads the persisted snapshot into the store.
func (s *WorkflowService) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	w, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	s.store.Restore(w)
	return nil
}

func (s *WorkflowService) persist(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, s.store.Workflow()); err != nil {
		s.log.Errorw("workflow_snapshot_save_failed", "error", err)
	}
}
