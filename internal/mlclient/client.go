// Package mlclient talks to the Python ML service that owns datasets, training
// and the simulated inspection line.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"intelliinspect/internal/models"
)

// Upstream paths of the ML service.
const (
	PathSimulationStart   = "/api/simulation/start"
	PathSimulationStop    = "/api/simulation/stop"
	PathSimulationClear   = "/api/simulation/clear"
	PathSimulationNext    = "/api/simulation/next"
	PathUploadDataset     = "/api/upload/dataset"
	PathUploadMetadata    = "/api/upload/metadata"
	PathDateRangesCheck   = "/api/dateranges/validate"
	PathDateRangesSummary = "/api/dateranges/summary.png"
	PathTrain             = "/api/train"
	PathTrainingMetrics   = "/api/training/metrics"
	PathTrainingStatus    = "/api/training/status"
	PathConfusionMatrix   = "/api/training/confusion-matrix.png"
	PathROC               = "/api/training/roc.png"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 32 << 20 // 32 MB, PNGs and metadata stay far below
)

// SampleSource is the remote simulation capability driven by the orchestrator.
type SampleSource interface {
	StartSimulation(ctx context.Context) (models.RunState, error)
	StopSimulation(ctx context.Context) (models.RunState, error)
	ClearSimulation(ctx context.Context) (models.ClearState, error)
	NextSample(ctx context.Context) (models.SimulationSample, error)
}

// Response is an upstream reply relayed as-is.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Request describes one call to forward.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	// Retry enables retries on transport errors and 5xx. Only set it for
	// idempotent calls.
	Retry bool
}

// UpstreamError is returned by typed calls when the ML service answers non-2xx.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ml service returned %d", e.Status)
	}
	return fmt.Sprintf("ml service returned %d: %s", e.Status, e.Detail)
}

var errInvalidPrediction = errors.New("invalid prediction: must be Pass or Fail")

// ClientConfig tunes retries for idempotent calls.
type ClientConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Client is the HTTP client of the ML service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a client for baseURL with a per-call timeout.
func NewClient(baseURL string, timeout time.Duration, cfg ClientConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

var _ SampleSource = (*Client)(nil)

// Forward performs req against the ML service and returns the full reply.
// An error means no reply was obtained at all.
func (c *Client) Forward(ctx context.Context, req Request) (*Response, error) {
	attempts := 1
	if req.Retry {
		attempts += c.maxRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, time.Duration(i)*c.retryDelay); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode >= 500 && i < attempts-1 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("ml request %s %s failed after %d attempt(s): %w", req.Method, req.Path, attempts, lastErr)
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// StartSimulation signals the ML service to begin emitting samples.
func (c *Client) StartSimulation(ctx context.Context) (models.RunState, error) {
	var out models.RunState
	err := c.callJSON(ctx, http.MethodPost, PathSimulationStart, &out)
	return out, err
}

func (c *Client) StopSimulation(ctx context.Context) (models.RunState, error) {
	var out models.RunState
	err := c.callJSON(ctx, http.MethodPost, PathSimulationStop, &out)
	return out, err
}

func (c *Client) ClearSimulation(ctx context.Context) (models.ClearState, error) {
	var out models.ClearState
	err := c.callJSON(ctx, http.MethodPost, PathSimulationClear, &out)
	return out, err
}

// NextSample fetches one labeled sample. It is never retried: the next tick
// is the retry.
func (c *Client) NextSample(ctx context.Context) (models.SimulationSample, error) {
	var out models.SimulationSample
	if err := c.callJSON(ctx, http.MethodGet, PathSimulationNext, &out); err != nil {
		return models.SimulationSample{}, err
	}
	if !out.Prediction.Valid() {
		return models.SimulationSample{}, fmt.Errorf("decode sample %q: %w", out.SampleID, errInvalidPrediction)
	}
	return out, nil
}

func (c *Client) callJSON(ctx context.Context, method, path string, dst any) error {
	resp, err := c.Forward(ctx, Request{Method: method, Path: path})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &UpstreamError{Status: resp.StatusCode, Detail: DetailOf(resp.Body)}
	}
	if err := json.Unmarshal(resp.Body, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// DetailOf extracts the FastAPI {"detail": ...} message from an error body,
// falling back to the trimmed raw text.
func DetailOf(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	return strings.TrimSpace(string(body))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
