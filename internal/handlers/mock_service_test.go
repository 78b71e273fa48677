package handlers

import (
	"context"
	"io"
	"net/http"

	"intelliinspect/internal/mlclient"
	"intelliinspect/internal/models"
	"intelliinspect/internal/service"
	"intelliinspect/internal/state"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockSimulation flips the store's running flag the way the orchestrator does.
type mockSimulation struct {
	store     *state.Store
	err       error
	sessionID string
	calls     []string
}

func (m *mockSimulation) Start() (string, error) {
	m.calls = append(m.calls, "start")
	if m.err != nil {
		return "", m.err
	}
	m.sessionID = "session-1"
	m.store.SetRunning(true)
	return m.sessionID, nil
}
func (m *mockSimulation) Stop() error {
	m.calls = append(m.calls, "stop")
	if m.err != nil {
		return m.err
	}
	m.sessionID = ""
	m.store.SetRunning(false)
	return nil
}
func (m *mockSimulation) Restart() (string, error) {
	m.calls = append(m.calls, "restart")
	if m.err != nil {
		return "", m.err
	}
	m.sessionID = "session-2"
	m.store.SetRunning(true)
	return m.sessionID, nil
}
func (m *mockSimulation) Clear() error {
	m.calls = append(m.calls, "clear")
	if m.err != nil {
		return m.err
	}
	m.store.ClearWindow()
	return nil
}
func (m *mockSimulation) SessionID() string { return m.sessionID }
func (m *mockSimulation) LiveState() (string, state.Snapshot) {
	return m.sessionID, m.store.Snapshot()
}

type relayCall struct {
	method      string
	path        string
	body        string
	contentType string
}

type mockWorkflow struct {
	resp *mlclient.Response
	err  error

	relays     []relayCall
	uploadName string
	uploadData string
	ranges     models.DateRanges
	train      models.TrainRequest
	state      models.WorkflowState
	resetCalls int
}

func (m *mockWorkflow) Relay(_ context.Context, method, path string, body []byte, contentType string) (*mlclient.Response, error) {
	m.relays = append(m.relays, relayCall{method: method, path: path, body: string(body), contentType: contentType})
	return m.resp, m.err
}
func (m *mockWorkflow) UploadDataset(_ context.Context, filename, _ string, file io.Reader) (*mlclient.Response, error) {
	m.uploadName = filename
	data, _ := io.ReadAll(file)
	m.uploadData = string(data)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}
func (m *mockWorkflow) DatasetMetadata(context.Context) (*mlclient.Response, error) {
	return m.resp, m.err
}
func (m *mockWorkflow) ValidateDateRanges(_ context.Context, r models.DateRanges) (*mlclient.Response, error) {
	m.ranges = r
	return m.resp, m.err
}
func (m *mockWorkflow) Train(_ context.Context, req models.TrainRequest) (*mlclient.Response, error) {
	m.train = req
	return m.resp, m.err
}
func (m *mockWorkflow) Current() models.WorkflowState { return m.state }
func (m *mockWorkflow) Reset(context.Context) error {
	m.resetCalls++
	return m.err
}
func (m *mockWorkflow) Restore(context.Context) error { return nil }

type mockHistory struct {
	events  []models.SessionEvent
	samples []models.RecordedSample
	err     error

	lastFilter       service.LogFilter
	lastSampleFilter service.SampleFilter
}

func (m *mockHistory) ListEvents(_ context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.lastFilter = f
	return m.events, m.err
}
func (m *mockHistory) ListSamples(_ context.Context, f service.SampleFilter) ([]models.RecordedSample, error) {
	m.lastSampleFilter = f
	return m.samples, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, state.New(), Options{})
}

func newTestRouterWith(s *service.Service, store *state.Store, opts Options) *gin.Engine {
	h := NewHandler(s, store, nil, opts)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
