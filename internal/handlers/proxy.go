package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"intelliinspect/internal/mlclient"
	"intelliinspect/internal/models"
	"intelliinspect/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxRelayBody = 1 << 20 // 1 MB of JSON is far above any workflow payload

	errNoFile          = "No file provided"
	errUnreachablePref = "ML service unreachable: "
)

func relayContentType(path string, resp *mlclient.Response) string {
	if resp.ContentType != "" {
		return resp.ContentType
	}
	if strings.HasSuffix(path, ".png") {
		return "image/png"
	}
	return "application/json"
}

// writeRelay passes the upstream reply through unchanged, or answers 502 when
// there was none.
func (h *Handler) writeRelay(c *gin.Context, resp *mlclient.Response, err error) {
	route := c.FullPath()
	if err != nil {
		h.opts.Metrics.Relayed(route, 0)
		if h.log != nil {
			h.log.Warnw("ml_relay_failed", "route", route, "err", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"detail": errUnreachablePref + err.Error()})
		return
	}
	h.opts.Metrics.Relayed(route, resp.StatusCode)
	c.Data(resp.StatusCode, relayContentType(route, resp), resp.Body)
}

func detail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"detail": msg})
}

// @Summary      Gateway health
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/health [get]
func (h *Handler) apiHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "backend": "go"})
}

// relaySimple forwards the request to the same path on the ML service.
//
// @Summary      Relay to the ML service
// @Tags         relay
// @Success      200
// @Failure      502  {object}  map[string]string
// @Router       /api/simulation/{action} [post]
// @Router       /api/training/{resource} [get]
func (h *Handler) relaySimple(c *gin.Context) {
	var (
		body        []byte
		contentType string
	)
	if c.Request.Method != http.MethodGet && c.Request.Body != nil {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRelayBody))
		if err != nil {
			detail(c, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if len(data) > 0 {
			body = data
			contentType = c.ContentType()
		}
	}

	path := c.Request.URL.Path
	if q := c.Request.URL.RawQuery; q != "" {
		path += "?" + q
	}
	resp, err := h.services.Workflow.Relay(c.Request.Context(), c.Request.Method, path, body, contentType)
	h.writeRelay(c, resp, err)
}

// @Summary      Upload dataset
// @Description  Multipart upload of a CSV file in field "file".
// @Tags         workflow
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV dataset"
// @Success      200   {object}  models.DatasetInfo
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/upload/dataset [post]
func (h *Handler) uploadDataset(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, errNoFile)
		return
	}
	f, err := fh.Open()
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot read uploaded file: "+err.Error())
		return
	}
	defer f.Close()

	resp, err := h.services.Workflow.UploadDataset(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if errors.Is(err, service.ErrNotCSV) {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	h.writeRelay(c, resp, err)
}

// @Summary      Dataset metadata
// @Tags         workflow
// @Produce      json
// @Success      200  {object}  models.DatasetInfo
// @Failure      502  {object}  map[string]string
// @Router       /api/upload/metadata [get]
func (h *Handler) datasetMetadata(c *gin.Context) {
	resp, err := h.services.Workflow.DatasetMetadata(c.Request.Context())
	h.writeRelay(c, resp, err)
}

// @Summary      Validate date ranges
// @Description  Days are computed (inclusive) for periods sent with days=0 and YYYY-MM-DD dates; anything else is relayed as sent.
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body      models.DateRanges  true  "Training, testing and simulation periods"
// @Success      200   {object}  models.DateRanges
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/dateranges/validate [post]
func (h *Handler) validateDateRanges(c *gin.Context) {
	var req models.DateRanges
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, errInvalidBodyPref+err.Error())
		return
	}
	resp, err := h.services.Workflow.ValidateDateRanges(c.Request.Context(), req)
	h.writeRelay(c, resp, err)
}

// @Summary      Train model
// @Description  Missing fields default to model=sklearn_logreg, test_size=0.2, random_state=42.
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Param        body  body      models.TrainRequest  false  "Training parameters"
// @Success      200   {object}  models.TrainResponse
// @Failure      400   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/train [post]
func (h *Handler) train(c *gin.Context) {
	var req models.TrainRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		detail(c, http.StatusBadRequest, errInvalidBodyPref+err.Error())
		return
	}
	resp, err := h.services.Workflow.Train(c.Request.Context(), req)
	h.writeRelay(c, resp, err)
}

// @Summary      Workflow snapshot
// @Tags         workflow
// @Produce      json
// @Success      200  {object}  models.WorkflowState
// @Router       /api/workflow [get]
func (h *Handler) getWorkflow(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Workflow.Current())
}

// @Summary      Reset workflow
// @Description  Stops the live session and clears every step.
// @Tags         workflow
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/workflow/reset [post]
func (h *Handler) resetWorkflow(c *gin.Context) {
	if err := h.services.Workflow.Reset(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetWorkflow, "workflow_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusReset})
}
