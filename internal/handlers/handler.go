package handlers

import (
	"intelliinspect/internal/logger"
	"intelliinspect/internal/metrics"
	"intelliinspect/internal/service"
	"intelliinspect/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options toggles the optional parts of the HTTP surface.
type Options struct {
	// RequireAuth guards the live session control routes with a bearer token.
	RequireAuth bool
	Metrics     *metrics.Metrics
	// Gatherer backs GET /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	store    *state.Store
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, store *state.Store, log *logger.Logger, opts Options) *Handler {
	return &Handler{services: services, store: store, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.corsMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	h.registerAuthRoutes(router)

	api := router.Group("/api")
	{
		api.GET("/health", h.apiHealth)
		h.registerProxyRoutes(api)
		h.registerWorkflowRoutes(api)
		h.registerLiveRoutes(api)
	}

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerProxyRoutes(api *gin.RouterGroup) {
	sim := api.Group("/simulation")
	{
		sim.POST("/start", h.guard(h.relaySimple)...)
		sim.POST("/stop", h.guard(h.relaySimple)...)
		sim.POST("/clear", h.guard(h.relaySimple)...)
		sim.GET("/next", h.relaySimple)
	}

	upload := api.Group("/upload")
	{
		upload.POST("/dataset", h.uploadDataset)
		upload.GET("/metadata", h.datasetMetadata)
	}

	ranges := api.Group("/dateranges")
	{
		ranges.POST("/validate", h.validateDateRanges)
		ranges.GET("/summary.png", h.relaySimple)
	}

	api.POST("/train", h.train)

	training := api.Group("/training")
	{
		training.GET("/metrics", h.relaySimple)
		training.GET("/status", h.relaySimple)
		training.GET("/confusion-matrix.png", h.relaySimple)
		training.GET("/roc.png", h.relaySimple)
	}
}

func (h *Handler) registerWorkflowRoutes(api *gin.RouterGroup) {
	wf := api.Group("/workflow")
	{
		wf.GET("", h.getWorkflow)
		wf.POST("/reset", h.guard(h.resetWorkflow)...)
	}
}

func (h *Handler) registerLiveRoutes(api *gin.RouterGroup) {
	live := api.Group("/live")
	{
		live.GET("/state", h.liveState)
		live.GET("/history/events", h.listEvents)
		live.GET("/history/samples", h.listSamples)
	}

	live.POST("/start", h.guard(h.startLive)...)
	live.POST("/stop", h.guard(h.stopLive)...)
	live.POST("/restart", h.guard(h.restartLive)...)
	live.POST("/clear", h.guard(h.clearLive)...)
}

// guard prepends the token check to routes that change session or workflow
// state when auth is required.
func (h *Handler) guard(handler gin.HandlerFunc) []gin.HandlerFunc {
	if h.opts.RequireAuth {
		return []gin.HandlerFunc{h.userIdMiddleware, handler}
	}
	return []gin.HandlerFunc{handler}
}
