package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
	"github.com/haukened/outreach-gate/internal/outreach/services/gate"
)

// Options wires the services the HTTP API exposes.
type Options struct {
	Blocklist   blocklist.Repository
	SendRules   *gate.SendRules
	WorkRecords *gate.WorkRecords
	Logger      log.Logger
	// Dev enables gin debug mode.
	Dev bool
}

// Handlers holds the HTTP handlers of the outreach API.
type Handlers struct {
	blocklist   blocklist.Repository
	sendRules   *gate.SendRules
	workRecords *gate.WorkRecords
	logger      log.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	if opts.Dev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	h := &Handlers{
		blocklist:   opts.Blocklist,
		sendRules:   opts.SendRules,
		workRecords: opts.WorkRecords,
		logger:      logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(logger))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	ng := r.Group("/ng-list-domains")
	ng.POST("/check", h.checkDomain)
	ng.POST("/import", h.importPatterns)
	ng.GET("/stats", h.blocklistStats)
	ng.POST("", h.addPattern)
	ng.GET("", h.listPatterns)
	ng.DELETE("/:id", h.deletePattern)

	ns := r.Group("/no-send-settings")
	ns.POST("", h.createSendRule)
	ns.GET("", h.listSendRules)
	ns.PATCH("/:id", h.updateSendRule)
	ns.DELETE("/:id", h.deleteSendRule)

	wr := r.Group("/work-records")
	wr.POST("", h.createWorkRecord)
	wr.GET("", h.listWorkRecords)

	return r
}

// accessLog logs one debug line per request.
func accessLog(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(map[string]any{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}, "http request")
	}
}
