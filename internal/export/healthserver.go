package export

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// HealthServer exposes a minimal /healthz surface the orchestrator can poll,
// the same concern api/assistant-api/router/healthcheck.go wires for the
// telephony service, scaled down to this pipeline's single readiness signal:
// whether SetReady(true) has been called after the startup readiness waits.
// It does not track whether the operator graph is making progress.
type HealthServer struct {
	engine *gin.Engine
	logger logging.Logger
	ready  atomic.Bool
}

// NewHealthServer builds a HealthServer. It starts unready; call SetReady
// once the readiness waits in internal/readiness have succeeded.
func NewHealthServer(logger logging.Logger) *HealthServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	h := &HealthServer{engine: engine, logger: logger}

	engine.GET("/healthz", h.healthz)
	return h
}

// SetReady flips the readiness flag /healthz reports.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthServer) healthz(c *gin.Context) {
	if !h.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListenAndServe starts the health server on addr. It blocks until the
// server stops; callers run it in its own goroutine.
func (h *HealthServer) ListenAndServe(addr string) error {
	h.logger.Infof("health server listening on %s", addr)
	return h.engine.Run(addr)
}
