// Package statusapi exposes a minimal local-only HTTP surface for
// observing a live capture run: liveness and a snapshot of run and
// flow-table counters. It is only started for live (-i) captures and
// binds to the configured address (loopback by default).
package statusapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/dnsflowmeter/internal/logging"
	"github.com/jroosing/dnsflowmeter/internal/runstats"
)

// FlowCounter reports the number of live flows currently held by the
// flow manager, without exposing the manager itself.
type FlowCounter interface {
	ActiveFlowCount() int
}

// Server is the loopback-bound status HTTP server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a status server listening on addr, reporting counters
// from stats and flows plus the server's uptime.
func New(addr string, stats *runstats.Stats, flows FlowCounter, logger *slog.Logger) *Server {
	logger = logging.WithComponent(logger, "statusapi")
	started := time.Now()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/stats", func(c *gin.Context) {
		snap := runstats.Snapshot{}
		if stats != nil {
			snap = stats.Snapshot()
		}
		activeFlows := 0
		if flows != nil {
			activeFlows = flows.ActiveFlowCount()
		}
		c.JSON(http.StatusOK, gin.H{
			"total_packets":   snap.TotalPackets,
			"skipped_packets": snap.SkippedPackets,
			"skip_percent":    snap.SkipPercent,
			"active_flows":    activeFlows,
			"uptime_seconds":  time.Since(started).Seconds(),
		})
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

// Engine exposes the underlying gin engine for in-process testing.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks serving the status API until the server is
// shut down or a fatal listen error occurs.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the status API.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Debug("status api request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
