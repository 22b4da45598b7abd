// Package web hosts the overlay sidecar: health and metrics endpoints,
// a JSON standings API, and the websocket feed of live race frames.
package web

import (
	"context"
	"net/http"
	"time"

	"tadpole-derby/games/derby"
	"tadpole-derby/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wires the gin router around the derby manager and the frame
// hub.
type Server struct {
	manager *derby.Manager
	hub     *Hub
	srv     *http.Server
}

// NewServer builds the overlay server. Run the hub before Start.
func NewServer(manager *derby.Manager, hub *Hub) *Server {
	return &Server{manager: manager, hub: hub}
}

// Start serves in a background goroutine.
func (s *Server) Start(port string) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/standings", s.handleStandings)
	r.GET("/api/course", s.handleCourse)
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(s.hub, c.Writer, c.Request)
	})

	s.srv = &http.Server{Addr: ":" + port, Handler: r}
	go func() {
		utils.Log.Info("overlay server listening", zap.String("port", port))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Log.Error("overlay server error", zap.Error(err))
		}
	}()
}

// Shutdown stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
	defer cancel()

	if err := utils.PingDatabase(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "unhealthy: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleStandings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"races": s.manager.Snapshot()})
}

func (s *Server) handleCourse(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"courses": s.manager.Courses()})
}
