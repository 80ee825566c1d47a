// Package httpapi exposes the attendance service over HTTP.
//
// Handlers read and write through the store Router's active connection,
// so an admin switching the configured database mode takes effect on
// the next request without a restart. Sync operations delegate to the
// reconciler and report stage-attributed errors to the frontend.
package httpapi

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dcastano/asistencia/internal/audit"
	"github.com/dcastano/asistencia/internal/config"
	"github.com/dcastano/asistencia/internal/dashboard"
	"github.com/dcastano/asistencia/internal/store"
	syncer "github.com/dcastano/asistencia/internal/sync"
)

// Server wires the HTTP handlers to their dependencies.
type Server struct {
	cfg    *config.Config
	router *store.Router
	rec    *syncer.Reconciler
	hub    *dashboard.Hub
	audit  *audit.Logger
	logger *log.Logger

	engine *gin.Engine
}

// New creates a Server and registers all routes. hub and auditLog may
// be nil; the corresponding features are disabled.
func New(cfg *config.Config, router *store.Router, rec *syncer.Reconciler, hub *dashboard.Hub, auditLog *audit.Logger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[http] ", log.LstdFlags)
	}
	s := &Server{
		cfg:    cfg,
		router: router,
		rec:    rec,
		hub:    hub,
		audit:  auditLog,
		logger: logger,
	}
	s.engine = s.buildEngine()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) buildEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(s.requestLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/login", s.handleLogin)

		if s.hub != nil {
			api.GET("/ws", gin.WrapH(s.hub))
		}

		authed := api.Group("")
		authed.Use(s.requireAuth())
		{
			authed.GET("/auth/me", s.handleMe)
			authed.PUT("/auth/profile", s.handleUpdateProfile)

			authed.GET("/employees", s.handleListEmployees)
			authed.GET("/attendance", s.handleListAttendance)
			authed.GET("/attendance/status", s.handleAttendanceStatus)
			authed.POST("/attendance/check-in", s.handleCheckIn)
			authed.POST("/attendance/check-out", s.handleCheckOut)

			authed.GET("/office", s.handleGetOffice)

			admin := authed.Group("")
			admin.Use(s.requireRole(store.RoleAdmin, store.RoleSuperAdmin))
			{
				admin.POST("/employees", s.handleCreateEmployee)
				admin.PUT("/employees/:id", s.handleUpdateEmployee)
				admin.DELETE("/employees/:id", s.handleDeleteEmployee)
				admin.PUT("/attendance/:id", s.handleUpdateAttendance)
				admin.DELETE("/attendance/:id", s.handleDeleteAttendance)
				admin.PUT("/office", s.handleUpdateOffice)
			}

			super := authed.Group("/config")
			super.Use(s.requireRole(store.RoleSuperAdmin))
			{
				super.GET("", s.handleGetConfig)
				super.PUT("", s.handleUpdateConfig)
				super.POST("/check-local", s.handleCheckLocal)
				super.POST("/check-remote", s.handleCheckRemote)
				super.GET("/explore-local", s.handleExploreLocal)
				super.POST("/sync", s.handleSync)
				super.POST("/pull-remote", s.handlePullRemote)
			}
		}
	}

	return r
}

// active returns the store the current request should use.
func (s *Server) active() *store.Store {
	return s.router.Active()
}

// primary returns the local store that holds system configuration.
func (s *Server) primary() *store.Store {
	return s.router.Primary()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Printf("%s %s -> %d (request %s)",
				c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.GetString("request_id"))
		}
	}
}
