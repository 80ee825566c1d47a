package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dcastano/asistencia/internal/dashboard"
	"github.com/dcastano/asistencia/internal/store"
	syncer "github.com/dcastano/asistencia/internal/sync"
)

// handleGetConfig returns the system configuration singleton. It always
// reads from the primary store; configuration lives locally even when
// the active database is remote.
func (s *Server) handleGetConfig(c *gin.Context) {
	cfg, err := s.primary().GetSystemConfig(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type updateConfigRequest struct {
	DBMode      string `json:"db_mode" binding:"required,oneof=local remote"`
	LocalDBURL  string `json:"local_db_url"`
	RemoteDBURL string `json:"remote_db_url"`
	SyncActive  bool   `json:"sync_active"`
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "db_mode must be 'local' or 'remote'"})
		return
	}
	if req.DBMode == store.DBModeRemote && req.RemoteDBURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "remote mode requires remote_db_url"})
		return
	}

	ctx := c.Request.Context()
	cfg, err := s.primary().UpdateSystemConfig(ctx, store.SystemConfigUpdate{
		DBMode:      req.DBMode,
		LocalDBURL:  req.LocalDBURL,
		RemoteDBURL: req.RemoteDBURL,
		SyncActive:  req.SyncActive,
	})
	if err != nil {
		s.internalError(c, err)
		return
	}

	// Point the request path at the newly configured database.
	if err := s.router.Refresh(ctx); err != nil {
		s.logger.Printf("Router refresh failed after config update: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"config": cfg,
			"error":  "configuration saved but the configured database is not reachable",
		})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type checkRequestBody struct {
	URL string `json:"url"`
}

// handleCheckLocal probes the configured local database, or the URL in
// the request body if one is supplied.
func (s *Server) handleCheckLocal(c *gin.Context) {
	var req checkRequestBody
	_ = c.ShouldBindJSON(&req)

	url := req.URL
	if url == "" {
		cfg, err := s.primary().GetSystemConfig(c.Request.Context())
		if err != nil {
			s.internalError(c, err)
			return
		}
		url = cfg.LocalDBURL
	}
	if url == "" {
		url = s.primary().URL()
	}
	s.respondProbe(c, url)
}

// handleCheckRemote probes the URL in the request body.
func (s *Server) handleCheckRemote(c *gin.Context) {
	var req checkRequestBody
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	s.respondProbe(c, req.URL)
}

func (s *Server) respondProbe(c *gin.Context, url string) {
	res := store.Probe(c.Request.Context(), url)
	if res.Reachable {
		c.JSON(http.StatusOK, gin.H{"status": "connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "error", "message": res.Reason})
}

// handleExploreLocal lists SQLite database files under the data
// directory so the frontend can offer them as local URLs.
func (s *Server) handleExploreLocal(c *gin.Context) {
	entries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, gin.H{"databases": []gin.H{}})
			return
		}
		s.internalError(c, err)
		return
	}

	databases := make([]gin.H, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".db" && ext != ".sqlite" {
			continue
		}
		databases = append(databases, gin.H{
			"name": name,
			"url":  "file:" + filepath.ToSlash(filepath.Join(s.cfg.DataDir, name)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"databases": databases})
}

// handleSync pushes local data to the remote database.
func (s *Server) handleSync(c *gin.Context) {
	s.runSync(c, s.rec.Push)
}

// handlePullRemote pulls remote data into the local database.
func (s *Server) handlePullRemote(c *gin.Context) {
	s.runSync(c, s.rec.Pull)
}

func (s *Server) runSync(c *gin.Context, run func(ctx context.Context) (*syncer.Report, error)) {
	report, err := run(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, syncer.ErrSyncInProgress):
			status = http.StatusConflict
		case errors.Is(err, syncer.ErrConfigIncomplete):
			status = http.StatusBadRequest
		}
		resp := gin.H{"error": err.Error()}
		if stage := syncer.Stage(err); stage != "" {
			resp["stage"] = stage
		}
		c.JSON(status, resp)
		return
	}
	s.publishStats(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message": report.Message(),
		"report":  report,
	})
}

// publishStats pushes fresh row counts to dashboard clients after a
// successful sync. Count failures only cost the broadcast.
func (s *Server) publishStats(ctx context.Context) {
	if s.hub == nil {
		return
	}
	st := s.active()
	users, err := st.CountUsers(ctx)
	if err != nil {
		return
	}
	attendance, err := st.CountAttendance(ctx)
	if err != nil {
		return
	}
	offices, err := st.CountOffices(ctx)
	if err != nil {
		return
	}
	s.hub.PublishStats(dashboard.StatsData{
		Users:      users,
		Attendance: attendance,
		Offices:    offices,
	})
}
