package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dcastano/asistencia/internal/store"
)

type checkRequest struct {
	QRCode    string   `json:"qr_code" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type attendanceResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	IsVerified bool      `json:"is_verified"`
	UserEmail  string    `json:"user_email,omitempty"`
	UserName   string    `json:"user_name,omitempty"`
}

func toAttendanceResponse(a *store.Attendance) attendanceResponse {
	return attendanceResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		Type:       a.Type,
		Timestamp:  a.Timestamp,
		Status:     a.Status,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
		IsVerified: a.IsVerified,
		UserEmail:  a.UserEmail,
		UserName:   a.UserName,
	}
}

func (s *Server) handleCheckIn(c *gin.Context) {
	s.handleCheck(c, store.CheckIn, "ON_TIME")
}

func (s *Server) handleCheckOut(c *gin.Context) {
	s.handleCheck(c, store.CheckOut, "Left Work")
}

func (s *Server) handleCheck(c *gin.Context, typ, status string) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qr_code is required"})
		return
	}

	userID := callerID(c)
	accepted := strings.TrimSpace(req.QRCode) == s.cfg.QRCode
	if s.audit != nil {
		s.audit.CheckAttempt(userID, typ, req.QRCode, accepted)
	}
	if !accepted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid QR code"})
		return
	}

	ctx := c.Request.Context()
	st := s.active()

	// Reject a check-in on top of an open check-in, and a check-out
	// without one.
	last, err := st.LastAttendanceForUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.internalError(c, err)
			return
		}
		last = nil
	}
	if typ == store.CheckIn && last != nil && last.Type == store.CheckIn {
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in"})
		return
	}
	if typ == store.CheckOut && (last == nil || last.Type != store.CheckIn) {
		c.JSON(http.StatusConflict, gin.H{"error": "no open check-in"})
		return
	}

	rec := &store.Attendance{
		UserID:     userID,
		Type:       typ,
		Timestamp:  time.Now().UTC(),
		Status:     status,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		IsVerified: true,
	}
	if err := st.InsertAttendance(ctx, rec); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAttendanceResponse(rec))
}

// handleAttendanceStatus returns the caller's most recent record, or a
// null record if they have no history yet.
func (s *Server) handleAttendanceStatus(c *gin.Context) {
	last, err := s.active().LastAttendanceForUser(c.Request.Context(), callerID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"record": nil})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": toAttendanceResponse(last)})
}

type updateAttendanceRequest struct {
	Type      string    `json:"type" binding:"required,oneof=CHECK_IN CHECK_OUT"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Status    string    `json:"status" binding:"required"`
}

func (s *Server) handleUpdateAttendance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attendance id"})
		return
	}
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = s.active().UpdateAttendance(c.Request.Context(), id, req.Type, req.Timestamp.UTC(), req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attendance record not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance updated"})
}

func (s *Server) handleDeleteAttendance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attendance id"})
		return
	}
	if err := s.active().DeleteAttendance(c.Request.Context(), id); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "attendance deleted"})
}

// handleListAttendance returns attendance records. Admins see all
// records; employees see their own.
func (s *Server) handleListAttendance(c *gin.Context) {
	ctx := c.Request.Context()
	st := s.active()

	since := time.Time{}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
			return
		}
		since = t
	}

	records, err := st.ListAttendanceSince(ctx, since)
	if err != nil {
		s.internalError(c, err)
		return
	}

	role := callerRole(c)
	out := make([]attendanceResponse, 0, len(records))
	for _, a := range records {
		if role != store.RoleAdmin && role != store.RoleSuperAdmin && a.UserID != callerID(c) {
			continue
		}
		out = append(out, toAttendanceResponse(a))
	}
	c.JSON(http.StatusOK, out)
}
