package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dcastano/asistencia/internal/store"
)

const (
	defaultOfficeName   = "Main Office"
	defaultOfficeRadius = 500
)

// handleGetOffice returns the office geofence, creating the default
// one on first access.
func (s *Server) handleGetOffice(c *gin.Context) {
	ctx := c.Request.Context()
	st := s.active()

	office, err := st.FirstOffice(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.internalError(c, err)
			return
		}
		office = &store.Office{
			Name:      defaultOfficeName,
			Latitude:  0,
			Longitude: 0,
			Radius:    defaultOfficeRadius,
			UpdatedAt: time.Now().UTC(),
		}
		if err := st.InsertOffice(ctx, office); err != nil {
			s.internalError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, office)
}

type updateOfficeRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Radius    *float64 `json:"radius" binding:"required"`
}

func (s *Server) handleUpdateOffice(c *gin.Context) {
	var req updateOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude, longitude and radius are required"})
		return
	}
	if *req.Radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be positive"})
		return
	}

	ctx := c.Request.Context()
	st := s.active()

	office, err := st.FirstOffice(ctx)
	exists := true
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.internalError(c, err)
			return
		}
		exists = false
		office = &store.Office{Name: defaultOfficeName}
	}

	if req.Name != "" {
		office.Name = req.Name
	}
	office.Latitude = *req.Latitude
	office.Longitude = *req.Longitude
	office.Radius = *req.Radius
	office.UpdatedAt = time.Now().UTC()

	// Edit the existing row in place so a rename never leaves the old
	// office behind.
	if exists {
		err = st.UpdateOffice(ctx, office)
	} else {
		err = st.InsertOffice(ctx, office)
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, office)
}
