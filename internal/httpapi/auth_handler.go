package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcastano/asistencia/internal/auth"
	"github.com/dcastano/asistencia/internal/store"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Code     string `json:"code"`
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Code:     u.Code,
		Theme:    u.Theme,
		Language: u.Language,
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := s.active().GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.internalError(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.IssueToken(s.cfg.JWTSecret, user.ID, user.Role)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserResponse(user),
	})
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.active().GetUserByID(c.Request.Context(), callerID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type profileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	st := s.active()
	user, err := st.GetUserByID(c.Request.Context(), callerID(c))
	if err != nil {
		s.internalError(c, err)
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Theme != "" {
		user.Theme = req.Theme
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.internalError(c, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := st.UpdateUserByEmail(c.Request.Context(), user); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
