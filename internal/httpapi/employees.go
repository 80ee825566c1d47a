package httpapi

import (
	"crypto/rand"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dcastano/asistencia/internal/auth"
	"github.com/dcastano/asistencia/internal/store"
)

// handleListEmployees returns the accounts the caller may see:
// SUPER_ADMIN sees everyone, ADMIN sees employees, anyone else sees
// only their own account.
func (s *Server) handleListEmployees(c *gin.Context) {
	ctx := c.Request.Context()
	st := s.active()

	var (
		users []*store.User
		err   error
	)
	switch callerRole(c) {
	case store.RoleSuperAdmin:
		users, err = st.ListUsers(ctx)
	case store.RoleAdmin:
		users, err = st.ListUsersByRole(ctx, store.RoleEmployee)
	default:
		var u *store.User
		u, err = st.GetUserByID(ctx, callerID(c))
		if err == nil {
			users = []*store.User{u}
		}
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

type createEmployeeRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and a password of at least 6 characters are required"})
		return
	}

	role := req.Role
	if role == "" {
		role = store.RoleEmployee
	}
	if !validRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	// Only a super admin may create privileged accounts.
	if role != store.RoleEmployee && callerRole(c) != store.RoleSuperAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.internalError(c, err)
		return
	}

	user := &store.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Code:         NewEmployeeCode(),
		Theme:        "light",
		Language:     "es",
	}
	if err := s.active().CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

type updateEmployeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleUpdateEmployee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	st := s.active()
	user, err := st.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		s.internalError(c, err)
		return
	}

	name, email, role := user.Name, user.Email, user.Role
	if req.Name != "" {
		name = req.Name
	}
	if req.Email != "" {
		email = req.Email
	}
	if req.Role != "" {
		if !validRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		if callerRole(c) != store.RoleSuperAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		role = req.Role
	}

	if err := st.UpdateUserProfile(ctx, id, name, email, role); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		s.internalError(c, err)
		return
	}
	user, err = st.GetUserByID(ctx, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteEmployee(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee id"})
		return
	}
	if id == callerID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	if err := s.active().DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "employee deleted"})
}

func validRole(role string) bool {
	switch role {
	case store.RoleEmployee, store.RoleAdmin, store.RoleSuperAdmin:
		return true
	}
	return false
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewEmployeeCode returns a random 6-character identification code.
// The alphabet omits characters easily confused on printed badges.
func NewEmployeeCode() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}
