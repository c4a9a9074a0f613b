package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reserve/internal/admin"
	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/entities"
)

// AuditReader returns paginated audit events.
type AuditReader interface {
	Events(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// AdminController exposes statistics, user administration and the audit
// log. All routes are admin-gated by middleware.
type AdminController struct {
	service *admin.Service
	audit   AuditLogger
	events  AuditReader
}

func NewAdminController(service *admin.Service, auditLogger AuditLogger, events AuditReader) *AdminController {
	return &AdminController{service: service, audit: auditLogger, events: events}
}

// Stats returns system-wide counts computed at call time.
// GET /api/admin/stats
func (ac *AdminController) Stats(c *gin.Context) {
	stats, err := ac.service.Stats()
	if err != nil {
		respondInternalError(c, err, "compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers returns all user accounts.
// GET /api/admin/users
func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.service.ListUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	if users == nil {
		users = []entities.User{}
	}
	c.JSON(http.StatusOK, users)
}

// DeleteUser removes a user and cascades to their bookings.
// DELETE /api/admin/users/:id
func (ac *AdminController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ac.service.DeleteUser(id); err != nil {
		if errors.Is(err, admin.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "delete user")
		return
	}

	ac.audit.LogAction(auth.GetUserID(c), entities.AuditEventAdmin, "user_delete",
		"deleted user and their bookings", "user", &id, nil)

	respondSuccess(c, "user deleted")
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole updates a user's role.
// PUT /api/admin/users/:id/role
func (ac *AdminController) SetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "role is required")
		return
	}

	user, err := ac.service.SetRole(id, entities.UserRole(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrUserNotFound):
			respondNotFound(c, "user")
		case errors.Is(err, admin.ErrInvalidRole):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "set user role")
		}
		return
	}

	ac.audit.LogAction(auth.GetUserID(c), entities.AuditEventAdmin, "user_role",
		"set role of "+user.Username+" to "+req.Role, "user", &id, nil)

	c.JSON(http.StatusOK, user)
}

// AuditLog returns paginated audit events, most recent first.
// GET /api/admin/audit
func (ac *AdminController) AuditLog(c *gin.Context) {
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	var userID uint
	if userStr := c.Query("user_id"); userStr != "" {
		if u, err := strconv.ParseUint(userStr, 10, 32); err == nil {
			userID = uint(u)
		}
	}

	events, total, err := ac.events.Events(userID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
