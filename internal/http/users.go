package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/entities"
)

// UsersController exposes registration, login and profile management.
type UsersController struct {
	auth  *auth.Service
	audit AuditLogger
}

// AuditLogger records actions against the audit event log.
type AuditLogger interface {
	LogAction(userID uint, eventType entities.AuditEventType, action, description, entityType string, entityID *uint, err error)
}

func NewUsersController(authService *auth.Service, auditLogger AuditLogger) *UsersController {
	return &UsersController{auth: authService, audit: auditLogger}
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Email     string `json:"email" binding:"required"`
	StudentID string `json:"student_id"`
	Course    string `json:"course"`
	Year      int    `json:"year"`
}

// Register creates a new student account.
// POST /api/users
func (uc *UsersController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, password and email are required")
		return
	}

	// Public registration always creates students; admins are promoted
	// through the role endpoint.
	user, err := uc.auth.Register(auth.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		Role:      entities.UserRoleStudent,
		StudentID: req.StudentID,
		Course:    req.Course,
		Year:      req.Year,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			respondConflict(c, err.Error())
		case errors.Is(err, auth.ErrUsernameInvalid),
			errors.Is(err, auth.ErrEmailInvalid),
			errors.Is(err, auth.ErrUsernameRequired),
			errors.Is(err, auth.ErrEmailRequired),
			errors.Is(err, auth.ErrPasswordRequired),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "register user")
		}
		return
	}

	uc.audit.LogAction(user.ID, entities.AuditEventAuth, "user_register",
		"registered account "+user.Username, "user", &user.ID, nil)

	respondCreated(c, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// Login validates credentials and issues a bearer token.
// POST /api/users/login
func (uc *UsersController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	token, user, err := uc.auth.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			uc.audit.LogAction(0, entities.AuditEventAuth, "login_failed",
				"failed login for "+req.Username, "user", nil, err)
			respondUnauthorized(c, "invalid credentials")
		case errors.Is(err, auth.ErrAccountLocked):
			uc.audit.LogAction(0, entities.AuditEventAuth, "login_locked",
				"login attempt on locked account "+req.Username, "user", nil, err)
			respondUnauthorized(c, err.Error())
		default:
			respondInternalError(c, err, "login")
		}
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// GetProfile returns the authenticated caller's account.
// GET /api/users/profile
func (uc *UsersController) GetProfile(c *gin.Context) {
	user, err := uc.auth.GetUser(auth.GetUserID(c))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Email  string `json:"email"`
	Course string `json:"course"`
	Year   int    `json:"year"`
}

// UpdateProfile applies profile edits for the authenticated caller.
// PUT /api/users/profile
func (uc *UsersController) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := uc.auth.UpdateProfile(auth.GetUserID(c), req.Email, req.Course, req.Year)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			respondNotFound(c, "user")
		case errors.Is(err, auth.ErrEmailInvalid):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "update profile")
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword replaces the caller's password.
// PUT /api/users/change-password
func (uc *UsersController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}

	userID := auth.GetUserID(c)
	err := uc.auth.ChangePassword(userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			respondNotFound(c, "user")
		case errors.Is(err, auth.ErrPasswordMismatch),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "change password")
		}
		return
	}

	uc.audit.LogAction(userID, entities.AuditEventAuth, "password_change",
		"password changed", "user", &userID, nil)

	respondSuccess(c, "password updated")
}
