// Package auth handles password hashing, token issuance and verification,
// and request authentication for the booking API.
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/campuskit/reserve/internal/config"
	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/database/users"
	"github.com/campuskit/reserve/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
)

// RegisterInput carries the attributes accepted at registration.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	Role      entities.UserRole
	StudentID string
	Course    string
	Year      int
}

// Service handles authentication and account management.
type Service struct {
	users  *users.Repository
	tokens *TokenManager
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, tokens *TokenManager, cfg config.Auth) *Service {
	return &Service{users: repo, tokens: tokens, config: cfg}
}

// Register creates a new user account, storing only the password digest.
func (s *Service) Register(in RegisterInput) (*entities.User, error) {
	if in.Username == "" {
		return nil, ErrUsernameRequired
	}
	if in.Email == "" {
		return nil, ErrEmailRequired
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(in.Username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 caps addresses at 254 bytes
	if len(in.Email) > 254 || !emailPattern.MatchString(in.Email) {
		return nil, ErrEmailInvalid
	}

	role := in.Role
	if role == "" {
		role = entities.UserRoleStudent
	}
	if !entities.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	taken, err := s.users.UsernameOrEmailTaken(in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         role,
		StudentID:    in.StudentID,
		Course:       in.Course,
		Year:         in.Year,
	}

	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login validates credentials and returns a signed token and the user.
// Unknown usernames and wrong passwords fail identically so callers
// cannot probe which accounts exist.
func (s *Service) Login(username, password string) (string, *entities.User, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return "", nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user)
		return "", nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLoginSuccess(user.ID); err != nil {
		return "", nil, fmt.Errorf("failed to record login: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// recordFailedLogin increments the failed login counter and locks the
// account once the configured threshold is reached.
func (s *Service) recordFailedLogin(user *entities.User) {
	user.FailedLoginCount++

	var lockedUntil *time.Time
	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		until := time.Now().Add(lockoutDuration)
		lockedUntil = &until
	}

	// Best effort: a failed write here must not mask the credential error.
	_ = s.users.RecordLoginFailure(user.ID, user.FailedLoginCount, lockedUntil)
}

// Authenticate verifies a bearer token and returns the caller's claims.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile applies profile edits (email, course, year) for a user.
func (s *Service) UpdateProfile(id uint, email, course string, year int) (*entities.User, error) {
	updates := map[string]any{}
	if email != "" {
		if len(email) > 254 || !emailPattern.MatchString(email) {
			return nil, ErrEmailInvalid
		}
		updates["email"] = email
	}
	if course != "" {
		updates["course"] = course
	}
	if year != 0 {
		updates["year"] = year
	}
	if len(updates) == 0 {
		return s.GetUser(id)
	}

	user, err := s.users.Update(id, updates)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ChangePassword replaces a user's password after verifying the current one.
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(currentPassword, user.PasswordHash); err != nil {
		return ErrPasswordMismatch
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(userID, newHash)
}
