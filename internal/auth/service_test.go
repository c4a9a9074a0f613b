package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuskit/reserve/internal/config"
	"github.com/campuskit/reserve/internal/database/users"
	"github.com/campuskit/reserve/internal/entities"
)

func setupService(t *testing.T) (*Service, *users.Repository, func()) {
	t.Helper()

	dbPath := "./test_auth_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := users.NewRepository(db)
	tokens := NewTokenManager("test-secret", time.Hour)
	service := NewService(repo, tokens, config.Auth{
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: 3,
		LockoutDuration:  30 * time.Minute,
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return service, repo, cleanup
}

func registerAlice(t *testing.T, service *Service) *entities.User {
	t.Helper()
	user, err := service.Register(RegisterInput{
		Username: "alice",
		Password: "sup3rsecret",
		Email:    "alice@campus.edu",
	})
	require.NoError(t, err)
	return user
}

func TestService_Register(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	user, err := service.Register(RegisterInput{
		Username:  "alice",
		Password:  "sup3rsecret",
		Email:     "alice@campus.edu",
		StudentID: "S123456",
		Course:    "Physics",
		Year:      2,
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, entities.UserRoleStudent, user.Role)
	assert.NotEqual(t, "sup3rsecret", user.PasswordHash)
	assert.NoError(t, CheckPassword("sup3rsecret", user.PasswordHash))
}

func TestService_Register_Validation(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"missing username", RegisterInput{Password: "sup3rsecret", Email: "a@b.co"}, ErrUsernameRequired},
		{"missing email", RegisterInput{Username: "alice", Password: "sup3rsecret"}, ErrEmailRequired},
		{"missing password", RegisterInput{Username: "alice", Email: "a@b.co"}, ErrPasswordRequired},
		{"short username", RegisterInput{Username: "ab", Password: "sup3rsecret", Email: "a@b.co"}, ErrUsernameInvalid},
		{"bad username chars", RegisterInput{Username: "al ice!", Password: "sup3rsecret", Email: "a@b.co"}, ErrUsernameInvalid},
		{"bad email", RegisterInput{Username: "alice", Password: "sup3rsecret", Email: "not-an-email"}, ErrEmailInvalid},
		{"short password", RegisterInput{Username: "alice", Password: "short", Email: "a@b.co"}, ErrPasswordTooShort},
		{"bad role", RegisterInput{Username: "alice", Password: "sup3rsecret", Email: "a@b.co", Role: "superuser"}, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	registerAlice(t, service)

	_, err := service.Register(RegisterInput{
		Username: "alice",
		Password: "sup3rsecret",
		Email:    "other@campus.edu",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = service.Register(RegisterInput{
		Username: "alice2",
		Password: "sup3rsecret",
		Email:    "alice@campus.edu",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_Login(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	registerAlice(t, service)

	token, user, err := service.Login("alice", "sup3rsecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", user.Username)

	claims, err := service.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestService_Login_FailuresAreUniform(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	registerAlice(t, service)

	// Wrong password and unknown username must be indistinguishable
	_, _, wrongPassword := service.Login("alice", "wrong-password")
	_, _, unknownUser := service.Login("nobody", "sup3rsecret")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestService_Login_LockoutAfterRepeatedFailures(t *testing.T) {
	service, repo, cleanup := setupService(t)
	defer cleanup()

	user := registerAlice(t, service)

	for i := 0; i < 3; i++ {
		_, _, err := service.Login("alice", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FailedLoginCount)
	require.NotNil(t, stored.LockedUntil)

	// Even the correct password is rejected while locked
	_, _, err = service.Login("alice", "sup3rsecret")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestService_Login_SuccessResetsCounter(t *testing.T) {
	service, repo, cleanup := setupService(t)
	defer cleanup()

	user := registerAlice(t, service)

	_, _, err := service.Login("alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login("alice", "sup3rsecret")
	require.NoError(t, err)

	stored, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLoginCount)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestService_UpdateProfile(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	user := registerAlice(t, service)

	updated, err := service.UpdateProfile(user.ID, "new@campus.edu", "Maths", 3)
	require.NoError(t, err)
	assert.Equal(t, "new@campus.edu", updated.Email)
	assert.Equal(t, "Maths", updated.Course)
	assert.Equal(t, 3, updated.Year)

	_, err = service.UpdateProfile(user.ID, "bad-email", "", 0)
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = service.UpdateProfile(9999, "ok@campus.edu", "", 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ChangePassword(t *testing.T) {
	service, _, cleanup := setupService(t)
	defer cleanup()

	user := registerAlice(t, service)

	err := service.ChangePassword(user.ID, "wrong-password", "n3wpassword")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	err = service.ChangePassword(user.ID, "sup3rsecret", "n3wpassword")
	require.NoError(t, err)

	_, _, err = service.Login("alice", "sup3rsecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login("alice", "n3wpassword")
	assert.NoError(t, err)
}
