package users

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func newUser(username, email string) *entities.User {
	return &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Role:         entities.UserRoleStudent,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := newUser("alice", "alice@campus.edu")
	require.NoError(t, repo.Create(user))
	assert.NotZero(t, user.ID)

	byID, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := repo.GetByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestRepository_GetNotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(42)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = repo.GetByUsername("nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_UsernameOrEmailTaken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(newUser("alice", "alice@campus.edu")))

	tests := []struct {
		name     string
		username string
		email    string
		taken    bool
	}{
		{"both free", "bob", "bob@campus.edu", false},
		{"username taken", "alice", "other@campus.edu", true},
		{"email taken", "other", "alice@campus.edu", true},
		{"both taken", "alice", "alice@campus.edu", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taken, err := repo.UsernameOrEmailTaken(tt.username, tt.email)
			require.NoError(t, err)
			assert.Equal(t, tt.taken, taken)
		})
	}
}

func TestRepository_Update_PartialFields(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := newUser("alice", "alice@campus.edu")
	user.Course = "Physics"
	require.NoError(t, repo.Create(user))

	updated, err := repo.Update(user.ID, map[string]any{"email": "new@campus.edu"})
	require.NoError(t, err)
	assert.Equal(t, "new@campus.edu", updated.Email)
	assert.Equal(t, "Physics", updated.Course)
	assert.Equal(t, "alice", updated.Username)
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Update(42, map[string]any{"email": "x@campus.edu"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_UpdatePassword(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := newUser("alice", "alice@campus.edu")
	require.NoError(t, repo.Create(user))

	require.NoError(t, repo.UpdatePassword(user.ID, "newhash"))

	stored, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", stored.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(42, "x"), database.ErrNotFound)
}

func TestRepository_LoginBookkeeping(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := newUser("alice", "alice@campus.edu")
	require.NoError(t, repo.Create(user))

	lockedUntil := time.Now().Add(30 * time.Minute)
	require.NoError(t, repo.RecordLoginFailure(user.ID, 5, &lockedUntil))

	stored, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedLoginCount)
	require.NotNil(t, stored.LockedUntil)

	require.NoError(t, repo.RecordLoginSuccess(user.ID))

	stored, err = repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLoginCount)
	assert.Nil(t, stored.LockedUntil)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestRepository_GetAllAndCount(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(newUser("alice", "alice@campus.edu")))
	require.NoError(t, repo.Create(newUser("bob", "bob@campus.edu")))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Username)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
