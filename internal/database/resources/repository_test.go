package resources

import (
	"os"
	"testing"

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

	dbPath := "./test_resources_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Resource{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func newResource(name, category string) *entities.Resource {
	return &entities.Resource{
		Name:     name,
		Category: category,
		Location: "Main building",
		Capacity: 4,
		Status:   entities.ResourceStatusAvailable,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	resource := newResource("Room 101", "room")
	require.NoError(t, repo.Create(resource))
	assert.NotZero(t, resource.ID)

	stored, err := repo.GetByID(resource.ID)
	require.NoError(t, err)
	assert.Equal(t, "Room 101", stored.Name)
	assert.Equal(t, entities.ResourceStatusAvailable, stored.Status)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByID(42)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_GetAll_CategoryFilter(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(newResource("Room 101", "room")))
	require.NoError(t, repo.Create(newResource("Room 102", "room")))
	require.NoError(t, repo.Create(newResource("Projector A", "equipment")))

	all, err := repo.GetAll("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	rooms, err := repo.GetAll("room")
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	labs, err := repo.GetAll("lab")
	require.NoError(t, err)
	assert.Empty(t, labs)
}

func TestRepository_Update_PartialFields(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	resource := newResource("Room 101", "room")
	require.NoError(t, repo.Create(resource))

	updated, err := repo.Update(resource.ID, map[string]any{
		"status":   entities.ResourceStatusMaintenance,
		"capacity": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.ResourceStatusMaintenance, updated.Status)
	assert.Equal(t, 10, updated.Capacity)
	assert.Equal(t, "Room 101", updated.Name)

	_, err = repo.Update(42, map[string]any{"capacity": 1})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Delete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	resource := newResource("Room 101", "room")
	require.NoError(t, repo.Create(resource))

	require.NoError(t, repo.Delete(resource.ID))

	_, err := repo.GetByID(resource.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(resource.ID), database.ErrNotFound)
}

func TestRepository_CountByCategory(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(newResource("Room 101", "room")))
	require.NoError(t, repo.Create(newResource("Room 102", "room")))
	require.NoError(t, repo.Create(newResource("Projector A", "equipment")))

	counts, err := repo.CountByCategory()
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["room"])
	assert.Equal(t, int64(1), counts["equipment"])

	total, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
