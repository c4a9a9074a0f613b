package booking

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/database/bookings"
	"github.com/campuskit/reserve/internal/database/resources"
	"github.com/campuskit/reserve/internal/entities"
)

func setupService(t *testing.T) (*Service, *gorm.DB, func()) {
	t.Helper()

	dbPath := "./test_booking_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Match production: a single connection so concurrent write
	// transactions queue on sqlite instead of failing.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Resource{},
		&entities.Booking{},
	)
	require.NoError(t, err)

	service := NewService(db, bookings.NewRepository(db), resources.NewRepository(db))

	cleanup := func() {
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return service, db, cleanup
}

func createUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	user := &entities.User{
		Username:     username,
		Email:        username + "@campus.edu",
		PasswordHash: "x",
		Role:         entities.UserRoleStudent,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createResource(t *testing.T, db *gorm.DB, status entities.ResourceStatus) *entities.Resource {
	t.Helper()
	resource := &entities.Resource{
		Name:     "Room 101",
		Category: "room",
		Status:   status,
	}
	require.NoError(t, db.Create(resource).Error)
	return resource
}

func studentClaims(user *entities.User) *auth.Claims {
	return &auth.Claims{UserID: user.ID, Username: user.Username, Role: entities.UserRoleStudent}
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: 9000, Username: "admin", Role: entities.UserRoleAdmin}
}

func slot(hour int) time.Time {
	return time.Date(2026, time.March, 10, hour, 0, 0, 0, time.UTC)
}

func TestService_Create(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(user.ID, resource.ID, slot(10), slot(11), "study group")
	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	assert.Equal(t, entities.BookingStatusPending, booking.Status)
	assert.Equal(t, "study group", booking.Purpose)
}

func TestService_Create_ResourceMissing(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	user := createUser(t, db, "alice")

	_, err := service.Create(user.ID, 9999, slot(10), slot(11), "")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestService_Create_InvalidTimeRange(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	_, err := service.Create(user.ID, resource.ID, slot(11), slot(10), "")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	// Zero-length intervals are rejected too
	_, err = service.Create(user.ID, resource.ID, slot(10), slot(10), "")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestService_Create_ResourceUnderMaintenance(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	resource := createResource(t, db, entities.ResourceStatusMaintenance)

	_, err := service.Create(user.ID, resource.ID, slot(10), slot(11), "")
	assert.ErrorIs(t, err, ErrResourceUnavailable)
}

func TestService_Create_OverlapRejected(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	_, err := service.Create(alice.ID, resource.ID, slot(10), slot(12), "")
	require.NoError(t, err)

	_, err = service.Create(bob.ID, resource.ID, slot(11), slot(13), "")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestService_Create_BackToBackAllowed(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	_, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)

	// An interval starting exactly where another ends does not conflict
	_, err = service.Create(bob.ID, resource.ID, slot(11), slot(12), "")
	assert.NoError(t, err)
}

func TestService_Create_ConcurrentSameSlot(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uint{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, userID uint) {
			defer wg.Done()
			_, errs[i] = service.Create(userID, resource.ID, slot(10), slot(11), "")
		}(i, userID)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrSlotTaken):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one request should win the slot")
	assert.Equal(t, 1, conflicted)
}

func TestService_CancelFreesSlot(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)

	_, err = service.Create(bob.ID, resource.ID, slot(10), slot(11), "")
	require.ErrorIs(t, err, ErrSlotTaken)

	require.NoError(t, service.Cancel(studentClaims(alice), booking.ID))

	// The cancelled row stays behind but the interval is free again
	rebooked, err := service.Create(bob.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)
	assert.NotEqual(t, booking.ID, rebooked.ID)

	cancelled, err := service.Get(studentClaims(alice), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, cancelled.Status)
}

func TestService_Cancel_Ownership(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)

	err = service.Cancel(studentClaims(bob), booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins may cancel anyone's booking
	assert.NoError(t, service.Cancel(adminClaims(), booking.ID))
}

func TestService_Get_Ownership(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)

	got, err := service.Get(studentClaims(alice), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = service.Get(studentClaims(bob), booking.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = service.Get(adminClaims(), booking.ID)
	assert.NoError(t, err)

	_, err = service.Get(adminClaims(), 9999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_UpdateStatus(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)

	updated, err := service.UpdateStatus(booking.ID, entities.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, updated.Status)

	_, err = service.UpdateStatus(booking.ID, "Rejected")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = service.UpdateStatus(9999, entities.BookingStatusConfirmed)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_UpdateStatus_CancelledIsTerminal(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)
	require.NoError(t, service.Cancel(studentClaims(alice), booking.ID))

	_, err = service.UpdateStatus(booking.ID, entities.BookingStatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_ListForUser(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	_, err := service.Create(alice.ID, resource.ID, slot(10), slot(11), "")
	require.NoError(t, err)
	_, err = service.Create(bob.ID, resource.ID, slot(11), slot(12), "")
	require.NoError(t, err)

	mine, err := service.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].UserID)
	assert.Equal(t, "Room 101", mine[0].ResourceName)

	all, err := service.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_ExpireStalePending(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	alice := createUser(t, db, "alice")
	resource := createResource(t, db, entities.ResourceStatusAvailable)

	booking, err := service.Create(alice.ID, resource.ID, slot(8), slot(9), "")
	require.NoError(t, err)

	expired, err := service.ExpireStalePending(slot(12))
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	got, err := service.Get(studentClaims(alice), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCancelled, got.Status)
}
