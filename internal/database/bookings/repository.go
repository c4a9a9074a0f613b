// Package bookings provides database operations for reservations,
// including the overlap query the booking service builds on.
package bookings

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/entities"
)

// displayJoin attaches resource name and username to booking rows.
// This is presentation convenience only, not a modeled relationship.
const displayJoin = "bookings.*, resources.name AS resource_name, users.username AS username"

// Repository handles all booking database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new booking repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new booking record.
func (r *Repository) Create(booking *entities.Booking) error {
	return r.db.Create(booking).Error
}

// GetByID retrieves a booking by ID with display fields attached.
func (r *Repository) GetByID(id uint) (*entities.Booking, error) {
	var booking entities.Booking
	err := r.db.Table("bookings").
		Select(displayJoin).
		Joins("JOIN resources ON bookings.resource_id = resources.id").
		Joins("JOIN users ON bookings.user_id = users.id").
		Where("bookings.id = ?", id).
		Take(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetAll returns all bookings ordered by start time ascending.
func (r *Repository) GetAll() ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := r.db.Table("bookings").
		Select(displayJoin).
		Joins("JOIN resources ON bookings.resource_id = resources.id").
		Joins("JOIN users ON bookings.user_id = users.id").
		Order("bookings.start_time ASC, bookings.id ASC").
		Find(&bookings).Error
	return bookings, err
}

// GetByUser returns a user's bookings ordered by start time ascending.
func (r *Repository) GetByUser(userID uint) ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := r.db.Table("bookings").
		Select(displayJoin).
		Joins("JOIN resources ON bookings.resource_id = resources.id").
		Joins("JOIN users ON bookings.user_id = users.id").
		Where("bookings.user_id = ?", userID).
		Order("bookings.start_time ASC, bookings.id ASC").
		Find(&bookings).Error
	return bookings, err
}

// HasOverlap reports whether any non-cancelled booking on the resource
// intersects [start, end). Intervals are half-open: touching endpoints
// do not overlap.
func (r *Repository) HasOverlap(resourceID uint, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Booking{}).
		Where("resource_id = ?", resourceID).
		Where("status != ?", entities.BookingStatusCancelled).
		Where("start_time < ? AND end_time > ?", end, start).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus sets a booking's status.
func (r *Repository) UpdateStatus(id uint, status entities.BookingStatus) error {
	result := r.db.Model(&entities.Booking{}).Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Delete removes a booking by ID.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Booking{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteByUser removes all bookings owned by a user. Used by the admin
// cascade; call through WithTx so it shares the user-delete transaction.
func (r *Repository) DeleteByUser(userID uint) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&entities.Booking{})
	return result.RowsAffected, result.Error
}

// ExpireStalePending cancels Pending bookings whose end time has passed.
// Returns the number of bookings cancelled.
func (r *Repository) ExpireStalePending(now time.Time) (int64, error) {
	result := r.db.Model(&entities.Booking{}).
		Where("status = ?", entities.BookingStatusPending).
		Where("end_time < ?", now).
		Update("status", entities.BookingStatusCancelled)
	return result.RowsAffected, result.Error
}

// Count returns the total number of bookings.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Booking{}).Count(&count).Error
	return count, err
}

// CountActive returns the number of non-cancelled bookings.
func (r *Repository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Booking{}).
		Where("status != ?", entities.BookingStatusCancelled).
		Count(&count).Error
	return count, err
}

// CountByStatus returns booking counts grouped by status.
func (r *Repository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&entities.Booking{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
