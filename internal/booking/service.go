// Package booking implements the reservation rules: time-range
// validation, overlap detection, and the booking status lifecycle.
package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/database/bookings"
	"github.com/campuskit/reserve/internal/database/resources"
	"github.com/campuskit/reserve/internal/entities"
)

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
	ErrResourceUnavailable = errors.New("resource is not available")
	ErrSlotTaken           = errors.New("time slot already booked")
	ErrForbidden           = errors.New("access denied")
	ErrInvalidStatus       = errors.New("invalid booking status")
	ErrInvalidTransition   = errors.New("cancelled bookings cannot change status")
)

// Service validates booking requests against resource availability and
// existing reservations before committing them.
type Service struct {
	db        *gorm.DB
	bookings  *bookings.Repository
	resources *resources.Repository

	// Creation is serialized per resource: the overlap check and the
	// insert form a check-then-act sequence, and two concurrent requests
	// for the same resource must not both pass the check.
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewService creates a new booking service.
func NewService(db *gorm.DB, bookingRepo *bookings.Repository, resourceRepo *resources.Repository) *Service {
	return &Service{
		db:        db,
		bookings:  bookingRepo,
		resources: resourceRepo,
		locks:     make(map[uint]*sync.Mutex),
	}
}

// resourceLock returns the mutex guarding booking creation for a resource.
func (s *Service) resourceLock(resourceID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[resourceID] = lock
	}
	return lock
}

// Create validates and inserts a new booking with status Pending.
//
// The resource status field acts as an administrative override only
// (e.g. Maintenance); time-slot availability is decided by the overlap
// query against non-cancelled bookings.
func (s *Service) Create(userID, resourceID uint, start, end time.Time, purpose string) (*entities.Booking, error) {
	resource, err := s.resources.GetByID(resourceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	if resource.Status != entities.ResourceStatusAvailable {
		return nil, ErrResourceUnavailable
	}

	lock := s.resourceLock(resourceID)
	lock.Lock()
	defer lock.Unlock()

	booking := &entities.Booking{
		UserID:     userID,
		ResourceID: resourceID,
		StartTime:  start,
		EndTime:    end,
		Purpose:    purpose,
		Status:     entities.BookingStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.bookings.WithTx(tx)

		taken, err := repo.HasOverlap(resourceID, start, end)
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		if taken {
			return ErrSlotTaken
		}

		return repo.Create(booking)
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// Get returns a booking visible to the actor: its owner or an admin.
func (s *Service) Get(actor *auth.Claims, bookingID uint) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return booking, nil
}

// Cancel soft-cancels a booking. The row is retained with status
// Cancelled, which frees the interval for subsequent bookings.
func (s *Service) Cancel(actor *auth.Claims, bookingID uint) error {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	if booking.UserID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}

	return s.bookings.UpdateStatus(bookingID, entities.BookingStatusCancelled)
}

// UpdateStatus transitions a booking to the given status. Cancelled is
// terminal. Authorization (admin only) is enforced at the route.
func (s *Service) UpdateStatus(bookingID uint, status entities.BookingStatus) (*entities.Booking, error) {
	if !entities.ValidBookingStatus(status) {
		return nil, ErrInvalidStatus
	}

	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.Status == entities.BookingStatusCancelled && status != entities.BookingStatusCancelled {
		return nil, ErrInvalidTransition
	}

	if err := s.bookings.UpdateStatus(bookingID, status); err != nil {
		return nil, err
	}

	booking.Status = status
	return booking, nil
}

// ListForUser returns a user's bookings ordered by start time.
func (s *Service) ListForUser(userID uint) ([]entities.Booking, error) {
	return s.bookings.GetByUser(userID)
}

// ListAll returns every booking ordered by start time. Admin-gated at
// the route.
func (s *Service) ListAll() ([]entities.Booking, error) {
	return s.bookings.GetAll()
}

// ExpireStalePending cancels Pending bookings whose end time has passed.
// Invoked by the background maintenance task.
func (s *Service) ExpireStalePending(now time.Time) (int64, error) {
	return s.bookings.ExpireStalePending(now)
}
