// Package admin provides aggregate statistics and user administration.
package admin

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/database/bookings"
	"github.com/campuskit/reserve/internal/database/resources"
	"github.com/campuskit/reserve/internal/database/users"
	"github.com/campuskit/reserve/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("invalid role")
)

// Stats holds system-wide counts, computed at call time.
type Stats struct {
	TotalUsers          int64            `json:"totalUsers"`
	TotalResources      int64            `json:"totalResources"`
	TotalBookings       int64            `json:"totalBookings"`
	ActiveBookings      int64            `json:"activeBookings"`
	ResourcesByCategory map[string]int64 `json:"resourcesByCategory"`
	BookingsByStatus    map[string]int64 `json:"bookingsByStatus"`
}

// Service aggregates counts across stores and performs user
// administration, including the booking cascade on user deletion.
type Service struct {
	db        *gorm.DB
	users     *users.Repository
	resources *resources.Repository
	bookings  *bookings.Repository
}

// NewService creates a new admin service.
func NewService(db *gorm.DB, userRepo *users.Repository, resourceRepo *resources.Repository, bookingRepo *bookings.Repository) *Service {
	return &Service{
		db:        db,
		users:     userRepo,
		resources: resourceRepo,
		bookings:  bookingRepo,
	}
}

// Stats computes current totals and group-by breakdowns.
func (s *Service) Stats() (*Stats, error) {
	totalUsers, err := s.users.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	totalResources, err := s.resources.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}
	totalBookings, err := s.bookings.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	activeBookings, err := s.bookings.CountActive()
	if err != nil {
		return nil, fmt.Errorf("failed to count active bookings: %w", err)
	}
	byCategory, err := s.resources.CountByCategory()
	if err != nil {
		return nil, fmt.Errorf("failed to group resources: %w", err)
	}
	byStatus, err := s.bookings.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to group bookings: %w", err)
	}

	return &Stats{
		TotalUsers:          totalUsers,
		TotalResources:      totalResources,
		TotalBookings:       totalBookings,
		ActiveBookings:      activeBookings,
		ResourcesByCategory: byCategory,
		BookingsByStatus:    byStatus,
	}, nil
}

// ListUsers returns all users. Password digests are excluded by the
// entity's serialization rules.
func (s *Service) ListUsers() ([]entities.User, error) {
	return s.users.GetAll()
}

// DeleteUser removes the user and all their bookings in one transaction
// so a partial failure cannot leave orphaned bookings behind.
func (s *Service) DeleteUser(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		if _, err := s.bookings.WithTx(tx).DeleteByUser(id); err != nil {
			return fmt.Errorf("failed to cascade bookings: %w", err)
		}
		return nil
	})
}

// SetRole updates a user's role.
func (s *Service) SetRole(id uint, role entities.UserRole) (*entities.User, error) {
	if !entities.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.users.Update(id, map[string]any{"role": role})
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
