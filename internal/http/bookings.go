package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/booking"
	"github.com/campuskit/reserve/internal/entities"
)

// BookingsController exposes reservation creation, listing and lifecycle
// operations.
type BookingsController struct {
	service *booking.Service
	audit   AuditLogger
}

func NewBookingsController(service *booking.Service, auditLogger AuditLogger) *BookingsController {
	return &BookingsController{service: service, audit: auditLogger}
}

type createBookingRequest struct {
	ResourceID uint      `json:"resource_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Purpose    string    `json:"purpose"`
}

// Create books a resource for a time slot.
// POST /api/bookings
func (bc *BookingsController) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "resource_id, start_time and end_time are required")
		return
	}

	userID := auth.GetUserID(c)
	created, err := bc.service.Create(userID, req.ResourceID, req.StartTime, req.EndTime, req.Purpose)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrResourceNotFound):
			respondNotFound(c, "resource")
		case errors.Is(err, booking.ErrInvalidTimeRange):
			respondBadRequest(c, err.Error())
		case errors.Is(err, booking.ErrResourceUnavailable),
			errors.Is(err, booking.ErrSlotTaken):
			respondConflict(c, err.Error())
		default:
			respondInternalError(c, err, "create booking")
		}
		return
	}

	bc.audit.LogAction(userID, entities.AuditEventBooking, "booking_create",
		"booked resource", "booking", &created.ID, nil)

	respondCreated(c, created)
}

// ListMine returns the caller's bookings ordered by start time.
// GET /api/bookings/my-bookings
func (bc *BookingsController) ListMine(c *gin.Context) {
	items, err := bc.service.ListForUser(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list own bookings")
		return
	}
	if items == nil {
		items = []entities.Booking{}
	}
	c.JSON(http.StatusOK, items)
}

// ListAll returns every booking.
// GET /api/bookings (admin)
func (bc *BookingsController) ListAll(c *gin.Context) {
	items, err := bc.service.ListAll()
	if err != nil {
		respondInternalError(c, err, "list all bookings")
		return
	}
	if items == nil {
		items = []entities.Booking{}
	}
	c.JSON(http.StatusOK, items)
}

// Get returns a single booking to its owner or an admin.
// GET /api/bookings/:id
func (bc *BookingsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := bc.service.Get(auth.GetClaims(c), id)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			respondNotFound(c, "booking")
		case errors.Is(err, booking.ErrForbidden):
			respondForbidden(c, "access denied")
		default:
			respondInternalError(c, err, "get booking")
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// Cancel soft-cancels a booking, freeing its time slot.
// DELETE /api/bookings/:id
func (bc *BookingsController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	claims := auth.GetClaims(c)
	if err := bc.service.Cancel(claims, id); err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			respondNotFound(c, "booking")
		case errors.Is(err, booking.ErrForbidden):
			respondForbidden(c, "access denied")
		default:
			respondInternalError(c, err, "cancel booking")
		}
		return
	}

	bc.audit.LogAction(claims.UserID, entities.AuditEventBooking, "booking_cancel",
		"cancelled booking", "booking", &id, nil)

	respondSuccess(c, "booking cancelled")
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus transitions a booking's status.
// PUT /api/bookings/:id/status (admin)
func (bc *BookingsController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "status is required")
		return
	}

	updated, err := bc.service.UpdateStatus(id, entities.BookingStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			respondNotFound(c, "booking")
		case errors.Is(err, booking.ErrInvalidStatus),
			errors.Is(err, booking.ErrInvalidTransition):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "update booking status")
		}
		return
	}

	bc.audit.LogAction(auth.GetUserID(c), entities.AuditEventBooking, "booking_status",
		"set booking status to "+req.Status, "booking", &id, nil)

	c.JSON(http.StatusOK, updated)
}
