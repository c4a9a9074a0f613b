package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// BookingExpirer cancels stale pending bookings.
type BookingExpirer interface {
	ExpireStalePending(now time.Time) (int64, error)
}

// ExpireBookingsTask cancels Pending bookings whose end time has passed.
// Pending reservations nobody confirmed should not linger and block slots
// in listings.
type ExpireBookingsTask struct{}

// Config returns the queue configuration for booking expiry tasks.
func (t ExpireBookingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "expire_stale_bookings",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ExpireBookingsProcessor creates a processor function for
// ExpireBookingsTask.
func ExpireBookingsProcessor(expirer BookingExpirer) backlite.QueueProcessor[ExpireBookingsTask] {
	return func(ctx context.Context, task ExpireBookingsTask) error {
		if expirer == nil {
			return fmt.Errorf("booking expirer not configured")
		}

		expired, err := expirer.ExpireStalePending(time.Now())
		if err != nil {
			return fmt.Errorf("expire stale bookings: %w", err)
		}

		if expired > 0 {
			log.Printf("[TASK] Cancelled %d stale pending bookings", expired)
		}
		return nil
	}
}

// NewExpireBookingsQueue creates a backlite queue for booking expiry
// tasks.
func NewExpireBookingsQueue(expirer BookingExpirer) backlite.Queue {
	return backlite.NewQueue(ExpireBookingsProcessor(expirer))
}
