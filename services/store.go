package services

import (
	"context"
	"time"

	"github.com/yeremiapane/restaurant-seating/models"
)

// Store is the persistence port the seating core runs against. Lookups
// return a *NotFoundError for unknown ids.
type Store interface {
	LoadActiveTables(ctx context.Context) ([]models.Table, error)
	// LoadReservationsOverlapping returns confirmed or seated reservations
	// requested inside [from, to].
	LoadReservationsOverlapping(ctx context.Context, from, to time.Time) ([]models.Reservation, error)
	LoadActiveWaitlist(ctx context.Context) ([]models.WaitlistEntry, error)
	LoadActiveOrders(ctx context.Context) ([]models.Order, error)
	LoadReservationsOn(ctx context.Context, day time.Time) ([]models.Reservation, error)
	// LoadActiveReservationsByTable returns confirmed or seated reservations
	// holding the table, whatever their requested instant.
	LoadActiveReservationsByTable(ctx context.Context, tableID uint) ([]models.Reservation, error)

	GetTable(ctx context.Context, id uint) (*models.Table, error)
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	GetWaitlistEntry(ctx context.Context, id uint) (*models.WaitlistEntry, error)

	// SaveReservation and SaveWaitlistEntry create (ID == 0) or update a
	// record. An update only applies if the record's Version still matches
	// the stored one, and bumps it; otherwise it fails with a *ConflictError.
	// They never touch tables.
	SaveReservation(ctx context.Context, r *models.Reservation) error
	SaveWaitlistEntry(ctx context.Context, w *models.WaitlistEntry) error

	// PersistAssignment applies every change in a single transaction. A table,
	// reservation or waitlist entry whose version no longer matches fails the
	// whole call with a *ConflictError.
	PersistAssignment(ctx context.Context, a Assignment) error
}

type EntityKind string

const (
	KindReservation EntityKind = "reservation"
	KindWaitlist    EntityKind = "waitlist"
)

// Target names the entity a table is being assigned to or released from.
type Target struct {
	Kind EntityKind
	ID   uint
}

// TableChange is a conditional write: it only applies while the stored row
// still carries ExpectedVersion.
type TableChange struct {
	TableID         uint
	ExpectedVersion uint
	Status          models.TableStatus
	LastOccupiedAt  *time.Time
}

// Assignment is everything one assign or release touches. At most one of
// Reservation or Waitlist is set; a record with ID 0 is created.
type Assignment struct {
	Tables      []TableChange
	Reservation *models.Reservation
	Waitlist    *models.WaitlistEntry
	// ClearWaitlistTable drops the table back-reference of seated walk-ins
	// sitting at these tables.
	ClearWaitlistTable []uint
}
