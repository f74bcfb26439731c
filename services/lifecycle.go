package services

import (
	"context"
	"fmt"

	"github.com/yeremiapane/restaurant-seating/models"
)

var reservationTransitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationConfirmed: {models.ReservationSeated, models.ReservationCancelled, models.ReservationNoShow},
	models.ReservationSeated:    {models.ReservationCompleted, models.ReservationNoShow},
}

// Seated is reached only through AssignTableToWaitlistEntry.
var waitlistTransitions = map[models.WaitlistStatus][]models.WaitlistStatus{
	models.WaitlistWaiting:  {models.WaitlistNotified, models.WaitlistRemoved},
	models.WaitlistNotified: {models.WaitlistRemoved},
}

func reservationCanMove(from, to models.ReservationStatus) error {
	if !to.Valid() {
		return invalid(fmt.Sprintf("unknown reservation status %q", to))
	}
	for _, s := range reservationTransitions[from] {
		if s == to {
			return nil
		}
	}
	return invalid(fmt.Sprintf("reservation cannot move from %s to %s", from, to))
}

func waitlistCanMove(from, to models.WaitlistStatus) error {
	if !to.Valid() {
		return invalid(fmt.Sprintf("unknown waitlist status %q", to))
	}
	if to == models.WaitlistSeated {
		return invalid("waitlist entries are seated by assigning a table")
	}
	for _, s := range waitlistTransitions[from] {
		if s == to {
			return nil
		}
	}
	return invalid(fmt.Sprintf("waitlist entry cannot move from %s to %s", from, to))
}

// ReservationLifecycle applies reservation status changes. Every change that
// touches a table goes through the coordinator.
type ReservationLifecycle struct {
	store  Store
	coord  *AssignmentCoordinator
	events EventPublisher
}

func NewReservationLifecycle(store Store, coord *AssignmentCoordinator, events EventPublisher) *ReservationLifecycle {
	if events == nil {
		events = noopPublisher{}
	}
	return &ReservationLifecycle{store: store, coord: coord, events: events}
}

// ChangeStatus moves reservation id to status. Asking for the current status
// is a no-op.
func (rl *ReservationLifecycle) ChangeStatus(ctx context.Context, id uint, status models.ReservationStatus) (*models.Reservation, error) {
	if !status.Valid() {
		return nil, invalid(fmt.Sprintf("unknown reservation status %q", status))
	}
	res, err := rl.store.GetReservation(ctx, id)
	if err != nil {
		return nil, storageErr("get reservation", err)
	}
	if res.Status == status {
		return res, nil
	}
	if err := reservationCanMove(res.Status, status); err != nil {
		return nil, err
	}
	if status == models.ReservationSeated && res.TableID == nil {
		return nil, invalid("a reservation needs a table before it can be seated")
	}

	updated, err := rl.coord.moveReservation(ctx, res, status)
	if err != nil {
		return nil, err
	}
	rl.events.Publish(EventReservationStatus, updated)
	return updated, nil
}

// WaitlistLifecycle applies waitlist status changes other than seating.
type WaitlistLifecycle struct {
	store  Store
	coord  *AssignmentCoordinator
	events EventPublisher
}

func NewWaitlistLifecycle(store Store, coord *AssignmentCoordinator, events EventPublisher) *WaitlistLifecycle {
	if events == nil {
		events = noopPublisher{}
	}
	return &WaitlistLifecycle{store: store, coord: coord, events: events}
}

func (wl *WaitlistLifecycle) ChangeStatus(ctx context.Context, id uint, status models.WaitlistStatus) (*models.WaitlistEntry, error) {
	if !status.Valid() {
		return nil, invalid(fmt.Sprintf("unknown waitlist status %q", status))
	}
	entry, err := wl.store.GetWaitlistEntry(ctx, id)
	if err != nil {
		return nil, storageErr("get waitlist entry", err)
	}
	if entry.Status == status {
		return entry, nil
	}
	if err := waitlistCanMove(entry.Status, status); err != nil {
		return nil, err
	}

	updated, err := wl.coord.moveWaitlist(ctx, entry, status)
	if err != nil {
		return nil, err
	}
	wl.events.Publish(EventWaitlistStatus, updated)
	return updated, nil
}

// Seat assigns tableID to the entry and marks it seated.
func (wl *WaitlistLifecycle) Seat(ctx context.Context, id, tableID uint) (*models.WaitlistEntry, error) {
	updated, err := wl.coord.seatWalkIn(ctx, tableID, id)
	if err != nil {
		return nil, err
	}
	wl.events.Publish(EventWaitlistStatus, updated)
	return updated, nil
}
