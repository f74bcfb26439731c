package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-seating/models"
)

// AssignmentCoordinator is the only component that changes table status.
// Each call holds the per-table lock across read, verify and write, and the
// write itself is a single versioned transaction in the store. Tables,
// reservations and waitlist entries all carry a version, so a write based on
// a stale read fails with a ConflictError. Events go out after the lock is
// released.
type AssignmentCoordinator struct {
	store  Store
	locks  *tableLocks
	events EventPublisher
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewAssignmentCoordinator(store Store, events EventPublisher, log logrus.FieldLogger) *AssignmentCoordinator {
	if events == nil {
		events = noopPublisher{}
	}
	return &AssignmentCoordinator{
		store:  store,
		locks:  newTableLocks(),
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// AssignTable claims tableID for a confirmed reservation (table becomes
// reserved) or a waiting walk-in (table becomes occupied, entry seated).
// Repeating a successful call is a no-op.
func (ac *AssignmentCoordinator) AssignTable(ctx context.Context, tableID uint, target Target) error {
	switch target.Kind {
	case KindReservation:
		res, err := ac.store.GetReservation(ctx, target.ID)
		if err != nil {
			return storageErr("get reservation", err)
		}
		if sameID(res.TableID, tableID) && res.Status == models.ReservationConfirmed {
			table, err := ac.store.GetTable(ctx, tableID)
			if err != nil {
				return storageErr("get table", err)
			}
			if table.Status == models.TableReserved {
				return nil
			}
		}
		_, err = ac.reserve(ctx, tableID, res)
		return err
	case KindWaitlist:
		_, err := ac.seatWalkIn(ctx, tableID, target.ID)
		return err
	default:
		return invalid(fmt.Sprintf("unknown assignment target %q", target.Kind))
	}
}

// ReleaseTable moves the entity to resultingStatus and sets the table per
// the release mapping: seated -> occupied, completed -> dirty,
// cancelled/no_show/removed -> available. Seated walk-ins leave through
// VacateTable.
func (ac *AssignmentCoordinator) ReleaseTable(ctx context.Context, tableID uint, target Target, resultingStatus string) error {
	switch target.Kind {
	case KindReservation:
		to := models.ReservationStatus(resultingStatus)
		res, err := ac.store.GetReservation(ctx, target.ID)
		if err != nil {
			return storageErr("get reservation", err)
		}
		if !sameID(res.TableID, tableID) {
			return invalid(fmt.Sprintf("reservation %d does not hold table %d", res.ID, tableID))
		}
		if err := reservationCanMove(res.Status, to); err != nil {
			return err
		}
		_, err = ac.moveReservation(ctx, res, to)
		return err
	case KindWaitlist:
		to := models.WaitlistStatus(resultingStatus)
		if to != models.WaitlistRemoved {
			return invalid(fmt.Sprintf("%q is not a release status", resultingStatus))
		}
		entry, err := ac.store.GetWaitlistEntry(ctx, target.ID)
		if err != nil {
			return storageErr("get waitlist entry", err)
		}
		if !sameID(entry.TableID, tableID) {
			return invalid(fmt.Sprintf("waitlist entry %d does not hold table %d", entry.ID, tableID))
		}
		if err := waitlistCanMove(entry.Status, to); err != nil {
			return err
		}
		_, err = ac.moveWaitlist(ctx, entry, to)
		return err
	default:
		return invalid(fmt.Sprintf("unknown assignment target %q", target.Kind))
	}
}

// reserve puts res on tableID. res may be unsaved (ID 0); it is created in
// the same transaction. A table previously held by res is freed.
func (ac *AssignmentCoordinator) reserve(ctx context.Context, tableID uint, res *models.Reservation) (*models.Reservation, error) {
	if res.Status != models.ReservationConfirmed {
		return nil, invalid("only confirmed reservations can be given a table")
	}

	held := res.ID != 0 && sameID(res.TableID, tableID)
	var previous uint
	if res.ID != 0 && res.TableID != nil && *res.TableID != tableID {
		previous = *res.TableID
	}

	unlock := ac.locks.lock(tableID, previous)
	defer unlock()

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}
	if err := checkSeatable(table, res.PartySize); err != nil {
		return nil, err
	}

	var changes []TableChange
	switch {
	case held && table.Status == models.TableReserved:
	case table.Status == models.TableAvailable:
		changes = append(changes, TableChange{
			TableID:         table.ID,
			ExpectedVersion: table.Version,
			Status:          models.TableReserved,
			LastOccupiedAt:  table.LastOccupiedAt,
		})
	default:
		return nil, &ConflictError{TableID: tableID, Reason: fmt.Sprintf("table is %s", table.Status)}
	}

	overlapping, err := ac.store.LoadReservationsOverlapping(ctx,
		res.RequestedAt.Add(-ConflictWindow), res.RequestedAt.Add(ConflictWindow))
	if err != nil {
		return nil, storageErr("load overlapping reservations", err)
	}
	for _, other := range overlapping {
		if other.ID == res.ID || !other.IsActive() || !sameID(other.TableID, tableID) {
			continue
		}
		if withinWindow(other.RequestedAt, res.RequestedAt) {
			return nil, &ConflictError{TableID: tableID, Reason: fmt.Sprintf("reservation %d holds the table within the conflict window", other.ID)}
		}
	}

	if previous != 0 {
		old, err := ac.store.GetTable(ctx, previous)
		if err != nil {
			return nil, storageErr("get previous table", err)
		}
		if old.Status == models.TableReserved {
			changes = append(changes, TableChange{
				TableID:         old.ID,
				ExpectedVersion: old.Version,
				Status:          models.TableAvailable,
				LastOccupiedAt:  old.LastOccupiedAt,
			})
		}
	}

	updated := *res
	updated.TableID = &table.ID
	updated.Table = nil
	if err := ac.store.PersistAssignment(ctx, Assignment{Tables: changes, Reservation: &updated}); err != nil {
		return nil, storageErr("persist reservation assignment", err)
	}
	unlock()

	if len(changes) == 0 {
		return &updated, nil
	}
	ac.log.WithFields(logrus.Fields{
		"table_id":       table.ID,
		"reservation_id": updated.ID,
		"previous_table": previous,
	}).Info("table reserved")
	ac.events.Publish(EventTableAssigned, map[string]interface{}{
		"table_id":       table.ID,
		"table_status":   models.TableReserved,
		"reservation_id": updated.ID,
		"released_table": previous,
	})
	return &updated, nil
}

// unreserve saves res without a table and hands its reserved table back.
func (ac *AssignmentCoordinator) unreserve(ctx context.Context, res *models.Reservation) (*models.Reservation, error) {
	updated := *res
	updated.Table = nil
	updated.TableID = nil
	if res.TableID == nil {
		if err := ac.store.SaveReservation(ctx, &updated); err != nil {
			return nil, storageErr("save reservation", err)
		}
		return &updated, nil
	}

	tableID := *res.TableID
	unlock := ac.locks.lock(tableID)
	defer unlock()

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}
	var changes []TableChange
	if table.Status == models.TableReserved {
		changes = append(changes, TableChange{
			TableID:         table.ID,
			ExpectedVersion: table.Version,
			Status:          models.TableAvailable,
			LastOccupiedAt:  table.LastOccupiedAt,
		})
	}
	if err := ac.store.PersistAssignment(ctx, Assignment{Tables: changes, Reservation: &updated}); err != nil {
		return nil, storageErr("persist reservation release", err)
	}
	unlock()
	if len(changes) > 0 {
		ac.events.Publish(EventTableReleased, map[string]interface{}{
			"table_id":       tableID,
			"table_status":   models.TableAvailable,
			"reservation_id": updated.ID,
		})
	}
	return &updated, nil
}

// seatWalkIn seats a waiting or notified entry at tableID.
func (ac *AssignmentCoordinator) seatWalkIn(ctx context.Context, tableID, entryID uint) (*models.WaitlistEntry, error) {
	unlock := ac.locks.lock(tableID)
	defer unlock()

	entry, err := ac.store.GetWaitlistEntry(ctx, entryID)
	if err != nil {
		return nil, storageErr("get waitlist entry", err)
	}
	if entry.Status == models.WaitlistSeated && sameID(entry.TableID, tableID) {
		return entry, nil
	}
	if entry.Status.Terminal() {
		return nil, invalid(fmt.Sprintf("waitlist entry is already %s", entry.Status))
	}

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}
	if err := checkSeatable(table, entry.PartySize); err != nil {
		return nil, err
	}
	if table.Status != models.TableAvailable {
		return nil, &ConflictError{TableID: tableID, Reason: fmt.Sprintf("table is %s", table.Status)}
	}

	now := ac.now()
	updated := *entry
	updated.Status = models.WaitlistSeated
	updated.TableID = &table.ID
	updated.Table = nil
	updated.SeatedAt = &now

	a := Assignment{
		Tables: []TableChange{{
			TableID:         table.ID,
			ExpectedVersion: table.Version,
			Status:          models.TableOccupied,
			LastOccupiedAt:  &now,
		}},
		Waitlist: &updated,
	}
	if err := ac.store.PersistAssignment(ctx, a); err != nil {
		return nil, storageErr("persist walk-in seating", err)
	}
	unlock()

	ac.log.WithFields(logrus.Fields{
		"table_id":    table.ID,
		"waitlist_id": updated.ID,
	}).Info("walk-in seated")
	ac.events.Publish(EventTableAssigned, map[string]interface{}{
		"table_id":     table.ID,
		"table_status": models.TableOccupied,
		"waitlist_id":  updated.ID,
	})
	return &updated, nil
}

// reservationTableStatus is the release mapping for reservations.
func reservationTableStatus(to models.ReservationStatus) models.TableStatus {
	switch to {
	case models.ReservationSeated:
		return models.TableOccupied
	case models.ReservationCompleted:
		return models.TableDirty
	default:
		return models.TableAvailable
	}
}

// moveReservation persists a status change together with whatever it does
// to the held table. Transition rules are checked by ReservationLifecycle.
func (ac *AssignmentCoordinator) moveReservation(ctx context.Context, res *models.Reservation, to models.ReservationStatus) (*models.Reservation, error) {
	updated := *res
	updated.Table = nil
	updated.Status = to
	if to == models.ReservationNoShow {
		updated.IsNoShow = true
	}

	if res.TableID == nil {
		if to == models.ReservationSeated {
			return nil, invalid("a reservation needs a table before it can be seated")
		}
		if err := ac.store.SaveReservation(ctx, &updated); err != nil {
			return nil, storageErr("save reservation", err)
		}
		return &updated, nil
	}

	tableID := *res.TableID
	unlock := ac.locks.lock(tableID)
	defer unlock()

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}

	tableStatus := reservationTableStatus(to)
	change := TableChange{
		TableID:         table.ID,
		ExpectedVersion: table.Version,
		Status:          tableStatus,
		LastOccupiedAt:  table.LastOccupiedAt,
	}
	var changes []TableChange

	if to == models.ReservationSeated {
		switch table.Status {
		case models.TableReserved, models.TableAvailable:
		default:
			return nil, &ConflictError{TableID: tableID, Reason: fmt.Sprintf("table is %s", table.Status)}
		}
		now := ac.now()
		change.LastOccupiedAt = &now
		changes = append(changes, change)
	} else {
		updated.TableID = nil
		if table.Status == models.TableReserved || table.Status == models.TableOccupied {
			changes = append(changes, change)
		}
	}

	if err := ac.store.PersistAssignment(ctx, Assignment{Tables: changes, Reservation: &updated}); err != nil {
		return nil, storageErr("persist reservation status", err)
	}
	unlock()

	ac.log.WithFields(logrus.Fields{
		"table_id":       tableID,
		"reservation_id": updated.ID,
		"status":         to,
		"table_status":   tableStatus,
	}).Info("reservation moved")
	if to != models.ReservationSeated {
		ac.events.Publish(EventTableReleased, map[string]interface{}{
			"table_id":       tableID,
			"table_status":   tableStatus,
			"reservation_id": updated.ID,
		})
	}
	return &updated, nil
}

// moveWaitlist persists a non-seating waitlist status change. A held table,
// if any, is freed when the entry is removed.
func (ac *AssignmentCoordinator) moveWaitlist(ctx context.Context, entry *models.WaitlistEntry, to models.WaitlistStatus) (*models.WaitlistEntry, error) {
	updated := *entry
	updated.Table = nil
	updated.Status = to
	if to == models.WaitlistNotified {
		now := ac.now()
		updated.NotifiedAt = &now
	}

	if entry.TableID == nil || to != models.WaitlistRemoved {
		if err := ac.store.SaveWaitlistEntry(ctx, &updated); err != nil {
			return nil, storageErr("save waitlist entry", err)
		}
		return &updated, nil
	}

	tableID := *entry.TableID
	unlock := ac.locks.lock(tableID)
	defer unlock()

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}
	updated.TableID = nil
	var changes []TableChange
	if table.Status == models.TableOccupied || table.Status == models.TableReserved {
		changes = append(changes, TableChange{
			TableID:         table.ID,
			ExpectedVersion: table.Version,
			Status:          models.TableAvailable,
			LastOccupiedAt:  table.LastOccupiedAt,
		})
	}
	if err := ac.store.PersistAssignment(ctx, Assignment{Tables: changes, Waitlist: &updated}); err != nil {
		return nil, storageErr("persist waitlist release", err)
	}
	unlock()

	ac.events.Publish(EventTableReleased, map[string]interface{}{
		"table_id":     tableID,
		"table_status": models.TableAvailable,
		"waitlist_id":  updated.ID,
	})
	return &updated, nil
}

// VacateTable records that the party has left: occupied -> dirty. Seated
// walk-ins at the table lose their table reference. A seated reservation
// must be completed instead.
func (ac *AssignmentCoordinator) VacateTable(ctx context.Context, tableID uint) (*models.Table, error) {
	unlock := ac.locks.lock(tableID)
	defer unlock()

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}
	if table.Status != models.TableOccupied {
		return nil, invalid(fmt.Sprintf("table is %s, not occupied", table.Status))
	}

	holders, err := ac.store.LoadActiveReservationsByTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("load table reservations", err)
	}
	for _, r := range holders {
		if r.Status == models.ReservationSeated {
			return nil, invalid(fmt.Sprintf("reservation %d is seated at this table, complete it instead", r.ID))
		}
	}

	a := Assignment{
		Tables: []TableChange{{
			TableID:         table.ID,
			ExpectedVersion: table.Version,
			Status:          models.TableDirty,
			LastOccupiedAt:  table.LastOccupiedAt,
		}},
		ClearWaitlistTable: []uint{table.ID},
	}
	if err := ac.store.PersistAssignment(ctx, a); err != nil {
		return nil, storageErr("persist vacate", err)
	}
	unlock()

	updated := *table
	updated.Status = models.TableDirty
	updated.Version++
	ac.log.WithField("table_id", tableID).Info("table vacated")
	ac.events.Publish(EventTableVacated, updated)
	return &updated, nil
}

// MarkTableClean turns a dirty table back to available.
func (ac *AssignmentCoordinator) MarkTableClean(ctx context.Context, tableID uint) (*models.Table, error) {
	unlock := ac.locks.lock(tableID)
	defer unlock()

	table, err := ac.store.GetTable(ctx, tableID)
	if err != nil {
		return nil, storageErr("get table", err)
	}
	if table.Status != models.TableDirty {
		return nil, invalid("table is not dirty")
	}

	a := Assignment{
		Tables: []TableChange{{
			TableID:         table.ID,
			ExpectedVersion: table.Version,
			Status:          models.TableAvailable,
			LastOccupiedAt:  table.LastOccupiedAt,
		}},
	}
	if err := ac.store.PersistAssignment(ctx, a); err != nil {
		return nil, storageErr("persist clean", err)
	}
	unlock()

	updated := *table
	updated.Status = models.TableAvailable
	updated.Version++
	ac.log.WithField("table_id", tableID).Info("table marked clean")
	ac.events.Publish(EventTableCleaned, updated)
	return &updated, nil
}

func checkSeatable(table *models.Table, partySize int) error {
	if !table.IsActive {
		return invalid(fmt.Sprintf("table %s is inactive", table.TableNumber))
	}
	if table.Capacity < partySize {
		return invalid(fmt.Sprintf("table %s seats %d, party is %d", table.TableNumber, table.Capacity, partySize))
	}
	return nil
}
