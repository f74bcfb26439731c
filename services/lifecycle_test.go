package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
)

func TestCancelReleasesTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	id := f.reservation(t, 4, at(19, 0), &table.ID)

	res, err := f.svc.ChangeReservationStatus(context.Background(), id, models.ReservationCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, res.Status)
	assert.Nil(t, res.TableID)

	stored := f.loadReservation(t, id)
	assert.Nil(t, stored.TableID)
	assert.Equal(t, models.ReservationCancelled, stored.Status)
	assert.Equal(t, models.TableAvailable, f.reload(t, table.ID).Status)
	assert.Equal(t, 1, f.events.count(services.EventTableReleased))
	assert.Equal(t, 1, f.events.count(services.EventReservationStatus))
	f.requireNoAvailableHeldTables(t)
}

func TestReservationFullVisit(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	id := f.reservation(t, 4, at(19, 0), &table.ID)
	ctx := context.Background()

	before := time.Now()
	_, err := f.svc.ChangeReservationStatus(ctx, id, models.ReservationSeated)
	require.NoError(t, err)

	seated := f.reload(t, table.ID)
	assert.Equal(t, models.TableOccupied, seated.Status)
	require.NotNil(t, seated.LastOccupiedAt)
	assert.False(t, seated.LastOccupiedAt.Before(before.Add(-time.Second)))
	assert.Equal(t, table.ID, *f.loadReservation(t, id).TableID)
	f.requireNoAvailableHeldTables(t)

	_, err = f.svc.ChangeReservationStatus(ctx, id, models.ReservationCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.TableDirty, f.reload(t, table.ID).Status)
	assert.Nil(t, f.loadReservation(t, id).TableID)

	cleaned, err := f.svc.MarkTableClean(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, cleaned.Status)
	assert.Equal(t, models.TableAvailable, f.reload(t, table.ID).Status)

	_, err = f.svc.ChangeReservationStatus(ctx, id, models.ReservationCancelled)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestSeatingWithoutTableIsRejected(t *testing.T) {
	f := newFixture(t)
	id := f.reservation(t, 2, at(19, 0), nil)

	_, err := f.svc.ChangeReservationStatus(context.Background(), id, models.ReservationSeated)

	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, models.ReservationConfirmed, f.loadReservation(t, id).Status)
}

func TestNoShowSetsFlagAndFreesTable(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	id := f.reservation(t, 4, at(19, 0), &table.ID)

	_, err := f.svc.ChangeReservationStatus(context.Background(), id, models.ReservationNoShow)
	require.NoError(t, err)

	res := f.loadReservation(t, id)
	assert.Equal(t, models.ReservationNoShow, res.Status)
	assert.True(t, res.IsNoShow)
	assert.Nil(t, res.TableID)
	assert.Equal(t, models.TableAvailable, f.reload(t, table.ID).Status)
}

func TestReservationTransitions(t *testing.T) {
	cases := []struct {
		from, to models.ReservationStatus
		ok       bool
	}{
		{models.ReservationConfirmed, models.ReservationCancelled, true},
		{models.ReservationConfirmed, models.ReservationNoShow, true},
		{models.ReservationConfirmed, models.ReservationCompleted, false},
		{models.ReservationSeated, models.ReservationCancelled, false},
		{models.ReservationSeated, models.ReservationConfirmed, false},
		{models.ReservationCancelled, models.ReservationConfirmed, false},
		{models.ReservationCompleted, models.ReservationSeated, false},
		{models.ReservationConfirmed, "eaten", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			f := newFixture(t)
			table := f.table(t, "T1", 4, "", models.TableAvailable)
			res := seedReservation(t, f, table.ID, at(19, 0), tc.from)

			_, err := f.svc.ChangeReservationStatus(context.Background(), res.ID, tc.to)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, services.ErrValidation)
				assert.Equal(t, tc.from, f.loadReservation(t, res.ID).Status)
			}
		})
	}
}

func TestSameStatusIsNoOp(t *testing.T) {
	f := newFixture(t)
	id := f.reservation(t, 2, at(19, 0), nil)

	res, err := f.svc.ChangeReservationStatus(context.Background(), id, models.ReservationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, res.Status)
	assert.Zero(t, f.events.count(services.EventReservationStatus))
}

func TestReleaseTableContract(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	other := f.table(t, "T2", 4, "", models.TableAvailable)
	id := f.reservation(t, 4, at(19, 0), &table.ID)
	target := services.Target{Kind: services.KindReservation, ID: id}
	coord := f.svc.Coordinator()

	err := coord.ReleaseTable(context.Background(), other.ID, target, string(models.ReservationCancelled))
	assert.ErrorIs(t, err, services.ErrValidation)

	require.NoError(t, coord.ReleaseTable(context.Background(), table.ID, target, string(models.ReservationSeated)))
	assert.Equal(t, models.TableOccupied, f.reload(t, table.ID).Status)

	require.NoError(t, coord.ReleaseTable(context.Background(), table.ID, target, string(models.ReservationNoShow)))
	assert.Equal(t, models.TableAvailable, f.reload(t, table.ID).Status)
	assert.True(t, f.loadReservation(t, id).IsNoShow)
}

func TestWaitlistSeating(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	id := f.walkIn(t, 3)

	before := time.Now()
	entry, err := f.svc.AssignTableToWaitlistEntry(context.Background(), id, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistSeated, entry.Status)

	stored := f.loadEntry(t, id)
	assert.Equal(t, models.WaitlistSeated, stored.Status)
	require.NotNil(t, stored.SeatedAt)
	require.NotNil(t, stored.TableID)
	assert.Equal(t, table.ID, *stored.TableID)

	seated := f.reload(t, table.ID)
	assert.Equal(t, models.TableOccupied, seated.Status)
	require.NotNil(t, seated.LastOccupiedAt)
	assert.False(t, seated.LastOccupiedAt.Before(before.Add(-time.Second)))
	assert.WithinDuration(t, *stored.SeatedAt, *seated.LastOccupiedAt, time.Second)
	f.requireNoAvailableHeldTables(t)

	// repeating the assignment changes nothing
	_, err = f.svc.AssignTableToWaitlistEntry(context.Background(), id, table.ID)
	require.NoError(t, err)
	assert.Equal(t, seated.Version, f.reload(t, table.ID).Version)
	assert.Equal(t, 1, f.events.count(services.EventTableAssigned))
}

func TestWaitlistAssignToTakenTableConflicts(t *testing.T) {
	f := newFixture(t)
	taken := f.table(t, "T1", 4, "", models.TableOccupied)
	f.table(t, "T2", 4, "", models.TableAvailable)
	id := f.walkIn(t, 2)

	_, err := f.svc.AssignTableToWaitlistEntry(context.Background(), id, taken.ID)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Equal(t, models.WaitlistWaiting, f.loadEntry(t, id).Status)

	alts, err := f.svc.Alternatives(context.Background(), services.Target{Kind: services.KindWaitlist, ID: id})
	require.NoError(t, err)
	require.Len(t, alts, 1)
	assert.Equal(t, "T2", alts[0].Table.TableNumber)
}

func TestWaitlistTransitions(t *testing.T) {
	f := newFixture(t)
	id := f.walkIn(t, 2)
	ctx := context.Background()

	entry, err := f.svc.ChangeWaitlistStatus(ctx, id, models.WaitlistNotified)
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistNotified, entry.Status)
	require.NotNil(t, f.loadEntry(t, id).NotifiedAt)

	_, err = f.svc.ChangeWaitlistStatus(ctx, id, models.WaitlistWaiting)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.svc.ChangeWaitlistStatus(ctx, id, models.WaitlistSeated)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.svc.ChangeWaitlistStatus(ctx, id, models.WaitlistRemoved)
	require.NoError(t, err)

	_, err = f.svc.ChangeWaitlistStatus(ctx, id, models.WaitlistNotified)
	assert.ErrorIs(t, err, services.ErrValidation)

	table := f.table(t, "T1", 4, "", models.TableAvailable)
	_, err = f.svc.AssignTableToWaitlistEntry(ctx, id, table.ID)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, models.TableAvailable, f.reload(t, table.ID).Status)

	_, err = f.svc.CreateOrUpdateWaitlistEntry(ctx, services.WaitlistInput{ID: id, GuestName: "Budi", GuestPhone: "1", PartySize: 2})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestWaitlistValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrUpdateWaitlistEntry(context.Background(), services.WaitlistInput{
		GuestName:         "Budi",
		GuestPhone:        "0813",
		PartySize:         2,
		QuotedWaitMinutes: -5,
	})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.svc.ChangeWaitlistStatus(context.Background(), 42, models.WaitlistRemoved)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestVacateAndCleanTurnover(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	id := f.walkIn(t, 2)
	ctx := context.Background()

	_, err := f.svc.AssignTableToWaitlistEntry(ctx, id, table.ID)
	require.NoError(t, err)

	vacated, err := f.svc.VacateTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableDirty, vacated.Status)
	assert.Equal(t, models.TableDirty, f.reload(t, table.ID).Status)

	entry := f.loadEntry(t, id)
	assert.Nil(t, entry.TableID)
	assert.Equal(t, models.WaitlistSeated, entry.Status)

	_, err = f.svc.VacateTable(ctx, table.ID)
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.svc.MarkTableClean(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, f.reload(t, table.ID).Status)

	_, err = f.svc.MarkTableClean(ctx, table.ID)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, 1, f.events.count(services.EventTableVacated))
	assert.Equal(t, 1, f.events.count(services.EventTableCleaned))
}

func TestVacateRefusesSeatedReservation(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1", 4, "", models.TableAvailable)
	id := f.reservation(t, 4, at(19, 0), &table.ID)
	_, err := f.svc.ChangeReservationStatus(context.Background(), id, models.ReservationSeated)
	require.NoError(t, err)

	_, err = f.svc.VacateTable(context.Background(), table.ID)

	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, models.TableOccupied, f.reload(t, table.ID).Status)
}
