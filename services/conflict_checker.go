package services

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yeremiapane/restaurant-seating/models"
)

// ConflictWindow is the turnover buffer on each side of a requested instant.
const ConflictWindow = time.Hour

type CandidateQuery struct {
	PartySize   int
	RequestedAt time.Time
	// ExcludeTableID keeps a table visible even when it is not available,
	// so an edited reservation still sees the table it holds.
	ExcludeTableID *uint
	// ExcludeReservationID is the reservation being edited; it never
	// conflicts with itself.
	ExcludeReservationID *uint
}

type ConflictChecker struct {
	store Store
}

func NewConflictChecker(store Store) *ConflictChecker {
	return &ConflictChecker{store: store}
}

// FindCandidateTables returns the tables that can take the party at the
// requested instant, smallest first.
func (cc *ConflictChecker) FindCandidateTables(ctx context.Context, q CandidateQuery) ([]models.Table, error) {
	if q.PartySize < 1 {
		return nil, invalid("party size must be at least 1")
	}

	var (
		tables       []models.Table
		reservations []models.Reservation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tables, err = cc.store.LoadActiveTables(gctx)
		return storageErr("load active tables", err)
	})
	g.Go(func() error {
		var err error
		reservations, err = cc.store.LoadReservationsOverlapping(gctx,
			q.RequestedAt.Add(-ConflictWindow), q.RequestedAt.Add(ConflictWindow))
		return storageErr("load overlapping reservations", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	blocked := blockedTables(reservations, q.RequestedAt, q.ExcludeReservationID)

	candidates := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if !t.IsActive || t.Capacity < q.PartySize {
			continue
		}
		if t.Status != models.TableAvailable && !sameID(q.ExcludeTableID, t.ID) {
			continue
		}
		if blocked[t.ID] {
			continue
		}
		candidates = append(candidates, t)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Capacity != candidates[j].Capacity {
			return candidates[i].Capacity < candidates[j].Capacity
		}
		return candidates[i].TableNumber < candidates[j].TableNumber
	})
	return candidates, nil
}

// blockedTables collects tables held by an active reservation whose instant
// falls strictly inside the conflict window around at.
func blockedTables(reservations []models.Reservation, at time.Time, exclude *uint) map[uint]bool {
	blocked := make(map[uint]bool)
	for _, r := range reservations {
		if r.TableID == nil || !r.IsActive() || sameID(exclude, r.ID) {
			continue
		}
		if withinWindow(r.RequestedAt, at) {
			blocked[*r.TableID] = true
		}
	}
	return blocked
}

func withinWindow(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < ConflictWindow
}

func sameID(p *uint, id uint) bool {
	return p != nil && *p == id
}
