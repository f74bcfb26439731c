package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-seating/models"
)

// ReservationInput is what staff submit when booking or editing. ID 0
// creates a new reservation. A nil TableID books without a table.
type ReservationInput struct {
	ID              uint
	GuestName       string
	GuestPhone      string
	GuestEmail      *string
	PartySize       int
	RequestedAt     time.Time
	Notes           string
	SpecialRequests string
	TableID         *uint
}

// WaitlistInput is a walk-in joining or updating the queue. ID 0 creates.
type WaitlistInput struct {
	ID                uint
	GuestName         string
	GuestPhone        string
	PartySize         int
	QuotedWaitMinutes int
	NotifyWhenReady   bool
	Notes             string
}

// SeatingService is the surface the controllers talk to.
type SeatingService struct {
	store        Store
	finder       *AvailabilityFinder
	coord        *AssignmentCoordinator
	reservations *ReservationLifecycle
	waitlist     *WaitlistLifecycle
	events       EventPublisher
	log          logrus.FieldLogger
	loc          *time.Location
	now          func() time.Time
}

// NewSeatingService wires the seating core on top of store. loc is the
// restaurant's local time zone used for peak hours and day listings.
func NewSeatingService(store Store, events EventPublisher, loc *time.Location, log logrus.FieldLogger) *SeatingService {
	if events == nil {
		events = noopPublisher{}
	}
	if loc == nil {
		loc = time.Local
	}
	coord := NewAssignmentCoordinator(store, events, log)
	return &SeatingService{
		store:        store,
		finder:       NewAvailabilityFinder(NewConflictChecker(store), NewScoringEngine(loc), log),
		coord:        coord,
		reservations: NewReservationLifecycle(store, coord, events),
		waitlist:     NewWaitlistLifecycle(store, coord, events),
		events:       events,
		log:          log,
		loc:          loc,
		now:          time.Now,
	}
}

// Coordinator exposes the assignment coordinator for callers that need the
// raw assign/release contract.
func (s *SeatingService) Coordinator() *AssignmentCoordinator {
	return s.coord
}

// Location is the restaurant's time zone.
func (s *SeatingService) Location() *time.Location {
	return s.loc
}

// FindBestTables ranks the tables that can take partySize at the given instant.
func (s *SeatingService) FindBestTables(ctx context.Context, partySize int, at time.Time, excludeTableID, excludeReservationID *uint) ([]Recommendation, error) {
	if at.IsZero() {
		at = s.now()
	}
	return s.finder.FindBestTables(ctx, CandidateQuery{
		PartySize:            partySize,
		RequestedAt:          at,
		ExcludeTableID:       excludeTableID,
		ExcludeReservationID: excludeReservationID,
	})
}

// Alternatives re-runs the search for the party behind target, as a caller
// does after losing a table to a ConflictError.
func (s *SeatingService) Alternatives(ctx context.Context, target Target) ([]Recommendation, error) {
	switch target.Kind {
	case KindReservation:
		res, err := s.store.GetReservation(ctx, target.ID)
		if err != nil {
			return nil, storageErr("get reservation", err)
		}
		return s.FindBestTables(ctx, res.PartySize, res.RequestedAt, res.TableID, &res.ID)
	case KindWaitlist:
		entry, err := s.store.GetWaitlistEntry(ctx, target.ID)
		if err != nil {
			return nil, storageErr("get waitlist entry", err)
		}
		return s.FindBestTables(ctx, entry.PartySize, s.now(), nil, nil)
	default:
		return nil, invalid(fmt.Sprintf("unknown assignment target %q", target.Kind))
	}
}

func validateGuest(name, phone string, partySize int) []string {
	var problems []string
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "guest name is required")
	}
	if strings.TrimSpace(phone) == "" {
		problems = append(problems, "guest phone is required")
	}
	if partySize < 1 {
		problems = append(problems, "party size must be at least 1")
	}
	return problems
}

// CreateOrUpdateReservation books or edits a reservation and returns its id.
// Giving a table reserves it in the same transaction.
func (s *SeatingService) CreateOrUpdateReservation(ctx context.Context, in ReservationInput) (uint, error) {
	problems := validateGuest(in.GuestName, in.GuestPhone, in.PartySize)
	if in.RequestedAt.IsZero() {
		problems = append(problems, "requested time is required")
	}
	if in.TableID != nil && *in.TableID == 0 {
		problems = append(problems, "table id must be positive")
	}
	if len(problems) > 0 {
		return 0, invalid(problems...)
	}

	res := &models.Reservation{Status: models.ReservationConfirmed}
	if in.ID != 0 {
		existing, err := s.store.GetReservation(ctx, in.ID)
		if err != nil {
			return 0, storageErr("get reservation", err)
		}
		if existing.Status.Terminal() {
			return 0, invalid(fmt.Sprintf("reservation is %s and can no longer be edited", existing.Status))
		}
		if existing.Status == models.ReservationSeated && !sameTable(existing.TableID, in.TableID) {
			return 0, invalid("a seated reservation cannot change tables")
		}
		res = existing
	}

	res.GuestName = strings.TrimSpace(in.GuestName)
	res.GuestPhone = strings.TrimSpace(in.GuestPhone)
	res.GuestEmail = in.GuestEmail
	res.PartySize = in.PartySize
	res.RequestedAt = in.RequestedAt
	res.Notes = in.Notes
	res.SpecialRequests = in.SpecialRequests

	var (
		saved *models.Reservation
		err   error
	)
	switch {
	case res.Status == models.ReservationSeated:
		if err = s.store.SaveReservation(ctx, res); err != nil {
			return 0, storageErr("save reservation", err)
		}
		saved = res
	case in.TableID != nil:
		saved, err = s.coord.reserve(ctx, *in.TableID, res)
	case res.TableID != nil:
		saved, err = s.coord.unreserve(ctx, res)
	default:
		if err = s.store.SaveReservation(ctx, res); err != nil {
			return 0, storageErr("save reservation", err)
		}
		saved = res
	}
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": saved.ID,
		"party_size":     saved.PartySize,
		"requested_at":   saved.RequestedAt,
	}).Info("reservation saved")
	s.events.Publish(EventReservationSaved, saved)
	return saved.ID, nil
}

func sameTable(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *SeatingService) ChangeReservationStatus(ctx context.Context, id uint, status models.ReservationStatus) (*models.Reservation, error) {
	return s.reservations.ChangeStatus(ctx, id, status)
}

// CreateOrUpdateWaitlistEntry queues a walk-in or edits a queued one.
func (s *SeatingService) CreateOrUpdateWaitlistEntry(ctx context.Context, in WaitlistInput) (uint, error) {
	problems := validateGuest(in.GuestName, in.GuestPhone, in.PartySize)
	if in.QuotedWaitMinutes < 0 {
		problems = append(problems, "quoted wait cannot be negative")
	}
	if len(problems) > 0 {
		return 0, invalid(problems...)
	}

	entry := &models.WaitlistEntry{Status: models.WaitlistWaiting, AddedAt: s.now()}
	if in.ID != 0 {
		existing, err := s.store.GetWaitlistEntry(ctx, in.ID)
		if err != nil {
			return 0, storageErr("get waitlist entry", err)
		}
		if existing.Status.Terminal() {
			return 0, invalid(fmt.Sprintf("waitlist entry is %s and can no longer be edited", existing.Status))
		}
		entry = existing
		entry.Table = nil
	}

	entry.GuestName = strings.TrimSpace(in.GuestName)
	entry.GuestPhone = strings.TrimSpace(in.GuestPhone)
	entry.PartySize = in.PartySize
	entry.QuotedWaitMinutes = in.QuotedWaitMinutes
	entry.NotifyWhenReady = in.NotifyWhenReady
	entry.Notes = in.Notes

	if err := s.store.SaveWaitlistEntry(ctx, entry); err != nil {
		return 0, storageErr("save waitlist entry", err)
	}
	s.log.WithFields(logrus.Fields{
		"waitlist_id": entry.ID,
		"party_size":  entry.PartySize,
	}).Info("waitlist entry saved")
	s.events.Publish(EventWaitlistSaved, entry)
	return entry.ID, nil
}

func (s *SeatingService) ChangeWaitlistStatus(ctx context.Context, id uint, status models.WaitlistStatus) (*models.WaitlistEntry, error) {
	return s.waitlist.ChangeStatus(ctx, id, status)
}

func (s *SeatingService) AssignTableToWaitlistEntry(ctx context.Context, waitlistID, tableID uint) (*models.WaitlistEntry, error) {
	return s.waitlist.Seat(ctx, waitlistID, tableID)
}

// ListTables returns every active table with merge reconciliation applied.
// If orders cannot be read the tables are still listed, unannotated.
func (s *SeatingService) ListTables(ctx context.Context) ([]TableView, error) {
	tables, err := s.store.LoadActiveTables(ctx)
	if err != nil {
		return nil, storageErr("load active tables", err)
	}

	orders, err := s.store.LoadActiveOrders(ctx)
	if err != nil {
		s.log.WithError(err).Warn("listing tables without merge info")
		return BuildTableViews(tables, nil), nil
	}
	return BuildTableViews(tables, DeriveMergeGroups(tables, orders)), nil
}

func (s *SeatingService) VacateTable(ctx context.Context, tableID uint) (*models.Table, error) {
	return s.coord.VacateTable(ctx, tableID)
}

func (s *SeatingService) MarkTableClean(ctx context.Context, tableID uint) (*models.Table, error) {
	return s.coord.MarkTableClean(ctx, tableID)
}

// ListReservations returns the reservations requested on day, read in the
// restaurant's time zone.
func (s *SeatingService) ListReservations(ctx context.Context, day time.Time) ([]models.Reservation, error) {
	if day.IsZero() {
		day = s.now()
	}
	day = day.In(s.loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	list, err := s.store.LoadReservationsOn(ctx, start)
	if err != nil {
		return nil, storageErr("load reservations", err)
	}
	return list, nil
}

func (s *SeatingService) ListWaitlist(ctx context.Context) ([]models.WaitlistEntry, error) {
	list, err := s.store.LoadActiveWaitlist(ctx)
	if err != nil {
		return nil, storageErr("load waitlist", err)
	}
	return list, nil
}
