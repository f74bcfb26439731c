package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-seating/database"
	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
)

var errBoom = errors.New("connection reset by peer")

// setupTestDB opens a migrated in-memory sqlite database. One connection
// keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == event {
			n++
		}
	}
	return n
}

// failingStore wraps a real store and breaks selected operations.
type failingStore struct {
	services.Store
	failPersist bool
	failOrders  bool
	failTables  bool
}

func (f *failingStore) PersistAssignment(ctx context.Context, a services.Assignment) error {
	if f.failPersist {
		return errBoom
	}
	return f.Store.PersistAssignment(ctx, a)
}

func (f *failingStore) LoadActiveOrders(ctx context.Context) ([]models.Order, error) {
	if f.failOrders {
		return nil, errBoom
	}
	return f.Store.LoadActiveOrders(ctx)
}

func (f *failingStore) LoadActiveTables(ctx context.Context) ([]models.Table, error) {
	if f.failTables {
		return nil, errBoom
	}
	return f.Store.LoadActiveTables(ctx)
}

// interleavingStore runs afterRead once, right after the first reservation
// or waitlist entry lookup returns, so another writer can commit between a
// caller's read and its write.
type interleavingStore struct {
	services.Store
	mu        sync.Mutex
	afterRead func()
}

func (s *interleavingStore) arm(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterRead = fn
}

func (s *interleavingStore) fire() {
	s.mu.Lock()
	fn := s.afterRead
	s.afterRead = nil
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *interleavingStore) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.Store.GetReservation(ctx, id)
	s.fire()
	return res, err
}

func (s *interleavingStore) GetWaitlistEntry(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	entry, err := s.Store.GetWaitlistEntry(ctx, id)
	s.fire()
	return entry, err
}

type fixture struct {
	db     *gorm.DB
	store  services.Store
	svc    *services.SeatingService
	events *recordingPublisher
	hook   *logtest.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	return newFixtureWithStore(t, db, database.NewGormStore(db))
}

func newFixtureWithStore(t *testing.T, db *gorm.DB, store services.Store) *fixture {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	events := &recordingPublisher{}
	return &fixture{
		db:     db,
		store:  store,
		svc:    services.NewSeatingService(store, events, time.UTC, log),
		events: events,
		hook:   hook,
	}
}

// newInterleavedFixture returns a fixture whose reads can be interleaved and
// a second fixture on the same database, standing in for another process.
func newInterleavedFixture(t *testing.T) (*fixture, *interleavingStore, *fixture) {
	t.Helper()
	db := setupTestDB(t)
	store := &interleavingStore{Store: database.NewGormStore(db)}
	return newFixtureWithStore(t, db, store), store, newFixtureWithStore(t, db, database.NewGormStore(db))
}

// race starts every fn at once and returns their errors in order.
func race(fns ...func() error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, len(fns))
	)
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i, fn)
	}
	close(start)
	wg.Wait()
	return errs
}

func (f *fixture) table(t *testing.T, number string, capacity int, section string, status models.TableStatus) models.Table {
	t.Helper()
	table := models.Table{
		TableNumber: number,
		Capacity:    capacity,
		Section:     section,
		Status:      status,
		IsActive:    true,
	}
	require.NoError(t, f.db.Create(&table).Error)
	return table
}

func (f *fixture) reload(t *testing.T, id uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.db.First(&table, id).Error)
	return table
}

func (f *fixture) reservation(t *testing.T, partySize int, at time.Time, tableID *uint) uint {
	t.Helper()
	id, err := f.svc.CreateOrUpdateReservation(context.Background(), services.ReservationInput{
		GuestName:   "Dewi Lestari",
		GuestPhone:  "+62 812 5550 0101",
		PartySize:   partySize,
		RequestedAt: at,
		TableID:     tableID,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) loadReservation(t *testing.T, id uint) models.Reservation {
	t.Helper()
	var res models.Reservation
	require.NoError(t, f.db.First(&res, id).Error)
	return res
}

func (f *fixture) walkIn(t *testing.T, partySize int) uint {
	t.Helper()
	id, err := f.svc.CreateOrUpdateWaitlistEntry(context.Background(), services.WaitlistInput{
		GuestName:         "Budi Santoso",
		GuestPhone:        "+62 813 5550 0202",
		PartySize:         partySize,
		QuotedWaitMinutes: 15,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) loadEntry(t *testing.T, id uint) models.WaitlistEntry {
	t.Helper()
	var entry models.WaitlistEntry
	require.NoError(t, f.db.First(&entry, id).Error)
	return entry
}

// requireNoAvailableHeldTables asserts that no available table is referenced
// by an active reservation or a seated walk-in.
func (f *fixture) requireNoAvailableHeldTables(t *testing.T) {
	t.Helper()
	var tables []models.Table
	require.NoError(t, f.db.Where("status = ?", models.TableAvailable).Find(&tables).Error)
	for _, table := range tables {
		var n int64
		require.NoError(t, f.db.Model(&models.Reservation{}).
			Where("table_id = ? AND status IN ?", table.ID, []models.ReservationStatus{models.ReservationConfirmed, models.ReservationSeated}).
			Count(&n).Error)
		require.Zerof(t, n, "available table %s is held by a reservation", table.TableNumber)

		require.NoError(t, f.db.Model(&models.WaitlistEntry{}).
			Where("table_id = ? AND status = ?", table.ID, models.WaitlistSeated).
			Count(&n).Error)
		require.Zerof(t, n, "available table %s is held by a walk-in", table.TableNumber)
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 1, hour, minute, 0, 0, time.UTC)
}

func uintPtr(v uint) *uint { return &v }
