package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/restaurant-seating/models"
	"github.com/yeremiapane/restaurant-seating/services"
)

// GormStore implements services.Store on top of gorm. It works with any of
// the drivers config.InitDB can open.
type GormStore struct {
	db *gorm.DB
}

var _ services.Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates every table the seating core reads.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Table{},
		&models.Reservation{},
		&models.WaitlistEntry{},
		&models.Order{},
	)
}

var activeReservationStatuses = []models.ReservationStatus{
	models.ReservationConfirmed,
	models.ReservationSeated,
}

func (s *GormStore) LoadActiveTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("table_number").
		Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("load active tables: %w", err)
	}
	return tables, nil
}

func (s *GormStore) LoadReservationsOverlapping(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.db.WithContext(ctx).
		Where("status IN ?", activeReservationStatuses).
		Where("requested_at BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("requested_at").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load overlapping reservations: %w", err)
	}
	return list, nil
}

func (s *GormStore) LoadActiveReservationsByTable(ctx context.Context, tableID uint) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.db.WithContext(ctx).
		Where("table_id = ? AND status IN ?", tableID, activeReservationStatuses).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load reservations for table %d: %w", tableID, err)
	}
	return list, nil
}

// LoadReservationsOn returns every reservation from day up to the same wall
// clock time on the next calendar day in day's location.
func (s *GormStore) LoadReservationsOn(ctx context.Context, day time.Time) ([]models.Reservation, error) {
	var list []models.Reservation
	if err := s.db.WithContext(ctx).
		Preload("Table").
		Where("requested_at >= ? AND requested_at < ?", day.UTC(), day.AddDate(0, 0, 1).UTC()).
		Order("requested_at").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load reservations on %s: %w", day.Format("2006-01-02"), err)
	}
	return list, nil
}

// LoadActiveWaitlist returns waiting and notified entries, oldest first.
func (s *GormStore) LoadActiveWaitlist(ctx context.Context) ([]models.WaitlistEntry, error) {
	var list []models.WaitlistEntry
	if err := s.db.WithContext(ctx).
		Where("status IN ?", []models.WaitlistStatus{models.WaitlistWaiting, models.WaitlistNotified}).
		Order("added_at").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load waitlist: %w", err)
	}
	return list, nil
}

// LoadActiveOrders returns open orders with the tables they span.
func (s *GormStore) LoadActiveOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Preload("Tables").
		Where("status NOT IN ?", []string{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("load active orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, lookupErr("table", id, err)
	}
	return &table, nil
}

func (s *GormStore) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := s.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, lookupErr("reservation", id, err)
	}
	return &res, nil
}

func (s *GormStore) GetWaitlistEntry(ctx context.Context, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, lookupErr("waitlist entry", id, err)
	}
	return &entry, nil
}

func (s *GormStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	if err := saveReservation(s.db.WithContext(ctx), r); err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	return nil
}

func (s *GormStore) SaveWaitlistEntry(ctx context.Context, w *models.WaitlistEntry) error {
	if err := saveWaitlistEntry(s.db.WithContext(ctx), w); err != nil {
		return fmt.Errorf("save waitlist entry: %w", err)
	}
	return nil
}

// PersistAssignment runs every table change as a version-guarded update and
// then writes the entity, all in one transaction.
func (s *GormStore) PersistAssignment(ctx context.Context, a services.Assignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, change := range a.Tables {
			if err := applyTableChange(tx, change); err != nil {
				return err
			}
		}

		if a.Reservation != nil {
			if err := saveReservation(tx, a.Reservation); err != nil {
				return fmt.Errorf("save reservation: %w", err)
			}
		}
		if a.Waitlist != nil {
			if err := saveWaitlistEntry(tx, a.Waitlist); err != nil {
				return fmt.Errorf("save waitlist entry: %w", err)
			}
		}

		if len(a.ClearWaitlistTable) > 0 {
			if err := tx.Model(&models.WaitlistEntry{}).
				Where("table_id IN ? AND status = ?", a.ClearWaitlistTable, models.WaitlistSeated).
				Updates(map[string]interface{}{
					"table_id": nil,
					"version":  gorm.Expr("version + 1"),
				}).Error; err != nil {
				return fmt.Errorf("clear waitlist tables: %w", err)
			}
		}
		return nil
	})
}

func applyTableChange(tx *gorm.DB, change services.TableChange) error {
	result := tx.Model(&models.Table{}).
		Where("id = ? AND version = ?", change.TableID, change.ExpectedVersion).
		Updates(map[string]interface{}{
			"status":           change.Status,
			"last_occupied_at": change.LastOccupiedAt,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("update table %d: %w", change.TableID, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Table{}).Where("id = ?", change.TableID).Count(&count).Error; err != nil {
		return fmt.Errorf("check table %d: %w", change.TableID, err)
	}
	if count == 0 {
		return &services.NotFoundError{Kind: "table", ID: change.TableID}
	}
	return &services.ConflictError{TableID: change.TableID, Reason: "table changed since it was read"}
}

// saveReservation inserts a new reservation or rewrites an existing one
// only if its version still matches the one it was read with.
func saveReservation(db *gorm.DB, r *models.Reservation) error {
	if r.ID == 0 {
		return db.Omit(clause.Associations).Create(r).Error
	}
	expected := r.Version
	r.Version = expected + 1
	result := db.Model(r).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(r)
	if result.Error == nil && result.RowsAffected == 1 {
		return nil
	}
	r.Version = expected
	if result.Error != nil {
		return result.Error
	}
	return staleRecord(db, &models.Reservation{}, "reservation", r.ID, r.TableID)
}

func saveWaitlistEntry(db *gorm.DB, w *models.WaitlistEntry) error {
	if w.ID == 0 {
		return db.Omit(clause.Associations).Create(w).Error
	}
	expected := w.Version
	w.Version = expected + 1
	result := db.Model(w).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(w)
	if result.Error == nil && result.RowsAffected == 1 {
		return nil
	}
	w.Version = expected
	if result.Error != nil {
		return result.Error
	}
	return staleRecord(db, &models.WaitlistEntry{}, "waitlist entry", w.ID, w.TableID)
}

// staleRecord tells a missing row apart from one another writer got to first.
func staleRecord(db *gorm.DB, model interface{}, kind string, id uint, tableID *uint) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check %s %d: %w", kind, id, err)
	}
	if count == 0 {
		return &services.NotFoundError{Kind: kind, ID: id}
	}
	var held uint
	if tableID != nil {
		held = *tableID
	}
	return &services.ConflictError{TableID: held, Reason: kind + " changed since it was read"}
}

func lookupErr(kind string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &services.NotFoundError{Kind: kind, ID: id}
	}
	return fmt.Errorf("get %s %d: %w", kind, id, err)
}
