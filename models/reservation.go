package models

import (
	"time"

	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	GuestName       string            `gorm:"type:varchar(255);not null" json:"guest_name"`
	GuestPhone      string            `gorm:"type:varchar(50);not null" json:"guest_phone"`
	GuestEmail      *string           `gorm:"type:varchar(255)" json:"guest_email,omitempty"`
	PartySize       int               `gorm:"not null" json:"party_size"`
	RequestedAt     time.Time         `gorm:"not null;index" json:"requested_at"`
	Notes           string            `gorm:"type:text" json:"notes"`
	SpecialRequests string            `gorm:"type:text" json:"special_requests"`
	TableID         *uint             `gorm:"index" json:"table_id,omitempty"`
	Table           *Table            `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"table,omitempty"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'confirmed';index" json:"status"`
	ReminderSent    bool              `gorm:"not null;default:false" json:"reminder_sent"`
	IsNoShow        bool              `gorm:"not null;default:false" json:"is_no_show"`
	Version         uint              `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

// BeforeSave keeps RequestedAt in UTC so range queries compare consistently
// across drivers.
func (r *Reservation) BeforeSave(tx *gorm.DB) error {
	r.RequestedAt = r.RequestedAt.UTC()
	return nil
}

// IsActive reports whether the reservation still holds (or may hold) a table.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationConfirmed || r.Status == ReservationSeated
}

func (s ReservationStatus) Terminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled || s == ReservationNoShow
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationSeated, ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}
