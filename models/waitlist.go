package models

import "time"

type WaitlistStatus string

const (
	WaitlistWaiting  WaitlistStatus = "waiting"
	WaitlistNotified WaitlistStatus = "notified"
	WaitlistSeated   WaitlistStatus = "seated"
	WaitlistRemoved  WaitlistStatus = "removed"
)

type WaitlistEntry struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	GuestName         string         `gorm:"type:varchar(255);not null" json:"guest_name"`
	GuestPhone        string         `gorm:"type:varchar(50);not null" json:"guest_phone"`
	PartySize         int            `gorm:"not null" json:"party_size"`
	AddedAt           time.Time      `gorm:"not null" json:"added_at"`
	QuotedWaitMinutes int            `gorm:"not null;default:0" json:"quoted_wait_minutes"`
	NotifyWhenReady   bool           `gorm:"not null;default:false" json:"notify_when_ready"`
	Notes             string         `gorm:"type:text" json:"notes"`
	Status            WaitlistStatus `gorm:"type:varchar(20);not null;default:'waiting';index" json:"status"`
	TableID           *uint          `gorm:"index" json:"table_id,omitempty"`
	Table             *Table         `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"table,omitempty"`
	NotifiedAt        *time.Time     `json:"notified_at,omitempty"`
	SeatedAt          *time.Time     `json:"seated_at,omitempty"`
	Version           uint           `gorm:"not null;default:0" json:"version"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (s WaitlistStatus) Terminal() bool {
	return s == WaitlistSeated || s == WaitlistRemoved
}

func (s WaitlistStatus) Valid() bool {
	switch s {
	case WaitlistWaiting, WaitlistNotified, WaitlistSeated, WaitlistRemoved:
		return true
	}
	return false
}
