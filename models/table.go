package models

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableReserved  TableStatus = "reserved"
	TableOccupied  TableStatus = "occupied"
	TableDirty     TableStatus = "dirty"
)

// Table is the stored state of a physical table. Merge membership is never
// persisted here; see services.DeriveMergeGroups.
type Table struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	TableNumber    string      `gorm:"type:varchar(50);not null;uniqueIndex" json:"table_number"`
	Capacity       int         `gorm:"not null;default:2" json:"capacity"`
	Section        string      `gorm:"type:varchar(100)" json:"section"`
	Status         TableStatus `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	LastOccupiedAt *time.Time  `json:"last_occupied_at,omitempty"`
	IsActive       bool        `gorm:"not null;default:true" json:"is_active"`
	Version        uint        `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
}

func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableReserved, TableOccupied, TableDirty:
		return true
	}
	return false
}
