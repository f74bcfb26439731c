package models

import "time"

// Order statuses that no longer hold tables. Everything else counts as open.
const (
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is owned by the ordering workflow; seating only reads which tables
// an open order spans.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending_payment';index" json:"status"`
	Tables    []Table   `gorm:"many2many:order_tables;" json:"tables"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (o *Order) IsOpen() bool {
	return o.Status != OrderStatusCompleted && o.Status != OrderStatusCancelled
}
