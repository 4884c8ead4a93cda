package booking

import (
	"time"
)

// BookingStatusEvent represents a status change event for a booking
type BookingStatusEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for booking relationship
	BookingID uint    `gorm:"not null;index" json:"booking_id"`
	Booking   Booking `gorm:"foreignKey:BookingID" json:"booking"`

	FromStatus BookingStatus `gorm:"size:50;not null" json:"from_status"`
	ToStatus   BookingStatus `gorm:"size:50;not null" json:"to_status"`
	CreatedBy  string        `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the BookingStatusEvent model
func (BookingStatusEvent) TableName() string {
	return "booking_status_events"
}
