package holding

import (
	"time"

	"property-sales/models/unit"
	"property-sales/models/user"
)

// HoldingStatus enumerates the states of a temporary reservation.
type HoldingStatus string

const (
	HoldingStatusPreHold   HoldingStatus = "pre_hold"
	HoldingStatusHold      HoldingStatus = "hold"
	HoldingStatusRejected  HoldingStatus = "rejected"
	HoldingStatusProcessed HoldingStatus = "processed"
	HoldingStatusCancelled HoldingStatus = "cancelled"
)

func (hs HoldingStatus) String() string {
	return string(hs)
}

func (hs HoldingStatus) IsValid() bool {
	switch hs {
	case HoldingStatusPreHold, HoldingStatusHold, HoldingStatusRejected,
		HoldingStatusProcessed, HoldingStatusCancelled:
		return true
	default:
		return false
	}
}

// IsOpen returns true while the holding still occupies its unit.
func (hs HoldingStatus) IsOpen() bool {
	return hs == HoldingStatusPreHold || hs == HoldingStatusHold
}

// Holding is a temporary reservation preceding a full booking. A holding in
// status hold for longer than 24 hours is swept back to cancelled and its
// unit returned to available.
type Holding struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for unit relationship
	UnitID uint      `gorm:"not null;index" json:"unit_id"`
	Unit   unit.Unit `gorm:"foreignKey:UnitID" json:"unit"`

	// Requesting agent (weak reference, audit only; the holding lifecycle
	// is owned by approvals and the expiry sweep, not by this user)
	RequestedByID uint      `gorm:"not null" json:"requested_by_id"`
	RequestedBy   user.User `gorm:"foreignKey:RequestedByID" json:"requested_by"`

	Notes *string `gorm:"type:text" json:"notes,omitempty"`

	Status          HoldingStatus `gorm:"type:varchar(50);not null;index" json:"status"`
	StatusChangedAt time.Time     `gorm:"not null;index" json:"status_changed_at"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
