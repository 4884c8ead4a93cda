package approval

import (
	"time"

	"property-sales/models/user"
)

// RefType tags which entity kind an approval references. Resolution to a
// concrete row goes through an explicit kind lookup, never reflection.
type RefType string

const (
	RefTypeUnit    RefType = "unit"
	RefTypeBooking RefType = "booking"
	RefTypeHolding RefType = "holding"
	RefTypeSPA     RefType = "spa"
)

func (rt RefType) IsValid() bool {
	switch rt {
	case RefTypeUnit, RefTypeBooking, RefTypeHolding, RefTypeSPA:
		return true
	default:
		return false
	}
}

// ApprovalStatus is the recorded outcome of a single approval action.
type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Approval is an immutable audit record of one role acting on one entity.
// Quorum logic reads the set of distinct approved roles per (ref_type, ref_id);
// rows are inserted even when quorum is not yet reached.
type Approval struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	RefType RefType `gorm:"type:varchar(50);not null;index:idx_approvals_ref" json:"ref_type"`
	RefID   uint    `gorm:"not null;index:idx_approvals_ref" json:"ref_id"`

	Role string `gorm:"type:varchar(50);not null" json:"role"`

	// Approving user (weak reference for audit)
	UserID uint      `gorm:"not null" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	Status ApprovalStatus `gorm:"type:varchar(50);not null" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
