package booking

import (
	"time"

	"property-sales/models/unit"
	"property-sales/models/user"
)

// CustomerInfo holds the buyer identity attached to a booking. The Emirates
// ID is stored AES-256-GCM encrypted via utils.EncryptData.
type CustomerInfo struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Name                string  `gorm:"type:varchar(255);not null" json:"name"`
	Email               string  `gorm:"type:varchar(255);not null" json:"email"`
	Phone               string  `gorm:"type:varchar(20);not null" json:"phone"`
	Nationality         *string `gorm:"type:varchar(100)" json:"nationality,omitempty"`
	EmiratesIDEncrypted *string `gorm:"type:text" json:"-"`

	// Populated on read paths only, never persisted.
	EmiratesIDMasked string `gorm:"-" json:"emirates_id_masked,omitempty"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for the CustomerInfo model
func (CustomerInfo) TableName() string {
	return "customer_infos"
}

// Booking is the central workflow entity binding a unit, a customer and a
// payment plan. Exactly one non-cancelled booking exists per unit at a time.
// Bookings are never hard-deleted while a document trail exists.
type Booking struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Reference string `gorm:"type:varchar(255);not null;unique" json:"reference"`

	// Foreign key for unit relationship
	UnitID uint      `gorm:"not null;index" json:"unit_id"`
	Unit   unit.Unit `gorm:"foreignKey:UnitID" json:"unit"`

	// Foreign key for customer relationship
	CustomerInfoID uint         `gorm:"not null" json:"customer_info_id"`
	CustomerInfo   CustomerInfo `gorm:"foreignKey:CustomerInfoID" json:"customer_info"`

	PaymentPlanID uint `gorm:"not null;index" json:"payment_plan_id"`

	// Agent who registered the booking (weak reference, audit only)
	BookedByID uint      `gorm:"not null" json:"booked_by_id"`
	BookedBy   user.User `gorm:"foreignKey:BookedByID" json:"booked_by"`

	ReceiptPath *string `gorm:"type:varchar(2048)" json:"receipt_path,omitempty"`

	Status          BookingStatus `gorm:"type:varchar(50);not null;index" json:"status"`
	StatusChangedAt time.Time     `gorm:"not null" json:"status_changed_at"`
	BookingDate     time.Time     `gorm:"not null" json:"booking_date"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"` // Soft delete field
}
