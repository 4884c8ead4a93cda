package document

import (
	"time"
)

// DocumentStatus is the shared status machine of RF and SPA documents:
// pending -> signed -> approved.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusSigned   DocumentStatus = "signed"
	DocumentStatusApproved DocumentStatus = "approved"
)

func (ds DocumentStatus) String() string {
	return string(ds)
}

func (ds DocumentStatus) IsValid() bool {
	switch ds {
	case DocumentStatusPending, DocumentStatusSigned, DocumentStatusApproved:
		return true
	default:
		return false
	}
}

// DocumentType distinguishes signable document kinds on signing links.
const (
	TypeReservationForm = "reservation_form"
	TypeSPA             = "spa"
)

// ReservationForm is the first customer-signed document of a booking. One per
// booking; FilePath holds the generated unsigned copy, SignedFilePath the
// uploaded signed copy.
type ReservationForm struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	BookingID uint `gorm:"not null;unique" json:"booking_id"`

	Status          DocumentStatus `gorm:"type:varchar(50);not null" json:"status"`
	StatusChangedAt time.Time      `gorm:"not null" json:"status_changed_at"`

	FilePath       string  `gorm:"type:varchar(2048);not null" json:"file_path"`
	SignedFilePath *string `gorm:"type:varchar(2048)" json:"signed_file_path,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for the ReservationForm model
func (ReservationForm) TableName() string {
	return "reservation_forms"
}

// Spa is the Sale & Purchase Agreement, mirroring the reservation form
// status machine.
type Spa struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	BookingID uint `gorm:"not null;unique" json:"booking_id"`

	Status          DocumentStatus `gorm:"type:varchar(50);not null" json:"status"`
	StatusChangedAt time.Time      `gorm:"not null" json:"status_changed_at"`

	FilePath       string  `gorm:"type:varchar(2048);not null" json:"file_path"`
	SignedFilePath *string `gorm:"type:varchar(2048)" json:"signed_file_path,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for the Spa model
func (Spa) TableName() string {
	return "spas"
}

// DldDocument is the Dubai Land Department registration proof. It has no
// intermediate states; its presence moves the unit to sold.
type DldDocument struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	BookingID uint `gorm:"not null;unique" json:"booking_id"`

	FilePath string `gorm:"type:varchar(2048);not null" json:"file_path"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for the DldDocument model
func (DldDocument) TableName() string {
	return "dld_documents"
}
