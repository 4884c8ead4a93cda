package unit

import (
	"time"
)

// Building groups sellable units under one development.
type Building struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(255);not null;unique" json:"name"`
	Location    string  `gorm:"type:varchar(255)" json:"location"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// Unit represents a sellable property. Its status is driven exclusively by
// booking/holding/approval operations through the lifecycle orchestrator;
// no other code path may set it.
type Unit struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for building relationship
	BuildingID uint     `gorm:"not null;index" json:"building_id"`
	Building   Building `gorm:"foreignKey:BuildingID" json:"building"`

	UnitNumber string  `gorm:"type:varchar(50);not null" json:"unit_number"`
	Floor      int     `gorm:"type:int" json:"floor"`
	Bedrooms   int     `gorm:"type:int" json:"bedrooms"`
	AreaSqft   float64 `gorm:"type:double precision" json:"area_sqft"`
	Price      float64 `gorm:"type:double precision;not null" json:"price"`

	Status          UnitStatus `gorm:"type:varchar(50);not null;index" json:"status"`
	StatusChangedAt time.Time  `gorm:"not null" json:"status_changed_at"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"` // Soft delete field
}
