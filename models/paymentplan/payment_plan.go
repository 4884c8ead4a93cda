package paymentplan

import (
	"time"

	"property-sales/models/unit"
)

// Block types and offset units used by plan definitions.
const (
	BlockTypeSingle = "single"
	BlockTypeRepeat = "repeat"

	UnitMonths = "months"
	UnitYears  = "years"
)

// PaymentPlan holds fee percentages and either the legacy fixed
// booking/construction/handover percentage triple or an ordered list of
// declarative blocks. Expanding either form must yield installments whose
// percentages sum to exactly 100.
type PaymentPlan struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for unit relationship
	UnitID uint      `gorm:"not null;index" json:"unit_id"`
	Unit   unit.Unit `gorm:"foreignKey:UnitID" json:"unit"`

	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	IsDefault bool   `gorm:"type:bool;default:false" json:"is_default"`

	DiscountPct float64 `gorm:"type:double precision;default:0" json:"discount_pct"`
	DldFeePct   float64 `gorm:"type:double precision;default:0" json:"dld_fee_pct"`
	AdminFee    float64 `gorm:"type:double precision;default:0" json:"admin_fee"`
	EOIAmount   float64 `gorm:"type:double precision;default:0" json:"eoi_amount"`

	// Legacy fixed-percentage plan. Ignored when blocks are present.
	BookingPct         float64 `gorm:"type:double precision;default:0" json:"booking_pct"`
	ConstructionPct    float64 `gorm:"type:double precision;default:0" json:"construction_pct"`
	HandoverPct        float64 `gorm:"type:double precision;default:0" json:"handover_pct"`
	ConstructionMonths int     `gorm:"type:int;default:12" json:"construction_months"`
	HandoverMonths     int     `gorm:"type:int;default:24" json:"handover_months"`

	Blocks []PlanBlock `gorm:"foreignKey:PlanID" json:"blocks"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// PlanBlock is one declarative entry of a block-based plan: either a single
// dated payment or a repeating series. Percentage is per occurrence; a repeat
// block contributes Percentage*Count to the plan total.
type PlanBlock struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID uint `gorm:"not null;index" json:"plan_id"`

	Type        string  `gorm:"type:varchar(20);not null" json:"type"`
	Description string  `gorm:"type:varchar(255);not null" json:"description"`
	Percentage  float64 `gorm:"type:double precision;not null" json:"percentage"`
	Position    int     `gorm:"type:int;not null" json:"position"`

	// Single blocks: explicit date, or offset from plan creation.
	Date       *time.Time `json:"date,omitempty"`
	Offset     int        `gorm:"type:int;default:0" json:"offset"`
	OffsetUnit string     `gorm:"type:varchar(20);default:months" json:"offset_unit"`

	// Repeat blocks: first occurrence at start offset, then one occurrence
	// every frequency interval, Count occurrences in total.
	StartOffset     int    `gorm:"type:int;default:0" json:"start_offset"`
	StartOffsetUnit string `gorm:"type:varchar(20);default:months" json:"start_offset_unit"`
	Frequency       int    `gorm:"type:int;default:0" json:"frequency"`
	FrequencyUnit   string `gorm:"type:varchar(20);default:months" json:"frequency_unit"`
	Count           int    `gorm:"type:int;default:0" json:"count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the PlanBlock model
func (PlanBlock) TableName() string {
	return "plan_blocks"
}

// Installment is a generated, persisted line item of a plan. When a booking
// is created the plan's installments are snapshotted onto it via BookingID.
type Installment struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID uint `gorm:"not null;index" json:"plan_id"`

	// Optional snapshot owner
	BookingID *uint `gorm:"index" json:"booking_id,omitempty"`

	Description string    `gorm:"type:varchar(255);not null" json:"description"`
	Percentage  float64   `gorm:"type:double precision;not null" json:"percentage"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	Amount      float64   `gorm:"type:double precision;not null" json:"amount"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
