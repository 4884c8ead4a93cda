package paymentplan

import "time"

// PlanBlockRequest is one declarative block of a plan definition.
type PlanBlockRequest struct {
	Type        string  `json:"type" validate:"required,oneof=single repeat"`
	Description string  `json:"description" validate:"required"`
	Percentage  float64 `json:"percentage" validate:"required,gt=0"`
	Position    int     `json:"position" validate:"gte=0"`

	Date       *time.Time `json:"date"`
	Offset     int        `json:"offset" validate:"gte=0"`
	OffsetUnit string     `json:"offset_unit" validate:"omitempty,oneof=months years"`

	StartOffset     int    `json:"start_offset" validate:"gte=0"`
	StartOffsetUnit string `json:"start_offset_unit" validate:"omitempty,oneof=months years"`
	Frequency       int    `json:"frequency" validate:"gte=0"`
	FrequencyUnit   string `json:"frequency_unit" validate:"omitempty,oneof=months years"`
	Count           int    `json:"count" validate:"gte=0"`
}

// PlanCreateRequest defines a payment plan for a unit, either through blocks
// or through the legacy percentage triple.
type PlanCreateRequest struct {
	UnitID    uint   `json:"unit_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	IsDefault bool   `json:"is_default"`

	DiscountPct float64 `json:"discount_pct" validate:"gte=0,lte=100"`
	DldFeePct   float64 `json:"dld_fee_pct" validate:"gte=0,lte=100"`
	AdminFee    float64 `json:"admin_fee" validate:"gte=0"`
	EOIAmount   float64 `json:"eoi_amount" validate:"gte=0"`

	BookingPct         float64 `json:"booking_pct" validate:"gte=0,lte=100"`
	ConstructionPct    float64 `json:"construction_pct" validate:"gte=0,lte=100"`
	HandoverPct        float64 `json:"handover_pct" validate:"gte=0,lte=100"`
	ConstructionMonths int     `json:"construction_months" validate:"gte=0"`
	HandoverMonths     int     `json:"handover_months" validate:"gte=0"`

	Blocks []PlanBlockRequest `json:"blocks" validate:"omitempty,dive"`
}

// PlanUpdateRequest replaces a plan definition and regenerates its
// installments.
type PlanUpdateRequest struct {
	Name      string `json:"name" validate:"required"`
	IsDefault bool   `json:"is_default"`

	DiscountPct float64 `json:"discount_pct" validate:"gte=0,lte=100"`
	DldFeePct   float64 `json:"dld_fee_pct" validate:"gte=0,lte=100"`
	AdminFee    float64 `json:"admin_fee" validate:"gte=0"`
	EOIAmount   float64 `json:"eoi_amount" validate:"gte=0"`

	BookingPct         float64 `json:"booking_pct" validate:"gte=0,lte=100"`
	ConstructionPct    float64 `json:"construction_pct" validate:"gte=0,lte=100"`
	HandoverPct        float64 `json:"handover_pct" validate:"gte=0,lte=100"`
	ConstructionMonths int     `json:"construction_months" validate:"gte=0"`
	HandoverMonths     int     `json:"handover_months" validate:"gte=0"`

	Blocks []PlanBlockRequest `json:"blocks" validate:"omitempty,dive"`
}
