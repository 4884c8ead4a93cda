package unit

// BuildingCreateRequest creates a development building.
type BuildingCreateRequest struct {
	Name        string  `json:"name" validate:"required"`
	Location    string  `json:"location"`
	Description *string `json:"description"`
}

// UnitCreateRequest registers a sellable unit under a building. New units
// start in pending until released by management.
type UnitCreateRequest struct {
	BuildingID uint    `json:"building_id" validate:"required"`
	UnitNumber string  `json:"unit_number" validate:"required"`
	Floor      int     `json:"floor"`
	Bedrooms   int     `json:"bedrooms" validate:"gte=0"`
	AreaSqft   float64 `json:"area_sqft" validate:"gte=0"`
	Price      float64 `json:"price" validate:"required,gt=0"`
}

// UnitRespondRequest is the management decision on a pending unit.
type UnitRespondRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// HoldCreateRequest places a temporary reservation on a unit.
type HoldCreateRequest struct {
	UnitID uint    `json:"unit_id" validate:"required"`
	Notes  *string `json:"notes"`
}

// HoldRespondRequest is the management decision on a pre-hold.
type HoldRespondRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}
