package booking

// BookingCreateRequest registers a booking against a unit. The payment
// receipt travels as a multipart file next to this payload.
type BookingCreateRequest struct {
	UnitID        uint `json:"unit_id" form:"unit_id" validate:"required"`
	PaymentPlanID uint `json:"payment_plan_id" form:"payment_plan_id" validate:"required"`

	CustomerName        string  `json:"customer_name" form:"customer_name" validate:"required"`
	CustomerEmail       string  `json:"customer_email" form:"customer_email" validate:"required,email"`
	CustomerPhone       string  `json:"customer_phone" form:"customer_phone" validate:"required"`
	CustomerNationality *string `json:"customer_nationality" form:"customer_nationality"`
	EmiratesID          *string `json:"emirates_id" form:"emirates_id"`
}
