package signing

// RecipientRequest is one addressee of a signing request.
type RecipientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// IssueRequest asks for signing links against a generated document.
type IssueRequest struct {
	RefType    string             `json:"ref_type" validate:"required,oneof=reservation_form spa"`
	RefID      uint               `json:"ref_id" validate:"required"`
	Recipients []RecipientRequest `json:"recipients" validate:"required,min=1,dive"`

	// Optional validity window in hours; zero means no expiry.
	ExpiresInHours int `json:"expires_in_hours" validate:"gte=0"`
}
