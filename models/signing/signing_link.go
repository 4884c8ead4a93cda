package signing

import (
	"time"
)

// LinkStatus enumerates the states of a signing link. A consumed link keeps
// its SignedAt timestamp and moves straight to expired so the token can never
// be replayed; cancelled marks explicit invalidation.
type LinkStatus string

const (
	LinkStatusPending   LinkStatus = "pending"
	LinkStatusExpired   LinkStatus = "expired"
	LinkStatusCancelled LinkStatus = "cancelled"
)

func (ls LinkStatus) String() string {
	return string(ls)
}

func (ls LinkStatus) IsValid() bool {
	switch ls {
	case LinkStatusPending, LinkStatusExpired, LinkStatusCancelled:
		return true
	default:
		return false
	}
}

// SigningLink is a single-use, per-recipient capability scoped to one
// (documentable, document type) pair. Only the salted hash of the token is
// persisted; the plaintext is returned once at issue time. At most one
// pending link exists per (documentable, recipient): the issuing transaction
// supersedes pending rows, and the partial unique index on
// (ref_type, ref_id, document_type, recipient_email) WHERE status = 'pending'
// rejects the insert when two issuers race.
type SigningLink struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	RefType      string `gorm:"type:varchar(50);not null;index:idx_signing_links_ref" json:"ref_type"`
	RefID        uint   `gorm:"not null;index:idx_signing_links_ref" json:"ref_id"`
	DocumentType string `gorm:"type:varchar(50);not null" json:"document_type"`

	RecipientName  string `gorm:"type:varchar(255);not null" json:"recipient_name"`
	RecipientEmail string `gorm:"type:varchar(255);not null;index" json:"recipient_email"`

	TokenHash string `gorm:"type:varchar(64);not null;unique" json:"-"`

	Status LinkStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	SignedAt        *time.Time `json:"signed_at,omitempty"`
	SignedIP        *string    `gorm:"type:varchar(64)" json:"signed_ip,omitempty"`
	SignedUserAgent *string    `gorm:"type:varchar(512)" json:"signed_user_agent,omitempty"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSigned reports whether the link was consumed by a submission.
func (sl *SigningLink) IsSigned() bool {
	return sl.SignedAt != nil
}
