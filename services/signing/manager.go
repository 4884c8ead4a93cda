package signing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"property-sales/domainerr"
	documentModel "property-sales/models/document"
	signingModel "property-sales/models/signing"
	"property-sales/services/storage"

	"gorm.io/gorm"
)

// Manager issues and invalidates per-recipient signing tokens. Only the
// salted hash of a token is persisted; the plaintext is returned exactly once
// so the caller can embed it in the outbound notification.
type Manager struct {
	DB    *gorm.DB
	Files storage.FileStore
}

// NewManager creates a new signing link manager
func NewManager(db *gorm.DB, files storage.FileStore) *Manager {
	return &Manager{DB: db, Files: files}
}

// Recipient is one addressee of a signing request.
type Recipient struct {
	Name  string
	Email string
}

// IssueInput describes the document a set of recipients must sign.
type IssueInput struct {
	RefType      string // reservation_form | spa
	RefID        uint
	DocumentType string
	Recipients   []Recipient
	ExpiresAt    *time.Time
	CreatedBy    string
}

// IssuedLink carries the one-time plaintext token next to the persisted row.
type IssuedLink struct {
	Link  *signingModel.SigningLink
	Token string
	URL   string
}

// GenerateToken returns a high-entropy random token as hex.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken computes the salted SHA-256 hash stored for lookup.
func HashToken(token string) string {
	salt := os.Getenv("SIGNING_TOKEN_SALT")
	sum := sha256.Sum256([]byte(salt + token))
	return hex.EncodeToString(sum[:])
}

func signingURL(token string) string {
	base := strings.TrimRight(os.Getenv("SIGNING_BASE_URL"), "/")
	return base + "/sign/" + token
}

// Issue creates one single-use link per recipient. Any pending link for the
// same (documentable, recipient, document type) is expired first, by
// supersession rather than deletion, so the audit trail survives. The partial
// unique index on pending rows backstops concurrent issuers: when two
// transactions race past the supersede step, the second insert fails instead
// of leaving two live links.
func (m *Manager) Issue(input IssueInput) ([]IssuedLink, error) {
	if len(input.Recipients) == 0 {
		return nil, &domainerr.ConflictError{Reason: "no recipients"}
	}

	var issued []IssuedLink
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		for _, r := range input.Recipients {
			if err := tx.Model(&signingModel.SigningLink{}).
				Where("ref_type = ? AND ref_id = ? AND document_type = ? AND recipient_email = ? AND status = ?",
					input.RefType, input.RefID, input.DocumentType, r.Email, signingModel.LinkStatusPending).
				Update("status", signingModel.LinkStatusExpired).Error; err != nil {
				return err
			}

			token, err := GenerateToken()
			if err != nil {
				return err
			}

			link := signingModel.SigningLink{
				RefType:        input.RefType,
				RefID:          input.RefID,
				DocumentType:   input.DocumentType,
				RecipientName:  r.Name,
				RecipientEmail: r.Email,
				TokenHash:      HashToken(token),
				Status:         signingModel.LinkStatusPending,
				ExpiresAt:      input.ExpiresAt,
				CreatedBy:      input.CreatedBy,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}

			issued = append(issued, IssuedLink{
				Link:  &link,
				Token: token,
				URL:   signingURL(token),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Cancel invalidates every pending link of a documentable, e.g. when the
// underlying document is superseded.
func (m *Manager) Cancel(refType string, refID uint) error {
	return m.DB.Model(&signingModel.SigningLink{}).
		Where("ref_type = ? AND ref_id = ? AND status = ?", refType, refID, signingModel.LinkStatusPending).
		Update("status", signingModel.LinkStatusCancelled).Error
}

// ConsumeOnSubmit resolves a plaintext token, marks it signed and invalidates
// it in one update. A consumed or superseded token is never valid again.
func (m *Manager) ConsumeOnSubmit(token, ip, userAgent string) (*signingModel.SigningLink, error) {
	hash := HashToken(token)

	var link signingModel.SigningLink
	err := m.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ?", hash).First(&link).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "signing link"}
			}
			return err
		}

		if link.Status != signingModel.LinkStatusPending {
			return &domainerr.ConflictError{Reason: "signing link is " + link.Status.String()}
		}
		if link.ExpiresAt != nil && time.Now().After(*link.ExpiresAt) {
			if err := tx.Model(&link).Update("status", signingModel.LinkStatusExpired).Error; err != nil {
				return err
			}
			return &domainerr.ConflictError{Reason: "signing link is expired"}
		}

		now := time.Now()
		link.SignedAt = &now
		link.SignedIP = &ip
		link.SignedUserAgent = &userAgent
		link.Status = signingModel.LinkStatusExpired
		return tx.Model(&link).Updates(map[string]interface{}{
			"signed_at":         link.SignedAt,
			"signed_ip":         link.SignedIP,
			"signed_user_agent": link.SignedUserAgent,
			"status":            link.Status,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Lookup resolves a token to its link without consuming it.
func (m *Manager) Lookup(token string) (*signingModel.SigningLink, error) {
	var link signingModel.SigningLink
	if err := m.DB.Where("token_hash = ?", HashToken(token)).First(&link).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &domainerr.NotFoundError{Entity: "signing link"}
		}
		return nil, err
	}
	return &link, nil
}

// Download resolves the document behind a token and returns the requested
// variant (latest | original | signed). It fails closed: cancelled links and
// paths absent from storage both come back as not found.
func (m *Manager) Download(token, variant string) ([]byte, string, error) {
	link, err := m.Lookup(token)
	if err != nil {
		return nil, "", err
	}
	if link.Status == signingModel.LinkStatusCancelled {
		return nil, "", &domainerr.NotFoundError{Entity: "signing link"}
	}

	original, signed, err := m.resolveDocumentPaths(link.RefType, link.RefID)
	if err != nil {
		return nil, "", err
	}

	var path string
	switch variant {
	case "original":
		path = original
	case "signed":
		if signed == nil {
			return nil, "", &domainerr.NotFoundError{Entity: "signed document"}
		}
		path = *signed
	default: // latest
		path = original
		if signed != nil {
			path = *signed
		}
	}

	if path == "" || !m.Files.Exists(path) {
		return nil, "", &domainerr.NotFoundError{Entity: "document file"}
	}
	data, err := m.Files.Download(path)
	if err != nil {
		return nil, "", &domainerr.ExternalServiceError{Service: "file store", Err: err}
	}
	return data, path, nil
}

// resolveDocumentPaths maps a documentable kind to its file paths through an
// explicit lookup, never reflection.
func (m *Manager) resolveDocumentPaths(refType string, refID uint) (string, *string, error) {
	switch refType {
	case documentModel.TypeReservationForm:
		var rf documentModel.ReservationForm
		if err := m.DB.First(&rf, refID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return "", nil, &domainerr.NotFoundError{Entity: "reservation form"}
			}
			return "", nil, err
		}
		return rf.FilePath, rf.SignedFilePath, nil
	case documentModel.TypeSPA:
		var spa documentModel.Spa
		if err := m.DB.First(&spa, refID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return "", nil, &domainerr.NotFoundError{Entity: "spa"}
			}
			return "", nil, err
		}
		return spa.FilePath, spa.SignedFilePath, nil
	default:
		return "", nil, &domainerr.NotFoundError{Entity: "documentable"}
	}
}
