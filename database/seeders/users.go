package seeders

import (
	"fmt"
	"time"

	"property-sales/constants"
	"property-sales/logger"
	"property-sales/models/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedUsers creates one user per role for local development. Existing
// usernames are left untouched.
func SeedUsers(db *gorm.DB) error {
	seeds := []struct {
		username   string
		legalName  string
		phone      string
		role       string
		permission string
	}{
		{"ceo", "Chief Executive Officer", "+971500000001", constants.RoleCEO, constants.PermCEOFull},
		{"cso", "Chief Sales Officer", "+971500000002", constants.RoleCSO, constants.PermCSOFull},
		{"accountant", "Accountant", "+971500000003", constants.RoleAccountant, constants.PermAccountantFull},
		{"maintenance", "Maintenance Manager", "+971500000004", constants.RoleMaintenance, constants.PermMaintenanceFull},
		{"agent", "Sales Agent", "+971500000005", constants.RoleAgent, constants.PermAgentFull},
	}

	now := time.Now()
	for _, s := range seeds {
		var count int64
		if err := db.Model(&user.User{}).Where("username = ?", s.username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check user %s: %w", s.username, err)
		}
		if count > 0 {
			continue
		}

		email := s.username + "@property-sales.local"
		u := user.User{
			Uuid:        uuid.New().String(),
			Username:    s.username,
			LegalName:   s.legalName,
			Phone:       s.phone,
			Email:       &email,
			Role:        s.role,
			JoinedAt:    &now,
			Permissions: user.StringSlice{s.permission},
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", s.username, err)
		}
		logger.Info(fmt.Sprintf("Seeded user %s (%s)", s.username, s.role))
	}

	return nil
}
