package seeders

import (
	"fmt"
	"time"

	"property-sales/logger"
	"property-sales/models/unit"

	"gorm.io/gorm"
)

// SeedUnits creates a demo building with a handful of pending units. Skipped
// when the building already exists.
func SeedUnits(db *gorm.DB) error {
	var count int64
	if err := db.Model(&unit.Building{}).Where("name = ?", "Marina Heights").Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check buildings: %w", err)
	}
	if count > 0 {
		return nil
	}

	building := unit.Building{
		Name:      "Marina Heights",
		Location:  "Dubai Marina",
		CreatedBy: "seeder",
	}
	if err := db.Create(&building).Error; err != nil {
		return fmt.Errorf("failed to seed building: %w", err)
	}

	units := []unit.Unit{
		{BuildingID: building.ID, UnitNumber: "101", Floor: 1, Bedrooms: 1, AreaSqft: 780, Price: 950000},
		{BuildingID: building.ID, UnitNumber: "102", Floor: 1, Bedrooms: 2, AreaSqft: 1240, Price: 1650000},
		{BuildingID: building.ID, UnitNumber: "201", Floor: 2, Bedrooms: 2, AreaSqft: 1250, Price: 1700000},
		{BuildingID: building.ID, UnitNumber: "301", Floor: 3, Bedrooms: 3, AreaSqft: 1820, Price: 2450000},
	}
	for i := range units {
		units[i].Status = unit.UnitStatusPending
		units[i].StatusChangedAt = time.Now()
		units[i].CreatedBy = "seeder"
		if err := db.Create(&units[i]).Error; err != nil {
			return fmt.Errorf("failed to seed unit %s: %w", units[i].UnitNumber, err)
		}
	}

	logger.Info(fmt.Sprintf("Seeded building %s with %d units", building.Name, len(units)))
	return nil
}

// SeedAll runs every seeder in order.
func SeedAll(db *gorm.DB) error {
	if err := SeedUsers(db); err != nil {
		return err
	}
	return SeedUnits(db)
}
