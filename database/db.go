package database

import (
	"fmt"
	"os"

	"property-sales/logger"
	"property-sales/models/approval"
	"property-sales/models/booking"
	"property-sales/models/document"
	"property-sales/models/holding"
	"property-sales/models/log"
	"property-sales/models/paymentplan"
	"property-sales/models/signing"
	"property-sales/models/unit"
	"property-sales/models/user"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	// Get database configuration from environment variables
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE") // Optional: "disable", "require", etc.

	// Set default sslmode if not provided
	if sslmode == "" {
		sslmode = "disable"
	}

	// Build PostgreSQL DSN string
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	// Create indexes for better performance
	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models in dependency order
func autoMigrate() error {
	// Stage 1: Core foundation models
	stage1Models := []interface{}{
		&user.User{},
		&unit.Building{},
		&unit.Unit{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Plans and customer data depending on units
	stage2Models := []interface{}{
		&paymentplan.PaymentPlan{},
		&paymentplan.PlanBlock{},
		&booking.CustomerInfo{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: Workflow entities depending on stage 1 and 2
	stage3Models := []interface{}{
		&booking.Booking{},
		&booking.BookingStatusEvent{},
		&holding.Holding{},
		&paymentplan.Installment{},
	}

	for _, model := range stage3Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 4: Documents, approvals, signing and logging
	remainingModels := []interface{}{
		&document.ReservationForm{},
		&document.Spa{},
		&document.DldDocument{},
		&approval.Approval{},
		&signing.SigningLink{},
		&log.Log{},
	}

	for _, model := range remainingModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	// User indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_uuid ON users(uuid)").Error; err != nil {
		return fmt.Errorf("failed to create user uuid index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)").Error; err != nil {
		return fmt.Errorf("failed to create user username index: %w", err)
	}

	// Unit indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_units_building_status ON units(building_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create unit building_status index: %w", err)
	}

	// Booking indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_reference ON bookings(reference)").Error; err != nil {
		return fmt.Errorf("failed to create booking reference index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_unit_status ON bookings(unit_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create booking unit_status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create booking created_at index: %w", err)
	}

	// Holding sweep index
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_holdings_status_changed ON holdings(status, status_changed_at)").Error; err != nil {
		return fmt.Errorf("failed to create holding status_changed index: %w", err)
	}

	// Installment indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_installments_plan_booking ON installments(plan_id, booking_id)").Error; err != nil {
		return fmt.Errorf("failed to create installment plan_booking index: %w", err)
	}

	// Signing link pending-uniqueness guard
	if err := EnsureSigningLinkIndexes(DB); err != nil {
		return err
	}

	// Log indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_method ON logs(method)").Error; err != nil {
		return fmt.Errorf("failed to create log method index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)").Error; err != nil {
		return fmt.Errorf("failed to create log status_code index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create log created_at index: %w", err)
	}

	return nil
}

// EnsureSigningLinkIndexes creates the partial unique index that keeps at
// most one pending signing link per (documentable, recipient). Supersession
// inside the issuing transaction handles the sequential case; this index
// rejects the insert when two issuers race. Exported so test connections can
// apply the same guard.
func EnsureSigningLinkIndexes(db *gorm.DB) error {
	err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_signing_links_pending " +
		"ON signing_links(ref_type, ref_id, document_type, recipient_email) " +
		"WHERE status = 'pending'").Error
	if err != nil {
		return fmt.Errorf("failed to create signing link pending index: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Legacy function for backward compatibility
func ConnectDB() (*gorm.DB, error) {
	return InitDB()
}
