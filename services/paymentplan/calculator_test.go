package paymentplan

import (
	"errors"
	"testing"
	"time"

	"property-sales/domainerr"
	planModel "property-sales/models/paymentplan"
	unitModel "property-sales/models/unit"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:plan_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&unitModel.Building{}, &unitModel.Unit{},
		&planModel.PaymentPlan{}, &planModel.PlanBlock{}, &planModel.Installment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var base = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func TestLegacyExpansionBookingDepositCanBeNegative(t *testing.T) {
	plan := &planModel.PaymentPlan{
		DldFeePct:          4,
		AdminFee:           4000,
		EOIAmount:          100000,
		BookingPct:         20,
		ConstructionPct:    50,
		HandoverPct:        30,
		ConstructionMonths: 12,
		HandoverMonths:     24,
	}

	installments, err := Expand(plan, 350000, base)
	require.NoError(t, err)
	require.Len(t, installments, 3)

	// 20% of 350000 plus 4% DLD plus admin fee minus the EOI credit:
	// 70000 + 14000 + 4000 - 100000 = -12000. Preserved, not clamped.
	require.Equal(t, -12000.0, installments[0].Amount)
	require.Equal(t, "Booking", installments[0].Description)
	require.True(t, installments[0].DueDate.Equal(day(base)))

	require.Equal(t, 175000.0, installments[1].Amount)
	require.True(t, installments[1].DueDate.Equal(day(base.AddDate(0, 12, 0))))

	require.Equal(t, 105000.0, installments[2].Amount)
	require.True(t, installments[2].DueDate.Equal(day(base.AddDate(0, 24, 0))))
}

func TestLegacyExpansionRejectsBadPercentages(t *testing.T) {
	plan := &planModel.PaymentPlan{BookingPct: 20, ConstructionPct: 50, HandoverPct: 29}

	_, err := Expand(plan, 100000, base)
	require.Error(t, err)

	var def *domainerr.PlanDefinitionError
	require.True(t, errors.As(err, &def))
}

func TestBlockExpansion(t *testing.T) {
	plan := &planModel.PaymentPlan{
		DiscountPct: 10,
		DldFeePct:   4,
		AdminFee:    2000,
		EOIAmount:   5000,
		Blocks: []planModel.PlanBlock{
			{Type: planModel.BlockTypeSingle, Description: "Booking", Percentage: 10, OffsetUnit: planModel.UnitMonths},
			{Type: planModel.BlockTypeSingle, Description: "Six months", Percentage: 20, Offset: 6, OffsetUnit: planModel.UnitMonths},
			{Type: planModel.BlockTypeRepeat, Description: "Quarterly", Percentage: 10,
				StartOffset: 12, StartOffsetUnit: planModel.UnitMonths,
				Frequency: 3, FrequencyUnit: planModel.UnitMonths, Count: 7},
		},
	}

	installments, err := Expand(plan, 1000000, base)
	require.NoError(t, err)
	require.Len(t, installments, 9)

	// Effective price 900000. Deposit: 90000 + 36000 + 2000 - 5000.
	require.Equal(t, 123000.0, installments[0].Amount)
	require.True(t, installments[0].DueDate.Equal(day(base)))

	// Second single is a plain percentage, no fee components.
	require.Equal(t, 180000.0, installments[1].Amount)
	require.True(t, installments[1].DueDate.Equal(day(base.AddDate(0, 6, 0))))

	// Repeat occurrences: 10% each, quarterly from month 12.
	require.Equal(t, "Quarterly (1/7)", installments[2].Description)
	require.Equal(t, 90000.0, installments[2].Amount)
	require.True(t, installments[2].DueDate.Equal(day(base.AddDate(0, 12, 0))))
	require.Equal(t, "Quarterly (7/7)", installments[8].Description)
	require.True(t, installments[8].DueDate.Equal(day(base.AddDate(0, 12+18, 0))))

	// Percentages over all occurrences sum to exactly 100.
	total := 0.0
	for _, inst := range installments {
		total += inst.Percentage
	}
	require.Equal(t, 100.0, total)
}

func TestValidateBlocksRejectsDuplicateStartDates(t *testing.T) {
	blocks := []planModel.PlanBlock{
		{Type: planModel.BlockTypeSingle, Description: "A", Percentage: 50, Offset: 6, OffsetUnit: planModel.UnitMonths},
		{Type: planModel.BlockTypeSingle, Description: "B", Percentage: 50, Offset: 6, OffsetUnit: planModel.UnitMonths},
	}

	err := ValidateBlocks(blocks, base)
	require.Error(t, err)

	var def *domainerr.PlanDefinitionError
	require.True(t, errors.As(err, &def))
}

func TestValidateBlocksRejectsRepeatWithoutCount(t *testing.T) {
	blocks := []planModel.PlanBlock{
		{Type: planModel.BlockTypeRepeat, Description: "Broken", Percentage: 100,
			Frequency: 1, FrequencyUnit: planModel.UnitMonths},
	}

	err := ValidateBlocks(blocks, base)
	require.Error(t, err)
}

func TestValidateBlocksExactHundredInBasisPoints(t *testing.T) {
	// 33.33 * 3 = 99.99, off by one basis point.
	blocks := []planModel.PlanBlock{
		{Type: planModel.BlockTypeSingle, Description: "A", Percentage: 33.33},
		{Type: planModel.BlockTypeSingle, Description: "B", Percentage: 33.33, Offset: 1, OffsetUnit: planModel.UnitMonths},
		{Type: planModel.BlockTypeSingle, Description: "C", Percentage: 33.33, Offset: 2, OffsetUnit: planModel.UnitMonths},
	}
	require.Error(t, ValidateBlocks(blocks, base))

	blocks[2].Percentage = 33.34
	require.NoError(t, ValidateBlocks(blocks, base))
}

func seedUnit(t *testing.T, db *gorm.DB) unitModel.Unit {
	t.Helper()
	building := unitModel.Building{Name: "Test Tower " + t.Name(), CreatedBy: "test"}
	require.NoError(t, db.Create(&building).Error)
	u := unitModel.Unit{
		BuildingID: building.ID, UnitNumber: "101", Price: 500000,
		Status: unitModel.UnitStatusAvailable, StatusChangedAt: time.Now(), CreatedBy: "test",
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestCreatePlanRejectsSecondDefault(t *testing.T) {
	db := setupDB(t)
	calc := NewCalculator(db)
	u := seedUnit(t, db)

	first := &planModel.PaymentPlan{
		UnitID: u.ID, Name: "Standard", IsDefault: true,
		BookingPct: 20, ConstructionPct: 50, HandoverPct: 30,
		ConstructionMonths: 12, HandoverMonths: 24, CreatedBy: "test",
	}
	require.NoError(t, calc.CreatePlan(first, u.Price))

	second := &planModel.PaymentPlan{
		UnitID: u.ID, Name: "Also default", IsDefault: true,
		BookingPct: 10, ConstructionPct: 60, HandoverPct: 30,
		ConstructionMonths: 12, HandoverMonths: 24, CreatedBy: "test",
	}
	err := calc.CreatePlan(second, u.Price)
	require.Error(t, err)

	var conflict *domainerr.ConflictingDefaultError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, u.ID, conflict.UnitID)
}

func TestUpdatePlanRegeneratesButKeepsBookingSnapshots(t *testing.T) {
	db := setupDB(t)
	calc := NewCalculator(db)
	u := seedUnit(t, db)

	plan := &planModel.PaymentPlan{
		UnitID: u.ID, Name: "Standard",
		BookingPct: 20, ConstructionPct: 50, HandoverPct: 30,
		ConstructionMonths: 12, HandoverMonths: 24, CreatedBy: "test",
	}
	require.NoError(t, calc.CreatePlan(plan, u.Price))

	snapshot, err := calc.SnapshotForBooking(db, plan, 42, u.Price, base)
	require.NoError(t, err)
	require.Len(t, snapshot, 3)

	plan.BookingPct = 10
	plan.ConstructionPct = 60
	require.NoError(t, calc.UpdatePlan(plan, u.Price))

	var planLevel []planModel.Installment
	require.NoError(t, db.Where("plan_id = ? AND booking_id IS NULL", plan.ID).Find(&planLevel).Error)
	require.Len(t, planLevel, 3)
	require.Equal(t, 10.0, planLevel[0].Percentage)

	// The booking snapshot still reflects the old definition.
	var snapped []planModel.Installment
	require.NoError(t, db.Where("plan_id = ? AND booking_id = ?", plan.ID, 42).Find(&snapped).Error)
	require.Len(t, snapped, 3)
	require.Equal(t, 20.0, snapped[0].Percentage)
}
