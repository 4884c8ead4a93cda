package paymentplan

import (
	"fmt"
	"math"
	"time"

	"property-sales/domainerr"
	planModel "property-sales/models/paymentplan"
	"property-sales/utils"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Calculator expands payment plan definitions into dated, amount-bearing
// installments and keeps the persisted installment set in sync with the plan.
type Calculator struct {
	DB *gorm.DB
}

// NewCalculator creates a new payment plan calculator
func NewCalculator(db *gorm.DB) *Calculator {
	return &Calculator{DB: db}
}

// pctBasisPoints converts a percentage to integer basis points so the
// sum-to-100 validation is exact.
func pctBasisPoints(pct float64) int {
	return int(math.Round(pct * 100))
}

// ValidateBlocks checks the declarative block list: the expanded percentages
// must sum to exactly 100 and every block's resolved start date must be
// unique within the plan.
func ValidateBlocks(blocks []planModel.PlanBlock, base time.Time) error {
	if len(blocks) == 0 {
		return &domainerr.PlanDefinitionError{Reason: "plan has no blocks"}
	}

	total := 0
	seen := make(map[time.Time]bool, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case planModel.BlockTypeSingle:
			total += pctBasisPoints(b.Percentage)
		case planModel.BlockTypeRepeat:
			if b.Count <= 0 {
				return &domainerr.PlanDefinitionError{Reason: fmt.Sprintf("repeat block %q has no count", b.Description)}
			}
			if b.Frequency <= 0 {
				return &domainerr.PlanDefinitionError{Reason: fmt.Sprintf("repeat block %q has no frequency", b.Description)}
			}
			total += pctBasisPoints(b.Percentage) * b.Count
		default:
			return &domainerr.PlanDefinitionError{Reason: fmt.Sprintf("unknown block type %q", b.Type)}
		}

		start := resolveBlockStart(b, base)
		if seen[start] {
			return &domainerr.PlanDefinitionError{Reason: fmt.Sprintf("duplicate block start date %s", start.Format("2006-01-02"))}
		}
		seen[start] = true
	}

	if total != 10000 {
		return &domainerr.PlanDefinitionError{Reason: fmt.Sprintf("block percentages sum to %.2f, expected 100", float64(total)/100)}
	}
	return nil
}

// resolveBlockStart derives the first due date of a block. Single blocks use
// their explicit date if set, otherwise a months/years offset from base;
// repeat blocks use their start offset. Dates are normalized to the beginning
// of the day so uniqueness checks do not depend on the time of the request.
func resolveBlockStart(b planModel.PlanBlock, base time.Time) time.Time {
	if b.Type == planModel.BlockTypeRepeat {
		return now.With(utils.AddOffset(base, b.StartOffset, b.StartOffsetUnit)).BeginningOfDay()
	}
	if b.Date != nil {
		return now.With(*b.Date).BeginningOfDay()
	}
	return now.With(utils.AddOffset(base, b.Offset, b.OffsetUnit)).BeginningOfDay()
}

// Expand derives the installment set for a plan against a unit price. The
// first single block is the booking deposit and carries the compound formula
// (DLD fee plus admin fee minus the EOI credit); every other occurrence is a
// plain percentage of the effective price. The booking deposit amount may be
// negative when the EOI exceeds the booking share; preserved, not clamped.
func Expand(plan *planModel.PaymentPlan, price float64, base time.Time) ([]planModel.Installment, error) {
	if len(plan.Blocks) > 0 {
		return expandBlocks(plan, price, base)
	}
	return expandLegacy(plan, price, base)
}

func expandBlocks(plan *planModel.PaymentPlan, price float64, base time.Time) ([]planModel.Installment, error) {
	if err := ValidateBlocks(plan.Blocks, base); err != nil {
		return nil, err
	}

	effective := price * (1 - plan.DiscountPct/100)
	installments := make([]planModel.Installment, 0, len(plan.Blocks))

	depositTaken := false
	for _, b := range plan.Blocks {
		start := resolveBlockStart(b, base)

		if b.Type == planModel.BlockTypeSingle {
			amount := effective * b.Percentage / 100
			if !depositTaken {
				amount += effective*plan.DldFeePct/100 + plan.AdminFee - plan.EOIAmount
				depositTaken = true
			}
			installments = append(installments, planModel.Installment{
				PlanID:      plan.ID,
				Description: b.Description,
				Percentage:  b.Percentage,
				DueDate:     start,
				Amount:      utils.RoundAmount(amount),
			})
			continue
		}

		// Repeat block: count occurrences, each carrying the per-occurrence
		// percentage, dated by adding the frequency cumulatively.
		for i := 0; i < b.Count; i++ {
			due := now.With(utils.AddOffset(start, i*b.Frequency, b.FrequencyUnit)).BeginningOfDay()
			installments = append(installments, planModel.Installment{
				PlanID:      plan.ID,
				Description: fmt.Sprintf("%s (%d/%d)", b.Description, i+1, b.Count),
				Percentage:  b.Percentage,
				DueDate:     due,
				Amount:      utils.RoundAmount(effective * b.Percentage / 100),
			})
		}
	}

	return installments, nil
}

// expandLegacy computes the fixed booking/construction/handover triple.
func expandLegacy(plan *planModel.PaymentPlan, price float64, base time.Time) ([]planModel.Installment, error) {
	total := pctBasisPoints(plan.BookingPct) + pctBasisPoints(plan.ConstructionPct) + pctBasisPoints(plan.HandoverPct)
	if total != 10000 {
		return nil, &domainerr.PlanDefinitionError{Reason: fmt.Sprintf("booking/construction/handover percentages sum to %.2f, expected 100", float64(total)/100)}
	}

	effective := price * (1 - plan.DiscountPct/100)
	day := func(t time.Time) time.Time { return now.With(t).BeginningOfDay() }

	booking := effective*plan.BookingPct/100 + effective*plan.DldFeePct/100 + plan.AdminFee - plan.EOIAmount

	return []planModel.Installment{
		{
			PlanID:      plan.ID,
			Description: "Booking",
			Percentage:  plan.BookingPct,
			DueDate:     day(base),
			Amount:      utils.RoundAmount(booking),
		},
		{
			PlanID:      plan.ID,
			Description: "Construction",
			Percentage:  plan.ConstructionPct,
			DueDate:     day(base.AddDate(0, plan.ConstructionMonths, 0)),
			Amount:      utils.RoundAmount(effective * plan.ConstructionPct / 100),
		},
		{
			PlanID:      plan.ID,
			Description: "Handover",
			Percentage:  plan.HandoverPct,
			DueDate:     day(base.AddDate(0, plan.HandoverMonths, 0)),
			Amount:      utils.RoundAmount(effective * plan.HandoverPct / 100),
		},
	}, nil
}

// CreatePlan validates and persists a plan with its blocks and generated
// installments in one transaction.
func (c *Calculator) CreatePlan(plan *planModel.PaymentPlan, price float64) error {
	base := time.Now()

	if plan.IsDefault {
		if err := c.ensureNoOtherDefault(c.DB, plan.UnitID, 0); err != nil {
			return err
		}
	}

	installments, err := Expand(plan, price, base)
	if err != nil {
		return err
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		for i := range installments {
			installments[i].PlanID = plan.ID
		}
		return tx.Create(&installments).Error
	})
}

// UpdatePlan replaces the plan definition and atomically regenerates its
// installments: prior plan-level rows are deleted and the new set inserted in
// the same transaction, so readers never observe a partial set. Snapshots
// already attached to bookings are left untouched.
func (c *Calculator) UpdatePlan(plan *planModel.PaymentPlan, price float64) error {
	base := time.Now()

	if plan.IsDefault {
		if err := c.ensureNoOtherDefault(c.DB, plan.UnitID, plan.ID); err != nil {
			return err
		}
	}

	installments, err := Expand(plan, price, base)
	if err != nil {
		return err
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", plan.ID).Delete(&planModel.PlanBlock{}).Error; err != nil {
			return err
		}
		for i := range plan.Blocks {
			plan.Blocks[i].ID = 0
			plan.Blocks[i].PlanID = plan.ID
		}
		if err := tx.Save(plan).Error; err != nil {
			return err
		}

		if err := tx.Where("plan_id = ? AND booking_id IS NULL", plan.ID).
			Delete(&planModel.Installment{}).Error; err != nil {
			return err
		}
		for i := range installments {
			installments[i].PlanID = plan.ID
		}
		return tx.Create(&installments).Error
	})
}

// SnapshotForBooking copies the plan's expanded installments onto a booking
// inside the caller's transaction.
func (c *Calculator) SnapshotForBooking(tx *gorm.DB, plan *planModel.PaymentPlan, bookingID uint, price float64, base time.Time) ([]planModel.Installment, error) {
	installments, err := Expand(plan, price, base)
	if err != nil {
		return nil, err
	}
	for i := range installments {
		installments[i].PlanID = plan.ID
		id := bookingID
		installments[i].BookingID = &id
	}
	if err := tx.Create(&installments).Error; err != nil {
		return nil, err
	}
	return installments, nil
}

// ensureNoOtherDefault rejects a second default plan for the same unit.
func (c *Calculator) ensureNoOtherDefault(db *gorm.DB, unitID, excludePlanID uint) error {
	var count int64
	q := db.Model(&planModel.PaymentPlan{}).
		Where("unit_id = ? AND is_default = ?", unitID, true)
	if excludePlanID > 0 {
		q = q.Where("id <> ?", excludePlanID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &domainerr.ConflictingDefaultError{UnitID: unitID}
	}
	return nil
}
