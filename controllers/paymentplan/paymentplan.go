package paymentplan

import (
	"fmt"
	"strconv"

	"property-sales/domainerr"
	"property-sales/logger"
	planModel "property-sales/models/paymentplan"
	unitModel "property-sales/models/unit"
	planService "property-sales/services/paymentplan"
	"property-sales/types"
	planTypes "property-sales/types/paymentplan"
	"property-sales/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// PaymentPlanController handles payment plan HTTP requests
type PaymentPlanController struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	Calculator *planService.Calculator
}

// NewPaymentPlanController creates a new payment plan controller
func NewPaymentPlanController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *PaymentPlanController {
	return &PaymentPlanController{
		DB:         db,
		Logger:     asyncLogger,
		Calculator: planService.NewCalculator(db),
	}
}

func usernameFromClaims(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(map[string]interface{})
	if !ok {
		if mc, ok := c.Locals("user").(jwt.MapClaims); ok {
			claims = mc
		} else {
			return ""
		}
	}
	username, _ := claims["username"].(string)
	return username
}

func domainError(c *fiber.Ctx, err error) error {
	status := domainerr.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("Payment plan operation failed", err)
	}
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: err.Error(),
		Data:    nil,
	})
}

func blocksFromRequest(reqBlocks []planTypes.PlanBlockRequest) []planModel.PlanBlock {
	blocks := make([]planModel.PlanBlock, 0, len(reqBlocks))
	for i, b := range reqBlocks {
		position := b.Position
		if position == 0 {
			position = i
		}
		blocks = append(blocks, planModel.PlanBlock{
			Type:            b.Type,
			Description:     b.Description,
			Percentage:      b.Percentage,
			Position:        position,
			Date:            b.Date,
			Offset:          b.Offset,
			OffsetUnit:      defaultUnit(b.OffsetUnit),
			StartOffset:     b.StartOffset,
			StartOffsetUnit: defaultUnit(b.StartOffsetUnit),
			Frequency:       b.Frequency,
			FrequencyUnit:   defaultUnit(b.FrequencyUnit),
			Count:           b.Count,
		})
	}
	return blocks
}

func defaultUnit(u string) string {
	if u == "" {
		return planModel.UnitMonths
	}
	return u
}

// Store creates a payment plan with its expanded installments.
func (pc *PaymentPlanController) Store(c *fiber.Ctx) error {
	var req planTypes.PlanCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var unit unitModel.Unit
	if err := pc.DB.First(&unit, req.UnitID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Unit not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading unit", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	plan := planModel.PaymentPlan{
		UnitID:             req.UnitID,
		Name:               req.Name,
		IsDefault:          req.IsDefault,
		DiscountPct:        req.DiscountPct,
		DldFeePct:          req.DldFeePct,
		AdminFee:           req.AdminFee,
		EOIAmount:          req.EOIAmount,
		BookingPct:         req.BookingPct,
		ConstructionPct:    req.ConstructionPct,
		HandoverPct:        req.HandoverPct,
		ConstructionMonths: req.ConstructionMonths,
		HandoverMonths:     req.HandoverMonths,
		Blocks:             blocksFromRequest(req.Blocks),
		CreatedBy:          usernameFromClaims(c),
	}

	if err := pc.Calculator.CreatePlan(&plan, unit.Price); err != nil {
		return domainError(c, err)
	}

	logger.Info(fmt.Sprintf("Payment plan %q created for unit %d", plan.Name, plan.UnitID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Payment plan created successfully",
		Data:    plan,
	})
}

// Update replaces a plan definition and regenerates its installments.
func (pc *PaymentPlanController) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "invalid plan id",
			Data:    nil,
		})
	}

	var req planTypes.PlanUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var plan planModel.PaymentPlan
	if err := pc.DB.First(&plan, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Payment plan not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading plan", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	var unit unitModel.Unit
	if err := pc.DB.First(&unit, plan.UnitID).Error; err != nil {
		logger.Error("Database error while loading unit", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	plan.Name = req.Name
	plan.IsDefault = req.IsDefault
	plan.DiscountPct = req.DiscountPct
	plan.DldFeePct = req.DldFeePct
	plan.AdminFee = req.AdminFee
	plan.EOIAmount = req.EOIAmount
	plan.BookingPct = req.BookingPct
	plan.ConstructionPct = req.ConstructionPct
	plan.HandoverPct = req.HandoverPct
	plan.ConstructionMonths = req.ConstructionMonths
	plan.HandoverMonths = req.HandoverMonths
	plan.Blocks = blocksFromRequest(req.Blocks)

	if err := pc.Calculator.UpdatePlan(&plan, unit.Price); err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payment plan updated successfully",
		Data:    plan,
	})
}

// IndexForUnit lists the plans of a unit with their blocks.
func (pc *PaymentPlanController) IndexForUnit(c *fiber.Ctx) error {
	unitID, err := strconv.ParseUint(c.Params("unitId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "invalid unit id",
			Data:    nil,
		})
	}

	var plans []planModel.PaymentPlan
	if err := pc.DB.Preload("Blocks", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("unit_id = ?", uint(unitID)).Find(&plans).Error; err != nil {
		logger.Error("Failed to list payment plans", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payment plans retrieved successfully",
		Data:    plans,
	})
}

// Installments lists the generated installments of a plan (plan-level rows,
// not booking snapshots).
func (pc *PaymentPlanController) Installments(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "invalid plan id",
			Data:    nil,
		})
	}

	var installments []planModel.Installment
	if err := pc.DB.Where("plan_id = ? AND booking_id IS NULL", uint(id)).
		Order("due_date ASC").Find(&installments).Error; err != nil {
		logger.Error("Failed to list installments", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Installments retrieved successfully",
		Data:    installments,
	})
}
