package unit

import (
	"fmt"
	"strconv"
	"time"

	"property-sales/domainerr"
	"property-sales/logger"
	unitModel "property-sales/models/unit"
	"property-sales/services/lifecycle"
	"property-sales/types"
	unitTypes "property-sales/types/unit"
	"property-sales/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UnitController handles building, unit and holding HTTP requests
type UnitController struct {
	DB           *gorm.DB
	Logger       *logger.AsyncLogger
	Orchestrator *lifecycle.Orchestrator
}

// NewUnitController creates a new unit controller
func NewUnitController(db *gorm.DB, asyncLogger *logger.AsyncLogger, orchestrator *lifecycle.Orchestrator) *UnitController {
	return &UnitController{
		DB:           db,
		Logger:       asyncLogger,
		Orchestrator: orchestrator,
	}
}

func resolveActor(c *fiber.Ctx) (lifecycle.Actor, error) {
	claims, ok := c.Locals("user").(map[string]interface{})
	if !ok {
		return lifecycle.Actor{}, fmt.Errorf("invalid user claims")
	}
	userUUID, _ := claims["uuid"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if userUUID == "" {
		return lifecycle.Actor{}, fmt.Errorf("user uuid not found in token")
	}

	userInfo, err := utils.GetUserByUUID(userUUID)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	if username == "" {
		username = userInfo.Username
	}
	if role == "" {
		role = userInfo.Role
	}
	return lifecycle.Actor{UserID: userInfo.ID, Username: username, Role: role}, nil
}

func domainError(c *fiber.Ctx, err error) error {
	status := domainerr.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("Unit operation failed", err)
	}
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: err.Error(),
		Data:    nil,
	})
}

func idParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id")
	}
	return uint(id), nil
}

// StoreBuilding creates a building.
func (uc *UnitController) StoreBuilding(c *fiber.Ctx) error {
	var req unitTypes.BuildingCreateRequest
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
	actor, err := resolveActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	building := unitModel.Building{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		CreatedBy:   actor.Username,
	}
	if err := uc.DB.Create(&building).Error; err != nil {
		logger.Error("Failed to create building", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Building created successfully",
		Data:    building,
	})
}

// Store creates a unit in pending status, awaiting management release.
func (uc *UnitController) Store(c *fiber.Ctx) error {
	var req unitTypes.UnitCreateRequest
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
	actor, err := resolveActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	unit := unitModel.Unit{
		BuildingID:      req.BuildingID,
		UnitNumber:      req.UnitNumber,
		Floor:           req.Floor,
		Bedrooms:        req.Bedrooms,
		AreaSqft:        req.AreaSqft,
		Price:           req.Price,
		Status:          unitModel.UnitStatusPending,
		StatusChangedAt: time.Now(),
		CreatedBy:       actor.Username,
	}
	if err := uc.DB.Create(&unit).Error; err != nil {
		logger.Error("Failed to create unit", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Unit created successfully",
		Data:    unit,
	})
}

// Index lists units, optionally filtered by building and status.
func (uc *UnitController) Index(c *fiber.Ctx) error {
	query := uc.DB.Preload("Building")

	if buildingID := c.Query("building_id"); buildingID != "" {
		query = query.Where("building_id = ?", buildingID)
	}
	if status := c.Query("status"); status != "" {
		if !unitModel.UnitStatus(status).IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Unknown unit status: " + status,
				Data:    nil,
			})
		}
		query = query.Where("status = ?", status)
	}

	var units []unitModel.Unit
	if err := query.Order("id ASC").Find(&units).Error; err != nil {
		logger.Error("Failed to list units", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Units retrieved successfully",
		Data:    units,
	})
}

// Respond applies the management decision on a pending unit.
func (uc *UnitController) Respond(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var req unitTypes.UnitRespondRequest
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
	actor, err := resolveActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	unit, err := uc.Orchestrator.ApproveUnit(actor, id, *req.Approve)
	if err != nil {
		return domainError(c, err)
	}

	message := "Unit released for sale"
	if !*req.Approve {
		message = "Unit rejected"
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    unit,
	})
}

// Hold places a temporary reservation on a unit.
func (uc *UnitController) Hold(c *fiber.Ctx) error {
	var req unitTypes.HoldCreateRequest
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
	actor, err := resolveActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	holding, err := uc.Orchestrator.Hold(actor, req.UnitID, req.Notes)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Holding requested",
		Data:    holding,
	})
}

// RespondHold applies the management decision on a pre-hold.
func (uc *UnitController) RespondHold(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var req unitTypes.HoldRespondRequest
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
	actor, err := resolveActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	holding, err := uc.Orchestrator.RespondHold(actor, id, *req.Approve)
	if err != nil {
		return domainError(c, err)
	}

	message := "Holding confirmed"
	if !*req.Approve {
		message = "Holding rejected"
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    holding,
	})
}

// ReleaseHold closes a confirmed hold as processed and frees the unit.
func (uc *UnitController) ReleaseHold(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}
	actor, err := resolveActor(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	holding, err := uc.Orchestrator.ReleaseHold(actor, id)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Holding processed",
		Data:    holding,
	})
}
