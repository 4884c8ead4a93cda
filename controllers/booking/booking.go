package booking

import (
	"fmt"
	"io"
	"strconv"

	"property-sales/constants"
	"property-sales/domainerr"
	"property-sales/logger"
	bookingModel "property-sales/models/booking"
	"property-sales/services"
	"property-sales/services/lifecycle"
	"property-sales/types"
	bookingTypes "property-sales/types/booking"
	"property-sales/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BookingController handles booking workflow HTTP requests
type BookingController struct {
	DB           *gorm.DB
	Logger       *logger.AsyncLogger
	Orchestrator *lifecycle.Orchestrator
	Perms        *services.PermissionService
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, asyncLogger *logger.AsyncLogger, orchestrator *lifecycle.Orchestrator) *BookingController {
	return &BookingController{
		DB:           db,
		Logger:       asyncLogger,
		Orchestrator: orchestrator,
		Perms:        services.NewPermissionService(),
	}
}

// resolveActor turns the JWT claims into the acting user.
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
		logger.Error("Booking operation failed", err)
	}
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: err.Error(),
		Data:    nil,
	})
}

func bookingIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid booking id")
	}
	return uint(id), nil
}

// Store registers a new booking. The payment receipt is an optional
// multipart file under "receipt".
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
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
	if !utils.ValidatePhoneNumber(req.CustomerPhone) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid UAE phone number",
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

	input := lifecycle.BookUnitInput{
		UnitID:              req.UnitID,
		PaymentPlanID:       req.PaymentPlanID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		CustomerNationality: req.CustomerNationality,
		EmiratesID:          req.EmiratesID,
	}

	if file, err := c.FormFile("receipt"); err == nil {
		f, err := file.Open()
		if err != nil {
			logger.Error("Failed to open receipt upload", err)
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Unreadable receipt file",
				Data:    nil,
			})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Unreadable receipt file",
				Data:    nil,
			})
		}
		input.ReceiptData = data
		input.ReceiptName = file.Filename
	}

	booking, err := bc.Orchestrator.BookUnit(actor, input)
	if err != nil {
		return domainError(c, err)
	}

	logger.Info(fmt.Sprintf("Booking %s created for unit %d", booking.Reference, booking.UnitID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Booking created successfully",
		Data:    booking,
	})
}

// Show returns a booking with its relations and installment snapshot.
func (bc *BookingController) Show(c *fiber.Ctx) error {
	id, err := bookingIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var booking bookingModel.Booking
	err = bc.DB.Preload("Unit").Preload("Unit.Building").Preload("CustomerInfo").
		First(&booking, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading booking", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if booking.CustomerInfo.EmiratesIDEncrypted != nil {
		if plain, err := utils.DecryptData(*booking.CustomerInfo.EmiratesIDEncrypted); err == nil {
			booking.CustomerInfo.EmiratesIDMasked = utils.MaskEmiratesID(plain)
		}
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking retrieved successfully",
		Data:    booking,
	})
}

// Approve records one approval vote; the booking advances when the quorum is
// reached.
func (bc *BookingController) Approve(c *fiber.Ctx) error {
	id, err := bookingIDParam(c)
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

	booking, reached, err := bc.Orchestrator.ApproveBooking(actor, id)
	if err != nil {
		return domainError(c, err)
	}

	message := "Approval recorded, waiting for second approver"
	if reached {
		message = "Booking approved"
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    booking,
	})
}

// Cancel cancels an active booking and releases its unit.
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	id, err := bookingIDParam(c)
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

	booking, err := bc.Orchestrator.CancelBooking(actor, id)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking cancelled",
		Data:    booking,
	})
}

// GenerateReservationForm renders the RF document for a booking.
func (bc *BookingController) GenerateReservationForm(c *fiber.Ctx) error {
	return bc.generateDocument(c, "reservation_form")
}

// GenerateSpa renders the SPA document for a booking.
func (bc *BookingController) GenerateSpa(c *fiber.Ctx) error {
	return bc.generateDocument(c, "spa")
}

func (bc *BookingController) generateDocument(c *fiber.Ctx, kind string) error {
	id, err := bookingIDParam(c)
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

	var data interface{}
	if kind == "reservation_form" {
		data, err = bc.Orchestrator.GenerateReservationForm(actor, id)
	} else {
		data, err = bc.Orchestrator.GenerateSpa(actor, id)
	}
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Document generated",
		Data:    data,
	})
}

// UploadSignedReservationForm attaches the signed RF copy ("file" multipart
// field).
func (bc *BookingController) UploadSignedReservationForm(c *fiber.Ctx) error {
	return bc.uploadSigned(c, "reservation_form")
}

// UploadSignedSpa attaches the signed SPA copy.
func (bc *BookingController) UploadSignedSpa(c *fiber.Ctx) error {
	return bc.uploadSigned(c, "spa")
}

func (bc *BookingController) uploadSigned(c *fiber.Ctx, kind string) error {
	id, err := bookingIDParam(c)
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

	data, name, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var result interface{}
	if kind == "reservation_form" {
		result, err = bc.Orchestrator.UploadSignedReservationForm(actor, id, data, name)
	} else {
		result, err = bc.Orchestrator.UploadSignedSpa(actor, id, data, name)
	}
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Signed document uploaded",
		Data:    result,
	})
}

// ApproveReservationForm approves a signed RF and advances the booking.
func (bc *BookingController) ApproveReservationForm(c *fiber.Ctx) error {
	return bc.approveDocument(c, "reservation_form")
}

// ApproveSpa approves a signed SPA and completes the booking.
func (bc *BookingController) ApproveSpa(c *fiber.Ctx) error {
	return bc.approveDocument(c, "spa")
}

func (bc *BookingController) approveDocument(c *fiber.Ctx, kind string) error {
	id, err := bookingIDParam(c)
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

	var data interface{}
	if kind == "reservation_form" {
		data, err = bc.Orchestrator.ApproveReservationForm(actor, id)
	} else {
		data, err = bc.Orchestrator.ApproveSpa(actor, id)
	}
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Document approved",
		Data:    data,
	})
}

// UploadDld stores the land department registration proof and finalizes the
// sale.
func (bc *BookingController) UploadDld(c *fiber.Ctx) error {
	if !bc.Perms.CheckAnyPermission(c, constants.ManagementPermissions...) {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Status:  fiber.StatusForbidden,
			Message: "Insufficient permissions",
			Data:    nil,
		})
	}
	id, err := bookingIDParam(c)
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

	data, name, err := readUpload(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	dld, err := bc.Orchestrator.UploadDld(actor, id, data, name)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "DLD document uploaded, sale finalized",
		Data:    dld,
	})
}

// readUpload reads a required multipart file field into memory.
func readUpload(c *fiber.Ctx, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("missing %s upload", field)
	}
	f, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("unreadable %s upload", field)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("unreadable %s upload", field)
	}
	return data, file.Filename, nil
}
