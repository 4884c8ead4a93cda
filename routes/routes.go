package routes

import (
	"property-sales/constants"
	bookingController "property-sales/controllers/booking"
	paymentplanController "property-sales/controllers/paymentplan"
	signingController "property-sales/controllers/signing"
	unitController "property-sales/controllers/unit"
	"property-sales/logger"
	"property-sales/middleware"
	"property-sales/services/lifecycle"
	"property-sales/services/notify"
	signingService "property-sales/services/signing"
	"property-sales/services/render"
	"property-sales/services/storage"
	"property-sales/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes wires the controllers and their service graph onto the app and
// returns the orchestrator so main can hand it to the scheduler.
func SetupRoutes(app *fiber.App, db *gorm.DB) *lifecycle.Orchestrator {
	asyncLogger := logger.NewAsyncLogger(db)

	files := storage.NewLocalFileStore("")
	renderer := render.NewTemplateRenderer()
	notifier := notify.NewSMTPNotifier()
	orchestrator := lifecycle.NewOrchestrator(db, files, renderer, notifier)
	signingManager := signingService.NewManager(db, files)

	units := unitController.NewUnitController(db, asyncLogger, orchestrator)
	bookings := bookingController.NewBookingController(db, asyncLogger, orchestrator)
	plans := paymentplanController.NewPaymentPlanController(db, asyncLogger)
	signings := signingController.NewSigningController(db, asyncLogger, signingManager, notifier)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	app.Use(middleware.RequestLogger(asyncLogger))

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "property-sales api",
		})
	})

	/*=============================================================================
	| Public Routes: signing links are their own credential
	===============================================================================*/
	app.Post("/sign/:token/submit", signings.Submit)
	app.Get("/sign/:token/download", signings.Download)

	api := app.Group("/api")

	/*=============================================================================
	| Unit & Building Routes
	===============================================================================*/
	unitGroup := api.Group("/unit")

	unitGroup.Post("/building", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), units.StoreBuilding)

	unitGroup.Post("/create", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), units.Store)

	unitGroup.Get("/list", middleware.RequireAuthentication(), units.Index)

	unitGroup.Post("/:id/respond", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), units.Respond)

	// Holding flow
	unitGroup.Post("/hold", middleware.RequirePermissions(
		constants.PermAgentFull,
	), units.Hold)

	unitGroup.Post("/hold/:id/respond", middleware.RequirePermissions(
		constants.ApproverPermissions...,
	), units.RespondHold)

	unitGroup.Post("/hold/:id/release", middleware.RequirePermissions(
		constants.ApproverPermissions...,
	), units.ReleaseHold)

	/*=============================================================================
	| Payment Plan Routes
	===============================================================================*/
	planGroup := api.Group("/payment-plan")

	planGroup.Post("/create", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), plans.Store)

	planGroup.Put("/:id", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), plans.Update)

	planGroup.Get("/unit/:unitId", middleware.RequireAuthentication(), plans.IndexForUnit)
	planGroup.Get("/:id/installments", middleware.RequireAuthentication(), plans.Installments)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/booking")

	bookingGroup.Post("/create", middleware.RequirePermissions(
		constants.PermAgentFull,
	), bookings.Store)

	bookingGroup.Get("/:id", middleware.RequireAuthentication(), bookings.Show)

	bookingGroup.Post("/:id/approve", middleware.RequirePermissions(
		append(constants.ApproverPermissions, constants.PermMaintenanceFull)...,
	), bookings.Approve)

	bookingGroup.Post("/:id/cancel", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), bookings.Cancel)

	// Reservation form
	bookingGroup.Post("/:id/reservation-form/generate", middleware.RequirePermissions(
		constants.PermAgentFull,
	), bookings.GenerateReservationForm)

	bookingGroup.Post("/:id/reservation-form/upload-signed", middleware.RequireAnyPermission(
		constants.PermAgentFull, constants.PermCEOFull,
	), bookings.UploadSignedReservationForm)

	bookingGroup.Post("/:id/reservation-form/approve", middleware.RequirePermissions(
		constants.ApproverPermissions...,
	), bookings.ApproveReservationForm)

	// Sale & purchase agreement
	bookingGroup.Post("/:id/spa/generate", middleware.RequirePermissions(
		constants.PermAgentFull,
	), bookings.GenerateSpa)

	bookingGroup.Post("/:id/spa/upload-signed", middleware.RequireAnyPermission(
		constants.PermAgentFull, constants.PermCEOFull,
	), bookings.UploadSignedSpa)

	bookingGroup.Post("/:id/spa/approve", middleware.RequirePermissions(
		constants.ApproverPermissions...,
	), bookings.ApproveSpa)

	// Land department registration
	bookingGroup.Post("/:id/dld/upload", middleware.RequirePermissions(
		constants.ManagementPermissions...,
	), bookings.UploadDld)

	/*=============================================================================
	| Signing Routes (issuing is protected; submit/download are public above)
	===============================================================================*/
	signingGroup := api.Group("/signing")

	signingGroup.Post("/issue", middleware.RequirePermissions(
		constants.PermAgentFull,
	), signings.Issue)

	return orchestrator
}
