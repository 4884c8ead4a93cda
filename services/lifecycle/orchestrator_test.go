package lifecycle

import (
	"errors"
	"testing"
	"time"

	"property-sales/constants"
	"property-sales/domainerr"
	approvalModel "property-sales/models/approval"
	bookingModel "property-sales/models/booking"
	documentModel "property-sales/models/document"
	holdingModel "property-sales/models/holding"
	planModel "property-sales/models/paymentplan"
	unitModel "property-sales/models/unit"
	userModel "property-sales/models/user"
	"property-sales/services/render"
	"property-sales/services/storage"
	"property-sales/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingNotifier captures outbound mail instead of dialing SMTP.
type recordingNotifier struct {
	mails []recordedMail
}

type recordedMail struct {
	To      []string
	Subject string
}

func (n *recordingNotifier) SendMail(to []string, subject string, htmlBody string) {
	n.mails = append(n.mails, recordedMail{To: to, Subject: subject})
}

func (n *recordingNotifier) SendPush(tokens []string, title, body string, data map[string]string) {}

func setupOrchestrator(t *testing.T) (*Orchestrator, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:lifecycle_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&userModel.User{},
		&unitModel.Building{}, &unitModel.Unit{},
		&planModel.PaymentPlan{}, &planModel.PlanBlock{}, &planModel.Installment{},
		&bookingModel.CustomerInfo{}, &bookingModel.Booking{}, &bookingModel.BookingStatusEvent{},
		&holdingModel.Holding{},
		&documentModel.ReservationForm{}, &documentModel.Spa{}, &documentModel.DldDocument{},
		&approvalModel.Approval{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	notifier := &recordingNotifier{}
	o := NewOrchestrator(db, storage.NewLocalFileStore(t.TempDir()), render.NewTemplateRenderer(), notifier)
	return o, db, notifier
}

var (
	agent      = Actor{UserID: 1, Username: "agent", Role: constants.RoleAgent}
	cso        = Actor{UserID: 2, Username: "cso", Role: constants.RoleCSO}
	accountant = Actor{UserID: 3, Username: "accountant", Role: constants.RoleAccountant}
	ceo        = Actor{UserID: 4, Username: "ceo", Role: constants.RoleCEO}
)

func seedUnitWithPlan(t *testing.T, db *gorm.DB, status unitModel.UnitStatus) (unitModel.Unit, planModel.PaymentPlan) {
	t.Helper()
	building := unitModel.Building{Name: "Tower " + t.Name(), CreatedBy: "test"}
	require.NoError(t, db.Create(&building).Error)

	u := unitModel.Unit{
		BuildingID: building.ID, UnitNumber: "101", Price: 350000,
		Status: status, StatusChangedAt: time.Now(), CreatedBy: "test",
	}
	require.NoError(t, db.Create(&u).Error)

	plan := planModel.PaymentPlan{
		UnitID: u.ID, Name: "Standard", DldFeePct: 4, AdminFee: 4000, EOIAmount: 100000,
		BookingPct: 20, ConstructionPct: 50, HandoverPct: 30,
		ConstructionMonths: 12, HandoverMonths: 24, CreatedBy: "test",
	}
	require.NoError(t, db.Create(&plan).Error)
	return u, plan
}

func createBooking(t *testing.T, o *Orchestrator, db *gorm.DB, status unitModel.UnitStatus) (*bookingModel.Booking, unitModel.Unit) {
	t.Helper()
	u, plan := seedUnitWithPlan(t, db, status)
	b, err := o.BookUnit(agent, BookUnitInput{
		UnitID:        u.ID,
		PaymentPlanID: plan.ID,
		CustomerName:  "Ali Hassan",
		CustomerEmail: "ali@example.com",
		CustomerPhone: "+971501234567",
	})
	require.NoError(t, err)
	return b, u
}

func approveBooking(t *testing.T, o *Orchestrator, bookingID uint) {
	t.Helper()
	_, reached, err := o.ApproveBooking(cso, bookingID)
	require.NoError(t, err)
	require.False(t, reached)
	_, reached, err = o.ApproveBooking(accountant, bookingID)
	require.NoError(t, err)
	require.True(t, reached)
}

func unitStatus(t *testing.T, db *gorm.DB, id uint) unitModel.UnitStatus {
	t.Helper()
	var u unitModel.Unit
	require.NoError(t, db.First(&u, id).Error)
	return u.Status
}

func bookingStatus(t *testing.T, db *gorm.DB, id uint) bookingModel.BookingStatus {
	t.Helper()
	var b bookingModel.Booking
	require.NoError(t, db.First(&b, id).Error)
	return b.Status
}

func TestBookUnit(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, u := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	require.Equal(t, bookingModel.BookingStatusPreBooked, b.Status)
	require.NotEmpty(t, b.Reference)
	require.Equal(t, unitModel.UnitStatusPreBooked, unitStatus(t, db, u.ID))

	// Installments snapshotted onto the booking, deposit preserved negative:
	// 70000 + 14000 + 4000 - 100000 = -12000.
	var installments []planModel.Installment
	require.NoError(t, db.Where("booking_id = ?", b.ID).Order("due_date ASC").Find(&installments).Error)
	require.Len(t, installments, 3)
	require.Equal(t, -12000.0, installments[0].Amount)

	var events int64
	require.NoError(t, db.Model(&bookingModel.BookingStatusEvent{}).Where("booking_id = ?", b.ID).Count(&events).Error)
	require.EqualValues(t, 1, events)
}

func TestBookUnitRejectsOccupiedUnit(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, _ := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	var plan planModel.PaymentPlan
	require.NoError(t, db.First(&plan, b.PaymentPlanID).Error)

	_, err := o.BookUnit(agent, BookUnitInput{
		UnitID: b.UnitID, PaymentPlanID: plan.ID,
		CustomerName: "Second Buyer", CustomerEmail: "x@example.com", CustomerPhone: "+971500000000",
	})
	require.Error(t, err)

	var notBookable *domainerr.NotBookableError
	require.True(t, errors.As(err, &notBookable))
}

func TestBookUnitRejectsForeignPlan(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	u, _ := seedUnitWithPlan(t, db, unitModel.UnitStatusAvailable)

	otherBuilding := unitModel.Building{Name: "Other " + t.Name(), CreatedBy: "test"}
	require.NoError(t, db.Create(&otherBuilding).Error)
	other := unitModel.Unit{
		BuildingID: otherBuilding.ID, UnitNumber: "901", Price: 900000,
		Status: unitModel.UnitStatusAvailable, StatusChangedAt: time.Now(), CreatedBy: "test",
	}
	require.NoError(t, db.Create(&other).Error)
	foreignPlan := planModel.PaymentPlan{
		UnitID: other.ID, Name: "Foreign", BookingPct: 20, ConstructionPct: 50, HandoverPct: 30,
		ConstructionMonths: 12, HandoverMonths: 24, CreatedBy: "test",
	}
	require.NoError(t, db.Create(&foreignPlan).Error)

	_, err := o.BookUnit(agent, BookUnitInput{
		UnitID: u.ID, PaymentPlanID: foreignPlan.ID,
		CustomerName: "Buyer", CustomerEmail: "b@example.com", CustomerPhone: "+971500000001",
	})
	require.Error(t, err)

	var notBookable *domainerr.NotBookableError
	require.True(t, errors.As(err, &notBookable))
	require.Equal(t, unitModel.UnitStatusAvailable, unitStatus(t, db, u.ID))
}

func TestBookUnitEncryptsEmiratesID(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "unit-test-key-0123456789abcdef!!")
	o, db, _ := setupOrchestrator(t)
	u, plan := seedUnitWithPlan(t, db, unitModel.UnitStatusAvailable)

	emiratesID := "784-1990-1234567-1"
	b, err := o.BookUnit(agent, BookUnitInput{
		UnitID: u.ID, PaymentPlanID: plan.ID,
		CustomerName: "Buyer", CustomerEmail: "b@example.com", CustomerPhone: "+971500000002",
		EmiratesID: &emiratesID,
	})
	require.NoError(t, err)

	var customer bookingModel.CustomerInfo
	require.NoError(t, db.First(&customer, b.CustomerInfoID).Error)
	require.NotNil(t, customer.EmiratesIDEncrypted)
	require.NotEqual(t, emiratesID, *customer.EmiratesIDEncrypted)

	plaintext, err := utils.DecryptData(*customer.EmiratesIDEncrypted)
	require.NoError(t, err)
	require.Equal(t, emiratesID, plaintext)
}

func TestApproveBookingQuorum(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, u := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	_, reached, err := o.ApproveBooking(cso, b.ID)
	require.NoError(t, err)
	require.False(t, reached)
	require.Equal(t, bookingModel.BookingStatusPreBooked, bookingStatus(t, db, b.ID))

	// Same role again is rejected, even from a different user.
	otherCSO := Actor{UserID: 9, Username: "cso2", Role: constants.RoleCSO}
	_, _, err = o.ApproveBooking(otherCSO, b.ID)
	var dup *domainerr.DuplicateApprovalError
	require.True(t, errors.As(err, &dup))

	_, reached, err = o.ApproveBooking(accountant, b.ID)
	require.NoError(t, err)
	require.True(t, reached)
	require.Equal(t, bookingModel.BookingStatusRFPending, bookingStatus(t, db, b.ID))
	require.Equal(t, unitModel.UnitStatusBooked, unitStatus(t, db, u.ID))
}

func TestApproveBookingCEOOverride(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, u := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	_, reached, err := o.ApproveBooking(ceo, b.ID)
	require.NoError(t, err)
	require.True(t, reached)
	require.Equal(t, bookingModel.BookingStatusRFPending, bookingStatus(t, db, b.ID))
	require.Equal(t, unitModel.UnitStatusBooked, unitStatus(t, db, u.ID))
}

func TestApproveBookingRejectsAgent(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, _ := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	_, _, err := o.ApproveBooking(agent, b.ID)
	var notAuth *domainerr.RoleNotAuthorizedError
	require.True(t, errors.As(err, &notAuth))
}

func TestDocumentWorkflow(t *testing.T) {
	o, db, notifier := setupOrchestrator(t)
	b, u := createBooking(t, o, db, unitModel.UnitStatusAvailable)
	approveBooking(t, o, b.ID)

	// Generation is idempotent while the file is present.
	rf, err := o.GenerateReservationForm(agent, b.ID)
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusPending, rf.Status)
	require.True(t, o.Files.Exists(rf.FilePath))

	again, err := o.GenerateReservationForm(agent, b.ID)
	require.NoError(t, err)
	require.Equal(t, rf.ID, again.ID)

	rf, err = o.UploadSignedReservationForm(agent, b.ID, []byte("signed rf"), "rf.pdf")
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusSigned, rf.Status)
	require.NotNil(t, rf.SignedFilePath)

	// Replacing a signed copy needs the CEO.
	_, err = o.UploadSignedReservationForm(agent, b.ID, []byte("sneaky"), "rf2.pdf")
	var conflict *domainerr.ConflictError
	require.True(t, errors.As(err, &conflict))

	rf, err = o.UploadSignedReservationForm(ceo, b.ID, []byte("corrected rf"), "rf3.pdf")
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusSigned, rf.Status)

	rf, err = o.ApproveReservationForm(cso, b.ID)
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusApproved, rf.Status)
	require.Equal(t, bookingModel.BookingStatusSPAPending, bookingStatus(t, db, b.ID))

	// SPA leg mirrors the RF leg.
	spa, err := o.GenerateSpa(agent, b.ID)
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusPending, spa.Status)

	_, err = o.UploadSignedSpa(agent, b.ID, []byte("signed spa"), "spa.pdf")
	require.NoError(t, err)

	spa, err = o.ApproveSpa(accountant, b.ID)
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusApproved, spa.Status)
	require.Equal(t, bookingModel.BookingStatusCompleted, bookingStatus(t, db, b.ID))
	require.Equal(t, unitModel.UnitStatusCompleted, unitStatus(t, db, u.ID))

	// Customer gets the completion mail exactly once.
	require.Len(t, notifier.mails, 1)
	require.Equal(t, []string{"ali@example.com"}, notifier.mails[0].To)

	// DLD upload finalizes the sale.
	_, err = o.UploadDld(ceo, b.ID, []byte("dld proof"), "dld.pdf")
	require.NoError(t, err)
	require.Equal(t, bookingModel.BookingStatusBooked, bookingStatus(t, db, b.ID))
	require.Equal(t, unitModel.UnitStatusSold, unitStatus(t, db, u.ID))

	_, err = o.UploadDld(ceo, b.ID, []byte("dld again"), "dld2.pdf")
	require.True(t, errors.As(err, &conflict))

	// The booking status alone would still allow generation here; the sold
	// unit must block it.
	_, err = o.GenerateReservationForm(agent, b.ID)
	require.True(t, errors.As(err, &conflict))
	_, err = o.GenerateSpa(agent, b.ID)
	require.True(t, errors.As(err, &conflict))
}

func TestGenerateReservationFormMissingFile(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, _ := createBooking(t, o, db, unitModel.UnitStatusAvailable)
	approveBooking(t, o, b.ID)

	rf, err := o.GenerateReservationForm(agent, b.ID)
	require.NoError(t, err)
	require.NoError(t, o.Files.Delete(rf.FilePath))

	_, err = o.GenerateReservationForm(agent, b.ID)
	require.Error(t, err)

	var missing *domainerr.DocumentMissingError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, rf.FilePath, missing.Path)
}

func TestApproveSpaRequiresSignedDocument(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, _ := createBooking(t, o, db, unitModel.UnitStatusAvailable)
	approveBooking(t, o, b.ID)

	rf, err := o.GenerateReservationForm(agent, b.ID)
	require.NoError(t, err)
	require.Equal(t, documentModel.DocumentStatusPending, rf.Status)

	// pending -> approved skips signed and must fail.
	_, err = o.ApproveReservationForm(cso, b.ID)
	var invalid *domainerr.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
}

func TestCancelBookingReleasesUnit(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, u := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	_, err := o.CancelBooking(ceo, b.ID)
	require.NoError(t, err)
	require.Equal(t, bookingModel.BookingStatusCancelled, bookingStatus(t, db, b.ID))
	require.Equal(t, unitModel.UnitStatusCancelled, unitStatus(t, db, u.ID))

	// A cancelled unit can be booked again.
	var plan planModel.PaymentPlan
	require.NoError(t, db.First(&plan, b.PaymentPlanID).Error)
	_, err = o.BookUnit(agent, BookUnitInput{
		UnitID: u.ID, PaymentPlanID: plan.ID,
		CustomerName: "Next Buyer", CustomerEmail: "next@example.com", CustomerPhone: "+971500000003",
	})
	require.NoError(t, err)
}

func TestHoldLifecycle(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	u, _ := seedUnitWithPlan(t, db, unitModel.UnitStatusAvailable)

	h, err := o.Hold(agent, u.ID, nil)
	require.NoError(t, err)
	require.Equal(t, holdingModel.HoldingStatusPreHold, h.Status)
	require.Equal(t, unitModel.UnitStatusPreHold, unitStatus(t, db, u.ID))

	// Only one open holding per unit.
	_, err = o.Hold(agent, u.ID, nil)
	var conflict *domainerr.ConflictError
	require.True(t, errors.As(err, &conflict))

	h, err = o.RespondHold(cso, h.ID, false)
	require.NoError(t, err)
	require.Equal(t, holdingModel.HoldingStatusRejected, h.Status)
	require.Equal(t, unitModel.UnitStatusAvailable, unitStatus(t, db, u.ID))

	h, err = o.Hold(agent, u.ID, nil)
	require.NoError(t, err)
	h, err = o.RespondHold(cso, h.ID, true)
	require.NoError(t, err)
	require.Equal(t, holdingModel.HoldingStatusHold, h.Status)
	require.Equal(t, unitModel.UnitStatusHold, unitStatus(t, db, u.ID))

	h, err = o.ReleaseHold(cso, h.ID)
	require.NoError(t, err)
	require.Equal(t, holdingModel.HoldingStatusProcessed, h.Status)
	require.Equal(t, unitModel.UnitStatusAvailable, unitStatus(t, db, u.ID))
}

func TestExpireHoldings(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	u, _ := seedUnitWithPlan(t, db, unitModel.UnitStatusAvailable)

	h, err := o.Hold(agent, u.ID, nil)
	require.NoError(t, err)
	h, err = o.RespondHold(cso, h.ID, true)
	require.NoError(t, err)

	// Not yet expired.
	expired, err := o.ExpireHoldings(time.Now())
	require.NoError(t, err)
	require.Zero(t, expired)

	// Age the hold past the 24h window.
	require.NoError(t, db.Model(&holdingModel.Holding{}).Where("id = ?", h.ID).
		Update("status_changed_at", time.Now().Add(-25*time.Hour)).Error)

	expired, err = o.ExpireHoldings(time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	var swept holdingModel.Holding
	require.NoError(t, db.First(&swept, h.ID).Error)
	require.Equal(t, holdingModel.HoldingStatusCancelled, swept.Status)
	require.Equal(t, unitModel.UnitStatusAvailable, unitStatus(t, db, u.ID))

	// The sweep is idempotent.
	expired, err = o.ExpireHoldings(time.Now())
	require.NoError(t, err)
	require.Zero(t, expired)
}

func TestExpireBookings(t *testing.T) {
	o, db, _ := setupOrchestrator(t)
	b, u := createBooking(t, o, db, unitModel.UnitStatusAvailable)

	require.NoError(t, db.Model(&bookingModel.Booking{}).Where("id = ?", b.ID).
		Update("status_changed_at", time.Now().Add(-15*24*time.Hour)).Error)

	expired, err := o.ExpireBookings(time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, expired)
	require.Equal(t, bookingModel.BookingStatusCancelled, bookingStatus(t, db, b.ID))
	require.Equal(t, unitModel.UnitStatusCancelled, unitStatus(t, db, u.ID))

	// Approved bookings are never swept.
	b2, _ := createBooking(t, o, db, unitModel.UnitStatusCancelled)
	approveBooking(t, o, b2.ID)
	require.NoError(t, db.Model(&bookingModel.Booking{}).Where("id = ?", b2.ID).
		Update("status_changed_at", time.Now().Add(-15*24*time.Hour)).Error)

	expired, err = o.ExpireBookings(time.Now())
	require.NoError(t, err)
	require.Zero(t, expired)
}
