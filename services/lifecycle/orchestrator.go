package lifecycle

import (
	"fmt"
	"time"

	"property-sales/constants"
	"property-sales/domainerr"
	"property-sales/logger"
	approvalModel "property-sales/models/approval"
	bookingModel "property-sales/models/booking"
	documentModel "property-sales/models/document"
	holdingModel "property-sales/models/holding"
	planModel "property-sales/models/paymentplan"
	unitModel "property-sales/models/unit"
	approvalService "property-sales/services/approval"
	planService "property-sales/services/paymentplan"
	"property-sales/services/notify"
	"property-sales/services/render"
	"property-sales/services/storage"
	"property-sales/status"
	"property-sales/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// holdExpiry is how long a confirmed hold occupies its unit before the sweep
// releases it.
const holdExpiry = 24 * time.Hour

// bookingExpiry is how long an unapproved pre-booking survives before the
// sweep cancels it.
const bookingExpiry = 14 * 24 * time.Hour

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID   uint
	Username string
	Role     string
}

// Orchestrator owns every unit/booking/holding/document status flip. Each
// operation runs in a single transaction with the affected unit row locked
// FOR UPDATE, so two concurrent requests against the same unit serialize and
// the loser observes the winner's status.
type Orchestrator struct {
	DB        *gorm.DB
	Files     storage.FileStore
	Renderer  render.Renderer
	Notifier  notify.Notifier
	Approvals *approvalService.Engine
	Plans     *planService.Calculator
}

// NewOrchestrator creates a new lifecycle orchestrator
func NewOrchestrator(db *gorm.DB, files storage.FileStore, renderer render.Renderer, notifier notify.Notifier) *Orchestrator {
	return &Orchestrator{
		DB:        db,
		Files:     files,
		Renderer:  renderer,
		Notifier:  notifier,
		Approvals: approvalService.NewEngine(),
		Plans:     planService.NewCalculator(db),
	}
}

// lockForUpdate adds SELECT ... FOR UPDATE on engines that support row
// locks. SQLite serializes writes on the whole file, so the clause is skipped
// there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockUnit loads a unit FOR UPDATE inside tx.
func (o *Orchestrator) lockUnit(tx *gorm.DB, unitID uint) (*unitModel.Unit, error) {
	var u unitModel.Unit
	err := lockForUpdate(tx).First(&u, unitID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &domainerr.NotFoundError{Entity: "unit"}
		}
		return nil, err
	}
	return &u, nil
}

// lockBooking loads a booking FOR UPDATE inside tx.
func (o *Orchestrator) lockBooking(tx *gorm.DB, bookingID uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := lockForUpdate(tx).First(&b, bookingID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &domainerr.NotFoundError{Entity: "booking"}
		}
		return nil, err
	}
	return &b, nil
}

// setUnitStatus validates and applies a unit transition, stamping
// StatusChangedAt.
func (o *Orchestrator) setUnitStatus(tx *gorm.DB, u *unitModel.Unit, target unitModel.UnitStatus, actor Actor) error {
	if err := status.Ensure(status.EntityUnit, u.Status.String(), target.String()); err != nil {
		return err
	}
	now := time.Now()
	u.Status = target
	u.StatusChangedAt = now
	u.UpdatedBy = actor.Username
	return tx.Model(u).Updates(map[string]interface{}{
		"status":            target,
		"status_changed_at": now,
		"updated_by":        actor.Username,
	}).Error
}

// setBookingStatus validates and applies a booking transition and appends the
// audit event in the same transaction.
func (o *Orchestrator) setBookingStatus(tx *gorm.DB, b *bookingModel.Booking, target bookingModel.BookingStatus, actor Actor) error {
	if err := status.Ensure(status.EntityBooking, b.Status.String(), target.String()); err != nil {
		return err
	}
	from := b.Status
	now := time.Now()
	b.Status = target
	b.StatusChangedAt = now
	b.UpdatedBy = actor.Username
	if err := tx.Model(b).Updates(map[string]interface{}{
		"status":            target,
		"status_changed_at": now,
		"updated_by":        actor.Username,
	}).Error; err != nil {
		return err
	}
	event := bookingModel.BookingStatusEvent{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   target,
		CreatedBy:  actor.Username,
	}
	return tx.Create(&event).Error
}

// ApproveUnit releases a pending unit for sale (or rejects it back to
// cancelled). Any management role decides alone.
func (o *Orchestrator) ApproveUnit(actor Actor, unitID uint, approve bool) (*unitModel.Unit, error) {
	var u *unitModel.Unit
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = o.lockUnit(tx, unitID)
		if err != nil {
			return err
		}

		if _, err := o.Approvals.RecordResponse(tx, approvalModel.RefTypeUnit, unitID, actor.Role, actor.UserID, approve); err != nil {
			return err
		}

		target := unitModel.UnitStatusAvailable
		if !approve {
			target = unitModel.UnitStatusCancelled
		}
		return o.setUnitStatus(tx, u, target, actor)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// BookUnitInput is everything a booking registration needs.
type BookUnitInput struct {
	UnitID        uint
	PaymentPlanID uint

	CustomerName        string
	CustomerEmail       string
	CustomerPhone       string
	CustomerNationality *string
	EmiratesID          *string

	ReceiptData []byte
	ReceiptName string
}

// BookUnit registers a booking against a bookable unit. The unit row lock
// serializes concurrent attempts; whoever commits second finds the unit
// already pre_booked and fails the bookable check.
func (o *Orchestrator) BookUnit(actor Actor, input BookUnitInput) (*bookingModel.Booking, error) {
	var result *bookingModel.Booking
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		u, err := o.lockUnit(tx, input.UnitID)
		if err != nil {
			return err
		}
		if !u.Status.IsBookable() {
			return &domainerr.NotBookableError{UnitID: u.ID, Reason: "unit is " + u.Status.String()}
		}

		var plan planModel.PaymentPlan
		if err := tx.Preload("Blocks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).First(&plan, input.PaymentPlanID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "payment plan"}
			}
			return err
		}
		if plan.UnitID != u.ID {
			return &domainerr.NotBookableError{UnitID: u.ID, Reason: "payment plan belongs to another unit"}
		}

		// One non-cancelled booking per unit.
		var active int64
		if err := tx.Model(&bookingModel.Booking{}).
			Where("unit_id = ? AND status <> ?", u.ID, bookingModel.BookingStatusCancelled).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return &domainerr.NotBookableError{UnitID: u.ID, Reason: "unit already has an active booking"}
		}

		customer := bookingModel.CustomerInfo{
			Name:        input.CustomerName,
			Email:       input.CustomerEmail,
			Phone:       input.CustomerPhone,
			Nationality: input.CustomerNationality,
		}
		if input.EmiratesID != nil && *input.EmiratesID != "" {
			encrypted, err := utils.EncryptData(*input.EmiratesID)
			if err != nil {
				return fmt.Errorf("encrypt emirates id: %w", err)
			}
			customer.EmiratesIDEncrypted = &encrypted
		}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}

		now := time.Now()
		booking := bookingModel.Booking{
			Reference:       "BK-" + uuid.New().String(),
			UnitID:          u.ID,
			CustomerInfoID:  customer.ID,
			PaymentPlanID:   plan.ID,
			BookedByID:      actor.UserID,
			Status:          bookingModel.BookingStatusPreBooked,
			StatusChangedAt: now,
			BookingDate:     now,
			CreatedBy:       actor.Username,
		}

		if len(input.ReceiptData) > 0 {
			path := fmt.Sprintf("receipts/%s/%s", booking.Reference, input.ReceiptName)
			stored, err := o.Files.Store(input.ReceiptData, path)
			if err != nil {
				return &domainerr.ExternalServiceError{Service: "file store", Err: err}
			}
			booking.ReceiptPath = &stored
		}

		if err := tx.Create(&booking).Error; err != nil {
			return err
		}

		if _, err := o.Plans.SnapshotForBooking(tx, &plan, booking.ID, u.Price, now); err != nil {
			return err
		}

		if err := o.setUnitStatus(tx, u, unitModel.UnitStatusPreBooked, actor); err != nil {
			return err
		}

		// Creation event so the trail starts at pre_booked.
		event := bookingModel.BookingStatusEvent{
			BookingID:  booking.ID,
			FromStatus: bookingModel.BookingStatusPreBooked,
			ToStatus:   bookingModel.BookingStatusPreBooked,
			CreatedBy:  actor.Username,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		booking.Unit = *u
		booking.CustomerInfo = customer
		result = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveBooking records one approval vote for a pre-booked booking. When the
// quorum (CSO + Accountant, or a single CEO/maintenance override) is reached,
// the booking moves to rf_pending and its unit to booked in the same
// transaction.
func (o *Orchestrator) ApproveBooking(actor Actor, bookingID uint) (*bookingModel.Booking, bool, error) {
	var b *bookingModel.Booking
	var reached bool
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = o.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != bookingModel.BookingStatusPreBooked {
			return &domainerr.InvalidTransitionError{
				Entity: "booking",
				From:   b.Status.String(),
				To:     bookingModel.BookingStatusRFPending.String(),
			}
		}

		_, reached, err = o.Approvals.RecordBookingApproval(tx, approvalModel.RefTypeBooking, b.ID, actor.Role, actor.UserID)
		if err != nil {
			return err
		}
		if !reached {
			return nil
		}

		u, err := o.lockUnit(tx, b.UnitID)
		if err != nil {
			return err
		}
		if err := o.setBookingStatus(tx, b, bookingModel.BookingStatusRFPending, actor); err != nil {
			return err
		}
		return o.setUnitStatus(tx, u, unitModel.UnitStatusBooked, actor)
	})
	if err != nil {
		return nil, false, err
	}
	return b, reached, nil
}

// CancelBooking cancels an active booking and returns the unit to the
// cancelled pool so it can be re-booked or re-held.
func (o *Orchestrator) CancelBooking(actor Actor, bookingID uint) (*bookingModel.Booking, error) {
	var b *bookingModel.Booking
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		b, err = o.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		u, err := o.lockUnit(tx, b.UnitID)
		if err != nil {
			return err
		}
		if err := o.setBookingStatus(tx, b, bookingModel.BookingStatusCancelled, actor); err != nil {
			return err
		}
		return o.setUnitStatus(tx, u, unitModel.UnitStatusCancelled, actor)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateReservationForm renders and stores the RF for a booking. The
// operation is idempotent: an existing record whose file is still in storage
// is returned as-is; a record whose file has gone missing is a hard error, not
// a silent regeneration.
func (o *Orchestrator) GenerateReservationForm(actor Actor, bookingID uint) (*documentModel.ReservationForm, error) {
	var rf *documentModel.ReservationForm
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		b, err := o.loadBookingForDocuments(tx, bookingID)
		if err != nil {
			return err
		}

		var existing documentModel.ReservationForm
		err = tx.Where("booking_id = ?", b.ID).First(&existing).Error
		if err == nil {
			if !o.Files.Exists(existing.FilePath) {
				return &domainerr.DocumentMissingError{Document: documentModel.TypeReservationForm, Path: existing.FilePath}
			}
			rf = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		data, err := o.renderBookingDocument(documentModel.TypeReservationForm, b)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("reservation_forms/%s/reservation_form.html", b.Reference)
		stored, err := o.Files.Store(data, path)
		if err != nil {
			return &domainerr.ExternalServiceError{Service: "file store", Err: err}
		}

		rf = &documentModel.ReservationForm{
			BookingID:       b.ID,
			Status:          documentModel.DocumentStatusPending,
			StatusChangedAt: time.Now(),
			FilePath:        stored,
			CreatedBy:       actor.Username,
		}
		return tx.Create(rf).Error
	})
	if err != nil {
		return nil, err
	}
	return rf, nil
}

// UploadSignedReservationForm attaches the customer-signed copy. A pending RF
// moves to signed; replacing the copy after signing requires the CEO.
func (o *Orchestrator) UploadSignedReservationForm(actor Actor, bookingID uint, fileData []byte, fileName string) (*documentModel.ReservationForm, error) {
	var rf documentModel.ReservationForm
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", bookingID).First(&rf).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "reservation form"}
			}
			return err
		}

		replacing := rf.Status != documentModel.DocumentStatusPending
		if replacing && actor.Role != constants.RoleCEO {
			return &domainerr.ConflictError{Reason: "reservation form is already " + rf.Status.String()}
		}

		path := fmt.Sprintf("reservation_forms/booking_%d/signed_%s", bookingID, fileName)
		stored, err := o.Files.Store(fileData, path)
		if err != nil {
			return &domainerr.ExternalServiceError{Service: "file store", Err: err}
		}

		updates := map[string]interface{}{
			"signed_file_path": stored,
			"updated_by":       actor.Username,
		}
		if !replacing {
			if err := status.Ensure(status.EntityReservationForm, rf.Status.String(), documentModel.DocumentStatusSigned.String()); err != nil {
				return err
			}
			updates["status"] = documentModel.DocumentStatusSigned
			updates["status_changed_at"] = time.Now()
			rf.Status = documentModel.DocumentStatusSigned
		}
		rf.SignedFilePath = &stored
		return tx.Model(&rf).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

// ApproveReservationForm moves a signed RF to approved and advances the
// booking to spa_pending.
func (o *Orchestrator) ApproveReservationForm(actor Actor, bookingID uint) (*documentModel.ReservationForm, error) {
	var rf documentModel.ReservationForm
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		b, err := o.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", bookingID).First(&rf).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "reservation form"}
			}
			return err
		}
		if err := status.Ensure(status.EntityReservationForm, rf.Status.String(), documentModel.DocumentStatusApproved.String()); err != nil {
			return err
		}
		rf.Status = documentModel.DocumentStatusApproved
		if err := tx.Model(&rf).Updates(map[string]interface{}{
			"status":            documentModel.DocumentStatusApproved,
			"status_changed_at": time.Now(),
			"updated_by":        actor.Username,
		}).Error; err != nil {
			return err
		}
		return o.setBookingStatus(tx, b, bookingModel.BookingStatusSPAPending, actor)
	})
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

// GenerateSpa renders and stores the SPA, mirroring the RF generation rules.
func (o *Orchestrator) GenerateSpa(actor Actor, bookingID uint) (*documentModel.Spa, error) {
	var spa *documentModel.Spa
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		b, err := o.loadBookingForDocuments(tx, bookingID)
		if err != nil {
			return err
		}

		var existing documentModel.Spa
		err = tx.Where("booking_id = ?", b.ID).First(&existing).Error
		if err == nil {
			if !o.Files.Exists(existing.FilePath) {
				return &domainerr.DocumentMissingError{Document: documentModel.TypeSPA, Path: existing.FilePath}
			}
			spa = &existing
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		data, err := o.renderBookingDocument(documentModel.TypeSPA, b)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("spas/%s/spa.html", b.Reference)
		stored, err := o.Files.Store(data, path)
		if err != nil {
			return &domainerr.ExternalServiceError{Service: "file store", Err: err}
		}

		spa = &documentModel.Spa{
			BookingID:       b.ID,
			Status:          documentModel.DocumentStatusPending,
			StatusChangedAt: time.Now(),
			FilePath:        stored,
			CreatedBy:       actor.Username,
		}
		return tx.Create(spa).Error
	})
	if err != nil {
		return nil, err
	}
	return spa, nil
}

// UploadSignedSpa attaches the signed SPA copy, same rules as the RF.
func (o *Orchestrator) UploadSignedSpa(actor Actor, bookingID uint, fileData []byte, fileName string) (*documentModel.Spa, error) {
	var spa documentModel.Spa
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", bookingID).First(&spa).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "spa"}
			}
			return err
		}

		replacing := spa.Status != documentModel.DocumentStatusPending
		if replacing && actor.Role != constants.RoleCEO {
			return &domainerr.ConflictError{Reason: "spa is already " + spa.Status.String()}
		}

		path := fmt.Sprintf("spas/booking_%d/signed_%s", bookingID, fileName)
		stored, err := o.Files.Store(fileData, path)
		if err != nil {
			return &domainerr.ExternalServiceError{Service: "file store", Err: err}
		}

		updates := map[string]interface{}{
			"signed_file_path": stored,
			"updated_by":       actor.Username,
		}
		if !replacing {
			if err := status.Ensure(status.EntitySPA, spa.Status.String(), documentModel.DocumentStatusSigned.String()); err != nil {
				return err
			}
			updates["status"] = documentModel.DocumentStatusSigned
			updates["status_changed_at"] = time.Now()
			spa.Status = documentModel.DocumentStatusSigned
		}
		spa.SignedFilePath = &stored
		return tx.Model(&spa).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &spa, nil
}

// ApproveSpa finalizes the signed SPA: the document moves to approved, the
// booking to completed and the unit to completed in one transaction. The
// customer confirmation mail goes out only after the commit.
func (o *Orchestrator) ApproveSpa(actor Actor, bookingID uint) (*documentModel.Spa, error) {
	var spa documentModel.Spa
	var customer bookingModel.CustomerInfo
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		b, err := o.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		u, err := o.lockUnit(tx, b.UnitID)
		if err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", bookingID).First(&spa).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "spa"}
			}
			return err
		}
		if err := status.Ensure(status.EntitySPA, spa.Status.String(), documentModel.DocumentStatusApproved.String()); err != nil {
			return err
		}

		spa.Status = documentModel.DocumentStatusApproved
		if err := tx.Model(&spa).Updates(map[string]interface{}{
			"status":            documentModel.DocumentStatusApproved,
			"status_changed_at": time.Now(),
			"updated_by":        actor.Username,
		}).Error; err != nil {
			return err
		}
		if err := o.setBookingStatus(tx, b, bookingModel.BookingStatusCompleted, actor); err != nil {
			return err
		}
		if err := o.setUnitStatus(tx, u, unitModel.UnitStatusCompleted, actor); err != nil {
			return err
		}

		return tx.First(&customer, b.CustomerInfoID).Error
	})
	if err != nil {
		return nil, err
	}

	if customer.Email != "" {
		o.Notifier.SendMail(
			[]string{customer.Email},
			"Your purchase agreement is complete",
			notify.EmailTemplate("Agreement Completed",
				fmt.Sprintf("<p>Dear %s,</p><p>Your Sale &amp; Purchase Agreement has been approved. Our team will contact you regarding the registration of your unit.</p>", customer.Name)),
		)
	}
	return &spa, nil
}

// UploadDld stores the Dubai Land Department registration proof. It requires
// a completed booking on a completed unit, moves the booking to booked and the
// unit to sold, and rejects a second upload.
func (o *Orchestrator) UploadDld(actor Actor, bookingID uint, fileData []byte, fileName string) (*documentModel.DldDocument, error) {
	var dld *documentModel.DldDocument
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		b, err := o.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}
		u, err := o.lockUnit(tx, b.UnitID)
		if err != nil {
			return err
		}
		if b.Status != bookingModel.BookingStatusCompleted {
			return &domainerr.InvalidTransitionError{
				Entity: "booking",
				From:   b.Status.String(),
				To:     bookingModel.BookingStatusBooked.String(),
			}
		}

		var existing int64
		if err := tx.Model(&documentModel.DldDocument{}).
			Where("booking_id = ?", b.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &domainerr.ConflictError{Reason: "dld document already uploaded"}
		}

		path := fmt.Sprintf("dld/booking_%d/%s", b.ID, fileName)
		stored, err := o.Files.Store(fileData, path)
		if err != nil {
			return &domainerr.ExternalServiceError{Service: "file store", Err: err}
		}

		dld = &documentModel.DldDocument{
			BookingID: b.ID,
			FilePath:  stored,
			CreatedBy: actor.Username,
		}
		if err := tx.Create(dld).Error; err != nil {
			return err
		}

		if err := o.setBookingStatus(tx, b, bookingModel.BookingStatusBooked, actor); err != nil {
			return err
		}
		return o.setUnitStatus(tx, u, unitModel.UnitStatusSold, actor)
	})
	if err != nil {
		return nil, err
	}
	return dld, nil
}

// Hold places a temporary reservation on a bookable unit, pending a single
// management approval.
func (o *Orchestrator) Hold(actor Actor, unitID uint, notes *string) (*holdingModel.Holding, error) {
	var h *holdingModel.Holding
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		u, err := o.lockUnit(tx, unitID)
		if err != nil {
			return err
		}
		if !u.Status.IsBookable() {
			return &domainerr.NotBookableError{UnitID: u.ID, Reason: "unit is " + u.Status.String()}
		}

		var open int64
		if err := tx.Model(&holdingModel.Holding{}).
			Where("unit_id = ? AND status IN ?", u.ID,
				[]holdingModel.HoldingStatus{holdingModel.HoldingStatusPreHold, holdingModel.HoldingStatusHold}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return &domainerr.ConflictError{Reason: "unit already has an open holding"}
		}

		h = &holdingModel.Holding{
			UnitID:          u.ID,
			RequestedByID:   actor.UserID,
			Notes:           notes,
			Status:          holdingModel.HoldingStatusPreHold,
			StatusChangedAt: time.Now(),
		}
		if err := tx.Create(h).Error; err != nil {
			return err
		}
		return o.setUnitStatus(tx, u, unitModel.UnitStatusPreHold, actor)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// RespondHold records the single approval decision on a pre-hold. Approval
// confirms the hold and restarts its 24h clock; rejection releases the unit
// back to available.
func (o *Orchestrator) RespondHold(actor Actor, holdingID uint, approve bool) (*holdingModel.Holding, error) {
	var h holdingModel.Holding
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&h, holdingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "holding"}
			}
			return err
		}
		u, err := o.lockUnit(tx, h.UnitID)
		if err != nil {
			return err
		}

		if _, err := o.Approvals.RecordResponse(tx, approvalModel.RefTypeHolding, h.ID, actor.Role, actor.UserID, approve); err != nil {
			return err
		}

		target := holdingModel.HoldingStatusHold
		unitTarget := unitModel.UnitStatusHold
		if !approve {
			target = holdingModel.HoldingStatusRejected
			unitTarget = unitModel.UnitStatusAvailable
		}

		if err := status.Ensure(status.EntityHolding, h.Status.String(), target.String()); err != nil {
			return err
		}
		h.Status = target
		h.StatusChangedAt = time.Now()
		if err := tx.Model(&h).Updates(map[string]interface{}{
			"status":            target,
			"status_changed_at": h.StatusChangedAt,
		}).Error; err != nil {
			return err
		}
		return o.setUnitStatus(tx, u, unitTarget, actor)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ReleaseHold closes a confirmed hold as processed and frees the unit, e.g.
// when the interested party proceeds to a booking or walks away before expiry.
func (o *Orchestrator) ReleaseHold(actor Actor, holdingID uint) (*holdingModel.Holding, error) {
	var h holdingModel.Holding
	err := o.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&h, holdingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return &domainerr.NotFoundError{Entity: "holding"}
			}
			return err
		}
		u, err := o.lockUnit(tx, h.UnitID)
		if err != nil {
			return err
		}
		if err := status.Ensure(status.EntityHolding, h.Status.String(), holdingModel.HoldingStatusProcessed.String()); err != nil {
			return err
		}
		h.Status = holdingModel.HoldingStatusProcessed
		h.StatusChangedAt = time.Now()
		if err := tx.Model(&h).Updates(map[string]interface{}{
			"status":            h.Status,
			"status_changed_at": h.StatusChangedAt,
		}).Error; err != nil {
			return err
		}
		return o.setUnitStatus(tx, u, unitModel.UnitStatusAvailable, actor)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ExpireHoldings releases every hold older than 24 hours. Each holding runs
// in its own transaction so one failure never blocks the rest of the sweep,
// and the status flip inside the transaction keeps a retried sweep from
// double-processing.
func (o *Orchestrator) ExpireHoldings(nowAt time.Time) (int, error) {
	cutoff := nowAt.Add(-holdExpiry)

	var ids []uint
	if err := o.DB.Model(&holdingModel.Holding{}).
		Where("status = ? AND status_changed_at < ?", holdingModel.HoldingStatusHold, cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	sweeper := Actor{Username: "system:hold-sweep"}
	expired := 0
	for _, id := range ids {
		err := o.DB.Transaction(func(tx *gorm.DB) error {
			var h holdingModel.Holding
			if err := lockForUpdate(tx).First(&h, id).Error; err != nil {
				return err
			}
			// Re-check under lock; the holding may have been processed since.
			if h.Status != holdingModel.HoldingStatusHold || h.StatusChangedAt.After(cutoff) {
				return nil
			}
			u, err := o.lockUnit(tx, h.UnitID)
			if err != nil {
				return err
			}
			h.Status = holdingModel.HoldingStatusCancelled
			h.StatusChangedAt = time.Now()
			if err := tx.Model(&h).Updates(map[string]interface{}{
				"status":            h.Status,
				"status_changed_at": h.StatusChangedAt,
			}).Error; err != nil {
				return err
			}
			if err := o.setUnitStatus(tx, u, unitModel.UnitStatusAvailable, sweeper); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			logger.Error(fmt.Sprintf("Hold sweep failed for holding %d", id), err)
		}
	}
	return expired, nil
}

// ExpireBookings cancels pre-bookings that never reached approval within 14
// days, releasing their units. Same per-entity isolation as the hold sweep.
func (o *Orchestrator) ExpireBookings(nowAt time.Time) (int, error) {
	cutoff := nowAt.Add(-bookingExpiry)

	var ids []uint
	if err := o.DB.Model(&bookingModel.Booking{}).
		Where("status = ? AND status_changed_at < ?", bookingModel.BookingStatusPreBooked, cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	sweeper := Actor{Username: "system:booking-sweep"}
	expired := 0
	for _, id := range ids {
		err := o.DB.Transaction(func(tx *gorm.DB) error {
			b, err := o.lockBooking(tx, id)
			if err != nil {
				return err
			}
			if b.Status != bookingModel.BookingStatusPreBooked || b.StatusChangedAt.After(cutoff) {
				return nil
			}
			u, err := o.lockUnit(tx, b.UnitID)
			if err != nil {
				return err
			}
			if err := o.setBookingStatus(tx, b, bookingModel.BookingStatusCancelled, sweeper); err != nil {
				return err
			}
			if err := o.setUnitStatus(tx, u, unitModel.UnitStatusCancelled, sweeper); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			logger.Error(fmt.Sprintf("Booking sweep failed for booking %d", id), err)
		}
	}
	return expired, nil
}

// loadBookingForDocuments loads a booking with its relations and checks it is
// in a document-generating state on a booked unit.
func (o *Orchestrator) loadBookingForDocuments(tx *gorm.DB, bookingID uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := tx.Preload("Unit").Preload("Unit.Building").Preload("CustomerInfo").
		First(&b, bookingID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &domainerr.NotFoundError{Entity: "booking"}
		}
		return nil, err
	}
	if !b.Status.CanGenerateDocuments() {
		return nil, &domainerr.ConflictError{Reason: "booking is " + b.Status.String()}
	}
	if b.Unit.Status != unitModel.UnitStatusBooked {
		return nil, &domainerr.ConflictError{Reason: "unit is " + b.Unit.Status.String()}
	}
	return &b, nil
}

// renderBookingDocument fills the document template from the booking graph.
func (o *Orchestrator) renderBookingDocument(templateID string, b *bookingModel.Booking) ([]byte, error) {
	data := map[string]interface{}{
		"reference":      b.Reference,
		"unit_number":    b.Unit.UnitNumber,
		"building":       b.Unit.Building.Name,
		"customer_name":  b.CustomerInfo.Name,
		"customer_email": b.CustomerInfo.Email,
		"price":          fmt.Sprintf("%.2f", b.Unit.Price),
		"date":           time.Now().Format("2006-01-02"),
	}
	out, err := o.Renderer.Render(templateID, data)
	if err != nil {
		return nil, &domainerr.ExternalServiceError{Service: "renderer", Err: err}
	}
	return out, nil
}
