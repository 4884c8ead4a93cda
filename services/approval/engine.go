package approval

import (
	"property-sales/constants"
	"property-sales/domainerr"
	approvalModel "property-sales/models/approval"

	"gorm.io/gorm"
)

// Engine records approval audit rows and computes quorum. It never mutates
// unit/booking/document status itself; quorum is signalled back to the
// caller, which performs the flip inside the same transaction.
type Engine struct{}

// NewEngine creates a new approval engine
func NewEngine() *Engine {
	return &Engine{}
}

// bookingQuorumRoles is the two-distinct-role quorum for booking approval.
var bookingQuorumRoles = map[string]bool{
	constants.RoleCSO:        true,
	constants.RoleAccountant: true,
}

// overrideRoles satisfy booking quorum with a single approval, bypassing the
// two-party path entirely.
var overrideRoles = map[string]bool{
	constants.RoleCEO:         true,
	constants.RoleMaintenance: true,
}

// RecordBookingApproval persists an approval for the two-party (CSO +
// Accountant) or single-override (CEO/maintenance) booking quorum. The row is
// inserted even when quorum is not yet reached, so the audit trail keeps the
// "first of two" approval. Returns whether quorum is now satisfied.
func (e *Engine) RecordBookingApproval(tx *gorm.DB, refType approvalModel.RefType, refID uint, role string, userID uint) (*approvalModel.Approval, bool, error) {
	if !overrideRoles[role] && !bookingQuorumRoles[role] {
		return nil, false, &domainerr.RoleNotAuthorizedError{Role: role}
	}

	if err := e.ensureNotDuplicate(tx, refType, refID, role); err != nil {
		return nil, false, err
	}

	row := approvalModel.Approval{
		RefType: refType,
		RefID:   refID,
		Role:    role,
		UserID:  userID,
		Status:  approvalModel.ApprovalStatusApproved,
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, false, err
	}

	if overrideRoles[role] {
		return &row, true, nil
	}

	reached, err := e.quorumReached(tx, refType, refID)
	if err != nil {
		return nil, false, err
	}
	return &row, reached, nil
}

// RecordResponse persists a single-approver decision (holding and unit
// approvals). Any approver role is accepted; quorum is immediate.
func (e *Engine) RecordResponse(tx *gorm.DB, refType approvalModel.RefType, refID uint, role string, userID uint, approve bool) (*approvalModel.Approval, error) {
	st := approvalModel.ApprovalStatusApproved
	if !approve {
		st = approvalModel.ApprovalStatusRejected
	}

	if approve {
		if err := e.ensureNotDuplicate(tx, refType, refID, role); err != nil {
			return nil, err
		}
	}

	row := approvalModel.Approval{
		RefType: refType,
		RefID:   refID,
		Role:    role,
		UserID:  userID,
		Status:  st,
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ensureNotDuplicate rejects a second approved row for the same
// (ref_type, ref_id, role).
func (e *Engine) ensureNotDuplicate(tx *gorm.DB, refType approvalModel.RefType, refID uint, role string) error {
	var count int64
	err := tx.Model(&approvalModel.Approval{}).
		Where("ref_type = ? AND ref_id = ? AND role = ? AND status = ?",
			refType, refID, role, approvalModel.ApprovalStatusApproved).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return &domainerr.DuplicateApprovalError{RefType: string(refType), RefID: refID, Role: role}
	}
	return nil
}

// quorumReached checks whether the distinct set of approved roles for the
// reference covers every role of the two-party quorum.
func (e *Engine) quorumReached(tx *gorm.DB, refType approvalModel.RefType, refID uint) (bool, error) {
	var roles []string
	err := tx.Model(&approvalModel.Approval{}).
		Where("ref_type = ? AND ref_id = ? AND status = ?",
			refType, refID, approvalModel.ApprovalStatusApproved).
		Distinct("role").
		Pluck("role", &roles).Error
	if err != nil {
		return false, err
	}

	have := make(map[string]bool, len(roles))
	for _, r := range roles {
		have[r] = true
	}
	for required := range bookingQuorumRoles {
		if !have[required] {
			return false, nil
		}
	}
	return true, nil
}
