package approval

import (
	"errors"
	"testing"

	"property-sales/constants"
	"property-sales/domainerr"
	approvalModel "property-sales/models/approval"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:approval_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&approvalModel.Approval{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestBookingQuorumRequiresBothRoles(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine()

	_, reached, err := engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 1, constants.RoleCSO, 10)
	require.NoError(t, err)
	require.False(t, reached, "single CSO approval must not satisfy quorum")

	_, reached, err = engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 1, constants.RoleAccountant, 11)
	require.NoError(t, err)
	require.True(t, reached, "CSO + Accountant must satisfy quorum")
}

func TestSameRoleTwiceDoesNotReachQuorum(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine()

	_, _, err := engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 2, constants.RoleCSO, 10)
	require.NoError(t, err)

	// A different CSO user is still the same role.
	_, _, err = engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 2, constants.RoleCSO, 12)
	require.Error(t, err)

	var dup *domainerr.DuplicateApprovalError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, constants.RoleCSO, dup.Role)
}

func TestOverrideRolesSatisfyQuorumAlone(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine()

	_, reached, err := engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 3, constants.RoleCEO, 1)
	require.NoError(t, err)
	require.True(t, reached)

	_, reached, err = engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 4, constants.RoleMaintenance, 2)
	require.NoError(t, err)
	require.True(t, reached)
}

func TestUnauthorizedRoleRejected(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine()

	_, _, err := engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 5, constants.RoleAgent, 20)
	require.Error(t, err)

	var notAuth *domainerr.RoleNotAuthorizedError
	require.True(t, errors.As(err, &notAuth))

	// Nothing persisted for the rejected attempt.
	var count int64
	require.NoError(t, db.Model(&approvalModel.Approval{}).Where("ref_id = ?", 5).Count(&count).Error)
	require.Zero(t, count)
}

func TestApprovalsScopedPerReference(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine()

	_, _, err := engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 6, constants.RoleCSO, 10)
	require.NoError(t, err)

	// The CSO vote on booking 6 must not count towards booking 7.
	_, reached, err := engine.RecordBookingApproval(db, approvalModel.RefTypeBooking, 7, constants.RoleAccountant, 11)
	require.NoError(t, err)
	require.False(t, reached)
}

func TestRecordResponseRejectionKeepsAuditRow(t *testing.T) {
	db := setupDB(t)
	engine := NewEngine()

	row, err := engine.RecordResponse(db, approvalModel.RefTypeHolding, 9, constants.RoleCSO, 10, false)
	require.NoError(t, err)
	require.Equal(t, approvalModel.ApprovalStatusRejected, row.Status)

	// A rejection does not block a later approval by the same role.
	row, err = engine.RecordResponse(db, approvalModel.RefTypeHolding, 9, constants.RoleCSO, 10, true)
	require.NoError(t, err)
	require.Equal(t, approvalModel.ApprovalStatusApproved, row.Status)

	var count int64
	require.NoError(t, db.Model(&approvalModel.Approval{}).Where("ref_id = ?", 9).Count(&count).Error)
	require.EqualValues(t, 2, count)
}
