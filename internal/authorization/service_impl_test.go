package authorization

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{RoleFrontDesk, ObjectAvailability, ActionAvailabilityView, true},
		{RoleFrontDesk, ObjectRoomAllocation, ActionRoomAllocate, true},
		{RoleFrontDesk, ObjectNightAudit, ActionNightAuditView, true},
		{RoleFrontDesk, ObjectNightAudit, ActionNightAuditStart, false},
		{RoleFrontDesk, ObjectBusinessDate, ActionBusinessDateSet, false},
		{RoleNightAuditor, ObjectNightAudit, ActionNightAuditStart, true},
		{RoleNightAuditor, ObjectAvailability, ActionAvailabilityView, true},
		{RoleNightAuditor, ObjectBusinessDate, ActionBusinessDateSet, false},
		{RoleManager, ObjectBusinessDate, ActionBusinessDateSet, true},
		{RoleManager, ObjectNightAudit, ActionNightAuditStart, true},
		{RoleSystem, ObjectNightAudit, ActionNightAuditStart, true},
		{RoleSystem, ObjectReservation, ActionReservationCreate, false},
	}
	for _, tc := range cases {
		err := svc.Authorize(ctx, "op-"+tc.role, tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s", tc.role, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s", tc.role, tc.action)
		}
	}
}

func TestAuthorizeFollowsLatestRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "u-1", RoleManager, ObjectBusinessDate, ActionBusinessDateSet))
	assert.ErrorIs(t, svc.Authorize(ctx, "u-1", RoleFrontDesk, ObjectBusinessDate, ActionBusinessDateSet), ErrForbidden)
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", RoleManager, ObjectNightAudit, ActionNightAuditView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "u-1", "janitor", ObjectNightAudit, ActionNightAuditView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, "u-1", RoleManager, "", ActionNightAuditView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "u-1", RoleManager, ObjectNightAudit, " "), ErrInvalidAction)
}
