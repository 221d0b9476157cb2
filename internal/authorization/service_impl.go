package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	obslogger "github.com/smallbiznis/frontdesk/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleFrontDesk    = "front_desk"
	RoleNightAuditor = "night_auditor"
	RoleManager      = "manager"
	RoleSystem       = "system"
)

const (
	ObjectNightAudit     = "night_audit"
	ObjectBusinessDate   = "business_date"
	ObjectAvailability   = "availability"
	ObjectRoomAllocation = "room_allocation"
	ObjectReservation    = "reservation"
	ObjectRoom           = "room"
	ObjectActivityLog    = "activity_log"
)

const (
	ActionNightAuditStart = "night_audit.start"
	ActionNightAuditView  = "night_audit.view"

	ActionBusinessDateView = "business_date.view"
	ActionBusinessDateSet  = "business_date.set"

	ActionAvailabilityView = "availability.view"

	ActionRoomAllocate = "room_allocation.create"

	ActionReservationView     = "reservation.view"
	ActionReservationCreate   = "reservation.create"
	ActionReservationCheckIn  = "reservation.check_in"
	ActionReservationCheckOut = "reservation.check_out"
	ActionReservationCancel   = "reservation.cancel"

	ActionRoomView         = "room.view"
	ActionRoomHousekeeping = "room.housekeeping"
	ActionRoomManage       = "room.manage"

	ActionActivityLogView = "activity_log.view"
)

var knownRoles = map[string]struct{}{
	RoleFrontDesk:    {},
	RoleNightAuditor: {},
	RoleManager:      {},
	RoleSystem:       {},
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, operatorID, role, object, action string) error {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return ErrInvalidActor
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if _, ok := knownRoles[role]; !ok {
		s.logDenied(ctx, operatorID, role, object, action)
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("operator:%s", operatorID)
	if err := s.ensureGrouping(subject, roleName(role)); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.logDenied(ctx, operatorID, role, object, action)
		return ErrForbidden
	}

	if shouldLogGrant(action) {
		obslogger.WithContext(ctx, s.log).Info("authorization.granted",
			zap.String("operator_id", operatorID),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
	}
	return nil
}

// ensureGrouping keeps exactly one role link per operator. The role comes
// from the identity proxy on every request, so the latest one wins.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) logDenied(ctx context.Context, operatorID, role, object, action string) {
	obslogger.WithContext(ctx, s.log).Warn("authorization.denied",
		zap.String("operator_id", operatorID),
		zap.String("role", role),
		zap.String("object", object),
		zap.String("action", action),
	)
}

func roleName(role string) string {
	return "role:" + role
}

func shouldLogGrant(action string) bool {
	switch action {
	case ActionNightAuditStart, ActionBusinessDateSet:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Front desk
		{roleName(RoleFrontDesk), ObjectBusinessDate, ActionBusinessDateView},
		{roleName(RoleFrontDesk), ObjectAvailability, ActionAvailabilityView},
		{roleName(RoleFrontDesk), ObjectRoomAllocation, ActionRoomAllocate},
		{roleName(RoleFrontDesk), ObjectReservation, ActionReservationView},
		{roleName(RoleFrontDesk), ObjectReservation, ActionReservationCreate},
		{roleName(RoleFrontDesk), ObjectReservation, ActionReservationCheckIn},
		{roleName(RoleFrontDesk), ObjectReservation, ActionReservationCheckOut},
		{roleName(RoleFrontDesk), ObjectReservation, ActionReservationCancel},
		{roleName(RoleFrontDesk), ObjectRoom, ActionRoomView},
		{roleName(RoleFrontDesk), ObjectRoom, ActionRoomHousekeeping},
		{roleName(RoleFrontDesk), ObjectNightAudit, ActionNightAuditView},

		// Night auditor
		{roleName(RoleNightAuditor), ObjectNightAudit, ActionNightAuditStart},

		// Manager
		{roleName(RoleManager), ObjectBusinessDate, ActionBusinessDateSet},
		{roleName(RoleManager), ObjectRoom, ActionRoomManage},
		{roleName(RoleManager), ObjectActivityLog, ActionActivityLogView},

		// System (scheduler)
		{roleName(RoleSystem), ObjectNightAudit, ActionNightAuditStart},
		{roleName(RoleSystem), ObjectNightAudit, ActionNightAuditView},
		{roleName(RoleSystem), ObjectBusinessDate, ActionBusinessDateView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	inherits := [][]string{
		{roleName(RoleNightAuditor), roleName(RoleFrontDesk)},
		{roleName(RoleManager), roleName(RoleNightAuditor)},
	}
	for _, link := range inherits {
		if _, err := enforcer.AddGroupingPolicy(link); err != nil {
			return err
		}
	}
	return nil
}
