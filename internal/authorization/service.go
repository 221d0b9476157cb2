package authorization

import (
	"context"
	"errors"
)

// Service decides whether an operator acting in a role may perform an action.
type Service interface {
	Authorize(ctx context.Context, operatorID, role, object, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
