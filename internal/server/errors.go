package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	activitydomain "github.com/smallbiznis/frontdesk/internal/activity/domain"
	allocationdomain "github.com/smallbiznis/frontdesk/internal/allocation/domain"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"github.com/smallbiznis/frontdesk/pkg/db"
	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, nightauditdomain.ErrAuditAlreadyRunning):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "night audit already running",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, businessdatedomain.ErrInvalidDate),
		errors.Is(err, availabilitydomain.ErrInvalidRoomType),
		errors.Is(err, allocationdomain.ErrInvalidRoomType),
		errors.Is(err, nightauditdomain.ErrInvalidRunID),
		errors.Is(err, nightauditdomain.ErrInvalidOperator),
		errors.Is(err, nightauditdomain.ErrInvalidTrigger),
		errors.Is(err, activitydomain.ErrInvalidTimeRange),
		errors.Is(err, activitydomain.ErrInvalidAction):
		return true
	case isReservationValidationError(err),
		isRoomValidationError(err):
		return true
	default:
		return false
	}
}

func isReservationValidationError(err error) bool {
	switch {
	case errors.Is(err, reservationdomain.ErrInvalidID),
		errors.Is(err, reservationdomain.ErrInvalidGuestName),
		errors.Is(err, reservationdomain.ErrInvalidRoomType),
		errors.Is(err, reservationdomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isRoomValidationError(err error) bool {
	switch {
	case errors.Is(err, roomdomain.ErrInvalidRoomType),
		errors.Is(err, roomdomain.ErrInvalidRoom),
		errors.Is(err, roomdomain.ErrInvalidCode),
		errors.Is(err, roomdomain.ErrInvalidName),
		errors.Is(err, roomdomain.ErrInvalidRate),
		errors.Is(err, roomdomain.ErrInvalidNumber),
		errors.Is(err, roomdomain.ErrInvalidBlockRange):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, businessdatedomain.ErrConcurrentUpdate),
		errors.Is(err, reservationdomain.ErrInvalidTransition),
		errors.Is(err, reservationdomain.ErrRoomNotAssigned),
		errors.Is(err, reservationdomain.ErrNoRoomAvailable),
		db.IsUniqueViolation(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, nightauditdomain.ErrRunNotFound),
		errors.Is(err, reservationdomain.ErrNotFound),
		errors.Is(err, roomdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, daterange.ErrInvalidRange):
		return "invalid_date_range"
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return "invalid_page_token"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_date_range":
		return "check-out must be after check-in"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog feeds the request logger with the same taxonomy the
// client sees.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return payload.Type, err.Error()
	}
	return payload.Type, code
}
