// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes keep the names existing clients of the invitations API branch on, so
// they are PascalCase rather than snake_case. Every error response carries an
// HTTP status and one of these codes (see fail()).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "ForbiddenError",
//	  "message": "forbidden"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-invitations-backend/internal/auth"
	"github.com/tbourn/go-invitations-backend/internal/services"
)

const (
	ErrCodeInvalidContent   = "InvalidContentError"
	ErrCodeUnauthorized     = "UnauthorizedError"
	ErrCodeForbidden        = "ForbiddenError"
	ErrCodeNotFound         = "NotFoundError"
	ErrCodeMethodNotAllowed = "MethodNotAllowedError"
	ErrCodeRateLimited      = "TooManyRequestsError"
	ErrCodeInternal         = "InternalError"

	// Domain-specific:
	ErrCodeInvitationBlocked = "InvitationBlocked"
	// CodeTooManyInvitations marks a successful create that was not stored
	// because of the refusal cool-down. It is not an error.
	CodeTooManyInvitations = "TooManyInvitations"
)

// StatusLocked is returned when the recipient blocked the sender.
const StatusLocked = http.StatusLocked

// errorFor maps a service or auth error to status, code and a client-safe
// message. Unknown errors become 500 InternalError.
func errorFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrInvalidContent), errors.Is(err, auth.ErrMissingToken):
		return http.StatusBadRequest, ErrCodeInvalidContent, "invalid content"
	case errors.Is(err, services.ErrInvalidReason):
		return http.StatusBadRequest, ErrCodeInvalidContent, "invalid reason"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "forbidden"
	case errors.Is(err, services.ErrBlocked):
		return StatusLocked, ErrCodeInvitationBlocked, "You are not allowed to invite this player."
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "not found"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, "failed to query db"
	}
}
