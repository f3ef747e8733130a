// Package services implements the invitation lifecycle: create, list and
// delete, with participant-only authorization, the refusal cool-down, and the
// fire-and-forget side effects (notifications, index pruning, expiry refresh).
//
// This file centralizes the service-level error values. Translation into
// user-facing codes and HTTP status codes is performed by the handlers.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidContent is returned when required input is missing.
	ErrInvalidContent = errors.New("invalid content")

	// ErrInvalidReason is returned when the delete reason is not allowed for
	// the requester's role on the invitation.
	ErrInvalidReason = errors.New("invalid reason")

	// ErrForbidden is returned when the requester does not participate in
	// the invitation.
	ErrForbidden = errors.New("forbidden")

	// ErrBlocked is returned when the recipient has blocked the sender.
	ErrBlocked = errors.New("you are not allowed to invite this player")

	// ErrNotFound is returned when the invitation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInternal wraps store failures. The cause is logged, never returned
	// to clients.
	ErrInternal = errors.New("internal error")
)

// internal marks err as an ErrInternal while keeping the cause for logs.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
