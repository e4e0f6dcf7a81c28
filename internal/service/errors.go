package service

import "errors"

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Conflicts in the daily check-in/check-out lifecycle.
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNoCheckIn         = errors.New("no check-in found for today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
)
