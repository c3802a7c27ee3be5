package services

import "errors"

// Expected, recoverable outcomes. Handlers map these onto HTTP statuses;
// anything else coming out of a service is a storage failure and surfaces
// as a 500.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyCompleted  = errors.New("already completed")
	ErrAttemptsExhausted = errors.New("attempts exhausted")
	ErrNotEnrolled       = errors.New("not enrolled")
	ErrInvalidArgument   = errors.New("invalid argument")
)
