package services

import "errors"

var (
	ErrInvalidInput              = errors.New("invalid input")
	ErrMembershipInactive        = errors.New("membership inactive")
	ErrDuplicateCheckin          = errors.New("duplicate check-in")
	ErrSessionNotFound           = errors.New("session not found")
	ErrSessionNotBookable        = errors.New("session not bookable")
	ErrSessionNotCancellable     = errors.New("session not cancellable")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrAlreadyBooked             = errors.New("already booked")
	ErrSessionFull               = errors.New("session full")
	ErrReservationNotFound       = errors.New("reservation not found")
)
