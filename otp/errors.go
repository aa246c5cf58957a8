package otp

import "errors"

var (
	// Code store errors
	ErrCodeNotFound = errors.New("no code requested for this phone number")
	ErrCodeExpired  = errors.New("code has expired")
	ErrMaxAttempts  = errors.New("maximum verify attempts exceeded")
	ErrInvalidCode  = errors.New("invalid code")

	// Controller errors
	ErrCoolingDown      = errors.New("resend cooldown still active")
	ErrRetriesExhausted = errors.New("maximum resend requests exceeded")
)
