package auth

import "sportsequip/internal/pkg/apperr"

var (
	ErrInvalidCredentials = apperr.Unauthenticated("Invalid credentials or account deactivated")
	ErrWrongPassword      = apperr.Unauthenticated("Invalid credentials")
	ErrIDCardRequired     = apperr.Validation("ID card image is required")
	ErrStudentExists      = apperr.Validation("Student with this ID, email, or phone number already exists")
	ErrStudentNotFound    = apperr.NotFound("Student not found")
	ErrInvalidOTP         = apperr.Validation("Invalid or expired OTP")
	ErrAccountDeactivated = apperr.Unauthenticated("Account has been deactivated")
	ErrNameRequired       = apperr.Validation("Full name is required")
)
