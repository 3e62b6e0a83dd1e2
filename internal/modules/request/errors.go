package request

import "sportsequip/internal/pkg/apperr"

var (
	ErrRequestNotFound   = apperr.NotFound("Request not found")
	ErrEquipmentNotFound = apperr.NotFound("Equipment not found")
	ErrAccessDenied      = apperr.Forbidden("Access denied")

	ErrInsufficientStock = apperr.Business("Equipment not available in requested quantity. Available: %d")
	ErrBorrowDateInPast  = apperr.Business("Borrow date cannot be in the past")
	ErrReturnBeforeStart = apperr.Business("Return date must be after borrow date")
	ErrDuplicateOpen     = apperr.Business("You already have a pending or approved request for this equipment")
	ErrCannotExtend      = apperr.Business("Only approved or borrowed requests can be extended")

	ErrReasonRequired = apperr.Validation("Rejection reason is required", apperr.FieldError{Field: "reason", Message: "Rejection reason is required"})
	ErrInvalidDate    = apperr.Validation("Invalid date", apperr.FieldError{Field: "date", Message: "must be an ISO 8601 date"})
)
