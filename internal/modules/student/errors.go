package student

import "sportsequip/internal/pkg/apperr"

var (
	ErrStudentNotFound = apperr.NotFound("Student not found")
	ErrAccessDenied    = apperr.Forbidden("Access denied")
	ErrEmptyName       = apperr.Validation("Name cannot be empty", apperr.FieldError{Field: "firstName", Message: "cannot be empty"})
	ErrEmptyDepartment = apperr.Validation("Department cannot be empty", apperr.FieldError{Field: "department", Message: "cannot be empty"})
)
