package upload

import "sportsequip/internal/pkg/apperr"

var (
	ErrFileTooLarge    = apperr.Upload("File too large. Maximum size is %dMB.")
	ErrTooManyFiles    = apperr.Upload("Too many files. Maximum is %d files.")
	ErrUnexpectedField = apperr.Upload("Unexpected file field.")
	ErrInvalidType     = apperr.Upload("Invalid file type. Only images (JPEG, PNG, GIF, WebP) and documents (PDF, DOC, DOCX) are allowed.")
	ErrEmptyFile       = apperr.Upload("File is empty.")
)
