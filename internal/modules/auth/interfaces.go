package auth

import (
	"mime/multipart"

	"sportsequip/internal/modules/upload"
)

type tokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

// FileStore is the part of the upload service registration needs.
type FileStore interface {
	Save(fh *multipart.FileHeader, p upload.Purpose) (*upload.StoredFile, error)
	Remove(files ...*upload.StoredFile)
}
