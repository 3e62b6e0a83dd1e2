package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Purpose selects the storage subdirectory and the accepted content.
type Purpose string

const (
	PurposeIDCard     Purpose = "id-cards"
	PurposeEquipment  Purpose = "equipment"
	PurposeProfile    Purpose = "profiles"
	PurposeAttachment Purpose = "attachments"
)

const (
	DefaultMaxFileSize = 5 * 1024 * 1024
	DefaultMaxFiles    = 10
	MaxEquipmentImages = 5
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var documentTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

func (p Purpose) accepts(mime string) (string, bool) {
	if ext, ok := imageTypes[mime]; ok {
		return ext, true
	}
	if p == PurposeAttachment {
		ext, ok := documentTypes[mime]
		return ext, ok
	}
	return "", false
}

type Config struct {
	Root        string
	BaseURL     string
	MaxFileSize int64
	MaxFiles    int
}

// StoredFile describes a file written under the upload root.
type StoredFile struct {
	Purpose  Purpose `json:"purpose"`
	Filename string  `json:"filename"`
	Path     string  `json:"path"`
	URL      string  `json:"url"`
	MimeType string  `json:"mimeType"`
	Size     int64   `json:"size"`
}

// Service stores uploaded files on local disk.
type Service struct {
	root     string
	baseURL  string
	maxSize  int64
	maxFiles int
	now      func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Root == "" {
		cfg.Root = "./uploads"
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	return &Service{
		root:     cfg.Root,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxSize:  cfg.MaxFileSize,
		maxFiles: cfg.MaxFiles,
		now:      time.Now,
	}
}

func (s *Service) Root() string { return s.root }

// EnsureDirs creates the root and one directory per purpose.
func (s *Service) EnsureDirs() error {
	for _, p := range []Purpose{PurposeIDCard, PurposeEquipment, PurposeProfile, PurposeAttachment} {
		if err := os.MkdirAll(filepath.Join(s.root, string(p)), 0o755); err != nil {
			return fmt.Errorf("create upload directory %s: %w", p, err)
		}
	}
	return nil
}

// URL builds the public address of a stored relative path.
func (s *Service) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.baseURL + "/uploads/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

// Save validates and writes one file.
func (s *Service) Save(fh *multipart.FileHeader, p Purpose) (*StoredFile, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > s.maxSize {
		return nil, ErrFileTooLarge.Withf(s.maxSize / (1024 * 1024))
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}
	mime := strings.Split(mt.String(), ";")[0]
	ext, ok := p.accepts(mime)
	if !ok {
		return nil, ErrInvalidType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(s.root, string(p))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%d-%s%s", sanitizeName(fh.Filename), s.now().UnixMilli(), randomSuffix(), ext)
	abs := filepath.Join(dir, filename)
	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	// Count bytes so a client that lies about Size is still capped.
	written, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(abs)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if written > s.maxSize {
		_ = os.Remove(abs)
		return nil, ErrFileTooLarge.Withf(s.maxSize / (1024 * 1024))
	}

	rel := path.Join(string(p), filename)
	return &StoredFile{
		Purpose:  p,
		Filename: filename,
		Path:     rel,
		URL:      s.URL(rel),
		MimeType: mime,
		Size:     written,
	}, nil
}

// SaveAll writes every file or none of them.
func (s *Service) SaveAll(files []*multipart.FileHeader, p Purpose, limit int) ([]*StoredFile, error) {
	if limit <= 0 || limit > s.maxFiles {
		limit = s.maxFiles
	}
	if len(files) > limit {
		return nil, ErrTooManyFiles.Withf(limit)
	}

	stored := make([]*StoredFile, 0, len(files))
	for _, fh := range files {
		f, err := s.Save(fh, p)
		if err != nil {
			s.Remove(stored...)
			return nil, err
		}
		stored = append(stored, f)
	}
	return stored, nil
}

// Remove deletes stored files, ignoring ones that are already gone.
func (s *Service) Remove(files ...*StoredFile) {
	for _, f := range files {
		if f != nil {
			s.RemovePath(f.Path)
		}
	}
}

func (s *Service) RemovePath(rel string) {
	if rel == "" {
		return
	}
	clean := filepath.Clean("/" + rel)
	_ = os.Remove(filepath.Join(s.root, clean))
}

// Files returns the files posted under field. Any file under another field
// name fails with ErrUnexpectedField.
func (s *Service) Files(c *gin.Context, field string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	total := 0
	for name, files := range form.File {
		if name != field && len(files) > 0 {
			return nil, ErrUnexpectedField
		}
		total += len(files)
	}
	if total > s.maxFiles {
		return nil, ErrTooManyFiles.Withf(s.maxFiles)
	}
	return form.File[field], nil
}

// File returns the single file under field, or nil when none was sent.
func (s *Service) File(c *gin.Context, field string) (*multipart.FileHeader, error) {
	files, err := s.Files(c, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	if len(files) > 1 {
		return nil, ErrTooManyFiles.Withf(1)
	}
	return files[0], nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
