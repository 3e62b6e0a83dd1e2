package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/pkg/apperr"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func multipartRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, content := range files {
		part, err := w.CreateFormFile(field, "My Card!.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newTestService(t *testing.T, maxSize int64) *Service {
	t.Helper()
	return NewService(Config{Root: t.TempDir(), BaseURL: "http://localhost:5000", MaxFileSize: maxSize, MaxFiles: 3})
}

func handle(t *testing.T, svc *Service, field string, req *http.Request, purpose Purpose) ([]*StoredFile, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	files, err := svc.Files(c, field)
	if err != nil {
		return nil, err
	}
	return svc.SaveAll(files, purpose, 0)
}

func TestSave_StoresUnderPurposeDirectory(t *testing.T) {
	svc := newTestService(t, 1024)
	content := append(append([]byte{}, pngHeader...), make([]byte, 64)...)

	stored, err := handle(t, svc, "idCard", multipartRequest(t, map[string][]byte{"idCard": content}), PurposeIDCard)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	f := stored[0]
	assert.Equal(t, "image/png", f.MimeType)
	assert.True(t, strings.HasPrefix(f.Path, "id-cards/My_Card_-"), f.Path)
	assert.True(t, strings.HasSuffix(f.Filename, ".png"))
	assert.Equal(t, "http://localhost:5000/uploads/"+f.Path, f.URL)

	_, err = os.Stat(filepath.Join(svc.Root(), f.Path))
	assert.NoError(t, err)
}

func TestSave_RejectsOversizedFile(t *testing.T) {
	svc := newTestService(t, 2*1024*1024)
	content := append(append([]byte{}, pngHeader...), make([]byte, 3*1024*1024)...)

	_, err := handle(t, svc, "idCard", multipartRequest(t, map[string][]byte{"idCard": content}), PurposeIDCard)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, "File too large. Maximum size is 2MB.", err.Error())
	assert.Equal(t, apperr.KindUpload, apperr.KindOf(err))
}

func TestSave_RejectsWrongType(t *testing.T) {
	svc := newTestService(t, 1024)

	_, err := handle(t, svc, "idCard", multipartRequest(t, map[string][]byte{"idCard": []byte("plain text, not an image")}), PurposeIDCard)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestFiles_RejectsUnexpectedField(t *testing.T) {
	svc := newTestService(t, 1024)

	_, err := handle(t, svc, "idCard", multipartRequest(t, map[string][]byte{"avatar": pngHeader}), PurposeIDCard)
	assert.ErrorIs(t, err, ErrUnexpectedField)
}

func TestSaveAll_EnforcesLimitAndRollsBack(t *testing.T) {
	svc := newTestService(t, 1024)
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for i := 0; i < 4; i++ {
		part, err := w.CreateFormFile("images", "ball.png")
		require.NoError(t, err)
		_, _ = part.Write(pngHeader)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, err := handle(t, svc, "images", req, PurposeEquipment)
	assert.ErrorIs(t, err, ErrTooManyFiles)

	entries, _ := os.ReadDir(filepath.Join(svc.Root(), string(PurposeEquipment)))
	assert.Empty(t, entries)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_photo", sanitizeName("../../my photo.jpg"))
	assert.Equal(t, "file", sanitizeName(".png"))
}
