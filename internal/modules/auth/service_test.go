package auth

import (
	"context"
	"mime/multipart"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/database/dbtest"
	"sportsequip/internal/domain"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/jwt"
	"sportsequip/internal/repository"
)

type capturedMessage struct {
	to, subject, body string
}

type captureSender struct {
	sent []capturedMessage
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.sent = append(c.sent, capturedMessage{to, subject, body})
	return nil
}

var codePattern = regexp.MustCompile(`\d{6}`)

func (c *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, c.sent)
	code := codePattern.FindString(c.sent[len(c.sent)-1].body)
	require.NotEmpty(t, code)
	return code
}

type fakeFiles struct {
	saved   int
	removed int
}

func (f *fakeFiles) Save(fh *multipart.FileHeader, p upload.Purpose) (*upload.StoredFile, error) {
	f.saved++
	return &upload.StoredFile{Purpose: p, Path: string(p) + "/" + fh.Filename}, nil
}

func (f *fakeFiles) Remove(files ...*upload.StoredFile) { f.removed += len(files) }

type fixture struct {
	svc    *Service
	store  *repository.Store
	sender *captureSender
	files  *fakeFiles
	tokens *jwt.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewStore(dbtest.Open(t))
	f := &fixture{
		store:  store,
		sender: &captureSender{},
		files:  &fakeFiles{},
		tokens: jwt.New("test-secret", time.Hour),
	}
	f.svc = NewService(store, f.tokens, f.sender, f.files, 5*time.Minute, nil)
	return f
}

func validRegistration() RegisterRequest {
	return RegisterRequest{
		StudentID:   "cs2024001",
		FullName:    "Ada King Lovelace",
		Email:       "Ada@Uni.edu",
		PhoneNumber: "+1 555 0100",
		Department:  "Computer Science",
		Year:        2,
		Semester:    3,
	}
}

var idCard = &multipart.FileHeader{Filename: "card.png", Size: 10}

func TestRegister_CreatesUnverifiedStudentWithOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.svc.Register(ctx, validRegistration(), idCard)
	require.NoError(t, err)

	assert.Equal(t, "CS2024001", st.StudentNumber)
	assert.Equal(t, "ada@uni.edu", st.Email)
	assert.Equal(t, "Ada", st.FirstName)
	assert.Equal(t, "King Lovelace", st.LastName)
	assert.Equal(t, "id-cards/card.png", st.IDCardImage)
	assert.False(t, st.IsVerified)
	assert.True(t, st.HasOTP())

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "ada@uni.edu", f.sender.sent[0].to)
	assert.Equal(t, *st.OTPCode, f.sender.lastCode(t))
}

func TestRegister_DuplicateLeavesNoRecordOrFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegistration(), idCard)
	require.NoError(t, err)

	dup := validRegistration()
	dup.Email = "other@uni.edu"
	dup.PhoneNumber = "+1 555 0199"
	_, err = f.svc.Register(ctx, dup, idCard)
	assert.ErrorIs(t, err, ErrStudentExists)

	list, total, err := f.store.Students.List(ctx, repository.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
	assert.Equal(t, f.files.saved-f.files.removed, 1, "only the first card is kept")
}

func TestRegister_RequiresIDCardAndName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), validRegistration(), nil)
	assert.ErrorIs(t, err, ErrIDCardRequired)

	req := validRegistration()
	req.FullName = "  "
	_, err = f.svc.Register(context.Background(), req, idCard)
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, f.files.saved)
}

func TestVerifyOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegistration(), idCard)
	require.NoError(t, err)
	code := f.sender.lastCode(t)

	_, err = f.svc.VerifyOTP(ctx, VerifyOTPRequest{StudentID: "CS2024001", PhoneNumber: "+1 555 0199", OTP: code})
	assert.ErrorIs(t, err, ErrStudentNotFound)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.svc.VerifyOTP(ctx, VerifyOTPRequest{StudentID: "cs2024001", PhoneNumber: "+1 555 0100", OTP: wrong})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	res, err := f.svc.VerifyOTP(ctx, VerifyOTPRequest{StudentID: "cs2024001", PhoneNumber: "+1 555 0100", OTP: code})
	require.NoError(t, err)
	assert.True(t, res.Student.IsVerified)

	claims, err := f.tokens.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Student.ID, claims.UserID)
	assert.Equal(t, string(domain.PrincipalStudent), claims.Role)

	_, err = f.svc.VerifyOTP(ctx, VerifyOTPRequest{StudentID: "cs2024001", PhoneNumber: "+1 555 0100", OTP: code})
	assert.ErrorIs(t, err, ErrInvalidOTP, "codes are single use")
}

func TestVerifyOTP_ExpiredIsCleared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegistration(), idCard)
	require.NoError(t, err)
	code := f.sender.lastCode(t)

	f.svc.now = func() time.Time { return time.Now().UTC().Add(6 * time.Minute) }
	_, err = f.svc.VerifyOTP(ctx, VerifyOTPRequest{StudentID: "CS2024001", PhoneNumber: "+1 555 0100", OTP: code})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	st, err := f.store.Students.GetByNumberAndPhone(ctx, "CS2024001", "+1 555 0100")
	require.NoError(t, err)
	assert.False(t, st.HasOTP())
	assert.False(t, st.IsVerified)
}

func TestLogin_ReplacesOutstandingOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, validRegistration(), idCard)
	require.NoError(t, err)
	first := f.sender.lastCode(t)

	req := StudentLoginRequest{StudentID: "CS2024001", PhoneNumber: "+1 555 0100"}
	require.NoError(t, f.svc.Login(ctx, req))
	second := f.sender.lastCode(t)

	st, err := f.store.Students.GetByNumberAndPhone(ctx, "CS2024001", "+1 555 0100")
	require.NoError(t, err)
	assert.Equal(t, second, *st.OTPCode)
	if first != second {
		_, err = f.svc.VerifyOTP(ctx, VerifyOTPRequest{StudentID: "CS2024001", PhoneNumber: "+1 555 0100", OTP: first})
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	assert.ErrorIs(t, f.svc.Login(ctx, StudentLoginRequest{StudentID: "nobody", PhoneNumber: "1"}), ErrStudentNotFound)

	require.NoError(t, f.store.Students.SetActive(ctx, st.ID, false))
	assert.ErrorIs(t, f.svc.Login(ctx, req), ErrAccountDeactivated)
}

func TestAdminLoginAndBootstrap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.EnsureDefaultAdmin(ctx, "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureDefaultAdmin(ctx, "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, created)

	res, err := f.svc.AdminLogin(ctx, AdminLoginRequest{Username: "admin", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, res.Admin.Role)
	assert.NotNil(t, res.Admin.LastLogin)
	assert.NotEmpty(t, res.Token)

	_, err = f.svc.AdminLogin(ctx, AdminLoginRequest{Username: "admin", Password: "nope"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = f.svc.AdminLogin(ctx, AdminLoginRequest{Username: "ghost", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGenerateOTP_IsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
