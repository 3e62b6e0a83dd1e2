package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"mime/multipart"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"sportsequip/internal/database"
	"sportsequip/internal/domain"
	"sportsequip/internal/modules/upload"
	"sportsequip/internal/pkg/mailer"
	"sportsequip/internal/repository"
)

const (
	DefaultOTPTTL   = 5 * time.Minute
	otpDigits       = 6
	defaultUsername = "admin"
)

// Service handles admin login and the student OTP flow.
type Service struct {
	store  *repository.Store
	tokens tokenIssuer
	otp    mailer.Sender
	files  FileStore
	otpTTL time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store *repository.Store, tokens tokenIssuer, otp mailer.Sender, files FileStore, otpTTL time.Duration, log *zap.Logger) *Service {
	if otpTTL <= 0 {
		otpTTL = DefaultOTPTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		tokens: tokens,
		otp:    otp,
		files:  files,
		otpTTL: otpTTL,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (*AdminLoginResult, error) {
	admin, err := s.store.Admins.GetByUsername(ctx, req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrWrongPassword
	}

	now := s.now()
	if err := s.store.Admins.TouchLogin(ctx, admin.ID, now); err != nil {
		return nil, err
	}
	admin.LastLogin = &now

	token, err := s.tokens.GenerateToken(admin.ID, string(domain.PrincipalAdmin))
	if err != nil {
		return nil, fmt.Errorf("sign admin token: %w", err)
	}
	return &AdminLoginResult{Token: token, Admin: admin}, nil
}

// Register creates an unverified student and issues the first OTP. The ID
// card file is removed again when the student cannot be stored.
func (s *Service) Register(ctx context.Context, req RegisterRequest, idCard *multipart.FileHeader) (*domain.Student, error) {
	if idCard == nil {
		return nil, ErrIDCardRequired
	}

	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" {
		first, last = splitFullName(req.FullName)
	}
	if first == "" {
		return nil, ErrNameRequired
	}

	st := &domain.Student{
		StudentNumber: req.StudentID,
		FirstName:     first,
		LastName:      last,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		Department:    req.Department,
		Year:          req.Year,
		Semester:      req.Semester,
		IsActive:      true,
	}
	st.Normalize()

	exists, err := s.store.Students.ExistsAny(ctx, st.StudentNumber, st.Email, st.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrStudentExists
	}

	stored, err := s.files.Save(idCard, upload.PurposeIDCard)
	if err != nil {
		return nil, err
	}
	st.IDCardImage = stored.Path

	code, err := generateOTP()
	if err != nil {
		s.files.Remove(stored)
		return nil, err
	}
	st.SetOTP(code, s.now().Add(s.otpTTL))

	if err := s.store.Students.Create(ctx, st); err != nil {
		s.files.Remove(stored)
		if database.IsUniqueViolation(err) {
			return nil, ErrStudentExists
		}
		return nil, err
	}

	s.deliverOTP(ctx, st, code)
	return st, nil
}

func splitFullName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func (s *Service) lookup(ctx context.Context, studentID, phone string) (*domain.Student, error) {
	st, err := s.store.Students.GetByNumberAndPhone(ctx, studentID, strings.TrimSpace(phone))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	return st, err
}

// Login starts a sign-in by issuing a fresh OTP. Any outstanding code is
// replaced.
func (s *Service) Login(ctx context.Context, req StudentLoginRequest) error {
	st, err := s.lookup(ctx, req.StudentID, req.PhoneNumber)
	if err != nil {
		return err
	}
	if !st.IsActive {
		return ErrAccountDeactivated
	}
	return s.issueOTP(ctx, st)
}

func (s *Service) ResendOTP(ctx context.Context, req StudentLoginRequest) error {
	return s.Login(ctx, req)
}

func (s *Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*StudentLoginResult, error) {
	st, err := s.lookup(ctx, req.StudentID, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if !st.IsActive {
		return nil, ErrAccountDeactivated
	}

	now := s.now()
	code := ""
	if st.OTPCode != nil {
		code = *st.OTPCode
	}
	hadOTP := st.HasOTP()
	if !st.VerifyOTP(req.OTP, now) {
		if hadOTP && !st.HasOTP() {
			// expired: drop it so it cannot be retried
			if err := s.store.Students.SaveOTP(ctx, st); err != nil {
				return nil, err
			}
		}
		return nil, ErrInvalidOTP
	}

	ok, err := s.store.Students.ConsumeOTP(ctx, st.ID, code, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}
	st.LastLogin = &now

	token, err := s.tokens.GenerateToken(st.ID, string(domain.PrincipalStudent))
	if err != nil {
		return nil, fmt.Errorf("sign student token: %w", err)
	}
	return &StudentLoginResult{Token: token, Student: st}, nil
}

func (s *Service) issueOTP(ctx context.Context, st *domain.Student) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	st.SetOTP(code, s.now().Add(s.otpTTL))
	if err := s.store.Students.SaveOTP(ctx, st); err != nil {
		return err
	}
	s.deliverOTP(ctx, st, code)
	return nil
}

// deliverOTP never fails the caller; the code can always be resent.
func (s *Service) deliverOTP(ctx context.Context, st *domain.Student, code string) {
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.otpTTL.Minutes()))
	if err := s.otp.Send(ctx, st.Email, "Your verification code", body); err != nil {
		s.log.Warn("auth: otp delivery failed",
			zap.Error(err),
			zap.String("student_id", st.StudentNumber),
			zap.String("phone", st.PhoneNumber))
	}
}

func generateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// EnsureDefaultAdmin creates the bootstrap super admin when no account
// named admin exists. It reports whether one was created.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, password string) (bool, error) {
	_, err := s.store.Admins.GetByUsername(ctx, defaultUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := &domain.Admin{
		Username:     defaultUsername,
		Email:        "admin@sportsequipment.com",
		PasswordHash: string(hash),
		FullName:     "System Administrator",
		Role:         domain.RoleSuperAdmin,
		Permissions:  domain.AllPermissions(),
		IsActive:     true,
	}
	if err := s.store.Admins.Create(ctx, admin); err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	s.log.Info("default admin created", zap.String("username", defaultUsername))
	return true, nil
}
