package auth

import "sportsequip/internal/domain"

type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the multipart body of student registration. FullName
// is split into first and last name when those are not sent.
type RegisterRequest struct {
	StudentID   string `form:"studentId" binding:"required,max=32"`
	FullName    string `form:"fullName" binding:"omitempty,max=101"`
	FirstName   string `form:"firstName" binding:"omitempty,max=50"`
	LastName    string `form:"lastName" binding:"omitempty,max=50"`
	Email       string `form:"email" binding:"required,email"`
	PhoneNumber string `form:"phoneNumber" binding:"required,phone"`
	Department  string `form:"department" binding:"required,max=100"`
	Year        int    `form:"year" binding:"required,min=1,max=6"`
	Semester    int    `form:"semester" binding:"required,min=1,max=8"`
}

type StudentLoginRequest struct {
	StudentID   string `json:"studentId" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type VerifyOTPRequest struct {
	StudentID   string `json:"studentId" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
}

type RegisterResponse struct {
	StudentID   string `json:"studentId"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type AdminLoginResult struct {
	Token string        `json:"token"`
	Admin *domain.Admin `json:"admin"`
}

type StudentLoginResult struct {
	Token   string          `json:"token"`
	Student *domain.Student `json:"student"`
}

// MeResponse describes the current principal.
type MeResponse struct {
	Type domain.PrincipalKind `json:"type"`
	User any                  `json:"user"`
}
