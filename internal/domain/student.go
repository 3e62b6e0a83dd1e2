package domain

import (
	"crypto/subtle"
	"strings"
	"time"
)

type Statistics struct {
	TotalRequests          int `json:"totalRequests" gorm:"not null;default:0"`
	ApprovedRequests       int `json:"approvedRequests" gorm:"not null;default:0"`
	RejectedRequests       int `json:"rejectedRequests" gorm:"not null;default:0"`
	TotalEquipmentBorrowed int `json:"totalEquipmentBorrowed" gorm:"not null;default:0"`
	TotalDaysBorrowed      int `json:"totalDaysBorrowed" gorm:"not null;default:0"`
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
}

type Student struct {
	ID               int64            `json:"id" gorm:"primaryKey"`
	StudentNumber    string           `json:"studentId" gorm:"column:student_number;size:32;not null;uniqueIndex"`
	FirstName        string           `json:"firstName" gorm:"size:50;not null"`
	LastName         string           `json:"lastName" gorm:"size:50;not null"`
	Email            string           `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PhoneNumber      string           `json:"phoneNumber" gorm:"size:32;not null;uniqueIndex"`
	Department       string           `json:"department" gorm:"size:100;not null;index"`
	Year             int              `json:"year" gorm:"not null"`
	Semester         int              `json:"semester" gorm:"not null"`
	IDCardImage      string           `json:"idCardImage" gorm:"not null"`
	ProfileImage     string           `json:"profileImage,omitempty"`
	Address          Address          `json:"address" gorm:"type:text;serializer:json"`
	EmergencyContact EmergencyContact `json:"emergencyContact" gorm:"type:text;serializer:json"`
	IsVerified       bool             `json:"isVerified" gorm:"not null;index"`
	OTPCode          *string          `json:"-" gorm:"column:otp_code;size:6"`
	OTPExpiresAt     *time.Time       `json:"-" gorm:"column:otp_expires_at;index"`
	IsActive         bool             `json:"isActive" gorm:"not null;index"`
	LastLogin        *time.Time       `json:"lastLogin,omitempty"`
	Statistics       Statistics       `json:"statistics" gorm:"embedded;embeddedPrefix:stat_"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Normalize applies the stored casing rules.
func (s *Student) Normalize() {
	s.StudentNumber = NormalizeStudentNumber(s.StudentNumber)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.PhoneNumber = strings.TrimSpace(s.PhoneNumber)
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Department = strings.TrimSpace(s.Department)
}

func NormalizeStudentNumber(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func (s *Student) SetOTP(code string, expiresAt time.Time) {
	s.OTPCode = &code
	s.OTPExpiresAt = &expiresAt
}

func (s *Student) ClearOTP() {
	s.OTPCode = nil
	s.OTPExpiresAt = nil
}

func (s *Student) HasOTP() bool {
	return s.OTPCode != nil && s.OTPExpiresAt != nil
}

// VerifyOTP checks code against the outstanding challenge. An expired
// challenge is cleared; a matching one marks the student verified.
func (s *Student) VerifyOTP(code string, now time.Time) bool {
	if !s.HasOTP() {
		return false
	}
	if now.After(*s.OTPExpiresAt) {
		s.ClearOTP()
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*s.OTPCode), []byte(strings.TrimSpace(code))) != 1 {
		return false
	}
	s.IsVerified = true
	s.ClearOTP()
	return true
}

// CanAuthenticate reports whether the account may act as a principal.
func (s *Student) CanAuthenticate() bool {
	return s.IsActive && s.IsVerified
}
