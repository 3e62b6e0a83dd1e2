package domain

import "time"

type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

func (r AdminRole) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type Permission string

const (
	PermManageEquipment   Permission = "canManageEquipment"
	PermManageRequests    Permission = "canManageRequests"
	PermManageStudents    Permission = "canManageStudents"
	PermSendNotifications Permission = "canSendNotifications"
	PermViewReports       Permission = "canViewReports"
)

type Permissions struct {
	CanManageEquipment   bool `json:"canManageEquipment" gorm:"not null"`
	CanManageRequests    bool `json:"canManageRequests" gorm:"not null"`
	CanManageStudents    bool `json:"canManageStudents" gorm:"not null"`
	CanSendNotifications bool `json:"canSendNotifications" gorm:"not null"`
	CanViewReports       bool `json:"canViewReports" gorm:"not null"`
}

func AllPermissions() Permissions {
	return Permissions{
		CanManageEquipment:   true,
		CanManageRequests:    true,
		CanManageStudents:    true,
		CanSendNotifications: true,
		CanViewReports:       true,
	}
}

func (p Permissions) Has(name Permission) bool {
	switch name {
	case PermManageEquipment:
		return p.CanManageEquipment
	case PermManageRequests:
		return p.CanManageRequests
	case PermManageStudents:
		return p.CanManageStudents
	case PermSendNotifications:
		return p.CanSendNotifications
	case PermViewReports:
		return p.CanViewReports
	}
	return false
}

type Admin struct {
	ID           int64       `json:"id" gorm:"primaryKey"`
	Username     string      `json:"username" gorm:"size:30;not null;uniqueIndex"`
	Email        string      `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string      `json:"-" gorm:"column:password_hash;not null"`
	FullName     string      `json:"fullName" gorm:"size:100;not null"`
	Role         AdminRole   `json:"role" gorm:"size:20;not null"`
	Permissions  Permissions `json:"permissions" gorm:"embedded;embeddedPrefix:perm_"`
	IsActive     bool        `json:"isActive" gorm:"not null"`
	LastLogin    *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Can reports whether the admin holds permission name. Super admins hold all.
func (a *Admin) Can(name Permission) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.Permissions.Has(name)
}
