package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies the account tier
type Role string

const (
	RoleFarmer        Role = "farmer"
	RoleRegionalAdmin Role = "regional_admin"
	RoleMAdmin        Role = "m_admin"
	RoleSuperAdmin    Role = "super_admin"
)

// IsAdmin reports whether the role belongs to the administrator hierarchy
func (r Role) IsAdmin() bool {
	return r == RoleRegionalAdmin || r == RoleMAdmin || r == RoleSuperAdmin
}

// User represents a farmer or administrator account
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	Name         string    `gorm:"size:100;not null"`
	Phone        string    `gorm:"uniqueIndex;size:20;not null"`
	Email        string    `gorm:"size:255;index"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         Role      `gorm:"size:20;not null;default:'farmer'"`

	// Region is the assigned review region for regional_admin and m_admin
	// accounts. Empty for farmers and super admins.
	Region string `gorm:"size:100;index"`

	IsActive   bool `gorm:"default:true"`
	IsApproved bool `gorm:"default:false"`

	// Current address, snapshotted onto cattle records at registration
	AddressState    string `gorm:"size:100"`
	AddressDistrict string `gorm:"size:100"`
	AddressPIN      string `gorm:"size:10"`

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	// Relations
	Cattle        []Cattle       `gorm:"foreignKey:OwnerID"`
	Notifications []Notification `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns an ID when missing
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CanReview reports whether the account may act in the given admin tier
func (u *User) CanReview() bool {
	return u.Role.IsAdmin() && u.IsActive && u.IsApproved
}
