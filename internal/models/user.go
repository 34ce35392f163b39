package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeCustomer   UserType = "customer"
	UserTypeRetailer   UserType = "retailer"
	UserTypeGovernment UserType = "government"
)

// IsValid reports whether t is one of the known user types. The empty value
// is not valid; it marks a legacy record awaiting backfill.
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeCustomer, UserTypeRetailer, UserTypeGovernment:
		return true
	}
	return false
}

const DefaultProfilePicture = "https://img.freepik.com/premium-vector/man-avatar-profile-picture-vector-illustration_268834-538.jpg"

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	ProfilePicture string    `gorm:"type:text" json:"profilePicture"`
	UserType       UserType  `gorm:"type:varchar(20);index" json:"userType"`
	IsShopCreated  bool      `gorm:"not null;default:false" json:"isShopCreated"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserSummary is the owner projection embedded in shop lookups.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	UserType UserType  `json:"userType"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, UserType: u.UserType}
}
