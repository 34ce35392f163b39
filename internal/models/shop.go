package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Placeholder values written into shops the catalog provisions on its own.
const (
	DefaultShopAddress     = "Default Address (Please update)"
	GenericShopName        = "Generic Store"
	GenericShopAddress     = "Default Address"
	PlaceholderPhoneNumber = "+91-0000000000"
	PlaceholderZipCode     = "000000"
	DefaultSelectedService = "General Store"
)

type SocialMedia struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
}

type Shop struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string      `gorm:"type:varchar(255);not null" json:"name"`
	Address         string      `gorm:"type:text;not null" json:"address"`
	PhoneNumber     string      `gorm:"type:varchar(50);not null" json:"phoneNumber"`
	ZipCode         string      `gorm:"type:varchar(20)" json:"zipCode"`
	Website         string      `gorm:"type:text" json:"website"`
	SelectedService string      `gorm:"type:varchar(100)" json:"selectedService"`
	SocialMedia     SocialMedia `gorm:"type:text;serializer:json" json:"socialMedia"`
	// UserID is nil for generic fallback shops. The unique index is what
	// keeps a user at one shop when requests race.
	UserID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShopWithOwner is a shop together with its owner's public fields.
type ShopWithOwner struct {
	Shop
	Owner *UserSummary `json:"owner,omitempty"`
}

// ShopSummary is the shop projection embedded in product lookups.
type ShopSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

func (s *Shop) Summary() ShopSummary {
	return ShopSummary{ID: s.ID, Name: s.Name, Address: s.Address}
}

// NewDefaultShop builds the placeholder shop provisioned for a user who has
// none yet.
func NewDefaultShop(owner *User) *Shop {
	ownerID := owner.ID
	return &Shop{
		ID:              uuid.New(),
		Name:            fmt.Sprintf("%s's Shop", owner.Username),
		Address:         DefaultShopAddress,
		PhoneNumber:     PlaceholderPhoneNumber,
		ZipCode:         PlaceholderZipCode,
		SelectedService: DefaultSelectedService,
		UserID:          &ownerID,
	}
}

// NewGenericShop builds an ownerless shop for products created without any
// shop or user context.
func NewGenericShop() *Shop {
	return &Shop{
		ID:              uuid.New(),
		Name:            GenericShopName,
		Address:         GenericShopAddress,
		PhoneNumber:     PlaceholderPhoneNumber,
		ZipCode:         PlaceholderZipCode,
		SelectedService: DefaultSelectedService,
	}
}
