package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categories is the closed set a product may belong to.
var Categories = []string{
	"Electronics",
	"Medical",
	"Construction",
	"Office Supplies",
	"Food & Beverages",
	"Clothing",
	"Other",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Category      string    `gorm:"type:varchar(50);not null;index" json:"category"`
	Tags          string    `gorm:"type:text" json:"tags"`
	OriginalPrice *float64  `json:"originalPrice"`
	DiscountPrice float64   `gorm:"not null" json:"discountPrice"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	Image         string    `gorm:"type:text" json:"image"`
	ShopID        uuid.UUID `gorm:"type:uuid;not null;index" json:"shopId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductWithShop is a product with its shop's name and address.
type ProductWithShop struct {
	Product
	Shop *ShopSummary `json:"shop,omitempty"`
}
