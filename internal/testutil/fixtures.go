package testutil

import (
	"testing"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/Baaaki/procurehub/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// FastBcryptCost keeps fixture hashing cheap.
const FastBcryptCost = bcrypt.MinCost

// CreateTestUser inserts a user with a hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB, username, email, password string, userType models.UserType) *models.User {
	hashedPassword, err := utils.HashPassword(password, FastBcryptCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		Password:       hashedPassword,
		ProfilePicture: models.DefaultProfilePicture,
		UserType:       userType,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// DefaultRetailer returns a retailer without a shop.
func DefaultRetailer(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "retailer", "retailer@example.com", "Retail123", models.UserTypeRetailer)
}

// DefaultCustomer returns a plain customer.
func DefaultCustomer(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "customer", "customer@example.com", "Customer123", models.UserTypeCustomer)
}

// CreateTestShop inserts a shop owned by owner (nil for an ownerless shop).
func CreateTestShop(t *testing.T, db *gorm.DB, name string, owner *models.User) *models.Shop {
	shop := &models.Shop{
		ID:          uuid.New(),
		Name:        name,
		Address:     "1 Market Street",
		PhoneNumber: "+91-9999999999",
	}
	if owner != nil {
		ownerID := owner.ID
		shop.UserID = &ownerID
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("Failed to create test shop: %v", err)
	}
	return shop
}

// CreateTestProduct inserts a product in shop.
func CreateTestProduct(t *testing.T, db *gorm.DB, shop *models.Shop, name, image string) *models.Product {
	original := 150.0
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   "Test product",
		Category:      "Electronics",
		OriginalPrice: &original,
		DiscountPrice: 100,
		Stock:         5,
		Image:         image,
		ShopID:        shop.ID,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}
