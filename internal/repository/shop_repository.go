package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// CreateShop returns ErrDuplicateKey when the owner already has a shop.
func (r *ShopRepository) CreateShop(ctx context.Context, shop *models.Shop) error {
	return translateError(r.db.WithContext(ctx).Create(shop).Error)
}

func (r *ShopRepository) GetShopByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ShopRepository) GetShopByUserID(ctx context.Context, userID uuid.UUID) (*models.Shop, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *ShopRepository) first(ctx context.Context, query string, arg interface{}) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Where(query, arg).First(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shop, nil
}
