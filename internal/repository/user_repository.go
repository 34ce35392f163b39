package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) MarkShopCreated(ctx context.Context, id uuid.UUID, userType models.UserType) error {
	updates := map[string]interface{}{"is_shop_created": true}
	if userType != "" {
		updates["user_type"] = userType
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *UserRepository) BackfillUserTypes(ctx context.Context) (int64, int64, error) {
	var retailers, customers int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners := tx.Model(&models.Shop{}).Select("user_id").Where("user_id IS NOT NULL")

		res := tx.Model(&models.User{}).
			Where("user_type IS NULL OR user_type = ''").
			Where("id IN (?)", owners).
			Updates(map[string]interface{}{
				"user_type":       models.UserTypeRetailer,
				"is_shop_created": true,
			})
		if res.Error != nil {
			return res.Error
		}
		retailers = res.RowsAffected

		res = tx.Model(&models.User{}).
			Where("user_type IS NULL OR user_type = ''").
			Updates(map[string]interface{}{
				"user_type":       models.UserTypeCustomer,
				"is_shop_created": false,
			})
		if res.Error != nil {
			return res.Error
		}
		customers = res.RowsAffected
		return nil
	})

	return retailers, customers, err
}
