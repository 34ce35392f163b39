package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/models"
	"github.com/Baaaki/procurehub/internal/repository"
	"github.com/Baaaki/procurehub/internal/utils"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgShopFieldsRequired = "Name, address, phone number, and user ID are required"
	msgOnlyRetailers      = "Only retailers can create shops"
	msgUserTypeUnset      = "User type is not set for this account"
	msgAlreadyHasShop     = "User already has a shop"
	msgShopNotFound       = "Shop not found"
	msgNoShopForUser      = "No shop found for this user."
)

// ResolutionKind tags how ResolveShop obtained the shop.
type ResolutionKind int

const (
	// UseExisting: the caller named a shop, or the user already owns one.
	UseExisting ResolutionKind = iota + 1
	// Provisioned: a default shop was created for the user.
	Provisioned
	// Fallback: an ownerless generic shop was created.
	Fallback
)

func (k ResolutionKind) String() string {
	switch k {
	case UseExisting:
		return "use_existing"
	case Provisioned:
		return "provisioned"
	case Fallback:
		return "fallback"
	}
	return "unknown"
}

type ShopResolution struct {
	Kind ResolutionKind
	Shop *models.Shop
}

type ShopService struct {
	users     repository.UserStore
	shops     repository.ShopStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewShopService(users repository.UserStore, shops repository.ShopStore, jwtSecret string, tokenTTL time.Duration) *ShopService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &ShopService{users: users, shops: shops, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type CreateShopInput struct {
	Name            string `validate:"required"`
	Address         string `validate:"required"`
	PhoneNumber     string `validate:"required"`
	ZipCode         string
	Website         string
	SelectedService string
	SocialMedia     models.SocialMedia
	UserID          string `validate:"required"`
}

type CreateShopResult struct {
	Shop  *models.Shop
	Token string
}

func (s *ShopService) CreateShop(ctx context.Context, in CreateShopInput) (*CreateShopResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.UserID = strings.TrimSpace(in.UserID)

	if err := validate.Struct(in); err != nil {
		logger.Log.Warn("Shop creation validation failed", zap.Error(err))
		return nil, apperr.Validation(msgShopFieldsRequired)
	}

	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to load shop owner", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, apperr.Internal("Failed to create shop", err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}

	switch {
	case user.UserType == "":
		// legacy account; the user-type migration has not run yet
		logger.Log.Warn("Shop creation for user without userType", zap.String("user_id", in.UserID))
		return nil, apperr.Forbidden(msgUserTypeUnset)
	case user.UserType != models.UserTypeRetailer:
		logger.Log.Warn("Non-retailer attempted shop creation",
			zap.String("user_id", in.UserID),
			zap.String("user_type", string(user.UserType)),
		)
		return nil, apperr.Forbidden(msgOnlyRetailers)
	}

	existing, err := s.shops.GetShopByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to create shop", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(msgAlreadyHasShop)
	}

	shop := &models.Shop{
		ID:              uuid.New(),
		Name:            in.Name,
		Address:         in.Address,
		PhoneNumber:     in.PhoneNumber,
		ZipCode:         strings.TrimSpace(in.ZipCode),
		Website:         strings.TrimSpace(in.Website),
		SelectedService: strings.TrimSpace(in.SelectedService),
		SocialMedia:     in.SocialMedia,
		UserID:          &userID,
	}

	if err := s.shops.CreateShop(ctx, shop); err != nil {
		// the unique owner index caught a concurrent create
		if errors.Is(err, repository.ErrDuplicateKey) {
			logger.Log.Warn("Concurrent shop creation rejected", zap.String("user_id", in.UserID))
			return nil, apperr.Conflict(msgAlreadyHasShop)
		}
		logger.Log.Error("Failed to persist shop", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, apperr.Internal("Failed to create shop", err)
	}

	if err := s.users.MarkShopCreated(ctx, userID, models.UserTypeRetailer); err != nil {
		logger.Log.Error("Failed to flag shop owner", zap.String("user_id", in.UserID), zap.Error(err))
		return nil, apperr.Internal("Failed to create shop", err)
	}

	token, err := utils.GenerateShopToken(shop.ID, userID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal("Failed to create shop", err)
	}

	logger.Log.Info("Shop created",
		zap.String("shop_id", shop.ID.String()),
		zap.String("user_id", in.UserID),
	)
	return &CreateShopResult{Shop: shop, Token: token}, nil
}

func (s *ShopService) GetShopByUserID(ctx context.Context, rawUserID string) (*models.ShopWithOwner, error) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, apperr.NotFound(msgNoShopForUser)
	}

	shop, err := s.shops.GetShopByUserID(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to load shop", zap.String("user_id", rawUserID), zap.Error(err))
		return nil, apperr.Internal("Failed to fetch shop", err)
	}
	if shop == nil {
		return nil, apperr.NotFound(msgNoShopForUser)
	}

	result := &models.ShopWithOwner{Shop: *shop}
	owner, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch shop", err)
	}
	if owner != nil {
		summary := owner.Summary()
		result.Owner = &summary
	}
	return result, nil
}

// ResolveShop decides which shop a new product belongs to. An explicit
// shopID wins; otherwise the user's shop is used or provisioned; with
// neither, a generic shop is created.
func (s *ShopService) ResolveShop(ctx context.Context, rawShopID, rawUserID string) (*ShopResolution, error) {
	rawShopID = strings.TrimSpace(rawShopID)
	rawUserID = strings.TrimSpace(rawUserID)

	switch {
	case rawShopID != "":
		return s.resolveExplicit(ctx, rawShopID)
	case rawUserID != "":
		return s.resolveForUser(ctx, rawUserID)
	default:
		return s.provisionGeneric(ctx)
	}
}

func (s *ShopService) resolveExplicit(ctx context.Context, rawShopID string) (*ShopResolution, error) {
	shopID, err := uuid.Parse(rawShopID)
	if err != nil {
		return nil, apperr.Validation(msgShopNotFound)
	}
	shop, err := s.shops.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, apperr.Internal("Failed to resolve shop", err)
	}
	if shop == nil {
		return nil, apperr.Validation(msgShopNotFound)
	}
	return &ShopResolution{Kind: UseExisting, Shop: shop}, nil
}

func (s *ShopService) resolveForUser(ctx context.Context, rawUserID string) (*ShopResolution, error) {
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}

	shop, err := s.shops.GetShopByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to resolve shop", err)
	}
	if shop != nil {
		return &ShopResolution{Kind: UseExisting, Shop: shop}, nil
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to resolve shop", err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}

	shop = models.NewDefaultShop(user)
	if err := s.shops.CreateShop(ctx, shop); err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) {
			logger.Log.Error("Failed to provision default shop", zap.String("user_id", rawUserID), zap.Error(err))
			return nil, apperr.Internal("Failed to resolve shop", err)
		}
		// another request provisioned it first; use theirs
		winner, lookupErr := s.shops.GetShopByUserID(ctx, userID)
		if lookupErr != nil || winner == nil {
			return nil, apperr.Internal("Failed to resolve shop", errors.Join(err, lookupErr))
		}
		return &ShopResolution{Kind: UseExisting, Shop: winner}, nil
	}

	if err := s.users.MarkShopCreated(ctx, userID, ""); err != nil {
		logger.Log.Error("Failed to flag provisioned shop owner", zap.String("user_id", rawUserID), zap.Error(err))
		return nil, apperr.Internal("Failed to resolve shop", err)
	}

	logger.Log.Info("Default shop provisioned",
		zap.String("shop_id", shop.ID.String()),
		zap.String("user_id", rawUserID),
	)
	return &ShopResolution{Kind: Provisioned, Shop: shop}, nil
}

func (s *ShopService) provisionGeneric(ctx context.Context) (*ShopResolution, error) {
	shop := models.NewGenericShop()
	if err := s.shops.CreateShop(ctx, shop); err != nil {
		logger.Log.Error("Failed to create generic shop", zap.Error(err))
		return nil, apperr.Internal("Failed to resolve shop", err)
	}
	logger.Log.Info("Generic shop created", zap.String("shop_id", shop.ID.String()))
	return &ShopResolution{Kind: Fallback, Shop: shop}, nil
}

// GetShopByID is used by the catalog to populate product lookups.
func (s *ShopService) GetShopByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	return s.shops.GetShopByID(ctx, id)
}
