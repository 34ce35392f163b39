package handler

import (
	"net/http"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/models"
	"github.com/Baaaki/procurehub/internal/service"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShopHandler struct {
	shopService *service.ShopService
}

func NewShopHandler(shopService *service.ShopService) *ShopHandler {
	return &ShopHandler{shopService: shopService}
}

type CreateShopRequest struct {
	Name            string             `json:"name"`
	Address         string             `json:"address"`
	PhoneNumber     string             `json:"phoneNumber"`
	ZipCode         string             `json:"zipCode"`
	Website         string             `json:"website"`
	SelectedService string             `json:"selectedService"`
	SocialMedia     models.SocialMedia `json:"socialMedia"`
	UserID          string             `json:"userId"`
}

func (h *ShopHandler) CreateShop(c *gin.Context) {
	var req CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Create shop request parsing failed", zap.Error(err))
		_ = c.Error(apperr.Validation(msgInvalidBody))
		return
	}

	result, err := h.shopService.CreateShop(c.Request.Context(), service.CreateShopInput{
		Name:            req.Name,
		Address:         req.Address,
		PhoneNumber:     req.PhoneNumber,
		ZipCode:         req.ZipCode,
		Website:         req.Website,
		SelectedService: req.SelectedService,
		SocialMedia:     req.SocialMedia,
		UserID:          req.UserID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	shop := result.Shop
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Shop created successfully",
		"token":   result.Token,
		"shop": gin.H{
			"id":              shop.ID,
			"name":            shop.Name,
			"address":         shop.Address,
			"phoneNumber":     shop.PhoneNumber,
			"zipCode":         shop.ZipCode,
			"website":         shop.Website,
			"selectedService": shop.SelectedService,
			"socialMedia":     shop.SocialMedia,
			"userId":          shop.UserID,
		},
	})
}

func (h *ShopHandler) GetShopInfo(c *gin.Context) {
	shop, err := h.shopService.GetShopByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"shop":    shop,
	})
}
