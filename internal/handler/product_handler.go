package handler

import (
	"errors"
	"net/http"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/service"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const imageField = "image"

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest binds from either JSON or multipart form fields.
type ProductRequest struct {
	Name          FlexString `json:"name" form:"name"`
	Description   FlexString `json:"description" form:"description"`
	Category      FlexString `json:"category" form:"category"`
	Tags          FlexString `json:"tags" form:"tags"`
	OriginalPrice FlexString `json:"originalPrice" form:"originalPrice"`
	DiscountPrice FlexString `json:"discountPrice" form:"discountPrice"`
	Stock         FlexString `json:"stock" form:"stock"`
	ShopID        FlexString `json:"shopId" form:"shopId"`
	UserID        FlexString `json:"userId" form:"userId"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name.String(),
		Description:   r.Description.String(),
		Category:      r.Category.String(),
		Tags:          r.Tags.String(),
		OriginalPrice: r.OriginalPrice.String(),
		DiscountPrice: r.DiscountPrice.String(),
		Stock:         r.Stock.String(),
		ShopID:        r.ShopID.String(),
		UserID:        r.UserID.String(),
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, upload, closeUpload, err := bindProductRequest(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer closeUpload()

	result, err := h.productService.CreateProduct(c.Request.Context(), req.input(), upload)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product created successfully!",
		"product": result.Product,
	})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	req, upload, closeUpload, err := bindProductRequest(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer closeUpload()

	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("id"), req.input(), upload)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully!",
		"product": product,
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("productId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"product": product,
	})
}

func (h *ProductHandler) GetShopProducts(c *gin.Context) {
	products, err := h.productService.GetShopProducts(c.Request.Context(), c.Param("shopId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": products,
		"count":    len(products),
	})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	product, err := h.productService.DeleteProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted successfully.",
		"product": product,
	})
}

// bindProductRequest reads the catalog fields and, for multipart requests,
// the optional image. The returned func closes the upload.
func bindProductRequest(c *gin.Context) (*ProductRequest, *service.Upload, func(), error) {
	noop := func() {}

	var req ProductRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Log.Warn("Product request parsing failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		return nil, nil, noop, apperr.Validation(msgInvalidBody)
	}

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return &req, nil, noop, nil
	}

	header, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return &req, nil, noop, nil
	}
	if err != nil {
		return nil, nil, noop, apperr.Validation("Invalid image upload")
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, noop, apperr.Internal("Failed to upload image", err).Exposed()
	}

	upload := &service.Upload{Filename: header.Filename, Content: file}
	return &req, upload, func() { _ = file.Close() }, nil
}
