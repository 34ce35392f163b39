package service

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/models"
	"github.com/Baaaki/procurehub/internal/repository"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgProductFieldsRequired = "Missing required fields: name, description, category, and discountPrice are required"
	msgInvalidCategory       = "Invalid category"
	msgProductNotFound       = "Product not found"
	msgUploadFailed          = "Failed to upload image"

	productImageFolder = "products"
)

// ImageStore persists uploaded product images and returns the stored name.
type ImageStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}

// Upload is an optional image attached to a create or update request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProductInput carries catalog fields as the client sent them. Numbers
// arrive as text from multipart forms, so coercion happens here.
type ProductInput struct {
	Name          string `validate:"required"`
	Description   string `validate:"required"`
	Category      string `validate:"required,product_category"`
	Tags          string
	OriginalPrice string
	DiscountPrice string `validate:"required"`
	Stock         string
	ShopID        string
	UserID        string
}

type productFields struct {
	name          string
	description   string
	category      string
	tags          string
	originalPrice *float64
	discountPrice float64
	stock         int
}

type ProductService struct {
	products repository.ProductStore
	shops    *ShopService
	images   ImageStore
}

func NewProductService(products repository.ProductStore, shops *ShopService, images ImageStore) *ProductService {
	return &ProductService{products: products, shops: shops, images: images}
}

type CreateProductResult struct {
	Product    *models.Product
	Resolution ResolutionKind
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput, upload *Upload) (*CreateProductResult, error) {
	start := time.Now()

	fields, err := parseProductInput(in)
	if err != nil {
		logger.Log.Warn("Product validation failed", zap.String("name", in.Name), zap.Error(err))
		return nil, err
	}

	resolution, err := s.shops.ResolveShop(ctx, in.ShopID, in.UserID)
	if err != nil {
		return nil, err
	}

	image, err := s.saveImage(ctx, upload)
	if err != nil {
		return nil, err
	}

	product := &models.Product{ID: uuid.New(), ShopID: resolution.Shop.ID, Image: image}
	fields.apply(product)

	if err := s.products.CreateProduct(ctx, product); err != nil {
		logger.Log.Error("Failed to persist product", zap.String("name", product.Name), zap.Error(err))
		return nil, apperr.Internal("Server error while creating product", err)
	}

	logger.Log.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("shop_id", product.ShopID.String()),
		zap.Stringer("shop_resolution", resolution.Kind),
		zap.Duration("total_duration", time.Since(start)),
	)
	return &CreateProductResult{Product: product, Resolution: resolution.Kind}, nil
}

// UpdateProduct replaces the catalog fields of a product. The stored image
// changes only when a new upload is supplied; the shop never changes.
func (s *ProductService) UpdateProduct(ctx context.Context, rawID string, in ProductInput, upload *Upload) (*models.Product, error) {
	fields, err := parseProductInput(in)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.NotFound(msgProductNotFound)
	}

	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Server error while updating product", err)
	}
	if product == nil {
		return nil, apperr.NotFound(msgProductNotFound)
	}

	image, err := s.saveImage(ctx, upload)
	if err != nil {
		return nil, err
	}
	if image != "" {
		product.Image = image
	}
	fields.apply(product)

	if err := s.products.UpdateProduct(ctx, product); err != nil {
		logger.Log.Error("Failed to update product", zap.String("product_id", rawID), zap.Error(err))
		return nil, apperr.Internal("Server error while updating product", err)
	}

	logger.Log.Info("Product updated", zap.String("product_id", rawID))
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, rawID string) (*models.ProductWithShop, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.NotFound(msgProductNotFound + ".")
	}

	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("An error occurred while fetching the product.", err)
	}
	if product == nil {
		return nil, apperr.NotFound(msgProductNotFound + ".")
	}

	result := &models.ProductWithShop{Product: *product}
	shop, err := s.shops.GetShopByID(ctx, product.ShopID)
	if err != nil {
		return nil, apperr.Internal("An error occurred while fetching the product.", err)
	}
	if shop != nil {
		summary := shop.Summary()
		result.Shop = &summary
	}
	return result, nil
}

// GetShopProducts lists a shop's products. An unknown or malformed shop id
// yields an empty list.
func (s *ProductService) GetShopProducts(ctx context.Context, rawShopID string) ([]*models.Product, error) {
	shopID, err := uuid.Parse(rawShopID)
	if err != nil {
		return []*models.Product{}, nil
	}

	products, err := s.products.GetProductsByShopID(ctx, shopID)
	if err != nil {
		logger.Log.Error("Failed to list shop products", zap.String("shop_id", rawShopID), zap.Error(err))
		return nil, apperr.Internal("An error occurred while fetching shop products.", err)
	}
	return products, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.NotFound(msgProductNotFound + ".")
	}

	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("An error occurred while deleting the product.", err)
	}
	if product == nil {
		return nil, apperr.NotFound(msgProductNotFound + ".")
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		logger.Log.Error("Failed to delete product", zap.String("product_id", rawID), zap.Error(err))
		return nil, apperr.Internal("An error occurred while deleting the product.", err)
	}

	logger.Log.Info("Product deleted", zap.String("product_id", rawID))
	return product, nil
}

func (s *ProductService) saveImage(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil || upload.Content == nil {
		return "", nil
	}
	name, err := s.images.Save(ctx, productImageFolder, upload.Filename, upload.Content)
	if err != nil {
		logger.Log.Error("Image upload failed", zap.String("filename", upload.Filename), zap.Error(err))
		return "", apperr.Internal(msgUploadFailed, err).Exposed()
	}
	return name, nil
}

func (f productFields) apply(p *models.Product) {
	p.Name = f.name
	p.Description = f.description
	p.Category = f.category
	p.Tags = f.tags
	p.OriginalPrice = f.originalPrice
	p.DiscountPrice = f.discountPrice
	p.Stock = f.stock
}

func parseProductInput(in ProductInput) (*productFields, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.DiscountPrice = strings.TrimSpace(in.DiscountPrice)

	if err := validate.Struct(in); err != nil {
		if hasTag(err, "required") {
			return nil, apperr.Validation(msgProductFieldsRequired)
		}
		return nil, apperr.Validation(msgInvalidCategory)
	}

	discount, err := parseAmount(in.DiscountPrice)
	if err != nil {
		return nil, apperr.Validation("discountPrice must be a non-negative number")
	}

	var original *float64
	if raw := strings.TrimSpace(in.OriginalPrice); !isBlank(raw) {
		v, err := parseAmount(raw)
		if err != nil {
			return nil, apperr.Validation("originalPrice must be a non-negative number")
		}
		original = &v
	}
	if original != nil && *original < discount {
		return nil, apperr.Validation("originalPrice must be greater than or equal to discountPrice")
	}

	stock := 0
	if raw := strings.TrimSpace(in.Stock); !isBlank(raw) {
		stock, err = parseStock(raw)
		if err != nil {
			return nil, apperr.Validation("stock must be a non-negative whole number")
		}
	}

	return &productFields{
		name:          in.Name,
		description:   in.Description,
		category:      in.Category,
		tags:          strings.TrimSpace(in.Tags),
		originalPrice: original,
		discountPrice: discount,
		stock:         stock,
	}, nil
}

// isBlank treats the literal strings browsers send for unset form values as
// absent.
func isBlank(raw string) bool {
	return raw == "" || raw == "null" || raw == "undefined"
}

func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// parseStock accepts integers and truncates decimals ("12.7" is 12).
func parseStock(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, strconv.ErrRange
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}
