package mongostore

import (
	"context"
	"time"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Description   string    `bson:"description"`
	Category      string    `bson:"category"`
	Tags          string    `bson:"tags"`
	OriginalPrice *float64  `bson:"originalPrice"`
	DiscountPrice float64   `bson:"discountPrice"`
	Stock         int       `bson:"stock"`
	Image         string    `bson:"image"`
	ShopID        string    `bson:"shopId"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func toProductDoc(p *models.Product) productDoc {
	return productDoc{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Tags:          p.Tags,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		Stock:         p.Stock,
		Image:         p.Image,
		ShopID:        p.ShopID.String(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d productDoc) toModel() (*models.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	shopID, err := uuid.Parse(d.ShopID)
	if err != nil {
		return nil, err
	}
	return &models.Product{
		ID:            id,
		Name:          d.Name,
		Description:   d.Description,
		Category:      d.Category,
		Tags:          d.Tags,
		OriginalPrice: d.OriginalPrice,
		DiscountPrice: d.DiscountPrice,
		Stock:         d.Stock,
		Image:         d.Image,
		ShopID:        shopID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

type ProductRepository struct {
	products *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{products: db.Collection(ProductsCollection)}
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	stamp(&product.CreatedAt, &product.UpdatedAt)

	_, err := r.products.InsertOne(ctx, toProductDoc(product))
	return err
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	stamp(&product.CreatedAt, &product.UpdatedAt)

	_, err := r.products.ReplaceOne(ctx, bson.M{"_id": product.ID.String()}, toProductDoc(product))
	return err
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var doc productDoc
	if err := r.products.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *ProductRepository) GetProductsByShopID(ctx context.Context, shopID uuid.UUID) ([]*models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.products.Find(ctx, bson.M{"shopId": shopID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	products := make([]*models.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := r.products.DeleteOne(ctx, bson.M{"_id": id.String()})
	return err
}
