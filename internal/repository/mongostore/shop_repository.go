package mongostore

import (
	"context"
	"time"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type socialMediaDoc struct {
	Facebook  string `bson:"facebook"`
	Instagram string `bson:"instagram"`
	Twitter   string `bson:"twitter"`
}

type shopDoc struct {
	ID              string         `bson:"_id"`
	Name            string         `bson:"name"`
	Address         string         `bson:"address"`
	PhoneNumber     string         `bson:"phoneNumber"`
	ZipCode         string         `bson:"zipCode"`
	Website         string         `bson:"website"`
	SelectedService string         `bson:"selectedService"`
	SocialMedia     socialMediaDoc `bson:"socialMedia"`
	UserID          *string        `bson:"userId,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt"`
}

func toShopDoc(s *models.Shop) shopDoc {
	doc := shopDoc{
		ID:              s.ID.String(),
		Name:            s.Name,
		Address:         s.Address,
		PhoneNumber:     s.PhoneNumber,
		ZipCode:         s.ZipCode,
		Website:         s.Website,
		SelectedService: s.SelectedService,
		SocialMedia: socialMediaDoc{
			Facebook:  s.SocialMedia.Facebook,
			Instagram: s.SocialMedia.Instagram,
			Twitter:   s.SocialMedia.Twitter,
		},
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.UserID != nil {
		owner := s.UserID.String()
		doc.UserID = &owner
	}
	return doc
}

func (d shopDoc) toModel() (*models.Shop, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	shop := &models.Shop{
		ID:              id,
		Name:            d.Name,
		Address:         d.Address,
		PhoneNumber:     d.PhoneNumber,
		ZipCode:         d.ZipCode,
		Website:         d.Website,
		SelectedService: d.SelectedService,
		SocialMedia: models.SocialMedia{
			Facebook:  d.SocialMedia.Facebook,
			Instagram: d.SocialMedia.Instagram,
			Twitter:   d.SocialMedia.Twitter,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.UserID != nil {
		owner, err := uuid.Parse(*d.UserID)
		if err != nil {
			return nil, err
		}
		shop.UserID = &owner
	}
	return shop, nil
}

type ShopRepository struct {
	shops *mongo.Collection
}

func NewShopRepository(db *mongo.Database) *ShopRepository {
	return &ShopRepository{shops: db.Collection(ShopsCollection)}
}

func (r *ShopRepository) CreateShop(ctx context.Context, shop *models.Shop) error {
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	stamp(&shop.CreatedAt, &shop.UpdatedAt)

	_, err := r.shops.InsertOne(ctx, toShopDoc(shop))
	return translateError(err)
}

func (r *ShopRepository) GetShopByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *ShopRepository) GetShopByUserID(ctx context.Context, userID uuid.UUID) (*models.Shop, error) {
	return r.findOne(ctx, bson.M{"userId": userID.String()})
}

func (r *ShopRepository) findOne(ctx context.Context, filter bson.M) (*models.Shop, error) {
	var doc shopDoc
	if err := r.shops.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel()
}
