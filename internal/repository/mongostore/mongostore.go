// Package mongostore implements the repository stores on MongoDB. Documents
// keep string ids so records stay readable from the mongo shell.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Baaaki/procurehub/internal/repository"
	"github.com/Baaaki/procurehub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	UsersCollection    = "users"
	ShopsCollection    = "shops"
	ProductsCollection = "products"
)

// Connect dials and pings the cluster at uri.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Log.Info("MongoDB connected successfully")
	return client, nil
}

func Disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes the stores rely on. The shop
// owner index is partial so ownerless generic shops never collide.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_1").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_1").SetUnique(true),
		},
	}
	if _, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	shopIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("userId_1").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"userId": bson.M{"$type": "string"}}),
	}
	if _, err := db.Collection(ShopsCollection).Indexes().CreateOne(ctx, shopIndex); err != nil {
		return fmt.Errorf("create shop indexes: %w", err)
	}

	productIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "shopId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("shopId_createdAt"),
	}
	if _, err := db.Collection(ProductsCollection).Indexes().CreateOne(ctx, productIndex); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}

	logger.Log.Info("MongoDB indexes ensured", zap.String("database", db.Name()))
	return nil
}

// NewStore wires the document repositories onto db.
func NewStore(db *mongo.Database) *repository.Store {
	return &repository.Store{
		Users:    NewUserRepository(db),
		Shops:    NewShopRepository(db),
		Products: NewProductRepository(db),
	}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return &repository.DuplicateKeyError{Field: repository.FieldFromMessage(err.Error()), Err: err}
	}
	return err
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func stamp(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
