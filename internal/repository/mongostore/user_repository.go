package mongostore

import (
	"context"
	"time"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDoc struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	Password       string    `bson:"password"`
	ProfilePicture string    `bson:"profilePicture"`
	UserType       string    `bson:"userType,omitempty"`
	IsShopCreated  bool      `bson:"isShopCreated"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		Password:       u.Password,
		ProfilePicture: u.ProfilePicture,
		UserType:       string(u.UserType),
		IsShopCreated:  u.IsShopCreated,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (d userDoc) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:             id,
		Username:       d.Username,
		Email:          d.Email,
		Password:       d.Password,
		ProfilePicture: d.ProfilePicture,
		UserType:       models.UserType(d.UserType),
		IsShopCreated:  d.IsShopCreated,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

// missingUserType matches legacy documents without a usable userType.
var missingUserType = bson.M{"$or": bson.A{
	bson.M{"userType": bson.M{"$exists": false}},
	bson.M{"userType": nil},
	bson.M{"userType": ""},
}}

type UserRepository struct {
	users *mongo.Collection
	shops *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users: db.Collection(UsersCollection),
		shops: db.Collection(ShopsCollection),
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)

	_, err := r.users.InsertOne(ctx, toUserDoc(user))
	return translateError(err)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *UserRepository) MarkShopCreated(ctx context.Context, id uuid.UUID, userType models.UserType) error {
	set := bson.M{"isShopCreated": true, "updatedAt": time.Now().UTC()}
	if userType != "" {
		set["userType"] = string(userType)
	}
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	return err
}

func (r *UserRepository) BackfillUserTypes(ctx context.Context) (int64, int64, error) {
	owners, err := r.shops.Distinct(ctx, "userId", bson.M{"userId": bson.M{"$type": "string"}})
	if err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	var retailers int64
	if len(owners) > 0 {
		res, err := r.users.UpdateMany(ctx,
			bson.M{"$and": bson.A{missingUserType, bson.M{"_id": bson.M{"$in": owners}}}},
			bson.M{"$set": bson.M{
				"userType":      string(models.UserTypeRetailer),
				"isShopCreated": true,
				"updatedAt":     now,
			}},
		)
		if err != nil {
			return 0, 0, err
		}
		retailers = res.ModifiedCount
	}

	res, err := r.users.UpdateMany(ctx, missingUserType, bson.M{"$set": bson.M{
		"userType":      string(models.UserTypeCustomer),
		"isShopCreated": false,
		"updatedAt":     now,
	}})
	if err != nil {
		return retailers, 0, err
	}

	return retailers, res.ModifiedCount, nil
}
