package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/Baaaki/procurehub/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when a write violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError names the field whose unique index was violated when the
// driver reports it.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return ErrDuplicateKey.Error() + " on " + e.Field
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// DuplicateField returns the field behind a duplicate-key error, or "".
func DuplicateField(err error) string {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup.Field
	}
	return ""
}

// Lookups return (nil, nil) when no record matches.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// MarkShopCreated sets isShopCreated; a non-empty userType is written too.
	MarkShopCreated(ctx context.Context, id uuid.UUID, userType models.UserType) error
	// BackfillUserTypes assigns a userType to every user missing one: shop
	// owners become retailers, everyone else customers.
	BackfillUserTypes(ctx context.Context) (retailers, customers int64, err error)
}

type ShopStore interface {
	CreateShop(ctx context.Context, shop *models.Shop) error
	GetShopByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
	GetShopByUserID(ctx context.Context, userID uuid.UUID) (*models.Shop, error)
}

type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductsByShopID(ctx context.Context, shopID uuid.UUID) ([]*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// Store bundles the three stores a backend provides.
type Store struct {
	Users    UserStore
	Shops    ShopStore
	Products ProductStore
}

// NewGormStore wires the SQL repositories onto db.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Shops:    NewShopRepository(db),
		Products: NewProductRepository(db),
	}
}

// translateError maps driver unique-violation errors onto ErrDuplicateKey.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed") {
		return &DuplicateKeyError{Field: FieldFromMessage(msg), Err: err}
	}
	return err
}

// Patterns that isolate the violated index or constraint name. The rest of
// a driver message can echo the duplicated value, so only the name is read.
var indexNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`index: (\S+) dup key`),               // MongoDB E11000
	regexp.MustCompile(`unique constraint "([^"]+)"`),        // PostgreSQL
	regexp.MustCompile(`UNIQUE constraint failed: ([\w.]+)`), // SQLite
}

// FieldFromMessage names the field behind a unique-index violation reported
// by any supported driver, or "" when the index is unknown.
func FieldFromMessage(msg string) string {
	for _, re := range indexNamePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			return fieldFromIndexName(m[1])
		}
	}
	return ""
}

// fieldFromIndexName maps index names such as idx_users_email, username_1,
// users.email or idx_shops_user_id onto model fields.
func fieldFromIndexName(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "username"):
		return "username"
	case strings.Contains(name, "email"):
		return "email"
	case strings.Contains(name, "user_id"), strings.Contains(name, "userid"):
		return "userId"
	}
	return ""
}
