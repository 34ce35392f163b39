package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims identify a session. The subject is the user id and the jti lets a
// signed-out token be denylisted until it expires.
type Claims struct {
	UserID uuid.UUID `json:"id"`
	jwt.RegisteredClaims
}

// ShopClaims are carried by the token issued on shop creation.
type ShopClaims struct {
	ShopID uuid.UUID `json:"shopId"`
	UserID uuid.UUID `json:"userId"`
	jwt.RegisteredClaims
}

func registered(subject string, expiresIn time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func GenerateToken(userID uuid.UUID, secretKey string, expiresIn time.Duration) (string, error) {
	claims := &Claims{
		UserID:           userID,
		RegisteredClaims: registered(userID.String(), expiresIn),
	}
	return sign(claims, secretKey)
}

func GenerateShopToken(shopID, userID uuid.UUID, secretKey string, expiresIn time.Duration) (string, error) {
	claims := &ShopClaims{
		ShopID:           shopID,
		UserID:           userID,
		RegisteredClaims: registered(shopID.String(), expiresIn),
	}
	return sign(claims, secretKey)
}

func sign(claims jwt.Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, secretKey, claims); err != nil {
		return nil, err
	}
	if claims.Subject != "" && claims.Subject != claims.UserID.String() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ValidateShopToken(tokenString, secretKey string) (*ShopClaims, error) {
	claims := &ShopClaims{}
	if err := parse(tokenString, secretKey, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(tokenString, secretKey string, claims jwt.Claims) error {
	if secretKey == "" {
		return ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			// Verify signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(secretKey), nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
