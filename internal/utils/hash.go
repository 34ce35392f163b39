package utils

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

// HashPassword hashes password with bcrypt at the given cost. Costs outside
// bcrypt's range fall back to DefaultBcryptCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. A mismatch is
// (false, nil); a malformed hash is an error.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomString returns n characters drawn from [0-9a-z] using crypto/rand.
func RandomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = base36[idx.Int64()]
	}
	return string(out), nil
}
