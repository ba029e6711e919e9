package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns nil when the password matches the stored hash.
// Accounts created through federated login carry an empty hash and can
// never pass a local password check.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return errors.New("no local password set")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
