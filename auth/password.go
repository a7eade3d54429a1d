package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rpupo63/portfolio-site-backend/errs"
)

const (
	minPasswordLen = 8
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordBytes = 72
)

// ValidatePassword enforces the length bounds for new admin passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return errs.NewMissingRequiredFieldError("password")
	}
	if len(password) < minPasswordLen {
		return errs.NewInvalidFieldError("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if len(password) > maxPasswordBytes {
		return errs.NewInvalidFieldError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
