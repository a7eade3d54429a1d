package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Admin is a locally registered administrator allowed to edit the site.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NormalizeEmail is the canonical form used for lookups and comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
