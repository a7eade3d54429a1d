// Package auth verifies bearer tokens for the admin write routes and issues tokens for
// locally registered admins.
package auth

import (
	"context"
	"strings"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	Subject string
	Email   string
}

// Verifier checks a raw bearer token. Failures are *errs.ApiErr values: invalid or expired
// tokens are 401.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Gate combines a Verifier with the optional single-admin email restriction.
type Gate struct {
	verifier   Verifier
	adminEmail string
}

func NewGate(verifier Verifier, adminEmail string) *Gate {
	return &Gate{verifier: verifier, adminEmail: models.NormalizeEmail(adminEmail)}
}

// Authorize validates an Authorization header value.
func (g *Gate) Authorize(ctx context.Context, header string) (Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return Identity{}, errs.NewMissingTokenError()
	}

	id, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	if g.adminEmail != "" && models.NormalizeEmail(id.Email) != g.adminEmail {
		return Identity{}, errs.NewNotAdminError()
	}
	return id, nil
}

// BearerToken extracts the token from "Bearer <token>". The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
