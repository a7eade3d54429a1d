package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// Claims carries the admin behind a locally issued token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer signs and verifies HS256 tokens for local admins.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a token for admin.
func (j *JWTIssuer) Issue(admin models.Admin) (string, error) {
	now := j.now()
	claims := &Claims{
		Email: admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Verify parses and validates a token.
func (j *JWTIssuer) Verify(_ context.Context, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Identity{}, errs.NewExpiredTokenError()
	}
	if err != nil {
		return Identity{}, errs.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, errs.NewInvalidTokenError()
	}
	return Identity{Subject: claims.Subject, Email: claims.Email}, nil
}
