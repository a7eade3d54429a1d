package services

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-site-backend/auth"
	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// TokenIssuer signs session tokens for a logged-in admin.
type TokenIssuer interface {
	Issue(admin models.Admin) (string, error)
}

// AdminService manages locally registered admins.
type AdminService struct {
	store  AdminStore
	issuer TokenIssuer
	logger zerolog.Logger
}

// NewAdminService wires the store and issuer. issuer may be nil when only Create is used.
func NewAdminService(store AdminStore, issuer TokenIssuer) *AdminService {
	return &AdminService{
		store:  store,
		issuer: issuer,
		logger: log.With().Str("serviceName", "adminService").Logger(),
	}
}

// Register creates the first admin. Once one exists registration is closed.
func (s *AdminService) Register(ctx context.Context, email, password string) (*models.Admin, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("count", "admins", err)
	}
	if count > 0 {
		return nil, errs.NewForbiddenError("registration is closed")
	}

	admin, err := newAdmin(email, password)
	if err != nil {
		return nil, err
	}
	// the count above is only a shortcut; AddFirst decides who wins a race
	err = s.store.AddFirst(ctx, admin)
	if errors.Is(err, errs.ErrAlreadyExists) {
		return nil, errs.NewForbiddenError("registration is closed")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("create", "admin", err)
	}

	s.logger.Info().Str("email", admin.Email).Msg("first admin registered")
	return admin, nil
}

// Create adds an admin regardless of how many already exist.
func (s *AdminService) Create(ctx context.Context, email, password string) (*models.Admin, error) {
	admin, err := newAdmin(email, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, admin); err != nil {
		return nil, errs.NewDatabaseError("create", "admin", err)
	}

	s.logger.Info().Str("email", admin.Email).Msg("admin created")
	return admin, nil
}

func newAdmin(email, password string) (*models.Admin, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, errs.NewMissingRequiredFieldError("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errs.NewInvalidFieldError("email", "must be a valid email address")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("could not hash password", err)
	}
	return &models.Admin{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Login checks credentials and returns a signed token. Unknown emails and wrong passwords
// fail the same way.
func (s *AdminService) Login(ctx context.Context, email, password string) (string, error) {
	if s.issuer == nil {
		return "", errs.NewUnavailableError("local login is disabled")
	}

	admin, err := s.store.FindByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, errs.ErrNotFound) {
		return "", errs.NewBadLoginError()
	}
	if err != nil {
		return "", errs.NewDatabaseError("find", "admin", err)
	}

	if !auth.CheckPassword(admin.PasswordHash, password) {
		return "", errs.NewBadLoginError()
	}

	token, err := s.issuer.Issue(*admin)
	if err != nil {
		return "", errs.NewInternalErrorWithCause("could not issue token", err)
	}
	return token, nil
}
