package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

type AdminRepo struct {
	db *gorm.DB
}

func NewAdminRepo(db *gorm.DB) *AdminRepo {
	return &AdminRepo{db}
}

// FindByEmail returns the admin registered under email
func (r *AdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var row adminRow
	err := r.db.WithContext(ctx).First(&row, "email = ?", models.NormalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("admin %s: %w", email, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	admin := row.toModel()
	return &admin, nil
}

// Add inserts a new admin
func (r *AdminRepo) Add(ctx context.Context, admin *models.Admin) error {
	admin.Email = models.NormalizeEmail(admin.Email)
	admin.CreatedAt = time.Now().UTC()

	row := adminRow{
		ID:           admin.ID,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("admin %s: %w", admin.Email, errs.ErrAlreadyExists)
	}
	return err
}

// AddFirst inserts admin only when the table is empty. Registrations racing past the
// count all claim first_admin and its unique index keeps one.
func (r *AdminRepo) AddFirst(ctx context.Context, admin *models.Admin) error {
	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("first admin: %w", errs.ErrAlreadyExists)
	}

	admin.Email = models.NormalizeEmail(admin.Email)
	admin.CreatedAt = time.Now().UTC()

	first := true
	row := adminRow{
		ID:           admin.ID,
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
		FirstAdmin:   &first,
	}
	err = r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("first admin: %w", errs.ErrAlreadyExists)
	}
	return err
}

// Count returns the number of registered admins
func (r *AdminRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&adminRow{}).Count(&n).Error
	return n, err
}
