package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

type adminDoc struct {
	ID           any       `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
	// FirstAdmin has a unique sparse index so only one registration can set it.
	FirstAdmin   bool      `bson:"firstAdmin,omitempty"`
}

type AdminRepo struct {
	collection *mongo.Collection
}

func (r *AdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var doc adminDoc
	err := r.collection.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("admin %s: %w", email, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	id, err := docID(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("admin %s: %w", doc.Email, err)
	}
	return &models.Admin{ID: id, Email: doc.Email, PasswordHash: doc.PasswordHash, CreatedAt: doc.CreatedAt}, nil
}

func (r *AdminRepo) Add(ctx context.Context, admin *models.Admin) error {
	admin.Email = models.NormalizeEmail(admin.Email)
	admin.CreatedAt = now()

	_, err := r.collection.InsertOne(ctx, adminDoc{
		ID:           admin.ID.String(),
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("admin %s: %w", admin.Email, errs.ErrAlreadyExists)
	}
	return err
}

// AddFirst inserts admin only while the collection is empty. Two registrations racing
// past the count both try to claim firstAdmin and the unique index rejects one.
func (r *AdminRepo) AddFirst(ctx context.Context, admin *models.Admin) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("first admin: %w", errs.ErrAlreadyExists)
	}

	admin.Email = models.NormalizeEmail(admin.Email)
	admin.CreatedAt = now()
	_, err = r.collection.InsertOne(ctx, adminDoc{
		ID:           admin.ID.String(),
		Email:        admin.Email,
		PasswordHash: admin.PasswordHash,
		CreatedAt:    admin.CreatedAt,
		FirstAdmin:   true,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("first admin: %w", errs.ErrAlreadyExists)
	}
	return err
}

func (r *AdminRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
