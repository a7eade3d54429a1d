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

// settingsDoc is the only document in its collection. Documents written by earlier
// deployments carry an ObjectID, so the id is matched on shape rather than value.
type settingsDoc struct {
	ID        any                  `bson:"_id"`
	Hero      models.HeroSettings  `bson:"hero"`
	About     models.AboutSettings `bson:"about"`
	Contact   models.StoredContact `bson:"contact"`
	Version   int64                `bson:"version"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

type SiteSettingsRepo struct {
	collection *mongo.Collection
}

func (r *SiteSettingsRepo) Find(ctx context.Context) (*models.SiteSettings, error) {
	var doc settingsDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("site settings: %w", errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	version := doc.Version
	if version == 0 {
		// documents written before versioning
		version = 1
	}
	s := models.SiteSettings{
		Hero:          doc.Hero,
		About:         doc.About,
		Contact:       doc.Contact.Contact(),
		Version:       version,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		LegacyContact: doc.Contact.IsLegacy(),
	}.Normalized()
	return &s, nil
}

// CreateIfAbsent upserts with $setOnInsert so a concurrent creator never overwrites.
func (r *SiteSettingsRepo) CreateIfAbsent(ctx context.Context, settings models.SiteSettings) error {
	t := now()
	s := settings.Normalized()
	if s.Version == 0 {
		s.Version = 1
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{},
		bson.M{"$setOnInsert": settingsDoc{
			ID:        models.SiteSettingsKey,
			Hero:      s.Hero,
			About:     s.About,
			Contact:   models.NewStoredContact(s.Contact),
			Version:   s.Version,
			CreatedAt: t,
			UpdatedAt: t,
		}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// lost the upsert race; the other writer's document stands
		return nil
	}
	return err
}

// Save replaces the sections when the stored version matches. Legacy contact keys are
// dropped because the whole contact subdocument is rewritten.
func (r *SiteSettingsRepo) Save(ctx context.Context, settings *models.SiteSettings, expectedVersion int64) error {
	t := now()
	s := settings.Normalized()

	result, err := r.collection.UpdateOne(ctx, settingsVersionFilter(expectedVersion), bson.M{
		"$set": bson.M{
			"hero":      s.Hero,
			"about":     s.About,
			"contact":   models.NewStoredContact(s.Contact),
			"version":   expectedVersion + 1,
			"updatedAt": t,
		},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("site settings at version %d: %w", expectedVersion, errs.ErrVersionMismatch)
	}

	settings.Version = expectedVersion + 1
	settings.UpdatedAt = t
	settings.LegacyContact = false
	return nil
}

// settingsVersionFilter matches the document at the given version. Documents written
// before versioning have no version key and count as version 1.
func settingsVersionFilter(expected int64) bson.M {
	if expected == 1 {
		return bson.M{"$or": bson.A{
			bson.M{"version": int64(1)},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"version": expected}
}
