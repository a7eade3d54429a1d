// Package mongodb stores projects, site settings and admins in MongoDB. Collection names
// match the ones used by earlier deployments. Their ObjectID keys and old project field
// names are still readable, and ProjectRepo.MigrateLegacy rewrites them in place.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rpupo63/portfolio-site-backend/config"
)

// Collection names
const (
	CollectionProjects     = "projects"
	CollectionSiteSettings = "sitesettings"
	CollectionAdmins       = "admins"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database

	projectRepo      *ProjectRepo
	siteSettingsRepo *SiteSettingsRepo
	adminRepo        *AdminRepo
}

// Open connects, pings the primary and returns the store.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	return &MongoDB{
		client:           client,
		database:         db,
		projectRepo:      &ProjectRepo{collection: db.Collection(CollectionProjects)},
		siteSettingsRepo: &SiteSettingsRepo{collection: db.Collection(CollectionSiteSettings)},
		adminRepo:        &AdminRepo{collection: db.Collection(CollectionAdmins)},
	}, nil
}

// Initialize creates the indexes every query relies on.
func (m *MongoDB) Initialize(ctx context.Context) error {
	if _, err := m.database.Collection(CollectionProjects).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create projects index: %w", err)
	}

	if _, err := m.database.Collection(CollectionAdmins).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create admins index: %w", err)
	}
	if _, err := m.database.Collection(CollectionAdmins).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "firstAdmin", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}); err != nil {
		return fmt.Errorf("create first admin index: %w", err)
	}

	log.Info().Msg("MongoDB indexes ready")
	return nil
}

func (m *MongoDB) ProjectRepo() *ProjectRepo           { return m.projectRepo }
func (m *MongoDB) SiteSettingsRepo() *SiteSettingsRepo { return m.siteSettingsRepo }
func (m *MongoDB) AdminRepo() *AdminRepo               { return m.adminRepo }

// Ping checks the primary.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// now truncates to the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
