package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rpupo63/portfolio-site-backend/errs"
	"github.com/rpupo63/portfolio-site-backend/models"
)

// projectDoc keeps the old image/github/live keys so documents written by earlier
// deployments still decode. New writes only use the current keys.
type projectDoc struct {
	ID          any       `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Tags        []string  `bson:"tags"`
	ImageURL    string    `bson:"imageUrl"`
	Images      []string  `bson:"images"`
	GithubURL   string    `bson:"githubUrl"`
	LiveDemoURL string    `bson:"liveDemoUrl"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`

	Image  string `bson:"image,omitempty"`
	Github string `bson:"github,omitempty"`
	Live   string `bson:"live,omitempty"`
}

func newProjectDoc(p models.Project) projectDoc {
	return projectDoc{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		ImageURL:    p.ImageURL,
		Images:      p.Images,
		GithubURL:   p.GithubURL,
		LiveDemoURL: p.LiveDemoURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d projectDoc) toModel() (models.Project, error) {
	id, err := docID(d.ID)
	if err != nil {
		return models.Project{}, fmt.Errorf("project: %w", err)
	}

	p := models.Project{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		ImageURL:    firstNonEmpty(d.ImageURL, d.Image),
		Images:      d.Images,
		GithubURL:   firstNonEmpty(d.GithubURL, d.Github),
		LiveDemoURL: firstNonEmpty(d.LiveDemoURL, d.Live),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if oid, ok := d.ID.(primitive.ObjectID); ok && p.CreatedAt.IsZero() {
		p.CreatedAt = oid.Timestamp().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return p.Normalized(), nil
}

// migratedProjectDoc rewrites a legacy document under its UUID key with current field names.
func migratedProjectDoc(d projectDoc) (projectDoc, error) {
	p, err := d.toModel()
	if err != nil {
		return projectDoc{}, err
	}
	return newProjectDoc(p), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodeProjects drains the cursor. A document that cannot be read is logged and
// skipped so one bad record does not hide the rest of the list.
func decodeProjects(ctx context.Context, cursor *mongo.Cursor) ([]models.Project, error) {
	projects := []models.Project{}
	for cursor.Next(ctx) {
		var doc projectDoc
		if err := cursor.Decode(&doc); err != nil {
			log.Warn().Err(err).Str("raw", cursor.Current.String()).Msg("skipping undecodable project")
			continue
		}
		p, err := doc.toModel()
		if err != nil {
			log.Warn().Err(err).Interface("id", doc.ID).Msg("skipping project with unusable id")
			continue
		}
		projects = append(projects, p)
	}
	return projects, cursor.Err()
}

type ProjectRepo struct {
	collection *mongo.Collection
}

// FindAll returns all projects, newest first
func (r *ProjectRepo) FindAll(ctx context.Context) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeProjects(ctx, cursor)
}

func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var doc projectDoc
	err := r.collection.FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("project %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	t := now()
	project.CreatedAt = t
	project.UpdatedAt = t
	p := project.Normalized()

	_, err := r.collection.InsertOne(ctx, newProjectDoc(p))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("project %s: %w", p.ID, errs.ErrAlreadyExists)
	}
	return err
}

func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	t := now()
	p := project.Normalized()

	result, err := r.collection.UpdateOne(ctx, idFilter(p.ID), bson.M{
		"$set": bson.M{
			"title":       p.Title,
			"description": p.Description,
			"tags":        p.Tags,
			"imageUrl":    p.ImageURL,
			"images":      p.Images,
			"githubUrl":   p.GithubURL,
			"liveDemoUrl": p.LiveDemoURL,
			"updatedAt":   t,
		},
		"$unset": bson.M{"image": "", "github": "", "live": ""},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("project %s: %w", p.ID, errs.ErrNotFound)
	}
	project.UpdatedAt = t
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.collection.DeleteMany(ctx, idFilter(id))
	return err
}

// MigrateLegacy rewrites projects written by earlier deployments: ObjectID keys become
// UUID strings and the image/github/live keys move to their current names. It returns
// how many documents were rewritten.
func (r *ProjectRepo) MigrateLegacy(ctx context.Context) (int, error) {
	cursor, err := r.collection.Find(ctx, legacyProjectFilter())
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	migrated := 0
	for cursor.Next(ctx) {
		var doc projectDoc
		if err := cursor.Decode(&doc); err != nil {
			log.Warn().Err(err).Str("raw", cursor.Current.String()).Msg("cannot migrate undecodable project")
			continue
		}
		next, err := migratedProjectDoc(doc)
		if err != nil {
			log.Warn().Err(err).Interface("id", doc.ID).Msg("cannot migrate project")
			continue
		}

		if _, ok := doc.ID.(primitive.ObjectID); ok {
			// insert before delete: rerunning after an interruption finishes the move
			if _, err := r.collection.InsertOne(ctx, next); err != nil && !mongo.IsDuplicateKeyError(err) {
				return migrated, fmt.Errorf("insert migrated project %v: %w", next.ID, err)
			}
			if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": doc.ID}); err != nil {
				return migrated, fmt.Errorf("delete legacy project %v: %w", doc.ID, err)
			}
		} else if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, next); err != nil {
			return migrated, fmt.Errorf("rewrite project %v: %w", doc.ID, err)
		}
		migrated++
	}
	return migrated, cursor.Err()
}
